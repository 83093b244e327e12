package codex

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/crosscli/go-crosscli/internal/crosscli"
)

func writeRollout(t *testing.T, base, relDir, name, trace string) string {
	t.Helper()
	dir := filepath.Join(base, "sessions", relDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(trace), 0o644); err != nil {
		t.Fatal(err)
	}
	// Backdate the file so entry timestamps, not write time, decide
	// last activity.
	old := time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC)
	if err := os.Chtimes(path, old, old); err != nil {
		t.Fatal(err)
	}
	return path
}

const sampleRollout = `{"timestamp":"2025-06-15T10:00:00Z","type":"session_meta","payload":{"id":"0196-uuid","timestamp":"2025-06-15T10:00:00Z","cwd":"/home/u/app","model":"gpt-5","git":{"branch":"main"}}}
{"timestamp":"2025-06-15T10:00:10Z","type":"event_msg","payload":{"type":"user_message","message":"add pagination to the list"}}
{"timestamp":"2025-06-15T10:01:00Z","type":"event_msg","payload":{"type":"agent_message","message":"Added limit/offset params."}}
{"timestamp":"2025-06-15T10:01:30Z","type":"event_msg","payload":{"type":"token_count","info":{}}}
{"timestamp":"2025-06-15T10:02:00Z","type":"response_item","payload":{"type":"message","role":"assistant","content":[{"type":"output_text","text":"Done."}]}}
`

func TestListSessions(t *testing.T) {
	base := t.TempDir()
	writeRollout(t, base, "2025/06/15", "rollout-2025-06-15T10-00-00-x.jsonl", sampleRollout)

	adapter := New(base, 0)
	sessions, err := adapter.ListSessions(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("got %d sessions, want 1", len(sessions))
	}

	s := sessions[0]
	if s.ID != "0196-uuid" {
		t.Errorf("ID = %q, want header id", s.ID)
	}
	if s.Source != crosscli.SourceCodex {
		t.Errorf("source = %s", s.Source)
	}
	if s.ProjectPath != "/home/u/app" {
		t.Errorf("project path = %q", s.ProjectPath)
	}
	if s.Model != "gpt-5" {
		t.Errorf("model = %q", s.Model)
	}
	if s.GitBranch != "main" {
		t.Errorf("git branch = %q", s.GitBranch)
	}
	if s.Summary != "add pagination to the list" {
		t.Errorf("summary = %q, want first user message", s.Summary)
	}
	if s.MessageCount != 3 {
		t.Errorf("message count = %d, want 3", s.MessageCount)
	}
	if !s.StartedAt.Equal(time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("started at = %v", s.StartedAt)
	}
	if !s.LastActivityAt.Equal(time.Date(2025, 6, 15, 10, 2, 0, 0, time.UTC)) {
		t.Errorf("last activity = %v", s.LastActivityAt)
	}
}

func TestListSessions_ManyFilesSorted(t *testing.T) {
	base := t.TempDir()
	// More files than the parse concurrency cap, to exercise the pooled scan.
	for i := range 40 {
		trace := fmt.Sprintf(`{"timestamp":"2025-06-15T10:00:00Z","type":"session_meta","payload":{"id":"s%02d","timestamp":"2025-06-15T10:00:00Z","cwd":"/home/u/app"}}
{"timestamp":"2025-06-15T10:%02d:00Z","type":"event_msg","payload":{"type":"user_message","message":"message %d"}}
`, i, i, i)
		writeRollout(t, base, "2025/06/15", fmt.Sprintf("rollout-%02d.jsonl", i), trace)
	}

	adapter := New(base, 0)
	sessions, err := adapter.ListSessions(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sessions) != 40 {
		t.Fatalf("got %d sessions, want 40", len(sessions))
	}
	for i, s := range sessions {
		want := fmt.Sprintf("s%02d", 39-i)
		if s.ID != want {
			t.Fatalf("sessions[%d].ID = %q, want %q", i, s.ID, want)
		}
	}
}

func TestListSessions_TolerantOfUnparseable(t *testing.T) {
	base := t.TempDir()
	writeRollout(t, base, "2025/06/15", "good.jsonl", sampleRollout)
	// A garbage file still yields stat-based metadata, never an error.
	writeRollout(t, base, "2025/06/15", "bad.jsonl", "not json\n")

	adapter := New(base, 0)
	sessions, err := adapter.ListSessions(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("got %d sessions, want 2", len(sessions))
	}
}

func TestListSessions_MissingDir(t *testing.T) {
	adapter := New(filepath.Join(t.TempDir(), "absent"), 0)
	sessions, err := adapter.ListSessions(context.Background())
	if err != nil {
		t.Fatalf("missing storage must not error: %v", err)
	}
	if len(sessions) != 0 {
		t.Errorf("got %d sessions, want 0", len(sessions))
	}
}

func TestOpenSession(t *testing.T) {
	base := t.TempDir()
	path := writeRollout(t, base, "2025/06/15", "rollout.jsonl", sampleRollout)

	adapter := New(base, 0)
	reader, err := adapter.OpenSession(context.Background(), crosscli.SessionMeta{ID: "0196-uuid", FullPath: path})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer reader.Close()

	var texts []string
	var roles []crosscli.Role
	for {
		entry, err := reader.ReadNext()
		if err != nil {
			break
		}
		texts = append(texts, entry.Text)
		roles = append(roles, entry.Role)
	}
	if len(texts) != 3 {
		t.Fatalf("got %d entries, want 3: %v", len(texts), texts)
	}
	if roles[0] != crosscli.RoleUser || texts[0] != "add pagination to the list" {
		t.Errorf("entry 0 = %s %q", roles[0], texts[0])
	}
	if roles[1] != crosscli.RoleAssistant {
		t.Errorf("entry 1 role = %s", roles[1])
	}
	if texts[2] != "Done." {
		t.Errorf("entry 2 = %q", texts[2])
	}
}

func TestResumeCommand(t *testing.T) {
	bin := t.TempDir()
	fake := filepath.Join(bin, "codex")
	if err := os.WriteFile(fake, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PATH", bin)

	adapter := New(t.TempDir(), 0)
	info, err := adapter.ResumeCommand(crosscli.SessionMeta{ID: "0196-uuid", ProjectPath: "/home/u/app"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.Args[1] != "resume" || info.Args[2] != "0196-uuid" {
		t.Errorf("args = %v", info.Args)
	}
	if info.Dir != "/home/u/app" {
		t.Errorf("dir = %q", info.Dir)
	}
}
