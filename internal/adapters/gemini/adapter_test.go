package gemini

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/crosscli/go-crosscli/internal/crosscli"
)

const sampleChat = `{
  "sessionId": "sess-1",
  "projectHash": "a1b2c3",
  "startTime": "2025-06-15T10:00:00Z",
  "lastUpdated": "2025-06-15T10:05:00Z",
  "messages": [
    {"id":"m1","timestamp":"2025-06-15T10:00:00Z","type":"user","content":"explain goroutine leaks"},
    {"id":"m2","timestamp":"2025-06-15T10:01:00Z","type":"gemini","content":[{"text":"A goroutine leaks when"},{"text":"it blocks forever."}],"model":"gemini-2.5-pro"},
    {"id":"m3","timestamp":"2025-06-15T10:05:00Z","type":"user","content":""}
  ]
}`

func writeChat(t *testing.T, base, hash, name, body string) string {
	t.Helper()
	dir := filepath.Join(base, "tmp", hash, "chats")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestListSessions(t *testing.T) {
	base := t.TempDir()
	writeChat(t, base, "a1b2c3", "session-1.json", sampleChat)

	adapter := New(base, 0)
	sessions, err := adapter.ListSessions(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("got %d sessions, want 1", len(sessions))
	}

	s := sessions[0]
	if s.ID != "sess-1" {
		t.Errorf("ID = %q", s.ID)
	}
	if s.Source != crosscli.SourceGemini {
		t.Errorf("source = %s", s.Source)
	}
	if s.ProjectPath != "gemini://a1b2c3" {
		t.Errorf("project path = %q", s.ProjectPath)
	}
	if s.Summary != "explain goroutine leaks" {
		t.Errorf("summary = %q", s.Summary)
	}
	if s.Model != "gemini-2.5-pro" {
		t.Errorf("model = %q", s.Model)
	}
	if s.MessageCount != 3 {
		t.Errorf("message count = %d", s.MessageCount)
	}
	if !s.LastActivityAt.Equal(time.Date(2025, 6, 15, 10, 5, 0, 0, time.UTC)) {
		t.Errorf("last activity = %v", s.LastActivityAt)
	}
}

func TestListSessions_SkipsCorruptChat(t *testing.T) {
	base := t.TempDir()
	writeChat(t, base, "a1b2c3", "good.json", sampleChat)
	writeChat(t, base, "a1b2c3", "bad.json", "{truncated")

	adapter := New(base, 0)
	sessions, err := adapter.ListSessions(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sessions) != 1 || sessions[0].ID != "sess-1" {
		t.Errorf("expected only the readable chat, got %v", sessions)
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
	path := writeChat(t, base, "a1b2c3", "session-1.json", sampleChat)

	adapter := New(base, 0)
	reader, err := adapter.OpenSession(context.Background(), crosscli.SessionMeta{ID: "sess-1", FullPath: path})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer reader.Close()

	first, err := reader.ReadNext()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Role != crosscli.RoleUser || first.Text != "explain goroutine leaks" {
		t.Errorf("first entry = %s %q", first.Role, first.Text)
	}

	// Part-array content is joined; the empty trailing message is skipped.
	second, err := reader.ReadNext()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.Role != crosscli.RoleAssistant || second.Text != "A goroutine leaks when\nit blocks forever." {
		t.Errorf("second entry = %s %q", second.Role, second.Text)
	}

	if _, err := reader.ReadNext(); err != io.EOF {
		t.Errorf("expected io.EOF, got %v", err)
	}
}
