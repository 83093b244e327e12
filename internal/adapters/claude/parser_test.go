package claude

import (
	"io"
	"strings"
	"testing"

	"github.com/crosscli/go-crosscli/internal/crosscli"
)

const sampleTrace = `{"type":"summary","summary":"Fix login redirect"}
{"type":"user","timestamp":"2025-06-15T10:00:00Z","sessionId":"abc","gitBranch":"main","cwd":"/home/u/app","message":{"role":"user","content":"why does login redirect loop?"}}
{"type":"user","timestamp":"2025-06-15T10:00:05Z","isMeta":true,"message":{"role":"user","content":"<meta>"}}
not json at all
{"type":"assistant","timestamp":"2025-06-15T10:01:00Z","message":{"role":"assistant","model":"some-model","content":[{"type":"text","text":"The cookie domain is wrong."},{"type":"tool_use"}]}}
{"type":"user","timestamp":"2025-06-15T10:02:00Z","message":{"role":"user","content":[{"type":"text","text":"first block"},{"type":"text","text":"second block"}]}}
`

func TestParser_NextEntry(t *testing.T) {
	p := NewParser(strings.NewReader(sampleTrace))

	entry, err := p.NextEntry()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry.Role != crosscli.RoleUser || entry.Text != "why does login redirect loop?" {
		t.Errorf("unexpected first entry: %+v", entry)
	}
	if entry.Timestamp.Hour() != 10 {
		t.Errorf("timestamp not parsed: %v", entry.Timestamp)
	}

	// Meta line and the malformed line are both skipped.
	entry, err = p.NextEntry()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry.Role != crosscli.RoleAssistant || entry.Text != "The cookie domain is wrong." {
		t.Errorf("unexpected second entry: %+v", entry)
	}

	// Block-array user content joins text blocks.
	entry, err = p.NextEntry()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry.Text != "first block\nsecond block" {
		t.Errorf("unexpected block content: %q", entry.Text)
	}

	if _, err = p.NextEntry(); err != io.EOF {
		t.Errorf("expected io.EOF, got %v", err)
	}
}

func TestParser_EmptyInput(t *testing.T) {
	p := NewParser(strings.NewReader(""))
	if _, err := p.NextEntry(); err != io.EOF {
		t.Errorf("expected io.EOF, got %v", err)
	}
}
