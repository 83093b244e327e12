package qwen

import (
	"bufio"
	"encoding/json"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/crosscli/go-crosscli/internal/crosscli"
)

// chatLine is one line of a qwen-family chat JSONL file.
type chatLine struct {
	Type      string          `json:"type"`
	Role      string          `json:"role"`
	Message   json.RawMessage `json:"message"`
	Timestamp string          `json:"timestamp"`
	Model     string          `json:"model"`
}

// messageParts is the parts-based message body.
type messageParts struct {
	Parts []struct {
		Text string `json:"text"`
	} `json:"parts"`
}

func (m messageParts) text() string {
	var out string
	for _, p := range m.Parts {
		if p.Text == "" {
			continue
		}
		if out != "" {
			out += "\n"
		}
		out += p.Text
	}
	return out
}

func (l chatLine) entry() *crosscli.Entry {
	var role crosscli.Role
	switch {
	case l.Type == "user" || l.Role == "user":
		role = crosscli.RoleUser
	case l.Type == "assistant" || l.Type == "model" || l.Role == "assistant" || l.Role == "model":
		role = crosscli.RoleAssistant
	default:
		return nil
	}

	var msg messageParts
	if err := json.Unmarshal(l.Message, &msg); err != nil {
		return nil
	}
	text := msg.text()
	if text == "" {
		return nil
	}

	ts, _ := time.Parse(time.RFC3339, l.Timestamp)
	return &crosscli.Entry{Role: role, Timestamp: ts, Text: text}
}

// readSessionMeta extracts summary-level metadata from one chat file.
func (a *Adapter) readSessionMeta(path, projectPath string, info fs.FileInfo) (*crosscli.SessionMeta, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	meta := &crosscli.SessionMeta{
		ID:             strings.TrimSuffix(filepath.Base(path), ".jsonl"),
		Source:         a.source,
		ProjectPath:    projectPath,
		FullPath:       path,
		FileSize:       info.Size(),
		StartedAt:      info.ModTime(),
		LastActivityAt: info.ModTime(),
	}

	first := true
	scanner := crosscli.NewScannerWithMaxCapacity(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var l chatLine
		if err := json.Unmarshal(line, &l); err != nil {
			continue
		}
		if meta.Model == "" && l.Model != "" {
			meta.Model = l.Model
		}
		if ts, err := time.Parse(time.RFC3339, l.Timestamp); err == nil {
			if first {
				meta.StartedAt = ts
				first = false
			}
			if ts.After(meta.LastActivityAt) {
				meta.LastActivityAt = ts
			}
		}
		if e := l.entry(); e != nil {
			meta.MessageCount++
			if meta.Summary == "" && e.Role == crosscli.RoleUser {
				meta.Summary = e.Text
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return meta, nil
}

type parser struct {
	scanner *bufio.Scanner
}

func newParser(r io.Reader) *parser {
	return &parser{scanner: crosscli.NewScannerWithMaxCapacity(r)}
}

func (p *parser) nextEntry() (*crosscli.Entry, error) {
	for p.scanner.Scan() {
		line := p.scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var l chatLine
		if err := json.Unmarshal(line, &l); err != nil {
			continue
		}
		if e := l.entry(); e != nil {
			return e, nil
		}
	}
	if err := p.scanner.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}

type sessionReader struct {
	parser *parser
	file   io.Closer
	meta   crosscli.SessionMeta
}

func (r *sessionReader) ReadNext() (*crosscli.Entry, error) { return r.parser.nextEntry() }
func (r *sessionReader) Metadata() crosscli.SessionMeta     { return r.meta }
func (r *sessionReader) Close() error                       { return r.file.Close() }
