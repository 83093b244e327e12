package codex

import (
	"bufio"
	"encoding/json"
	"io"
	"strings"
	"time"

	"github.com/crosscli/go-crosscli/internal/crosscli"
)

// logLine is the envelope of every Codex rollout line.
type logLine struct {
	Timestamp string          `json:"timestamp"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
}

// sessionHeader carries the session_meta payload fields the common record
// uses.
type sessionHeader struct {
	ID        string
	CWD       string
	Model     string
	GitBranch string
	Timestamp time.Time
}

// Parser reads Codex rollout JSONL entries from an io.Reader.
type Parser struct {
	scanner *bufio.Scanner
}

// NewParser creates a Codex rollout parser.
func NewParser(r io.Reader) *Parser {
	return &Parser{scanner: crosscli.NewScannerWithMaxCapacity(r)}
}

// NextEntry returns the next conversation entry, or io.EOF.
func (p *Parser) NextEntry() (*crosscli.Entry, error) {
	for {
		entry, _, err := p.next()
		if err != nil {
			return nil, err
		}
		if entry != nil {
			return entry, nil
		}
	}
}

// next advances one meaningful line: either a conversation entry or the
// session header. Unconvertible lines are skipped.
func (p *Parser) next() (*crosscli.Entry, *sessionHeader, error) {
	for p.scanner.Scan() {
		line := strings.TrimSpace(p.scanner.Text())
		if line == "" {
			continue
		}

		var l logLine
		if err := json.Unmarshal([]byte(line), &l); err != nil {
			continue
		}

		ts, _ := time.Parse(time.RFC3339, l.Timestamp)
		switch l.Type {
		case "session_meta":
			if h := parseHeader(l.Payload, ts); h != nil {
				return nil, h, nil
			}
		case "event_msg":
			if e := convertEventMsg(l.Payload, ts); e != nil {
				return e, nil, nil
			}
		case "response_item":
			if e := convertResponseItem(l.Payload, ts); e != nil {
				return e, nil, nil
			}
		}
	}
	if err := p.scanner.Err(); err != nil {
		return nil, nil, err
	}
	return nil, nil, io.EOF
}

func parseHeader(raw json.RawMessage, ts time.Time) *sessionHeader {
	var payload struct {
		ID            string `json:"id"`
		Timestamp     string `json:"timestamp"`
		CWD           string `json:"cwd"`
		Model         string `json:"model"`
		ModelProvider string `json:"model_provider"`
		Git           struct {
			Branch string `json:"branch"`
		} `json:"git"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil
	}
	h := &sessionHeader{
		ID:        payload.ID,
		CWD:       payload.CWD,
		Model:     payload.Model,
		GitBranch: payload.Git.Branch,
		Timestamp: ts,
	}
	if h.Model == "" {
		h.Model = payload.ModelProvider
	}
	if t, err := time.Parse(time.RFC3339, payload.Timestamp); err == nil {
		h.Timestamp = t
	}
	return h
}

func convertEventMsg(raw json.RawMessage, ts time.Time) *crosscli.Entry {
	var payload struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil
	}
	switch payload.Type {
	case "user_message":
		if payload.Message == "" {
			return nil
		}
		return &crosscli.Entry{Role: crosscli.RoleUser, Timestamp: ts, Text: payload.Message}
	case "agent_message":
		if payload.Message == "" {
			return nil
		}
		return &crosscli.Entry{Role: crosscli.RoleAssistant, Timestamp: ts, Text: payload.Message}
	default:
		return nil
	}
}

func convertResponseItem(raw json.RawMessage, ts time.Time) *crosscli.Entry {
	var payload struct {
		Type    string `json:"type"`
		Role    string `json:"role"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil
	}
	if payload.Type != "message" {
		return nil
	}

	var role crosscli.Role
	switch payload.Role {
	case "user":
		role = crosscli.RoleUser
	case "assistant":
		role = crosscli.RoleAssistant
	default:
		return nil
	}

	var text string
	for _, c := range payload.Content {
		if c.Type != "input_text" && c.Type != "output_text" && c.Type != "text" {
			continue
		}
		if c.Text == "" {
			continue
		}
		if text != "" {
			text += "\n"
		}
		text += c.Text
	}
	if text == "" {
		return nil
	}
	return &crosscli.Entry{Role: role, Timestamp: ts, Text: text}
}

type sessionReader struct {
	parser *Parser
	file   io.Closer
	meta   crosscli.SessionMeta
}

func (r *sessionReader) ReadNext() (*crosscli.Entry, error) { return r.parser.NextEntry() }
func (r *sessionReader) Metadata() crosscli.SessionMeta     { return r.meta }
func (r *sessionReader) Close() error                       { return r.file.Close() }
