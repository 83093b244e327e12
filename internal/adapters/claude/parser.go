package claude

import (
	"bufio"
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/crosscli/go-crosscli/internal/crosscli"
)

// lineEntry is one line of a Claude Code JSONL trace, reduced to the fields
// the common record needs.
type lineEntry struct {
	Type      string          `json:"type"`
	Timestamp string          `json:"timestamp,omitempty"`
	SessionID string          `json:"sessionId,omitempty"`
	GitBranch string          `json:"gitBranch,omitempty"`
	CWD       string          `json:"cwd,omitempty"`
	IsMeta    bool            `json:"isMeta,omitempty"`
	Summary   string          `json:"summary,omitempty"`
	Message   json.RawMessage `json:"message,omitempty"`
}

// userMessage is the message field of a "user" line. Content is either a
// plain string or an array of content blocks.
type userMessage struct {
	Role    string      `json:"role"`
	Content userContent `json:"content"`
}

type userContent struct {
	Text   string
	Blocks []contentBlock
}

func (c *userContent) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		c.Text = s
		return nil
	}
	var blocks []contentBlock
	if err := json.Unmarshal(data, &blocks); err == nil {
		c.Blocks = blocks
	}
	// Unrecognized content shapes are ignored, not fatal.
	return nil
}

type assistantMessage struct {
	Role    string         `json:"role"`
	Model   string         `json:"model,omitempty"`
	Content []contentBlock `json:"content,omitempty"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

func (c userContent) text() string {
	if c.Text != "" {
		return c.Text
	}
	return blocksText(c.Blocks)
}

func blocksText(blocks []contentBlock) string {
	var text string
	for _, b := range blocks {
		if b.Type != "text" || b.Text == "" {
			continue
		}
		if text != "" {
			text += "\n"
		}
		text += b.Text
	}
	return text
}

// Parser streams conversation entries out of a Claude JSONL trace,
// skipping lines it cannot interpret.
type Parser struct {
	scanner *bufio.Scanner
	lineNum int
}

// NewParser creates a parser from an io.Reader.
func NewParser(r io.Reader) *Parser {
	return &Parser{scanner: crosscli.NewScannerWithMaxCapacity(r)}
}

// NextEntry returns the next user or assistant message, or io.EOF.
func (p *Parser) NextEntry() (*crosscli.Entry, error) {
	for p.scanner.Scan() {
		p.lineNum++
		line := p.scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var raw lineEntry
		if err := json.Unmarshal(line, &raw); err != nil {
			continue // malformed line, never fatal
		}
		if entry := convertLine(raw); entry != nil {
			return entry, nil
		}
	}
	if err := p.scanner.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}

func convertLine(raw lineEntry) *crosscli.Entry {
	ts, _ := time.Parse(time.RFC3339, raw.Timestamp)
	switch raw.Type {
	case "user":
		if raw.IsMeta {
			return nil
		}
		var msg userMessage
		if err := json.Unmarshal(raw.Message, &msg); err != nil {
			return nil
		}
		text := msg.Content.text()
		if text == "" {
			return nil
		}
		return &crosscli.Entry{Role: crosscli.RoleUser, Timestamp: ts, Text: text}
	case "assistant":
		var msg assistantMessage
		if err := json.Unmarshal(raw.Message, &msg); err != nil {
			return nil
		}
		text := blocksText(msg.Content)
		if text == "" {
			return nil
		}
		return &crosscli.Entry{Role: crosscli.RoleAssistant, Timestamp: ts, Text: text}
	default:
		return nil
	}
}

// sessionHints is summary-level metadata pulled from a session file when no
// index entry covers it.
type sessionHints struct {
	summary      string
	model        string
	gitBranch    string
	cwd          string
	messageCount int
	started      time.Time
	lastActivity time.Time
}

// extractSessionHints scans a session file for display metadata. It reads
// the whole file line by line but parses only the fields it needs.
func extractSessionHints(path string) sessionHints {
	var hints sessionHints
	f, err := os.Open(path)
	if err != nil {
		return hints
	}
	defer f.Close()

	scanner := crosscli.NewScannerWithMaxCapacity(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var raw lineEntry
		if err := json.Unmarshal(line, &raw); err != nil {
			continue
		}

		if ts, err := time.Parse(time.RFC3339, raw.Timestamp); err == nil {
			if hints.started.IsZero() {
				hints.started = ts
			}
			if ts.After(hints.lastActivity) {
				hints.lastActivity = ts
			}
		}
		if hints.gitBranch == "" && raw.GitBranch != "" {
			hints.gitBranch = raw.GitBranch
		}
		if hints.cwd == "" && raw.CWD != "" {
			hints.cwd = raw.CWD
		}

		switch raw.Type {
		case "summary":
			if raw.Summary != "" {
				hints.summary = raw.Summary
			}
		case "user":
			if raw.IsMeta {
				continue
			}
			var msg userMessage
			if err := json.Unmarshal(raw.Message, &msg); err != nil {
				continue
			}
			if text := msg.Content.text(); text != "" {
				hints.messageCount++
				if hints.summary == "" {
					hints.summary = text
				}
			}
		case "assistant":
			var msg assistantMessage
			if err := json.Unmarshal(raw.Message, &msg); err != nil {
				continue
			}
			if hints.model == "" && msg.Model != "" {
				hints.model = msg.Model
			}
			if blocksText(msg.Content) != "" {
				hints.messageCount++
			}
		}
	}
	return hints
}

type sessionReader struct {
	parser *Parser
	file   io.Closer
	meta   crosscli.SessionMeta
}

func (r *sessionReader) ReadNext() (*crosscli.Entry, error) { return r.parser.NextEntry() }
func (r *sessionReader) Metadata() crosscli.SessionMeta     { return r.meta }
func (r *sessionReader) Close() error                       { return r.file.Close() }
