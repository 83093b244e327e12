package gemini

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/crosscli/go-crosscli/internal/crosscli"
)

// chatFile is one Gemini CLI conversation file.
type chatFile struct {
	SessionID   string        `json:"sessionId"`
	ProjectHash string        `json:"projectHash"`
	StartTime   time.Time     `json:"startTime"`
	LastUpdated time.Time     `json:"lastUpdated"`
	Messages    []chatMessage `json:"messages"`
}

// chatMessage is a single message. Content is either a plain string or an
// array of {text} parts.
type chatMessage struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Type      string    `json:"type"` // "user" or "gemini"
	Content   string    `json:"content"`
	Model     string    `json:"model,omitempty"`
}

type contentPart struct {
	Text string `json:"text"`
}

func (m *chatMessage) UnmarshalJSON(data []byte) error {
	type alias chatMessage
	aux := &struct {
		Content json.RawMessage `json:"content"`
		*alias
	}{alias: (*alias)(m)}
	if err := json.Unmarshal(data, aux); err != nil {
		return err
	}
	if len(aux.Content) == 0 {
		return nil
	}

	var s string
	if err := json.Unmarshal(aux.Content, &s); err == nil {
		m.Content = s
		return nil
	}

	var parts []contentPart
	if err := json.Unmarshal(aux.Content, &parts); err == nil {
		texts := make([]string, 0, len(parts))
		for _, p := range parts {
			if p.Text != "" {
				texts = append(texts, p.Text)
			}
		}
		m.Content = strings.Join(texts, "\n")
	}
	return nil
}

func (m chatMessage) role() crosscli.Role {
	if m.Type == "user" {
		return crosscli.RoleUser
	}
	return crosscli.RoleAssistant
}

func readChatFile(path string) (*chatFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var chat chatFile
	if err := json.NewDecoder(f).Decode(&chat); err != nil {
		return nil, err
	}
	return &chat, nil
}

// readSessionMeta decodes one chat file down to summary-level metadata.
func readSessionMeta(path, projectHash string) (*crosscli.SessionMeta, error) {
	chat, err := readChatFile(path)
	if err != nil {
		return nil, err
	}

	meta := &crosscli.SessionMeta{
		ID:             chat.SessionID,
		Source:         crosscli.SourceGemini,
		ProjectPath:    "gemini://" + projectHash,
		FullPath:       path,
		StartedAt:      chat.StartTime,
		LastActivityAt: chat.LastUpdated,
		MessageCount:   len(chat.Messages),
	}
	if meta.ID == "" {
		meta.ID = strings.TrimSuffix(filepath.Base(path), ".json")
	}
	for _, m := range chat.Messages {
		if meta.Summary == "" && m.Type == "user" && m.Content != "" {
			meta.Summary = m.Content
		}
		if meta.Model == "" && m.Model != "" {
			meta.Model = m.Model
		}
		if m.Timestamp.After(meta.LastActivityAt) {
			meta.LastActivityAt = m.Timestamp
		}
	}
	if meta.StartedAt.IsZero() && len(chat.Messages) > 0 {
		meta.StartedAt = chat.Messages[0].Timestamp
	}
	return meta, nil
}

// chatReader streams the decoded messages of one chat file.
type chatReader struct {
	meta     crosscli.SessionMeta
	messages []chatMessage
	pos      int
}

func newChatReader(chat *chatFile, meta crosscli.SessionMeta) *chatReader {
	return &chatReader{meta: meta, messages: chat.Messages}
}

func (r *chatReader) ReadNext() (*crosscli.Entry, error) {
	for r.pos < len(r.messages) {
		m := r.messages[r.pos]
		r.pos++
		if m.Content == "" {
			continue
		}
		return &crosscli.Entry{Role: m.role(), Timestamp: m.Timestamp, Text: m.Content}, nil
	}
	return nil, io.EOF
}

func (r *chatReader) Metadata() crosscli.SessionMeta { return r.meta }
func (r *chatReader) Close() error                   { return nil }
