// Package crosscli provides a unified, read-only view over the session
// storage of AI coding assistant CLIs (Claude Code, Codex CLI, Gemini CLI,
// Qwen Code, iFlow CLI).
package crosscli

import (
	"context"
	"errors"
	"time"
)

// Source identifies the AI coding assistant CLI that created a session.
type Source string

const (
	SourceClaude Source = "claude"
	SourceCodex  Source = "codex"
	SourceGemini Source = "gemini"
	SourceQwen   Source = "qwen"
	SourceIflow  Source = "iflow"
)

// DisplayName returns the human-readable name for a source.
func (s Source) DisplayName() string {
	switch s {
	case SourceClaude:
		return "Claude Code"
	case SourceCodex:
		return "Codex CLI"
	case SourceGemini:
		return "Gemini CLI"
	case SourceQwen:
		return "Qwen Code"
	case SourceIflow:
		return "iFlow CLI"
	default:
		return string(s)
	}
}

// ErrUnknownCLI is returned when a query names a CLI no adapter claims.
var ErrUnknownCLI = errors.New("unknown cli")

// ErrInvalidTimeRange is returned for malformed custom time bounds.
var ErrInvalidTimeRange = errors.New("invalid time range")

// Role identifies the author of a message within a conversation.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
	RoleSystem    Role = "system"
)

// Entry is one turn of a conversation, materialized lazily: loaders only
// produce entries when context extraction or deep keyword search asks.
type Entry struct {
	Role      Role      `json:"role"`
	Timestamp time.Time `json:"timestamp"`
	Text      string    `json:"text"`
}

// SessionMeta is the common, normalized record of one session from any
// supported tool. It mirrors external state and is never written back.
type SessionMeta struct {
	ID             string    `json:"id"` // unique within its Source namespace
	Source         Source    `json:"source"`
	ProjectPath    string    `json:"project_path"`
	FullPath       string    `json:"full_path"` // opaque ref to native storage
	StartedAt      time.Time `json:"started_at"`
	LastActivityAt time.Time `json:"last_activity_at"`
	MessageCount   int       `json:"message_count"`
	Summary        string    `json:"summary,omitempty"`
	GitBranch      string    `json:"git_branch,omitempty"`
	Model          string    `json:"model,omitempty"`
	FileSize       int64     `json:"-"`
}

// Tags returns the derived tags for a session (branch, model).
func (m SessionMeta) Tags() []string {
	var tags []string
	if m.GitBranch != "" {
		tags = append(tags, m.GitBranch)
	}
	if m.Model != "" {
		tags = append(tags, m.Model)
	}
	return tags
}

// Session is a session with its full message history loaded.
type Session struct {
	Meta    SessionMeta `json:"meta"`
	Entries []Entry     `json:"entries"`
}

// Detection is the outcome of probing for one tool. Absence is a normal
// outcome, never an error.
type Detection struct {
	Installed bool   `json:"installed"`
	Command   string `json:"command,omitempty"` // absolute path to the binary
	Version   string `json:"version,omitempty"`
	BasePath  string `json:"base_path,omitempty"` // session storage root
}

// Adapter is the contract for one external CLI tool's session storage:
// detection, path resolution, and parsing into the common record.
// Implementations are read-only and immutable after registration.
type Adapter interface {
	// Source returns the stable name of the tool.
	Source() Source

	// DisplayName returns the human-readable tool name.
	DisplayName() string

	// Detect probes for the tool using executable and filesystem checks
	// in a fixed priority order; the first matching probe wins.
	Detect(ctx context.Context) Detection

	// SessionsPath returns the storage path holding sessions, optionally
	// scoped to a project path. Empty means the tool stores nothing here.
	SessionsPath(projectPath string) string

	// ListSessions returns session metadata sorted by LastActivityAt
	// descending. Corrupt entries are skipped, never fatal.
	ListSessions(ctx context.Context) ([]SessionMeta, error)

	// OpenSession returns a streaming reader over a session's messages.
	OpenSession(ctx context.Context, meta SessionMeta) (SessionReader, error)
}

// SessionReader provides streaming access to session entries.
type SessionReader interface {
	// ReadNext returns the next entry, or io.EOF when done.
	ReadNext() (*Entry, error)

	// Metadata returns the session metadata.
	Metadata() SessionMeta

	// Close releases any resources.
	Close() error
}

// ResumeInfo describes how to exec back into a session's original CLI tool.
type ResumeInfo struct {
	Command string   // absolute path to binary
	Args    []string // argv (including argv[0])
	Dir     string   // working directory to run in (empty = current)
}

// SessionResumer is optionally implemented by adapters whose tool supports
// resuming a session (e.g. claude --resume).
type SessionResumer interface {
	ResumeCommand(meta SessionMeta) (*ResumeInfo, error)
}

// Registry holds the known adapters. It is constructed once at startup and
// passed by reference into every component; there is no ambient global.
type Registry struct {
	adapters []Adapter
	byName   map[Source]Adapter
}

// NewRegistry creates a registry over the given adapters.
func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{byName: make(map[Source]Adapter, len(adapters))}
	for _, a := range adapters {
		r.Register(a)
	}
	return r
}

// Register adds an adapter. Later registrations with the same source name
// replace earlier ones.
func (r *Registry) Register(a Adapter) {
	if _, ok := r.byName[a.Source()]; !ok {
		r.adapters = append(r.adapters, a)
	} else {
		for i := range r.adapters {
			if r.adapters[i].Source() == a.Source() {
				r.adapters[i] = a
				break
			}
		}
	}
	r.byName[a.Source()] = a
}

// Get returns the adapter for a source name.
func (r *Registry) Get(source Source) (Adapter, bool) {
	a, ok := r.byName[source]
	return a, ok
}

// All returns the adapters in registration order.
func (r *Registry) All() []Adapter {
	out := make([]Adapter, len(r.adapters))
	copy(out, r.adapters)
	return out
}

// Sources returns the registered source names in registration order.
func (r *Registry) Sources() []Source {
	out := make([]Source, len(r.adapters))
	for i, a := range r.adapters {
		out[i] = a.Source()
	}
	return out
}
