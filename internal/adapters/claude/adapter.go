// Package claude reads Claude Code session storage (~/.claude/projects).
package claude

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/crosscli/go-crosscli/internal/crosscli"
)

// EnvHome overrides the Claude base directory, mainly for tests.
const EnvHome = "CROSSCLI_CLAUDE_HOME"

// Adapter implements crosscli.Adapter for Claude Code.
type Adapter struct {
	baseDir string
	cache   crosscli.ScanCache
}

// New creates a Claude adapter. An empty baseDir resolves the default
// location (EnvHome, then ~/.claude).
func New(baseDir string, cacheTTL time.Duration) *Adapter {
	if baseDir == "" {
		baseDir = defaultBaseDir()
	}
	a := &Adapter{baseDir: baseDir}
	a.cache.SetName("claude")
	a.cache.SetTTL(cacheTTL)
	return a
}

func defaultBaseDir() string {
	if dir := os.Getenv(EnvHome); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".claude")
}

// Source returns the stable tool name.
func (a *Adapter) Source() crosscli.Source { return crosscli.SourceClaude }

// DisplayName returns the human-readable tool name.
func (a *Adapter) DisplayName() string { return crosscli.SourceClaude.DisplayName() }

// Detect probes for Claude Code: the binary on PATH first, then the
// storage directory. Either probe alone marks the tool installed, since
// session history is readable without the binary.
func (a *Adapter) Detect(ctx context.Context) crosscli.Detection {
	det := crosscli.Detection{BasePath: a.baseDir}
	det.Command, det.Version = crosscli.ProbeExecutable(ctx, "claude")
	det.Installed = det.Command != "" || crosscli.DirExists(a.baseDir)
	return det
}

// SessionsPath returns the directory holding session files, scoped to a
// project when projectPath is non-empty.
func (a *Adapter) SessionsPath(projectPath string) string {
	if a.baseDir == "" {
		return ""
	}
	projectsDir := filepath.Join(a.baseDir, "projects")
	if projectPath == "" {
		return projectsDir
	}
	dir := filepath.Join(projectsDir, EncodeDirName(projectPath))
	if !crosscli.DirExists(dir) {
		return ""
	}
	return dir
}

// ListSessions returns all Claude sessions across all projects, sorted by
// LastActivityAt descending.
func (a *Adapter) ListSessions(ctx context.Context) ([]crosscli.SessionMeta, error) {
	projectsDir := filepath.Join(a.baseDir, "projects")
	return a.cache.Load("all", crosscli.LatestMtime(projectsDir), func() ([]crosscli.SessionMeta, error) {
		return listAllSessions(ctx, projectsDir)
	})
}

// OpenSession returns a streaming reader over a session's messages.
func (a *Adapter) OpenSession(ctx context.Context, meta crosscli.SessionMeta) (crosscli.SessionReader, error) {
	if err := crosscli.ValidateSessionPath(meta.FullPath, a.baseDir); err != nil {
		return nil, err
	}
	f, err := os.Open(meta.FullPath)
	if err != nil {
		return nil, err
	}
	return &sessionReader{parser: NewParser(f), file: f, meta: meta}, nil
}

// ResetCache drops cached scan results, forcing a rescan.
func (a *Adapter) ResetCache() { a.cache.Clear() }
