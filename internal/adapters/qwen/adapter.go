// Package qwen reads Qwen Code session storage (~/.qwen/projects). The
// same storage layout is shared by other gemini-family forks; the iflow
// package reuses this implementation with its own base directory.
package qwen

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/crosscli/go-crosscli/internal/clilog"
	"github.com/crosscli/go-crosscli/internal/crosscli"
)

// EnvHome overrides the Qwen base directory, mainly for tests.
const EnvHome = "CROSSCLI_QWEN_HOME"

// Adapter implements crosscli.Adapter for Qwen Code and compatible forks.
type Adapter struct {
	source     crosscli.Source
	executable []string
	baseDir    string
	cache      crosscli.ScanCache
}

// New creates a Qwen adapter. An empty baseDir resolves the default
// location (EnvHome, then ~/.qwen).
func New(baseDir string, cacheTTL time.Duration) *Adapter {
	if baseDir == "" {
		if dir := os.Getenv(EnvHome); dir != "" {
			baseDir = dir
		} else if home, err := os.UserHomeDir(); err == nil {
			baseDir = filepath.Join(home, ".qwen")
		}
	}
	return NewFork(crosscli.SourceQwen, baseDir, cacheTTL, "qwen", "qwen-code")
}

// NewFork creates an adapter over the qwen storage layout for a
// compatible tool with its own identity, base directory, and binaries.
func NewFork(source crosscli.Source, baseDir string, cacheTTL time.Duration, executables ...string) *Adapter {
	a := &Adapter{source: source, executable: executables, baseDir: baseDir}
	a.cache.SetName(string(source))
	a.cache.SetTTL(cacheTTL)
	return a
}

// Source returns the stable tool name.
func (a *Adapter) Source() crosscli.Source { return a.source }

// DisplayName returns the human-readable tool name.
func (a *Adapter) DisplayName() string { return a.source.DisplayName() }

// Detect probes for the tool: binary on PATH, then storage directory.
func (a *Adapter) Detect(ctx context.Context) crosscli.Detection {
	det := crosscli.Detection{BasePath: a.baseDir}
	det.Command, det.Version = crosscli.ProbeExecutable(ctx, a.executable...)
	det.Installed = det.Command != "" || crosscli.DirExists(a.baseDir)
	return det
}

// SessionsPath returns the chat storage, scoped to a project when
// projectPath is non-empty.
func (a *Adapter) SessionsPath(projectPath string) string {
	if a.baseDir == "" {
		return ""
	}
	projectsDir := filepath.Join(a.baseDir, "projects")
	if projectPath == "" {
		return projectsDir
	}
	encoded := strings.ReplaceAll(projectPath, string(filepath.Separator), "-")
	dir := filepath.Join(projectsDir, encoded, "chats")
	if !crosscli.DirExists(dir) {
		return ""
	}
	return dir
}

// ListSessions scans projects/*/chats/*.jsonl and returns metadata sorted
// by LastActivityAt descending.
func (a *Adapter) ListSessions(ctx context.Context) ([]crosscli.SessionMeta, error) {
	root := filepath.Join(a.baseDir, "projects")
	return a.cache.Load("all", crosscli.LatestMtime(root), func() ([]crosscli.SessionMeta, error) {
		return a.scanSessions(ctx, root)
	})
}

func (a *Adapter) scanSessions(ctx context.Context, root string) ([]crosscli.SessionMeta, error) {
	projects, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var sessions []crosscli.SessionMeta
	for _, project := range projects {
		if err := ctx.Err(); err != nil {
			return sessions, err
		}
		if !project.IsDir() {
			continue
		}
		chatsDir := filepath.Join(root, project.Name(), "chats")
		chats, err := os.ReadDir(chatsDir)
		if err != nil {
			continue
		}

		projectPath := decodeProjectDir(project.Name())
		for _, chat := range chats {
			if chat.IsDir() || !strings.HasSuffix(chat.Name(), ".jsonl") {
				continue
			}
			fullPath := filepath.Join(chatsDir, chat.Name())
			info, err := chat.Info()
			if err != nil {
				continue
			}
			meta, err := a.readSessionMeta(fullPath, projectPath, info)
			if err != nil {
				clilog.Log.Warn("skipping session file", "cli", a.source, "file", fullPath, "err", err)
				continue
			}
			sessions = append(sessions, *meta)
		}
	}

	sort.Slice(sessions, func(i, j int) bool {
		if !sessions[i].LastActivityAt.Equal(sessions[j].LastActivityAt) {
			return sessions[i].LastActivityAt.After(sessions[j].LastActivityAt)
		}
		return sessions[i].ID < sessions[j].ID
	})
	return sessions, nil
}

// decodeProjectDir converts a dash-encoded project directory name back to
// a filesystem path. Unknown encodings are kept as-is.
func decodeProjectDir(name string) string {
	if !strings.HasPrefix(name, "-") {
		return name
	}
	return strings.ReplaceAll(name, "-", string(filepath.Separator))
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
	return &sessionReader{parser: newParser(f), file: f, meta: meta}, nil
}

// ResetCache drops cached scan results, forcing a rescan.
func (a *Adapter) ResetCache() { a.cache.Clear() }
