// Package gemini reads Gemini CLI session storage (~/.gemini/tmp).
package gemini

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

// EnvHome overrides the Gemini base directory, mainly for tests.
const EnvHome = "CROSSCLI_GEMINI_HOME"

// Adapter implements crosscli.Adapter for Gemini CLI. Sessions live as one
// JSON file per conversation under tmp/<project-hash>/chats/.
type Adapter struct {
	baseDir string
	cache   crosscli.ScanCache
}

// New creates a Gemini adapter. An empty baseDir resolves the default
// location (EnvHome, then ~/.gemini).
func New(baseDir string, cacheTTL time.Duration) *Adapter {
	if baseDir == "" {
		if dir := os.Getenv(EnvHome); dir != "" {
			baseDir = dir
		} else if home, err := os.UserHomeDir(); err == nil {
			baseDir = filepath.Join(home, ".gemini")
		}
	}
	a := &Adapter{baseDir: baseDir}
	a.cache.SetName("gemini")
	a.cache.SetTTL(cacheTTL)
	return a
}

// Source returns the stable tool name.
func (a *Adapter) Source() crosscli.Source { return crosscli.SourceGemini }

// DisplayName returns the human-readable tool name.
func (a *Adapter) DisplayName() string { return crosscli.SourceGemini.DisplayName() }

// Detect probes for Gemini CLI: binary on PATH, then storage directory.
func (a *Adapter) Detect(ctx context.Context) crosscli.Detection {
	det := crosscli.Detection{BasePath: a.baseDir}
	det.Command, det.Version = crosscli.ProbeExecutable(ctx, "gemini")
	det.Installed = det.Command != "" || crosscli.DirExists(a.baseDir)
	return det
}

// SessionsPath returns the chat storage root. Gemini keys projects by an
// opaque hash, so per-project scoping happens via the decoded cwd, not the
// directory layout.
func (a *Adapter) SessionsPath(projectPath string) string {
	if a.baseDir == "" {
		return ""
	}
	return filepath.Join(a.baseDir, "tmp")
}

// ListSessions scans every chat file under tmp/*/chats and returns
// metadata sorted by LastActivityAt descending.
func (a *Adapter) ListSessions(ctx context.Context) ([]crosscli.SessionMeta, error) {
	root := a.SessionsPath("")
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

		for _, chat := range chats {
			if chat.IsDir() || !strings.HasSuffix(chat.Name(), ".json") {
				continue
			}
			fullPath := filepath.Join(chatsDir, chat.Name())
			meta, err := readSessionMeta(fullPath, project.Name())
			if err != nil {
				clilog.Log.Warn("skipping gemini chat file", "file", fullPath, "err", err)
				continue
			}
			if info, err := chat.Info(); err == nil {
				meta.FileSize = info.Size()
				if meta.LastActivityAt.IsZero() {
					meta.LastActivityAt = info.ModTime()
				}
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

// OpenSession decodes the chat file and streams its messages.
func (a *Adapter) OpenSession(ctx context.Context, meta crosscli.SessionMeta) (crosscli.SessionReader, error) {
	if err := crosscli.ValidateSessionPath(meta.FullPath, a.baseDir); err != nil {
		return nil, err
	}
	chat, err := readChatFile(meta.FullPath)
	if err != nil {
		return nil, err
	}
	return newChatReader(chat, meta), nil
}

// ResetCache drops cached scan results, forcing a rescan.
func (a *Adapter) ResetCache() { a.cache.Clear() }
