// Package codex reads Codex CLI rollout session storage (~/.codex/sessions).
package codex

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/crosscli/go-crosscli/internal/clilog"
	"github.com/crosscli/go-crosscli/internal/crosscli"
)

// EnvHome overrides the Codex base directory, mainly for tests.
const EnvHome = "CROSSCLI_CODEX_HOME"

// Adapter implements crosscli.Adapter for Codex CLI.
type Adapter struct {
	baseDir string
	cache   crosscli.ScanCache
}

// New creates a Codex adapter. An empty baseDir resolves the default
// location (EnvHome, then ~/.codex).
func New(baseDir string, cacheTTL time.Duration) *Adapter {
	if baseDir == "" {
		if dir := os.Getenv(EnvHome); dir != "" {
			baseDir = dir
		} else if home, err := os.UserHomeDir(); err == nil {
			baseDir = filepath.Join(home, ".codex")
		}
	}
	a := &Adapter{baseDir: baseDir}
	a.cache.SetName("codex")
	a.cache.SetTTL(cacheTTL)
	return a
}

// Source returns the stable tool name.
func (a *Adapter) Source() crosscli.Source { return crosscli.SourceCodex }

// DisplayName returns the human-readable tool name.
func (a *Adapter) DisplayName() string { return crosscli.SourceCodex.DisplayName() }

// Detect probes for Codex CLI: binary on PATH, then storage directory.
func (a *Adapter) Detect(ctx context.Context) crosscli.Detection {
	det := crosscli.Detection{BasePath: a.baseDir}
	det.Command, det.Version = crosscli.ProbeExecutable(ctx, "codex")
	det.Installed = det.Command != "" || crosscli.DirExists(a.baseDir)
	return det
}

// SessionsPath returns the rollout log root. Codex keys sessions by date,
// not by project, so project scoping happens at parse time via cwd.
func (a *Adapter) SessionsPath(projectPath string) string {
	if a.baseDir == "" {
		return ""
	}
	return filepath.Join(a.baseDir, "sessions")
}

// ListSessions walks every rollout file under sessions/ and returns
// metadata sorted by LastActivityAt descending. Unparseable files are
// skipped with a warning.
func (a *Adapter) ListSessions(ctx context.Context) ([]crosscli.SessionMeta, error) {
	root := a.SessionsPath("")
	return a.cache.Load("all", crosscli.LatestMtime(root), func() ([]crosscli.SessionMeta, error) {
		return a.scanSessions(ctx, root)
	})
}

// maxOpenFiles caps rollout files parsed concurrently during a scan.
const maxOpenFiles = 32

func (a *Adapter) scanSessions(ctx context.Context, root string) ([]crosscli.SessionMeta, error) {
	if !crosscli.DirExists(root) {
		return nil, nil
	}

	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		if err != nil || d.IsDir() || filepath.Ext(path) != ".jsonl" {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Every rollout file must be opened to read its header, so parse them
	// in parallel with a cap on open file handles.
	results := make([]*crosscli.SessionMeta, len(paths))
	sem := semaphore.NewWeighted(maxOpenFiles)
	g, gctx := errgroup.WithContext(ctx)
	for i, path := range paths {
		g.Go(func() error {
			if err := sem.Acquire(gctx, 1); err != nil {
				return err
			}
			defer sem.Release(1)

			meta, err := readSessionMeta(path)
			if err != nil {
				clilog.Log.Warn("skipping codex session file", "file", path, "err", err)
				return nil
			}
			results[i] = meta
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sessions := make([]crosscli.SessionMeta, 0, len(results))
	for _, meta := range results {
		if meta != nil {
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

// readSessionMeta extracts summary-level metadata from one rollout file
// without retaining message bodies.
func readSessionMeta(path string) (*crosscli.SessionMeta, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	meta := &crosscli.SessionMeta{
		ID:             strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		Source:         crosscli.SourceCodex,
		FullPath:       path,
		FileSize:       info.Size(),
		LastActivityAt: info.ModTime(),
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	p := NewParser(f)
	for {
		entry, header, err := p.next()
		if err != nil {
			break
		}
		if header != nil {
			if header.ID != "" {
				meta.ID = header.ID
			}
			if header.CWD != "" {
				meta.ProjectPath = header.CWD
			}
			if header.Model != "" {
				meta.Model = header.Model
			}
			if header.GitBranch != "" {
				meta.GitBranch = header.GitBranch
			}
			if meta.StartedAt.IsZero() {
				meta.StartedAt = header.Timestamp
			}
			continue
		}
		if entry == nil {
			continue
		}
		meta.MessageCount++
		if meta.StartedAt.IsZero() {
			meta.StartedAt = entry.Timestamp
		}
		if entry.Timestamp.After(meta.LastActivityAt) {
			meta.LastActivityAt = entry.Timestamp
		}
		if meta.Summary == "" && entry.Role == crosscli.RoleUser {
			meta.Summary = entry.Text
		}
	}

	if meta.StartedAt.IsZero() {
		meta.StartedAt = meta.LastActivityAt
	}
	return meta, nil
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

// ResumeCommand returns the command to resume a Codex session.
func (a *Adapter) ResumeCommand(meta crosscli.SessionMeta) (*crosscli.ResumeInfo, error) {
	bin, err := exec.LookPath("codex")
	if err != nil {
		return nil, fmt.Errorf("codex CLI not found: %w", err)
	}
	return &crosscli.ResumeInfo{
		Command: bin,
		Args:    []string{"codex", "resume", meta.ID},
		Dir:     meta.ProjectPath,
	}, nil
}

// ResetCache drops cached scan results, forcing a rescan.
func (a *Adapter) ResetCache() { a.cache.Clear() }
