package claude

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/crosscli/go-crosscli/internal/clilog"
	"github.com/crosscli/go-crosscli/internal/crosscli"
)

// DecodeDirName converts a Claude Code encoded project directory name to the
// original filesystem path. The encoding replaces path separators with "-":
//
//   - Unix: "-Users-evan-project" → "/Users/evan/project"
//   - Windows: "C-Users-evan-project" → "C:\Users\evan\project"
//
// "-" is ambiguous (separator or literal hyphen), so when the naive decode
// doesn't exist on disk the path is rebuilt greedily against the filesystem.
func DecodeDirName(dirName string) string {
	if dirName == "" || dirName == "-" {
		return ""
	}

	var segments []string
	var prefix string
	sep := string(filepath.Separator)
	if strings.HasPrefix(dirName, "-") {
		segments = strings.Split(dirName[1:], "-")
		prefix = sep
	} else {
		segments = strings.Split(dirName, "-")
		if runtime.GOOS == "windows" && len(segments) > 0 && len(segments[0]) == 1 {
			prefix = segments[0] + ":" + sep
			segments = segments[1:]
		}
	}
	if len(segments) == 0 {
		return ""
	}

	// Fast path: every "-" is a separator.
	full := prefix + strings.Join(segments, sep)
	if _, err := os.Stat(full); err == nil {
		return full
	}

	// Slow path: prefer an existing directory at each step, joining with
	// "-" when the separator split doesn't exist.
	rebuilt := prefix + segments[0]
	for i := 1; i < len(segments); i++ {
		withHyphen := rebuilt + "-" + segments[i]
		withSep := rebuilt + sep + segments[i]
		if _, err := os.Stat(withSep); err == nil {
			rebuilt = withSep
		} else if _, err := os.Stat(withHyphen); err == nil {
			rebuilt = withHyphen
		} else {
			rebuilt = withSep
		}
	}
	return rebuilt
}

// EncodeDirName converts a project path to Claude Code's encoded directory
// name (the inverse of the naive decode).
func EncodeDirName(projectPath string) string {
	encoded := strings.ReplaceAll(projectPath, string(filepath.Separator), "-")
	encoded = strings.ReplaceAll(encoded, ":", "")
	return encoded
}

// sessionsIndex mirrors the optional sessions-index.json a project
// directory may carry.
type sessionsIndex struct {
	Version      int                `json:"version"`
	Entries      []sessionIndexMeta `json:"entries"`
	OriginalPath string             `json:"originalPath"`
}

type sessionIndexMeta struct {
	SessionID    string `json:"sessionId"`
	FirstPrompt  string `json:"firstPrompt"`
	Summary      string `json:"summary"`
	Model        string `json:"model,omitempty"`
	MessageCount int    `json:"messageCount"`
	GitBranch    string `json:"gitBranch"`
	CreatedStr   string `json:"created"`
	ModifiedStr  string `json:"modified"`
	FileMtime    int64  `json:"fileMtime"`
}

// listAllSessions scans every project directory under projectsDir and
// returns the combined session list sorted by LastActivityAt descending.
// A corrupt project directory or session file is skipped with a warning;
// it never aborts the scan.
func listAllSessions(ctx context.Context, projectsDir string) ([]crosscli.SessionMeta, error) {
	entries, err := os.ReadDir(projectsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var sessions []crosscli.SessionMeta
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return sessions, err
		}
		if !entry.IsDir() {
			continue
		}
		dirPath := filepath.Join(projectsDir, entry.Name())
		projectPath := DecodeDirName(entry.Name())

		project, err := listProjectSessions(dirPath, projectPath)
		if err != nil {
			clilog.Log.Warn("skipping claude project dir", "dir", dirPath, "err", err)
			continue
		}
		sessions = append(sessions, project...)
	}

	sort.Slice(sessions, func(i, j int) bool {
		return metaMoreRecent(sessions[i], sessions[j])
	})
	return sessions, nil
}

func metaMoreRecent(a, b crosscli.SessionMeta) bool {
	if !a.LastActivityAt.Equal(b.LastActivityAt) {
		return a.LastActivityAt.After(b.LastActivityAt)
	}
	return a.ID < b.ID
}

// listProjectSessions enumerates *.jsonl session files in one project
// directory. The filesystem is authoritative; sessions-index.json, when
// present and readable, only enriches the result.
func listProjectSessions(projectDir, projectPath string) ([]crosscli.SessionMeta, error) {
	entries, err := os.ReadDir(projectDir)
	if err != nil {
		return nil, err
	}

	var sessions []crosscli.SessionMeta
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".jsonl") {
			continue
		}

		meta := crosscli.SessionMeta{
			ID:          strings.TrimSuffix(entry.Name(), ".jsonl"),
			Source:      crosscli.SourceClaude,
			ProjectPath: projectPath,
			FullPath:    filepath.Join(projectDir, entry.Name()),
		}
		if info, err := entry.Info(); err == nil {
			meta.LastActivityAt = info.ModTime()
			meta.StartedAt = info.ModTime() // best guess without index
			meta.FileSize = info.Size()
		}
		sessions = append(sessions, meta)
	}

	enrichFromIndex(projectDir, sessions)

	for i := range sessions {
		if sessions[i].Summary == "" || sessions[i].MessageCount == 0 {
			hints := extractSessionHints(sessions[i].FullPath)
			if sessions[i].Summary == "" {
				sessions[i].Summary = hints.summary
			}
			if sessions[i].MessageCount == 0 {
				sessions[i].MessageCount = hints.messageCount
			}
			if sessions[i].GitBranch == "" {
				sessions[i].GitBranch = hints.gitBranch
			}
			if sessions[i].Model == "" {
				sessions[i].Model = hints.model
			}
			if sessions[i].ProjectPath == "" {
				sessions[i].ProjectPath = hints.cwd
			}
			if !hints.started.IsZero() {
				sessions[i].StartedAt = hints.started
			}
			if hints.lastActivity.After(sessions[i].LastActivityAt) {
				sessions[i].LastActivityAt = hints.lastActivity
			}
		}
	}
	return sessions, nil
}

// enrichFromIndex overlays sessions-index.json metadata onto stat-based
// session records. A corrupt index is ignored.
func enrichFromIndex(projectDir string, sessions []crosscli.SessionMeta) {
	data, err := os.ReadFile(filepath.Join(projectDir, "sessions-index.json"))
	if err != nil {
		return
	}
	var idx sessionsIndex
	if err := json.Unmarshal(data, &idx); err != nil {
		clilog.Log.Warn("ignoring corrupt sessions-index.json", "dir", projectDir, "err", err)
		return
	}

	byID := make(map[string]sessionIndexMeta, len(idx.Entries))
	for _, e := range idx.Entries {
		byID[e.SessionID] = e
	}
	for i := range sessions {
		rich, ok := byID[sessions[i].ID]
		if !ok {
			continue
		}
		if t, err := time.Parse(time.RFC3339, rich.CreatedStr); err == nil {
			sessions[i].StartedAt = t
		}
		if t, err := time.Parse(time.RFC3339, rich.ModifiedStr); err == nil {
			sessions[i].LastActivityAt = t
		} else if rich.FileMtime > 0 {
			sessions[i].LastActivityAt = time.UnixMilli(rich.FileMtime)
		}
		if rich.Summary != "" {
			sessions[i].Summary = rich.Summary
		} else if rich.FirstPrompt != "" {
			sessions[i].Summary = rich.FirstPrompt
		}
		if rich.Model != "" {
			sessions[i].Model = rich.Model
		}
		if rich.GitBranch != "" {
			sessions[i].GitBranch = rich.GitBranch
		}
		if rich.MessageCount > 0 {
			sessions[i].MessageCount = rich.MessageCount
		}
		if idx.OriginalPath != "" {
			sessions[i].ProjectPath = idx.OriginalPath
		}
	}
}
