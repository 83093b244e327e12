package crosscli

import (
	"bufio"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Default truncation length for display strings.
const DefaultTruncateLength = 50

// Buffer sizes for scanners reading large JSONL transcripts.
const (
	DefaultBufferSize = 64 * 1024        // 64KB initial buffer
	MaxLineCapacity   = 10 * 1024 * 1024 // 10MB max line capacity
)

// TruncateString truncates a string to max length, adding "..." if truncated.
func TruncateString(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}

// NewScannerWithMaxCapacity creates a bufio.Scanner sized for large JSONL
// session files.
func NewScannerWithMaxCapacity(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, DefaultBufferSize)
	scanner.Buffer(buf, MaxLineCapacity)
	return scanner
}

// ValidateSessionPath validates that a session file path is within the
// expected base directory, preventing directory traversal when a session is
// addressed by path.
func ValidateSessionPath(sessionPath, baseDir string) error {
	if strings.TrimSpace(sessionPath) == "" {
		return fmt.Errorf("invalid session path: empty path")
	}
	if strings.TrimSpace(baseDir) == "" {
		return fmt.Errorf("invalid base path: empty path")
	}

	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return fmt.Errorf("invalid base path: %w", err)
	}
	absSession, err := filepath.Abs(sessionPath)
	if err != nil {
		return fmt.Errorf("invalid session path: %w", err)
	}

	realBase, err := filepath.EvalSymlinks(absBase)
	if err != nil {
		return fmt.Errorf("invalid base path: %w", err)
	}

	realSession, err := filepath.EvalSymlinks(absSession)
	if err != nil {
		// Non-existent leaf: resolve the parent so symlink traversal is
		// still checked.
		if os.IsNotExist(err) {
			parentReal, parentErr := filepath.EvalSymlinks(filepath.Dir(absSession))
			if parentErr != nil {
				return fmt.Errorf("invalid session path: %w", err)
			}
			realSession = filepath.Join(parentReal, filepath.Base(absSession))
		} else {
			return fmt.Errorf("invalid session path: %w", err)
		}
	}

	rel, err := filepath.Rel(realBase, realSession)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("invalid session path: %s is not within %s", sessionPath, baseDir)
	}
	return nil
}

// LatestMtime walks a directory tree and returns the most recent file
// modification time. Used by the scan cache to detect source changes.
// A missing directory returns the zero time.
func LatestMtime(dir string) time.Time {
	var latest time.Time
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if info, err := d.Info(); err == nil && info.ModTime().After(latest) {
			latest = info.ModTime()
		}
		return nil
	})
	return latest
}
