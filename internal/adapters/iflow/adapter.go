// Package iflow reads iFlow CLI session storage (~/.iflow). iFlow is a
// gemini-family fork and shares the qwen storage layout, so this package
// only supplies its identity and base directory.
package iflow

import (
	"os"
	"path/filepath"
	"time"

	"github.com/crosscli/go-crosscli/internal/adapters/qwen"
	"github.com/crosscli/go-crosscli/internal/crosscli"
)

// EnvHome overrides the iFlow base directory, mainly for tests.
const EnvHome = "CROSSCLI_IFLOW_HOME"

// New creates an iFlow adapter. An empty baseDir resolves the default
// location (EnvHome, then ~/.iflow).
func New(baseDir string, cacheTTL time.Duration) *qwen.Adapter {
	if baseDir == "" {
		if dir := os.Getenv(EnvHome); dir != "" {
			baseDir = dir
		} else if home, err := os.UserHomeDir(); err == nil {
			baseDir = filepath.Join(home, ".iflow")
		}
	}
	return qwen.NewFork(crosscli.SourceIflow, baseDir, cacheTTL, "iflow")
}
