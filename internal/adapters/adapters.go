// Package adapters aggregates all tool adapters.
package adapters

import (
	"time"

	"github.com/crosscli/go-crosscli/internal/adapters/claude"
	"github.com/crosscli/go-crosscli/internal/adapters/codex"
	"github.com/crosscli/go-crosscli/internal/adapters/gemini"
	"github.com/crosscli/go-crosscli/internal/adapters/iflow"
	"github.com/crosscli/go-crosscli/internal/adapters/qwen"
	"github.com/crosscli/go-crosscli/internal/crosscli"
)

// NewRegistry builds the registry of all supported tools. Add new tools
// here when adding support for another AI coding CLI; the core engine
// needs no change.
func NewRegistry(cacheTTL time.Duration) *crosscli.Registry {
	return crosscli.NewRegistry(
		claude.New("", cacheTTL),
		codex.New("", cacheTTL),
		gemini.New("", cacheTTL),
		qwen.New("", cacheTTL),
		iflow.New("", cacheTTL),
	)
}
