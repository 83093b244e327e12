package claude

import (
	"fmt"
	"os/exec"

	"github.com/crosscli/go-crosscli/internal/crosscli"
)

// ResumeCommand returns the command to resume a Claude Code session.
// claude --resume must run from the session's project directory.
func (a *Adapter) ResumeCommand(meta crosscli.SessionMeta) (*crosscli.ResumeInfo, error) {
	bin, err := exec.LookPath("claude")
	if err != nil {
		return nil, fmt.Errorf("claude CLI not found: %w", err)
	}
	return &crosscli.ResumeInfo{
		Command: bin,
		Args:    []string{"claude", "--resume", meta.ID},
		Dir:     meta.ProjectPath,
	}, nil
}
