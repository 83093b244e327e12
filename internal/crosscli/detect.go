package crosscli

import (
	"context"
	"os"
	"os/exec"
	"strings"
	"time"
)

// versionProbeTimeout caps how long a --version subprocess may take. Some
// node-based CLIs are slow to start; anything slower is treated as
// version-unknown, not uninstalled.
const versionProbeTimeout = 3 * time.Second

// ProbeExecutable looks up the first candidate binary found on PATH and
// best-effort captures its version. Candidates are tried in order; the
// first match wins.
func ProbeExecutable(ctx context.Context, candidates ...string) (command, version string) {
	for _, name := range candidates {
		bin, err := exec.LookPath(name)
		if err != nil {
			continue
		}
		return bin, ProbeVersion(ctx, bin)
	}
	return "", ""
}

// ProbeVersion runs `bin --version` and returns the first line of output,
// or "" when the probe fails. Failure to report a version never fails
// detection.
func ProbeVersion(ctx context.Context, bin string) string {
	vctx, cancel := context.WithTimeout(ctx, versionProbeTimeout)
	defer cancel()

	out, err := exec.CommandContext(vctx, bin, "--version").Output()
	if err != nil {
		return ""
	}
	line := strings.TrimSpace(string(out))
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = strings.TrimSpace(line[:i])
	}
	return line
}

// DirExists reports whether path is an existing directory.
func DirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
