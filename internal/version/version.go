// Package version reports build metadata for the crosscli binary.
package version

import (
	"fmt"
	"runtime/debug"
)

// Version is overridden at release time via ldflags:
// -ldflags="-X github.com/crosscli/go-crosscli/internal/version.Version=v1.0.0"
var Version = ""

// Info is the structured form used by `crosscli version --json`.
type Info struct {
	Name     string `json:"name"`
	Version  string `json:"version"`
	Revision string `json:"revision,omitempty"`
	BuiltAt  string `json:"built_at,omitempty"`
}

// GetInfo collects the version plus any VCS metadata the build embedded.
func GetInfo(name string) Info {
	info := Info{
		Name:    name,
		Version: Get(),
	}
	if buildInfo, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range buildInfo.Settings {
			switch setting.Key {
			case "vcs.revision":
				info.Revision = setting.Value
			case "vcs.time":
				info.BuiltAt = setting.Value
			}
		}
	}
	return info
}

// Get returns the version string: the ldflags value, the module version of
// a released build, or a dev identifier derived from the VCS revision.
func Get() string {
	if Version != "" {
		return Version
	}

	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "" && info.Main.Version != "(devel)" {
			return info.Main.Version
		}
		for _, setting := range info.Settings {
			if setting.Key == "vcs.revision" {
				return "dev-" + shortRevision(setting.Value)
			}
		}
	}

	return "dev"
}

// shortRevision abbreviates a commit hash. Some VCS setups report short or
// empty revisions, so the cut is bounds-checked.
func shortRevision(rev string) string {
	if len(rev) > 7 {
		return rev[:7]
	}
	return rev
}

// String returns a one-line version summary.
func String(name string) string {
	return fmt.Sprintf("%s version %s", name, Get())
}
