package crosscli

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/crosscli/go-crosscli/internal/clilog"
)

// DefaultScanTimeout bounds each adapter's scan. A slow or remote-mounted
// storage path marks that adapter degraded instead of stalling the query.
const DefaultScanTimeout = 10 * time.Second

// ScanOptions controls a scan across the registry.
type ScanOptions struct {
	// Sources restricts the scan to the named adapters. Empty means all.
	Sources []Source

	// Timeout bounds each adapter scan. Zero uses DefaultScanTimeout.
	Timeout time.Duration
}

// AdapterStatus reports the scan outcome for one adapter.
type AdapterStatus struct {
	Source       Source    `json:"source"`
	Detection    Detection `json:"detection"`
	SessionCount int       `json:"session_count"`
	Degraded     bool      `json:"degraded,omitempty"` // timed out; excluded from results
	Err          string    `json:"error,omitempty"`
}

// ScanResult is the outcome of one point-in-time scan: the merged index
// plus per-adapter status and human-readable warnings. Warnings are
// reported out of band of the primary rendered output.
type ScanResult struct {
	Index    []SessionMeta   `json:"sessions"`
	Statuses []AdapterStatus `json:"adapters"`
	Warnings []string        `json:"warnings,omitempty"`
}

// Scan runs all adapter scans concurrently, one worker per adapter, and
// merges the collected per-adapter lists at a single synchronization point.
// Per-adapter failures and timeouts are demoted to warnings; only context
// cancellation from the caller aborts the scan, and sessions collected
// before cancellation are still merged.
func Scan(ctx context.Context, registry *Registry, opts ScanOptions) (*ScanResult, error) {
	adapters, err := selectAdapters(registry, opts.Sources)
	if err != nil {
		return nil, err
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultScanTimeout
	}

	type adapterScan struct {
		status   AdapterStatus
		sessions []SessionMeta
	}

	// Collect-then-merge: each goroutine writes only its own slot.
	scans := make([]adapterScan, len(adapters))

	g, gctx := errgroup.WithContext(ctx)
	for i, adapter := range adapters {
		g.Go(func() error {
			scans[i].status.Source = adapter.Source()

			actx, cancel := context.WithTimeout(gctx, timeout)
			defer cancel()

			det := adapter.Detect(actx)
			scans[i].status.Detection = det
			if !det.Installed {
				// Absence is a normal outcome, never an error.
				clilog.Log.Info("adapter unavailable", "cli", adapter.Source())
				return nil
			}

			sessions, err := adapter.ListSessions(actx)
			switch {
			case errors.Is(err, context.DeadlineExceeded) || (err != nil && actx.Err() == context.DeadlineExceeded):
				scans[i].status.Degraded = true
				scans[i].status.Err = "scan timed out"
				return nil
			case errors.Is(err, context.Canceled):
				// User-initiated cancellation; partial results already
				// collected by other adapters may still be merged.
				return err
			case err != nil:
				scans[i].status.Err = err.Error()
				return nil
			}

			scans[i].sessions = sessions
			scans[i].status.SessionCount = len(sessions)
			return nil
		})
	}

	werr := g.Wait()
	if werr != nil && ctx.Err() == nil {
		return nil, werr
	}

	result := &ScanResult{}
	lists := make([][]SessionMeta, 0, len(scans))
	for _, s := range scans {
		result.Statuses = append(result.Statuses, s.status)
		switch {
		case s.status.Degraded:
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("%s: scan timed out after %s, results excluded", s.status.Source, timeout))
		case s.status.Err != "":
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("%s: %s", s.status.Source, s.status.Err))
		case !s.status.Detection.Installed:
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("%s: not installed, skipped", s.status.Source))
		default:
			lists = append(lists, s.sessions)
		}
	}

	result.Index = BuildIndex(lists...)
	return result, nil
}

// selectAdapters resolves the requested source names against the registry.
// Naming an unknown CLI is the caller's error, not an empty result.
func selectAdapters(registry *Registry, sources []Source) ([]Adapter, error) {
	if len(sources) == 0 {
		return registry.All(), nil
	}
	var out []Adapter
	for _, src := range sources {
		a, ok := registry.Get(src)
		if !ok {
			known := registry.Sources()
			names := make([]string, len(known))
			for i, s := range known {
				names[i] = string(s)
			}
			sort.Strings(names)
			return nil, fmt.Errorf("%w: %q (known: %v)", ErrUnknownCLI, src, names)
		}
		out = append(out, a)
	}
	return out, nil
}
