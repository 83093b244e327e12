package crosscli

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"
)

// TimeRange is a half-open interval [After, Before). A zero bound is
// unbounded on that side.
type TimeRange struct {
	After  time.Time
	Before time.Time
}

// Contains reports whether t lies within the range.
func (r TimeRange) Contains(t time.Time) bool {
	if !r.After.IsZero() && t.Before(r.After) {
		return false
	}
	if !r.Before.IsZero() && !t.Before(r.Before) {
		return false
	}
	return true
}

// Validate checks that the bounds are ordered.
func (r TimeRange) Validate() error {
	if !r.After.IsZero() && !r.Before.IsZero() && r.Before.Before(r.After) {
		return ErrInvalidTimeRange
	}
	return nil
}

// Today returns [local midnight, now).
func Today(now time.Time) TimeRange {
	y, m, d := now.Date()
	return TimeRange{After: time.Date(y, m, d, 0, 0, 0, 0, now.Location()), Before: now}
}

// Week returns the last 7 calendar days including today: [midnight-6d, now).
func Week(now time.Time) TimeRange {
	y, m, d := now.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	return TimeRange{After: midnight.AddDate(0, 0, -6), Before: now}
}

// Month returns the last 30 calendar days including today: [midnight-29d, now).
func Month(now time.Time) TimeRange {
	y, m, d := now.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	return TimeRange{After: midnight.AddDate(0, 0, -29), Before: now}
}

// QuerySpec describes one query over the index. Zero values mean
// "no filter"; Limit <= 0 means unlimited.
type QuerySpec struct {
	CLI         Source
	Keyword     string
	Range       *TimeRange
	ProjectPath string
	Limit       int
}

// ContentSearcher reports whether a session's message content matches a
// keyword. It is consulted only for sessions whose summary metadata did not
// already match, and only when deep search is available.
type ContentSearcher func(ctx context.Context, meta SessionMeta, keyword string) bool

// Query applies the filter pipeline to a recency-ordered index and returns
// the filtered, still recency-ordered result. Filters run cheapest first:
// cli name, then time range, then keyword, with the limit applied last so
// the result is always the most recent min(limit, |filtered|) sessions.
// The function itself has no side effects; deep keyword search, when a
// searcher is supplied, only reads session files.
func Query(ctx context.Context, index []SessionMeta, spec QuerySpec, deep ContentSearcher) ([]SessionMeta, error) {
	if spec.Range != nil {
		if err := spec.Range.Validate(); err != nil {
			return nil, err
		}
	}

	keyword := strings.ToLower(strings.TrimSpace(spec.Keyword))

	var out []SessionMeta
	for _, meta := range index {
		if spec.CLI != "" && meta.Source != spec.CLI {
			continue
		}
		if spec.ProjectPath != "" && meta.ProjectPath != spec.ProjectPath {
			continue
		}
		if spec.Range != nil && !spec.Range.Contains(meta.LastActivityAt) {
			continue
		}
		if keyword != "" && !matchesKeyword(ctx, meta, keyword, deep) {
			continue
		}
		out = append(out, meta)
		if spec.Limit > 0 && len(out) == spec.Limit {
			break
		}
	}
	return out, nil
}

// matchesKeyword checks summary-level metadata first and falls back to
// lazily loaded message content for sessions not already matched.
func matchesKeyword(ctx context.Context, meta SessionMeta, keyword string, deep ContentSearcher) bool {
	if strings.Contains(strings.ToLower(meta.Summary), keyword) {
		return true
	}
	if deep == nil {
		return false
	}
	return deep(ctx, meta, keyword)
}

// RegistrySearcher returns a ContentSearcher that streams message content
// through the owning adapter's session reader.
func RegistrySearcher(registry *Registry) ContentSearcher {
	return func(ctx context.Context, meta SessionMeta, keyword string) bool {
		adapter, ok := registry.Get(meta.Source)
		if !ok {
			return false
		}
		reader, err := adapter.OpenSession(ctx, meta)
		if err != nil {
			return false
		}
		defer reader.Close()

		for {
			if ctx.Err() != nil {
				return false
			}
			entry, err := reader.ReadNext()
			if errors.Is(err, io.EOF) {
				return false
			}
			if err != nil {
				return false
			}
			if strings.Contains(strings.ToLower(entry.Text), keyword) {
				return true
			}
		}
	}
}
