package crosscli

import (
	"context"
	"errors"
	"testing"
	"time"
)

func queryIndex() []SessionMeta {
	base := time.Date(2025, 6, 15, 14, 0, 0, 0, time.UTC)
	return []SessionMeta{
		{ID: "c1", Source: SourceClaude, ProjectPath: "/work/webapp", Summary: "Fix REACT hydration bug", LastActivityAt: base.Add(-1 * time.Hour)},
		{ID: "x1", Source: SourceCodex, ProjectPath: "/work/api", Summary: "add pagination", LastActivityAt: base.Add(-2 * time.Hour)},
		{ID: "c2", Source: SourceClaude, ProjectPath: "/work/webapp", Summary: "refactor auth", LastActivityAt: base.Add(-26 * time.Hour)},
		{ID: "g1", Source: SourceGemini, ProjectPath: "gemini://abc", Summary: "write tests", LastActivityAt: base.Add(-8 * 24 * time.Hour)},
	}
}

func TestQuery_NoFilters(t *testing.T) {
	got, err := Query(context.Background(), queryIndex(), QuerySpec{}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("got %d sessions, want 4", len(got))
	}
	// Order preserved.
	if got[0].ID != "c1" || got[3].ID != "g1" {
		t.Errorf("order not preserved: %v", ids(got))
	}
}

func TestQuery_CLIFilter(t *testing.T) {
	got, err := Query(context.Background(), queryIndex(), QuerySpec{CLI: SourceClaude}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0].ID != "c1" || got[1].ID != "c2" {
		t.Errorf("unexpected result: %v", ids(got))
	}
}

func TestQuery_KeywordCaseInsensitive(t *testing.T) {
	// "react" must match the summary "Fix REACT hydration bug".
	got, err := Query(context.Background(), queryIndex(), QuerySpec{Keyword: "react"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].ID != "c1" {
		t.Errorf("unexpected result: %v", ids(got))
	}

	got, err = Query(context.Background(), queryIndex(), QuerySpec{Keyword: "REACT"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].ID != "c1" {
		t.Errorf("unexpected result for uppercase keyword: %v", ids(got))
	}
}

func TestQuery_KeywordIgnoresProjectPath(t *testing.T) {
	// The keyword domain is summary text plus message content. A project
	// path containing the keyword must not match on its own.
	index := []SessionMeta{
		{ID: "r1", Source: SourceClaude, ProjectPath: "/work/react-dashboard", Summary: "fix build failure",
			LastActivityAt: time.Date(2025, 6, 15, 13, 0, 0, 0, time.UTC)},
	}

	got, err := Query(context.Background(), index, QuerySpec{Keyword: "react"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("project path matched keyword: %v", ids(got))
	}

	// With a deep searcher that finds nothing, the result is still empty.
	deep := func(ctx context.Context, meta SessionMeta, keyword string) bool { return false }
	got, err = Query(context.Background(), index, QuerySpec{Keyword: "react"}, deep)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no matches, got %v", ids(got))
	}
}

func TestQuery_LimitAppliesAfterFilters(t *testing.T) {
	// Limit 1 with a cli filter must return the most recent claude
	// session, not cut the index before filtering.
	got, err := Query(context.Background(), queryIndex(), QuerySpec{CLI: SourceClaude, Limit: 1}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].ID != "c1" {
		t.Errorf("unexpected result: %v", ids(got))
	}
}

func TestQuery_ProjectFilter(t *testing.T) {
	got, err := Query(context.Background(), queryIndex(), QuerySpec{ProjectPath: "/work/api"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].ID != "x1" {
		t.Errorf("unexpected result: %v", ids(got))
	}
}

func TestQuery_TimeRange(t *testing.T) {
	now := time.Date(2025, 6, 15, 14, 0, 0, 0, time.UTC)
	rng := Week(now)
	got, err := Query(context.Background(), queryIndex(), QuerySpec{Range: &rng}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, s := range got {
		if s.ID == "g1" {
			t.Error("8-day-old session should not match Week range")
		}
	}
}

func TestQuery_InvalidRange(t *testing.T) {
	now := time.Now()
	rng := TimeRange{After: now, Before: now.Add(-time.Hour)}
	_, err := Query(context.Background(), queryIndex(), QuerySpec{Range: &rng}, nil)
	if !errors.Is(err, ErrInvalidTimeRange) {
		t.Errorf("expected ErrInvalidTimeRange, got %v", err)
	}
}

func TestQuery_DeepSearchIsLazy(t *testing.T) {
	calls := 0
	deep := func(ctx context.Context, meta SessionMeta, keyword string) bool {
		calls++
		return meta.ID == "x1"
	}

	got, err := Query(context.Background(), queryIndex(), QuerySpec{Keyword: "pagination"}, deep)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// x1 matches on its summary already, so deep search must not have
	// been consulted for it; only the non-matching summaries trigger it.
	if len(got) != 1 || got[0].ID != "x1" {
		t.Errorf("unexpected result: %v", ids(got))
	}
	if calls != 3 {
		t.Errorf("deep search called %d times, want 3 (summary matches skip it)", calls)
	}
}

func TestQuery_NoDeepSearcherMetadataOnly(t *testing.T) {
	got, err := Query(context.Background(), queryIndex(), QuerySpec{Keyword: "no-such-keyword"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no matches, got %v", ids(got))
	}
}

func TestTimeRange_HalfOpen(t *testing.T) {
	now := time.Date(2025, 6, 15, 14, 0, 0, 0, time.UTC)
	rng := Today(now)

	midnight := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	if !rng.Contains(midnight) {
		t.Error("lower bound is inclusive")
	}
	if rng.Contains(now) {
		t.Error("upper bound is exclusive")
	}
	if rng.Contains(midnight.Add(-time.Nanosecond)) {
		t.Error("before midnight is out of range")
	}
}

func TestWeekAndMonthBounds(t *testing.T) {
	now := time.Date(2025, 6, 15, 14, 0, 0, 0, time.UTC)

	week := Week(now)
	wantWeek := time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC)
	if !week.After.Equal(wantWeek) {
		t.Errorf("Week.After = %v, want %v", week.After, wantWeek)
	}

	month := Month(now)
	wantMonth := time.Date(2025, 5, 17, 0, 0, 0, 0, time.UTC)
	if !month.After.Equal(wantMonth) {
		t.Errorf("Month.After = %v, want %v", month.After, wantMonth)
	}
}

func ids(sessions []SessionMeta) []string {
	out := make([]string, len(sessions))
	for i, s := range sessions {
		out[i] = s.ID
	}
	return out
}
