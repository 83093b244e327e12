package crosscli

import (
	"math/rand"
	"testing"
	"time"
)

var indexBase = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func metaAt(id string, source Source, d time.Duration) SessionMeta {
	return SessionMeta{ID: id, Source: source, LastActivityAt: indexBase.Add(d)}
}

func TestBuildIndex_MergesDescending(t *testing.T) {
	claude := []SessionMeta{
		metaAt("c1", SourceClaude, -1*time.Hour),
		metaAt("c2", SourceClaude, -5*time.Hour),
	}
	codex := []SessionMeta{
		metaAt("x1", SourceCodex, -30*time.Minute),
		metaAt("x2", SourceCodex, -3*time.Hour),
		metaAt("x3", SourceCodex, -10*time.Hour),
	}

	index := BuildIndex(claude, codex)

	want := []string{"x1", "c1", "x2", "c2", "x3"}
	if len(index) != len(want) {
		t.Fatalf("got %d sessions, want %d", len(index), len(want))
	}
	for i, id := range want {
		if index[i].ID != id {
			t.Errorf("index[%d] = %s, want %s", i, index[i].ID, id)
		}
	}
}

func TestBuildIndex_TieBreak(t *testing.T) {
	// Identical timestamps: source name ascending, then ID ascending.
	ts := -2 * time.Hour
	lists := [][]SessionMeta{
		{metaAt("b", SourceQwen, ts)},
		{metaAt("a", SourceQwen, ts)},
		{metaAt("z", SourceClaude, ts)},
	}

	index := BuildIndex(lists...)

	want := []string{"z", "a", "b"}
	for i, id := range want {
		if index[i].ID != id {
			t.Errorf("index[%d] = %s (%s), want %s", i, index[i].ID, index[i].Source, id)
		}
	}
}

func TestBuildIndex_StableAcrossListOrder(t *testing.T) {
	lists := [][]SessionMeta{
		{metaAt("c1", SourceClaude, -1*time.Hour), metaAt("c2", SourceClaude, -4*time.Hour)},
		{metaAt("x1", SourceCodex, -2*time.Hour)},
		{metaAt("g1", SourceGemini, -2*time.Hour)},
		{metaAt("q1", SourceQwen, -3*time.Hour)},
	}

	reference := BuildIndex(lists...)

	rng := rand.New(rand.NewSource(1))
	for trial := 0; trial < 10; trial++ {
		shuffled := make([][]SessionMeta, len(lists))
		copy(shuffled, lists)
		rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})

		got := BuildIndex(shuffled...)
		if len(got) != len(reference) {
			t.Fatalf("trial %d: got %d sessions, want %d", trial, len(got), len(reference))
		}
		for i := range got {
			if got[i].ID != reference[i].ID {
				t.Fatalf("trial %d: index[%d] = %s, want %s", trial, i, got[i].ID, reference[i].ID)
			}
		}
	}
}

func TestBuildIndex_Empty(t *testing.T) {
	if got := BuildIndex(); len(got) != 0 {
		t.Errorf("expected empty index, got %d", len(got))
	}
	if got := BuildIndex(nil, []SessionMeta{}); len(got) != 0 {
		t.Errorf("expected empty index, got %d", len(got))
	}
}
