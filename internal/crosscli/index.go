package crosscli

import "container/heap"

// BuildIndex merges per-adapter session lists, each already sorted by
// LastActivityAt descending, into one recency-ordered index. It is a k-way
// heap merge, O(n log k) for k input lists. Ties on LastActivityAt break by
// source name ascending, then session ID ascending, so the index is
// reproducible for identical inputs regardless of list order.
func BuildIndex(lists ...[]SessionMeta) []SessionMeta {
	total := 0
	for _, l := range lists {
		total += len(l)
	}
	if total == 0 {
		return nil
	}

	h := &mergeHeap{}
	for _, l := range lists {
		if len(l) > 0 {
			h.items = append(h.items, mergeCursor{list: l})
		}
	}
	heap.Init(h)

	index := make([]SessionMeta, 0, total)
	for h.Len() > 0 {
		cur := &h.items[0]
		index = append(index, cur.list[cur.pos])
		cur.pos++
		if cur.pos == len(cur.list) {
			heap.Pop(h)
		} else {
			heap.Fix(h, 0)
		}
	}
	return index
}

// moreRecent reports whether a sorts before b in the index: later
// LastActivityAt first, ties broken by source then ID, both ascending.
func moreRecent(a, b SessionMeta) bool {
	if !a.LastActivityAt.Equal(b.LastActivityAt) {
		return a.LastActivityAt.After(b.LastActivityAt)
	}
	if a.Source != b.Source {
		return a.Source < b.Source
	}
	return a.ID < b.ID
}

type mergeCursor struct {
	list []SessionMeta
	pos  int
}

type mergeHeap struct {
	items []mergeCursor
}

func (h *mergeHeap) Len() int { return len(h.items) }

func (h *mergeHeap) Less(i, j int) bool {
	return moreRecent(h.items[i].list[h.items[i].pos], h.items[j].list[h.items[j].pos])
}

func (h *mergeHeap) Swap(i, j int) { h.items[i], h.items[j] = h.items[j], h.items[i] }

func (h *mergeHeap) Push(x any) { h.items = append(h.items, x.(mergeCursor)) }

func (h *mergeHeap) Pop() any {
	old := h.items
	n := len(old)
	item := old[n-1]
	h.items = old[:n-1]
	return item
}
