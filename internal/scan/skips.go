package scan

import (
	"cmp"
	"slices"
	"sync"

	"secscan/internal/model"
	"secscan/internal/telemetry"
)

type skipList struct {
	mu    sync.Mutex
	items []model.Skip
}

func newSkipList() *skipList {
	return &skipList{}
}

func (l *skipList) add(source, reason string) {
	telemetry.LogWarn("collaborator skipped", "source", source, "reason", reason)
	telemetry.TrackSkip(source)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = append(l.items, model.Skip{Source: source, Reason: reason})
}

// list returns the skips ordered by source then reason, so concurrent
// completion order does not leak into output.
func (l *skipList) list() []model.Skip {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := slices.Clone(l.items)
	slices.SortStableFunc(out, func(a, b model.Skip) int {
		if c := cmp.Compare(a.Source, b.Source); c != 0 {
			return c
		}
		return cmp.Compare(a.Reason, b.Reason)
	})
	if out == nil {
		out = []model.Skip{}
	}
	return out
}
