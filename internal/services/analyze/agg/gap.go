package agg

import (
	"time"

	"vaultaudit/internal/services/analyze/domain"
)

// GapAgg buffers every per-entity timestamp for the activity-gap report.
//
// This is the one deliberate exception to the bounded-memory rule: gap
// detection needs the full, fully-merged timestamp sequence per entity
// (down-sampling would change which silences exceed the window), so memory
// here grows O(events) for the entities involved, not O(distinct entities).
// Enable it only when the gaps report is requested.
type GapAgg struct {
	Times map[string][]time.Time
}

// NewGapAgg creates an empty gap-window aggregator
func NewGapAgg() *GapAgg {
	return &GapAgg{Times: make(map[string][]time.Time)}
}

// Fold buffers one event timestamp
func (a *GapAgg) Fold(ev domain.Event) {
	if ev.EntityID == "" {
		return
	}
	a.Times[ev.EntityID] = append(a.Times[ev.EntityID], ev.Time)
}

// Merge appends another partial's buffers; ordering is resolved by the
// single sort the gap report performs after the final merge
func (a *GapAgg) Merge(o *GapAgg) {
	if o == nil {
		return
	}
	for id, ts := range o.Times {
		a.Times[id] = append(a.Times[id], ts...)
	}
}
