package agg

import (
	"sort"
	"time"

	"vaultaudit/internal/services/analyze/domain"
)

// AccessorRecord accumulates per-token-instance state, keyed by accessor.
// An accessor belongs to exactly one entity for the run; conflicting
// observations are recorded, never silently overwritten.
type AccessorRecord struct {
	Accessor  string
	EntityID  string
	FirstSeen time.Time
	LastSeen  time.Time
	Ops       int
	OpCounts  [domain.OpKindCount]int

	// provenance of the winning entity mapping: the earliest observation
	// wins, lexically smaller file path breaks exact time ties
	entityAt   time.Time
	entityFile string

	// entity ids that lost the attribution race (data-quality signal)
	conflicts map[string]struct{}
}

func newAccessorRecord(acc string) *AccessorRecord {
	return &AccessorRecord{Accessor: acc}
}

// Lifespan is last seen minus first seen
func (r *AccessorRecord) Lifespan() time.Duration {
	return r.LastSeen.Sub(r.FirstSeen)
}

// Lookups is the merged Lookup-kind count
func (r *AccessorRecord) Lookups() int { return r.OpCounts[domain.OpLookup] }

func (r *AccessorRecord) observe(ev domain.Event, file string) {
	if r.FirstSeen.IsZero() || ev.Time.Before(r.FirstSeen) {
		r.FirstSeen = ev.Time
	}
	if ev.Time.After(r.LastSeen) {
		r.LastSeen = ev.Time
	}
	r.Ops++
	r.OpCounts[ev.Op]++
	if ev.EntityID != "" {
		r.attribute(ev.EntityID, ev.Time, file)
	}
}

// attribute applies the first-mapping-wins policy. "First" is the earliest
// observation time so the outcome cannot depend on fold or merge order.
func (r *AccessorRecord) attribute(entity string, at time.Time, file string) {
	switch {
	case r.EntityID == "":
		r.EntityID = entity
		r.entityAt = at
		r.entityFile = file
	case r.EntityID == entity:
		if at.Before(r.entityAt) || (at.Equal(r.entityAt) && file < r.entityFile) {
			r.entityAt = at
			r.entityFile = file
		}
	default:
		loser := entity
		if at.Before(r.entityAt) || (at.Equal(r.entityAt) && file < r.entityFile) {
			loser = r.EntityID
			r.EntityID = entity
			r.entityAt = at
			r.entityFile = file
		}
		if r.conflicts == nil {
			r.conflicts = make(map[string]struct{})
		}
		r.conflicts[loser] = struct{}{}
		delete(r.conflicts, r.EntityID)
	}
}

func (r *AccessorRecord) merge(o *AccessorRecord) {
	if r.FirstSeen.IsZero() || (!o.FirstSeen.IsZero() && o.FirstSeen.Before(r.FirstSeen)) {
		r.FirstSeen = o.FirstSeen
	}
	if o.LastSeen.After(r.LastSeen) {
		r.LastSeen = o.LastSeen
	}
	r.Ops += o.Ops
	for k := range o.OpCounts {
		r.OpCounts[k] += o.OpCounts[k]
	}
	if o.EntityID != "" {
		r.attribute(o.EntityID, o.entityAt, o.entityFile)
	}
	for id := range o.conflicts {
		if id == r.EntityID {
			continue
		}
		if r.conflicts == nil {
			r.conflicts = make(map[string]struct{})
		}
		r.conflicts[id] = struct{}{}
	}
}

// Conflict is one surfaced attribution conflict sample
type Conflict struct {
	Accessor string
	Kept     string
	Dropped  string
}

// AccessorAgg folds events into per-accessor records
type AccessorAgg struct {
	Records map[string]*AccessorRecord
}

// NewAccessorAgg creates an empty accessor aggregator
func NewAccessorAgg() *AccessorAgg {
	return &AccessorAgg{Records: make(map[string]*AccessorRecord)}
}

// Fold accumulates one event into the partial state
func (a *AccessorAgg) Fold(ev domain.Event, file string) {
	if ev.Accessor == "" {
		return
	}
	r, ok := a.Records[ev.Accessor]
	if !ok {
		r = newAccessorRecord(ev.Accessor)
		a.Records[ev.Accessor] = r
	}
	r.observe(ev, file)
}

// Merge combines another partial of the same kind into a
func (a *AccessorAgg) Merge(o *AccessorAgg) {
	if o == nil {
		return
	}
	for acc, or := range o.Records {
		if r, ok := a.Records[acc]; ok {
			r.merge(or)
		} else {
			a.Records[acc] = or
		}
	}
}

// Conflicts returns the number of distinct (accessor, dropped entity)
// attribution conflicts observed across the run
func (a *AccessorAgg) Conflicts() int {
	n := 0
	for _, r := range a.Records {
		n += len(r.conflicts)
	}
	return n
}

// ConflictSamples returns up to max conflicts in deterministic order
func (a *AccessorAgg) ConflictSamples(max int) []Conflict {
	out := make([]Conflict, 0, max)
	for _, r := range a.Records {
		for id := range r.conflicts {
			out = append(out, Conflict{Accessor: r.Accessor, Kept: r.EntityID, Dropped: id})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Accessor != out[j].Accessor {
			return out[i].Accessor < out[j].Accessor
		}
		return out[i].Dropped < out[j].Dropped
	})
	if len(out) > max {
		out = out[:max]
	}
	return out
}
