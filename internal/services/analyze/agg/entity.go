package agg

import (
	"time"

	"vaultaudit/internal/platform/xtime"
	"vaultaudit/internal/services/analyze/domain"
)

// EntityRecord accumulates everything observed about one entity id.
// Created lazily on first reference, never deleted within a run.
type EntityRecord struct {
	ID          string
	FirstSeen   time.Time
	LastSeen    time.Time
	Ops         int
	Logins      int
	DisplayName string
	Days        map[string]int // UTC day -> operation count

	// provenance of DisplayName, for the merge tie-break
	nameAt   time.Time
	nameFile string
}

func newEntityRecord(id string) *EntityRecord {
	return &EntityRecord{ID: id, Days: make(map[string]int)}
}

// Lifespan is the observed lifetime of the entity within the run
func (r *EntityRecord) Lifespan() time.Duration {
	return r.LastSeen.Sub(r.FirstSeen)
}

// DaysActive is the number of distinct UTC days with any activity
func (r *EntityRecord) DaysActive() int { return len(r.Days) }

func (r *EntityRecord) observe(ev domain.Event, file string) {
	if r.FirstSeen.IsZero() || ev.Time.Before(r.FirstSeen) {
		r.FirstSeen = ev.Time
	}
	if ev.Time.After(r.LastSeen) {
		r.LastSeen = ev.Time
	}
	r.Ops++
	if ev.Op == domain.OpLogin {
		r.Logins++
	}
	r.Days[xtime.DayString(ev.Time)]++
	if ev.DisplayName != "" {
		r.takeName(ev.DisplayName, ev.Time, file)
	}
}

// takeName applies the "last non-empty wins" policy: later observation time
// wins, lexically smaller file path breaks exact time ties.
func (r *EntityRecord) takeName(name string, at time.Time, file string) {
	if r.DisplayName == "" ||
		at.After(r.nameAt) ||
		(at.Equal(r.nameAt) && file < r.nameFile) {
		r.DisplayName = name
		r.nameAt = at
		r.nameFile = file
	}
}

func (r *EntityRecord) merge(o *EntityRecord) {
	if r.FirstSeen.IsZero() || (!o.FirstSeen.IsZero() && o.FirstSeen.Before(r.FirstSeen)) {
		r.FirstSeen = o.FirstSeen
	}
	if o.LastSeen.After(r.LastSeen) {
		r.LastSeen = o.LastSeen
	}
	r.Ops += o.Ops
	r.Logins += o.Logins
	for d, n := range o.Days {
		r.Days[d] += n
	}
	if o.DisplayName != "" {
		r.takeName(o.DisplayName, o.nameAt, o.nameFile)
	}
}

// EntityAgg folds events into per-entity records, keyed by entity id.
// Events without an entity id are ignored here (the path aggregator still
// sees them).
type EntityAgg struct {
	Records map[string]*EntityRecord
}

// NewEntityAgg creates an empty entity aggregator
func NewEntityAgg() *EntityAgg {
	return &EntityAgg{Records: make(map[string]*EntityRecord)}
}

// Fold accumulates one event into the partial state
func (a *EntityAgg) Fold(ev domain.Event, file string) {
	if ev.EntityID == "" {
		return
	}
	r, ok := a.Records[ev.EntityID]
	if !ok {
		r = newEntityRecord(ev.EntityID)
		a.Records[ev.EntityID] = r
	}
	r.observe(ev, file)
}

// Merge combines another partial of the same kind into a
func (a *EntityAgg) Merge(o *EntityAgg) {
	if o == nil {
		return
	}
	for id, or := range o.Records {
		if r, ok := a.Records[id]; ok {
			r.merge(or)
		} else {
			a.Records[id] = or
		}
	}
}
