package agg

import "vaultaudit/internal/services/analyze/domain"

// Config selects which aggregators a run needs. Reports request only what
// they consume so a churn run does not pay the gap buffer.
type Config struct {
	Entities   bool
	Accessors  bool
	Paths      bool
	Gaps       bool
	PathFilter PathFilter
}

// Bundle is the set of partial aggregate states one worker owns while
// folding a single file. A single pass feeds every enabled aggregator.
type Bundle struct {
	File      string
	Entities  *EntityAgg
	Accessors *AccessorAgg
	Paths     *PathAgg
	Gaps      *GapAgg
	Stats     domain.FileStats
}

// NewBundle creates the partial state for one source file
func NewBundle(file string, cfg Config) *Bundle {
	b := &Bundle{File: file}
	if cfg.Entities {
		b.Entities = NewEntityAgg()
	}
	if cfg.Accessors {
		b.Accessors = NewAccessorAgg()
	}
	if cfg.Paths {
		b.Paths = NewPathAgg(cfg.PathFilter)
	}
	if cfg.Gaps {
		b.Gaps = NewGapAgg()
	}
	return b
}

// Fold multiplexes one event into every enabled aggregator
func (b *Bundle) Fold(ev domain.Event) {
	if b.Entities != nil {
		b.Entities.Fold(ev, b.File)
	}
	if b.Accessors != nil {
		b.Accessors.Fold(ev, b.File)
	}
	if b.Paths != nil {
		b.Paths.Fold(ev)
	}
	if b.Gaps != nil {
		b.Gaps.Fold(ev)
	}
}

// Merge combines another bundle's partial state into b. Associative and
// commutative; the planner may merge in any order.
func (b *Bundle) Merge(o *Bundle) {
	if o == nil {
		return
	}
	if b.Entities != nil {
		b.Entities.Merge(o.Entities)
	}
	if b.Accessors != nil {
		b.Accessors.Merge(o.Accessors)
	}
	if b.Paths != nil {
		b.Paths.Merge(o.Paths)
	}
	if b.Gaps != nil {
		b.Gaps.Merge(o.Gaps)
	}
	b.Stats.Add(o.Stats)
}
