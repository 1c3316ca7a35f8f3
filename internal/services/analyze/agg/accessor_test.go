package agg

import (
	"testing"
	"time"

	"vaultaudit/internal/services/analyze/domain"
)

func accEv(acc, entity string, at time.Time, op domain.OpKind) domain.Event {
	return domain.Event{Time: at, Op: op, Path: "auth/token/lookup-self", Accessor: acc, EntityID: entity}
}

func TestAccessorAggLookupCounting(t *testing.T) {
	a := NewAccessorAgg()
	for i := 0; i < 5; i++ {
		a.Fold(accEv("a1", "x", t0.Add(time.Duration(i)*time.Minute), domain.OpLookup), "f1")
	}
	a.Fold(accEv("a1", "x", t0.Add(time.Hour), domain.OpRenew), "f1")

	r := a.Records["a1"]
	if r.Ops != 6 || r.Lookups() != 5 {
		t.Fatalf("ops=%d lookups=%d", r.Ops, r.Lookups())
	}
	if r.Lifespan() != time.Hour {
		t.Fatalf("lifespan = %v", r.Lifespan())
	}
}

// First mapping wins, where "first" is the earliest observation time, so the
// winner is the same no matter how events are ordered or partitioned.
func TestAccessorAttributionEarliestWins(t *testing.T) {
	first := accEv("a1", "x", t0, domain.OpLookup)
	second := accEv("a1", "y", t0.Add(time.Minute), domain.OpLookup)

	fwd := NewAccessorAgg()
	fwd.Fold(first, "f1")
	fwd.Fold(second, "f1")

	rev := NewAccessorAgg()
	rev.Fold(second, "f1")
	rev.Fold(first, "f1")

	for name, a := range map[string]*AccessorAgg{"forward": fwd, "reverse": rev} {
		r := a.Records["a1"]
		if r.EntityID != "x" {
			t.Errorf("%s: winner = %q, want x", name, r.EntityID)
		}
	}
	if fwd.Conflicts() != 1 || rev.Conflicts() != 1 {
		t.Fatalf("conflicts fwd=%d rev=%d, want 1 each", fwd.Conflicts(), rev.Conflicts())
	}
}

// The same conflicting pair observed many times is one conflict, and merge
// must not double count it.
func TestAccessorConflictsDistinctPairs(t *testing.T) {
	a := NewAccessorAgg()
	a.Fold(accEv("a1", "x", t0, domain.OpLookup), "f1")
	for i := 1; i <= 10; i++ {
		a.Fold(accEv("a1", "y", t0.Add(time.Duration(i)*time.Second), domain.OpLookup), "f1")
	}
	if a.Conflicts() != 1 {
		t.Fatalf("conflicts = %d, want 1 distinct pair", a.Conflicts())
	}

	b := NewAccessorAgg()
	b.Fold(accEv("a1", "y", t0.Add(time.Hour), domain.OpLookup), "f2")
	a.Merge(b)
	if a.Conflicts() != 1 {
		t.Fatalf("conflicts after merge = %d, want 1", a.Conflicts())
	}

	samples := a.ConflictSamples(10)
	if len(samples) != 1 || samples[0].Kept != "x" || samples[0].Dropped != "y" {
		t.Fatalf("unexpected samples: %+v", samples)
	}
}

// A late partial carrying an earlier observation can flip the winner; the
// previous winner becomes the recorded loser.
func TestAccessorAttributionFlipOnMerge(t *testing.T) {
	late := NewAccessorAgg()
	late.Fold(accEv("a1", "y", t0.Add(time.Hour), domain.OpLookup), "f2")

	early := NewAccessorAgg()
	early.Fold(accEv("a1", "x", t0, domain.OpLookup), "f1")

	late.Merge(early)
	r := late.Records["a1"]
	if r.EntityID != "x" {
		t.Fatalf("winner after merge = %q, want x", r.EntityID)
	}
	if late.Conflicts() != 1 {
		t.Fatalf("conflicts = %d, want 1", late.Conflicts())
	}
}

func TestAccessorAggIgnoresMissingAccessor(t *testing.T) {
	a := NewAccessorAgg()
	a.Fold(domain.Event{Time: t0, Op: domain.OpRead, EntityID: "x"}, "f1")
	if len(a.Records) != 0 {
		t.Fatalf("events without an accessor must not create records")
	}
}
