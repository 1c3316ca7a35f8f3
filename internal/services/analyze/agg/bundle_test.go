package agg

import (
	"fmt"
	"testing"
	"time"

	"vaultaudit/internal/services/analyze/domain"
)

// fixtureEvents builds a deterministic mixed workload: several entities,
// rotating accessors, KV and auth paths, names appearing late, one
// attribution conflict.
func fixtureEvents(n int) []domain.Event {
	ops := []domain.OpKind{domain.OpLogin, domain.OpRead, domain.OpLookup, domain.OpUpdate, domain.OpList}
	paths := []string{
		"auth/kubernetes/login",
		"kv/data/app1/config",
		"auth/token/lookup-self",
		"kv/metadata/app1/config",
		"kv/data/app2/creds",
	}
	evs := make([]domain.Event, 0, n)
	for i := 0; i < n; i++ {
		e := domain.Event{
			Time:     t0.Add(time.Duration(i*7%300) * time.Minute),
			Op:       ops[i%len(ops)],
			Path:     paths[i%len(paths)],
			EntityID: fmt.Sprintf("e%d", i%5),
			Accessor: fmt.Sprintf("a%d", i%3),
		}
		if i%11 == 0 {
			e.DisplayName = fmt.Sprintf("name-%d", i)
		}
		evs = append(evs, e)
	}
	return evs
}

func foldPartitions(evs []domain.Event, k int) *Bundle {
	cfg := Config{Entities: true, Accessors: true, Paths: true, Gaps: true}
	parts := make([]*Bundle, k)
	for i := range parts {
		parts[i] = NewBundle(fmt.Sprintf("part-%d.log", i), cfg)
	}
	for i, e := range evs {
		parts[i%k].Fold(e)
	}
	merged := NewBundle("", cfg)
	for _, p := range parts {
		merged.Merge(p)
	}
	return merged
}

func sameEntityState(t *testing.T, a, b *EntityAgg) {
	t.Helper()
	if len(a.Records) != len(b.Records) {
		t.Fatalf("entity record counts differ: %d vs %d", len(a.Records), len(b.Records))
	}
	for id, ra := range a.Records {
		rb := b.Records[id]
		if rb == nil {
			t.Fatalf("entity %s missing", id)
		}
		if !ra.FirstSeen.Equal(rb.FirstSeen) || !ra.LastSeen.Equal(rb.LastSeen) {
			t.Fatalf("entity %s times differ: %v/%v vs %v/%v", id, ra.FirstSeen, ra.LastSeen, rb.FirstSeen, rb.LastSeen)
		}
		if ra.Ops != rb.Ops || ra.Logins != rb.Logins || ra.DisplayName != rb.DisplayName {
			t.Fatalf("entity %s state differs: %+v vs %+v", id, ra, rb)
		}
		if len(ra.Days) != len(rb.Days) {
			t.Fatalf("entity %s day buckets differ", id)
		}
		for d, n := range ra.Days {
			if rb.Days[d] != n {
				t.Fatalf("entity %s day %s: %d vs %d", id, d, n, rb.Days[d])
			}
		}
	}
}

func sameAccessorState(t *testing.T, a, b *AccessorAgg) {
	t.Helper()
	if len(a.Records) != len(b.Records) {
		t.Fatalf("accessor record counts differ: %d vs %d", len(a.Records), len(b.Records))
	}
	for acc, ra := range a.Records {
		rb := b.Records[acc]
		if rb == nil {
			t.Fatalf("accessor %s missing", acc)
		}
		if ra.EntityID != rb.EntityID || ra.Ops != rb.Ops || ra.OpCounts != rb.OpCounts {
			t.Fatalf("accessor %s state differs: %+v vs %+v", acc, ra, rb)
		}
		if !ra.FirstSeen.Equal(rb.FirstSeen) || !ra.LastSeen.Equal(rb.LastSeen) {
			t.Fatalf("accessor %s times differ", acc)
		}
	}
	if a.Conflicts() != b.Conflicts() {
		t.Fatalf("conflict counts differ: %d vs %d", a.Conflicts(), b.Conflicts())
	}
}

func samePathState(t *testing.T, a, b *PathAgg) {
	t.Helper()
	if len(a.Records) != len(b.Records) {
		t.Fatalf("path record counts differ: %d vs %d", len(a.Records), len(b.Records))
	}
	for p, ra := range a.Records {
		rb := b.Records[p]
		if rb == nil {
			t.Fatalf("path %s missing", p)
		}
		if ra.Ops != rb.Ops || ra.OpCounts != rb.OpCounts || ra.UniqueEntities() != rb.UniqueEntities() {
			t.Fatalf("path %s state differs: %+v vs %+v", p, ra, rb)
		}
		if len(ra.Samples) != len(rb.Samples) {
			t.Fatalf("path %s samples differ: %v vs %v", p, ra.Samples, rb.Samples)
		}
		for i := range ra.Samples {
			if ra.Samples[i] != rb.Samples[i] {
				t.Fatalf("path %s samples differ: %v vs %v", p, ra.Samples, rb.Samples)
			}
		}
	}
}

func sameGapState(t *testing.T, a, b *GapAgg) {
	t.Helper()
	if len(a.Times) != len(b.Times) {
		t.Fatalf("gap entity counts differ: %d vs %d", len(a.Times), len(b.Times))
	}
	for id, ts := range a.Times {
		if len(b.Times[id]) != len(ts) {
			t.Fatalf("gap buffer for %s differs: %d vs %d", id, len(ts), len(b.Times[id]))
		}
	}
}

// Folding any k-way partition then merging equals one sequential fold
func TestBundleMergeAssociativity(t *testing.T) {
	evs := fixtureEvents(360)
	base := foldPartitions(evs, 1)
	for _, k := range []int{2, 7, len(evs)} {
		got := foldPartitions(evs, k)
		sameEntityState(t, base.Entities, got.Entities)
		sameAccessorState(t, base.Accessors, got.Accessors)
		samePathState(t, base.Paths, got.Paths)
		sameGapState(t, base.Gaps, got.Gaps)
	}
}

func TestBundleConfigSelectsAggregators(t *testing.T) {
	b := NewBundle("f", Config{Entities: true})
	if b.Entities == nil || b.Accessors != nil || b.Paths != nil || b.Gaps != nil {
		t.Fatalf("config not honored: %+v", b)
	}
	b.Fold(domain.Event{Time: t0, Op: domain.OpRead, Path: "kv/data/x", EntityID: "e1", Accessor: "a1"})
	if len(b.Entities.Records) != 1 {
		t.Fatalf("enabled aggregator not fed")
	}
}
