package reports

import (
	"strings"
	"testing"

	"vaultaudit/internal/platform/testkit"
	"vaultaudit/internal/services/analyze/agg"
	"vaultaudit/internal/services/analyze/domain"
)

func pathAgg(fold func(a *agg.PathAgg)) *agg.PathAgg {
	a := agg.NewPathAgg(agg.PathFilter{})
	fold(a)
	return a
}

func readEvent(path, entity string) domain.Event {
	return domain.Event{Time: t0, Op: domain.OpRead, Path: path, EntityID: entity}
}

// kv/data/... and kv/metadata/... accesses aggregate under one normalized
// hotspot with the combined count
func TestHotspotsNormalizedAggregate(t *testing.T) {
	a := pathAgg(func(a *agg.PathAgg) {
		a.Fold(readEvent("kv/data/app1/config", "e1"))
		a.Fold(readEvent("kv/metadata/app1/config", "e1"))
	})
	rep := BuildHotspots(a, 10)
	if len(rep.ByOps) != 1 {
		t.Fatalf("rows = %d, want 1", len(rep.ByOps))
	}
	h := rep.ByOps[0]
	if h.Path != "kv/app1/config" || h.Ops != 2 {
		t.Fatalf("hotspot: %+v", h)
	}
}

func TestHotspotsRankingAndTopN(t *testing.T) {
	a := pathAgg(func(a *agg.PathAgg) {
		for i := 0; i < 5; i++ {
			a.Fold(readEvent("kv/data/busy", "e1"))
		}
		a.Fold(readEvent("kv/data/quiet", "e1"))
		a.Fold(readEvent("kv/data/shared", "e1"))
		a.Fold(readEvent("kv/data/shared", "e2"))
		a.Fold(readEvent("kv/data/shared", "e3"))
	})
	rep := BuildHotspots(a, 2)

	if len(rep.ByOps) != 2 || rep.ByOps[0].Path != "kv/busy" {
		t.Fatalf("by ops: %+v", rep.ByOps)
	}
	if rep.ByEntities[0].Path != "kv/shared" || rep.ByEntities[0].UniqueEntities != 3 {
		t.Fatalf("by entities: %+v", rep.ByEntities)
	}
	if rep.TotalOps != 9 {
		t.Fatalf("total ops = %d", rep.TotalOps)
	}
}

// The recommendation is a pure function of (path shape, ops, entities):
// very high op count with very low client diversity on a KV path yields the
// caching/polling review advice.
func TestHotspotsRecommendationThresholds(t *testing.T) {
	a := pathAgg(func(a *agg.PathAgg) {
		for i := 0; i < 10000; i++ {
			a.Fold(readEvent("kv/data/hot/secret", "e1"))
		}
	})
	rep := BuildHotspots(a, 5)
	testkit.MustContain(t, rep.ByOps[0].Recommendation, "caching/polling review")

	// same path, diverse clients: no high-frequency flag
	b := pathAgg(func(a *agg.PathAgg) {
		for i := 0; i < 10; i++ {
			a.Fold(readEvent("kv/data/hot/secret", string(rune('a'+i))))
		}
	})
	rec := BuildHotspots(b, 5).ByOps[0].Recommendation
	if strings.Contains(rec, "caching/polling review") {
		t.Fatalf("diverse path flagged: %q", rec)
	}

	c := pathAgg(func(a *agg.PathAgg) {
		a.Fold(domain.Event{Time: t0, Op: domain.OpLookup, Path: "auth/token/lookup-self", EntityID: "e1"})
	})
	testkit.MustContain(t, BuildHotspots(c, 5).ByOps[0].Recommendation, "TTL tracking")
}

func TestHotspotsTextReport(t *testing.T) {
	a := pathAgg(func(a *agg.PathAgg) {
		a.Fold(readEvent("kv/data/app", "e1"))
	})
	var sb strings.Builder
	BuildHotspots(a, 3).WriteText(&sb)
	testkit.MustContain(t, sb.String(), "TOP 3 PATH HOTSPOTS")
	testkit.MustContain(t, sb.String(), "kv/app")
}
