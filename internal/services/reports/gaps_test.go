package reports

import (
	"strings"
	"testing"
	"time"

	"vaultaudit/internal/platform/testkit"
	"vaultaudit/internal/services/analyze/agg"
	"vaultaudit/internal/services/analyze/domain"
)

func gapAgg(entity string, times ...time.Time) *agg.GapAgg {
	a := agg.NewGapAgg()
	for _, at := range times {
		a.Fold(domain.Event{Time: at, Op: domain.OpRead, Path: "kv/data/x", EntityID: entity})
	}
	return a
}

// Active at t0, silent until t0+600s, window 300s: exactly one gap of 600s
func TestGapsSingleSilence(t *testing.T) {
	a := gapAgg("E1", t0, t0.Add(600*time.Second))
	rep := BuildGaps(a, 300*time.Second)

	if len(rep.Gaps) != 1 {
		t.Fatalf("gaps = %d, want 1", len(rep.Gaps))
	}
	g := rep.Gaps[0]
	if g.Duration != 600*time.Second {
		t.Fatalf("duration = %v, want 600s", g.Duration)
	}
	if !g.Start.Equal(t0) || !g.End.Equal(t0.Add(600*time.Second)) {
		t.Fatalf("bounds: %v .. %v", g.Start, g.End)
	}
}

// A delta exactly equal to the window is not a gap
func TestGapsWindowBoundaryStrict(t *testing.T) {
	a := gapAgg("E1", t0, t0.Add(300*time.Second))
	if rep := BuildGaps(a, 300*time.Second); len(rep.Gaps) != 0 {
		t.Fatalf("boundary delta reported as gap: %+v", rep.Gaps)
	}
}

// Out-of-order and cross-partial timestamps sort before detection
func TestGapsSortAfterMerge(t *testing.T) {
	a := gapAgg("E1", t0.Add(20*time.Minute), t0)
	b := gapAgg("E1", t0.Add(time.Minute))
	a.Merge(b)

	rep := BuildGaps(a, 5*time.Minute)
	if len(rep.Gaps) != 1 {
		t.Fatalf("gaps = %d, want 1", len(rep.Gaps))
	}
	if rep.Gaps[0].Duration != 19*time.Minute {
		t.Fatalf("duration = %v, want 19m", rep.Gaps[0].Duration)
	}
}

func TestGapsMultiplePerEntity(t *testing.T) {
	a := gapAgg("E1",
		t0,
		t0.Add(10*time.Minute),
		t0.Add(11*time.Minute),
		t0.Add(30*time.Minute),
	)
	rep := BuildGaps(a, 5*time.Minute)
	if len(rep.Gaps) != 2 {
		t.Fatalf("gaps = %d, want 2", len(rep.Gaps))
	}
	// sorted by duration descending
	if rep.Gaps[0].Duration != 19*time.Minute || rep.Gaps[1].Duration != 10*time.Minute {
		t.Fatalf("order: %v, %v", rep.Gaps[0].Duration, rep.Gaps[1].Duration)
	}
}

func TestGapsTextReport(t *testing.T) {
	a := gapAgg("E1", t0, t0.Add(time.Hour))
	var sb strings.Builder
	BuildGaps(a, 300*time.Second).WriteText(&sb)
	testkit.MustContain(t, sb.String(), "ENTITY ACTIVITY GAPS")
	testkit.MustContain(t, sb.String(), "E1")
	testkit.MustContain(t, sb.String(), "1h")
}
