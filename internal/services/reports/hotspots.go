package reports

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"vaultaudit/internal/services/analyze/agg"
	"vaultaudit/internal/services/analyze/domain"
)

// Recommendation thresholds. Fixed values so the advice text is a pure
// function of the aggregate numbers and stable across runs.
const (
	hotKVOps         = 10000
	hotKVMaxEntities = 3
	hotOtherOps      = 5000
)

// Hotspot is one ranked path row
type Hotspot struct {
	Path           string
	Ops            int
	UniqueEntities int
	TopOp          domain.OpKind
	Samples        []string
	Recommendation string
}

// HotspotReport ranks normalized paths two ways
type HotspotReport struct {
	TopN       int
	TotalOps   int
	Paths      int
	ByOps      []Hotspot
	ByEntities []Hotspot
}

// BuildHotspots ranks merged path records by operation count and by unique
// entity count. Ties break lexically on the path so output is stable.
func BuildHotspots(paths *agg.PathAgg, topN int) *HotspotReport {
	rep := &HotspotReport{TopN: topN}
	if paths == nil {
		return rep
	}
	rep.Paths = len(paths.Records)

	rows := make([]Hotspot, 0, len(paths.Records))
	for _, r := range paths.Records {
		rep.TotalOps += r.Ops
		rows = append(rows, Hotspot{
			Path:           r.Path,
			Ops:            r.Ops,
			UniqueEntities: r.UniqueEntities(),
			TopOp:          topOp(r.OpCounts),
			Samples:        r.Samples,
		})
	}
	for i := range rows {
		rows[i].Recommendation = recommend(rows[i].Path, rows[i].Ops, rows[i].UniqueEntities)
	}

	rep.ByOps = rankBy(rows, topN, func(h Hotspot) int { return h.Ops })
	rep.ByEntities = rankBy(rows, topN, func(h Hotspot) int { return h.UniqueEntities })
	return rep
}

func topOp(counts [domain.OpKindCount]int) domain.OpKind {
	best := domain.OpOther
	for k := domain.OpKind(0); k < domain.OpKindCount; k++ {
		if counts[k] > counts[best] {
			best = k
		}
	}
	return best
}

func rankBy(rows []Hotspot, topN int, key func(Hotspot) int) []Hotspot {
	out := make([]Hotspot, len(rows))
	copy(out, rows)
	sort.Slice(out, func(i, j int) bool {
		if key(out[i]) != key(out[j]) {
			return key(out[i]) > key(out[j])
		}
		return out[i].Path < out[j].Path
	})
	if len(out) > topN {
		out = out[:topN]
	}
	return out
}

// recommend derives advice from (path shape, ops, unique entities) only
func recommend(path string, ops, entities int) string {
	lower := strings.ToLower(path)
	switch {
	case strings.Contains(path, "token/lookup"):
		return "client-side token TTL tracking would eliminate this polling"
	case strings.HasSuffix(path, "/login") && entities == 1 && ops > hotOtherOps:
		return "single entity re-authenticating at volume; review token TTLs"
	case strings.Contains(lower, "/data/") || strings.Contains(lower, "/metadata/") || strings.HasPrefix(lower, "kv/"):
		if ops >= hotKVOps && entities <= hotKVMaxEntities {
			return fmt.Sprintf("high-frequency access from %d entities; candidate for caching/polling review", entities)
		}
		return "consider an agent cache for high-frequency consumers"
	case ops > hotOtherOps:
		return "high-volume path; review necessity"
	}
	return ""
}

// WriteText renders the human-facing hotspot report
func (r *HotspotReport) WriteText(w io.Writer) {
	header(w, fmt.Sprintf("TOP %d PATH HOTSPOTS", r.TopN))

	section(w, "1. BY OPERATION COUNT")
	fmt.Fprintf(w, "%-4s %-56s %12s %10s %-8s %7s\n", "#", "Path", "Ops", "Entities", "Top Op", "%")
	for i, h := range r.ByOps {
		fmt.Fprintf(w, "%-4d %-56s %12s %10s %-8s %6.2f%%\n",
			i+1, clipPath(h.Path, 54), count(h.Ops), count(h.UniqueEntities),
			h.TopOp.String(), pct(h.Ops, r.TotalOps))
		if h.Recommendation != "" {
			fmt.Fprintf(w, "     -> %s\n", h.Recommendation)
		}
	}

	section(w, "2. BY UNIQUE ENTITIES")
	fmt.Fprintf(w, "%-4s %-56s %10s %12s\n", "#", "Path", "Entities", "Ops")
	for i, h := range r.ByEntities {
		fmt.Fprintf(w, "%-4d %-56s %10s %12s\n",
			i+1, clipPath(h.Path, 54), count(h.UniqueEntities), count(h.Ops))
	}

	section(w, "3. TOTALS")
	fmt.Fprintf(w, "Distinct paths:     %s\n", count(r.Paths))
	fmt.Fprintf(w, "Total operations:   %s\n", count(r.TotalOps))
}
