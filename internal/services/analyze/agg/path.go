package agg

import (
	"sort"
	"strings"

	"vaultaudit/internal/services/analyze/domain"
)

const maxSamplePaths = 5

// NormalizeKVPath strips KV v2 engine segments (data/, metadata/ at the
// second position) so v1 and v2 access to the same logical secret aggregate
// together, e.g. kv/data/app1/config and kv/metadata/app1/config both
// normalize to kv/app1/config.
//
// Stripping repeats until a fixed point so the function is idempotent for
// every input, including secrets literally named "data"; those collapse,
// trading comparability for idempotence.
func NormalizeKVPath(p string) string {
	p = strings.Trim(p, "/")
	for {
		parts := strings.SplitN(p, "/", 3)
		if len(parts) < 2 || (parts[1] != "data" && parts[1] != "metadata") {
			return p
		}
		if len(parts) == 2 {
			return parts[0]
		}
		p = parts[0] + "/" + parts[2]
	}
}

// PathFilter restricts which events a PathAgg folds
type PathFilter struct {
	// Prefix keeps only raw paths with this prefix (empty keeps all)
	Prefix string
	// KVOnly keeps only KV-shaped traffic: mount_type "kv" or a path
	// containing a data/ or metadata/ segment
	KVOnly bool
	// ReadListOnly keeps only Read and List operations
	ReadListOnly bool
}

func (f PathFilter) admit(ev domain.Event) bool {
	if f.Prefix != "" && !strings.HasPrefix(ev.Path, f.Prefix) {
		return false
	}
	if f.KVOnly && ev.MountType != "kv" &&
		!strings.Contains(ev.Path, "/data/") && !strings.Contains(ev.Path, "/metadata/") {
		return false
	}
	if f.ReadListOnly && ev.Op != domain.OpRead && ev.Op != domain.OpList {
		return false
	}
	return true
}

// PathRecord accumulates per-normalized-path state
type PathRecord struct {
	Path     string // normalized
	Ops      int
	OpCounts [domain.OpKindCount]int
	Entities map[string]struct{}
	// Samples holds up to 5 raw paths for diagnostics. Policy: the lexically
	// smallest distinct raw paths; min-k of a union is associative, so merge
	// order cannot change the sample set.
	Samples []string
}

func newPathRecord(path string) *PathRecord {
	return &PathRecord{Path: path, Entities: make(map[string]struct{})}
}

// UniqueEntities is the distinct entity count for the path
func (r *PathRecord) UniqueEntities() int { return len(r.Entities) }

func (r *PathRecord) addSample(raw string) {
	i := sort.SearchStrings(r.Samples, raw)
	if i < len(r.Samples) && r.Samples[i] == raw {
		return
	}
	if len(r.Samples) == maxSamplePaths {
		if i == maxSamplePaths {
			return
		}
		r.Samples = r.Samples[:maxSamplePaths-1]
	}
	r.Samples = append(r.Samples, "")
	copy(r.Samples[i+1:], r.Samples[i:])
	r.Samples[i] = raw
}

func (r *PathRecord) merge(o *PathRecord) {
	r.Ops += o.Ops
	for k := range o.OpCounts {
		r.OpCounts[k] += o.OpCounts[k]
	}
	for id := range o.Entities {
		r.Entities[id] = struct{}{}
	}
	for _, s := range o.Samples {
		r.addSample(s)
	}
}

// PathAgg folds events into per-normalized-path records
type PathAgg struct {
	Filter  PathFilter
	Records map[string]*PathRecord
}

// NewPathAgg creates an empty path aggregator with the given filter
func NewPathAgg(f PathFilter) *PathAgg {
	return &PathAgg{Filter: f, Records: make(map[string]*PathRecord)}
}

// Fold accumulates one event into the partial state
func (a *PathAgg) Fold(ev domain.Event) {
	if ev.Path == "" || !a.Filter.admit(ev) {
		return
	}
	norm := NormalizeKVPath(ev.Path)
	r, ok := a.Records[norm]
	if !ok {
		r = newPathRecord(norm)
		a.Records[norm] = r
	}
	r.Ops++
	r.OpCounts[ev.Op]++
	if ev.EntityID != "" {
		r.Entities[ev.EntityID] = struct{}{}
	}
	r.addSample(ev.Path)
}

// Merge combines another partial of the same kind into a.
// Merging aggregators with different filters is a programming error.
func (a *PathAgg) Merge(o *PathAgg) {
	if o == nil {
		return
	}
	for p, or := range o.Records {
		if r, ok := a.Records[p]; ok {
			r.merge(or)
		} else {
			a.Records[p] = or
		}
	}
}
