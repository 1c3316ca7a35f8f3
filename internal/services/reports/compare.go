package reports

import (
	"fmt"
	"io"
	"sort"
)

// MountDelta compares KV usage for one mount across two export periods
type MountDelta struct {
	Mount string

	OldOps      int
	NewOps      int
	OldPaths    int
	NewPaths    int
	OldEntities int
	NewEntities int
}

// OpsChange is the operation delta in percent of the old period
func (d MountDelta) OpsChange() float64 { return change(d.OldOps, d.NewOps) }

// PathsChange is the unique-path delta in percent of the old period
func (d MountDelta) PathsChange() float64 { return change(d.OldPaths, d.NewPaths) }

// EntitiesChange is the entity delta in percent of the old period
func (d MountDelta) EntitiesChange() float64 { return change(d.OldEntities, d.NewEntities) }

func change(old, cur int) float64 {
	if old == 0 {
		if cur == 0 {
			return 0
		}
		return 100
	}
	return float64(cur-old) / float64(old) * 100
}

// CompareReport is the by-mount delta between two usage exports
type CompareReport struct {
	Mounts []MountDelta
}

// BuildCompare diffs two usage reports by mount. Mounts present in only
// one period still appear, with zeros on the missing side.
func BuildCompare(old, cur *KVUsageReport) *CompareReport {
	byMount := make(map[string]*MountDelta)
	get := func(mount string) *MountDelta {
		d, ok := byMount[mount]
		if !ok {
			d = &MountDelta{Mount: mount}
			byMount[mount] = d
		}
		return d
	}

	fold := func(rep *KVUsageReport, intoOld bool) {
		if rep == nil {
			return
		}
		seen := make(map[string]map[string]struct{})
		for _, row := range rep.Rows {
			mount := row.Mount()
			if mount == "" {
				mount = row.Path + "/"
			}
			d := get(mount)
			ents, ok := seen[mount]
			if !ok {
				ents = make(map[string]struct{})
				seen[mount] = ents
			}
			for _, id := range row.EntityIDs {
				ents[id] = struct{}{}
			}
			if intoOld {
				d.OldOps += row.Ops
				d.OldPaths++
				d.OldEntities = len(ents)
			} else {
				d.NewOps += row.Ops
				d.NewPaths++
				d.NewEntities = len(ents)
			}
		}
	}
	fold(old, true)
	fold(cur, false)

	rep := &CompareReport{Mounts: make([]MountDelta, 0, len(byMount))}
	for _, d := range byMount {
		rep.Mounts = append(rep.Mounts, *d)
	}
	sort.Slice(rep.Mounts, func(i, j int) bool { return rep.Mounts[i].Mount < rep.Mounts[j].Mount })
	return rep
}

// WriteText renders the by-mount comparison
func (r *CompareReport) WriteText(w io.Writer) {
	header(w, "KV USAGE COMPARISON")
	fmt.Fprintf(w, "%-24s %-26s %-26s %-26s\n", "KV Mount", "Operations", "Unique Paths", "Unique Entities")
	rule(w, "-")
	for _, d := range r.Mounts {
		fmt.Fprintf(w, "%-24s %-26s %-26s %-26s\n",
			clipPath(d.Mount, 22),
			delta(d.OldOps, d.NewOps, d.OpsChange()),
			delta(d.OldPaths, d.NewPaths, d.PathsChange()),
			delta(d.OldEntities, d.NewEntities, d.EntitiesChange()))
	}
}

func delta(old, cur int, chg float64) string {
	return fmt.Sprintf("%s -> %s (%+.1f%%)", count(old), count(cur), chg)
}
