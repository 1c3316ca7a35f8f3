package reports

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	perr "vaultaudit/internal/platform/errors"
	"vaultaudit/internal/platform/xtime"
	"vaultaudit/internal/services/analyze/agg"
	"vaultaudit/internal/services/analyze/domain"
)

// TokenAccessor is one per-accessor detail row
type TokenAccessor struct {
	Accessor  string
	EntityID  string
	FirstSeen time.Time
	LastSeen  time.Time
	Lifespan  time.Duration
	Ops       int
	OpCounts  [domain.OpKindCount]int
	Abusive   bool
}

// TokenEntity is the per-entity rollup across all its accessors
type TokenEntity struct {
	EntityID  string
	Accessors int
	Ops       int
	Lookups   int
	OpCounts  [domain.OpKindCount]int
	Abusive   bool
}

// TokenReport is the merged token lifecycle and abuse view
type TokenReport struct {
	Threshold int
	Accessors []TokenAccessor
	Entities  []TokenEntity
	Conflicts []agg.Conflict
	// ConflictTotal is the full conflict count; Conflicts holds samples
	ConflictTotal int
}

// BuildTokens rolls accessor records up to entities and applies the abuse
// threshold. Flagging happens here, strictly after the final merge, so a
// Lookup count split across workers cannot be under-flagged.
func BuildTokens(accessors *agg.AccessorAgg, threshold int) *TokenReport {
	rep := &TokenReport{Threshold: threshold}
	if accessors == nil {
		return rep
	}

	byEntity := make(map[string]*TokenEntity)
	rep.Accessors = make([]TokenAccessor, 0, len(accessors.Records))
	for _, r := range accessors.Records {
		row := TokenAccessor{
			Accessor:  r.Accessor,
			EntityID:  r.EntityID,
			FirstSeen: r.FirstSeen,
			LastSeen:  r.LastSeen,
			Lifespan:  r.Lifespan(),
			Ops:       r.Ops,
			OpCounts:  r.OpCounts,
			Abusive:   r.Lookups() >= threshold,
		}
		rep.Accessors = append(rep.Accessors, row)

		if r.EntityID == "" {
			continue
		}
		e, ok := byEntity[r.EntityID]
		if !ok {
			e = &TokenEntity{EntityID: r.EntityID}
			byEntity[r.EntityID] = e
		}
		e.Accessors++
		e.Ops += r.Ops
		e.Lookups += r.Lookups()
		for k := range r.OpCounts {
			e.OpCounts[k] += r.OpCounts[k]
		}
	}

	rep.Entities = make([]TokenEntity, 0, len(byEntity))
	for _, e := range byEntity {
		e.Abusive = e.Lookups >= threshold
		rep.Entities = append(rep.Entities, *e)
	}

	sort.Slice(rep.Accessors, func(i, j int) bool {
		a, b := rep.Accessors[i], rep.Accessors[j]
		if a.Ops != b.Ops {
			return a.Ops > b.Ops
		}
		return a.Accessor < b.Accessor
	})
	sort.Slice(rep.Entities, func(i, j int) bool {
		a, b := rep.Entities[i], rep.Entities[j]
		if a.Lookups != b.Lookups {
			return a.Lookups > b.Lookups
		}
		return a.EntityID < b.EntityID
	})

	rep.ConflictTotal = accessors.Conflicts()
	rep.Conflicts = accessors.ConflictSamples(20)
	return rep
}

// AbusiveEntities returns the flagged entity rollups
func (r *TokenReport) AbusiveEntities() []TokenEntity {
	var out []TokenEntity
	for _, e := range r.Entities {
		if e.Abusive {
			out = append(out, e)
		}
	}
	return out
}

// AbusiveAccessors returns the flagged accessor rows
func (r *TokenReport) AbusiveAccessors() []TokenAccessor {
	var out []TokenAccessor
	for _, a := range r.Accessors {
		if a.Abusive {
			out = append(out, a)
		}
	}
	return out
}

// WriteText renders the human-facing token report
func (r *TokenReport) WriteText(w io.Writer) {
	header(w, "TOKEN ANALYSIS")

	section(w, "1. SUMMARY")
	fmt.Fprintf(w, "Accessors observed:   %s\n", count(len(r.Accessors)))
	fmt.Fprintf(w, "Entities observed:    %s\n", count(len(r.Entities)))
	fmt.Fprintf(w, "Abuse threshold:      %s lookups\n", count(r.Threshold))

	abusiveEnts := r.AbusiveEntities()
	section(w, "2. LOOKUP ABUSE (entities)")
	if len(abusiveEnts) == 0 {
		fmt.Fprintln(w, "none flagged")
	} else {
		fmt.Fprintf(w, "%-38s %10s %12s %10s\n", "Entity", "Lookups", "Total Ops", "Accessors")
		for _, e := range abusiveEnts {
			fmt.Fprintf(w, "%-38s %10s %12s %10s\n",
				e.EntityID, count(e.Lookups), count(e.Ops), count(e.Accessors))
		}
	}

	section(w, "3. TOP ACCESSORS BY OPERATIONS")
	fmt.Fprintf(w, "%-24s %-38s %10s %10s %-10s %s\n",
		"Accessor", "Entity", "Ops", "Lookups", "Lifespan", "Flag")
	for i, a := range r.Accessors {
		if i == 20 {
			break
		}
		flag := ""
		if a.Abusive {
			flag = "ABUSE"
		}
		fmt.Fprintf(w, "%-24s %-38s %10s %10s %-10s %s\n",
			clipPath(a.Accessor, 22), a.EntityID, count(a.Ops),
			count(a.OpCounts[domain.OpLookup]), xtime.HumanDur(a.Lifespan), flag)
	}

	if r.ConflictTotal > 0 {
		section(w, "4. ATTRIBUTION CONFLICTS")
		fmt.Fprintf(w, "Accessors observed under more than one entity: %s\n", count(r.ConflictTotal))
		for _, c := range r.Conflicts {
			fmt.Fprintf(w, "  %-24s kept=%s dropped=%s\n", clipPath(c.Accessor, 22), c.Kept, c.Dropped)
		}
	}
}

var tokenCSVHeader = []string{
	"accessor", "entity_id", "first_seen", "last_seen", "lifespan_seconds",
	"total_operations", "lookups", "creates", "renews", "revokes", "logins",
	"abusive",
}

// WriteCSV exports per-accessor detail, dropping rows below minOps
func (r *TokenReport) WriteCSV(w io.Writer, minOps int) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(tokenCSVHeader); err != nil {
		return perr.Wrap(err, perr.ErrorCodeUnknown, "write token CSV")
	}
	for _, a := range r.Accessors {
		if a.Ops < minOps {
			continue
		}
		rec := []string{
			a.Accessor,
			a.EntityID,
			a.FirstSeen.UTC().Format(time.RFC3339),
			a.LastSeen.UTC().Format(time.RFC3339),
			strconv.FormatInt(int64(a.Lifespan/time.Second), 10),
			strconv.Itoa(a.Ops),
			strconv.Itoa(a.OpCounts[domain.OpLookup]),
			strconv.Itoa(a.OpCounts[domain.OpCreate]),
			strconv.Itoa(a.OpCounts[domain.OpRenew]),
			strconv.Itoa(a.OpCounts[domain.OpRevoke]),
			strconv.Itoa(a.OpCounts[domain.OpLogin]),
			strconv.FormatBool(a.Abusive),
		}
		if err := cw.Write(rec); err != nil {
			return perr.Wrap(err, perr.ErrorCodeUnknown, "write token CSV")
		}
	}
	cw.Flush()
	return perr.Wrap(cw.Error(), perr.ErrorCodeUnknown, "flush token CSV")
}
