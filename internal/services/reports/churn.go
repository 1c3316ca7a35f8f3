package reports

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	perr "vaultaudit/internal/platform/errors"
	pstrings "vaultaudit/internal/platform/strings"
	"vaultaudit/internal/platform/xtime"
	"vaultaudit/internal/services/analyze/agg"
)

// ChurnClass is the lifecycle classification of an entity for the window
type ChurnClass uint8

const (
	// ChurnPreExisting is an entity present in the baseline
	ChurnPreExisting ChurnClass = iota
	// ChurnNew is an entity absent from the baseline whose lifespan exceeds
	// the ephemeral window
	ChurnNew
	// ChurnEphemeral is an entity absent from the baseline whose observed
	// lifespan is within the ephemeral window (boundary inclusive)
	ChurnEphemeral
)

// String returns the report-facing label for the class
func (c ChurnClass) String() string {
	switch c {
	case ChurnPreExisting:
		return "pre_existing"
	case ChurnNew:
		return "new"
	default:
		return "ephemeral"
	}
}

// ChurnEntity is one classified entity row
type ChurnEntity struct {
	EntityID    string
	DisplayName string
	Class       ChurnClass
	FirstSeen   time.Time
	LastSeen    time.Time
	Lifespan    time.Duration
	Ops         int
	Logins      int
	DaysActive  int
}

// ChurnReport classifies merged entity records against a baseline
type ChurnReport struct {
	Window   time.Duration
	Entities []ChurnEntity
	ByClass  [3]int
	// ByDay counts entities first seen per UTC day (event time, not file)
	ByDay map[string]int
	// OpsByDay counts operations per UTC day across all entities
	OpsByDay map[string]int
}

// BuildChurn classifies every merged entity. Baseline membership wins over
// lifespan; the ephemeral boundary is inclusive (lifespan == window is
// still ephemeral). Aliases fill display names missing from the logs.
func BuildChurn(entities *agg.EntityAgg, baseline *BaselineSet, aliases AliasMap, window time.Duration) *ChurnReport {
	rep := &ChurnReport{
		Window:   window,
		ByDay:    make(map[string]int),
		OpsByDay: make(map[string]int),
	}
	if entities == nil {
		return rep
	}

	rep.Entities = make([]ChurnEntity, 0, len(entities.Records))
	for id, r := range entities.Records {
		class := ChurnNew
		switch {
		case baseline.Has(id):
			class = ChurnPreExisting
		case r.Lifespan() <= window:
			class = ChurnEphemeral
		}

		name := pstrings.Coalesce(r.DisplayName, aliases.First(id), baseline.Name(id))
		rep.Entities = append(rep.Entities, ChurnEntity{
			EntityID:    id,
			DisplayName: name,
			Class:       class,
			FirstSeen:   r.FirstSeen,
			LastSeen:    r.LastSeen,
			Lifespan:    r.Lifespan(),
			Ops:         r.Ops,
			Logins:      r.Logins,
			DaysActive:  r.DaysActive(),
		})
		rep.ByClass[class]++
		rep.ByDay[xtime.DayString(r.FirstSeen)]++
		for d, n := range r.Days {
			rep.OpsByDay[d] += n
		}
	}

	sort.Slice(rep.Entities, func(i, j int) bool {
		a, b := rep.Entities[i], rep.Entities[j]
		if !a.FirstSeen.Equal(b.FirstSeen) {
			return a.FirstSeen.Before(b.FirstSeen)
		}
		return a.EntityID < b.EntityID
	})
	return rep
}

// Total is the number of classified entities
func (r *ChurnReport) Total() int { return len(r.Entities) }

// WriteText renders the human-facing churn report
func (r *ChurnReport) WriteText(w io.Writer) {
	header(w, "ENTITY CHURN ANALYSIS")

	section(w, "1. SUMMARY")
	fmt.Fprintf(w, "Total entities:     %s\n", count(r.Total()))
	fmt.Fprintf(w, "Pre-existing:       %s (%.1f%%)\n",
		count(r.ByClass[ChurnPreExisting]), pct(r.ByClass[ChurnPreExisting], r.Total()))
	fmt.Fprintf(w, "New:                %s (%.1f%%)\n",
		count(r.ByClass[ChurnNew]), pct(r.ByClass[ChurnNew], r.Total()))
	fmt.Fprintf(w, "Ephemeral (<= %s):  %s (%.1f%%)\n",
		xtime.HumanDur(r.Window),
		count(r.ByClass[ChurnEphemeral]), pct(r.ByClass[ChurnEphemeral], r.Total()))

	section(w, "2. CHURN RATE BY DAY")
	fmt.Fprintf(w, "%-14s %12s %14s\n", "Day", "First Seen", "Operations")
	days := make([]string, 0, len(r.OpsByDay))
	for d := range r.OpsByDay {
		days = append(days, d)
	}
	sort.Strings(days)
	for _, d := range days {
		fmt.Fprintf(w, "%-14s %12s %14s\n", d, count(r.ByDay[d]), count(r.OpsByDay[d]))
	}

	section(w, "3. EPHEMERAL ENTITIES")
	shown := 0
	for _, e := range r.Entities {
		if e.Class != ChurnEphemeral {
			continue
		}
		if shown == 0 {
			fmt.Fprintf(w, "%-38s %-12s %10s %8s  %s\n",
				"Entity", "Lifespan", "Ops", "Logins", "Name")
		}
		fmt.Fprintf(w, "%-38s %-12s %10s %8s  %s\n",
			e.EntityID, xtime.HumanDur(e.Lifespan), count(e.Ops), count(e.Logins),
			clipPath(e.DisplayName, 40))
		shown++
		if shown == 30 {
			break
		}
	}
	if shown == 0 {
		fmt.Fprintln(w, "none")
	}
}

var churnCSVHeader = []string{
	"entity_id", "display_name", "classification",
	"first_seen", "last_seen", "lifespan_seconds",
	"operations", "logins", "days_active",
}

// WriteCSV exports every classified entity
func (r *ChurnReport) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(churnCSVHeader); err != nil {
		return perr.Wrap(err, perr.ErrorCodeUnknown, "write churn CSV")
	}
	for _, e := range r.Entities {
		rec := []string{
			e.EntityID,
			e.DisplayName,
			e.Class.String(),
			e.FirstSeen.UTC().Format(time.RFC3339),
			e.LastSeen.UTC().Format(time.RFC3339),
			strconv.FormatInt(int64(e.Lifespan/time.Second), 10),
			strconv.Itoa(e.Ops),
			strconv.Itoa(e.Logins),
			strconv.Itoa(e.DaysActive),
		}
		if err := cw.Write(rec); err != nil {
			return perr.Wrap(err, perr.ErrorCodeUnknown, "write churn CSV")
		}
	}
	cw.Flush()
	return perr.Wrap(cw.Error(), perr.ErrorCodeUnknown, "flush churn CSV")
}
