package reports

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	perr "vaultaudit/internal/platform/errors"
	"vaultaudit/internal/services/analyze/agg"
)

// KVUsageRow is one normalized-path usage row, the unit of the
// kv_usage_by_client export
type KVUsageRow struct {
	Path        string
	EntityIDs   []string // sorted
	Ops         int
	AliasNames  []string
	SamplePaths []string
}

// UniqueClients is the distinct entity count for the row
func (r KVUsageRow) UniqueClients() int { return len(r.EntityIDs) }

// Mount is the first path segment plus trailing slash, or "" for bare paths
func (r KVUsageRow) Mount() string {
	if i := strings.IndexByte(r.Path, '/'); i > 0 {
		return r.Path[:i+1]
	}
	return ""
}

// KVUsageReport is the per-client KV usage view
type KVUsageReport struct {
	Rows []KVUsageRow
}

// BuildKVUsage turns merged path records into sorted usage rows, enriching
// entity ids with alias names when a mapping is supplied
func BuildKVUsage(paths *agg.PathAgg, aliases AliasMap) *KVUsageReport {
	rep := &KVUsageReport{}
	if paths == nil {
		return rep
	}

	rep.Rows = make([]KVUsageRow, 0, len(paths.Records))
	for _, r := range paths.Records {
		ids := make([]string, 0, len(r.Entities))
		for id := range r.Entities {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		var names []string
		for _, id := range ids {
			names = append(names, aliases.Names(id)...)
		}

		rep.Rows = append(rep.Rows, KVUsageRow{
			Path:        r.Path,
			EntityIDs:   ids,
			Ops:         r.Ops,
			AliasNames:  names,
			SamplePaths: r.Samples,
		})
	}
	sort.Slice(rep.Rows, func(i, j int) bool { return rep.Rows[i].Path < rep.Rows[j].Path })
	return rep
}

var kvUsageCSVHeader = []string{
	"kv_path", "unique_clients", "operations_count",
	"entity_ids", "alias_names", "sample_paths_accessed",
}

// WriteCSV exports the usage rows in the kv_usage_by_client format
func (r *KVUsageReport) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(kvUsageCSVHeader); err != nil {
		return perr.Wrap(err, perr.ErrorCodeUnknown, "write kv usage CSV")
	}
	for _, row := range r.Rows {
		rec := []string{
			row.Path,
			strconv.Itoa(row.UniqueClients()),
			strconv.Itoa(row.Ops),
			strings.Join(row.EntityIDs, ", "),
			strings.Join(row.AliasNames, ", "),
			strings.Join(row.SamplePaths, ", "),
		}
		if err := cw.Write(rec); err != nil {
			return perr.Wrap(err, perr.ErrorCodeUnknown, "write kv usage CSV")
		}
	}
	cw.Flush()
	return perr.Wrap(cw.Error(), perr.ErrorCodeUnknown, "flush kv usage CSV")
}

// WriteText renders a short usage summary
func (r *KVUsageReport) WriteText(w io.Writer) {
	header(w, "KV USAGE BY CLIENT")
	fmt.Fprintf(w, "KV paths analyzed: %s\n", count(len(r.Rows)))

	section(w, "TOP PATHS BY OPERATIONS")
	rows := make([]KVUsageRow, len(r.Rows))
	copy(rows, r.Rows)
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Ops != rows[j].Ops {
			return rows[i].Ops > rows[j].Ops
		}
		return rows[i].Path < rows[j].Path
	})
	fmt.Fprintf(w, "%-56s %12s %10s\n", "Path", "Ops", "Clients")
	for i, row := range rows {
		if i == 20 {
			break
		}
		fmt.Fprintf(w, "%-56s %12s %10s\n",
			clipPath(row.Path, 54), count(row.Ops), count(row.UniqueClients()))
	}
}

// ReadKVUsageCSV loads a previously exported usage CSV for comparison.
// Only the columns compare needs are decoded; extra columns are ignored.
func ReadKVUsageCSV(path string) (*KVUsageReport, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, perr.WithFile(perr.Wrap(err, perr.ErrorCodeFatalFile, "open kv usage CSV"), path)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = -1
	rep := &KVUsageReport{}
	first := true
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, perr.WithFile(perr.Wrap(err, perr.ErrorCodeFatalFile, "parse kv usage CSV"), path)
		}
		if first {
			first = false
			if len(rec) > 0 && rec[0] == "kv_path" {
				continue
			}
		}
		if len(rec) < 3 || rec[0] == "" {
			continue
		}
		row := KVUsageRow{Path: rec[0]}
		row.Ops, _ = strconv.Atoi(rec[2])
		if len(rec) > 3 {
			for _, id := range strings.Split(rec[3], ",") {
				if id = strings.TrimSpace(id); id != "" {
					row.EntityIDs = append(row.EntityIDs, id)
				}
			}
		}
		rep.Rows = append(rep.Rows, row)
	}
	return rep, nil
}
