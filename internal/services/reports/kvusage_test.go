package reports

import (
	"strings"
	"testing"

	"vaultaudit/internal/platform/testkit"
	"vaultaudit/internal/services/analyze/agg"
)

func kvAgg() *agg.PathAgg {
	a := agg.NewPathAgg(agg.PathFilter{KVOnly: true, ReadListOnly: true})
	a.Fold(readEvent("kv/data/app1/config", "e2"))
	a.Fold(readEvent("kv/data/app1/config", "e1"))
	a.Fold(readEvent("kv/metadata/app1/config", "e1"))
	a.Fold(readEvent("kv/data/app2/creds", "e3"))
	return a
}

func TestKVUsageRows(t *testing.T) {
	rep := BuildKVUsage(kvAgg(), AliasMap{"e1": {"svc-one"}})
	if len(rep.Rows) != 2 {
		t.Fatalf("rows = %d", len(rep.Rows))
	}
	// rows sorted by path
	r := rep.Rows[0]
	if r.Path != "kv/app1/config" || r.Ops != 3 || r.UniqueClients() != 2 {
		t.Fatalf("row: %+v", r)
	}
	if r.EntityIDs[0] != "e1" || r.EntityIDs[1] != "e2" {
		t.Fatalf("entity ids not sorted: %v", r.EntityIDs)
	}
	if len(r.AliasNames) != 1 || r.AliasNames[0] != "svc-one" {
		t.Fatalf("alias names: %v", r.AliasNames)
	}
	if r.Mount() != "kv/" {
		t.Fatalf("mount = %q", r.Mount())
	}
}

func TestKVUsageCSVRoundTrip(t *testing.T) {
	rep := BuildKVUsage(kvAgg(), nil)

	var sb strings.Builder
	testkit.Must(t, rep.WriteCSV(&sb))
	out := sb.String()
	testkit.MustContain(t, out, "kv_path,unique_clients,operations_count")
	testkit.MustContain(t, out, "kv/app1/config")

	path := writeTemp(t, "usage.csv", out)
	back, err := ReadKVUsageCSV(path)
	testkit.Must(t, err)
	if len(back.Rows) != len(rep.Rows) {
		t.Fatalf("rows = %d, want %d", len(back.Rows), len(rep.Rows))
	}
	if back.Rows[0].Ops != rep.Rows[0].Ops || back.Rows[0].UniqueClients() != rep.Rows[0].UniqueClients() {
		t.Fatalf("round trip lost data: %+v vs %+v", back.Rows[0], rep.Rows[0])
	}
}

func TestCompareByMount(t *testing.T) {
	old := &KVUsageReport{Rows: []KVUsageRow{
		{Path: "kv/app1", Ops: 100, EntityIDs: []string{"e1", "e2"}},
		{Path: "kv/app2", Ops: 50, EntityIDs: []string{"e1"}},
	}}
	cur := &KVUsageReport{Rows: []KVUsageRow{
		{Path: "kv/app1", Ops: 150, EntityIDs: []string{"e1", "e2", "e3"}},
		{Path: "appcodes/x", Ops: 10, EntityIDs: []string{"e9"}},
	}}

	rep := BuildCompare(old, cur)
	if len(rep.Mounts) != 2 {
		t.Fatalf("mounts = %d: %+v", len(rep.Mounts), rep.Mounts)
	}

	// sorted by mount name: appcodes/ then kv/
	app := rep.Mounts[0]
	if app.Mount != "appcodes/" || app.OldOps != 0 || app.NewOps != 10 {
		t.Fatalf("new mount: %+v", app)
	}
	kv := rep.Mounts[1]
	if kv.OldOps != 150 || kv.NewOps != 150 {
		t.Fatalf("kv ops: %+v", kv)
	}
	if kv.OldPaths != 2 || kv.NewPaths != 1 {
		t.Fatalf("kv paths: %+v", kv)
	}
	if kv.OldEntities != 2 || kv.NewEntities != 3 {
		t.Fatalf("kv entities: %+v", kv)
	}
	if got := kv.EntitiesChange(); got != 50 {
		t.Fatalf("entity change = %v%%", got)
	}
}

func TestCompareTextReport(t *testing.T) {
	rep := BuildCompare(
		&KVUsageReport{Rows: []KVUsageRow{{Path: "kv/a", Ops: 10, EntityIDs: []string{"e1"}}}},
		&KVUsageReport{Rows: []KVUsageRow{{Path: "kv/a", Ops: 20, EntityIDs: []string{"e1"}}}},
	)
	var sb strings.Builder
	rep.WriteText(&sb)
	testkit.MustContain(t, sb.String(), "KV USAGE COMPARISON")
	testkit.MustContain(t, sb.String(), "+100.0%")
}
