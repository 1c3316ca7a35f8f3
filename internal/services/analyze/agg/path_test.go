package agg

import (
	"testing"

	"vaultaudit/internal/services/analyze/domain"
)

func TestNormalizeKVPath(t *testing.T) {
	cases := []struct{ in, want string }{
		{"kv/data/app1/config", "kv/app1/config"},
		{"kv/metadata/app1/config", "kv/app1/config"},
		{"kv/app1/config", "kv/app1/config"},
		{"kv/data/config", "kv/config"},
		{"kv/data", "kv"},
		{"/kv/data/app/", "kv/app"},
		{"secret/data/data/app", "secret/app"}, // repeated strip to fixed point
		{"kv", "kv"},
		{"", ""},
	}
	for _, c := range cases {
		if got := NormalizeKVPath(c.in); got != c.want {
			t.Errorf("NormalizeKVPath(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestNormalizeKVPathIdempotent(t *testing.T) {
	paths := []string{
		"kv/data/app1/config",
		"kv/metadata/a/b/c",
		"secret/data/data/data/x",
		"a/b/c",
		"data/data",
		"kv/data",
	}
	for _, p := range paths {
		once := NormalizeKVPath(p)
		if twice := NormalizeKVPath(once); twice != once {
			t.Errorf("not idempotent for %q: %q -> %q", p, once, twice)
		}
	}
}

// v1 and v2 access to the same logical secret aggregate under one record
func TestPathAggNormalizedAggregation(t *testing.T) {
	a := NewPathAgg(PathFilter{})
	a.Fold(domain.Event{Time: t0, Op: domain.OpRead, Path: "kv/data/app1/config", EntityID: "e1"})
	a.Fold(domain.Event{Time: t0, Op: domain.OpRead, Path: "kv/metadata/app1/config", EntityID: "e2"})

	r := a.Records["kv/app1/config"]
	if r == nil {
		t.Fatalf("missing normalized record, have %d records", len(a.Records))
	}
	if r.Ops != 2 {
		t.Fatalf("ops = %d, want 2", r.Ops)
	}
	if r.UniqueEntities() != 2 {
		t.Fatalf("unique entities = %d, want 2", r.UniqueEntities())
	}
	if len(r.Samples) != 2 {
		t.Fatalf("samples = %v", r.Samples)
	}
}

func TestPathFilter(t *testing.T) {
	read := domain.Event{Time: t0, Op: domain.OpRead, Path: "kv/data/app", MountType: "kv", EntityID: "e1"}
	write := read
	write.Op = domain.OpUpdate
	other := domain.Event{Time: t0, Op: domain.OpRead, Path: "sys/health"}

	a := NewPathAgg(PathFilter{KVOnly: true, ReadListOnly: true})
	a.Fold(read)
	a.Fold(write) // dropped: not read/list
	a.Fold(other) // dropped: not KV shaped
	if len(a.Records) != 1 || a.Records["kv/app"].Ops != 1 {
		t.Fatalf("filter admitted wrong events: %+v", a.Records)
	}

	p := NewPathAgg(PathFilter{Prefix: "appcodes/"})
	p.Fold(domain.Event{Time: t0, Op: domain.OpRead, Path: "appcodes/data/x"})
	p.Fold(read)
	if len(p.Records) != 1 {
		t.Fatalf("prefix filter admitted %d records", len(p.Records))
	}
}

// Sample policy is the 5 lexically smallest distinct raw paths; merging in
// any order yields the same sample set.
func TestPathSamplesMinKUnion(t *testing.T) {
	// every raw variant normalizes to kv/app
	raw := []string{
		"kv/metadata/metadata/app",
		"kv/data/app",
		"kv/metadata/data/app",
		"kv/data/data/app",
		"kv/metadata/app",
		"kv/data/metadata/app",
		"kv/data/app", // duplicate
	}
	want := []string{
		"kv/data/app",
		"kv/data/data/app",
		"kv/data/metadata/app",
		"kv/metadata/app",
		"kv/metadata/data/app",
	}

	whole := NewPathAgg(PathFilter{})
	left := NewPathAgg(PathFilter{})
	right := NewPathAgg(PathFilter{})
	for i, p := range raw {
		e := domain.Event{Time: t0, Op: domain.OpRead, Path: p, EntityID: "e"}
		whole.Fold(e)
		if i%2 == 0 {
			left.Fold(e)
		} else {
			right.Fold(e)
		}
	}
	right.Merge(left)

	for name, a := range map[string]*PathAgg{"sequential": whole, "merged": right} {
		r := a.Records["kv/app"]
		if r == nil {
			t.Fatalf("%s: missing kv/app record", name)
		}
		if len(r.Samples) != len(want) {
			t.Fatalf("%s: samples = %v", name, r.Samples)
		}
		for i := range want {
			if r.Samples[i] != want[i] {
				t.Fatalf("%s: samples = %v, want %v", name, r.Samples, want)
			}
		}
	}
	if whole.Records["kv/app"].Ops != 7 {
		t.Fatalf("ops = %d, want 7", whole.Records["kv/app"].Ops)
	}
}
