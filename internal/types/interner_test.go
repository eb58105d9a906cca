package types

import (
	"testing"

	"questdsl/internal/hostdesc"
)

func TestInternerBuiltins(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	if b.Int == NoTypeID || b.NoType == NoTypeID || b.Int == b.Float {
		t.Fatalf("builtins not initialized: %+v", b)
	}
	if got := Label(in, b.NoType); got != "no_type" {
		t.Fatalf("no_type label = %q", got)
	}
}

func TestInternerDeduplicatesCollections(t *testing.T) {
	in := NewInterner()
	s := in.Builtins().String
	if in.List(s) != in.List(s) {
		t.Fatalf("list types should be interned")
	}
	if in.List(s) == in.Set(s) {
		t.Fatalf("list and set of the same element must differ")
	}
	if in.Map(s, in.Builtins().Int) == in.Map(in.Builtins().Int, s) {
		t.Fatalf("map key order matters")
	}
}

func TestFnInterning(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	first := in.Fn([]TypeID{b.String}, b.Int)
	second := in.Fn([]TypeID{b.String}, b.Int)
	if first != second {
		t.Fatalf("equal signatures must intern to one type: %d vs %d", first, second)
	}
	if other := in.Fn([]TypeID{b.Int}, b.Int); other == first {
		t.Fatalf("different params must yield a different type")
	}
}

func TestDedupFoldsDetachedFunctions(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	interned := in.Fn([]TypeID{b.String}, b.Int)
	host := in.NewDetachedFn([]TypeID{b.String}, b.Int)
	if host == interned {
		t.Fatalf("detached function must not be interned on creation")
	}
	if in.Hash(host) != in.Hash(interned) {
		t.Fatalf("structural hash must match before dedup")
	}

	remap := in.Dedup()
	if remap[host] != interned {
		t.Fatalf("remap[%d] = %d, want %d", host, remap[host], interned)
	}
	if again := in.Fn([]TypeID{b.String}, b.Int); again != interned {
		t.Fatalf("Fn after dedup = %d, want canonical %d", again, interned)
	}
}

func TestDedupRewritesComponents(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	canonical := in.Fn(nil, b.Int)
	detached := in.NewDetachedFn(nil, b.Int)
	listOfCanonical := in.List(canonical)
	listOfDetached := in.List(detached)
	if listOfCanonical == listOfDetached {
		t.Fatalf("lists over distinct instances are distinct before dedup")
	}

	remap := in.Dedup()
	if remap[listOfDetached] != listOfCanonical {
		t.Fatalf("list over folded fn must fold too, remap=%v", remap)
	}
	if in.List(detached) != listOfCanonical {
		t.Fatalf("interning after dedup must find the canonical list")
	}
}

func TestNominalTypesAreDistinct(t *testing.T) {
	in := NewInterner()
	a := in.NewAggregate("room", nil)
	b := in.NewAggregate("room", nil)
	if a == b || in.Equal(a, b) {
		t.Fatalf("aggregates are nominal")
	}
	remap := in.Dedup()
	if _, folded := remap[b]; folded {
		t.Fatalf("dedup must not fold nominal types")
	}
}

func TestAggregateMembers(t *testing.T) {
	in := NewInterner()
	desc := &hostdesc.TypeDesc{Name: "point", Kind: hostdesc.KindAdapted}
	field := &hostdesc.FieldDesc{Name: "x", Host: "xCoord", Type: "float"}
	id := in.NewAdapted("point", desc, []TypeID{in.Builtins().Float, in.Builtins().Float})
	in.SetMembers(id, []Member{{Name: "x", Field: field, Type: in.Builtins().Float}})

	info, ok := in.AggregateInfo(id)
	if !ok || info.Origin != desc || len(info.Params) != 2 {
		t.Fatalf("unexpected aggregate info %+v", info)
	}
	m, ok := info.Member("x")
	if !ok || m.Field.HostField() != "xCoord" {
		t.Fatalf("member x not mapped to host field")
	}
}

func TestLabels(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	cases := []struct {
		id   TypeID
		want string
	}{
		{in.List(b.Int), "int[]"},
		{in.Set(b.Int), "int<>"},
		{in.Map(b.String, b.Int), "[string -> int]"},
		{in.Fn([]TypeID{b.Int, b.Float, b.String}, b.Int), "$fn(int, float, string) -> int$"},
		{in.Fn(nil, b.Int), "$fn() -> int$"},
		{in.NewEnum("my_enum", nil, []string{"A", "B"}), "my_enum"},
	}
	for _, tc := range cases {
		if got := Label(in, tc.id); got != tc.want {
			t.Fatalf("Label = %q, want %q", got, tc.want)
		}
	}
}
