package source

import "testing"

func TestInternerReturnsSameID(t *testing.T) {
	in := NewInterner()
	a := in.Intern("level_graph")
	b := in.Intern("level_graph")
	if a != b {
		t.Fatalf("expected identical IDs, got %d and %d", a, b)
	}
	if a == NoStringID {
		t.Fatalf("interned string must not map to NoStringID")
	}
	if got := in.MustLookup(a); got != "level_graph" {
		t.Fatalf("lookup = %q", got)
	}
}

func TestInternerNormalisesNFC(t *testing.T) {
	in := NewInterner()
	composed := in.Intern("tsch\u00fcss")
	decomposed := in.Intern("tschu\u0308ss")
	if composed != decomposed {
		t.Fatalf("NFC and NFD spellings must share an ID: %d vs %d", composed, decomposed)
	}
	if _, ok := in.Find("tschu\u0308ss"); !ok {
		t.Fatalf("Find should normalise too")
	}
}

func TestInternerEmptyString(t *testing.T) {
	in := NewInterner()
	if id := in.Intern(""); id != NoStringID {
		t.Fatalf("empty string should be NoStringID, got %d", id)
	}
	if in.Len() != 1 {
		t.Fatalf("len = %d, want 1", in.Len())
	}
}
