package diag

import (
	"testing"

	"questdsl/internal/source"
)

func TestBagCapAndErrors(t *testing.T) {
	bag := NewBag(2)
	r := BagReporter{Bag: bag}

	ReportWarning(r, SemaShadowSymbol, source.Span{File: 1, Start: 4, End: 5}, "shadow").Emit()
	if bag.HasErrors() {
		t.Fatalf("warning must not count as error")
	}
	ReportError(r, SemaUnresolvedSymbol, source.Span{File: 1, Start: 1, End: 2}, "unresolved").Emit()
	ReportError(r, SemaUnresolvedSymbol, source.Span{File: 1, Start: 9, End: 10}, "dropped").Emit()

	if bag.Len() != 2 {
		t.Fatalf("len = %d, want 2 (cap)", bag.Len())
	}
	if !bag.HasErrors() {
		t.Fatalf("expected errors")
	}

	bag.Sort()
	if got := bag.Items()[0].Message; got != "unresolved" {
		t.Fatalf("first after sort = %q", got)
	}
}

func TestReportBuilderEmitsOnce(t *testing.T) {
	bag := NewBag(0)
	b := ReportError(BagReporter{Bag: bag}, SemaDuplicateSymbol, source.Span{}, "duplicate declaration of 'x'").
		WithNote(source.Span{File: 1}, "previous declaration here").
		WithNode(7)
	b.Emit()
	b.Emit()

	if bag.Len() != 1 {
		t.Fatalf("len = %d, want 1", bag.Len())
	}
	d := bag.Items()[0]
	if d.Node != 7 || len(d.Notes) != 1 {
		t.Fatalf("unexpected diagnostic %+v", d)
	}
}

func TestDedupReporter(t *testing.T) {
	bag := NewBag(0)
	r := NewDedupReporter(BagReporter{Bag: bag})
	d := NewError(SemaIllegalMemberAccess, source.Span{File: 1, Start: 3, End: 8}, "member access on enum value is not allowed: v").WithNode(3)
	r.Report(d)
	r.Report(d)
	if bag.Len() != 1 {
		t.Fatalf("len = %d, want 1", bag.Len())
	}
	if got := bag.WithCode(SemaIllegalMemberAccess); len(got) != 1 {
		t.Fatalf("WithCode returned %d entries", len(got))
	}
}

func TestCodeID(t *testing.T) {
	cases := map[Code]string{
		SemaDuplicateSymbol: "SEM3002",
		ImpImportedSymbol:   "IMP4003",
		GraphUnresolvedTask: "TDG5001",
		GroumUnboundNode:    "GRM6001",
		UnknownCode:         "E0000",
	}
	for code, want := range cases {
		if got := code.ID(); got != want {
			t.Fatalf("%d.ID() = %q, want %q", code, got, want)
		}
	}
}

func TestSeverityFilter(t *testing.T) {
	for in, want := range map[string]Severity{"info": SevInfo, "Warn": SevWarning, "WARNING": SevWarning, " error ": SevError} {
		got, ok := ParseSeverity(in)
		if !ok || got != want {
			t.Fatalf("ParseSeverity(%q) = %v, %v; want %v", in, got, ok, want)
		}
	}
	if _, ok := ParseSeverity("fatal"); ok {
		t.Fatalf("unknown severity must not parse")
	}
	if Severity(9).String() != "UNKNOWN" {
		t.Fatalf("out of range severity must print UNKNOWN")
	}

	bag := NewBag(0)
	bag.Add(New(SevInfo, SemaInfo, source.Span{}, "info"))
	bag.Add(New(SevWarning, SemaShadowSymbol, source.Span{}, "warn"))
	bag.Add(NewError(SemaUnresolvedSymbol, source.Span{}, "err"))
	if got := bag.AtLeast(SevWarning).Len(); got != 2 {
		t.Fatalf("AtLeast(warning) kept %d, want 2", got)
	}
	if bag.Len() != 3 {
		t.Fatalf("AtLeast must not modify the source bag")
	}
}
