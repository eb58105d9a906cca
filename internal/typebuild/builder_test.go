package typebuild

import (
	"testing"

	"questdsl/internal/hostdesc"
	"questdsl/internal/symbols"
	"questdsl/internal/types"
)

func newBuilder(t *testing.T, host *hostdesc.Table) (*Builder, *symbols.Table, *types.Interner) {
	t.Helper()
	table := symbols.NewTable(symbols.Hints{}, nil)
	in := types.NewInterner()
	res := symbols.NewResolver(table, table.Global, symbols.ResolverOptions{Prelude: symbols.BuiltinTypes(in)})
	return New(res, in, host), table, in
}

func TestTypeForIsMemoised(t *testing.T) {
	host := hostdesc.Default()
	b, table, in := newBuilder(t, host)
	desc, _ := host.Type("single_choice_task")

	first, err := b.TypeFor(desc)
	if err != nil {
		t.Fatalf("TypeFor: %v", err)
	}
	second, err := b.TypeFor(desc)
	if err != nil || second != first {
		t.Fatalf("second TypeFor = %d,%v want %d", second, err, first)
	}

	sym, ok := table.TypeSymbol(first)
	if !ok {
		t.Fatalf("type symbol not registered")
	}
	answers, ok := table.ResolveMember(sym, table.Strings.Intern("answers"))
	if !ok {
		t.Fatalf("answers member missing")
	}
	if got := types.Label(in, table.Symbols.Get(answers).Type); got != "string[]" {
		t.Fatalf("answers type = %q", got)
	}
	if !Task(in, first) {
		t.Fatalf("single_choice_task must be a task type")
	}
	info, _ := in.AggregateInfo(first)
	if m, _ := info.Member("correct_answer_index"); m.Field.HostField() != "correctAnswerIndex" {
		t.Fatalf("member not mapped to host field")
	}
}

func TestNestedAndRecursiveTypes(t *testing.T) {
	host := &hostdesc.Table{Types: []*hostdesc.TypeDesc{
		{Name: "room", Kind: hostdesc.KindAggregate, Fields: []*hostdesc.FieldDesc{
			{Name: "neighbours", Type: "room[]"},
			{Name: "origin", Type: "point"},
		}},
		{Name: "point", Kind: hostdesc.KindAdapted, Params: []string{"float", "float"}},
	}}
	b, table, in := newBuilder(t, host)
	if err := b.BuildAll(); err != nil {
		t.Fatalf("BuildAll: %v", err)
	}
	room, _ := host.Type("room")
	roomID, _ := b.TypeFor(room)
	info, _ := in.AggregateInfo(roomID)
	neighbours, _ := info.Member("neighbours")
	elem := in.MustLookup(neighbours.Type).Elem
	if elem != roomID {
		t.Fatalf("room[] must reference room itself")
	}
	origin, _ := info.Member("origin")
	if in.MustLookup(origin.Type).Kind != types.KindAggregateAdapted {
		t.Fatalf("point must be adapted")
	}
	if err := table.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestEnumVariantsLiveInTypeScope(t *testing.T) {
	host := &hostdesc.Table{Types: []*hostdesc.TypeDesc{
		{Name: "my_enum", Kind: hostdesc.KindEnum, Variants: []string{"A", "B"}},
	}}
	b, table, in := newBuilder(t, host)
	if err := b.BuildAll(); err != nil {
		t.Fatalf("BuildAll: %v", err)
	}
	enumSym, ok := table.LookupIn(table.Global, table.Strings.Intern("my_enum"))
	if !ok {
		t.Fatalf("enum not declared")
	}
	variant, ok := table.ResolveMember(enumSym, table.Strings.Intern("A"))
	if !ok {
		t.Fatalf("variant A missing")
	}
	v := table.Symbols.Get(variant)
	if v.Kind != symbols.SymbolEnumVariant || !in.IsEnum(v.Type) {
		t.Fatalf("unexpected variant symbol %+v", v)
	}
}

func TestNativeFunctionsAndMethods(t *testing.T) {
	host := hostdesc.Default()
	b, table, in := newBuilder(t, host)
	if err := b.BuildAll(); err != nil {
		t.Fatalf("BuildAll: %v", err)
	}
	printSym, ok := table.LookupIn(table.Global, table.Strings.Intern("print"))
	if !ok {
		t.Fatalf("print not declared")
	}
	if got := types.Label(in, table.Symbols.Get(printSym).Type); got != "$fn(string) -> none$" {
		t.Fatalf("print type = %q", got)
	}
	element, _ := host.Type("element")
	elemID, _ := b.TypeFor(element)
	elemSym, _ := table.TypeSymbol(elemID)
	if _, ok := table.ResolveMember(elemSym, table.Strings.Intern("get_content")); !ok {
		t.Fatalf("method get_content not bound to element")
	}
	if _, err := b.BindMethod("direction", &hostdesc.FuncDesc{Name: "turn"}); err == nil {
		t.Fatalf("methods on enums must be rejected")
	}
}
