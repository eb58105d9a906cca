package symbols

import (
	"testing"

	"questdsl/internal/ast"
	"questdsl/internal/diag"
	"questdsl/internal/source"
	"questdsl/internal/types"
)

func TestTableFileRootReuse(t *testing.T) {
	table := NewTable(Hints{}, nil)
	file := source.FileID(1)
	span := source.Span{File: file}

	first := table.FileRoot(file, ast.NoNodeID, span)
	second := table.FileRoot(file, ast.NoNodeID, span)

	if !first.IsValid() {
		t.Fatalf("expected valid scope ID")
	}
	if first != second {
		t.Fatalf("expected FileRoot to reuse existing scope, got %v and %v", first, second)
	}
	if parent := table.Scopes.Get(first).Parent; parent != table.Global {
		t.Fatalf("file scope parent = %d, want global %d", parent, table.Global)
	}
	if err := table.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestResolverDeclareAndLookup(t *testing.T) {
	table := NewTable(Hints{}, nil)
	in := types.NewInterner()
	bag := diag.NewBag(0)
	root := table.FileRoot(1, ast.NoNodeID, source.Span{File: 1})
	res := NewResolver(table, root, ResolverOptions{
		Reporter: diag.BagReporter{Bag: bag},
		Prelude:  BuiltinTypes(in),
	})

	fn := table.Strings.Intern("f")
	fnID, ok := res.Declare(Symbol{Name: fn, Kind: SymbolFunction, Decl: 3})
	if !ok {
		t.Fatalf("declare f failed")
	}
	scope := res.Enter(ScopeFunction, NoSymbolID, 3, source.Span{File: 1})
	table.SetOwnScope(fnID, scope)

	x := table.Strings.Intern("x")
	xID, ok := res.Declare(Symbol{Name: x, Kind: SymbolVariable, Type: in.Builtins().Int, Decl: 4})
	if !ok {
		t.Fatalf("declare x failed")
	}
	if _, ok := res.Declare(Symbol{Name: x, Kind: SymbolVariable, Decl: 5}); ok {
		t.Fatalf("redeclaration must fail")
	}
	if got := bag.WithCode(diag.SemaDuplicateSymbol); len(got) != 1 {
		t.Fatalf("expected one duplicate diagnostic, got %d", len(got))
	}

	if got, ok := res.Lookup(fn); !ok || got != fnID {
		t.Fatalf("lookup f from function scope = %d,%v", got, ok)
	}
	if got, ok := res.LookupName("int"); !ok || table.Symbols.Get(got).Flags&SymbolFlagBuiltin == 0 {
		t.Fatalf("int must resolve to the builtin type")
	}
	if got, ok := table.SymbolFor(4); !ok || got != xID {
		t.Fatalf("declaration node must bind to its symbol")
	}

	res.Leave(scope)
	if _, ok := res.Lookup(x); ok {
		t.Fatalf("x must not be visible after leaving the function scope")
	}
	if err := table.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestShadowingOnlyWarnsForLocals(t *testing.T) {
	table := NewTable(Hints{}, nil)
	bag := diag.NewBag(0)
	root := table.FileRoot(1, ast.NoNodeID, source.Span{File: 1})
	res := NewResolver(table, root, ResolverOptions{Reporter: diag.BagReporter{Bag: bag}})

	name := table.Strings.Intern("v")
	res.Declare(Symbol{Name: name, Kind: SymbolVariable})
	fnScope := res.Enter(ScopeFunction, NoSymbolID, ast.NoNodeID, source.Span{})
	res.Declare(Symbol{Name: name, Kind: SymbolVariable})
	if bag.Len() != 0 {
		t.Fatalf("shadowing a file-level name must be silent")
	}
	block := res.Enter(ScopeBlock, NoSymbolID, ast.NoNodeID, source.Span{})
	res.Declare(Symbol{Name: name, Kind: SymbolVariable})
	if got := bag.WithCode(diag.SemaShadowSymbol); len(got) != 1 {
		t.Fatalf("expected one shadow warning, got %d", len(got))
	}
	res.Leave(block)
	res.Leave(fnScope)
}

func TestResolveMemberThroughAlias(t *testing.T) {
	table := NewTable(Hints{}, nil)
	lib := table.FileRoot(2, ast.NoNodeID, source.Span{File: 2})
	main := table.FileRoot(1, ast.NoNodeID, source.Span{File: 1})
	res := NewResolver(table, lib, ResolverOptions{})

	fnName := table.Strings.Intern("helper")
	fnID, _ := res.Declare(Symbol{Name: fnName, Kind: SymbolType, Sub: TypeSubAggregate})
	typeScope := table.NewScope(ScopeType, lib, NoSymbolID, ast.NoNodeID, source.Span{})
	table.SetOwnScope(fnID, typeScope)
	field := table.Strings.Intern("field")
	fieldID, _ := res.DeclareIn(typeScope, Symbol{Name: field, Kind: SymbolVariable})

	alias, ok := res.DeclareIn(main, Symbol{
		Name:     table.Strings.Intern("h"),
		Kind:     SymbolImportTypeAlias,
		Original: fnID,
	})
	if !ok {
		t.Fatalf("alias declaration failed")
	}
	got, ok := table.ResolveMember(alias, field)
	if !ok || got != fieldID {
		t.Fatalf("member through alias = %d,%v want %d", got, ok, fieldID)
	}
	if scope := table.Symbols.Get(got).Scope; scope != typeScope {
		t.Fatalf("member must live in the original's scope, got %d", scope)
	}
	if err := table.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestFrozenTablePanics(t *testing.T) {
	table := NewTable(Hints{}, nil)
	table.Freeze()
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on frozen table")
		}
	}()
	table.Bind(1, 1)
}

func TestValidateReportsBrokenAlias(t *testing.T) {
	table := NewTable(Hints{}, nil)
	root := table.FileRoot(1, ast.NoNodeID, source.Span{File: 1})
	table.Insert(root, Symbol{Name: table.Strings.Intern("a"), Kind: SymbolImportFunctionAlias})
	if err := table.Validate(); err == nil {
		t.Fatalf("alias without original must fail validation")
	}
}
