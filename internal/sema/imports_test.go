package sema

import (
	"context"
	"errors"
	"testing"

	"questdsl/internal/ast"
	"questdsl/internal/diag"
	"questdsl/internal/symbols"
)

func TestImportFunctionAlias(t *testing.T) {
	nodes := ast.NewNodes(0)
	lib := ast.NewBuilder(nodes, 0)
	helper := lib.Func("helper", ast.NoNodeID, nil, lib.Block())
	libUnit := lib.Unit("lib.dng", helper)

	b := ast.NewBuilder(nodes, 0)
	call := b.CallName("h")
	unit := b.Unit("main.dng",
		b.Func("f", ast.NoNodeID, nil, b.Block(call)),
		b.Import("lib.dng", "helper", "h"),
	)
	res := analyze(t, nodes, unit, Options{Loader: MapLoader{"lib.dng": libUnit}})
	if res.Failed {
		t.Fatalf("unexpected diagnostics %v", res.Diagnostics.Items())
	}

	alias := mustBound(t, res, call)
	sym := res.Symbol(alias)
	if sym.Kind != symbols.SymbolImportFunctionAlias {
		t.Fatalf("call bound to %s, want import alias", sym.Kind)
	}
	orig := res.Symbol(res.Table.Origin(alias))
	if orig.Decl != helper || orig.Flags&symbols.SymbolFlagImported == 0 {
		t.Fatalf("alias forwards to %+v", orig)
	}
	if orig.Scope == res.FileScope {
		t.Fatalf("original must live in the imported unit's file scope")
	}
	if len(res.Imports) != 1 || res.Imports[0].Path != "lib.dng" {
		t.Fatalf("imports = %v", res.Imports)
	}
}

func TestImportedPrototypeMembersResolveAgainstOriginal(t *testing.T) {
	nodes := ast.NewNodes(0)
	lib := ast.NewBuilder(nodes, 0)
	libUnit := lib.Unit("entities.dng",
		lib.Prototype("my_ent_type",
			lib.Component("draw_component", lib.Property("path", lib.String("monster.png"))),
		),
	)

	b := ast.NewBuilder(nodes, 0)
	access := b.Member(b.Ident("my_ent_type"), "draw_component")
	unit := b.Unit("main.dng",
		b.Import("entities.dng", "my_ent_type", ""),
		b.Func("f", ast.NoNodeID, nil, b.Block(access)),
	)
	res := analyze(t, nodes, unit, Options{Loader: MapLoader{"entities.dng": libUnit}})
	if res.Failed {
		t.Fatalf("unexpected diagnostics %v", res.Diagnostics.Items())
	}

	aliasID := mustLookup(t, res, "my_ent_type")
	if res.Symbol(aliasID).Kind != symbols.SymbolImportTypeAlias {
		t.Fatalf("my_ent_type resolves to %s", res.Symbol(aliasID).Kind)
	}
	origID := res.Table.Origin(aliasID)
	if res.Symbol(origID).Scope == res.FileScope {
		t.Fatalf("original type declared in the importing file scope")
	}
	member := res.Symbol(mustBound(t, res, access))
	if member.Scope != res.Symbol(origID).Own {
		t.Fatalf("member scope %d, want original type scope %d", member.Scope, res.Symbol(origID).Own)
	}
	if res.Symbol(aliasID).Own.IsValid() {
		t.Fatalf("alias must not own a copy of the members")
	}
}

func TestImportOfImportIsFatal(t *testing.T) {
	nodes := ast.NewNodes(0)
	base := ast.NewBuilder(nodes, 0)
	baseUnit := base.Unit("base.dng", base.Func("helper", ast.NoNodeID, nil, base.Block()))
	mid := ast.NewBuilder(nodes, 0)
	midUnit := mid.Unit("mid.dng", mid.Import("base.dng", "helper", ""))

	b := ast.NewBuilder(nodes, 0)
	unit := b.Unit("main.dng", b.Import("mid.dng", "helper", "again"))

	bag := diag.NewBag(16)
	an := NewAnalyzer(Options{
		Env:      testEnv(t, ""),
		Nodes:    nodes,
		Loader:   MapLoader{"base.dng": baseUnit, "mid.dng": midUnit},
		Reporter: &diag.BagReporter{Bag: bag},
	})
	res, err := an.Analyze(context.Background(), unit)
	if res != nil {
		t.Fatalf("fatal import must not produce a result")
	}
	var fatal *FatalError
	if !errors.As(err, &fatal) {
		t.Fatalf("expected *FatalError, got %v", err)
	}
	if fatal.Msg != "cannot import an imported symbol" || fatal.Symbol != "helper" || fatal.Unit != "main.dng" {
		t.Fatalf("unexpected fatal error %+v", fatal)
	}
	if got := bag.WithCode(diag.ImpImportedSymbol); len(got) != 1 || got[0].Message != "cannot import an imported symbol" {
		t.Fatalf("expected one import diagnostic, got %v", bag.Items())
	}
	if fatal.Diagnostics == nil || len(fatal.Diagnostics.WithCode(diag.ImpImportedSymbol)) != 1 || fatal.Files == nil {
		t.Fatalf("fatal error must carry the diagnostics reported so far")
	}
}

func TestSoftImportFailures(t *testing.T) {
	nodes := ast.NewNodes(0)
	lib := ast.NewBuilder(nodes, 0)
	libUnit := lib.Unit("lib.dng",
		lib.Object("single_choice_task", "quiz"),
		lib.Import("main.dng", "f", ""),
	)

	b := ast.NewBuilder(nodes, 0)
	unit := b.Unit("main.dng",
		b.Import("missing.dng", "x", ""),
		b.Import("lib.dng", "nothing", ""),
		b.Import("lib.dng", "quiz", ""),
		b.Import("main.dng", "f", ""),
		b.Func("f", ast.NoNodeID, nil, b.Block()),
	)
	res := analyze(t, nodes, unit, Options{Loader: MapLoader{"lib.dng": libUnit}})

	for _, code := range []diag.Code{diag.ImpLoadFailed, diag.ImpSymbolNotFound, diag.ImpNotImportable, diag.ImpSelfImport, diag.ImpCycle} {
		if len(res.Diagnostics.WithCode(code)) != 1 {
			t.Fatalf("expected one %s diagnostic, got %v", code.ID(), res.Diagnostics.Items())
		}
	}
	if _, ok := res.Lookup("f"); !ok {
		t.Fatalf("siblings of failed imports must still be declared")
	}
}
