package sema

import (
	"context"

	"questdsl/internal/ast"
	"questdsl/internal/diag"
	"questdsl/internal/source"
	"questdsl/internal/symbols"
	"questdsl/internal/types"
)

// Result is the frozen outcome of one run. A Result with only soft errors
// is still usable: failed references stay unbound and are typed no_type.
type Result struct {
	Table       *symbols.Table
	Types       *types.Interner
	Nodes       *ast.Nodes
	Files       *source.FileSet
	Unit        *ast.Unit
	FileScope   symbols.ScopeID
	ExprTypes   map[ast.NodeID]types.TypeID
	Diagnostics *diag.Bag
	// Failed is set when any error was reported, including validation
	// failures such as illegal enum member access.
	Failed bool
	// Imports lists the imported units in the order they finished analysis.
	Imports []*ast.Unit
}

func (r *Result) TypeOf(id ast.NodeID) types.TypeID {
	return r.ExprTypes[id]
}

func (r *Result) SymbolOf(id ast.NodeID) (symbols.SymbolID, bool) {
	return r.Table.SymbolFor(id)
}

// Lookup resolves name from the unit's file scope outward.
func (r *Result) Lookup(name string) (symbols.SymbolID, bool) {
	id, ok := r.Table.Strings.Find(name)
	if !ok {
		return symbols.NoSymbolID, false
	}
	return r.Table.Resolve(r.FileScope, id)
}

// Symbol is a shorthand for Table.Symbols.Get.
func (r *Result) Symbol(id symbols.SymbolID) *symbols.Symbol {
	return r.Table.Symbols.Get(id)
}

// Functions returns the user functions declared in the unit, in
// declaration order.
func (r *Result) Functions() []symbols.SymbolID {
	return r.declared(func(sym *symbols.Symbol) bool {
		return sym.Kind == symbols.SymbolFunction
	})
}

// Tasks returns the task definitions of the unit in declaration order.
func (r *Result) Tasks() []symbols.SymbolID {
	return r.declared(func(sym *symbols.Symbol) bool {
		return sym.Kind == symbols.SymbolTask
	})
}

func (r *Result) declared(keep func(*symbols.Symbol) bool) []symbols.SymbolID {
	scope := r.Table.Scopes.Get(r.FileScope)
	if scope == nil {
		return nil
	}
	var out []symbols.SymbolID
	for _, id := range scope.Symbols {
		if sym := r.Table.Symbols.Get(id); sym != nil && keep(sym) {
			out = append(out, id)
		}
	}
	return out
}

// Graphs returns the graph definitions of the unit.
func (r *Result) Graphs() []ast.NodeID {
	var out []ast.NodeID
	for _, id := range r.Unit.TopLevel() {
		if r.Nodes.Kind(id) == ast.KindGraphDef {
			out = append(out, id)
		}
	}
	return out
}

// Node returns the node with the given id from the shared arena.
func (r *Result) Node(id ast.NodeID) *ast.Node {
	return r.Nodes.Get(id)
}

// Analyze is a convenience wrapper running a fresh Analyzer over unit.
func Analyze(ctx context.Context, unit *ast.Unit, opts Options) (*Result, error) {
	return NewAnalyzer(opts).Analyze(ctx, unit)
}
