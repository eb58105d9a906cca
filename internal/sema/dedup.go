package sema

import (
	"questdsl/internal/symbols"
	"questdsl/internal/types"
)

// dedupTypes folds structurally equal types, rewrites every reference the
// run holds and declares one Global FunctionType symbol per distinct
// function signature in use, named by its label.
func (a *Analyzer) dedupTypes() {
	remap := a.types.Dedup()
	a.table.RemapTypes(remap)
	for node, typ := range a.exprTypes {
		if to, ok := remap[typ]; ok {
			a.exprTypes[node] = to
		}
	}

	seen := make(map[types.TypeID]bool)
	for _, sym := range a.table.Symbols.Data() {
		if !a.types.IsFn(sym.Type) || seen[sym.Type] {
			continue
		}
		seen[sym.Type] = true
		a.declareFunctionType(sym.Type)
	}
}

func (a *Analyzer) declareFunctionType(fn types.TypeID) {
	if _, ok := a.table.TypeSymbol(fn); ok {
		return
	}
	name := a.table.Strings.Intern(types.Label(a.types, fn))
	if _, taken := a.table.LookupIn(a.table.Global, name); taken {
		return
	}
	id := a.table.Insert(a.table.Global, symbols.Symbol{
		Name:  name,
		Kind:  symbols.SymbolType,
		Sub:   symbols.TypeSubFunctionType,
		Type:  fn,
		Flags: symbols.SymbolFlagBuiltin,
	})
	a.table.RegisterTypeSymbol(fn, id)
	scope := a.table.NewScope(symbols.ScopeType, a.table.Global, id, 0, a.table.Symbols.Get(id).Span)
	a.table.SetOwnScope(id, scope)
}
