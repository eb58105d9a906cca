package sema

import (
	"errors"
	"fmt"

	"questdsl/internal/ast"
	"questdsl/internal/diag"
	"questdsl/internal/symbols"
)

// declareImport handles `#import "path":name as alias`. Soft failures are
// reported and skipped; importing an alias is fatal for the unit.
func (p *unitPass) declareImport(id ast.NodeID) error {
	node := p.nodes.Get(id)
	path, name := node.Lit.Str, node.Name
	alias := name
	if an := p.nodes.Get(node.Kid(0)); an != nil && an.Kind == ast.KindIdent && an.Name != "" {
		alias = an.Name
	}
	if name == "" || path == "" {
		p.malformed(id, "malformed import")
		return nil
	}

	switch {
	case path == p.st.unit.Path:
		diag.ReportError(p.a.reporter, diag.ImpSelfImport, node.Span,
			fmt.Sprintf("unit '%s' imports itself", path)).WithNode(id).Emit()
		return nil
	case p.a.active[path]:
		diag.ReportError(p.a.reporter, diag.ImpCycle, node.Span,
			fmt.Sprintf("import cycle through '%s'", path)).WithNode(id).Emit()
		return nil
	}

	st, err := p.loadImport(path)
	if err != nil {
		var fatal *FatalError
		if errors.As(err, &fatal) {
			return err
		}
		diag.ReportError(p.a.reporter, diag.ImpLoadFailed, node.Span,
			fmt.Sprintf("cannot load '%s': %v", path, err)).WithNode(id).Emit()
		return nil
	}

	origID, ok := p.table.LookupIn(st.scope, p.intern(name))
	if !ok {
		diag.ReportError(p.a.reporter, diag.ImpSymbolNotFound, node.Span,
			fmt.Sprintf("'%s' is not declared in '%s'", name, path)).WithNode(id).Emit()
		return nil
	}
	orig := p.table.Symbols.Get(origID)
	var kind symbols.SymbolKind
	switch {
	case orig.Kind.IsAlias():
		diag.ReportError(p.a.reporter, diag.ImpImportedSymbol, node.Span, msgImportOfImport).
			WithNode(id).
			WithNote(orig.Span, "imported here").
			Emit()
		return &FatalError{Unit: p.st.unit.Path, Symbol: name, Span: node.Span, Msg: msgImportOfImport}
	case orig.Kind == symbols.SymbolFunction:
		kind = symbols.SymbolImportFunctionAlias
	case orig.Kind == symbols.SymbolType:
		kind = symbols.SymbolImportTypeAlias
	default:
		diag.ReportError(p.a.reporter, diag.ImpNotImportable, node.Span,
			fmt.Sprintf("%s '%s' cannot be imported", orig.Kind, name)).WithNode(id).Emit()
		return nil
	}

	aliasID, declared := p.declareSym(id, symbols.Symbol{
		Name:     p.intern(alias),
		Kind:     kind,
		Type:     orig.Type,
		Original: origID,
	})
	if declared && node.Kid(0).IsValid() {
		p.table.Bind(node.Kid(0), aliasID)
	}
	return nil
}

// loadImport returns the analysed state of the unit at path, loading and
// analysing it on first use.
func (p *unitPass) loadImport(path string) (*unitState, error) {
	if st, ok := p.a.units[path]; ok {
		return st, nil
	}
	if p.a.opts.Loader == nil {
		return nil, errors.New("no loader configured")
	}
	unit, err := p.a.opts.Loader.Load(path)
	if err != nil {
		return nil, err
	}
	if unit == nil {
		return nil, errors.New("loader returned no unit")
	}
	if unit.Path != path {
		renamed := *unit
		renamed.Path = path
		unit = &renamed
	}
	return p.a.analyzeUnit(p.ctx, unit, true, p.parent)
}
