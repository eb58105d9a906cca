package sema

import (
	"context"
	"fmt"

	"questdsl/internal/ast"
	"questdsl/internal/diag"
	"questdsl/internal/source"
	"questdsl/internal/symbols"
	"questdsl/internal/trace"
	"questdsl/internal/typebuild"
	"questdsl/internal/types"
)

// unitPass carries the state shared by the two passes over one unit.
type unitPass struct {
	ctx    context.Context
	a      *Analyzer
	st     *unitState
	nodes  *ast.Nodes
	table  *symbols.Table
	types  *types.Interner
	res    *symbols.Resolver
	parent uint64

	decls map[ast.NodeID]symbols.SymbolID
}

func newUnitPass(ctx context.Context, a *Analyzer, st *unitState, parent uint64) *unitPass {
	return &unitPass{
		ctx:    ctx,
		a:      a,
		st:     st,
		nodes:  a.nodes,
		table:  a.table,
		types:  a.types,
		res:    symbols.NewResolver(a.table, st.scope, symbols.ResolverOptions{Reporter: a.reporter}),
		parent: parent,
		decls:  make(map[ast.NodeID]symbols.SymbolID),
	}
}

func (p *unitPass) flags() symbols.SymbolFlags {
	if p.st.imported {
		return symbols.SymbolFlagImported
	}
	return 0
}

func (p *unitPass) noType() types.TypeID { return p.types.Builtins().NoType }

func (p *unitPass) intern(name string) source.StringID { return p.table.Strings.Intern(name) }

// declare registers every top-level declaration of the unit. Imports go
// first, then user types, then the rest, so object definitions can see the
// types they instantiate regardless of textual order.
func (p *unitPass) declare() error {
	span := trace.Begin(trace.FromContext(p.ctx), trace.ScopePass, "sema.declare", p.parent)
	defer span.End("")

	top := p.st.unit.TopLevel()
	for _, id := range top {
		if p.nodes.Kind(id) != ast.KindImport {
			continue
		}
		if err := p.declareImport(id); err != nil {
			return err
		}
	}
	for _, id := range top {
		switch p.nodes.Kind(id) {
		case ast.KindPrototypeDef:
			p.declarePrototype(id)
		case ast.KindItemTypeDef:
			p.declareItemType(id)
		}
	}
	for _, id := range top {
		node := p.nodes.Get(id)
		switch node.Kind {
		case ast.KindFuncDef:
			p.declareFunc(id, node)
		case ast.KindObjectDef:
			p.declareObject(id, node)
		case ast.KindGraphDef:
			p.declareGraph(id, node)
		case ast.KindError:
			p.malformed(id, "malformed top-level declaration")
		}
	}
	return nil
}

func (p *unitPass) malformed(id ast.NodeID, what string) {
	node := p.nodes.Get(id)
	if node == nil {
		return
	}
	b := diag.ReportError(p.a.reporter, diag.SemaMalformedDecl, node.Span, what).WithNode(id)
	if node.Kind == ast.KindError && node.Lit.Str != "" {
		b.WithNote(node.Span, node.Lit.Str)
	}
	b.Emit()
}

// broken reports whether id is missing or a parser error placeholder.
func (p *unitPass) broken(id ast.NodeID) bool {
	node := p.nodes.Get(id)
	return node == nil || node.Kind == ast.KindError
}

func (p *unitPass) declareSym(id ast.NodeID, sym symbols.Symbol) (symbols.SymbolID, bool) {
	node := p.nodes.Get(id)
	sym.Decl = id
	sym.Span = node.Span
	sym.Flags |= p.flags()
	symID, ok := p.res.Declare(sym)
	if ok {
		p.decls[id] = symID
	}
	return symID, ok
}

// declareTypeScope attaches a fresh Type scope to a type symbol.
func (p *unitPass) declareTypeScope(symID symbols.SymbolID, id ast.NodeID) symbols.ScopeID {
	scope := p.table.NewScope(symbols.ScopeType, p.st.scope, symID, id, p.nodes.Get(id).Span)
	p.table.SetOwnScope(symID, scope)
	return scope
}

func (p *unitPass) declarePrototype(id ast.NodeID) {
	node := p.nodes.Get(id)
	typ := p.types.NewAggregate(node.Name, nil)
	symID, ok := p.declareSym(id, symbols.Symbol{
		Name: p.intern(node.Name),
		Kind: symbols.SymbolType,
		Sub:  symbols.TypeSubAggregate,
		Type: typ,
	})
	if !ok {
		return
	}
	p.table.RegisterTypeSymbol(typ, symID)
	scope := p.declareTypeScope(symID, id)

	members := make([]types.Member, 0, len(node.Kids))
	for _, kid := range node.Kids {
		comp := p.nodes.Get(kid)
		if comp == nil || comp.Kind != ast.KindComponentDef {
			p.malformed(kid, fmt.Sprintf("malformed component in entity type '%s'", node.Name))
			continue
		}
		compType := p.noType()
		if typeSym, found := p.res.LookupName(comp.Name); found && p.isTypeSymbol(typeSym) {
			compType = p.table.Symbols.Get(p.table.Origin(typeSym)).Type
		} else {
			diag.ReportError(p.a.reporter, diag.SemaUnknownType, comp.Span,
				fmt.Sprintf("unknown component type '%s'", comp.Name)).WithNode(kid).Emit()
		}
		memberID, declared := p.res.DeclareIn(scope, symbols.Symbol{
			Name:  p.intern(comp.Name),
			Kind:  symbols.SymbolVariable,
			Type:  compType,
			Decl:  kid,
			Span:  comp.Span,
			Flags: p.flags(),
		})
		if declared {
			p.decls[kid] = memberID
			members = append(members, types.Member{Name: comp.Name, Type: compType})
		}
	}
	p.types.SetMembers(typ, members)
}

// declareItemType declares the item type and one member per well-formed
// property; member types follow the property values in the reference pass.
func (p *unitPass) declareItemType(id ast.NodeID) {
	node := p.nodes.Get(id)
	typ := p.types.NewAggregate(node.Name, nil)
	symID, ok := p.declareSym(id, symbols.Symbol{
		Name: p.intern(node.Name),
		Kind: symbols.SymbolType,
		Sub:  symbols.TypeSubAggregate,
		Type: typ,
	})
	if !ok {
		return
	}
	p.table.RegisterTypeSymbol(typ, symID)
	scope := p.declareTypeScope(symID, id)
	for _, kid := range node.Kids {
		prop := p.nodes.Get(kid)
		if prop == nil || prop.Kind != ast.KindPropertyDef || p.broken(prop.Kid(0)) {
			p.malformed(kid, fmt.Sprintf("malformed property in item type '%s'", node.Name))
			continue
		}
		memberID, declared := p.res.DeclareIn(scope, symbols.Symbol{
			Name:  p.intern(prop.Name),
			Kind:  symbols.SymbolVariable,
			Decl:  kid,
			Span:  prop.Span,
			Flags: p.flags(),
		})
		if declared {
			p.decls[kid] = memberID
		}
	}
}

func (p *unitPass) declareFunc(id ast.NodeID, node *ast.Node) {
	ret, _, params := ast.FuncParts(node)
	symID, ok := p.declareSym(id, symbols.Symbol{
		Name: p.intern(node.Name),
		Kind: symbols.SymbolFunction,
	})
	if !ok {
		return
	}
	scope := p.table.NewScope(symbols.ScopeFunction, p.st.scope, symID, id, node.Span)
	p.table.SetOwnScope(symID, scope)

	paramTypes := make([]types.TypeID, 0, len(params))
	for _, param := range params {
		pn := p.nodes.Get(param)
		if pn == nil || pn.Kind != ast.KindParamDef || p.broken(pn.Kid(0)) {
			p.malformed(param, fmt.Sprintf("malformed parameter of function '%s'", node.Name))
			continue
		}
		pt := p.typeRef(pn.Kid(0))
		paramID, declared := p.res.DeclareIn(scope, symbols.Symbol{
			Name:  p.intern(pn.Name),
			Kind:  symbols.SymbolVariable,
			Type:  pt,
			Decl:  param,
			Span:  pn.Span,
			Flags: p.flags(),
		})
		if declared {
			p.decls[param] = paramID
		}
		paramTypes = append(paramTypes, pt)
	}

	result := types.NoTypeID
	if ret.IsValid() {
		if p.broken(ret) {
			p.malformed(ret, fmt.Sprintf("malformed return type of function '%s'", node.Name))
			result = p.noType()
		} else {
			result = p.typeRef(ret)
		}
	}
	p.table.SetType(symID, p.types.Fn(paramTypes, result))
}

func (p *unitPass) declareObject(id ast.NodeID, node *ast.Node) {
	typeNode, _ := ast.ObjectParts(node)
	typ := p.noType()
	kind := symbols.SymbolVariable
	if tn := p.nodes.Get(typeNode); tn != nil && tn.Kind == ast.KindIdent {
		if typeSym, found := p.res.LookupName(tn.Name); found && p.isTypeSymbol(typeSym) {
			p.table.Bind(typeNode, typeSym)
			typ = p.table.Symbols.Get(p.table.Origin(typeSym)).Type
			if typebuild.Task(p.types, typ) {
				kind = symbols.SymbolTask
			}
		} else {
			diag.ReportError(p.a.reporter, diag.SemaUnknownType, tn.Span,
				fmt.Sprintf("unknown type '%s' of object '%s'", tn.Name, node.Name)).WithNode(typeNode).Emit()
		}
	} else {
		p.malformed(id, fmt.Sprintf("object '%s' has no type", node.Name))
	}
	p.declareSym(id, symbols.Symbol{
		Name: p.intern(node.Name),
		Kind: kind,
		Type: typ,
	})
}

func (p *unitPass) declareGraph(id ast.NodeID, node *ast.Node) {
	p.declareSym(id, symbols.Symbol{
		Name: p.intern(node.Name),
		Kind: symbols.SymbolVariable,
		Type: p.types.Builtins().Graph,
	})
}

// isTypeSymbol reports whether id, after following aliases, names a type.
func (p *unitPass) isTypeSymbol(id symbols.SymbolID) bool {
	sym := p.table.Symbols.Get(p.table.Origin(id))
	return sym != nil && sym.Kind == symbols.SymbolType
}
