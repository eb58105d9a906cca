package sema

import (
	"fmt"

	"questdsl/internal/ast"
	"questdsl/internal/diag"
	"questdsl/internal/symbols"
	"questdsl/internal/trace"
	"questdsl/internal/types"
)

// resolve is the reference pass over the unit's top-level declarations.
func (p *unitPass) resolve() {
	span := trace.Begin(trace.FromContext(p.ctx), trace.ScopePass, "sema.resolve", p.parent)
	defer span.End("")

	for _, id := range p.st.unit.TopLevel() {
		node := p.nodes.Get(id)
		switch node.Kind {
		case ast.KindFuncDef:
			p.resolveFunc(id, node)
		case ast.KindObjectDef:
			p.resolveObject(id, node)
		case ast.KindPrototypeDef:
			p.resolvePrototype(id, node)
		case ast.KindItemTypeDef:
			p.resolveItemType(id, node)
		case ast.KindGraphDef:
			p.resolveGraph(node)
		}
	}
}

func (p *unitPass) resolveFunc(id ast.NodeID, node *ast.Node) {
	symID, ok := p.decls[id]
	if !ok {
		return
	}
	scope := p.table.Symbols.Get(symID).Own
	_, body, _ := ast.FuncParts(node)
	p.res.Push(scope)
	if p.nodes.Kind(body) == ast.KindBlock {
		p.stmt(body)
	} else if body.IsValid() {
		p.malformed(body, fmt.Sprintf("malformed body of function '%s'", node.Name))
	}
	p.res.Leave(scope)
}

// memberScopeOf returns the member scope of the type a declaration has.
func (p *unitPass) memberScopeOf(typ types.TypeID) symbols.ScopeID {
	typeSym, ok := p.table.TypeSymbol(typ)
	if !ok {
		return symbols.NoScopeID
	}
	return p.table.Symbols.Get(typeSym).Own
}

func (p *unitPass) resolveObject(id ast.NodeID, node *ast.Node) {
	_, props := ast.ObjectParts(node)
	scope := symbols.NoScopeID
	label := "?"
	if symID, ok := p.decls[id]; ok {
		typ := p.table.Symbols.Get(symID).Type
		scope = p.memberScopeOf(typ)
		label = types.Label(p.types, typ)
	}
	for _, prop := range props {
		p.property(prop, scope, label)
	}
}

func (p *unitPass) resolvePrototype(id ast.NodeID, node *ast.Node) {
	for _, kid := range node.Kids {
		memberID, ok := p.decls[kid]
		if !ok {
			continue
		}
		comp := p.nodes.Get(kid)
		typ := p.table.Symbols.Get(memberID).Type
		scope := p.memberScopeOf(typ)
		for _, prop := range comp.Kids {
			p.property(prop, scope, comp.Name)
		}
	}
}

func (p *unitPass) resolveItemType(id ast.NodeID, node *ast.Node) {
	symID, ok := p.decls[id]
	if !ok {
		return
	}
	members := make([]types.Member, 0, len(node.Kids))
	for _, kid := range node.Kids {
		memberID, declared := p.decls[kid]
		if !declared {
			continue
		}
		prop := p.nodes.Get(kid)
		typ := p.expr(prop.Kid(0))
		p.table.SetType(memberID, typ)
		members = append(members, types.Member{Name: prop.Name, Type: typ})
	}
	p.types.SetMembers(p.table.Symbols.Get(symID).Type, members)
}

// property binds a property definition to the member it sets and resolves
// its value in the current scope.
func (p *unitPass) property(id ast.NodeID, scope symbols.ScopeID, owner string) {
	node := p.nodes.Get(id)
	if node == nil || node.Kind != ast.KindPropertyDef || p.broken(node.Kid(0)) {
		p.malformed(id, fmt.Sprintf("malformed property definition in '%s'", owner))
		return
	}
	if scope.IsValid() {
		if member, ok := p.table.LookupIn(scope, p.intern(node.Name)); ok {
			p.table.Bind(id, member)
		} else {
			diag.ReportError(p.a.reporter, diag.SemaNoSuchMember, node.Span,
				fmt.Sprintf("'%s' has no member '%s'", owner, node.Name)).WithNode(id).Emit()
		}
	}
	p.expr(node.Kid(0))
}

func (p *unitPass) resolveGraph(node *ast.Node) {
	for _, stmt := range node.Kids {
		sn := p.nodes.Get(stmt)
		switch sn.Kind {
		case ast.KindGraphEdge, ast.KindGraphNode:
			chain, _ := ast.EdgeParts(p.nodes, sn)
			for _, part := range chain {
				if p.nodes.Kind(part) == ast.KindGraphIDList {
					for _, ident := range p.nodes.Get(part).Kids {
						p.graphIdent(ident)
					}
					continue
				}
				p.graphIdent(part)
			}
		default:
			p.malformed(stmt, fmt.Sprintf("malformed statement in graph '%s'", node.Name))
		}
	}
}

func (p *unitPass) graphIdent(id ast.NodeID) {
	node := p.nodes.Get(id)
	if node == nil || node.Kind != ast.KindIdent {
		p.malformed(id, "malformed graph node reference")
		return
	}
	symID, ok := p.res.LookupName(node.Name)
	if !ok {
		diag.ReportError(p.a.reporter, diag.GraphUnresolvedTask, node.Span,
			fmt.Sprintf("unresolved task reference '%s'", node.Name)).WithNode(id).Emit()
		p.a.setExprType(id, types.NoTypeID)
		return
	}
	p.table.Bind(id, symID)
	p.a.setExprType(id, p.valueType(symID))
}

// stmt resolves one statement in the current scope.
func (p *unitPass) stmt(id ast.NodeID) {
	node := p.nodes.Get(id)
	if node == nil {
		return
	}
	switch node.Kind {
	case ast.KindBlock:
		scope := p.res.Enter(symbols.ScopeBlock, symbols.NoSymbolID, id, node.Span)
		for _, kid := range node.Kids {
			p.stmt(kid)
		}
		p.res.Leave(scope)
	case ast.KindVarDecl:
		p.varDecl(id, node)
	case ast.KindAssign:
		p.expr(node.Kid(0))
		p.expr(node.Kid(1))
	case ast.KindIf:
		p.expr(node.Kid(0))
		p.stmt(node.Kid(1))
		if node.Kid(2).IsValid() {
			p.stmt(node.Kid(2))
		}
	case ast.KindWhile:
		p.expr(node.Kid(0))
		p.stmt(node.Kid(1))
	case ast.KindForEach, ast.KindCountingFor:
		p.loop(id, node)
	case ast.KindReturn:
		if node.Kid(0).IsValid() {
			p.expr(node.Kid(0))
		}
	case ast.KindError:
		p.malformed(id, "malformed statement")
	default:
		if node.Kind.IsExpr() {
			p.expr(id)
			return
		}
		p.malformed(id, fmt.Sprintf("unexpected %s in statement position", node.Kind))
	}
}

// varDecl declares the variable after its initialiser so `var x = x;`
// refers to an outer x.
func (p *unitPass) varDecl(id ast.NodeID, node *ast.Node) {
	typeNode, init := node.Kid(0), node.Kid(1)
	var initType types.TypeID
	if init.IsValid() {
		initType = p.expr(init)
	}
	typ := initType
	switch {
	case typeNode.IsValid() && p.broken(typeNode):
		p.malformed(typeNode, fmt.Sprintf("incomplete type of variable '%s'", node.Name))
		typ = p.noType()
	case typeNode.IsValid():
		typ = p.typeRef(typeNode)
	case !init.IsValid():
		p.malformed(id, fmt.Sprintf("variable '%s' has neither type nor initialiser", node.Name))
		typ = p.noType()
	}
	p.declareSym(id, symbols.Symbol{
		Name: p.intern(node.Name),
		Kind: symbols.SymbolVariable,
		Type: typ,
	})
}

// loop opens a Block scope holding the loop variables; the body statements
// run in that scope.
func (p *unitPass) loop(id ast.NodeID, node *ast.Node) {
	loopVar, iterable, counter, body := ast.LoopParts(node)
	elem := p.elemType(p.expr(iterable))

	scope := p.res.Enter(symbols.ScopeBlock, symbols.NoSymbolID, id, node.Span)
	p.loopVar(loopVar, elem)
	if counter.IsValid() {
		p.loopVar(counter, p.types.Builtins().Int)
	}
	if bn := p.nodes.Get(body); bn != nil && bn.Kind == ast.KindBlock {
		for _, kid := range bn.Kids {
			p.stmt(kid)
		}
	} else if body.IsValid() {
		p.stmt(body)
	}
	p.res.Leave(scope)
}

func (p *unitPass) loopVar(id ast.NodeID, inferred types.TypeID) {
	node := p.nodes.Get(id)
	if node == nil || node.Kind != ast.KindLoopVar {
		p.malformed(id, "malformed loop variable")
		return
	}
	typ := inferred
	if tn := node.Kid(0); tn.IsValid() {
		if p.broken(tn) {
			p.malformed(tn, fmt.Sprintf("incomplete type of loop variable '%s'", node.Name))
			typ = p.noType()
		} else {
			typ = p.typeRef(tn)
		}
	}
	p.declareSym(id, symbols.Symbol{
		Name: p.intern(node.Name),
		Kind: symbols.SymbolVariable,
		Type: typ,
	})
}

// elemType is the element type of a list or set, the key type of a map and
// no_type for anything else.
func (p *unitPass) elemType(typ types.TypeID) types.TypeID {
	tt, ok := p.types.Lookup(typ)
	if !ok {
		return p.noType()
	}
	switch tt.Kind {
	case types.KindList, types.KindSet:
		return tt.Elem
	case types.KindMap:
		return tt.Key
	}
	return p.noType()
}
