package sema

import (
	"fmt"
	"strings"

	"questdsl/internal/ast"
	"questdsl/internal/diag"
	"questdsl/internal/symbols"
	"questdsl/internal/types"
)

// expr resolves an expression and records its static type.
func (p *unitPass) expr(id ast.NodeID) types.TypeID {
	node := p.nodes.Get(id)
	if node == nil {
		return p.noType()
	}
	bt := p.types.Builtins()
	switch node.Kind {
	case ast.KindIdent:
		return p.a.setExprType(id, p.ident(id, node))
	case ast.KindMember:
		return p.a.setExprType(id, p.member(id, node))
	case ast.KindCall:
		return p.a.setExprType(id, p.call(id, node))
	case ast.KindBinary:
		lhs := p.expr(node.Kid(0))
		p.expr(node.Kid(1))
		if isPredicate(node.Lit.Str) {
			return p.a.setExprType(id, bt.Bool)
		}
		return p.a.setExprType(id, lhs)
	case ast.KindUnary:
		operand := p.expr(node.Kid(0))
		if node.Lit.Str == "!" || node.Lit.Str == "not" {
			return p.a.setExprType(id, bt.Bool)
		}
		return p.a.setExprType(id, operand)
	case ast.KindIntLit:
		return p.a.setExprType(id, bt.Int)
	case ast.KindFloatLit:
		return p.a.setExprType(id, bt.Float)
	case ast.KindStringLit:
		return p.a.setExprType(id, bt.String)
	case ast.KindBoolLit:
		return p.a.setExprType(id, bt.Bool)
	case ast.KindListLit, ast.KindSetLit:
		elem := types.NoTypeID
		for _, kid := range node.Kids {
			if t := p.expr(kid); elem == types.NoTypeID {
				elem = t
			}
		}
		if elem == types.NoTypeID {
			elem = bt.NoType
		}
		if node.Kind == ast.KindListLit {
			return p.a.setExprType(id, p.types.List(elem))
		}
		return p.a.setExprType(id, p.types.Set(elem))
	case ast.KindError:
		p.malformed(id, "malformed expression")
	default:
		p.malformed(id, fmt.Sprintf("unexpected %s in expression position", node.Kind))
	}
	return p.a.setExprType(id, bt.NoType)
}

func isPredicate(op string) bool {
	switch op {
	case "==", "!=", "<", "<=", ">", ">=", "and", "or", "&&", "||":
		return true
	}
	return false
}

// valueType is the static type an expression naming id has.
func (p *unitPass) valueType(id symbols.SymbolID) types.TypeID {
	sym := p.table.Symbols.Get(p.table.Origin(id))
	if sym == nil || sym.Type == types.NoTypeID {
		return p.noType()
	}
	return sym.Type
}

func (p *unitPass) ident(id ast.NodeID, node *ast.Node) types.TypeID {
	symID, ok := p.res.LookupName(node.Name)
	if !ok {
		diag.ReportError(p.a.reporter, diag.SemaUnresolvedSymbol, node.Span,
			fmt.Sprintf("unresolved symbol '%s'", node.Name)).WithNode(id).Emit()
		return p.noType()
	}
	p.table.Bind(id, symID)
	return p.valueType(symID)
}

// member resolves `receiver.name`. Only enum types hand out their
// variants; member access on a variant or an enum-typed value is an error.
func (p *unitPass) member(id ast.NodeID, node *ast.Node) types.TypeID {
	recv := node.Kid(0)
	recvType := p.expr(recv)
	if reportEnumAccess(p.a.reporter, p.table, p.types, p.nodes, id) {
		return p.noType()
	}
	name := p.intern(node.Name)

	var (
		memberID symbols.SymbolID
		found    bool
	)
	// a call is bound to its callee; its members are those of the result
	if recvSym, ok := p.table.SymbolFor(recv); ok && p.nodes.Kind(recv) != ast.KindCall {
		memberID, found = p.table.ResolveMember(recvSym, name)
	} else if scope := p.memberScopeOf(recvType); scope.IsValid() {
		memberID, found = p.table.LookupIn(scope, name)
	}
	if !found {
		if !p.types.IsNoType(recvType) {
			diag.ReportError(p.a.reporter, diag.SemaNoSuchMember, node.Span,
				fmt.Sprintf("'%s' has no member '%s'", exprText(p.nodes, recv), node.Name)).WithNode(id).Emit()
		}
		return p.noType()
	}
	p.table.Bind(id, memberID)
	return p.valueType(memberID)
}

// reportEnumAccess reports a member access whose receiver is an enum
// variant or a value of enum type, including the result of a call. It
// returns true when it did.
func reportEnumAccess(r diag.Reporter, table *symbols.Table, in *types.Interner, nodes *ast.Nodes, id ast.NodeID) bool {
	node := nodes.Get(id)
	if node == nil || node.Kind != ast.KindMember {
		return false
	}
	recv := node.Kid(0)
	recvSym, ok := table.SymbolFor(recv)
	if !ok {
		return false
	}
	sym := table.Symbols.Get(table.Origin(recvSym))
	if sym == nil {
		return false
	}
	var illegal bool
	switch {
	case nodes.Kind(recv) == ast.KindCall:
		if info, isFn := in.FnInfo(sym.Type); isFn && sym.Kind == symbols.SymbolFunction {
			illegal = in.IsEnum(info.Result)
		}
	case sym.Kind == symbols.SymbolEnumVariant:
		illegal = true
	default:
		illegal = sym.Kind != symbols.SymbolType && in.IsEnum(sym.Type)
	}
	if !illegal {
		return false
	}
	diag.ReportError(r, diag.SemaIllegalMemberAccess, nodes.Get(recv).Span,
		"member access on enum value is not allowed: "+exprText(nodes, recv)).WithNode(id).Emit()
	return true
}

// exprText renders identifier and member chains for diagnostics.
func exprText(nodes *ast.Nodes, id ast.NodeID) string {
	node := nodes.Get(id)
	if node == nil {
		return "?"
	}
	switch node.Kind {
	case ast.KindIdent:
		return node.Name
	case ast.KindMember:
		return exprText(nodes, node.Kid(0)) + "." + node.Name
	case ast.KindCall:
		callee, args := ast.CallParts(node)
		parts := make([]string, len(args))
		for i, arg := range args {
			parts[i] = exprText(nodes, arg)
		}
		return exprText(nodes, callee) + "(" + strings.Join(parts, ", ") + ")"
	}
	return node.Kind.String()
}

// call binds the callee and the call node to the function called. Adapted
// aggregate types may be called as constructors.
func (p *unitPass) call(id ast.NodeID, node *ast.Node) types.TypeID {
	callee, args := ast.CallParts(node)
	for _, arg := range args {
		p.expr(arg)
	}
	calleeType := p.expr(callee)
	symID, ok := p.table.SymbolFor(callee)
	if !ok {
		// already reported while resolving the callee
		return p.noType()
	}
	sym := p.table.Symbols.Get(p.table.Origin(symID))
	switch {
	case sym.Kind == symbols.SymbolFunction:
		p.table.Bind(id, symID)
		if info, isFn := p.types.FnInfo(sym.Type); isFn && info.Result != types.NoTypeID {
			return info.Result
		}
		return p.noType()
	case sym.Kind == symbols.SymbolType && sym.Sub == symbols.TypeSubAggregateAdapted:
		p.table.Bind(id, symID)
		return sym.Type
	}
	cn := p.nodes.Get(callee)
	diag.ReportError(p.a.reporter, diag.SemaNotCallable, cn.Span,
		fmt.Sprintf("'%s' (%s) is not callable", exprText(p.nodes, callee), types.Label(p.types, calleeType))).WithNode(id).Emit()
	return p.noType()
}

// typeRef resolves a type reference and binds named references to their
// type symbols.
func (p *unitPass) typeRef(id ast.NodeID) types.TypeID {
	node := p.nodes.Get(id)
	if node == nil {
		return p.noType()
	}
	switch node.Kind {
	case ast.KindTypeRef:
		symID, ok := p.res.LookupName(node.Name)
		if !ok {
			diag.ReportError(p.a.reporter, diag.SemaUnknownType, node.Span,
				fmt.Sprintf("unknown type '%s'", node.Name)).WithNode(id).Emit()
			return p.noType()
		}
		if !p.isTypeSymbol(symID) {
			diag.ReportError(p.a.reporter, diag.SemaNotAType, node.Span,
				fmt.Sprintf("'%s' is a %s, not a type", node.Name, p.table.Symbols.Get(symID).Kind)).WithNode(id).Emit()
			return p.noType()
		}
		p.table.Bind(id, symID)
		return p.valueType(symID)
	case ast.KindListTypeRef:
		return p.types.List(p.typeRef(node.Kid(0)))
	case ast.KindSetTypeRef:
		return p.types.Set(p.typeRef(node.Kid(0)))
	case ast.KindMapTypeRef:
		return p.types.Map(p.typeRef(node.Kid(0)), p.typeRef(node.Kid(1)))
	case ast.KindError:
		p.malformed(id, "malformed type reference")
	default:
		p.malformed(id, fmt.Sprintf("unexpected %s in type position", node.Kind))
	}
	return p.noType()
}
