package ast

import (
	"questdsl/internal/source"
)

// Builder constructs units node by node. It backs the parser adapter and
// the tests. Nodes receive consecutive one-byte spans unless At is used.
type Builder struct {
	Nodes *Nodes
	file  source.FileID
	pos   uint32
	next  *source.Span
}

func NewBuilder(nodes *Nodes, file source.FileID) *Builder {
	if nodes == nil {
		nodes = NewNodes(0)
	}
	return &Builder{Nodes: nodes, file: file}
}

// At sets the span of the next node created.
func (b *Builder) At(sp source.Span) *Builder {
	b.next = &sp
	return b
}

func (b *Builder) span() source.Span {
	if b.next != nil {
		sp := *b.next
		b.next = nil
		return sp
	}
	sp := source.Span{File: b.file, Start: b.pos, End: b.pos + 1}
	b.pos++
	return sp
}

func (b *Builder) node(kind Kind, name string, kids ...NodeID) NodeID {
	return b.Nodes.New(kind, b.span(), name, kids...)
}

func (b *Builder) lit(kind Kind, lit Literal, kids ...NodeID) NodeID {
	id := b.node(kind, "", kids...)
	b.Nodes.Get(id).Lit = lit
	return id
}

// Unit wraps the declarations into a Program node.
func (b *Builder) Unit(path string, decls ...NodeID) *Unit {
	root := b.node(KindProgram, "", decls...)
	return &Unit{Path: path, File: b.file, Root: root, Nodes: b.Nodes}
}

func (b *Builder) Error(msg string) NodeID {
	id := b.lit(KindError, Literal{Kind: LitString, Str: msg})
	b.Nodes.Get(id).Flags |= FlagRecovered
	return id
}

func (b *Builder) Func(name string, ret NodeID, params []NodeID, body NodeID) NodeID {
	kids := make([]NodeID, 0, len(params)+2)
	kids = append(kids, ret, body)
	kids = append(kids, params...)
	return b.node(KindFuncDef, name, kids...)
}

func (b *Builder) Param(name string, typ NodeID) NodeID {
	return b.node(KindParamDef, name, typ)
}

func (b *Builder) Object(typeName, name string, props ...NodeID) NodeID {
	kids := append([]NodeID{b.Ident(typeName)}, props...)
	return b.node(KindObjectDef, name, kids...)
}

func (b *Builder) Property(name string, value NodeID) NodeID {
	return b.node(KindPropertyDef, name, value)
}

func (b *Builder) Prototype(name string, components ...NodeID) NodeID {
	return b.node(KindPrototypeDef, name, components...)
}

func (b *Builder) Component(typeName string, props ...NodeID) NodeID {
	return b.node(KindComponentDef, typeName, props...)
}

func (b *Builder) ItemType(name string, props ...NodeID) NodeID {
	return b.node(KindItemTypeDef, name, props...)
}

func (b *Builder) Graph(name string, stmts ...NodeID) NodeID {
	return b.node(KindGraphDef, name, stmts...)
}

// Edge builds a chain statement out of id lists followed by attributes.
func (b *Builder) Edge(parts ...NodeID) NodeID {
	return b.node(KindGraphEdge, "", parts...)
}

// Chain is a shortcut for an edge chain of single names: Chain("a", "b")
// stands for `a -> b`.
func (b *Builder) Chain(names []string, attrs ...NodeID) NodeID {
	parts := make([]NodeID, 0, len(names)+len(attrs))
	for _, name := range names {
		parts = append(parts, b.IDList(name))
	}
	parts = append(parts, attrs...)
	return b.Edge(parts...)
}

func (b *Builder) GraphNode(name string, attrs ...NodeID) NodeID {
	kids := append([]NodeID{b.Ident(name)}, attrs...)
	return b.node(KindGraphNode, "", kids...)
}

func (b *Builder) IDList(names ...string) NodeID {
	kids := make([]NodeID, 0, len(names))
	for _, name := range names {
		kids = append(kids, b.Ident(name))
	}
	return b.node(KindGraphIDList, "", kids...)
}

func (b *Builder) Attr(key, value string) NodeID {
	return b.node(KindEdgeAttr, key, b.Ident(value))
}

// Import builds `#import "path":name` or `#import "path":name as alias`
// when alias is non-empty.
func (b *Builder) Import(path, name, alias string) NodeID {
	aliasID := NoNodeID
	if alias != "" {
		aliasID = b.Ident(alias)
	}
	id := b.lit(KindImport, Literal{Kind: LitString, Str: path}, aliasID)
	b.Nodes.Get(id).Name = name
	return id
}

func (b *Builder) Block(stmts ...NodeID) NodeID {
	return b.node(KindBlock, "", stmts...)
}

func (b *Builder) Var(name string, typ, init NodeID) NodeID {
	return b.node(KindVarDecl, name, typ, init)
}

func (b *Builder) Assign(target, value NodeID) NodeID {
	return b.node(KindAssign, "", target, value)
}

func (b *Builder) If(cond, then, els NodeID) NodeID {
	return b.node(KindIf, "", cond, then, els)
}

func (b *Builder) While(cond, body NodeID) NodeID {
	return b.node(KindWhile, "", cond, body)
}

func (b *Builder) ForEach(loopVar, iterable, body NodeID) NodeID {
	return b.node(KindForEach, "", loopVar, iterable, body)
}

func (b *Builder) CountingFor(loopVar, iterable, counter, body NodeID) NodeID {
	return b.node(KindCountingFor, "", loopVar, iterable, counter, body)
}

func (b *Builder) LoopVar(name string, typ NodeID) NodeID {
	return b.node(KindLoopVar, name, typ)
}

func (b *Builder) Return(expr NodeID) NodeID {
	if !expr.IsValid() {
		return b.node(KindReturn, "")
	}
	return b.node(KindReturn, "", expr)
}

func (b *Builder) Call(callee NodeID, args ...NodeID) NodeID {
	kids := append([]NodeID{callee}, args...)
	return b.node(KindCall, "", kids...)
}

// CallName is Call(Ident(name), args...).
func (b *Builder) CallName(name string, args ...NodeID) NodeID {
	return b.Call(b.Ident(name), args...)
}

func (b *Builder) Member(receiver NodeID, name string) NodeID {
	return b.node(KindMember, name, receiver)
}

func (b *Builder) Ident(name string) NodeID {
	return b.node(KindIdent, name)
}

func (b *Builder) Binary(op string, lhs, rhs NodeID) NodeID {
	return b.lit(KindBinary, Literal{Kind: LitString, Str: op}, lhs, rhs)
}

func (b *Builder) Unary(op string, operand NodeID) NodeID {
	return b.lit(KindUnary, Literal{Kind: LitString, Str: op}, operand)
}

func (b *Builder) Int(v int64) NodeID {
	return b.lit(KindIntLit, Literal{Kind: LitInt, Int: v})
}

func (b *Builder) Float(v float64) NodeID {
	return b.lit(KindFloatLit, Literal{Kind: LitFloat, Float: v})
}

func (b *Builder) String(v string) NodeID {
	return b.lit(KindStringLit, Literal{Kind: LitString, Str: v})
}

func (b *Builder) Bool(v bool) NodeID {
	return b.lit(KindBoolLit, Literal{Kind: LitBool, Bool: v})
}

func (b *Builder) List(elems ...NodeID) NodeID {
	return b.node(KindListLit, "", elems...)
}

func (b *Builder) Set(elems ...NodeID) NodeID {
	return b.node(KindSetLit, "", elems...)
}

func (b *Builder) Type(name string) NodeID {
	return b.node(KindTypeRef, name)
}

func (b *Builder) ListType(elem NodeID) NodeID {
	return b.node(KindListTypeRef, "", elem)
}

func (b *Builder) SetType(elem NodeID) NodeID {
	return b.node(KindSetTypeRef, "", elem)
}

func (b *Builder) MapType(key, value NodeID) NodeID {
	return b.node(KindMapTypeRef, "", key, value)
}
