package symbols

import (
	"questdsl/internal/ast"
	"questdsl/internal/source"
)

// ScopeKind is the lifecycle tag of a scope.
type ScopeKind uint8

const (
	ScopeInvalid  ScopeKind = iota
	ScopeGlobal             // natives and built-in types, single root
	ScopeFile               // top-level declarations of one unit
	ScopeFunction           // parameters of a function
	ScopeBlock              // block, branch or loop body
	ScopeType               // members of an aggregate, enum or prototype
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeGlobal:
		return "global"
	case ScopeFile:
		return "file"
	case ScopeFunction:
		return "function"
	case ScopeBlock:
		return "block"
	case ScopeType:
		return "type"
	default:
		return "invalid"
	}
}

// Scope is a lexical namespace. Parent is an index, never an owning
// reference; Owner is the scoped symbol (function, type) the scope belongs
// to, if any.
type Scope struct {
	Kind      ScopeKind
	Parent    ScopeID
	Owner     SymbolID
	Node      ast.NodeID
	Span      source.Span
	NameIndex map[source.StringID]SymbolID
	Symbols   []SymbolID
	Children  []ScopeID
}
