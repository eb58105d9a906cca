package ast

import (
	"questdsl/internal/source"
)

type Flags uint8

const (
	// FlagRecovered marks a node the parser synthesised while recovering from
	// a syntax error. Its children may be incomplete.
	FlagRecovered Flags = 1 << iota
)

type LitKind uint8

const (
	LitNone LitKind = iota
	LitInt
	LitFloat
	LitString
	LitBool
)

// Literal carries the payload of literal nodes and the textual payload of a
// few structural ones (operators, import paths, error messages).
type Literal struct {
	Kind  LitKind `msgpack:"k"`
	Int   int64   `msgpack:"i,omitempty"`
	Float float64 `msgpack:"f,omitempty"`
	Str   string  `msgpack:"s,omitempty"`
	Bool  bool    `msgpack:"b,omitempty"`
}

type Node struct {
	Kind  Kind        `msgpack:"kind"`
	Span  source.Span `msgpack:"span"`
	Name  string      `msgpack:"name,omitempty"`
	Kids  []NodeID    `msgpack:"kids,omitempty"`
	Lit   Literal     `msgpack:"lit"`
	Flags Flags       `msgpack:"flags,omitempty"`
}

// Kid returns the i-th child or NoNodeID when there is none.
func (n *Node) Kid(i int) NodeID {
	if n == nil || i < 0 || i >= len(n.Kids) {
		return NoNodeID
	}
	return n.Kids[i]
}

func (n *Node) Recovered() bool {
	return n != nil && n.Flags&FlagRecovered != 0
}
