package ast

import (
	"questdsl/internal/source"
)

// Nodes is the arena every unit of one analysis run is stored in. Node IDs
// stay unique across units as long as they share the arena.
type Nodes struct {
	Arena *Arena[Node]
}

func NewNodes(capHint uint) *Nodes {
	if capHint == 0 {
		capHint = 1 << 8
	}
	return &Nodes{
		Arena: NewArena[Node](capHint),
	}
}

func (n *Nodes) New(kind Kind, sp source.Span, name string, kids ...NodeID) NodeID {
	return NodeID(n.Arena.Allocate(Node{
		Kind: kind,
		Span: sp,
		Name: name,
		Kids: kids,
	}))
}

func (n *Nodes) Get(id NodeID) *Node {
	if n == nil {
		return nil
	}
	return n.Arena.Get(uint32(id))
}

// Kind returns KindInvalid for unknown ids.
func (n *Nodes) Kind(id NodeID) Kind {
	if node := n.Get(id); node != nil {
		return node.Kind
	}
	return KindInvalid
}

func (n *Nodes) Len() uint32 {
	return n.Arena.Len()
}

// Walk visits id and its descendants in pre-order. Returning false from fn
// skips the children of the current node.
func (n *Nodes) Walk(id NodeID, fn func(id NodeID, node *Node) bool) {
	node := n.Get(id)
	if node == nil {
		return
	}
	if !fn(id, node) {
		return
	}
	for _, kid := range node.Kids {
		n.Walk(kid, fn)
	}
}

// Adopt copies the nodes reachable from u.Root into n and returns the
// rebased unit. Units already stored in n are returned unchanged.
func (n *Nodes) Adopt(u *Unit) *Unit {
	if u == nil || u.Nodes == n {
		return u
	}
	remap := make(map[NodeID]NodeID)
	var copyNode func(id NodeID) NodeID
	copyNode = func(id NodeID) NodeID {
		if !id.IsValid() {
			return NoNodeID
		}
		if mapped, ok := remap[id]; ok {
			return mapped
		}
		src := u.Nodes.Get(id)
		if src == nil {
			return NoNodeID
		}
		kids := make([]NodeID, len(src.Kids))
		for i, kid := range src.Kids {
			kids[i] = copyNode(kid)
		}
		clone := *src
		clone.Kids = kids
		mapped := NodeID(n.Arena.Allocate(clone))
		remap[id] = mapped
		return mapped
	}
	root := copyNode(u.Root)
	return &Unit{Path: u.Path, File: u.File, Root: root, Nodes: n}
}
