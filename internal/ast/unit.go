package ast

import (
	"questdsl/internal/source"
)

// Unit is one compilation unit handed over by the external parser.
type Unit struct {
	Path  string
	File  source.FileID
	Root  NodeID
	Nodes *Nodes
}

func (u *Unit) Node(id NodeID) *Node {
	if u == nil {
		return nil
	}
	return u.Nodes.Get(id)
}

// TopLevel returns the declarations of the unit's Program node.
func (u *Unit) TopLevel() []NodeID {
	root := u.Node(u.Root)
	if root == nil || root.Kind != KindProgram {
		return nil
	}
	return root.Kids
}
