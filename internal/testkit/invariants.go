// Package testkit holds invariant checks shared by the package tests.
package testkit

import (
	"fmt"

	"github.com/hashicorp/go-multierror"

	"questdsl/internal/ast"
	"questdsl/internal/symbols"
)

// CheckTable runs the table's structural validation and additionally
// requires every scope but Global to have a parent created before it.
func CheckTable(t *symbols.Table) error {
	if t == nil {
		return fmt.Errorf("nil table")
	}
	var result *multierror.Error
	if err := t.Validate(); err != nil {
		result = multierror.Append(result, err)
	}
	for i, scope := range t.Scopes.Data() {
		id := symbols.ScopeID(i + 1)
		if id == t.Global {
			continue
		}
		if scope.Parent >= id {
			result = multierror.Append(result, fmt.Errorf("scope %d has parent %d created after it", id, scope.Parent))
		}
	}
	return result.ErrorOrNil()
}

// CheckBindings walks the tree under root and requires that a bound
// Ident or Member names the symbol it is bound to. Aliases may carry their
// own name or the name of their original.
func CheckBindings(t *symbols.Table, nodes *ast.Nodes, root ast.NodeID) error {
	var result *multierror.Error
	nodes.Walk(root, func(id ast.NodeID, n *ast.Node) bool {
		if n.Kind != ast.KindIdent && n.Kind != ast.KindMember {
			return true
		}
		symID, ok := t.SymbolFor(id)
		if !ok {
			return true
		}
		if t.Symbols.Get(symID) == nil {
			result = multierror.Append(result, fmt.Errorf("node %d bound to missing symbol %d", id, symID))
			return true
		}
		if name := t.Name(symID); name != n.Name && t.Name(t.Origin(symID)) != n.Name {
			result = multierror.Append(result, fmt.Errorf("%s %q (node %d) bound to symbol %d named %q", n.Kind, n.Name, id, symID, name))
		}
		return true
	})
	return result.ErrorOrNil()
}

// Incidence is the part of a graph edge the index check looks at.
type Incidence struct {
	Start, End           int
	IdxOnStart, IdxOnEnd int
}

// CheckIncidence requires that the edges leaving each node carry start
// indices 0, 1, 2, ... in creation order, and likewise for the end indices
// of the edges arriving at it. edges must be in creation order.
func CheckIncidence(edges []Incidence) error {
	var result *multierror.Error
	out := make(map[int]int)
	in := make(map[int]int)
	for i, e := range edges {
		if e.IdxOnStart != out[e.Start] {
			result = multierror.Append(result, fmt.Errorf("edge %d: start index %d, want %d", i, e.IdxOnStart, out[e.Start]))
		}
		if e.IdxOnEnd != in[e.End] {
			result = multierror.Append(result, fmt.Errorf("edge %d: end index %d, want %d", i, e.IdxOnEnd, in[e.End]))
		}
		out[e.Start]++
		in[e.End]++
	}
	return result.ErrorOrNil()
}
