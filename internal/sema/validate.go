package sema

import (
	"errors"

	"github.com/hashicorp/go-multierror"

	"questdsl/internal/ast"
	"questdsl/internal/diag"
	"questdsl/internal/source"
	"questdsl/internal/symbols"
	"questdsl/internal/types"
)

// Rule is a contextual legality check run over the bound tree. Rules must
// not mutate bindings; the table they see is still mutable only because
// the run has not been frozen yet.
type Rule interface {
	Name() string
	Check(rc *RuleContext, id ast.NodeID, node *ast.Node)
}

// RuleFunc adapts a function to Rule.
type RuleFunc struct {
	RuleName string
	Fn       func(rc *RuleContext, id ast.NodeID, node *ast.Node)
}

func (r RuleFunc) Name() string { return r.RuleName }

func (r RuleFunc) Check(rc *RuleContext, id ast.NodeID, node *ast.Node) { r.Fn(rc, id, node) }

// RuleContext is the read-only view handed to rules.
type RuleContext struct {
	Table    *symbols.Table
	Types    *types.Interner
	Nodes    *ast.Nodes
	Unit     *ast.Unit
	Reporter diag.Reporter

	exprTypes map[ast.NodeID]types.TypeID
}

func (rc *RuleContext) TypeOf(id ast.NodeID) types.TypeID {
	return rc.exprTypes[id]
}

func (rc *RuleContext) SymbolOf(id ast.NodeID) (*symbols.Symbol, bool) {
	symID, ok := rc.Table.SymbolFor(id)
	if !ok {
		return nil, false
	}
	return rc.Table.Symbols.Get(symID), true
}

var enumAccessRule = RuleFunc{
	RuleName: "enum-member-access",
	Fn: func(rc *RuleContext, id ast.NodeID, node *ast.Node) {
		if node.Kind == ast.KindMember {
			reportEnumAccess(rc.Reporter, rc.Table, rc.Types, rc.Nodes, id)
		}
	},
}

// validate runs the built-in and host rules over every analysed unit and
// checks the table's structural invariants.
func (a *Analyzer) validate() {
	rules := append([]Rule{enumAccessRule}, a.opts.Rules...)
	for _, st := range a.order {
		rc := &RuleContext{
			Table:     a.table,
			Types:     a.types,
			Nodes:     a.nodes,
			Unit:      st.unit,
			Reporter:  a.reporter,
			exprTypes: a.exprTypes,
		}
		a.nodes.Walk(st.unit.Root, func(id ast.NodeID, node *ast.Node) bool {
			for _, rule := range rules {
				rule.Check(rc, id, node)
			}
			return true
		})
	}

	if err := a.table.Validate(); err != nil {
		var merr *multierror.Error
		if errors.As(err, &merr) {
			for _, e := range merr.Errors {
				diag.ReportError(a.reporter, diag.SemaInvariant, source.Span{}, e.Error()).Emit()
			}
			return
		}
		diag.ReportError(a.reporter, diag.SemaInvariant, source.Span{}, err.Error()).Emit()
	}
}
