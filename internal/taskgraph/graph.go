// Package taskgraph turns `graph` definitions into task-dependency DAGs.
package taskgraph

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"

	"questdsl/internal/ast"
	"questdsl/internal/diag"
	"questdsl/internal/sema"
	"questdsl/internal/source"
	"questdsl/internal/symbols"
)

var (
	ErrUnresolved = errors.New("unresolved task reference")
	ErrNotATask   = errors.New("graph node is not a task")
	ErrEdgeType   = errors.New("unknown edge type")
	ErrCycle      = errors.New("task dependency cycle")
)

// NodeID indexes Graph.Nodes in order of first appearance.
type NodeID uint32

type EdgeKind uint8

const (
	EdgeSequence EdgeKind = iota
	EdgeSubtaskMandatory
	EdgeSubtaskOptional
	EdgeConditionalCorrect
	EdgeConditionalFalse
	EdgeSequenceAnd
	EdgeSequenceOr
)

var edgeKindNames = [...]string{
	EdgeSequence:           "seq",
	EdgeSubtaskMandatory:   "st_m",
	EdgeSubtaskOptional:    "st_o",
	EdgeConditionalCorrect: "c_c",
	EdgeConditionalFalse:   "c_f",
	EdgeSequenceAnd:        "seq_and",
	EdgeSequenceOr:         "seq_or",
}

var edgeKindAliases = map[string]EdgeKind{
	"sequence":            EdgeSequence,
	"subtask_mandatory":   EdgeSubtaskMandatory,
	"subtask_optional":    EdgeSubtaskOptional,
	"conditional_correct": EdgeConditionalCorrect,
	"conditional_false":   EdgeConditionalFalse,
	"sequence_and":        EdgeSequenceAnd,
	"sequence_or":         EdgeSequenceOr,
}

func (k EdgeKind) String() string {
	if int(k) < len(edgeKindNames) {
		return edgeKindNames[k]
	}
	return fmt.Sprintf("edge(%d)", k)
}

// ParseEdgeKind accepts the short attribute spelling (`st_m`) and the long
// one (`subtask_mandatory`).
func ParseEdgeKind(s string) (EdgeKind, bool) {
	for i, name := range edgeKindNames {
		if name == s {
			return EdgeKind(i), true
		}
	}
	k, ok := edgeKindAliases[s]
	return k, ok
}

type Node struct {
	Name   string
	Symbol symbols.SymbolID
	// Decl is the task definition node.
	Decl ast.NodeID
	// Span of the first reference inside the graph.
	Span source.Span
}

type Edge struct {
	Kind     EdgeKind
	From, To NodeID
	Span     source.Span
}

// Graph is immutable once Build returns.
type Graph struct {
	Name   string
	Symbol symbols.SymbolID
	Span   source.Span

	nodes []Node
	edges []Edge
	succ  [][]NodeID
	pred  [][]NodeID
	topo  *Topo
}

func (g *Graph) Nodes() []Node { return g.nodes }
func (g *Graph) Edges() []Edge { return g.edges }

func (g *Graph) Node(id NodeID) *Node {
	if int(id) >= len(g.nodes) {
		return nil
	}
	return &g.nodes[id]
}

func (g *Graph) Successors(id NodeID) []NodeID {
	if int(id) >= len(g.succ) {
		return nil
	}
	return g.succ[id]
}

func (g *Graph) Predecessors(id NodeID) []NodeID {
	if int(id) >= len(g.pred) {
		return nil
	}
	return g.pred[id]
}

// Roots are the tasks nothing depends on being finished first.
func (g *Graph) Roots() []NodeID {
	var out []NodeID
	for i := range g.nodes {
		if len(g.pred[i]) == 0 {
			out = append(out, nodeID(i))
		}
	}
	return out
}

// Order is a topological order of the tasks, nil for a cyclic graph.
func (g *Graph) Order() []NodeID {
	if g.topo == nil || g.topo.Cyclic {
		return nil
	}
	return g.topo.Order
}

// Topo exposes the full sort result including the batches.
func (g *Graph) Topo() *Topo { return g.topo }

// Lookup returns the node of the named task.
func (g *Graph) Lookup(name string) (NodeID, bool) {
	for i, n := range g.nodes {
		if n.Name == name {
			return nodeID(i), true
		}
	}
	return 0, false
}

// Names maps ids to task names.
func (g *Graph) Names(ids []NodeID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = g.nodes[id].Name
	}
	return out
}

type edgeKey struct {
	from, to NodeID
	kind     EdgeKind
}

type builder struct {
	res   *sema.Result
	r     diag.Reporter
	g     *Graph
	index map[symbols.SymbolID]NodeID
	seen  map[edgeKey]source.Span
	errs  *multierror.Error
}

// Build constructs the graph of a graph definition. Unresolved references
// were already reported by the analyzer; every other problem is reported to
// r. The returned graph is non-nil whenever graph names a graph definition,
// even when err is set.
func Build(res *sema.Result, graph ast.NodeID, r diag.Reporter) (*Graph, error) {
	if res == nil {
		return nil, errors.New("taskgraph: nil analysis result")
	}
	if r == nil {
		r = diag.NopReporter{}
	}
	gn := res.Node(graph)
	if gn == nil || gn.Kind != ast.KindGraphDef {
		return nil, fmt.Errorf("taskgraph: node %d is not a graph definition", graph)
	}
	symID, _ := res.SymbolOf(graph)
	b := &builder{
		res:   res,
		r:     r,
		g:     &Graph{Name: gn.Name, Symbol: symID, Span: gn.Span},
		index: make(map[symbols.SymbolID]NodeID),
		seen:  make(map[edgeKey]source.Span),
	}
	for _, stmt := range gn.Kids {
		b.statement(stmt)
	}

	b.g.topo = ToposortKahn(b.g)
	if b.g.topo.Cyclic {
		names := b.g.Names(b.g.topo.Cycles)
		diag.ReportError(r, diag.GraphCycle, gn.Span,
			fmt.Sprintf("graph '%s' has a dependency cycle between %s", gn.Name, strings.Join(names, ", "))).
			WithNode(graph).
			Emit()
		b.errs = multierror.Append(b.errs, fmt.Errorf("%w in graph '%s': %s", ErrCycle, gn.Name, strings.Join(names, ", ")))
	}
	return b.g, b.errs.ErrorOrNil()
}

func (b *builder) statement(id ast.NodeID) {
	sn := b.res.Node(id)
	if sn == nil || (sn.Kind != ast.KindGraphEdge && sn.Kind != ast.KindGraphNode) {
		// reported as malformed by the analyzer
		return
	}
	chain, attrs := ast.EdgeParts(b.res.Nodes, sn)
	kind, ok := b.edgeKind(attrs)
	if !ok {
		return
	}
	var prev []NodeID
	for i, part := range chain {
		cur := b.part(part)
		if i > 0 {
			for _, from := range prev {
				for _, to := range cur {
					b.connect(kind, from, to, sn.Span)
				}
			}
		}
		prev = cur
	}
}

// edgeKind reads the `type` attribute; other attributes are ignored.
func (b *builder) edgeKind(attrs []ast.NodeID) (EdgeKind, bool) {
	kind := EdgeSequence
	for _, attr := range attrs {
		an := b.res.Node(attr)
		if an.Name != "type" {
			continue
		}
		value := ""
		if vn := b.res.Node(an.Kid(0)); vn != nil {
			value = vn.Name
		}
		k, ok := ParseEdgeKind(value)
		if !ok {
			diag.ReportError(b.r, diag.GraphUnknownEdgeType, an.Span,
				fmt.Sprintf("unknown edge type '%s' in graph '%s'", value, b.g.Name)).
				WithNode(attr).
				Emit()
			b.errs = multierror.Append(b.errs, fmt.Errorf("%w '%s'", ErrEdgeType, value))
			return kind, false
		}
		kind = k
	}
	return kind, true
}

func (b *builder) part(id ast.NodeID) []NodeID {
	pn := b.res.Node(id)
	if pn == nil {
		return nil
	}
	if pn.Kind != ast.KindGraphIDList {
		if n, ok := b.task(id); ok {
			return []NodeID{n}
		}
		return nil
	}
	out := make([]NodeID, 0, len(pn.Kids))
	for _, kid := range pn.Kids {
		if n, ok := b.task(kid); ok {
			out = append(out, n)
		}
	}
	return out
}

func (b *builder) task(ident ast.NodeID) (NodeID, bool) {
	in := b.res.Node(ident)
	if in == nil || in.Kind != ast.KindIdent {
		return 0, false
	}
	symID, ok := b.res.SymbolOf(ident)
	if !ok {
		b.errs = multierror.Append(b.errs, fmt.Errorf("%w '%s'", ErrUnresolved, in.Name))
		return 0, false
	}
	origin := b.res.Table.Origin(symID)
	sym := b.res.Symbol(origin)
	if sym == nil || sym.Kind != symbols.SymbolTask {
		diag.ReportError(b.r, diag.GraphNotATask, in.Span,
			fmt.Sprintf("'%s' in graph '%s' is not a task definition", in.Name, b.g.Name)).
			WithNode(ident).
			Emit()
		b.errs = multierror.Append(b.errs, fmt.Errorf("%w: '%s'", ErrNotATask, in.Name))
		return 0, false
	}
	if n, ok := b.index[origin]; ok {
		return n, true
	}
	n := nodeID(len(b.g.nodes))
	b.g.nodes = append(b.g.nodes, Node{Name: in.Name, Symbol: origin, Decl: sym.Decl, Span: in.Span})
	b.g.succ = append(b.g.succ, nil)
	b.g.pred = append(b.g.pred, nil)
	b.index[origin] = n
	return n, true
}

func (b *builder) connect(kind EdgeKind, from, to NodeID, sp source.Span) {
	key := edgeKey{from: from, to: to, kind: kind}
	if prev, dup := b.seen[key]; dup {
		diag.ReportWarning(b.r, diag.GraphDuplicateEdge, sp,
			fmt.Sprintf("duplicate %s edge %s -> %s in graph '%s'", kind, b.g.nodes[from].Name, b.g.nodes[to].Name, b.g.Name)).
			WithNote(prev, "first declared here").
			Emit()
		return
	}
	b.seen[key] = sp
	b.g.edges = append(b.g.edges, Edge{Kind: kind, From: from, To: to, Span: sp})
	b.g.succ[from] = append(b.g.succ[from], to)
	b.g.pred[to] = append(b.g.pred[to], from)
}
