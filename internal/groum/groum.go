// Package groum builds program-dependence graphs ("groums") over resolved
// function bodies. A groum records what a body does: the actions it
// performs, the order they run in, the values flowing between them and the
// control constructs they are nested in.
package groum

import (
	"fmt"

	"fortio.org/safecast"

	"questdsl/internal/ast"
	"questdsl/internal/symbols"
	"questdsl/internal/types"
)

// NodeID indexes Groum.Nodes; 0 is the sentinel.
type NodeID uint32

const NoNodeID NodeID = 0

func (id NodeID) IsValid() bool { return id != NoNodeID }

// InstanceID correlates actions operating on the same runtime value.
type InstanceID uint32

const NoInstance InstanceID = 0

type ActionKind uint8

const (
	ActionInvalid ActionKind = iota
	ActionCall
	ActionInstantiation
	ActionParameterInstantiation
	ActionControl
	ActionPropertyAccess
)

func (k ActionKind) String() string {
	switch k {
	case ActionCall:
		return "call"
	case ActionInstantiation:
		return "instantiation"
	case ActionParameterInstantiation:
		return "parameter_instantiation"
	case ActionControl:
		return "control"
	case ActionPropertyAccess:
		return "property_access"
	default:
		return "invalid"
	}
}

type ControlKind uint8

const (
	ControlNone ControlKind = iota
	ControlIf
	ControlElse
	ControlWhile
	ControlFor
	ControlCountingFor
	ControlReturn
)

func (k ControlKind) String() string {
	switch k {
	case ControlIf:
		return "if"
	case ControlElse:
		return "else"
	case ControlWhile:
		return "while"
	case ControlFor:
		return "for"
	case ControlCountingFor:
		return "counting_for"
	case ControlReturn:
		return "return"
	default:
		return "none"
	}
}

type EdgeKind uint8

const (
	EdgeInvalid EdgeKind = iota
	EdgeTemporal
	EdgeDataRead
	EdgeDataWrite
	EdgeControlParent
)

func (k EdgeKind) String() string {
	switch k {
	case EdgeTemporal:
		return "temporal"
	case EdgeDataRead:
		return "data_read"
	case EdgeDataWrite:
		return "data_write"
	case EdgeControlParent:
		return "control_parent"
	default:
		return "invalid"
	}
}

// Node is one action of a groum.
type Node struct {
	Kind     ActionKind       `msgpack:"kind"`
	Control  ControlKind      `msgpack:"control,omitempty"`
	Label    string           `msgpack:"label"`
	Instance InstanceID       `msgpack:"instance,omitempty"`
	Symbol   symbols.SymbolID `msgpack:"symbol,omitempty"`
	Type     types.TypeID     `msgpack:"type,omitempty"`
	AST      ast.NodeID       `msgpack:"ast,omitempty"`
}

// Edge connects two nodes. IdxOnStart is the number of edges that left
// Start before this one was added, IdxOnEnd the number that arrived at End.
// Both are fixed at creation.
type Edge struct {
	Kind       EdgeKind `msgpack:"kind"`
	Start      NodeID   `msgpack:"start"`
	End        NodeID   `msgpack:"end"`
	IdxOnStart int      `msgpack:"idx_start"`
	IdxOnEnd   int      `msgpack:"idx_end"`
}

// Groum is the graph of one function body.
type Groum struct {
	Function symbols.SymbolID
	Name     string
	// Unbound lists body nodes that carried no binding and were skipped.
	Unbound []ast.NodeID

	nodes []Node
	edges []Edge
	out   [][]int
	in    [][]int
}

func New(name string, fn symbols.SymbolID) *Groum {
	return &Groum{
		Function: fn,
		Name:     name,
		nodes:    make([]Node, 1, 16),
		out:      make([][]int, 1, 16),
		in:       make([][]int, 1, 16),
	}
}

// AddNode appends n and returns its id.
func (g *Groum) AddNode(n Node) NodeID {
	value, err := safecast.Conv[uint32](len(g.nodes))
	if err != nil {
		panic(fmt.Errorf("groum node overflow: %w", err))
	}
	g.nodes = append(g.nodes, n)
	g.out = append(g.out, nil)
	g.in = append(g.in, nil)
	return NodeID(value)
}

// AddEdge connects start to end. Invalid endpoints are ignored and yield
// -1.
func (g *Groum) AddEdge(kind EdgeKind, start, end NodeID) int {
	if !g.valid(start) || !g.valid(end) {
		return -1
	}
	e := Edge{
		Kind:       kind,
		Start:      start,
		End:        end,
		IdxOnStart: len(g.out[start]),
		IdxOnEnd:   len(g.in[end]),
	}
	idx := len(g.edges)
	g.edges = append(g.edges, e)
	g.out[start] = append(g.out[start], idx)
	g.in[end] = append(g.in[end], idx)
	return idx
}

func (g *Groum) valid(id NodeID) bool {
	return id.IsValid() && int(id) < len(g.nodes)
}

func (g *Groum) Node(id NodeID) *Node {
	if !g.valid(id) {
		return nil
	}
	return &g.nodes[id]
}

// NodeCount excludes the sentinel.
func (g *Groum) NodeCount() int { return len(g.nodes) - 1 }

// Nodes returns the nodes without the sentinel; Nodes()[i] has ID i+1.
func (g *Groum) Nodes() []Node { return g.nodes[1:] }

// Edges returns the edges in creation order.
func (g *Groum) Edges() []Edge { return g.edges }

func (g *Groum) Outgoing(id NodeID) []Edge {
	if !g.valid(id) {
		return nil
	}
	return g.collect(g.out[id])
}

func (g *Groum) Incoming(id NodeID) []Edge {
	if !g.valid(id) {
		return nil
	}
	return g.collect(g.in[id])
}

func (g *Groum) collect(idx []int) []Edge {
	out := make([]Edge, len(idx))
	for i, e := range idx {
		out[i] = g.edges[e]
	}
	return out
}

// EdgesOf returns the edges of the given kind in creation order.
func (g *Groum) EdgesOf(kind EdgeKind) []Edge {
	var out []Edge
	for _, e := range g.edges {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// Find returns the first node whose label is label.
func (g *Groum) Find(label string) (NodeID, bool) {
	for i := 1; i < len(g.nodes); i++ {
		if g.nodes[i].Label == label {
			return NodeID(i), true
		}
	}
	return NoNodeID, false
}

func (g *Groum) String() string {
	return fmt.Sprintf("groum %s: %d nodes, %d edges", g.Name, g.NodeCount(), len(g.edges))
}

// EdgeString renders e as `start -[kind]-> end`.
func (g *Groum) EdgeString(e Edge) string {
	start, end := "?", "?"
	if n := g.Node(e.Start); n != nil {
		start = n.Label
	}
	if n := g.Node(e.End); n != nil {
		end = n.Label
	}
	return fmt.Sprintf("%s -[%s]-> %s", start, e.Kind, end)
}
