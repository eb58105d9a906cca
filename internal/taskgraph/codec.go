package taskgraph

import (
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

// Bump when the layout of export changes.
const exportSchemaVersion uint16 = 1

type export struct {
	Schema uint16        `msgpack:"schema"`
	Graphs []graphExport `msgpack:"graphs"`
}

type graphExport struct {
	Name    string       `msgpack:"name"`
	Tasks   []string     `msgpack:"tasks"`
	Edges   []edgeExport `msgpack:"edges"`
	Batches [][]NodeID   `msgpack:"batches,omitempty"`
}

type edgeExport struct {
	Kind string `msgpack:"kind"`
	From NodeID `msgpack:"from"`
	To   NodeID `msgpack:"to"`
}

// Encode writes graphs in the layout the level generator reads. Task ids
// index the tasks list of their graph.
func Encode(w io.Writer, graphs []*Graph) error {
	out := export{Schema: exportSchemaVersion, Graphs: make([]graphExport, 0, len(graphs))}
	for _, g := range graphs {
		ge := graphExport{Name: g.Name, Tasks: make([]string, len(g.nodes))}
		for i, n := range g.nodes {
			ge.Tasks[i] = n.Name
		}
		for _, e := range g.edges {
			ge.Edges = append(ge.Edges, edgeExport{Kind: e.Kind.String(), From: e.From, To: e.To})
		}
		if g.topo != nil && !g.topo.Cyclic {
			ge.Batches = g.topo.Batches
		}
		out.Graphs = append(out.Graphs, ge)
	}
	if err := msgpack.NewEncoder(w).Encode(&out); err != nil {
		return fmt.Errorf("encode task graphs: %w", err)
	}
	return nil
}

// Decode rebuilds graphs written by Encode. Symbols, declarations and spans
// are not part of the export and stay zero.
func Decode(r io.Reader) ([]*Graph, error) {
	var in export
	if err := msgpack.NewDecoder(r).Decode(&in); err != nil {
		return nil, fmt.Errorf("decode task graphs: %w", err)
	}
	if in.Schema != exportSchemaVersion {
		return nil, fmt.Errorf("decode task graphs: schema %d, want %d", in.Schema, exportSchemaVersion)
	}
	graphs := make([]*Graph, 0, len(in.Graphs))
	for _, ge := range in.Graphs {
		g := &Graph{
			Name:  ge.Name,
			nodes: make([]Node, len(ge.Tasks)),
			succ:  make([][]NodeID, len(ge.Tasks)),
			pred:  make([][]NodeID, len(ge.Tasks)),
		}
		for i, name := range ge.Tasks {
			g.nodes[i] = Node{Name: name}
		}
		for i, ee := range ge.Edges {
			kind, ok := ParseEdgeKind(ee.Kind)
			if !ok {
				return nil, fmt.Errorf("decode task graph %s: edge %d: %w '%s'", ge.Name, i, ErrEdgeType, ee.Kind)
			}
			if int(ee.From) >= len(g.nodes) || int(ee.To) >= len(g.nodes) {
				return nil, fmt.Errorf("decode task graph %s: edge %d has invalid endpoints %d -> %d", ge.Name, i, ee.From, ee.To)
			}
			g.edges = append(g.edges, Edge{Kind: kind, From: ee.From, To: ee.To})
			g.succ[ee.From] = append(g.succ[ee.From], ee.To)
			g.pred[ee.To] = append(g.pred[ee.To], ee.From)
		}
		g.topo = ToposortKahn(g)
		graphs = append(graphs, g)
	}
	return graphs, nil
}
