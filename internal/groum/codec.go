package groum

import (
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"

	"questdsl/internal/symbols"
)

// Bump when the layout of snapshot changes.
const snapshotSchemaVersion uint16 = 1

type snapshot struct {
	Schema uint16       `msgpack:"schema"`
	Groums []groumState `msgpack:"groums"`
}

type groumState struct {
	Function symbols.SymbolID `msgpack:"function"`
	Name     string           `msgpack:"name"`
	Nodes    []Node           `msgpack:"nodes"`
	Edges    []Edge           `msgpack:"edges"`
}

// Encode writes groums for an out-of-process consumer such as a grader.
func Encode(w io.Writer, groums []*Groum) error {
	snap := snapshot{Schema: snapshotSchemaVersion, Groums: make([]groumState, 0, len(groums))}
	for _, g := range groums {
		snap.Groums = append(snap.Groums, groumState{
			Function: g.Function,
			Name:     g.Name,
			Nodes:    g.Nodes(),
			Edges:    g.Edges(),
		})
	}
	if err := msgpack.NewEncoder(w).Encode(&snap); err != nil {
		return fmt.Errorf("encode groums: %w", err)
	}
	return nil
}

// Decode reads groums written by Encode. Edge indices are checked against
// the order edges are replayed in.
func Decode(r io.Reader) ([]*Groum, error) {
	var snap snapshot
	if err := msgpack.NewDecoder(r).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decode groums: %w", err)
	}
	if snap.Schema != snapshotSchemaVersion {
		return nil, fmt.Errorf("decode groums: schema %d, want %d", snap.Schema, snapshotSchemaVersion)
	}
	out := make([]*Groum, 0, len(snap.Groums))
	for _, st := range snap.Groums {
		g := New(st.Name, st.Function)
		for _, n := range st.Nodes {
			g.AddNode(n)
		}
		for i, e := range st.Edges {
			idx := g.AddEdge(e.Kind, e.Start, e.End)
			if idx < 0 {
				return nil, fmt.Errorf("decode groum %s: edge %d has invalid endpoints %d -> %d", st.Name, i, e.Start, e.End)
			}
			if got := g.edges[idx]; got.IdxOnStart != e.IdxOnStart || got.IdxOnEnd != e.IdxOnEnd {
				return nil, fmt.Errorf("decode groum %s: edge %d indices (%d,%d), replay gives (%d,%d)",
					st.Name, i, e.IdxOnStart, e.IdxOnEnd, got.IdxOnStart, got.IdxOnEnd)
			}
		}
		out = append(out, g)
	}
	return out, nil
}
