package ast

import (
	"fmt"
	"io"
	"os"

	"github.com/vmihailenco/msgpack/v5"
)

// Bump when the wire layout of unitPayload changes.
const unitSchemaVersion uint16 = 1

// unitPayload is what an out-of-process parser writes for one unit. Node
// IDs inside Kids are 1-based indices into Nodes.
type unitPayload struct {
	Schema uint16 `msgpack:"schema"`
	Path   string `msgpack:"path"`
	Root   NodeID `msgpack:"root"`
	Nodes  []Node `msgpack:"nodes"`
}

// Encode writes the nodes reachable from u.Root. IDs are compacted, so the
// decoded unit only carries what the unit uses.
func Encode(w io.Writer, u *Unit) error {
	if u == nil {
		return fmt.Errorf("encode unit: nil unit")
	}
	compact := NewNodes(0).Adopt(u)
	payload := unitPayload{
		Schema: unitSchemaVersion,
		Path:   compact.Path,
		Root:   compact.Root,
		Nodes:  compact.Nodes.Arena.Slice(),
	}
	if err := msgpack.NewEncoder(w).Encode(&payload); err != nil {
		return fmt.Errorf("encode unit %s: %w", u.Path, err)
	}
	return nil
}

// Decode reads one unit into a fresh arena.
func Decode(r io.Reader) (*Unit, error) {
	var payload unitPayload
	if err := msgpack.NewDecoder(r).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode unit: %w", err)
	}
	if payload.Schema != unitSchemaVersion {
		return nil, fmt.Errorf("decode unit %s: schema %d, want %d", payload.Path, payload.Schema, unitSchemaVersion)
	}
	nodes := NewNodes(uint(len(payload.Nodes)))
	limit := NodeID(len(payload.Nodes))
	for i := range payload.Nodes {
		for _, kid := range payload.Nodes[i].Kids {
			if kid > limit {
				return nil, fmt.Errorf("decode unit %s: node %d references missing child %d", payload.Path, i+1, kid)
			}
		}
		nodes.Arena.Allocate(payload.Nodes[i])
	}
	if payload.Root == NoNodeID || payload.Root > limit {
		return nil, fmt.Errorf("decode unit %s: invalid root %d", payload.Path, payload.Root)
	}
	return &Unit{Path: payload.Path, Root: payload.Root, Nodes: nodes}, nil
}

// ReadFile decodes a unit stored at path.
func ReadFile(path string) (u *Unit, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	return Decode(f)
}
