package task

import (
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

// Bump when the layout of Task or Content changes.
const exportSchemaVersion uint16 = 1

type export struct {
	Schema uint16  `msgpack:"schema"`
	Tasks  []*Task `msgpack:"tasks"`
}

// Encode writes tasks for the level generator. Symbols are not exported.
func Encode(w io.Writer, tasks []*Task) error {
	if err := msgpack.NewEncoder(w).Encode(&export{Schema: exportSchemaVersion, Tasks: tasks}); err != nil {
		return fmt.Errorf("encode tasks: %w", err)
	}
	return nil
}

func Decode(r io.Reader) ([]*Task, error) {
	var in export
	if err := msgpack.NewDecoder(r).Decode(&in); err != nil {
		return nil, fmt.Errorf("decode tasks: %w", err)
	}
	if in.Schema != exportSchemaVersion {
		return nil, fmt.Errorf("decode tasks: schema %d, want %d", in.Schema, exportSchemaVersion)
	}
	return in.Tasks, nil
}
