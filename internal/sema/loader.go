package sema

import (
	"fmt"
	"os"

	"questdsl/internal/ast"
)

// Loader fetches imported units by path.
type Loader interface {
	Load(path string) (*ast.Unit, error)
}

// MapLoader serves units from memory.
type MapLoader map[string]*ast.Unit

func (m MapLoader) Load(path string) (*ast.Unit, error) {
	u, ok := m[path]
	if !ok {
		return nil, fmt.Errorf("unit %q: %w", path, os.ErrNotExist)
	}
	return u, nil
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(path string) (*ast.Unit, error)

func (f LoaderFunc) Load(path string) (*ast.Unit, error) { return f(path) }
