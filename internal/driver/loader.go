package driver

import (
	"fmt"
	"path/filepath"
	"sync"

	"questdsl/internal/ast"
)

// DirLoader resolves import paths against Root and decodes the stored
// units. Decoded units are cached per path, failures too, so concurrent
// analyses importing the same unit read it once.
type DirLoader struct {
	Root string

	mu    sync.Mutex
	units map[string]loaded
}

type loaded struct {
	unit *ast.Unit
	err  error
}

func NewDirLoader(root string) *DirLoader {
	return &DirLoader{Root: root, units: make(map[string]loaded)}
}

// Load implements sema.Loader.
func (l *DirLoader) Load(path string) (*ast.Unit, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.units == nil {
		l.units = make(map[string]loaded)
	}
	if hit, ok := l.units[path]; ok {
		return hit.unit, hit.err
	}
	full := path
	if !filepath.IsAbs(full) {
		full = filepath.Join(l.Root, path)
	}
	u, err := ast.ReadFile(full)
	if err != nil {
		err = fmt.Errorf("load %s: %w", path, err)
	}
	l.units[path] = loaded{unit: u, err: err}
	return u, err
}

// Cached reports how many paths the loader has seen.
func (l *DirLoader) Cached() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.units)
}
