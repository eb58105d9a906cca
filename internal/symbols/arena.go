package symbols

import (
	"fmt"

	"fortio.org/safecast"

	"questdsl/internal/ast"
	"questdsl/internal/source"
)

// arena is a slice whose slot 0 is the sentinel behind ID 0.
type arena[T any, ID ~uint32] struct {
	what string
	data []T
}

func newArena[T any, ID ~uint32](what string, capacity uint32) arena[T, ID] {
	return arena[T, ID]{what: what, data: make([]T, 1, capacity+1)}
}

func (a *arena[T, ID]) push(v T) ID {
	value, err := safecast.Conv[uint32](len(a.data))
	if err != nil {
		panic(fmt.Errorf("%s arena overflow: %w", a.what, err))
	}
	a.data = append(a.data, v)
	return ID(value)
}

func (a *arena[T, ID]) get(id ID) *T {
	if id == 0 || int(id) >= len(a.data) {
		return nil
	}
	return &a.data[id]
}

func (a *arena[T, ID]) len() int { return len(a.data) - 1 }

// all skips the sentinel; all()[i] has ID i+1.
func (a *arena[T, ID]) all() []T {
	if len(a.data) <= 1 {
		return nil
	}
	return a.data[1:]
}

// Scopes owns every scope of a table.
type Scopes struct {
	arena[Scope, ScopeID]
}

func NewScopes(capacity uint32) *Scopes {
	if capacity == 0 {
		capacity = 32
	}
	return &Scopes{newArena[Scope, ScopeID]("scopes", capacity)}
}

// New allocates a scope and links it into its parent's Children.
func (s *Scopes) New(kind ScopeKind, parent ScopeID, owner SymbolID, node ast.NodeID, span source.Span) ScopeID {
	id := s.push(Scope{
		Kind:      kind,
		Parent:    parent,
		Owner:     owner,
		Node:      node,
		Span:      span,
		NameIndex: make(map[source.StringID]SymbolID),
	})
	if parentScope := s.get(parent); parentScope != nil {
		parentScope.Children = append(parentScope.Children, id)
	}
	return id
}

// Get returns nil for NoScopeID and unknown ids.
func (s *Scopes) Get(id ScopeID) *Scope { return s.get(id) }

// Len excludes the sentinel.
func (s *Scopes) Len() int { return s.len() }

func (s *Scopes) Data() []Scope { return s.all() }

// Symbols owns every symbol of a table.
type Symbols struct {
	arena[Symbol, SymbolID]
}

func NewSymbols(capacity uint32) *Symbols {
	if capacity == 0 {
		capacity = 64
	}
	return &Symbols{newArena[Symbol, SymbolID]("symbols", capacity)}
}

// New copies sym into the arena.
func (s *Symbols) New(sym *Symbol) SymbolID {
	if sym == nil {
		panic("symbols.New: nil symbol")
	}
	return s.push(*sym)
}

func (s *Symbols) Get(id SymbolID) *Symbol { return s.get(id) }

func (s *Symbols) Len() int { return s.len() }

// Data()[i] has ID i+1.
func (s *Symbols) Data() []Symbol { return s.all() }
