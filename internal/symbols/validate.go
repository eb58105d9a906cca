package symbols

import (
	"fmt"

	"fortio.org/safecast"
	"github.com/hashicorp/go-multierror"
)

// Validate walks the arenas checking structural invariants and returns all
// violations aggregated, or nil.
func (t *Table) Validate() error {
	var result *multierror.Error

	for idx := 1; idx < len(t.Scopes.data); idx++ {
		scopeID, err := toScopeID(idx)
		if err != nil {
			result = multierror.Append(result, err)
			continue
		}
		scope := &t.Scopes.data[idx]
		result = multierror.Append(result, t.validateScope(scopeID, scope)...)
	}

	for idx := 1; idx < len(t.Symbols.data); idx++ {
		symbolID, err := toSymbolID(idx)
		if err != nil {
			result = multierror.Append(result, err)
			continue
		}
		result = multierror.Append(result, t.validateSymbol(symbolID, &t.Symbols.data[idx])...)
	}

	for node, ids := range t.bindings {
		for _, id := range ids {
			if t.Symbols.Get(id) == nil {
				result = multierror.Append(result, fmt.Errorf("node %d bound to missing symbol %d", node, id))
			}
		}
	}

	return result.ErrorOrNil()
}

func (t *Table) validateScope(id ScopeID, scope *Scope) []error {
	var errs []error
	switch {
	case scope.Kind == ScopeInvalid:
		errs = append(errs, fmt.Errorf("scope %d has invalid kind", id))
	case scope.Kind == ScopeGlobal:
		if scope.Parent.IsValid() {
			errs = append(errs, fmt.Errorf("global scope %d has parent %d", id, scope.Parent))
		}
		if id != t.Global {
			errs = append(errs, fmt.Errorf("scope %d is a second global scope", id))
		}
	case !scope.Parent.IsValid():
		errs = append(errs, fmt.Errorf("%s scope %d has no parent", scope.Kind, id))
	}

	if scope.Parent.IsValid() {
		parent := t.Scopes.Get(scope.Parent)
		if parent == nil || scope.Parent == id {
			errs = append(errs, fmt.Errorf("scope %d has invalid parent %d", id, scope.Parent))
		} else if !containsScope(parent.Children, id) {
			errs = append(errs, fmt.Errorf("scope %d parent %d missing backlink", id, scope.Parent))
		}
	}
	for _, child := range scope.Children {
		cs := t.Scopes.Get(child)
		if cs == nil || cs.Parent != id {
			errs = append(errs, fmt.Errorf("scope %d child %d missing parent backlink", id, child))
		}
	}

	listed := make(map[SymbolID]struct{}, len(scope.Symbols))
	for _, sym := range scope.Symbols {
		listed[sym] = struct{}{}
	}
	for name, sym := range scope.NameIndex {
		if _, ok := listed[sym]; !ok {
			errs = append(errs, fmt.Errorf("scope %d name index %d references unlisted symbol %d", id, name, sym))
		}
	}
	if len(scope.NameIndex) != len(scope.Symbols) {
		errs = append(errs, fmt.Errorf("scope %d lists %d symbols but indexes %d names", id, len(scope.Symbols), len(scope.NameIndex)))
	}

	if scope.Owner.IsValid() {
		owner := t.Symbols.Get(scope.Owner)
		if owner == nil || owner.Own != id {
			errs = append(errs, fmt.Errorf("scope %d owner %d does not own it", id, scope.Owner))
		}
	}
	return errs
}

func (t *Table) validateSymbol(id SymbolID, sym *Symbol) []error {
	var errs []error
	scope := t.Scopes.Get(sym.Scope)
	if scope == nil {
		return append(errs, fmt.Errorf("symbol %d has invalid scope %d", id, sym.Scope))
	}
	if got, ok := scope.NameIndex[sym.Name]; !ok || got != id {
		errs = append(errs, fmt.Errorf("symbol %d is not indexed by scope %d", id, sym.Scope))
	}
	if sym.Kind.IsAlias() {
		orig := t.Symbols.Get(sym.Original)
		switch {
		case orig == nil:
			errs = append(errs, fmt.Errorf("alias %d has no original", id))
		case orig.Kind.IsAlias():
			errs = append(errs, fmt.Errorf("alias %d forwards to alias %d", id, sym.Original))
		}
	} else if sym.Original.IsValid() {
		errs = append(errs, fmt.Errorf("%s symbol %d carries an original", sym.Kind, id))
	}
	if sym.Own.IsValid() {
		own := t.Scopes.Get(sym.Own)
		if own == nil || own.Owner != id {
			errs = append(errs, fmt.Errorf("symbol %d own scope %d is not owned by it", id, sym.Own))
		}
	}
	return errs
}

func containsScope(list []ScopeID, id ScopeID) bool {
	for _, s := range list {
		if s == id {
			return true
		}
	}
	return false
}

func toScopeID(idx int) (ScopeID, error) {
	value, err := safecast.Conv[uint32](idx)
	if err != nil {
		return NoScopeID, fmt.Errorf("scope index %d overflow: %w", idx, err)
	}
	return ScopeID(value), nil
}

func toSymbolID(idx int) (SymbolID, error) {
	value, err := safecast.Conv[uint32](idx)
	if err != nil {
		return NoSymbolID, fmt.Errorf("symbol index %d overflow: %w", idx, err)
	}
	return SymbolID(value), nil
}
