package symbols

import (
	"fmt"

	"questdsl/internal/ast"
	"questdsl/internal/diag"
	"questdsl/internal/source"
	"questdsl/internal/types"
)

type ResolverOptions struct {
	Reporter diag.Reporter
	Prelude  []PreludeEntry
}

// PreludeEntry describes a symbol installed into Global before any unit is
// analysed.
type PreludeEntry struct {
	Name  string
	Kind  SymbolKind
	Sub   TypeSub
	Type  types.TypeID
	Flags SymbolFlags
}

// Resolver drives the scope stack used by the declaration and reference
// passes.
type Resolver struct {
	table                 *Table
	reporter              diag.Reporter
	stack                 []ScopeID
	scopeMismatchReported map[ScopeID]bool
}

// NewResolver wires a resolver to table. If root is valid it becomes the
// current scope. Prelude entries always go into Global.
func NewResolver(table *Table, root ScopeID, opts ResolverOptions) *Resolver {
	r := &Resolver{
		table:                 table,
		reporter:              opts.Reporter,
		stack:                 make([]ScopeID, 0, 8),
		scopeMismatchReported: make(map[ScopeID]bool),
	}
	if root.IsValid() {
		r.stack = append(r.stack, root)
	}
	if len(opts.Prelude) > 0 {
		r.installPrelude(opts.Prelude)
	}
	return r
}

func (r *Resolver) Table() *Table { return r.table }

// CurrentScope returns the scope at the top of the stack.
func (r *Resolver) CurrentScope() ScopeID {
	if len(r.stack) == 0 {
		return NoScopeID
	}
	return r.stack[len(r.stack)-1]
}

// Enter creates a child of the current scope and pushes it.
func (r *Resolver) Enter(kind ScopeKind, owner SymbolID, node ast.NodeID, span source.Span) ScopeID {
	scope := r.table.NewScope(kind, r.CurrentScope(), owner, node, span)
	r.stack = append(r.stack, scope)
	return scope
}

// Push re-enters a scope created earlier, e.g. a function scope allocated
// by the declaration pass.
func (r *Resolver) Push(scope ScopeID) {
	if scope.IsValid() {
		r.stack = append(r.stack, scope)
	}
}

// Leave pops the current scope. A mismatch with expected is reported as a
// warning and the top is popped anyway.
func (r *Resolver) Leave(expected ScopeID) {
	if len(r.stack) == 0 {
		return
	}
	top := r.stack[len(r.stack)-1]
	if expected.IsValid() && top != expected {
		r.reportScopeMismatch(expected, top)
	}
	r.stack = r.stack[:len(r.stack)-1]
}

// Declare installs sym into the current scope.
func (r *Resolver) Declare(sym Symbol) (SymbolID, bool) {
	return r.DeclareIn(r.CurrentScope(), sym)
}

// DeclareIn installs sym into scope. It fails with a DuplicateSymbol
// diagnostic when the name is already bound directly in that scope.
func (r *Resolver) DeclareIn(scopeID ScopeID, sym Symbol) (SymbolID, bool) {
	scope := r.table.Scopes.Get(scopeID)
	if scope == nil {
		return NoSymbolID, false
	}
	if existing, ok := scope.NameIndex[sym.Name]; ok {
		prev := r.table.Symbols.Get(existing)
		r.reportDuplicateSymbol(sym, prev)
		return NoSymbolID, false
	}
	if shadow := r.findShadowing(scopeID, sym.Name); shadow.IsValid() {
		r.reportShadowing(sym, shadow)
	}
	id := r.table.Insert(scopeID, sym)
	return id, id.IsValid()
}

// Lookup walks the scope chain from the current scope outward.
func (r *Resolver) Lookup(name source.StringID) (SymbolID, bool) {
	return r.table.Resolve(r.CurrentScope(), name)
}

// LookupName interns name and looks it up.
func (r *Resolver) LookupName(name string) (SymbolID, bool) {
	id, ok := r.table.Strings.Find(name)
	if !ok {
		return NoSymbolID, false
	}
	return r.Lookup(id)
}

func (r *Resolver) installPrelude(entries []PreludeEntry) {
	for _, entry := range entries {
		sym := Symbol{
			Name:  r.table.Strings.Intern(entry.Name),
			Kind:  entry.Kind,
			Sub:   entry.Sub,
			Type:  entry.Type,
			Flags: entry.Flags | SymbolFlagBuiltin,
		}
		if _, taken := r.table.LookupIn(r.table.Global, sym.Name); taken {
			continue
		}
		id := r.table.Insert(r.table.Global, sym)
		if entry.Kind == SymbolType {
			r.table.RegisterTypeSymbol(entry.Type, id)
		}
	}
}

// findShadowing reports a binding of name in an enclosing function or
// block scope. Globals and file-level names may be shadowed silently.
func (r *Resolver) findShadowing(scopeID ScopeID, name source.StringID) SymbolID {
	scope := r.table.Scopes.Get(scopeID)
	if scope == nil || (scope.Kind != ScopeBlock && scope.Kind != ScopeFunction) {
		return NoSymbolID
	}
	parent := scope.Parent
	for parent.IsValid() {
		parentScope := r.table.Scopes.Get(parent)
		if parentScope == nil || (parentScope.Kind != ScopeBlock && parentScope.Kind != ScopeFunction) {
			break
		}
		if id, ok := parentScope.NameIndex[name]; ok {
			return id
		}
		parent = parentScope.Parent
	}
	return NoSymbolID
}

func (r *Resolver) reportDuplicateSymbol(sym Symbol, prev *Symbol) {
	if r.reporter == nil {
		return
	}
	msg := fmt.Sprintf("duplicate declaration of '%s'", r.table.Strings.MustLookup(sym.Name))
	builder := diag.ReportError(r.reporter, diag.SemaDuplicateSymbol, sym.Span, msg).WithNode(sym.Decl)
	if prev != nil {
		noteMsg := "previous declaration here"
		if prev.Flags&SymbolFlagBuiltin != 0 {
			noteMsg = "built-in declaration here"
		}
		if prev.Span != (source.Span{}) {
			builder.WithNote(prev.Span, noteMsg)
		}
	}
	builder.Emit()
}

func (r *Resolver) reportShadowing(sym Symbol, shadow SymbolID) {
	if r.reporter == nil {
		return
	}
	msg := fmt.Sprintf("declaration of '%s' shadows previous binding", r.table.Strings.MustLookup(sym.Name))
	builder := diag.ReportWarning(r.reporter, diag.SemaShadowSymbol, sym.Span, msg).WithNode(sym.Decl)
	if prev := r.table.Symbols.Get(shadow); prev != nil && prev.Span != (source.Span{}) {
		builder.WithNote(prev.Span, "previous declaration here")
	}
	builder.Emit()
}

func (r *Resolver) reportScopeMismatch(expected, actual ScopeID) {
	if r.reporter == nil || r.scopeMismatchReported[actual] {
		return
	}
	r.scopeMismatchReported[actual] = true

	var primary source.Span
	actualLabel := fmt.Sprintf("scope #%d", actual)
	if scope := r.table.Scopes.Get(actual); scope != nil {
		primary = scope.Span
		actualLabel = fmt.Sprintf("%s scope #%d", scope.Kind, actual)
	}
	expectedLabel := "unknown scope"
	expectedScope := r.table.Scopes.Get(expected)
	if expectedScope != nil {
		expectedLabel = fmt.Sprintf("%s scope #%d", expectedScope.Kind, expected)
	}
	msg := fmt.Sprintf("scope stack mismatch: closing %s while expecting %s", actualLabel, expectedLabel)
	builder := diag.ReportWarning(r.reporter, diag.SemaScopeMismatch, primary, msg)
	if expectedScope != nil {
		builder.WithNote(expectedScope.Span, "expected scope declared here")
	}
	builder.Emit()
}
