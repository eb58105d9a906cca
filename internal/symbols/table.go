package symbols

import (
	"fmt"

	"fortio.org/safecast"

	"questdsl/internal/ast"
	"questdsl/internal/source"
	"questdsl/internal/types"
)

// Hints provide optional capacity suggestions for the table arenas.
type Hints struct{ Scopes, Symbols uint }

// Table aggregates the scope and symbol arenas, the node binding map and
// the per-file roots of one analysis run. After Freeze every mutating
// method panics; readers may then share the table without locking.
type Table struct {
	Scopes  *Scopes
	Symbols *Symbols
	Strings *source.Interner
	Global  ScopeID

	fileRoot map[source.FileID]ScopeID
	bindings map[ast.NodeID][]SymbolID
	typeSyms map[types.TypeID]SymbolID
	frozen   bool
}

// NewTable builds a table with its Global scope allocated. If strings is
// nil a fresh interner is used.
func NewTable(h Hints, strings *source.Interner) *Table {
	scopeCap, err := safecast.Conv[uint32](h.Scopes)
	if err != nil {
		panic(fmt.Errorf("scope capacity overflow: %w", err))
	}
	symCap, err := safecast.Conv[uint32](h.Symbols)
	if err != nil {
		panic(fmt.Errorf("symbol capacity overflow: %w", err))
	}
	if strings == nil {
		strings = source.NewInterner()
	}
	t := &Table{
		Scopes:   NewScopes(scopeCap),
		Symbols:  NewSymbols(symCap),
		Strings:  strings,
		fileRoot: make(map[source.FileID]ScopeID),
		bindings: make(map[ast.NodeID][]SymbolID),
		typeSyms: make(map[types.TypeID]SymbolID),
	}
	t.Global = t.Scopes.New(ScopeGlobal, NoScopeID, NoSymbolID, ast.NoNodeID, source.Span{})
	return t
}

func (t *Table) mustBeMutable(op string) {
	if t.frozen {
		panic(fmt.Sprintf("symbols: %s on frozen table", op))
	}
}

// Freeze makes the table read-only.
func (t *Table) Freeze() { t.frozen = true }

func (t *Table) Frozen() bool { return t.frozen }

// FileRoot returns (creating if needed) the File scope of file.
func (t *Table) FileRoot(file source.FileID, node ast.NodeID, span source.Span) ScopeID {
	if scope, ok := t.fileRoot[file]; ok {
		return scope
	}
	t.mustBeMutable("FileRoot")
	scope := t.Scopes.New(ScopeFile, t.Global, NoSymbolID, node, span)
	t.fileRoot[file] = scope
	return scope
}

// ExistingFileRoot returns the File scope of file without creating one.
func (t *Table) ExistingFileRoot(file source.FileID) (ScopeID, bool) {
	scope, ok := t.fileRoot[file]
	return scope, ok
}

// NewScope allocates a child scope of parent.
func (t *Table) NewScope(kind ScopeKind, parent ScopeID, owner SymbolID, node ast.NodeID, span source.Span) ScopeID {
	t.mustBeMutable("NewScope")
	return t.Scopes.New(kind, parent, owner, node, span)
}

// Insert stores sym in scope without conflict checks and binds its
// declaration node. Resolver.Declare is the checked entry point.
func (t *Table) Insert(scopeID ScopeID, sym Symbol) SymbolID {
	t.mustBeMutable("Insert")
	scope := t.Scopes.Get(scopeID)
	if scope == nil {
		return NoSymbolID
	}
	sym.Scope = scopeID
	id := t.Symbols.New(&sym)
	scope.Symbols = append(scope.Symbols, id)
	scope.NameIndex[sym.Name] = id
	if sym.Decl.IsValid() {
		t.bindings[sym.Decl] = append(t.bindings[sym.Decl], id)
	}
	return id
}

// SetOwnScope attaches a scope owned by sym.
func (t *Table) SetOwnScope(id SymbolID, scope ScopeID) {
	t.mustBeMutable("SetOwnScope")
	if sym := t.Symbols.Get(id); sym != nil {
		sym.Own = scope
	}
	if sc := t.Scopes.Get(scope); sc != nil {
		sc.Owner = id
	}
}

// SetType records the static type of a symbol.
func (t *Table) SetType(id SymbolID, typ types.TypeID) {
	t.mustBeMutable("SetType")
	if sym := t.Symbols.Get(id); sym != nil {
		sym.Type = typ
	}
}

// RegisterTypeSymbol maps a nominal type to the Type symbol declaring it.
func (t *Table) RegisterTypeSymbol(typ types.TypeID, id SymbolID) {
	t.mustBeMutable("RegisterTypeSymbol")
	if typ != types.NoTypeID && id.IsValid() {
		t.typeSyms[typ] = id
	}
}

// TypeSymbol returns the Type symbol declaring typ, if any.
func (t *Table) TypeSymbol(typ types.TypeID) (SymbolID, bool) {
	id, ok := t.typeSyms[typ]
	return id, ok
}

// Bind associates an AST node with a symbol. A node usually binds to one
// symbol; repeated calls with distinct symbols keep all of them.
func (t *Table) Bind(node ast.NodeID, sym SymbolID) {
	t.mustBeMutable("Bind")
	if !node.IsValid() || !sym.IsValid() {
		return
	}
	for _, existing := range t.bindings[node] {
		if existing == sym {
			return
		}
	}
	t.bindings[node] = append(t.bindings[node], sym)
}

// SymbolsFor returns all symbols bound to node.
func (t *Table) SymbolsFor(node ast.NodeID) []SymbolID {
	return t.bindings[node]
}

// SymbolFor returns the first symbol bound to node.
func (t *Table) SymbolFor(node ast.NodeID) (SymbolID, bool) {
	ids := t.bindings[node]
	if len(ids) == 0 {
		return NoSymbolID, false
	}
	return ids[0], true
}

// BoundNodes reports how many nodes carry at least one binding.
func (t *Table) BoundNodes() int {
	return len(t.bindings)
}

// CreationNode returns the declaration node of sym.
func (t *Table) CreationNode(id SymbolID) ast.NodeID {
	if sym := t.Symbols.Get(id); sym != nil {
		return sym.Decl
	}
	return ast.NoNodeID
}

// LookupIn finds name bound directly in scope.
func (t *Table) LookupIn(scopeID ScopeID, name source.StringID) (SymbolID, bool) {
	scope := t.Scopes.Get(scopeID)
	if scope == nil {
		return NoSymbolID, false
	}
	id, ok := scope.NameIndex[name]
	return id, ok
}

// Resolve walks from scope outward until name is found or Global is
// exhausted.
func (t *Table) Resolve(scopeID ScopeID, name source.StringID) (SymbolID, bool) {
	for scopeID.IsValid() {
		scope := t.Scopes.Get(scopeID)
		if scope == nil {
			break
		}
		if id, ok := scope.NameIndex[name]; ok {
			return id, true
		}
		scopeID = scope.Parent
	}
	return NoSymbolID, false
}

// Origin follows import aliases to the symbol they stand for.
func (t *Table) Origin(id SymbolID) SymbolID {
	for range t.Symbols.Len() {
		sym := t.Symbols.Get(id)
		if sym == nil || !sym.Kind.IsAlias() {
			return id
		}
		id = sym.Original
	}
	return id
}

// MemberScope returns the scope members of sym are looked up in: its own
// scope, the original's own scope for aliases, and the type's scope for
// values of a nominal type.
func (t *Table) MemberScope(id SymbolID) ScopeID {
	sym := t.Symbols.Get(t.Origin(id))
	if sym == nil {
		return NoScopeID
	}
	if sym.Own.IsValid() && sym.Kind != SymbolFunction {
		return sym.Own
	}
	if typeSym, ok := t.typeSyms[sym.Type]; ok {
		if ts := t.Symbols.Get(typeSym); ts != nil {
			return ts.Own
		}
	}
	return NoScopeID
}

// ResolveMember looks up name among the members of sym.
func (t *Table) ResolveMember(id SymbolID, name source.StringID) (SymbolID, bool) {
	scope := t.MemberScope(id)
	if !scope.IsValid() {
		return NoSymbolID, false
	}
	return t.LookupIn(scope, name)
}

// Name returns the textual name of a symbol.
func (t *Table) Name(id SymbolID) string {
	sym := t.Symbols.Get(id)
	if sym == nil {
		return ""
	}
	name, _ := t.Strings.Lookup(sym.Name)
	return name
}

// RemapTypes rewrites symbol types and the type-symbol map after a type
// deduplication pass.
func (t *Table) RemapTypes(remap map[types.TypeID]types.TypeID) {
	t.mustBeMutable("RemapTypes")
	if len(remap) == 0 {
		return
	}
	for i := range t.Symbols.data {
		if to, ok := remap[t.Symbols.data[i].Type]; ok {
			t.Symbols.data[i].Type = to
		}
	}
	for from, to := range remap {
		if sym, ok := t.typeSyms[from]; ok {
			delete(t.typeSyms, from)
			if _, taken := t.typeSyms[to]; !taken {
				t.typeSyms[to] = sym
			}
		}
	}
}
