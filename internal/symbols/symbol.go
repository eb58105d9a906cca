package symbols

import (
	"questdsl/internal/ast"
	"questdsl/internal/source"
	"questdsl/internal/types"
)

// SymbolKind classifies the semantic meaning of a symbol.
type SymbolKind uint8

const (
	SymbolInvalid SymbolKind = iota
	SymbolVariable
	SymbolFunction
	SymbolType
	SymbolImportFunctionAlias
	SymbolImportTypeAlias
	SymbolEnumVariant
	SymbolTask
)

func (k SymbolKind) String() string {
	switch k {
	case SymbolVariable:
		return "variable"
	case SymbolFunction:
		return "function"
	case SymbolType:
		return "type"
	case SymbolImportFunctionAlias:
		return "import_function_alias"
	case SymbolImportTypeAlias:
		return "import_type_alias"
	case SymbolEnumVariant:
		return "enum_variant"
	case SymbolTask:
		return "task"
	default:
		return "invalid"
	}
}

// IsAlias reports whether the kind forwards to an original symbol.
func (k SymbolKind) IsAlias() bool {
	return k == SymbolImportFunctionAlias || k == SymbolImportTypeAlias
}

// TypeSub refines SymbolType symbols.
type TypeSub uint8

const (
	TypeSubNone TypeSub = iota
	TypeSubBasic
	TypeSubAggregate
	TypeSubAggregateAdapted
	TypeSubEnum
	TypeSubFunctionType
	TypeSubCollection
)

func (s TypeSub) String() string {
	switch s {
	case TypeSubBasic:
		return "basic"
	case TypeSubAggregate:
		return "aggregate"
	case TypeSubAggregateAdapted:
		return "aggregate_adapted"
	case TypeSubEnum:
		return "enum"
	case TypeSubFunctionType:
		return "function_type"
	case TypeSubCollection:
		return "collection"
	default:
		return "none"
	}
}

type SymbolFlags uint8

const (
	SymbolFlagBuiltin SymbolFlags = 1 << iota
	SymbolFlagNative              // implemented by the host
	SymbolFlagPlaceholder         // stands in for a malformed declaration
	SymbolFlagImported            // declared while analysing an imported unit
)

func (f SymbolFlags) Strings() []string {
	if f == 0 {
		return nil
	}
	labels := make([]string, 0, 4)
	if f&SymbolFlagBuiltin != 0 {
		labels = append(labels, "builtin")
	}
	if f&SymbolFlagNative != 0 {
		labels = append(labels, "native")
	}
	if f&SymbolFlagPlaceholder != 0 {
		labels = append(labels, "placeholder")
	}
	if f&SymbolFlagImported != 0 {
		labels = append(labels, "imported")
	}
	return labels
}

// Symbol describes a named entity bound in a scope. Scope is fixed when the
// symbol is created. Own is set for scoped symbols (functions, types, enum
// types). Original is set for import aliases only.
type Symbol struct {
	Name     source.StringID
	Kind     SymbolKind
	Sub      TypeSub
	Type     types.TypeID
	Scope    ScopeID
	Own      ScopeID
	Decl     ast.NodeID
	Span     source.Span
	Flags    SymbolFlags
	Original SymbolID
}

// Scoped reports whether the symbol owns a scope of its own.
func (s *Symbol) Scoped() bool {
	return s != nil && s.Own.IsValid()
}
