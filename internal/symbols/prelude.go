package symbols

import (
	"questdsl/internal/types"
)

// BuiltinTypes returns prelude entries for the basic types of in.
func BuiltinTypes(in *types.Interner) []PreludeEntry {
	b := in.Builtins()
	return []PreludeEntry{
		{Name: "int", Kind: SymbolType, Sub: TypeSubBasic, Type: b.Int},
		{Name: "float", Kind: SymbolType, Sub: TypeSubBasic, Type: b.Float},
		{Name: "string", Kind: SymbolType, Sub: TypeSubBasic, Type: b.String},
		{Name: "bool", Kind: SymbolType, Sub: TypeSubBasic, Type: b.Bool},
		{Name: "graph", Kind: SymbolType, Sub: TypeSubBasic, Type: b.Graph},
		{Name: "entity", Kind: SymbolType, Sub: TypeSubBasic, Type: b.Entity},
	}
}
