package ast

// Kind selects the child layout of a Node. Unless noted otherwise Kids is
// empty and Name is unused.
type Kind uint8

const (
	KindInvalid Kind = iota

	// Program: Kids = top-level declarations.
	KindProgram
	// Error: placeholder for a fragment the parser could not make sense of.
	// Lit.Str holds the parser's message.
	KindError

	// FuncDef: Name = function name, Kids = [ret TypeRef|0, body Block, params...].
	KindFuncDef
	// ParamDef: Name = parameter name, Kids = [TypeRef].
	KindParamDef
	// ObjectDef: Name = object name, Kids = [type Ident, PropertyDef...].
	KindObjectDef
	// PropertyDef: Name = property name, Kids = [value expr].
	KindPropertyDef
	// PrototypeDef ("entity_type"): Name = prototype name, Kids = ComponentDef...
	KindPrototypeDef
	// ComponentDef: Name = component type name, Kids = PropertyDef...
	KindComponentDef
	// ItemTypeDef ("item_type"): Name = item type name, Kids = PropertyDef...
	KindItemTypeDef
	// GraphDef: Name = graph name, Kids = GraphEdge | GraphNode statements.
	KindGraphDef
	// GraphEdge: Kids = [GraphIDList, GraphIDList, ..., EdgeAttr...]; a chain
	// a -> b -> c has three lists.
	KindGraphEdge
	// GraphNode: a single node statement, Kids = [Ident, EdgeAttr...].
	KindGraphNode
	// GraphIDList: Kids = Ident...
	KindGraphIDList
	// EdgeAttr: Name = attribute key, Kids = [value Ident].
	KindEdgeAttr
	// Import: Name = imported symbol, Lit.Str = unit path, Kids = [alias Ident|0].
	KindImport

	// Block: Kids = statements.
	KindBlock
	// VarDecl: Name = variable name, Kids = [TypeRef|0, init expr|0].
	KindVarDecl
	// Assign: Kids = [target expr, value expr].
	KindAssign
	// If: Kids = [cond, then Block, else Block|If|0].
	KindIf
	// While: Kids = [cond, body Block].
	KindWhile
	// ForEach: Kids = [LoopVar, iterable expr, body Block].
	KindForEach
	// CountingFor: Kids = [LoopVar, iterable expr, counter LoopVar, body Block].
	KindCountingFor
	// LoopVar: Name = variable name, Kids = [TypeRef|0].
	KindLoopVar
	// Return: Kids = [expr] or empty.
	KindReturn

	// Call: Kids = [callee Ident|Member, args...].
	KindCall
	// Member: Name = member name, Kids = [receiver expr].
	KindMember
	// Ident: Name = identifier.
	KindIdent
	// Binary: Lit.Str = operator, Kids = [lhs, rhs].
	KindBinary
	// Unary: Lit.Str = operator, Kids = [operand].
	KindUnary
	KindIntLit
	KindFloatLit
	KindStringLit
	KindBoolLit
	// ListLit / SetLit: Kids = elements.
	KindListLit
	KindSetLit

	// TypeRef: Name = type name.
	KindTypeRef
	// ListTypeRef / SetTypeRef: Kids = [element TypeRef].
	KindListTypeRef
	KindSetTypeRef
	// MapTypeRef: Kids = [key TypeRef, value TypeRef].
	KindMapTypeRef
)

var kindNames = [...]string{
	KindInvalid:      "invalid",
	KindProgram:      "program",
	KindError:        "error",
	KindFuncDef:      "func_def",
	KindParamDef:     "param_def",
	KindObjectDef:    "object_def",
	KindPropertyDef:  "property_def",
	KindPrototypeDef: "prototype_def",
	KindComponentDef: "component_def",
	KindItemTypeDef:  "item_type_def",
	KindGraphDef:     "graph_def",
	KindGraphEdge:    "graph_edge",
	KindGraphNode:    "graph_node",
	KindGraphIDList:  "graph_id_list",
	KindEdgeAttr:     "edge_attr",
	KindImport:       "import",
	KindBlock:        "block",
	KindVarDecl:      "var_decl",
	KindAssign:       "assign",
	KindIf:           "if",
	KindWhile:        "while",
	KindForEach:      "for_each",
	KindCountingFor:  "counting_for",
	KindLoopVar:      "loop_var",
	KindReturn:       "return",
	KindCall:         "call",
	KindMember:       "member",
	KindIdent:        "ident",
	KindBinary:       "binary",
	KindUnary:        "unary",
	KindIntLit:       "int_lit",
	KindFloatLit:     "float_lit",
	KindStringLit:    "string_lit",
	KindBoolLit:      "bool_lit",
	KindListLit:      "list_lit",
	KindSetLit:       "set_lit",
	KindTypeRef:      "type_ref",
	KindListTypeRef:  "list_type_ref",
	KindSetTypeRef:   "set_type_ref",
	KindMapTypeRef:   "map_type_ref",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return "invalid"
}

// IsExpr reports whether nodes of this kind produce a value.
func (k Kind) IsExpr() bool {
	switch k {
	case KindCall, KindMember, KindIdent, KindBinary, KindUnary,
		KindIntLit, KindFloatLit, KindStringLit, KindBoolLit,
		KindListLit, KindSetLit:
		return true
	}
	return false
}

// IsTypeRef reports whether nodes of this kind name a type.
func (k Kind) IsTypeRef() bool {
	switch k {
	case KindTypeRef, KindListTypeRef, KindSetTypeRef, KindMapTypeRef:
		return true
	}
	return false
}
