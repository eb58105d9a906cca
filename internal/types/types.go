package types

import "fmt"

// TypeID uniquely identifies a type inside the interner.
type TypeID uint32

// NoTypeID marks the absence of a type.
const NoTypeID TypeID = 0

// Kind enumerates all supported kinds of types.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindBasic
	KindAggregate
	KindAggregateAdapted
	KindFunction
	KindSet
	KindList
	KindMap
	KindEnum
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindBasic:
		return "basic"
	case KindAggregate:
		return "aggregate"
	case KindAggregateAdapted:
		return "aggregate_adapted"
	case KindFunction:
		return "function_type"
	case KindSet:
		return "set_type"
	case KindList:
		return "list_type"
	case KindMap:
		return "map_type"
	case KindEnum:
		return "enum_type"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Nominal reports whether identity, not structure, decides equality.
func (k Kind) Nominal() bool {
	return k == KindAggregate || k == KindAggregateAdapted || k == KindEnum
}

// BasicKind names the built-in scalar types.
type BasicKind uint8

const (
	BasicNone BasicKind = iota
	BasicInt
	BasicFloat
	BasicString
	BasicBool
	BasicNoType // placeholder for unknown or malformed types
	BasicGraph  // task_dependency_graph
	BasicEntity
)

var basicNames = [...]string{
	BasicNone:   "none",
	BasicInt:    "int",
	BasicFloat:  "float",
	BasicString: "string",
	BasicBool:   "bool",
	BasicNoType: "no_type",
	BasicGraph:  "graph",
	BasicEntity: "entity",
}

func (b BasicKind) String() string {
	if int(b) < len(basicNames) {
		return basicNames[b]
	}
	return fmt.Sprintf("BasicKind(%d)", b)
}

// Type is a compact descriptor. Elem is the element of lists and sets and
// the value of maps; Key is the map key. Payload indexes the side tables
// of function, aggregate and enum types.
type Type struct {
	Kind    Kind
	Basic   BasicKind
	Elem    TypeID
	Key     TypeID
	Payload uint32
}

func MakeList(elem TypeID) Type {
	return Type{Kind: KindList, Elem: elem}
}

func MakeSet(elem TypeID) Type {
	return Type{Kind: KindSet, Elem: elem}
}

func MakeMap(key, value TypeID) Type {
	return Type{Kind: KindMap, Key: key, Elem: value}
}
