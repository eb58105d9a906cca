package types

import (
	"fmt"

	"fortio.org/safecast"
)

// Builtins stores TypeIDs of the basic types.
type Builtins struct {
	Int    TypeID
	Float  TypeID
	String TypeID
	Bool   TypeID
	NoType TypeID
	Graph  TypeID
	Entity TypeID
}

// Interner hands out stable TypeIDs. Basic and collection types are interned
// structurally on creation; function types are interned by Fn and may also
// enter detached through NewDetachedFn until Dedup runs.
type Interner struct {
	types    []Type
	index    map[Type]TypeID
	fnIndex  map[string]TypeID
	folded   map[TypeID]TypeID
	builtins Builtins
	fns      []FnInfo
	aggs     []AggregateInfo
	enums    []EnumInfo
}

// NewInterner constructs an interner seeded with the basic types.
func NewInterner() *Interner {
	in := &Interner{
		types:   make([]Type, 1, 64), // index 0 reserved for NoTypeID
		index:   make(map[Type]TypeID, 64),
		fnIndex: make(map[string]TypeID),
		folded:  make(map[TypeID]TypeID),
		fns:     make([]FnInfo, 1),
		aggs:    make([]AggregateInfo, 1),
		enums:   make([]EnumInfo, 1),
	}
	in.builtins.Int = in.Intern(Type{Kind: KindBasic, Basic: BasicInt})
	in.builtins.Float = in.Intern(Type{Kind: KindBasic, Basic: BasicFloat})
	in.builtins.String = in.Intern(Type{Kind: KindBasic, Basic: BasicString})
	in.builtins.Bool = in.Intern(Type{Kind: KindBasic, Basic: BasicBool})
	in.builtins.NoType = in.Intern(Type{Kind: KindBasic, Basic: BasicNoType})
	in.builtins.Graph = in.Intern(Type{Kind: KindBasic, Basic: BasicGraph})
	in.builtins.Entity = in.Intern(Type{Kind: KindBasic, Basic: BasicEntity})
	return in
}

func (in *Interner) Builtins() Builtins {
	return in.builtins
}

// Intern returns the TypeID of a basic or collection descriptor, allocating
// one on first use. Nominal and function descriptors are rejected; use
// their constructors.
func (in *Interner) Intern(t Type) TypeID {
	switch t.Kind {
	case KindBasic, KindList, KindSet, KindMap:
	default:
		return NoTypeID
	}
	t.Elem = in.Canonical(t.Elem)
	t.Key = in.Canonical(t.Key)
	if id, ok := in.index[t]; ok {
		return id
	}
	id := in.internRaw(t)
	in.index[t] = id
	return id
}

func (in *Interner) List(elem TypeID) TypeID    { return in.Intern(MakeList(elem)) }
func (in *Interner) Set(elem TypeID) TypeID     { return in.Intern(MakeSet(elem)) }
func (in *Interner) Map(key, val TypeID) TypeID { return in.Intern(MakeMap(key, val)) }

// internRaw appends the descriptor without consulting any index.
func (in *Interner) internRaw(t Type) TypeID {
	n, err := safecast.Conv[uint32](len(in.types))
	if err != nil {
		panic(fmt.Errorf("len(types) overflow: %w", err))
	}
	in.types = append(in.types, t)
	return TypeID(n)
}

// Canonical returns the instance id was folded into by Dedup, or id.
func (in *Interner) Canonical(id TypeID) TypeID {
	if to, ok := in.folded[id]; ok {
		return to
	}
	return id
}

// Lookup returns the descriptor for a TypeID.
func (in *Interner) Lookup(id TypeID) (Type, bool) {
	if id == NoTypeID || int(id) >= len(in.types) {
		return Type{}, false
	}
	return in.types[id], true
}

// MustLookup panics when id is invalid.
func (in *Interner) MustLookup(id TypeID) Type {
	tt, ok := in.Lookup(id)
	if !ok {
		panic("types: invalid TypeID")
	}
	return tt
}

// Len reports the number of allocated types.
func (in *Interner) Len() int {
	return len(in.types) - 1
}

// IsNoType reports whether id is the placeholder type or absent.
func (in *Interner) IsNoType(id TypeID) bool {
	return id == NoTypeID || id == in.builtins.NoType
}

func slot(n int) uint32 {
	value, err := safecast.Conv[uint32](n)
	if err != nil {
		panic(fmt.Errorf("type payload overflow: %w", err))
	}
	return value
}
