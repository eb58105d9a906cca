package types

import (
	"slices"

	"questdsl/internal/hostdesc"
)

// Member is one DSL-visible member of an aggregate. Field is the host
// field backing it; nil for members of DSL-defined aggregates.
type Member struct {
	Name  string
	Field *hostdesc.FieldDesc
	Type  TypeID
}

// AggregateInfo describes aggregate and adapted types. Origin is set only
// for types synthesised from a host descriptor. Params is the builder
// parameter list of adapted types.
type AggregateInfo struct {
	Name    string
	Origin  *hostdesc.TypeDesc
	Members []Member
	Params  []TypeID
}

// Member finds a member by DSL name.
func (a *AggregateInfo) Member(name string) (Member, bool) {
	for _, m := range a.Members {
		if m.Name == name {
			return m, true
		}
	}
	return Member{}, false
}

// EnumInfo describes an enum type.
type EnumInfo struct {
	Name     string
	Origin   *hostdesc.TypeDesc
	Variants []string
}

// NewAggregate allocates a nominal aggregate type. Members are usually set
// later with SetMembers so that recursive references can resolve.
func (in *Interner) NewAggregate(name string, origin *hostdesc.TypeDesc) TypeID {
	in.aggs = append(in.aggs, AggregateInfo{Name: name, Origin: origin})
	return in.internRaw(Type{Kind: KindAggregate, Payload: slot(len(in.aggs) - 1)})
}

// NewAdapted allocates an aggregate type built by a host builder taking
// params.
func (in *Interner) NewAdapted(name string, origin *hostdesc.TypeDesc, params []TypeID) TypeID {
	in.aggs = append(in.aggs, AggregateInfo{Name: name, Origin: origin, Params: slices.Clone(params)})
	return in.internRaw(Type{Kind: KindAggregateAdapted, Payload: slot(len(in.aggs) - 1)})
}

// SetMembers replaces the member list of an aggregate type.
func (in *Interner) SetMembers(id TypeID, members []Member) {
	if info, ok := in.AggregateInfo(id); ok {
		info.Members = slices.Clone(members)
	}
}

// AggregateInfo returns metadata of aggregate and adapted types.
func (in *Interner) AggregateInfo(id TypeID) (*AggregateInfo, bool) {
	tt, ok := in.Lookup(id)
	if !ok || (tt.Kind != KindAggregate && tt.Kind != KindAggregateAdapted) || int(tt.Payload) >= len(in.aggs) {
		return nil, false
	}
	return &in.aggs[tt.Payload], true
}

// NewEnum allocates a nominal enum type.
func (in *Interner) NewEnum(name string, origin *hostdesc.TypeDesc, variants []string) TypeID {
	in.enums = append(in.enums, EnumInfo{Name: name, Origin: origin, Variants: slices.Clone(variants)})
	return in.internRaw(Type{Kind: KindEnum, Payload: slot(len(in.enums) - 1)})
}

func (in *Interner) EnumInfo(id TypeID) (*EnumInfo, bool) {
	tt, ok := in.Lookup(id)
	if !ok || tt.Kind != KindEnum || int(tt.Payload) >= len(in.enums) {
		return nil, false
	}
	return &in.enums[tt.Payload], true
}

// IsEnum reports whether id is an enum type.
func (in *Interner) IsEnum(id TypeID) bool {
	_, ok := in.EnumInfo(id)
	return ok
}
