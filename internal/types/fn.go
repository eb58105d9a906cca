package types

import (
	"slices"
	"strconv"
	"strings"
)

// FnInfo stores metadata for function types.
type FnInfo struct {
	Params []TypeID
	Result TypeID
}

// Fn returns the interned function type for the signature. Structurally
// equal signatures yield the identical TypeID.
func (in *Interner) Fn(params []TypeID, result TypeID) TypeID {
	params = slices.Clone(params)
	for i := range params {
		params[i] = in.Canonical(params[i])
	}
	result = in.Canonical(result)
	key := fnKey(params, result)
	if id, ok := in.fnIndex[key]; ok {
		return id
	}
	id := in.NewDetachedFn(params, result)
	in.fnIndex[key] = id
	return id
}

// NewDetachedFn allocates a function type without consulting the intern
// index. Host-registered functions arrive this way; Dedup folds them into
// the canonical instance.
func (in *Interner) NewDetachedFn(params []TypeID, result TypeID) TypeID {
	in.fns = append(in.fns, FnInfo{
		Params: slices.Clone(params),
		Result: result,
	})
	return in.internRaw(Type{Kind: KindFunction, Payload: slot(len(in.fns) - 1)})
}

// FnInfo retrieves function type metadata by TypeID.
func (in *Interner) FnInfo(id TypeID) (*FnInfo, bool) {
	tt, ok := in.Lookup(id)
	if !ok || tt.Kind != KindFunction || int(tt.Payload) >= len(in.fns) {
		return nil, false
	}
	return &in.fns[tt.Payload], true
}

// IsFn reports whether id is a function type.
func (in *Interner) IsFn(id TypeID) bool {
	_, ok := in.FnInfo(id)
	return ok
}

func fnKey(params []TypeID, result TypeID) string {
	var sb strings.Builder
	for i, p := range params {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.FormatUint(uint64(p), 10))
	}
	sb.WriteString("->")
	sb.WriteString(strconv.FormatUint(uint64(result), 10))
	return sb.String()
}
