package types

import (
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Dedup collapses structurally equal composite types onto one canonical
// TypeID and returns the remap from every folded ID to its canonical one.
// Components are rewritten first, so after Dedup structurally equal types
// are identical. Nominal types are never folded.
func (in *Interner) Dedup() map[TypeID]TypeID {
	remap := make(map[TypeID]TypeID)
	canon := func(id TypeID) TypeID {
		if to, ok := remap[id]; ok {
			return to
		}
		return in.Canonical(id)
	}
	buckets := make(map[uint64][]TypeID)

	for idx := 1; idx < len(in.types); idx++ {
		id := TypeID(idx)
		tt := &in.types[idx]
		switch tt.Kind {
		case KindList, KindSet:
			tt.Elem = canon(tt.Elem)
		case KindMap:
			tt.Key = canon(tt.Key)
			tt.Elem = canon(tt.Elem)
		case KindFunction:
			info := &in.fns[tt.Payload]
			for i := range info.Params {
				info.Params[i] = canon(info.Params[i])
			}
			info.Result = canon(info.Result)
		}
		if tt.Kind.Nominal() {
			continue
		}
		key := in.shallowKey(id)
		h := xxhash.Sum64String(key)
		folded := false
		for _, cand := range buckets[h] {
			if in.shallowKey(cand) == key {
				remap[id] = cand
				folded = true
				break
			}
		}
		if !folded {
			buckets[h] = append(buckets[h], id)
		}
	}

	for i := 1; i < len(in.aggs); i++ {
		info := &in.aggs[i]
		for j := range info.Members {
			info.Members[j].Type = canon(info.Members[j].Type)
		}
		for j := range info.Params {
			info.Params[j] = canon(info.Params[j])
		}
	}

	for from, to := range remap {
		in.folded[from] = to
	}
	in.rebuildIndexes()
	return remap
}

func (in *Interner) rebuildIndexes() {
	in.index = make(map[Type]TypeID, len(in.types))
	in.fnIndex = make(map[string]TypeID, len(in.fns))
	for idx := 1; idx < len(in.types); idx++ {
		id := TypeID(idx)
		if _, folded := in.folded[id]; folded {
			continue
		}
		tt := in.types[idx]
		switch tt.Kind {
		case KindBasic, KindList, KindSet, KindMap:
			in.index[tt] = id
		case KindFunction:
			info := in.fns[tt.Payload]
			in.fnIndex[fnKey(info.Params, info.Result)] = id
		}
	}
}

// shallowKey describes a type by its kind and (already canonical)
// component IDs.
func (in *Interner) shallowKey(id TypeID) string {
	tt := in.types[id]
	switch tt.Kind {
	case KindBasic:
		return "B" + strconv.Itoa(int(tt.Basic))
	case KindList:
		return "L" + strconv.FormatUint(uint64(tt.Elem), 10)
	case KindSet:
		return "S" + strconv.FormatUint(uint64(tt.Elem), 10)
	case KindMap:
		return "M" + strconv.FormatUint(uint64(tt.Key), 10) + ":" + strconv.FormatUint(uint64(tt.Elem), 10)
	case KindFunction:
		info := in.fns[tt.Payload]
		return "F" + fnKey(info.Params, info.Result)
	}
	return "N" + strconv.FormatUint(uint64(id), 10)
}

// deepKey describes a type by its full structure, independent of which
// duplicate instances it is built from.
func (in *Interner) deepKey(sb *strings.Builder, id TypeID, depth int) {
	tt, ok := in.Lookup(id)
	if !ok || depth > 16 {
		sb.WriteByte('?')
		return
	}
	switch tt.Kind {
	case KindBasic:
		sb.WriteString(tt.Basic.String())
	case KindList, KindSet:
		sb.WriteString(tt.Kind.String())
		sb.WriteByte('(')
		in.deepKey(sb, tt.Elem, depth+1)
		sb.WriteByte(')')
	case KindMap:
		sb.WriteString("map(")
		in.deepKey(sb, tt.Key, depth+1)
		sb.WriteByte(',')
		in.deepKey(sb, tt.Elem, depth+1)
		sb.WriteByte(')')
	case KindFunction:
		info := in.fns[tt.Payload]
		sb.WriteString("fn(")
		for i, p := range info.Params {
			if i > 0 {
				sb.WriteByte(',')
			}
			in.deepKey(sb, p, depth+1)
		}
		sb.WriteString(")->")
		in.deepKey(sb, info.Result, depth+1)
	default:
		sb.WriteString("nominal#")
		sb.WriteString(strconv.FormatUint(uint64(id), 10))
	}
}

// Hash returns the structural hash of a type. Structurally equal types hash
// equally whether or not Dedup has run.
func (in *Interner) Hash(id TypeID) uint64 {
	var sb strings.Builder
	in.deepKey(&sb, id, 0)
	return xxhash.Sum64String(sb.String())
}

// Equal reports structural equality.
func (in *Interner) Equal(a, b TypeID) bool {
	if a == b {
		return true
	}
	var sa, sb strings.Builder
	in.deepKey(&sa, a, 0)
	in.deepKey(&sb, b, 0)
	return sa.String() == sb.String()
}
