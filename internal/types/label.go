package types

import (
	"strings"
)

// Label returns the DSL name of a type: `int`, `int[]`, `int<>`,
// `[string -> int]`, `$fn(int, float) -> int$`, or the aggregate/enum name.
func Label(typesIn *Interner, id TypeID) string {
	return labelDepth(typesIn, id, 0)
}

func labelDepth(typesIn *Interner, id TypeID, depth int) string {
	if id == NoTypeID || typesIn == nil {
		return "?"
	}
	if depth > 6 {
		return "..."
	}
	tt, ok := typesIn.Lookup(id)
	if !ok {
		return "?"
	}
	switch tt.Kind {
	case KindBasic:
		return tt.Basic.String()
	case KindList:
		return labelDepth(typesIn, tt.Elem, depth+1) + "[]"
	case KindSet:
		return labelDepth(typesIn, tt.Elem, depth+1) + "<>"
	case KindMap:
		return "[" + labelDepth(typesIn, tt.Key, depth+1) + " -> " + labelDepth(typesIn, tt.Elem, depth+1) + "]"
	case KindFunction:
		info, _ := typesIn.FnInfo(id)
		parts := make([]string, len(info.Params))
		for i, p := range info.Params {
			parts[i] = labelDepth(typesIn, p, depth+1)
		}
		ret := "none"
		if info.Result != NoTypeID {
			ret = labelDepth(typesIn, info.Result, depth+1)
		}
		return "$fn(" + strings.Join(parts, ", ") + ") -> " + ret + "$"
	case KindAggregate, KindAggregateAdapted:
		if info, ok := typesIn.AggregateInfo(id); ok {
			return info.Name
		}
	case KindEnum:
		if info, ok := typesIn.EnumInfo(id); ok {
			return info.Name
		}
	}
	return "?"
}
