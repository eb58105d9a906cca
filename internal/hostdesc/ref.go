package hostdesc

import (
	"fmt"
	"strings"
	"unicode"
)

type RefKind uint8

const (
	RefNamed RefKind = iota
	RefList
	RefSet
	RefMap
)

// Ref is a parsed type reference: `int`, `point`, `string[]`, `int<>`,
// `[string -> int[]]`.
type Ref struct {
	Kind RefKind
	Name string
	Elem *Ref
	Key  *Ref
}

func (r *Ref) String() string {
	switch r.Kind {
	case RefList:
		return r.Elem.String() + "[]"
	case RefSet:
		return r.Elem.String() + "<>"
	case RefMap:
		return "[" + r.Key.String() + " -> " + r.Elem.String() + "]"
	}
	return r.Name
}

// ParseRef parses a type reference. Collection suffixes bind loosest, so
// `[string -> int][]` is a list of maps.
func ParseRef(s string) (*Ref, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty type reference")
	}
	if strings.HasSuffix(s, "[]") {
		elem, err := ParseRef(s[:len(s)-2])
		if err != nil {
			return nil, err
		}
		return &Ref{Kind: RefList, Elem: elem}, nil
	}
	if strings.HasSuffix(s, "<>") {
		elem, err := ParseRef(s[:len(s)-2])
		if err != nil {
			return nil, err
		}
		return &Ref{Kind: RefSet, Elem: elem}, nil
	}
	if strings.HasPrefix(s, "[") {
		if !strings.HasSuffix(s, "]") {
			return nil, fmt.Errorf("type reference %q: unterminated map", s)
		}
		inner := s[1 : len(s)-1]
		arrow := topLevelArrow(inner)
		if arrow < 0 {
			return nil, fmt.Errorf("type reference %q: map without '->'", s)
		}
		key, err := ParseRef(inner[:arrow])
		if err != nil {
			return nil, err
		}
		val, err := ParseRef(inner[arrow+2:])
		if err != nil {
			return nil, err
		}
		return &Ref{Kind: RefMap, Key: key, Elem: val}, nil
	}
	for _, r := range s {
		if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return nil, fmt.Errorf("type reference %q: unexpected %q", s, r)
		}
	}
	return &Ref{Kind: RefNamed, Name: s}, nil
}

// topLevelArrow finds "->" outside nested brackets.
func topLevelArrow(s string) int {
	depth := 0
	for i := 0; i < len(s)-1; i++ {
		switch s[i] {
		case '[':
			depth++
		case ']':
			depth--
		case '-':
			if depth == 0 && s[i+1] == '>' {
				return i
			}
		}
	}
	return -1
}
