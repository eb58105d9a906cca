// Package hostdesc holds the statically declared descriptor table the
// embedding application hands to the analyser: the aggregate, adapted and
// enum types it exposes to DSL programs and its native functions.
package hostdesc

type Kind string

const (
	KindAggregate Kind = "aggregate"
	KindAdapted   Kind = "adapted"
	KindEnum      Kind = "enum"
)

// Table is the complete host environment description.
type Table struct {
	Types     []*TypeDesc `toml:"type"`
	Functions []*FuncDesc `toml:"function"`

	index map[string]*TypeDesc
}

// TypeDesc describes one host type. Fields apply to aggregate and adapted
// types, Variants to enums, Params to adapted types (the host builder's
// parameter list).
type TypeDesc struct {
	Name     string       `toml:"name"`
	Kind     Kind         `toml:"kind"`
	Task     bool         `toml:"task"`
	Fields   []*FieldDesc `toml:"field"`
	Variants []string     `toml:"variants"`
	Params   []string     `toml:"params"`
}

// FieldDesc maps a DSL member to the host field backing it.
type FieldDesc struct {
	Name string `toml:"name"`
	Host string `toml:"host"`
	Type string `toml:"type"`
}

// HostField returns the backing host field name, defaulting to Name.
func (f *FieldDesc) HostField() string {
	if f.Host != "" {
		return f.Host
	}
	return f.Name
}

// FuncDesc describes a native function. A non-empty Receiver makes it a
// method of that aggregate type.
type FuncDesc struct {
	Name     string   `toml:"name"`
	Receiver string   `toml:"receiver"`
	Params   []string `toml:"params"`
	Returns  string   `toml:"returns"`
}

// Type finds a type descriptor by name.
func (t *Table) Type(name string) (*TypeDesc, bool) {
	if t == nil {
		return nil, false
	}
	if t.index == nil {
		t.reindex()
	}
	desc, ok := t.index[name]
	return desc, ok
}

func (t *Table) reindex() {
	t.index = make(map[string]*TypeDesc, len(t.Types))
	for _, desc := range t.Types {
		if desc == nil {
			continue
		}
		if _, dup := t.index[desc.Name]; !dup {
			t.index[desc.Name] = desc
		}
	}
}

// Merge appends the descriptors of other. Later duplicates are rejected by
// Validate.
func (t *Table) Merge(other *Table) {
	if other == nil {
		return
	}
	t.Types = append(t.Types, other.Types...)
	t.Functions = append(t.Functions, other.Functions...)
	t.index = nil
}
