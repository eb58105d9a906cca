package hostdesc

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/BurntSushi/toml"
)

//go:embed default.toml
var defaultTable string

var (
	ErrNoTypes         = errors.New("descriptor table declares no types")
	ErrUndecodedFields = errors.New("unknown keys in descriptor table")
)

var builtinNames = map[string]bool{
	"int": true, "float": true, "string": true, "bool": true,
	"graph": true, "entity": true, "no_type": true,
}

// IsBuiltin reports whether name refers to a basic type known without a
// descriptor.
func IsBuiltin(name string) bool {
	return builtinNames[name]
}

// LoadFile parses and validates a descriptor table stored as TOML.
func LoadFile(path string) (*Table, error) {
	var table Table
	meta, err := toml.DecodeFile(path, &table)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if err := checkMeta(meta); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := table.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &table, nil
}

// Decode parses and validates a descriptor table from r.
func Decode(r io.Reader) (*Table, error) {
	var table Table
	meta, err := toml.NewDecoder(r).Decode(&table)
	if err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}
	if err := checkMeta(meta); err != nil {
		return nil, err
	}
	if err := table.Validate(); err != nil {
		return nil, err
	}
	return &table, nil
}

// Default returns a fresh copy of the game's standard environment.
func Default() *Table {
	table, err := Decode(strings.NewReader(defaultTable))
	if err != nil {
		panic(fmt.Errorf("default descriptor table: %w", err))
	}
	return table
}

func checkMeta(meta toml.MetaData) error {
	if !meta.IsDefined("type") && !meta.IsDefined("function") {
		return ErrNoTypes
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, key := range undecoded {
			keys[i] = key.String()
		}
		return fmt.Errorf("%w: %s", ErrUndecodedFields, strings.Join(keys, ", "))
	}
	return nil
}

// Validate checks names, kinds and type references.
func (t *Table) Validate() error {
	var errs []error
	seen := make(map[string]bool, len(t.Types))
	for i, desc := range t.Types {
		if desc == nil || desc.Name == "" {
			errs = append(errs, fmt.Errorf("type #%d has no name", i))
			continue
		}
		if seen[desc.Name] || IsBuiltin(desc.Name) {
			errs = append(errs, fmt.Errorf("type %q declared twice", desc.Name))
		}
		seen[desc.Name] = true
		switch desc.Kind {
		case KindAggregate, KindAdapted:
			if len(desc.Variants) > 0 {
				errs = append(errs, fmt.Errorf("type %q: only enums have variants", desc.Name))
			}
		case KindEnum:
			if len(desc.Variants) == 0 {
				errs = append(errs, fmt.Errorf("enum %q has no variants", desc.Name))
			}
			if len(desc.Fields) > 0 {
				errs = append(errs, fmt.Errorf("enum %q cannot have fields", desc.Name))
			}
		default:
			errs = append(errs, fmt.Errorf("type %q: unknown kind %q", desc.Name, desc.Kind))
		}
		if desc.Kind != KindAdapted && len(desc.Params) > 0 {
			errs = append(errs, fmt.Errorf("type %q: only adapted types take params", desc.Name))
		}
	}
	t.reindex()

	for _, desc := range t.Types {
		if desc == nil {
			continue
		}
		for _, field := range desc.Fields {
			if field == nil || field.Name == "" {
				errs = append(errs, fmt.Errorf("type %q has an unnamed field", desc.Name))
				continue
			}
			if err := t.checkRef(field.Type); err != nil {
				errs = append(errs, fmt.Errorf("type %q field %q: %w", desc.Name, field.Name, err))
			}
		}
		for _, param := range desc.Params {
			if err := t.checkRef(param); err != nil {
				errs = append(errs, fmt.Errorf("type %q param: %w", desc.Name, err))
			}
		}
	}
	for i, fn := range t.Functions {
		if fn == nil || fn.Name == "" {
			errs = append(errs, fmt.Errorf("function #%d has no name", i))
			continue
		}
		if fn.Receiver != "" {
			if recv, ok := t.Type(fn.Receiver); !ok || recv.Kind == KindEnum {
				errs = append(errs, fmt.Errorf("function %q: receiver %q is not an aggregate", fn.Name, fn.Receiver))
			}
		}
		for _, param := range fn.Params {
			if err := t.checkRef(param); err != nil {
				errs = append(errs, fmt.Errorf("function %q param: %w", fn.Name, err))
			}
		}
		if fn.Returns != "" {
			if err := t.checkRef(fn.Returns); err != nil {
				errs = append(errs, fmt.Errorf("function %q return: %w", fn.Name, err))
			}
		}
	}
	return errors.Join(errs...)
}

func (t *Table) checkRef(s string) error {
	ref, err := ParseRef(s)
	if err != nil {
		return err
	}
	return t.walkRef(ref)
}

func (t *Table) walkRef(ref *Ref) error {
	switch ref.Kind {
	case RefList, RefSet:
		return t.walkRef(ref.Elem)
	case RefMap:
		if err := t.walkRef(ref.Key); err != nil {
			return err
		}
		return t.walkRef(ref.Elem)
	}
	if IsBuiltin(ref.Name) {
		return nil
	}
	if _, ok := t.Type(ref.Name); !ok {
		return fmt.Errorf("unknown type %q", ref.Name)
	}
	return nil
}
