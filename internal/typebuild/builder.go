// Package typebuild synthesises DSL types and native function symbols from
// a host descriptor table.
package typebuild

import (
	"errors"
	"fmt"

	"questdsl/internal/hostdesc"
	"questdsl/internal/symbols"
	"questdsl/internal/types"
)

// Builder declares host types into the Global scope of a table. Results
// are memoised by descriptor identity: asking twice for the same
// *hostdesc.TypeDesc yields the same TypeID.
type Builder struct {
	res   *symbols.Resolver
	table *symbols.Table
	types *types.Interner
	host  *hostdesc.Table
	memo  map[*hostdesc.TypeDesc]types.TypeID
}

func New(res *symbols.Resolver, in *types.Interner, host *hostdesc.Table) *Builder {
	if host == nil {
		host = &hostdesc.Table{}
	}
	return &Builder{
		res:   res,
		table: res.Table(),
		types: in,
		host:  host,
		memo:  make(map[*hostdesc.TypeDesc]types.TypeID),
	}
}

// BuildAll synthesises every type of the table, then declares its native
// functions and methods.
func (b *Builder) BuildAll() error {
	var errs []error
	for _, desc := range b.host.Types {
		if _, err := b.TypeFor(desc); err != nil {
			errs = append(errs, err)
		}
	}
	for _, fn := range b.host.Functions {
		var err error
		if fn.Receiver != "" {
			_, err = b.BindMethod(fn.Receiver, fn)
		} else {
			_, err = b.Function(fn)
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// TypeFor returns the DSL type of desc, declaring it on first use.
func (b *Builder) TypeFor(desc *hostdesc.TypeDesc) (types.TypeID, error) {
	if desc == nil {
		return types.NoTypeID, fmt.Errorf("typebuild: nil descriptor")
	}
	if id, ok := b.memo[desc]; ok {
		return id, nil
	}

	var (
		id  types.TypeID
		sub symbols.TypeSub
	)
	switch desc.Kind {
	case hostdesc.KindEnum:
		id = b.types.NewEnum(desc.Name, desc, desc.Variants)
		sub = symbols.TypeSubEnum
	case hostdesc.KindAdapted:
		params, err := b.refs(desc.Params)
		if err != nil {
			return types.NoTypeID, fmt.Errorf("type %q: %w", desc.Name, err)
		}
		id = b.types.NewAdapted(desc.Name, desc, params)
		sub = symbols.TypeSubAggregateAdapted
	case hostdesc.KindAggregate:
		id = b.types.NewAggregate(desc.Name, desc)
		sub = symbols.TypeSubAggregate
	default:
		return types.NoTypeID, fmt.Errorf("type %q: unknown kind %q", desc.Name, desc.Kind)
	}
	// memoise before members so self references terminate
	b.memo[desc] = id

	symID, ok := b.res.DeclareIn(b.table.Global, symbols.Symbol{
		Name:  b.table.Strings.Intern(desc.Name),
		Kind:  symbols.SymbolType,
		Sub:   sub,
		Type:  id,
		Flags: symbols.SymbolFlagBuiltin | symbols.SymbolFlagNative,
	})
	if !ok {
		return id, fmt.Errorf("type %q collides with an existing global", desc.Name)
	}
	b.table.RegisterTypeSymbol(id, symID)
	scope := b.table.NewScope(symbols.ScopeType, b.table.Global, symID, 0, b.table.Symbols.Get(symID).Span)
	b.table.SetOwnScope(symID, scope)

	if desc.Kind == hostdesc.KindEnum {
		for _, variant := range desc.Variants {
			if _, ok := b.res.DeclareIn(scope, symbols.Symbol{
				Name:  b.table.Strings.Intern(variant),
				Kind:  symbols.SymbolEnumVariant,
				Type:  id,
				Flags: symbols.SymbolFlagBuiltin,
			}); !ok {
				return id, fmt.Errorf("enum %q: duplicate variant %q", desc.Name, variant)
			}
		}
		return id, nil
	}

	members := make([]types.Member, 0, len(desc.Fields))
	var errs []error
	for _, field := range desc.Fields {
		ft, err := b.TypeForRef(field.Type)
		if err != nil {
			errs = append(errs, fmt.Errorf("type %q field %q: %w", desc.Name, field.Name, err))
			ft = b.types.Builtins().NoType
		}
		members = append(members, types.Member{Name: field.Name, Field: field, Type: ft})
		if _, ok := b.res.DeclareIn(scope, symbols.Symbol{
			Name:  b.table.Strings.Intern(field.Name),
			Kind:  symbols.SymbolVariable,
			Type:  ft,
			Flags: symbols.SymbolFlagBuiltin,
		}); !ok {
			errs = append(errs, fmt.Errorf("type %q: duplicate field %q", desc.Name, field.Name))
		}
	}
	b.types.SetMembers(id, members)
	return id, errors.Join(errs...)
}

// TypeForRef resolves a textual type reference.
func (b *Builder) TypeForRef(s string) (types.TypeID, error) {
	ref, err := hostdesc.ParseRef(s)
	if err != nil {
		return types.NoTypeID, err
	}
	return b.typeForRef(ref)
}

func (b *Builder) typeForRef(ref *hostdesc.Ref) (types.TypeID, error) {
	switch ref.Kind {
	case hostdesc.RefList, hostdesc.RefSet:
		elem, err := b.typeForRef(ref.Elem)
		if err != nil {
			return types.NoTypeID, err
		}
		if ref.Kind == hostdesc.RefList {
			return b.types.List(elem), nil
		}
		return b.types.Set(elem), nil
	case hostdesc.RefMap:
		key, err := b.typeForRef(ref.Key)
		if err != nil {
			return types.NoTypeID, err
		}
		val, err := b.typeForRef(ref.Elem)
		if err != nil {
			return types.NoTypeID, err
		}
		return b.types.Map(key, val), nil
	}
	if id, ok := b.basic(ref.Name); ok {
		return id, nil
	}
	desc, ok := b.host.Type(ref.Name)
	if !ok {
		return types.NoTypeID, fmt.Errorf("unknown type %q", ref.Name)
	}
	return b.TypeFor(desc)
}

func (b *Builder) basic(name string) (types.TypeID, bool) {
	bt := b.types.Builtins()
	switch name {
	case "int":
		return bt.Int, true
	case "float":
		return bt.Float, true
	case "string":
		return bt.String, true
	case "bool":
		return bt.Bool, true
	case "graph":
		return bt.Graph, true
	case "entity":
		return bt.Entity, true
	case "no_type":
		return bt.NoType, true
	}
	return types.NoTypeID, false
}

func (b *Builder) refs(list []string) ([]types.TypeID, error) {
	out := make([]types.TypeID, 0, len(list))
	for _, s := range list {
		id, err := b.TypeForRef(s)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}

// signature builds the function type of a native. Host functions enter the
// interner detached; the analyser's dedup pass folds them.
func (b *Builder) signature(fn *hostdesc.FuncDesc) (types.TypeID, error) {
	params, err := b.refs(fn.Params)
	if err != nil {
		return types.NoTypeID, fmt.Errorf("function %q: %w", fn.Name, err)
	}
	ret := types.NoTypeID
	if fn.Returns != "" {
		if ret, err = b.TypeForRef(fn.Returns); err != nil {
			return types.NoTypeID, fmt.Errorf("function %q: %w", fn.Name, err)
		}
	}
	return b.types.NewDetachedFn(params, ret), nil
}

// Function declares a native function in Global.
func (b *Builder) Function(fn *hostdesc.FuncDesc) (symbols.SymbolID, error) {
	sig, err := b.signature(fn)
	if err != nil {
		return symbols.NoSymbolID, err
	}
	id, ok := b.res.DeclareIn(b.table.Global, symbols.Symbol{
		Name:  b.table.Strings.Intern(fn.Name),
		Kind:  symbols.SymbolFunction,
		Type:  sig,
		Flags: symbols.SymbolFlagBuiltin | symbols.SymbolFlagNative,
	})
	if !ok {
		return symbols.NoSymbolID, fmt.Errorf("function %q collides with an existing global", fn.Name)
	}
	return id, nil
}

// BindMethod declares fn as a method in the member scope of the aggregate
// named typeName.
func (b *Builder) BindMethod(typeName string, fn *hostdesc.FuncDesc) (symbols.SymbolID, error) {
	desc, ok := b.host.Type(typeName)
	if !ok {
		return symbols.NoSymbolID, fmt.Errorf("method %q: unknown receiver %q", fn.Name, typeName)
	}
	recv, err := b.TypeFor(desc)
	if err != nil {
		return symbols.NoSymbolID, err
	}
	typeSym, ok := b.table.TypeSymbol(recv)
	if !ok {
		return symbols.NoSymbolID, fmt.Errorf("method %q: receiver %q has no symbol", fn.Name, typeName)
	}
	if desc.Kind == hostdesc.KindEnum {
		return symbols.NoSymbolID, fmt.Errorf("method %q: enum %q cannot carry methods", fn.Name, typeName)
	}
	sig, err := b.signature(fn)
	if err != nil {
		return symbols.NoSymbolID, err
	}
	scope := b.table.Symbols.Get(typeSym).Own
	id, ok := b.res.DeclareIn(scope, symbols.Symbol{
		Name:  b.table.Strings.Intern(fn.Name),
		Kind:  symbols.SymbolFunction,
		Type:  sig,
		Flags: symbols.SymbolFlagBuiltin | symbols.SymbolFlagNative,
	})
	if !ok {
		return symbols.NoSymbolID, fmt.Errorf("method %q collides with a member of %q", fn.Name, typeName)
	}
	return id, nil
}

// Task reports whether typ was synthesised from a descriptor flagged as a
// task type.
func Task(in *types.Interner, typ types.TypeID) bool {
	info, ok := in.AggregateInfo(typ)
	return ok && info.Origin != nil && info.Origin.Task
}
