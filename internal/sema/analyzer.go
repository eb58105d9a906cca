package sema

import (
	"context"
	"errors"
	"fmt"

	"questdsl/internal/ast"
	"questdsl/internal/diag"
	"questdsl/internal/hostdesc"
	"questdsl/internal/source"
	"questdsl/internal/symbols"
	"questdsl/internal/trace"
	"questdsl/internal/typebuild"
	"questdsl/internal/types"
)

// Environment is what the embedding application provides before analysis:
// the host descriptor table and any extra native functions.
type Environment struct {
	Host      *hostdesc.Table
	Functions []*hostdesc.FuncDesc
}

// DefaultEnvironment returns the game's standard descriptor table.
func DefaultEnvironment() *Environment {
	return &Environment{Host: hostdesc.Default()}
}

// Options configures one Analyzer.
type Options struct {
	Env    *Environment
	Loader Loader
	// Reporter receives every diagnostic in addition to the result bag.
	Reporter       diag.Reporter
	MaxDiagnostics int
	Rules          []Rule
	Files          *source.FileSet
	// Nodes is the arena units are adopted into. Units built directly in it
	// keep their node IDs.
	Nodes *ast.Nodes
}

// Analyzer is the context object of one compilation run. It is not safe
// for concurrent use; the Result it produces is.
type Analyzer struct {
	opts     Options
	files    *source.FileSet
	nodes    *ast.Nodes
	table    *symbols.Table
	types    *types.Interner
	bag      *diag.Bag
	reporter diag.Reporter
	global   *symbols.Resolver
	builder  *typebuild.Builder

	exprTypes map[ast.NodeID]types.TypeID
	units     map[string]*unitState
	order     []*unitState
	active    map[string]bool

	ready bool
	used  bool
}

type unitState struct {
	unit     *ast.Unit
	scope    symbols.ScopeID
	imported bool
}

var errAnalyzerUsed = errors.New("sema: analyzer already ran")

func NewAnalyzer(opts Options) *Analyzer {
	files := opts.Files
	if files == nil {
		files = source.NewFileSet()
	}
	maxDiag := opts.MaxDiagnostics
	if maxDiag <= 0 {
		maxDiag = 1024
	}
	bag := diag.NewBag(maxDiag)
	var sink diag.Reporter = diag.BagReporter{Bag: bag}
	if opts.Reporter != nil {
		sink = teeReporter{sink, opts.Reporter}
	}
	nodes := opts.Nodes
	if nodes == nil {
		nodes = ast.NewNodes(0)
	}
	in := types.NewInterner()
	table := symbols.NewTable(symbols.Hints{Scopes: 64, Symbols: 256}, nil)
	return &Analyzer{
		opts:      opts,
		files:     files,
		nodes:     nodes,
		table:     table,
		types:     in,
		bag:       bag,
		reporter:  diag.NewDedupReporter(sink),
		exprTypes: make(map[ast.NodeID]types.TypeID),
		units:     make(map[string]*unitState),
		active:    make(map[string]bool),
	}
}

type teeReporter []diag.Reporter

func (t teeReporter) Report(d diag.Diagnostic) {
	for _, r := range t {
		r.Report(d)
	}
}

// Types exposes the interner so hosts can build signatures for DeclareNative.
func (a *Analyzer) Types() *types.Interner { return a.types }

func (a *Analyzer) Table() *symbols.Table { return a.table }

// Setup installs the prelude, the host types and the native functions.
// Analyze calls it on demand.
func (a *Analyzer) Setup() error {
	if a.ready {
		return nil
	}
	a.ready = true
	a.global = symbols.NewResolver(a.table, a.table.Global, symbols.ResolverOptions{
		Reporter: a.reporter,
		Prelude:  symbols.BuiltinTypes(a.types),
	})
	var host *hostdesc.Table
	if a.opts.Env != nil {
		host = a.opts.Env.Host
	}
	a.builder = typebuild.New(a.global, a.types, host)
	if err := a.builder.BuildAll(); err != nil {
		return fmt.Errorf("sema: host descriptors: %w", err)
	}
	if a.opts.Env != nil {
		var errs []error
		for _, fn := range a.opts.Env.Functions {
			var err error
			if fn.Receiver != "" {
				_, err = a.builder.BindMethod(fn.Receiver, fn)
			} else {
				_, err = a.builder.Function(fn)
			}
			errs = append(errs, err)
		}
		if err := errors.Join(errs...); err != nil {
			return fmt.Errorf("sema: native functions: %w", err)
		}
	}
	return nil
}

// DeclareNative registers a host function with a signature built on
// Types(). The signature may be a detached function type; the dedup pass
// folds it onto the canonical instance.
func (a *Analyzer) DeclareNative(name string, sig types.TypeID) (symbols.SymbolID, error) {
	if err := a.Setup(); err != nil {
		return symbols.NoSymbolID, err
	}
	if !a.types.IsFn(sig) {
		return symbols.NoSymbolID, fmt.Errorf("sema: native %q: %s is not a function type", name, types.Label(a.types, sig))
	}
	id, ok := a.global.DeclareIn(a.table.Global, symbols.Symbol{
		Name:  a.table.Strings.Intern(name),
		Kind:  symbols.SymbolFunction,
		Type:  sig,
		Flags: symbols.SymbolFlagBuiltin | symbols.SymbolFlagNative,
	})
	if !ok {
		return symbols.NoSymbolID, fmt.Errorf("sema: native %q collides with an existing global", name)
	}
	return id, nil
}

// Analyze runs the whole pipeline over unit and the units it imports. An
// Analyzer runs once; afterwards its table is frozen.
func (a *Analyzer) Analyze(ctx context.Context, unit *ast.Unit) (*Result, error) {
	if a.used {
		return nil, errAnalyzerUsed
	}
	a.used = true
	if unit == nil {
		return nil, errors.New("sema: nil unit")
	}
	if err := a.Setup(); err != nil {
		return nil, err
	}

	tracer := trace.FromContext(ctx)
	span := trace.Begin(tracer, trace.ScopePass, "sema", trace.ParentFrom(ctx))
	defer span.End("")

	st, err := a.analyzeUnit(ctx, unit, false, span.ID())
	if err != nil {
		var fatal *FatalError
		if errors.As(err, &fatal) {
			fatal.Diagnostics, fatal.Files = a.bag, a.files
		}
		return nil, err
	}

	dedupSpan := trace.Begin(tracer, trace.ScopePass, "sema.dedup", span.ID())
	a.dedupTypes()
	dedupSpan.End("")

	validateSpan := trace.Begin(tracer, trace.ScopePass, "sema.validate", span.ID())
	a.validate()
	validateSpan.End("")

	a.table.Freeze()

	res := &Result{
		Table:       a.table,
		Types:       a.types,
		Nodes:       a.nodes,
		Files:       a.files,
		Unit:        st.unit,
		FileScope:   st.scope,
		ExprTypes:   a.exprTypes,
		Diagnostics: a.bag,
		Failed:      a.bag.HasErrors(),
	}
	for _, imp := range a.order {
		if imp.imported {
			res.Imports = append(res.Imports, imp.unit)
		}
	}
	return res, nil
}

// analyzeUnit adopts unit into the shared arena and runs both resolution
// passes over it. Imports are analysed recursively from the declaration
// pass.
func (a *Analyzer) analyzeUnit(ctx context.Context, unit *ast.Unit, imported bool, parent uint64) (*unitState, error) {
	if st, ok := a.units[unit.Path]; ok && unit.Path != "" {
		return st, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	unit = a.nodes.Adopt(unit)
	if unit.File == source.NoFileID {
		unit.File = a.files.AddVirtual(unit.Path, nil)
		a.stampFile(unit)
	}
	root := a.nodes.Get(unit.Root)
	if root == nil || root.Kind != ast.KindProgram {
		return nil, fmt.Errorf("sema: unit %q has no program node", unit.Path)
	}

	span := trace.Begin(trace.FromContext(ctx), trace.ScopeUnit, "sema.unit", parent).WithExtra("path", unit.Path)
	defer span.End("")

	st := &unitState{
		unit:     unit,
		scope:    a.table.FileRoot(unit.File, unit.Root, root.Span),
		imported: imported,
	}
	if unit.Path != "" {
		a.units[unit.Path] = st
		a.active[unit.Path] = true
		defer delete(a.active, unit.Path)
	}

	p := newUnitPass(ctx, a, st, span.ID())
	if err := p.declare(); err != nil {
		if unit.Path != "" {
			delete(a.units, unit.Path)
		}
		return nil, err
	}
	p.resolve()
	a.order = append(a.order, st)
	return st, nil
}

// stampFile assigns the unit's file to spans the producer left without one.
func (a *Analyzer) stampFile(unit *ast.Unit) {
	a.nodes.Walk(unit.Root, func(_ ast.NodeID, node *ast.Node) bool {
		if node.Span.File == source.NoFileID {
			node.Span.File = unit.File
		}
		return true
	})
}

func (a *Analyzer) setExprType(id ast.NodeID, typ types.TypeID) types.TypeID {
	if typ == types.NoTypeID {
		typ = a.types.Builtins().NoType
	}
	a.exprTypes[id] = typ
	return typ
}
