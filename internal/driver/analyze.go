// Package driver runs the whole pipeline over one unit: semantic analysis,
// then the task graphs, task content and groums the caller asked for.
package driver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"questdsl/internal/ast"
	"questdsl/internal/diag"
	"questdsl/internal/groum"
	"questdsl/internal/observ"
	"questdsl/internal/sema"
	"questdsl/internal/source"
	"questdsl/internal/task"
	"questdsl/internal/taskgraph"
	"questdsl/internal/trace"
)

type Options struct {
	Env    *sema.Environment
	Loader sema.Loader
	Rules  []sema.Rule

	MaxDiagnostics int

	Graphs bool
	Tasks  bool
	Groums bool
	// Jobs bounds concurrent groum builds and, in AnalyzeFiles, concurrent
	// units. 0 means GOMAXPROCS.
	Jobs int
	// Progress, when set, receives a working event per stage and a final
	// done or error event per unit.
	Progress ProgressSink

	// progressPath names the unit in events; AnalyzeFiles sets it to the
	// file path.
	progressPath string
}

type Result struct {
	Path   string
	Sema   *sema.Result
	Graphs []*taskgraph.Graph
	Tasks  []*task.Task
	Groums []*groum.Groum
	Files  *source.FileSet
	// Bag holds the diagnostics of every phase, sorted.
	Bag    *diag.Bag
	Timing observ.Report
	// Err is the fatal error that aborted the unit, if any.
	Err error
	// Cached is set on results replayed from a Cache.
	Cached bool
}

// Failed reports whether any phase produced an error.
func (r *Result) Failed() bool {
	return r.Err != nil || (r.Bag != nil && r.Bag.HasErrors())
}

// Analyze runs the pipeline over unit. A *sema.FatalError aborts the run;
// it is returned as is, together with a Result holding the diagnostics
// reported up to the abort. A broken task graph is only reported.
func Analyze(ctx context.Context, unit *ast.Unit, opts Options) (*Result, error) {
	if unit == nil {
		return nil, errors.New("driver: nil unit")
	}
	tracer := trace.FromContext(ctx)
	root := trace.Begin(tracer, trace.ScopeDriver, "analyze", trace.ParentFrom(ctx)).WithExtra("path", unit.Path)
	defer root.End("")
	ctx = trace.WithParent(ctx, root)

	prog := progress{sink: opts.Progress, path: opts.progressPath}
	if prog.path == "" {
		prog.path = unit.Path
	}
	started := time.Now()

	env := opts.Env
	if env == nil {
		env = sema.DefaultEnvironment()
	}
	timer := observ.NewTimer()
	bag := diag.NewBag(opts.MaxDiagnostics)
	r := diag.BagReporter{Bag: bag}

	prog.working(StageSema)
	phase := timer.Begin("sema")
	res, err := sema.NewAnalyzer(sema.Options{
		Env:            env,
		Loader:         opts.Loader,
		Rules:          opts.Rules,
		MaxDiagnostics: opts.MaxDiagnostics,
	}).Analyze(ctx, unit)
	if err != nil {
		timer.End(phase, "failed")
		prog.emit(StageSema, StatusError, err, time.Since(started))
		var fatal *sema.FatalError
		if !errors.As(err, &fatal) {
			return nil, err
		}
		bag.Merge(fatal.Diagnostics)
		bag.Sort()
		return &Result{Path: unit.Path, Files: fatal.Files, Bag: bag, Timing: timer.Report(), Err: err}, err
	}
	timer.End(phase, fmt.Sprintf("%d units", len(res.Imports)+1))
	bag.Merge(res.Diagnostics)

	out := &Result{Path: unit.Path, Sema: res, Files: res.Files, Bag: bag}

	if opts.Graphs {
		prog.working(StageTaskGraph)
		phase = timer.Begin("taskgraph")
		span := trace.Begin(tracer, trace.ScopePass, "taskgraph", root.ID())
		for _, id := range res.Graphs() {
			// errors are in the bag already
			g, _ := taskgraph.Build(res, id, r)
			if g != nil {
				out.Graphs = append(out.Graphs, g)
			}
		}
		span.WithExtra("graphs", fmt.Sprint(len(out.Graphs))).End("")
		timer.End(phase, fmt.Sprintf("%d graphs", len(out.Graphs)))
	}

	if opts.Tasks {
		prog.working(StageTasks)
		phase = timer.Begin("tasks")
		span := trace.Begin(tracer, trace.ScopePass, "tasks", root.ID())
		out.Tasks = task.Collect(res, r)
		span.End("")
		timer.End(phase, fmt.Sprintf("%d tasks", len(out.Tasks)))
	}

	if opts.Groums {
		prog.working(StageGroum)
		phase = timer.Begin("groum")
		span := trace.Begin(tracer, trace.ScopePass, "groum", root.ID())
		groums, err := groum.BuildAll(ctx, res, opts.Jobs)
		span.End("")
		if err != nil {
			timer.End(phase, "failed")
			err = fmt.Errorf("build groums of %s: %w", unit.Path, err)
			prog.emit(StageGroum, StatusError, err, time.Since(started))
			return nil, err
		}
		groum.ReportUnbound(r, res, groums)
		out.Groums = groums
		timer.End(phase, fmt.Sprintf("%d functions", len(groums)))
	}

	bag.Sort()
	out.Timing = timer.Report()
	status := StatusDone
	if out.Failed() {
		status = StatusError
	}
	prog.emit("", status, nil, time.Since(started))
	return out, nil
}
