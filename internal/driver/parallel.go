package driver

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"questdsl/internal/ast"
	"questdsl/internal/diag"
	"questdsl/internal/trace"
)

// UnitExt is the extension of stored units.
const UnitExt = ".msgpack"

// ListUnits returns every stored unit under dir, sorted.
func ListUnits(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, UnitExt) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// AnalyzeFiles analyses every unit in paths with up to opts.Jobs concurrent
// pipelines. Each unit gets its own analyzer; results keep the order of
// paths. A unit that cannot be read or hits a fatal error gets Err set and
// does not stop the others. The returned error is only about cancellation.
func AnalyzeFiles(ctx context.Context, paths []string, opts Options) ([]*Result, error) {
	if len(paths) == 0 {
		return nil, nil
	}
	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	// units run in parallel already
	unitOpts := opts
	unitOpts.Jobs = 1

	tracer := trace.FromContext(ctx)
	span := trace.Begin(tracer, trace.ScopeDriver, "analyze_files", 0).
		WithExtra("units", fmt.Sprint(len(paths)))
	defer span.End("")

	for _, path := range paths {
		progress{sink: opts.Progress, path: path}.emit("", StatusQueued, nil, 0)
	}

	// each goroutine owns one slot
	results := make([]*Result, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(paths)))
	unitCtx := trace.WithParent(gctx, span)
	for i, path := range paths {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			results[i] = analyzeFile(unitCtx, path, unitOpts)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

func analyzeFile(ctx context.Context, path string, opts Options) *Result {
	prog := progress{sink: opts.Progress, path: path}
	started := prog.working(StageRead)
	unit, err := ast.ReadFile(path)
	if err != nil {
		err = fmt.Errorf("read unit %s: %w", path, err)
		prog.emit(StageRead, StatusError, err, time.Since(started))
		return failed(path, opts, err)
	}
	opts.progressPath = path
	res, err := Analyze(ctx, unit, opts)
	if err != nil && res == nil {
		return failed(path, opts, err)
	}
	res.Path = path
	return res
}

func failed(path string, opts Options, err error) *Result {
	bag := diag.NewBag(opts.MaxDiagnostics)
	return &Result{Path: path, Bag: bag, Err: err}
}
