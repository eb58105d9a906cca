package groum

import (
	"context"
	"fmt"
	"runtime"
	"slices"

	"golang.org/x/sync/errgroup"

	"questdsl/internal/diag"
	"questdsl/internal/sema"
	"questdsl/internal/symbols"
)

// BuildAll builds the groum of every user function of the analysed unit
// with up to jobs concurrent builders (GOMAXPROCS when jobs <= 0). The
// result is ordered by symbol ID.
func BuildAll(ctx context.Context, res *sema.Result, jobs int) ([]*Groum, error) {
	if res == nil {
		return nil, fmt.Errorf("groum: nil analysis result")
	}
	if !res.Table.Frozen() {
		return nil, fmt.Errorf("groum: analysis result is still mutable")
	}
	fns := slices.Clone(res.Functions())
	slices.Sort(fns)
	if len(fns) == 0 {
		return nil, nil
	}
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	// each goroutine owns one slot
	out := make([]*Groum, len(fns))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(fns)))
	for i, fn := range fns {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			built, err := Build(res, fn)
			if err != nil {
				return err
			}
			out[i] = built
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// ReportUnbound turns the skipped nodes of each groum into warnings.
func ReportUnbound(r diag.Reporter, res *sema.Result, groums []*Groum) {
	for _, g := range groums {
		for _, id := range g.Unbound {
			node := res.Node(id)
			if node == nil {
				continue
			}
			diag.ReportWarning(r, diag.GroumUnboundNode, node.Span,
				fmt.Sprintf("%s in function '%s' has no binding and is left out of its groum", node.Kind, g.Name)).
				WithNode(id).
				Emit()
		}
	}
}

// ByFunction indexes groums by their function symbol.
func ByFunction(groums []*Groum) map[symbols.SymbolID]*Groum {
	m := make(map[symbols.SymbolID]*Groum, len(groums))
	for _, g := range groums {
		m[g.Function] = g
	}
	return m
}
