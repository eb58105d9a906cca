package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"questdsl/internal/diag"
	"questdsl/internal/diagfmt"
	"questdsl/internal/driver"
	"questdsl/internal/groum"
	"questdsl/internal/task"
	"questdsl/internal/taskgraph"
	"questdsl/internal/version"
)

var checkCmd = &cobra.Command{
	Use:   "check [flags] <unit.msgpack|directory>...",
	Short: "Analyse parsed quest units",
	Long: `Analyse units written by the quest parser. Directories are searched for *.msgpack units.
The exit status is 1 when any unit has an error.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().String("format", "pretty", "output format (pretty|json)")
	checkCmd.Flags().String("root", "", "directory imports are resolved against (default: directory of the first argument)")
	checkCmd.Flags().Int("jobs", 0, "max units analysed in parallel (0=auto)")
	checkCmd.Flags().Bool("with-notes", true, "include diagnostic notes")
	checkCmd.Flags().Bool("basename", false, "print file base names only")
	checkCmd.Flags().Bool("groums", false, "build groums even without --emit-groum")
	checkCmd.Flags().String("emit-graph", "", "write the task graphs of all units to this file")
	checkCmd.Flags().String("emit-tasks", "", "write the task content of all units to this file")
	checkCmd.Flags().String("emit-groum", "", "write the groums of all units to this file")
	checkCmd.Flags().Bool("cache", false, "replay diagnostics of unchanged units from the disk cache")
	checkCmd.Flags().Bool("cache-clear", false, "drop the disk cache before running")
	checkCmd.Flags().String("ui", "auto", "show live progress (auto|on|off)")
	checkCmd.Flags().String("min-severity", "info", "hide diagnostics below this severity (info|warning|error)")
}

type checkFlags struct {
	format     string
	root       string
	jobs       int
	withNotes  bool
	basename   bool
	groums     bool
	emitGraph  string
	emitTasks  string
	emitGroum  string
	cache      bool
	cacheClear bool
	ui         uiMode
	minSev     diag.Severity
}

func readCheckFlags(cmd *cobra.Command) (checkFlags, error) {
	var (
		f   checkFlags
		err error
	)
	flags := cmd.Flags()
	if f.format, err = flags.GetString("format"); err != nil {
		return f, fmt.Errorf("failed to get format flag: %w", err)
	}
	if f.root, err = flags.GetString("root"); err != nil {
		return f, fmt.Errorf("failed to get root flag: %w", err)
	}
	if f.jobs, err = flags.GetInt("jobs"); err != nil {
		return f, fmt.Errorf("failed to get jobs flag: %w", err)
	}
	if f.withNotes, err = flags.GetBool("with-notes"); err != nil {
		return f, fmt.Errorf("failed to get with-notes flag: %w", err)
	}
	if f.basename, err = flags.GetBool("basename"); err != nil {
		return f, fmt.Errorf("failed to get basename flag: %w", err)
	}
	if f.groums, err = flags.GetBool("groums"); err != nil {
		return f, fmt.Errorf("failed to get groums flag: %w", err)
	}
	if f.emitGraph, err = flags.GetString("emit-graph"); err != nil {
		return f, fmt.Errorf("failed to get emit-graph flag: %w", err)
	}
	if f.emitTasks, err = flags.GetString("emit-tasks"); err != nil {
		return f, fmt.Errorf("failed to get emit-tasks flag: %w", err)
	}
	if f.emitGroum, err = flags.GetString("emit-groum"); err != nil {
		return f, fmt.Errorf("failed to get emit-groum flag: %w", err)
	}
	if f.cache, err = flags.GetBool("cache"); err != nil {
		return f, fmt.Errorf("failed to get cache flag: %w", err)
	}
	if f.cacheClear, err = flags.GetBool("cache-clear"); err != nil {
		return f, fmt.Errorf("failed to get cache-clear flag: %w", err)
	}
	uiValue, err := flags.GetString("ui")
	if err != nil {
		return f, fmt.Errorf("failed to get ui flag: %w", err)
	}
	if f.ui, err = readUIMode(uiValue); err != nil {
		return f, err
	}
	sevValue, err := flags.GetString("min-severity")
	if err != nil {
		return f, fmt.Errorf("failed to get min-severity flag: %w", err)
	}
	var ok bool
	if f.minSev, ok = diag.ParseSeverity(sevValue); !ok {
		return f, fmt.Errorf("invalid --min-severity value %q (expected info|warning|error)", sevValue)
	}
	switch f.format {
	case "pretty", "json":
	default:
		return f, fmt.Errorf("unknown format %q", f.format)
	}
	return f, nil
}

// emits reports whether any export was requested. Cached results carry
// diagnostics only, so exports disable the cache.
func (f checkFlags) emits() bool {
	return f.emitGraph != "" || f.emitTasks != "" || f.emitGroum != ""
}

func runCheck(cmd *cobra.Command, args []string) error {
	defer dumpTraceOnPanic()

	f, err := readCheckFlags(cmd)
	if err != nil {
		return err
	}
	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	showTimings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return fmt.Errorf("failed to get timings flag: %w", err)
	}

	paths, err := collectUnits(args)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no units found in %v", args)
	}
	env, descBytes, err := loadEnvironment(cmd)
	if err != nil {
		return err
	}
	root := f.root
	if root == "" {
		root = importRoot(args[0])
	}

	opts := driver.Options{
		Env:            env,
		Loader:         driver.NewDirLoader(root),
		MaxDiagnostics: maxDiagnostics,
		Graphs:         true,
		Tasks:          true,
		Groums:         f.groums || f.emitGroum != "",
		Jobs:           f.jobs,
	}

	var cache *driver.Cache
	if f.cache && !f.emits() {
		if cache, err = driver.OpenCache("questc"); err != nil {
			return fmt.Errorf("open cache: %w", err)
		}
		if f.cacheClear {
			if err := cache.DropAll(); err != nil {
				return fmt.Errorf("clear cache: %w", err)
			}
		}
	}

	tui := shouldUseTUI(f.ui, f.format)
	results, err := analyzeCached(cmd, paths, opts, cache, descBytes, tui)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch f.format {
	case "json":
		err = printJSON(out, results, f)
	default:
		var color bool
		if color, err = useColor(cmd, os.Stdout); err != nil {
			return err
		}
		err = printPretty(out, cmd.ErrOrStderr(), results, f, color)
	}
	if err != nil {
		return err
	}
	if showTimings {
		printTimings(cmd.ErrOrStderr(), results)
	}
	if err := emit(results, f); err != nil {
		return err
	}

	for _, r := range results {
		if r.Failed() {
			return errCheckFailed
		}
	}
	return nil
}

// collectUnits expands directories into the units they hold.
func collectUnits(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		st, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !st.IsDir() {
			paths = append(paths, arg)
			continue
		}
		units, err := driver.ListUnits(arg)
		if err != nil {
			return nil, fmt.Errorf("list units in %s: %w", arg, err)
		}
		paths = append(paths, units...)
	}
	return paths, nil
}

func importRoot(arg string) string {
	if st, err := os.Stat(arg); err == nil && st.IsDir() {
		return arg
	}
	return filepath.Dir(arg)
}

// analyzeCached replays cached units and analyses the rest.
func analyzeCached(cmd *cobra.Command, paths []string, opts driver.Options, cache *driver.Cache, descBytes []byte, tui bool) ([]*driver.Result, error) {
	if cache == nil {
		return analyzeUnits(cmd.Context(), paths, opts, tui)
	}
	settings := fmt.Appendf(nil, "%s|%d|%t", version.Version, opts.MaxDiagnostics, opts.Groums)

	results := make([]*driver.Result, len(paths))
	keys := make([]driver.CacheKey, len(paths))
	var (
		missing []string
		slots   []int
	)
	for i, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			missing, slots = append(missing, path), append(slots, i)
			continue
		}
		keys[i] = driver.KeyOf(data, descBytes, settings)
		payload, ok, err := cache.Get(keys[i])
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "cache: %v\n", err)
		}
		if ok {
			results[i] = payload.Replay()
			results[i].Path = path
			continue
		}
		missing, slots = append(missing, path), append(slots, i)
	}

	fresh, err := analyzeUnits(cmd.Context(), missing, opts, tui)
	if err != nil {
		return nil, err
	}
	for j, r := range fresh {
		i := slots[j]
		results[i] = r
		if r.Err != nil || keys[i] == 0 {
			continue
		}
		if err := cache.Put(keys[i], driver.PayloadOf(r)); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "cache: %v\n", err)
		}
	}
	return results, nil
}

func printPretty(out, errOut io.Writer, results []*driver.Result, f checkFlags, color bool) error {
	mode := diagfmt.PathModeFull
	if f.basename {
		mode = diagfmt.PathModeBasename
	}
	total := diag.NewBag(0)
	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(errOut, "%s: %v\n", r.Path, r.Err)
		}
		opts := diagfmt.PrettyOpts{Color: color, PathMode: mode, ShowNotes: f.withNotes, ShowSource: true}
		if err := diagfmt.Pretty(out, r.Bag.AtLeast(f.minSev), r.Files, opts); err != nil {
			return err
		}
		total.Merge(r.Bag)
	}
	fmt.Fprintf(errOut, "%d units: %s\n", len(results), diagfmt.Summary(total))
	return nil
}

type unitJSON struct {
	diagfmt.DiagnosticsOutput
	Error  string `json:"error,omitempty"`
	Cached bool   `json:"cached,omitempty"`
}

func printJSON(out io.Writer, results []*driver.Result, f checkFlags) error {
	mode := diagfmt.PathModeFull
	if f.basename {
		mode = diagfmt.PathModeBasename
	}
	docs := make([]unitJSON, 0, len(results))
	for _, r := range results {
		doc := unitJSON{
			DiagnosticsOutput: diagfmt.BuildDiagnosticsOutput(r.Bag.AtLeast(f.minSev), r.Files, diagfmt.JSONOpts{
				IncludePositions: true,
				IncludeNotes:     f.withNotes,
				PathMode:         mode,
			}),
			Cached: r.Cached,
		}
		doc.Path = r.Path
		if r.Err != nil {
			doc.Error = r.Err.Error()
			doc.Failed = true
		}
		docs = append(docs, doc)
	}
	return diagfmt.WriteJSON(out, docs)
}

func printTimings(w io.Writer, results []*driver.Result) {
	for _, r := range results {
		if r.Cached || r.Err != nil {
			continue
		}
		fmt.Fprintf(w, "%s: %.2f ms\n", r.Path, r.Timing.TotalMS)
		for _, p := range r.Timing.Phases {
			if p.Note != "" {
				fmt.Fprintf(w, "  %-10s %8.2f ms  %s\n", p.Name, p.DurationMS, p.Note)
				continue
			}
			fmt.Fprintf(w, "  %-10s %8.2f ms\n", p.Name, p.DurationMS)
		}
	}
}

// emit writes the requested exports. Each file holds the artefacts of
// every unit, in unit order.
func emit(results []*driver.Result, f checkFlags) error {
	var (
		graphs []*taskgraph.Graph
		tasks  []*task.Task
		groums []*groum.Groum
	)
	for _, r := range results {
		graphs = append(graphs, r.Graphs...)
		tasks = append(tasks, r.Tasks...)
		groums = append(groums, r.Groums...)
	}
	if f.emitGraph != "" {
		if err := writeExport(f.emitGraph, func(w io.Writer) error { return taskgraph.Encode(w, graphs) }); err != nil {
			return err
		}
	}
	if f.emitTasks != "" {
		if err := writeExport(f.emitTasks, func(w io.Writer) error { return task.Encode(w, tasks) }); err != nil {
			return err
		}
	}
	if f.emitGroum != "" {
		if err := writeExport(f.emitGroum, func(w io.Writer) error { return groum.Encode(w, groums) }); err != nil {
			return err
		}
	}
	return nil
}

func writeExport(path string, encode func(io.Writer) error) error {
	var buf bytes.Buffer
	if err := encode(&buf); err != nil {
		return err
	}
	if path == "-" {
		_, err := os.Stdout.Write(buf.Bytes())
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

