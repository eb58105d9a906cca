package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"questdsl/internal/driver"
	"questdsl/internal/ui"
)

type analyzeOutcome struct {
	results []*driver.Result
	err     error
}

// analyzeUnits runs driver.AnalyzeFiles, optionally behind the progress view.
func analyzeUnits(ctx context.Context, paths []string, opts driver.Options, tui bool) ([]*driver.Result, error) {
	if !tui || len(paths) == 0 {
		return driver.AnalyzeFiles(ctx, paths, opts)
	}
	return runCheckWithUI(ctx, "checking quest units", paths, opts)
}

func runCheckWithUI(ctx context.Context, title string, paths []string, opts driver.Options) ([]*driver.Result, error) {
	events := make(chan driver.Event, 256)
	outcomeCh := make(chan analyzeOutcome, 1)

	go func() {
		unitOpts := opts
		unitOpts.Progress = driver.ChannelSink{Ch: events}
		res, err := driver.AnalyzeFiles(ctx, paths, unitOpts)
		outcomeCh <- analyzeOutcome{results: res, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, paths, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	// the view may stop early; keep the analysis from blocking on sends
	go func() {
		for range events {
		}
	}()
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.results, uiErr
	}
	return outcome.results, outcome.err
}
