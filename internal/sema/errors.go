package sema

import (
	"fmt"

	"questdsl/internal/diag"
	"questdsl/internal/source"
)

// FatalError aborts the analysis of a unit. It is only raised for imports
// of symbols that are themselves import aliases.
type FatalError struct {
	Unit   string
	Symbol string
	Span   source.Span
	Msg    string
	// Diagnostics and Files hold what was reported before the abort.
	Diagnostics *diag.Bag
	Files       *source.FileSet
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("%s: %s (symbol %q)", e.Unit, e.Msg, e.Symbol)
}

const msgImportOfImport = "cannot import an imported symbol"
