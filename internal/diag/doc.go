// Package diag defines the diagnostic model shared by all analysis passes.
//
// A Diagnostic carries a severity, a stable numeric Code, a short message,
// the primary source span and, when known, the AST node it was raised for.
// Passes emit through a Reporter (usually a BagReporter over the run's Bag,
// optionally wrapped in a DedupReporter); they never print or panic on user
// errors.
//
// Soft semantic errors (duplicate declarations, unresolved names, illegal
// enum member access, malformed declarations, unresolved task references)
// are recorded here and analysis continues. The single fatal condition,
// importing an already imported symbol, is returned as an error by package
// sema instead.
//
// Rendering lives in internal/diagfmt.
package diag
