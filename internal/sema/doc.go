// Package sema is the semantic analyser of the quest DSL.
//
// One Analyzer owns one compilation run: the symbol table, the type
// interner, the diagnostics bag and the per-node expression types. Analyze
// runs, per unit and in order:
//
//   - the declaration pass, registering every top-level declaration and
//     every import before any body is inspected, so later declarations may
//     be referenced by earlier ones;
//   - the reference pass, binding identifiers, member accesses, calls,
//     property definitions and type references and assigning static types;
//
// and then, once for the run, type deduplication and validation. The table
// is frozen afterwards and may be shared by readers without locking.
//
// Soft errors land in the diagnostics bag with placeholder symbols or types
// standing in for what failed. Importing an already imported symbol is the
// one fatal condition; Analyze then returns a *FatalError and no result.
package sema
