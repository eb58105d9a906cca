package diag

import (
	"questdsl/internal/ast"
	"questdsl/internal/source"
)

type Note struct {
	Span source.Span
	Msg  string
}

// Diagnostic is one finding of a pass. Node is the AST node the finding is
// attached to, when there is one.
type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Primary  source.Span
	Node     ast.NodeID
	Notes    []Note
}

func New(sev Severity, code Code, primary source.Span, msg string) Diagnostic {
	return Diagnostic{
		Severity: sev,
		Code:     code,
		Primary:  primary,
		Message:  msg,
	}
}

func NewError(code Code, primary source.Span, msg string) Diagnostic {
	return New(SevError, code, primary, msg)
}

func (d Diagnostic) WithNote(sp source.Span, msg string) Diagnostic {
	d.Notes = append(d.Notes, Note{Span: sp, Msg: msg})
	return d
}

func (d Diagnostic) WithNode(id ast.NodeID) Diagnostic {
	d.Node = id
	return d
}
