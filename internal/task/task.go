// Package task extracts the content of task definitions from an analysed
// unit. The result is what the quiz screens and the grader consume; grading
// itself lives on the host side.
package task

import (
	"fmt"

	"questdsl/internal/ast"
	"questdsl/internal/diag"
	"questdsl/internal/sema"
	"questdsl/internal/symbols"
	"questdsl/internal/types"
)

type Kind uint8

const (
	KindInvalid Kind = iota
	KindSingleChoice
	KindMultipleChoice
	KindAssign
	KindReplacement
)

var kindByType = map[string]Kind{
	"single_choice_task":   KindSingleChoice,
	"multiple_choice_task": KindMultipleChoice,
	"assign_task":          KindAssign,
	"replacement_task":     KindReplacement,
}

func (k Kind) String() string {
	switch k {
	case KindSingleChoice:
		return "single_choice"
	case KindMultipleChoice:
		return "multiple_choice"
	case KindAssign:
		return "assign"
	case KindReplacement:
		return "replacement"
	default:
		return "invalid"
	}
}

type ContentKind uint8

const (
	ContentInvalid ContentKind = iota
	ContentQuizAnswer
	ContentElement
	ContentContainer
)

func (k ContentKind) String() string {
	switch k {
	case ContentQuizAnswer:
		return "quiz_answer"
	case ContentElement:
		return "element"
	case ContentContainer:
		return "container"
	default:
		return "invalid"
	}
}

// Content is one piece of task content. Kind selects which fields mean
// something: Correct only for quiz answers, Children only for containers.
type Content struct {
	Kind     ContentKind `msgpack:"kind"`
	Index    int         `msgpack:"index"`
	Text     string      `msgpack:"text,omitempty"`
	Correct  bool        `msgpack:"correct,omitempty"`
	Children []Content   `msgpack:"children,omitempty"`
}

type Task struct {
	Name         string           `msgpack:"name"`
	Symbol       symbols.SymbolID `msgpack:"-"`
	Kind         Kind             `msgpack:"kind"`
	Description  string           `msgpack:"description"`
	Explanation  string           `msgpack:"explanation,omitempty"`
	Points       float64          `msgpack:"points"`
	PointsToPass float64          `msgpack:"points_to_pass,omitempty"`
	Contents     []Content        `msgpack:"contents,omitempty"`
	// Rules are the replacement rules of a replacement task.
	Rules []string `msgpack:"rules,omitempty"`
}

// Correct returns the quiz answers marked correct.
func (t *Task) Correct() []Content {
	var out []Content
	for _, c := range t.Contents {
		if c.Kind == ContentQuizAnswer && c.Correct {
			out = append(out, c)
		}
	}
	return out
}

type collector struct {
	res *sema.Result
	r   diag.Reporter
}

// Collect reads every task definition of the unit in declaration order.
// Property values must be literals (or references to element objects for
// element content); anything else is reported to r and skipped.
func Collect(res *sema.Result, r diag.Reporter) []*Task {
	if r == nil {
		r = diag.NopReporter{}
	}
	c := &collector{res: res, r: r}
	var out []*Task
	for _, id := range res.Tasks() {
		if t := c.task(id); t != nil {
			out = append(out, t)
		}
	}
	return out
}

func (c *collector) task(id symbols.SymbolID) *Task {
	sym := c.res.Symbol(id)
	decl := c.res.Node(sym.Decl)
	if decl == nil || decl.Kind != ast.KindObjectDef {
		return nil
	}
	t := &Task{
		Name:   decl.Name,
		Symbol: id,
		Kind:   kindByType[types.Label(c.res.Types, sym.Type)],
	}
	props := c.properties(decl)

	if v, ok := props["description"]; ok {
		t.Description, _ = c.str(v)
	} else {
		diag.ReportWarning(c.r, diag.TaskMissingField, decl.Span,
			fmt.Sprintf("task '%s' has no description", t.Name)).WithNode(sym.Decl).Emit()
	}
	if v, ok := props["explanation"]; ok {
		t.Explanation, _ = c.str(v)
	}
	if v, ok := props["points"]; ok {
		t.Points, _ = c.number(v)
	}
	if v, ok := props["points_to_pass"]; ok {
		t.PointsToPass, _ = c.number(v)
	}

	switch t.Kind {
	case KindSingleChoice, KindMultipleChoice:
		c.quiz(t, props)
	case KindAssign:
		if v, ok := props["solution"]; ok {
			t.Contents = c.containers(v)
		}
	case KindReplacement:
		if v, ok := props["answers"]; ok {
			t.Contents = c.elements(v)
		}
		if v, ok := props["rules"]; ok {
			for _, item := range c.list(v) {
				if s, ok := c.str(item); ok {
					t.Rules = append(t.Rules, s)
				}
			}
		}
	}
	return t
}

// properties maps property names to their value nodes; later definitions
// win.
func (c *collector) properties(decl *ast.Node) map[string]ast.NodeID {
	_, props := ast.ObjectParts(decl)
	out := make(map[string]ast.NodeID, len(props))
	for _, prop := range props {
		pn := c.res.Node(prop)
		if pn == nil || pn.Kind != ast.KindPropertyDef {
			continue
		}
		out[pn.Name] = pn.Kid(0)
	}
	return out
}

func (c *collector) quiz(t *Task, props map[string]ast.NodeID) {
	answers := 0
	if v, ok := props["answers"]; ok {
		items := c.list(v)
		answers = len(items)
		for i, item := range items {
			text, ok := c.str(item)
			if !ok {
				continue
			}
			t.Contents = append(t.Contents, Content{Kind: ContentQuizAnswer, Index: i, Text: text})
		}
	}
	var indices []ast.NodeID
	if v, ok := props["correct_answer_index"]; ok {
		indices = append(indices, v)
	}
	if v, ok := props["correct_answer_indices"]; ok {
		indices = append(indices, c.list(v)...)
	}
	for _, v := range indices {
		idx, ok := c.integer(v)
		if !ok {
			continue
		}
		if idx < 0 || idx >= int64(answers) {
			diag.ReportError(c.r, diag.TaskAnswerIndex, c.res.Node(v).Span,
				fmt.Sprintf("answer index %d of task '%s' is out of range, it has %d answers", idx, t.Name, answers)).
				WithNode(v).
				Emit()
			continue
		}
		// indices name source positions; non-literal answers were dropped
		for i := range t.Contents {
			if int64(t.Contents[i].Index) == idx {
				t.Contents[i].Correct = true
			}
		}
	}
}

// containers reads an assign solution written as a list of lists; the head
// of each inner list is the container, the rest are its elements.
func (c *collector) containers(v ast.NodeID) []Content {
	var out []Content
	for i, group := range c.list(v) {
		items := c.list(group)
		if len(items) == 0 {
			continue
		}
		head, ok := c.element(items[0], i)
		if !ok {
			continue
		}
		container := Content{Kind: ContentContainer, Index: i, Text: head.Text}
		for j, item := range items[1:] {
			if el, ok := c.element(item, j); ok {
				container.Children = append(container.Children, el)
			}
		}
		out = append(out, container)
	}
	return out
}

func (c *collector) elements(v ast.NodeID) []Content {
	var out []Content
	for i, item := range c.list(v) {
		if el, ok := c.element(item, i); ok {
			out = append(out, el)
		}
	}
	return out
}

// element accepts a string literal or a reference to an element object.
func (c *collector) element(id ast.NodeID, index int) (Content, bool) {
	n := c.res.Node(id)
	if n == nil {
		return Content{}, false
	}
	if n.Kind == ast.KindIdent {
		symID, ok := c.res.SymbolOf(id)
		if !ok {
			return Content{}, false
		}
		decl := c.res.Node(c.res.Symbol(c.res.Table.Origin(symID)).Decl)
		if decl != nil && decl.Kind == ast.KindObjectDef {
			if content, ok := c.properties(decl)["content"]; ok {
				text, ok := c.str(content)
				return Content{Kind: ContentElement, Index: index, Text: text}, ok
			}
		}
	}
	text, ok := c.str(id)
	return Content{Kind: ContentElement, Index: index, Text: text}, ok
}

func (c *collector) list(id ast.NodeID) []ast.NodeID {
	n := c.res.Node(id)
	if n == nil {
		return nil
	}
	if n.Kind != ast.KindListLit && n.Kind != ast.KindSetLit {
		c.notLiteral(id, n, "list")
		return nil
	}
	return n.Kids
}

func (c *collector) str(id ast.NodeID) (string, bool) {
	n := c.res.Node(id)
	if n == nil {
		return "", false
	}
	if n.Kind != ast.KindStringLit {
		c.notLiteral(id, n, "string")
		return "", false
	}
	return n.Lit.Str, true
}

func (c *collector) integer(id ast.NodeID) (int64, bool) {
	n := c.res.Node(id)
	if n == nil {
		return 0, false
	}
	if n.Kind != ast.KindIntLit {
		c.notLiteral(id, n, "int")
		return 0, false
	}
	return n.Lit.Int, true
}

// number accepts int and float literals.
func (c *collector) number(id ast.NodeID) (float64, bool) {
	n := c.res.Node(id)
	if n == nil {
		return 0, false
	}
	switch n.Kind {
	case ast.KindFloatLit:
		return n.Lit.Float, true
	case ast.KindIntLit:
		return float64(n.Lit.Int), true
	}
	c.notLiteral(id, n, "number")
	return 0, false
}

func (c *collector) notLiteral(id ast.NodeID, n *ast.Node, want string) {
	diag.ReportWarning(c.r, diag.TaskNotLiteral, n.Span,
		fmt.Sprintf("expected a %s literal, found %s", want, n.Kind)).
		WithNode(id).
		Emit()
}
