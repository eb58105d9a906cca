// Package diagfmt renders diagnostic bags for people (Pretty) and tools
// (JSON).
package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"questdsl/internal/diag"
	"questdsl/internal/source"
)

type palette struct {
	err, warn, info, note, path, code *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		err:  color.New(color.FgRed, color.Bold),
		warn: color.New(color.FgYellow, color.Bold),
		info: color.New(color.FgCyan),
		note: color.New(color.FgBlue),
		path: color.New(color.Bold),
		code: color.New(color.Faint),
	}
	for _, c := range []*color.Color{p.err, p.warn, p.info, p.note, p.path, p.code} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) severity(s diag.Severity) *color.Color {
	switch s {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	default:
		return p.info
	}
}

// Pretty prints bag.Items() in order (callers sort first), one diagnostic
// per line:
//
//	<path>:<pos>: <SEV> <CODE>: <message>
//
// followed by its notes and, with ShowSource, the source line with the span
// underlined.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) error {
	if bag == nil {
		return nil
	}
	p := newPalette(opts.Color)
	items := bag.Items()
	if opts.Max > 0 && opts.Max < len(items) {
		items = items[:opts.Max]
	}
	var sb strings.Builder
	for _, d := range items {
		sev := p.severity(d.Severity)
		fmt.Fprintf(&sb, "%s: %s %s: %s\n",
			p.path.Sprint(position(fs, d.Primary, opts.PathMode)),
			sev.Sprint(d.Severity.String()),
			p.code.Sprint(d.Code.ID()),
			d.Message)
		if opts.ShowSource {
			writeSource(&sb, fs, d.Primary, sev)
		}
		if !opts.ShowNotes {
			continue
		}
		for _, n := range d.Notes {
			if n.Span.File == source.NoFileID {
				fmt.Fprintf(&sb, "  %s %s\n", p.note.Sprint("note:"), n.Msg)
				continue
			}
			fmt.Fprintf(&sb, "  %s %s: %s\n", p.note.Sprint("note:"), position(fs, n.Span, opts.PathMode), n.Msg)
		}
	}
	if hidden := bag.Len() - len(items); hidden > 0 {
		fmt.Fprintf(&sb, "... %d more diagnostics not shown\n", hidden)
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

func writeSource(sb *strings.Builder, fs *source.FileSet, span source.Span, c *color.Color) {
	line, from, to, ok := sourceLine(fs, span)
	if !ok {
		return
	}
	fmt.Fprintf(sb, "    %s\n", line)
	// columns are display cells, not bytes
	indent := runewidth.StringWidth(line[:from])
	width := 1
	if to <= len(line) {
		width = max(runewidth.StringWidth(line[from:to]), 1)
	}
	marker := "^" + strings.Repeat("~", width-1)
	fmt.Fprintf(sb, "    %s%s\n", strings.Repeat(" ", indent), c.Sprint(marker))
}

// Summary is the closing line of a check run, e.g. "2 errors, 1 warning".
func Summary(bag *diag.Bag) string {
	var errs, warns int
	if bag != nil {
		for _, d := range bag.Items() {
			switch d.Severity {
			case diag.SevError:
				errs++
			case diag.SevWarning:
				warns++
			}
		}
	}
	return plural(errs, "error") + ", " + plural(warns, "warning")
}

func plural(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return fmt.Sprintf("%d %ss", n, word)
}
