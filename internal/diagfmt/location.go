package diagfmt

import (
	"fmt"
	"path/filepath"

	"questdsl/internal/source"
)

func displayPath(fs *source.FileSet, id source.FileID, mode PathMode) string {
	path := "<unknown>"
	if fs != nil {
		path = fs.Path(id)
	}
	if mode == PathModeBasename && path != "<unknown>" {
		return filepath.Base(path)
	}
	return path
}

// position renders a span as path:line:col when the text is known, as
// path:start-end in bytes otherwise.
func position(fs *source.FileSet, span source.Span, mode PathMode) string {
	path := displayPath(fs, span.File, mode)
	if fs != nil {
		if start, _ := fs.Resolve(span); start.Line > 0 {
			return fmt.Sprintf("%s:%d:%d", path, start.Line, start.Col)
		}
	}
	return fmt.Sprintf("%s:%d-%d", path, span.Start, span.End)
}

// sourceLine returns the line holding span.Start and the column range to
// underline on it, 0-based.
func sourceLine(fs *source.FileSet, span source.Span) (line string, from, to int, ok bool) {
	if fs == nil {
		return "", 0, 0, false
	}
	f := fs.Get(span.File)
	if f == nil || f.Content == nil || int(span.Start) > len(f.Content) {
		return "", 0, 0, false
	}
	start := int(span.Start)
	lineStart := start
	for lineStart > 0 && f.Content[lineStart-1] != '\n' {
		lineStart--
	}
	lineEnd := start
	for lineEnd < len(f.Content) && f.Content[lineEnd] != '\n' {
		lineEnd++
	}
	end := min(int(span.End), lineEnd)
	if end <= start {
		end = start + 1
	}
	return string(f.Content[lineStart:lineEnd]), start - lineStart, end - lineStart, true
}
