package source

import (
	"fmt"
	"path/filepath"
	"sort"

	"fortio.org/safecast"
)

type (
	// FileID identifies a unit inside a FileSet. NoFileID is reserved.
	FileID uint32
	// FileFlags encodes metadata about a source file.
	FileFlags uint8
)

const NoFileID FileID = 0

const (
	// FileVirtual marks units that never existed on disk (tests, stdin).
	FileVirtual FileFlags = 1 << iota
)

// File captures one registered unit. Content is optional: the parser lives
// outside this module and may only hand over the tree.
type File struct {
	ID      FileID
	Path    string
	Content []byte
	LineIdx []uint32
	Flags   FileFlags
}

// LineCol is a 1-based human readable position.
type LineCol struct {
	Line uint32
	Col  uint32
}

// FileSet owns all files of one analysis run.
type FileSet struct {
	files []File
	index map[string]FileID
}

func NewFileSet() *FileSet {
	return &FileSet{
		files: make([]File, 1, 8), // index 0 reserved for NoFileID
		index: make(map[string]FileID),
	}
}

// Add registers path with optional content. Adding the same path twice
// returns the existing ID.
func (fs *FileSet) Add(path string, content []byte, flags FileFlags) FileID {
	path = filepath.ToSlash(filepath.Clean(path))
	if id, ok := fs.index[path]; ok {
		return id
	}
	n, err := safecast.Conv[uint32](len(fs.files))
	if err != nil {
		panic(fmt.Errorf("file set overflow: %w", err))
	}
	id := FileID(n)
	fs.files = append(fs.files, File{
		ID:      id,
		Path:    path,
		Content: content,
		LineIdx: buildLineIndex(content),
		Flags:   flags,
	})
	fs.index[path] = id
	return id
}

// AddVirtual registers an in-memory unit.
func (fs *FileSet) AddVirtual(name string, content []byte) FileID {
	return fs.Add(name, content, FileVirtual)
}

// Get returns nil for unknown IDs.
func (fs *FileSet) Get(id FileID) *File {
	if id == NoFileID || int(id) >= len(fs.files) {
		return nil
	}
	return &fs.files[id]
}

func (fs *FileSet) Lookup(path string) (FileID, bool) {
	id, ok := fs.index[filepath.ToSlash(filepath.Clean(path))]
	return id, ok
}

// Resolve converts a span into line/column positions. Files without content
// resolve to line 0.
func (fs *FileSet) Resolve(span Span) (start, end LineCol) {
	f := fs.Get(span.File)
	if f == nil || f.Content == nil {
		return LineCol{}, LineCol{}
	}
	return toLineCol(f.LineIdx, span.Start), toLineCol(f.LineIdx, span.End)
}

// Len reports the number of registered files; IDs run from 1 to Len.
func (fs *FileSet) Len() int {
	return len(fs.files) - 1
}

// Path returns the registered path or "<unknown>".
func (fs *FileSet) Path(id FileID) string {
	if f := fs.Get(id); f != nil {
		return f.Path
	}
	return "<unknown>"
}

func buildLineIndex(content []byte) []uint32 {
	var out []uint32
	for i, b := range content {
		if b == '\n' {
			out = append(out, uint32(i)) // #nosec G115 -- bounded by content size checks in Add
		}
	}
	return out
}

func toLineCol(lineIdx []uint32, off uint32) LineCol {
	// number of newlines strictly before off
	line := sort.Search(len(lineIdx), func(i int) bool { return lineIdx[i] >= off })
	if line == 0 {
		return LineCol{Line: 1, Col: off + 1}
	}
	l, err := safecast.Conv[uint32](line)
	if err != nil {
		panic(fmt.Errorf("line overflow: %w", err))
	}
	return LineCol{Line: l + 1, Col: off - lineIdx[line-1]}
}
