package source

import "testing"

func TestFileSetResolve(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("quest.dng", []byte("graph g {\n  t1 -> t2\n}\n"))
	if id == NoFileID {
		t.Fatalf("expected a real file id")
	}
	start, end := fs.Resolve(Span{File: id, Start: 12, End: 14})
	if start.Line != 2 || start.Col != 3 {
		t.Fatalf("start = %+v, want 2:3", start)
	}
	if end.Line != 2 || end.Col != 5 {
		t.Fatalf("end = %+v, want 2:5", end)
	}
}

func TestFileSetAddIsIdempotent(t *testing.T) {
	fs := NewFileSet()
	a := fs.Add("lib/./test.dng", nil, 0)
	b := fs.Add("lib/test.dng", nil, 0)
	if a != b {
		t.Fatalf("same path registered twice: %d vs %d", a, b)
	}
	if start, _ := fs.Resolve(Span{File: a}); start.Line != 0 {
		t.Fatalf("files without content resolve to line 0, got %+v", start)
	}
}
