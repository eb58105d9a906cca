package diagfmt

// PathMode specifies how file paths are displayed.
type PathMode uint8

const (
	// PathModeFull prints the path the unit was registered under.
	PathModeFull PathMode = iota
	PathModeBasename
)

// ParsePathMode accepts "full" and "basename"; anything else is full.
func ParsePathMode(s string) PathMode {
	if s == "basename" {
		return PathModeBasename
	}
	return PathModeFull
}

// PrettyOpts configures pretty-printing of diagnostics.
type PrettyOpts struct {
	Color     bool
	PathMode  PathMode
	ShowNotes bool
	// ShowSource prints the offending line under each diagnostic when the
	// unit came with its source text.
	ShowSource bool
	// Max truncates the output, not the bag. 0 prints all.
	Max int
}

// JSONOpts configures JSON output of diagnostics.
type JSONOpts struct {
	IncludePositions bool
	PathMode         PathMode
	Max              int
	IncludeNotes     bool
}
