package version

import (
	"strings"
	"testing"

	"github.com/fatih/color"
)

func TestDefaultValues(t *testing.T) {
	if Version == "" {
		t.Fatalf("Version should have a default value")
	}
}

func TestInfoIncludesOptionalFields(t *testing.T) {
	origCommit, origDate := GitCommit, BuildDate
	defer func() { GitCommit, BuildDate = origCommit, origDate }()

	GitCommit = ""
	BuildDate = ""
	plain := Info(false)
	if strings.Contains(plain, "commit:") || strings.Contains(plain, "built:") {
		t.Fatalf("empty fields must be omitted:\n%s", plain)
	}

	GitCommit = "abc123def456"
	BuildDate = "2026-01-15T10:30:00Z"
	full := Info(false)
	for _, want := range []string{"questc " + Version, "commit: abc123def456", "built:  2026-01-15T10:30:00Z", "unit schema: 1"} {
		if !strings.Contains(full, want) {
			t.Fatalf("Info() lacks %q:\n%s", want, full)
		}
	}
}

func TestColored(t *testing.T) {
	orig := Version
	defer func() { Version = orig }()
	saved := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = saved }()

	tests := map[string]string{
		"1.2.3":                "1.2.3",
		"0.1.0-dev":            "0.1.0-dev",
		"1.2.3-rc.1+build.123": "1.2.3-rc.1+build.123",
		"nightly":              "nightly",
	}
	for in, want := range tests {
		Version = in
		if got := Colored(); got != want {
			t.Fatalf("Colored(%q) = %q, want %q", in, got, want)
		}
	}
}
