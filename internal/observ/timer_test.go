package observ

import (
	"strings"
	"testing"
)

func TestTimerReport(t *testing.T) {
	tm := NewTimer()
	idx := tm.Begin("sema")
	tm.End(idx, "2 units")
	tm.Time("groum", func() string { return "" })
	tm.End(42, "ignored")

	report := tm.Report()
	if len(report.Phases) != 2 {
		t.Fatalf("expected two phases, got %+v", report.Phases)
	}
	if report.Phases[0].Name != "sema" || report.Phases[0].Note != "2 units" || report.Phases[1].Name != "groum" {
		t.Fatalf("unexpected phases %+v", report.Phases)
	}
	if report.TotalMS < report.Phases[0].DurationMS {
		t.Fatalf("total %.3f is below a phase %.3f", report.TotalMS, report.Phases[0].DurationMS)
	}

	summary := tm.Summary()
	for _, want := range []string{"timings:", "sema", "// 2 units", "total"} {
		if !strings.Contains(summary, want) {
			t.Fatalf("summary lacks %q:\n%s", want, summary)
		}
	}
}

func TestEmptyTimer(t *testing.T) {
	if got := NewTimer().Report(); got.TotalMS != 0 || len(got.Phases) != 0 {
		t.Fatalf("unexpected report %+v", got)
	}
}
