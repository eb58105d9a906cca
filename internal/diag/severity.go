package diag

import "strings"

// Severity orders diagnostics; a larger value is worse.
type Severity uint8

const (
	SevInfo Severity = iota
	SevWarning
	SevError
)

var severityNames = [...]string{
	SevInfo:    "INFO",
	SevWarning: "WARNING",
	SevError:   "ERROR",
}

func (s Severity) String() string {
	if int(s) < len(severityNames) {
		return severityNames[s]
	}
	return "UNKNOWN"
}

// ParseSeverity accepts the names String returns in any case, and "warn".
func ParseSeverity(s string) (Severity, bool) {
	name := strings.ToUpper(strings.TrimSpace(s))
	if name == "WARN" {
		return SevWarning, true
	}
	for sev, n := range severityNames {
		if n == name {
			return Severity(sev), true
		}
	}
	return SevInfo, false
}
