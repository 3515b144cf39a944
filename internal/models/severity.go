package models

// Severity is the categorical severity of a vulnerability. It is the primary
// sort key everywhere; the numeric CVSS score is secondary and display-only.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityMedium   Severity = "MEDIUM"
	SeverityLow      Severity = "LOW"
	// SeverityNone is the severity of a package with no known vulnerabilities.
	SeverityNone Severity = "NONE"
)

// severityRank orders severities from most to least severe. Unknown values rank last.
var severityRank = map[Severity]int{
	SeverityCritical: 0,
	SeverityHigh:     1,
	SeverityMedium:   2,
	SeverityLow:      3,
	SeverityNone:     4,
}

// Rank returns the sort rank of the severity (lower is more severe).
func (s Severity) Rank() int {
	if r, ok := severityRank[s]; ok {
		return r
	}
	return len(severityRank)
}

// MoreSevere reports whether s is strictly more severe than other.
func (s Severity) MoreSevere(other Severity) bool {
	return s.Rank() < other.Rank()
}

// HighestSeverity returns the most severe category present among the package's
// vulnerabilities, or SeverityNone if it has none.
func HighestSeverity(pkg *Package) Severity {
	highest := SeverityNone
	for i := range pkg.Vulnerabilities {
		if pkg.Vulnerabilities[i].Severity.MoreSevere(highest) {
			highest = pkg.Vulnerabilities[i].Severity
		}
	}
	return highest
}
