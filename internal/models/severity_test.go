package models

import "testing"

func TestSeverityOrdering(t *testing.T) {
	order := []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow, SeverityNone}
	for i := 0; i < len(order)-1; i++ {
		if !order[i].MoreSevere(order[i+1]) {
			t.Errorf("%s should be more severe than %s", order[i], order[i+1])
		}
		if order[i+1].MoreSevere(order[i]) {
			t.Errorf("%s should not be more severe than %s", order[i+1], order[i])
		}
	}
}

func TestSeverityNotMoreSevereThanItself(t *testing.T) {
	if SeverityHigh.MoreSevere(SeverityHigh) {
		t.Error("a severity must not be strictly more severe than itself")
	}
}

func TestUnknownSeverityRanksLast(t *testing.T) {
	unknown := Severity("WEIRD")
	if unknown.MoreSevere(SeverityNone) {
		t.Error("unknown severity should rank below NONE")
	}
	if !SeverityLow.MoreSevere(unknown) {
		t.Error("LOW should outrank an unknown severity")
	}
}

func TestHighestSeverity(t *testing.T) {
	pkg := &Package{
		Name:    "left-pad",
		Version: "1.3.0",
		Vulnerabilities: []Vulnerability{
			{ID: "A", Severity: SeverityLow},
			{ID: "B", Severity: SeverityHigh},
			{ID: "C", Severity: SeverityMedium},
		},
	}
	if got := HighestSeverity(pkg); got != SeverityHigh {
		t.Errorf("HighestSeverity = %s, want %s", got, SeverityHigh)
	}
}

func TestHighestSeverityNoVulns(t *testing.T) {
	pkg := &Package{Name: "left-pad", Version: "1.3.0"}
	if got := HighestSeverity(pkg); got != SeverityNone {
		t.Errorf("HighestSeverity = %s, want %s", got, SeverityNone)
	}
}

func TestSeverityCountsTotal(t *testing.T) {
	c := SeverityCounts{Critical: 1, High: 2, Medium: 3, Low: 4}
	if c.Total() != 10 {
		t.Errorf("Total = %d, want 10", c.Total())
	}
}

func TestPackageRef(t *testing.T) {
	pkg := &Package{Name: "axios", Version: "0.21.1"}
	if pkg.Ref() != "axios@0.21.1" {
		t.Errorf("Ref = %q, want axios@0.21.1", pkg.Ref())
	}
}
