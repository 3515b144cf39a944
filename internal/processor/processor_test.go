package processor

import (
	"strings"
	"testing"
	"time"

	"sbomrag/internal/models"
)

func testInventory() *models.Inventory {
	return &models.Inventory{
		ProjectID:   "shop-backend",
		GeneratedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Languages:   []string{"javascript"},
		Services:    []string{"api", "worker"},
		Packages: []models.Package{
			{
				Name:      "axios",
				Version:   "0.21.1",
				Ecosystem: "npm",
				Direct:    true,
				License:   "MIT",
				Services:  []string{"api"},
				Vulnerabilities: []models.Vulnerability{
					{
						ID:       "CVE-2021-3749",
						CVSS:     9.8,
						Severity: models.SeverityCritical,
						Summary:  "ReDoS in trim function",
						Exploits: []models.Exploit{{Source: "exploit-db", Maturity: "poc"}},
					},
				},
			},
			{
				Name:      "event-stream",
				Version:   "3.3.6",
				Ecosystem: "npm",
				Direct:    false,
				Risk:      models.RiskProfile{Abandoned: true},
			},
		},
		Summary: models.Summary{
			Counts: models.SeverityCounts{Critical: 1},
			TopRisks: []models.TopRisk{
				{Name: "axios", Version: "0.21.1", Reason: "critical vulnerability", Score: 0.9},
			},
		},
	}
}

func TestToDocumentsShape(t *testing.T) {
	inv := testInventory()
	docs := ToDocuments(inv)

	// 1 project + 2 services + 2 packages + 1 vulnerability.
	if len(docs) != 6 {
		t.Fatalf("got %d documents, want 6", len(docs))
	}

	wantIDs := []string{
		"project:shop-backend",
		"service:shop-backend:api",
		"service:shop-backend:worker",
		"package:shop-backend:axios:0.21.1",
		"vuln:shop-backend:axios:0.21.1:CVE-2021-3749",
		"package:shop-backend:event-stream:3.3.6",
	}
	for i, want := range wantIDs {
		if docs[i].ID != want {
			t.Errorf("docs[%d].ID = %q, want %q", i, docs[i].ID, want)
		}
	}
}

func TestToDocumentsIsDeterministic(t *testing.T) {
	inv := testInventory()
	a := ToDocuments(inv)
	b := ToDocuments(inv)
	if len(a) != len(b) {
		t.Fatalf("document counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].ID != b[i].ID || a[i].Text != b[i].Text {
			t.Errorf("document %d differs between runs", i)
		}
	}
}

func TestProjectDocumentText(t *testing.T) {
	docs := ToDocuments(testInventory())
	doc := docs[0]

	if doc.Meta.Kind != models.DocKindProject {
		t.Errorf("kind = %s, want %s", doc.Meta.Kind, models.DocKindProject)
	}
	for _, want := range []string{"shop-backend", "2 total, 1 direct, 1 transitive", "1 critical", "javascript", "axios@0.21.1"} {
		if !strings.Contains(doc.Text, want) {
			t.Errorf("project text missing %q:\n%s", want, doc.Text)
		}
	}
}

func TestServiceDocumentMembership(t *testing.T) {
	docs := ToDocuments(testInventory())
	api := docs[1]

	if api.Meta.Kind != models.DocKindService || api.Meta.Name != "api" {
		t.Fatalf("unexpected service doc meta: %+v", api.Meta)
	}
	if !strings.Contains(api.Text, "1 packages with 1 known vulnerabilities") {
		t.Errorf("api service text should count its members:\n%s", api.Text)
	}
	if !strings.Contains(api.Text, "axios@0.21.1") {
		t.Errorf("api service text should list direct members:\n%s", api.Text)
	}

	// The worker service has no member packages.
	worker := docs[2]
	if !strings.Contains(worker.Text, "0 packages with 0 known vulnerabilities") {
		t.Errorf("worker service text should be empty of members:\n%s", worker.Text)
	}
}

func TestPackageDocumentMeta(t *testing.T) {
	docs := ToDocuments(testInventory())
	pkg := docs[3]

	meta := pkg.Meta
	if meta.Kind != models.DocKindPackage || meta.Name != "axios" || meta.Version != "0.21.1" {
		t.Fatalf("unexpected package meta: %+v", meta)
	}
	if !meta.Direct {
		t.Error("axios should be marked direct")
	}
	if meta.Severity != models.SeverityCritical {
		t.Errorf("package severity = %s, want %s", meta.Severity, models.SeverityCritical)
	}
	if !strings.Contains(pkg.Text, "direct dependency") {
		t.Errorf("package text should state directness:\n%s", pkg.Text)
	}
}

func TestVulnDocument(t *testing.T) {
	docs := ToDocuments(testInventory())
	vuln := docs[4]

	meta := vuln.Meta
	if meta.Kind != models.DocKindVuln || meta.AdvisoryID != "CVE-2021-3749" {
		t.Fatalf("unexpected vuln meta: %+v", meta)
	}
	if meta.Severity != models.SeverityCritical {
		t.Errorf("vuln severity = %s, want %s", meta.Severity, models.SeverityCritical)
	}
	for _, want := range []string{"CVE-2021-3749", "CVSS 9.8", "ReDoS", "Known exploits: 1 (poc)", "direct dependency"} {
		if !strings.Contains(vuln.Text, want) {
			t.Errorf("vuln text missing %q:\n%s", want, vuln.Text)
		}
	}
}

func TestVulnDocumentIDsSharedAdvisory(t *testing.T) {
	inv := &models.Inventory{
		ProjectID: "shop-backend",
		Packages: []models.Package{
			{
				Name: "axios", Version: "0.21.1", Ecosystem: "npm", Direct: true,
				Vulnerabilities: []models.Vulnerability{
					{ID: "CVE-2024-0001", Severity: models.SeverityHigh},
				},
			},
			{
				Name: "got", Version: "11.0.0", Ecosystem: "npm",
				Vulnerabilities: []models.Vulnerability{
					{ID: "CVE-2024-0001", Severity: models.SeverityHigh},
				},
			},
		},
	}

	// One advisory affecting two packages must keep one document per
	// (package, vulnerability) pair, not collapse them under one id.
	var vulnIDs []string
	for _, doc := range ToDocuments(inv) {
		if doc.Meta.Kind == models.DocKindVuln {
			vulnIDs = append(vulnIDs, doc.ID)
			if doc.Meta.AdvisoryID != "CVE-2024-0001" {
				t.Errorf("advisory id = %q", doc.Meta.AdvisoryID)
			}
		}
	}
	if len(vulnIDs) != 2 || vulnIDs[0] == vulnIDs[1] {
		t.Fatalf("vuln document ids = %v, want two distinct ids", vulnIDs)
	}
}

func TestRiskFactors(t *testing.T) {
	pkg := &models.Package{
		Name:    "evnt-stream",
		Version: "1.0.0",
		Risk: models.RiskProfile{
			Abandoned:              true,
			NewlyCreated:           true,
			TyposquattingSuspicion: 0.8,
		},
	}
	factors := RiskFactors(pkg)
	if len(factors) != 3 {
		t.Fatalf("got %d factors, want 3: %v", len(factors), factors)
	}

	// Suspicion at or below the threshold is not a factor.
	pkg.Risk = models.RiskProfile{TyposquattingSuspicion: 0.5}
	if factors := RiskFactors(pkg); len(factors) != 0 {
		t.Errorf("suspicion 0.5 should yield no factors, got %v", factors)
	}
}
