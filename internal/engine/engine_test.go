package engine

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"sbomrag/internal/docstore"
	"sbomrag/internal/embedding"
	"sbomrag/internal/models"
)

// fakeProvider returns a canned response or error.
type fakeProvider struct {
	response string
	err      error
	calls    int
}

func (p *fakeProvider) Complete(ctx context.Context, prompt string) (string, error) {
	p.calls++
	if p.err != nil {
		return "", p.err
	}
	return p.response, nil
}

func vulnerableInventory() *models.Inventory {
	return &models.Inventory{
		ProjectID:   "shop-backend",
		GeneratedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Services:    []string{"api"},
		Packages: []models.Package{
			{
				Name: "axios", Version: "0.21.1", Ecosystem: "npm", Direct: true,
				Services: []string{"api"},
				Vulnerabilities: []models.Vulnerability{
					{ID: "CVE-2021-3749", CVSS: 9.8, Severity: models.SeverityCritical},
				},
			},
			{
				Name: "lodash", Version: "4.17.19", Ecosystem: "npm", Direct: true,
				Vulnerabilities: []models.Vulnerability{
					{ID: "CVE-2021-23337", CVSS: 7.2, Severity: models.SeverityHigh},
				},
			},
		},
		Summary: models.Summary{
			Counts: models.SeverityCounts{Critical: 1, High: 1},
			TopRisks: []models.TopRisk{
				{Name: "axios", Version: "0.21.1", Reason: "critical vulnerability", Score: 0.95},
			},
		},
	}
}

func newTestEngine(provider *fakeProvider) *Engine {
	store := docstore.NewMemoryStore()
	embedder := embedding.NewMockEmbedder(16)
	if provider == nil {
		return New(store, embedder, nil, nil, 5)
	}
	return New(store, embedder, provider, nil, 5)
}

func TestIndexInventoryRejectsMissingProjectID(t *testing.T) {
	eng := newTestEngine(nil)
	ctx := context.Background()

	if err := eng.IndexInventory(ctx, nil); err == nil {
		t.Error("expected an error for a nil inventory")
	}
	if err := eng.IndexInventory(ctx, &models.Inventory{}); err == nil {
		t.Error("expected an error for a missing project id")
	}
}

func TestAskNotIndexed(t *testing.T) {
	eng := newTestEngine(nil)

	_, err := eng.Ask(context.Background(), "ghost", "anything")
	if !errors.Is(err, ErrNotIndexed) {
		t.Fatalf("err = %v, want ErrNotIndexed", err)
	}
}

func TestAskNotIndexedBeatsEmptyQuestion(t *testing.T) {
	eng := newTestEngine(nil)

	// The unknown project is reported even when the question is empty.
	_, err := eng.Ask(context.Background(), "ghost", "")
	if !errors.Is(err, ErrNotIndexed) {
		t.Fatalf("err = %v, want ErrNotIndexed", err)
	}
}

func TestAskFallbackAnswer(t *testing.T) {
	eng := newTestEngine(nil)
	ctx := context.Background()
	inv := vulnerableInventory()
	if err := eng.IndexInventory(ctx, inv); err != nil {
		t.Fatal(err)
	}

	answer, err := eng.Ask(ctx, inv.ProjectID, "What are the critical vulnerabilities?")
	if err != nil {
		t.Fatal(err)
	}
	if answer.Markdown == "" {
		t.Error("expected a non-empty markdown answer")
	}
	if answer.ProjectID != inv.ProjectID {
		t.Errorf("ProjectID = %q, want %q", answer.ProjectID, inv.ProjectID)
	}
	if answer.ID == "" {
		t.Error("expected a generated answer id")
	}
	if len(answer.Remediation) == 0 {
		t.Error("expected a remediation plan")
	}
	if len(answer.KeyFindings) == 0 || answer.KeyFindings[0].Entity != "axios@0.21.1" {
		t.Errorf("key findings should come from the top-risk list, got %+v", answer.KeyFindings)
	}
}

func TestAskProviderFailureIsAbsorbed(t *testing.T) {
	provider := &fakeProvider{err: errors.New("rate limited")}
	eng := newTestEngine(provider)
	ctx := context.Background()
	inv := vulnerableInventory()
	if err := eng.IndexInventory(ctx, inv); err != nil {
		t.Fatal(err)
	}

	answer, err := eng.Ask(ctx, inv.ProjectID, "summarize my risks")
	if err != nil {
		t.Fatalf("provider failure must not surface: %v", err)
	}
	if provider.calls != 1 {
		t.Errorf("provider called %d times, want 1", provider.calls)
	}
	if answer.Markdown == "" {
		t.Error("fallback should have produced an answer")
	}
}

func TestAskProviderGarbageFallsBack(t *testing.T) {
	provider := &fakeProvider{response: "I'm sorry, I can't answer that."}
	eng := newTestEngine(provider)
	ctx := context.Background()
	inv := vulnerableInventory()
	if err := eng.IndexInventory(ctx, inv); err != nil {
		t.Fatal(err)
	}

	answer, err := eng.Ask(ctx, inv.ProjectID, "summarize my risks")
	if err != nil {
		t.Fatal(err)
	}
	if answer.Markdown == "" {
		t.Error("fallback should have produced an answer")
	}
}

func TestAskProviderAnswerIsUsed(t *testing.T) {
	provider := &fakeProvider{response: `{
		"answer": "Upgrade axios first.",
		"keyFindings": [{"entity": "axios@0.21.1", "reason": "critical CVE"}],
		"citations": [{"type": "package", "id": "axios@0.21.1"}]
	}`}
	eng := newTestEngine(provider)
	ctx := context.Background()
	inv := vulnerableInventory()
	if err := eng.IndexInventory(ctx, inv); err != nil {
		t.Fatal(err)
	}

	answer, err := eng.Ask(ctx, inv.ProjectID, "what first?")
	if err != nil {
		t.Fatal(err)
	}
	if answer.Markdown != "Upgrade axios first." {
		t.Errorf("Markdown = %q, want the provider's answer", answer.Markdown)
	}
	// The remediation plan is always computed locally, even on provider success.
	if len(answer.Remediation) == 0 {
		t.Error("remediation plan missing from a provider-backed answer")
	}
}

func TestReindexReplacesInventory(t *testing.T) {
	eng := newTestEngine(nil)
	ctx := context.Background()
	inv := vulnerableInventory()
	if err := eng.IndexInventory(ctx, inv); err != nil {
		t.Fatal(err)
	}

	clean := &models.Inventory{
		ProjectID: inv.ProjectID,
		Packages: []models.Package{
			{Name: "axios", Version: "1.6.0", Ecosystem: "npm", Direct: true},
		},
	}
	if err := eng.IndexInventory(ctx, clean); err != nil {
		t.Fatal(err)
	}

	answer, err := eng.Ask(ctx, inv.ProjectID, "What are the critical vulnerabilities?")
	if err != nil {
		t.Fatal(err)
	}
	if len(answer.Remediation) != 0 {
		t.Errorf("plan should reflect the fresh inventory, got %d steps", len(answer.Remediation))
	}
}

func TestReindexRemovesStaleDocuments(t *testing.T) {
	store := docstore.NewMemoryStore()
	eng := New(store, embedding.NewMockEmbedder(16), nil, nil, 5)
	ctx := context.Background()
	inv := vulnerableInventory()
	if err := eng.IndexInventory(ctx, inv); err != nil {
		t.Fatal(err)
	}

	fixed := &models.Inventory{
		ProjectID: inv.ProjectID,
		Packages: []models.Package{
			{Name: "axios", Version: "1.6.0", Ecosystem: "npm", Direct: true},
		},
	}
	if err := eng.IndexInventory(ctx, fixed); err != nil {
		t.Fatal(err)
	}

	// The fixed inventory has no critical vulnerabilities, so the retrieval
	// query must come back empty rather than surface the overwritten CVE.
	results, err := store.Search(ctx, docstore.Query{
		Text: "critical vulnerabilities",
		Filter: docstore.Filter{
			Kind:      models.DocKindVuln,
			ProjectID: inv.ProjectID,
			Severity:  models.SeverityCritical,
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range results {
		t.Errorf("document from the overwritten inventory still retrievable: %s", r.Document.ID)
	}

	pkgs, err := store.Search(ctx, docstore.Query{
		Filter: docstore.Filter{Kind: models.DocKindPackage, ProjectID: inv.ProjectID},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(pkgs) != 1 || pkgs[0].Document.ID != "package:shop-backend:axios:1.6.0" {
		t.Errorf("package documents = %v, want only the fixed axios package", pkgs)
	}
}

func TestProjectsSorted(t *testing.T) {
	eng := newTestEngine(nil)
	ctx := context.Background()
	for _, id := range []string{"zeta", "alpha", "mid"} {
		inv := &models.Inventory{ProjectID: id}
		if err := eng.IndexInventory(ctx, inv); err != nil {
			t.Fatal(err)
		}
	}

	got := eng.Projects()
	want := []string{"alpha", "mid", "zeta"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
	if !eng.IsIndexed("alpha") {
		t.Error("alpha should be indexed")
	}
	if eng.IsIndexed("omega") {
		t.Error("omega should not be indexed")
	}
}

func TestFallbackNarrativeRouting(t *testing.T) {
	inv := vulnerableInventory()

	critical, _, _ := fallbackAnswer(inv, "Tell me about CRITICAL issues")
	if want := "## Critical vulnerabilities"; !strings.Contains(critical, want) {
		t.Errorf("critical question routed wrong:\n%s", critical)
	}

	upgrade, _, _ := fallbackAnswer(inv, "what should I upgrade?")
	if want := "## Upgrade priorities"; !strings.Contains(upgrade, want) {
		t.Errorf("upgrade question routed wrong:\n%s", upgrade)
	}

	// "critical" wins over "upgrade" when both appear.
	both, _, _ := fallbackAnswer(inv, "should I upgrade the critical ones?")
	if want := "## Critical vulnerabilities"; !strings.Contains(both, want) {
		t.Errorf("mixed question routed wrong:\n%s", both)
	}

	summary, _, _ := fallbackAnswer(inv, "how do things look?")
	if want := "## Security summary"; !strings.Contains(summary, want) {
		t.Errorf("generic question routed wrong:\n%s", summary)
	}
}

func TestFallbackCitations(t *testing.T) {
	inv := vulnerableInventory()
	_, _, citations := fallbackAnswer(inv, "anything")

	var pkgCited, vulnCited bool
	for _, c := range citations {
		if c.Type == models.CitationPackage && c.ID == "axios@0.21.1" {
			pkgCited = true
		}
		if c.Type == models.CitationVuln && c.ID == "CVE-2021-3749" {
			vulnCited = true
		}
	}
	if !pkgCited || !vulnCited {
		t.Errorf("citations missing expected entries: %+v", citations)
	}
}
