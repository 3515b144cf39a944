package e2e

import (
	"context"
	"testing"

	"sbomrag/internal/docstore"
	"sbomrag/internal/embedding"
	"sbomrag/internal/engine"
	"sbomrag/internal/models"
)

const e2eDimensions = 16

func newEngine(t *testing.T) *engine.Engine {
	t.Helper()
	store := docstore.NewMemoryStore()
	t.Cleanup(func() { store.Close() })
	embedder := embedding.NewMockEmbedder(e2eDimensions)
	t.Cleanup(func() { embedder.Close() })
	return engine.New(store, embedder, nil, nil, 5)
}

func TestE2E_CriticalQuestionYieldsRemediation(t *testing.T) {
	eng := newEngine(t)
	ctx := context.Background()

	inv := VulnerableInventory()
	if err := eng.IndexInventory(ctx, inv); err != nil {
		t.Fatalf("index inventory: %v", err)
	}

	answer, err := eng.Ask(ctx, inv.ProjectID, "What should I do about critical vulnerabilities?")
	if err != nil {
		t.Fatalf("ask: %v", err)
	}

	if answer.Markdown == "" {
		t.Error("expected a non-empty markdown answer")
	}
	if len(answer.Remediation) == 0 {
		t.Fatal("expected a remediation plan")
	}

	first := answer.Remediation[0]
	if first.Impact != models.ImpactHigh {
		t.Errorf("first step impact = %s, want %s", first.Impact, models.ImpactHigh)
	}
	if !containsString(first.Packages, "axios") {
		t.Errorf("first step packages %v should include axios", first.Packages)
	}

	second := answer.Remediation[1]
	if !containsString(second.Packages, "lodash") {
		t.Errorf("second step packages %v should include lodash", second.Packages)
	}

	foundAxiosCitation := false
	for _, c := range answer.Citations {
		if c.Type == models.CitationPackage && c.ID == "axios@0.21.1" {
			foundAxiosCitation = true
		}
	}
	if !foundAxiosCitation {
		t.Errorf("citations %v should include package citation axios@0.21.1", answer.Citations)
	}
}

func TestE2E_CleanProjectHasEmptyPlan(t *testing.T) {
	eng := newEngine(t)
	ctx := context.Background()

	inv := CleanInventory()
	if err := eng.IndexInventory(ctx, inv); err != nil {
		t.Fatalf("index inventory: %v", err)
	}

	answer, err := eng.Ask(ctx, inv.ProjectID, "How healthy are my dependencies?")
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if answer.Markdown == "" {
		t.Error("expected a non-empty markdown answer even for a clean project")
	}
	if len(answer.Remediation) != 0 {
		t.Errorf("expected an empty remediation plan, got %d steps", len(answer.Remediation))
	}
}

func TestE2E_UnknownProjectIsRejected(t *testing.T) {
	eng := newEngine(t)

	_, err := eng.Ask(context.Background(), "nope", "anything")
	if err == nil {
		t.Fatal("expected an error for an unknown project")
	}
}

func TestE2E_ReindexReplacesProject(t *testing.T) {
	eng := newEngine(t)
	ctx := context.Background()

	inv := VulnerableInventory()
	if err := eng.IndexInventory(ctx, inv); err != nil {
		t.Fatalf("index inventory: %v", err)
	}

	// Second scan: everything fixed.
	fixed := CleanInventory()
	fixed.ProjectID = inv.ProjectID
	if err := eng.IndexInventory(ctx, fixed); err != nil {
		t.Fatalf("re-index inventory: %v", err)
	}

	answer, err := eng.Ask(ctx, inv.ProjectID, "What should I do about critical vulnerabilities?")
	if err != nil {
		t.Fatalf("ask after re-index: %v", err)
	}
	if len(answer.Remediation) != 0 {
		t.Errorf("remediation plan should reflect the fresh scan, got %d steps", len(answer.Remediation))
	}
}

func containsString(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}
