// Package engine implements the retrieval-augmented reasoning engine: it
// indexes enriched inventories into the document store, caches them by
// project id, and answers free-form security questions by retrieving context
// and synthesizing a structured answer plus a deterministic remediation plan.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"sbomrag/internal/docstore"
	"sbomrag/internal/embedding"
	"sbomrag/internal/models"
	"sbomrag/internal/processor"
	"sbomrag/internal/reasoning"
)

// ErrNotIndexed is returned by Ask for a project id with no cached inventory.
// It is the only error that crosses the engine boundary from Ask.
var ErrNotIndexed = errors.New("project not indexed")

const defaultTopK = 5

// Engine orchestrates indexing and question answering. The inventory cache is
// owned exclusively by the engine; concurrent calls for different project ids
// do not interfere.
type Engine struct {
	store    docstore.Store
	embedder embedding.Embedder
	// provider may be nil; the deterministic fallback is then the sole path.
	provider reasoning.Provider
	logger   *zap.Logger
	topK     int

	mu          sync.RWMutex
	inventories map[string]*models.Inventory
}

// New creates an engine with the given dependencies. provider may be nil.
// A non-positive topK uses the default.
func New(store docstore.Store, embedder embedding.Embedder, provider reasoning.Provider, logger *zap.Logger, topK int) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if topK <= 0 {
		topK = defaultTopK
	}
	return &Engine{
		store:       store,
		embedder:    embedder,
		provider:    provider,
		logger:      logger,
		topK:        topK,
		inventories: make(map[string]*models.Inventory),
	}
}

// IndexInventory converts the inventory into documents, embeds them, upserts
// them into the document store, and caches the inventory by project id.
// Re-indexing the same project id replaces its document set: documents from
// the previous inventory are removed before the new ones are upserted, so no
// stale document survives. Embedding failures are absorbed: documents are
// upserted without vectors and the store's lexical scoring serves them.
func (e *Engine) IndexInventory(ctx context.Context, inv *models.Inventory) error {
	if inv == nil || inv.ProjectID == "" {
		return errors.New("inventory missing project id")
	}
	docs := processor.ToDocuments(inv)

	texts := make([]string, len(docs))
	for i := range docs {
		texts[i] = docs[i].Text
	}
	embeddings, err := e.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		e.logger.Warn("embedding failed, indexing without vectors",
			zap.String("project_id", inv.ProjectID), zap.Error(err))
	} else {
		for i := range docs {
			docs[i].Embedding = embeddings[i]
		}
	}

	if err := e.store.DeleteProject(ctx, inv.ProjectID); err != nil {
		return fmt.Errorf("remove previous documents: %w", err)
	}
	if err := e.store.AddDocuments(ctx, docs); err != nil {
		return fmt.Errorf("upsert documents: %w", err)
	}

	e.mu.Lock()
	e.inventories[inv.ProjectID] = inv
	e.mu.Unlock()

	e.logger.Info("inventory indexed",
		zap.String("project_id", inv.ProjectID),
		zap.Int("packages", len(inv.Packages)),
		zap.Int("documents", len(docs)))
	return nil
}

// Ask answers a question about an indexed project. It gathers retrieval
// context, attempts the external reasoning provider if configured, falls back
// to the deterministic answer on any provider failure, and always appends a
// freshly computed remediation plan. The only possible error is ErrNotIndexed.
func (e *Engine) Ask(ctx context.Context, projectID, question string) (*models.Answer, error) {
	inv, ok := e.Inventory(projectID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotIndexed, projectID)
	}

	bundle := e.gatherContext(ctx, projectID, question)

	var markdown string
	var findings []models.Finding
	var citations []models.Citation
	answered := false
	if e.provider != nil {
		prompt := BuildPrompt(question, inv, bundle)
		raw, err := e.provider.Complete(ctx, prompt)
		if err != nil {
			e.logger.Warn("reasoning provider failed, using fallback",
				zap.String("project_id", projectID), zap.Error(err))
		} else if parsed, perr := parseProviderAnswer(raw); perr != nil {
			e.logger.Warn("reasoning response unusable, using fallback",
				zap.String("project_id", projectID), zap.Error(perr))
		} else {
			markdown = parsed.Answer
			findings = parsed.KeyFindings
			citations = parsed.Citations
			answered = true
		}
	}
	if !answered {
		markdown, findings, citations = fallbackAnswer(inv, question)
	}

	return &models.Answer{
		ID:          uuid.NewString(),
		ProjectID:   projectID,
		Question:    question,
		Markdown:    markdown,
		KeyFindings: findings,
		Remediation: BuildRemediationPlan(inv),
		Citations:   citations,
		GeneratedAt: time.Now().UTC(),
	}, nil
}

// IsIndexed reports whether an inventory is cached for projectID.
func (e *Engine) IsIndexed(projectID string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.inventories[projectID]
	return ok
}

// Projects returns the sorted ids of all indexed projects.
func (e *Engine) Projects() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	ids := make([]string, 0, len(e.inventories))
	for id := range e.inventories {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Inventory returns the cached inventory for projectID.
func (e *Engine) Inventory(projectID string) (*models.Inventory, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	inv, ok := e.inventories[projectID]
	return inv, ok
}
