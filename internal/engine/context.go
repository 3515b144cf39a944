package engine

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"sbomrag/internal/docstore"
	"sbomrag/internal/models"
)

// contextBundle holds the four retrieval result sets gathered for one question.
type contextBundle struct {
	general      []docstore.Result
	criticalVuln []docstore.Result
	highVuln     []docstore.Result
	directPkgs   []docstore.Result
}

// gatherContext runs the four retrieval queries concurrently and waits for
// all of them. Retrieval errors are logged and yield empty result sets; they
// never fail the ask call.
func (e *Engine) gatherContext(ctx context.Context, projectID, question string) *contextBundle {
	vector, err := e.embedder.Embed(ctx, question)
	if err != nil {
		e.logger.Warn("query embedding failed, using lexical retrieval",
			zap.String("project_id", projectID), zap.Error(err))
		vector = nil
	}

	directTrue := true
	bundle := &contextBundle{}
	type retrieval struct {
		name   string
		filter docstore.Filter
		dest   *[]docstore.Result
	}
	retrievals := []retrieval{
		{"general", docstore.Filter{ProjectID: projectID}, &bundle.general},
		{"critical_vulns", docstore.Filter{ProjectID: projectID, Kind: models.DocKindVuln, Severity: models.SeverityCritical}, &bundle.criticalVuln},
		{"high_vulns", docstore.Filter{ProjectID: projectID, Kind: models.DocKindVuln, Severity: models.SeverityHigh}, &bundle.highVuln},
		{"direct_packages", docstore.Filter{ProjectID: projectID, Kind: models.DocKindPackage, Direct: &directTrue}, &bundle.directPkgs},
	}

	var wg sync.WaitGroup
	for _, r := range retrievals {
		r := r
		wg.Add(1)
		go func() {
			defer wg.Done()
			results, err := e.store.Search(ctx, docstore.Query{
				Text:   question,
				Vector: vector,
				Limit:  e.topK,
				Filter: r.filter,
			})
			if err != nil {
				e.logger.Warn("retrieval query failed",
					zap.String("project_id", projectID),
					zap.String("query", r.name),
					zap.Error(err))
				return
			}
			*r.dest = results
		}()
	}
	wg.Wait()
	return bundle
}
