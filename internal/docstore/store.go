// Package docstore provides the similarity-searchable document store
// abstraction and its backends: an ephemeral in-process store, a durable
// SQLite store, a durable lexical Bleve store, and a remote Qdrant store.
// All backends share one contract and are selected by configuration.
package docstore

import (
	"context"
	"sort"
	"strings"

	"sbomrag/internal/models"
)

// Store holds documents and answers similarity queries with optional
// exact-match metadata filters.
type Store interface {
	// AddDocuments upserts documents by id.
	AddDocuments(ctx context.Context, docs []models.Document) error
	// Search returns matching documents ordered by descending score. A
	// non-positive limit returns all matches.
	Search(ctx context.Context, query Query) ([]Result, error)
	// DeleteProject removes every document belonging to projectID.
	DeleteProject(ctx context.Context, projectID string) error
	// Clear removes all documents.
	Clear(ctx context.Context) error
	Close() error
}

// Query is one similarity search. Vector is the embedding of Text, computed
// by the caller; backends never call the embedder themselves.
type Query struct {
	Text   string
	Vector []float32
	Limit  int
	Filter Filter
}

// Result is a single search hit.
type Result struct {
	Document models.Document
	Score    float64
}

// Filter is the closed set of metadata predicates. Set fields are ANDed with
// exact equality; zero-valued fields match everything. Service matches
// membership in the document's service list.
type Filter struct {
	Kind      models.DocKind
	ProjectID string
	Severity  models.Severity
	Direct    *bool
	Ecosystem string
	Service   string
}

// IsZero reports whether no predicate is set.
func (f Filter) IsZero() bool {
	return f.Kind == "" && f.ProjectID == "" && f.Severity == "" &&
		f.Direct == nil && f.Ecosystem == "" && f.Service == ""
}

// Matches reports whether meta satisfies every set predicate.
func (f Filter) Matches(meta models.DocMeta) bool {
	if f.Kind != "" && meta.Kind != f.Kind {
		return false
	}
	if f.ProjectID != "" && meta.ProjectID != f.ProjectID {
		return false
	}
	if f.Severity != "" && meta.Severity != f.Severity {
		return false
	}
	if f.Direct != nil && meta.Direct != *f.Direct {
		return false
	}
	if f.Ecosystem != "" && meta.Ecosystem != f.Ecosystem {
		return false
	}
	if f.Service != "" {
		found := false
		for _, svc := range meta.Services {
			if svc == f.Service {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Score computes the relevance of doc to the query: cosine similarity when
// both the query vector and the document embedding are present, otherwise a
// deterministic lexical overlap score. Higher always means more relevant.
func Score(query Query, doc *models.Document) float64 {
	if len(query.Vector) > 0 && len(doc.Embedding) > 0 {
		return CosineSimilarity(query.Vector, doc.Embedding)
	}
	return lexicalScore(query.Text, doc.Text)
}

// CosineSimilarity returns the cosine similarity of two normalized vectors,
// clamped to [0, 1]. Mismatched or empty vectors score zero.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i] * b[i])
	}
	if dot < 0 {
		return 0
	}
	if dot > 1 {
		return 1
	}
	return dot
}

// lexicalScore is the fraction of distinct query tokens present in the text.
func lexicalScore(query, text string) float64 {
	queryTokens := tokenize(query)
	if len(queryTokens) == 0 {
		return 0
	}
	textTokens := make(map[string]bool)
	for _, tok := range tokenize(text) {
		textTokens[tok] = true
	}
	seen := make(map[string]bool)
	matched, total := 0, 0
	for _, tok := range queryTokens {
		if seen[tok] {
			continue
		}
		seen[tok] = true
		total++
		if textTokens[tok] {
			matched++
		}
	}
	return float64(matched) / float64(total)
}

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !('a' <= r && r <= 'z' || '0' <= r && r <= '9')
	})
}

// sortAndLimit orders results by descending score (ties broken by id for
// determinism) and truncates to limit when positive.
func sortAndLimit(results []Result, limit int) []Result {
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Document.ID < results[j].Document.ID
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}
