package docstore

import (
	"context"
	"sync"

	"sbomrag/internal/models"
)

// MemoryStore is an ephemeral in-process document store using brute-force
// scoring. Suitable for tests and single-process deployments.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]models.Document
	ids  []string // insertion order, for stable iteration
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]models.Document)}
}

// AddDocuments upserts documents by id.
func (s *MemoryStore) AddDocuments(ctx context.Context, docs []models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, doc := range docs {
		if _, exists := s.docs[doc.ID]; !exists {
			s.ids = append(s.ids, doc.ID)
		}
		s.docs[doc.ID] = doc
	}
	return nil
}

// Search scores every document passing the filter and returns them ordered by
// descending score.
func (s *MemoryStore) Search(ctx context.Context, query Query) ([]Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var results []Result
	for _, id := range s.ids {
		doc := s.docs[id]
		if !query.Filter.Matches(doc.Meta) {
			continue
		}
		results = append(results, Result{Document: doc, Score: Score(query, &doc)})
	}
	return sortAndLimit(results, query.Limit), nil
}

// DeleteProject removes every document whose metadata carries projectID.
func (s *MemoryStore) DeleteProject(ctx context.Context, projectID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.ids[:0]
	for _, id := range s.ids {
		if s.docs[id].Meta.ProjectID == projectID {
			delete(s.docs, id)
			continue
		}
		kept = append(kept, id)
	}
	s.ids = kept
	return nil
}

// Clear removes all documents.
func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = make(map[string]models.Document)
	s.ids = nil
	return nil
}

// Size returns the number of stored documents.
func (s *MemoryStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ids)
}

// Close is a no-op for MemoryStore.
func (s *MemoryStore) Close() error {
	return nil
}
