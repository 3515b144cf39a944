package docstore

import (
	"context"
	"fmt"
	"os"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	blevequery "github.com/blevesearch/bleve/v2/search/query"

	"sbomrag/internal/models"
)

// BleveStore is a durable document store scoring by lexical relevance. It
// needs no embedding provider: document text is indexed with the standard
// analyzer and metadata fields are indexed verbatim for exact-match filters.
type BleveStore struct {
	index bleve.Index
}

// bleveDoc is the flat shape indexed per document.
type bleveDoc struct {
	Text       string   `json:"text"`
	Kind       string   `json:"kind"`
	ProjectID  string   `json:"project_id"`
	Name       string   `json:"name"`
	Version    string   `json:"version"`
	Ecosystem  string   `json:"ecosystem"`
	Direct     bool     `json:"direct"`
	Severity   string   `json:"severity"`
	Services   []string `json:"services"`
	AdvisoryID string   `json:"advisory_id"`
}

// NewBleveStore creates or opens a Bleve index at path.
func NewBleveStore(path string) (*BleveStore, error) {
	if _, err := os.Stat(path); err == nil {
		index, openErr := bleve.Open(path)
		if openErr != nil {
			return nil, fmt.Errorf("failed to open Bleve index: %w", openErr)
		}
		return &BleveStore{index: index}, nil
	}

	im := bleve.NewIndexMapping()
	docMapping := bleve.NewDocumentMapping()

	textFieldMapping := bleve.NewTextFieldMapping()
	// Standard analyzer (lowercase + tokenize, no stemming) so package and
	// advisory names match exactly as typed.
	textFieldMapping.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt("text", textFieldMapping)

	for _, field := range []string{"kind", "project_id", "name", "version", "ecosystem", "severity", "services", "advisory_id"} {
		docMapping.AddFieldMappingsAt(field, bleve.NewKeywordFieldMapping())
	}
	docMapping.AddFieldMappingsAt("direct", bleve.NewBooleanFieldMapping())

	im.AddDocumentMapping("document", docMapping)
	im.DefaultType = "document"
	im.DefaultMapping = docMapping

	index, err := bleve.New(path, im)
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}
	return &BleveStore{index: index}, nil
}

// AddDocuments upserts documents by id in one batch.
func (s *BleveStore) AddDocuments(ctx context.Context, docs []models.Document) error {
	batch := s.index.NewBatch()
	for _, doc := range docs {
		flat := bleveDoc{
			Text:       doc.Text,
			Kind:       string(doc.Meta.Kind),
			ProjectID:  doc.Meta.ProjectID,
			Name:       doc.Meta.Name,
			Version:    doc.Meta.Version,
			Ecosystem:  doc.Meta.Ecosystem,
			Direct:     doc.Meta.Direct,
			Severity:   string(doc.Meta.Severity),
			Services:   doc.Meta.Services,
			AdvisoryID: doc.Meta.AdvisoryID,
		}
		if err := batch.Index(doc.ID, flat); err != nil {
			return err
		}
	}
	return s.index.Batch(batch)
}

// Search combines a relevance match query with term queries for each set
// filter predicate.
func (s *BleveStore) Search(ctx context.Context, query Query) ([]Result, error) {
	var clauses []blevequery.Query
	if query.Text != "" {
		mq := bleve.NewMatchQuery(query.Text)
		mq.SetField("text")
		clauses = append(clauses, mq)
	} else {
		clauses = append(clauses, bleve.NewMatchAllQuery())
	}
	clauses = append(clauses, filterClauses(query.Filter)...)

	size := query.Limit
	if size <= 0 {
		count, err := s.index.DocCount()
		if err != nil {
			return nil, err
		}
		size = int(count)
	}
	req := bleve.NewSearchRequest(bleve.NewConjunctionQuery(clauses...))
	req.Size = size
	req.Fields = []string{"*"}
	res, err := s.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("Bleve search failed: %w", err)
	}

	results := make([]Result, 0, len(res.Hits))
	for _, hit := range res.Hits {
		doc := models.Document{
			ID:   hit.ID,
			Text: fieldString(hit.Fields, "text"),
			Meta: models.DocMeta{
				Kind:       models.DocKind(fieldString(hit.Fields, "kind")),
				ProjectID:  fieldString(hit.Fields, "project_id"),
				Name:       fieldString(hit.Fields, "name"),
				Version:    fieldString(hit.Fields, "version"),
				Ecosystem:  fieldString(hit.Fields, "ecosystem"),
				Direct:     fieldBool(hit.Fields, "direct"),
				Severity:   models.Severity(fieldString(hit.Fields, "severity")),
				Services:   fieldStrings(hit.Fields, "services"),
				AdvisoryID: fieldString(hit.Fields, "advisory_id"),
			},
		}
		results = append(results, Result{Document: doc, Score: hit.Score})
	}
	return results, nil
}

func filterClauses(f Filter) []blevequery.Query {
	var clauses []blevequery.Query
	term := func(field, value string) {
		tq := bleve.NewTermQuery(value)
		tq.SetField(field)
		clauses = append(clauses, tq)
	}
	if f.Kind != "" {
		term("kind", string(f.Kind))
	}
	if f.ProjectID != "" {
		term("project_id", f.ProjectID)
	}
	if f.Severity != "" {
		term("severity", string(f.Severity))
	}
	if f.Ecosystem != "" {
		term("ecosystem", f.Ecosystem)
	}
	if f.Service != "" {
		term("services", f.Service)
	}
	if f.Direct != nil {
		bq := bleve.NewBoolFieldQuery(*f.Direct)
		bq.SetField("direct")
		clauses = append(clauses, bq)
	}
	return clauses
}

// DeleteProject removes every document indexed for projectID.
func (s *BleveStore) DeleteProject(ctx context.Context, projectID string) error {
	count, err := s.index.DocCount()
	if err != nil {
		return err
	}
	if count == 0 {
		return nil
	}
	tq := bleve.NewTermQuery(projectID)
	tq.SetField("project_id")
	req := bleve.NewSearchRequest(tq)
	req.Size = int(count)
	res, err := s.index.Search(req)
	if err != nil {
		return err
	}
	batch := s.index.NewBatch()
	for _, hit := range res.Hits {
		batch.Delete(hit.ID)
	}
	return s.index.Batch(batch)
}

// Clear deletes every document from the index.
func (s *BleveStore) Clear(ctx context.Context) error {
	count, err := s.index.DocCount()
	if err != nil {
		return err
	}
	if count == 0 {
		return nil
	}
	req := bleve.NewSearchRequest(bleve.NewMatchAllQuery())
	req.Size = int(count)
	res, err := s.index.Search(req)
	if err != nil {
		return err
	}
	batch := s.index.NewBatch()
	for _, hit := range res.Hits {
		batch.Delete(hit.ID)
	}
	return s.index.Batch(batch)
}

// Close closes the index.
func (s *BleveStore) Close() error {
	return s.index.Close()
}

func fieldString(fields map[string]interface{}, name string) string {
	if v, ok := fields[name].(string); ok {
		return v
	}
	return ""
}

func fieldBool(fields map[string]interface{}, name string) bool {
	if v, ok := fields[name].(bool); ok {
		return v
	}
	return false
}

func fieldStrings(fields map[string]interface{}, name string) []string {
	switch v := fields[name].(type) {
	case string:
		return []string{v}
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
