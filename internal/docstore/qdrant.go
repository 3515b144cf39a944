package docstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"

	"sbomrag/internal/models"
)

// qdrantNamespace derives stable point UUIDs from composite document ids, so
// upserting the same document id always hits the same point.
var qdrantNamespace = uuid.MustParse("8a9e66c1-2f4b-4c5d-9e1a-7b3f0d2c6e15")

// QdrantStore is a minimal REST client to a Qdrant collection. It assumes
// cosine distance and creates the collection if missing.
type QdrantStore struct {
	url        string
	apiKey     string
	collection string
	client     *http.Client
}

// QdrantConfig contains connection details for the remote store.
type QdrantConfig struct {
	URL        string
	APIKeyEnv  string
	Collection string
	Dimensions int
	Timeout    time.Duration
}

// NewQdrantStore creates the client and ensures the collection exists.
func NewQdrantStore(cfg QdrantConfig) (*QdrantStore, error) {
	if cfg.URL == "" {
		return nil, errors.New("qdrant store requires a url")
	}
	if cfg.Collection == "" {
		return nil, errors.New("qdrant store requires a collection name")
	}
	if cfg.Dimensions <= 0 {
		return nil, errors.New("qdrant store requires positive dimensions")
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	s := &QdrantStore{
		url:        cfg.URL,
		apiKey:     os.Getenv(cfg.APIKeyEnv),
		collection: cfg.Collection,
		client:     &http.Client{Timeout: timeout},
	}
	// Qdrant returns 200 for an existing collection with the same schema.
	body := map[string]any{
		"vectors": map[string]any{
			"size":     cfg.Dimensions,
			"distance": "Cosine",
		},
	}
	if err := s.putJSON(fmt.Sprintf("%s/collections/%s", s.url, s.collection), body); err != nil {
		return nil, fmt.Errorf("qdrant collection init failed: %w", err)
	}
	return s, nil
}

// AddDocuments upserts documents as points. Documents without an embedding are
// skipped; the remote backend has no lexical path.
func (s *QdrantStore) AddDocuments(ctx context.Context, docs []models.Document) error {
	points := make([]map[string]any, 0, len(docs))
	for _, doc := range docs {
		if len(doc.Embedding) == 0 {
			continue
		}
		points = append(points, map[string]any{
			"id":     uuid.NewSHA1(qdrantNamespace, []byte(doc.ID)).String(),
			"vector": doc.Embedding,
			"payload": map[string]any{
				"doc_id":      doc.ID,
				"text":        doc.Text,
				"kind":        string(doc.Meta.Kind),
				"project_id":  doc.Meta.ProjectID,
				"name":        doc.Meta.Name,
				"version":     doc.Meta.Version,
				"ecosystem":   doc.Meta.Ecosystem,
				"direct":      doc.Meta.Direct,
				"severity":    string(doc.Meta.Severity),
				"services":    doc.Meta.Services,
				"advisory_id": doc.Meta.AdvisoryID,
			},
		})
	}
	if len(points) == 0 {
		return nil
	}
	body := map[string]any{"points": points}
	return s.putJSONCtx(ctx, fmt.Sprintf("%s/collections/%s/points?wait=true", s.url, s.collection), body)
}

// Search runs a filtered vector search. A query vector is required.
func (s *QdrantStore) Search(ctx context.Context, query Query) ([]Result, error) {
	if len(query.Vector) == 0 {
		return nil, errors.New("qdrant search requires a query vector")
	}
	req := map[string]any{
		"vector":       query.Vector,
		"with_payload": true,
	}
	if query.Limit > 0 {
		req["limit"] = query.Limit
	} else {
		req["limit"] = 1 << 14
	}
	if conds := qdrantFilter(query.Filter); len(conds) > 0 {
		req["filter"] = map[string]any{"must": conds}
	}
	var resp struct {
		Result []struct {
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	url := fmt.Sprintf("%s/collections/%s/points/search", s.url, s.collection)
	if err := s.postJSON(ctx, url, req, &resp); err != nil {
		return nil, err
	}
	results := make([]Result, 0, len(resp.Result))
	for _, r := range resp.Result {
		results = append(results, Result{Document: documentFromPayload(r.Payload), Score: r.Score})
	}
	return results, nil
}

func qdrantFilter(f Filter) []map[string]any {
	var conds []map[string]any
	match := func(key string, value any) {
		conds = append(conds, map[string]any{"key": key, "match": map[string]any{"value": value}})
	}
	if f.Kind != "" {
		match("kind", string(f.Kind))
	}
	if f.ProjectID != "" {
		match("project_id", f.ProjectID)
	}
	if f.Severity != "" {
		match("severity", string(f.Severity))
	}
	if f.Ecosystem != "" {
		match("ecosystem", f.Ecosystem)
	}
	if f.Service != "" {
		// Matching an array payload field matches any element.
		match("services", f.Service)
	}
	if f.Direct != nil {
		match("direct", *f.Direct)
	}
	return conds
}

func documentFromPayload(payload map[string]any) models.Document {
	str := func(key string) string {
		v, _ := payload[key].(string)
		return v
	}
	doc := models.Document{
		ID:   str("doc_id"),
		Text: str("text"),
		Meta: models.DocMeta{
			Kind:       models.DocKind(str("kind")),
			ProjectID:  str("project_id"),
			Name:       str("name"),
			Version:    str("version"),
			Ecosystem:  str("ecosystem"),
			Severity:   models.Severity(str("severity")),
			AdvisoryID: str("advisory_id"),
		},
	}
	if v, ok := payload["direct"].(bool); ok {
		doc.Meta.Direct = v
	}
	if items, ok := payload["services"].([]any); ok {
		for _, item := range items {
			if svc, ok := item.(string); ok {
				doc.Meta.Services = append(doc.Meta.Services, svc)
			}
		}
	}
	return doc
}

// DeleteProject removes all points for projectID via a filtered delete.
func (s *QdrantStore) DeleteProject(ctx context.Context, projectID string) error {
	body := map[string]any{
		"filter": map[string]any{
			"must": []map[string]any{
				{"key": "project_id", "match": map[string]any{"value": projectID}},
			},
		},
	}
	url := fmt.Sprintf("%s/collections/%s/points/delete?wait=true", s.url, s.collection)
	return s.postJSON(ctx, url, body, nil)
}

// Clear drops and recreates nothing; it deletes all points via a filterless
// delete request.
func (s *QdrantStore) Clear(ctx context.Context) error {
	body := map[string]any{"filter": map[string]any{}}
	url := fmt.Sprintf("%s/collections/%s/points/delete?wait=true", s.url, s.collection)
	return s.postJSON(ctx, url, body, nil)
}

// Close is a no-op; the underlying http.Client needs no teardown.
func (s *QdrantStore) Close() error {
	return nil
}

func (s *QdrantStore) putJSON(url string, body any) error {
	return s.putJSONCtx(context.Background(), url, body)
}

func (s *QdrantStore) putJSONCtx(ctx context.Context, url string, body any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	return s.do(req, nil)
}

func (s *QdrantStore) postJSON(ctx context.Context, url string, body any, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	return s.do(req, out)
}

func (s *QdrantStore) do(req *http.Request, out any) error {
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant %s %s failed: %s", req.Method, req.URL.Path, resp.Status)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
