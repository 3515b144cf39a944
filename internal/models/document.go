package models

// DocKind identifies which inventory entity a document was derived from.
type DocKind string

const (
	DocKindProject DocKind = "project"
	DocKindService DocKind = "service"
	DocKindPackage DocKind = "package"
	DocKindVuln    DocKind = "vuln"
)

// DocMeta is the queryable metadata of a document. It is a closed, typed set
// of fields so that filter predicates and metadata keys cannot drift apart.
type DocMeta struct {
	Kind      DocKind  `json:"kind"`
	ProjectID string   `json:"project_id"`
	Name      string   `json:"name,omitempty"`
	Version   string   `json:"version,omitempty"`
	Ecosystem string   `json:"ecosystem,omitempty"`
	Direct    bool     `json:"direct,omitempty"`
	Severity  Severity `json:"severity,omitempty"`
	Services  []string `json:"services,omitempty"`
	// AdvisoryID is set on vulnerability documents.
	AdvisoryID string `json:"advisory_id,omitempty"`
}

// Document is an independently retrievable knowledge fragment. IDs are
// composite ("project:<id>", "service:<id>:<name>",
// "package:<id>:<name>:<version>", "vuln:<id>:<name>:<version>:<advisoryId>")
// and unique within one project's document set; re-adding an existing id
// replaces it.
type Document struct {
	ID   string  `json:"id"`
	Text string  `json:"text"`
	Meta DocMeta `json:"meta"`
	// Embedding is optional; stores without it fall back to lexical scoring.
	Embedding []float32 `json:"-"`
}
