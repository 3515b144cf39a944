package docstore

import (
	"errors"
	"fmt"
	"time"
)

// BackendType selects the document store backend.
type BackendType string

const (
	// BackendMemory is the ephemeral in-process store.
	BackendMemory BackendType = "memory"
	// BackendSQLite is the durable file-backed store.
	BackendSQLite BackendType = "sqlite"
	// BackendBleve is the durable lexical store (no embedder needed).
	BackendBleve BackendType = "bleve"
	// BackendQdrant is the remote managed index.
	BackendQdrant BackendType = "qdrant"
)

// FactoryConfig selects and configures the backend. Missing required
// connection parameters fail at construction, not at call time.
type FactoryConfig struct {
	Type string
	// Path is the database/index path for sqlite and bleve.
	Path string
	// Qdrant holds remote connection parameters.
	Qdrant QdrantConfig
	// Dimensions is required by the qdrant backend for collection creation.
	Dimensions int
}

// NewStore creates a document store of the configured type.
// Supported types: "memory" (default), "sqlite", "bleve", "qdrant".
func NewStore(cfg FactoryConfig) (Store, error) {
	switch BackendType(cfg.Type) {
	case BackendMemory, "":
		return NewMemoryStore(), nil
	case BackendSQLite:
		if cfg.Path == "" {
			return nil, errors.New("sqlite store requires a path")
		}
		return NewSQLiteStore(cfg.Path)
	case BackendBleve:
		if cfg.Path == "" {
			return nil, errors.New("bleve store requires a path")
		}
		return NewBleveStore(cfg.Path)
	case BackendQdrant:
		qcfg := cfg.Qdrant
		if qcfg.Dimensions == 0 {
			qcfg.Dimensions = cfg.Dimensions
		}
		if qcfg.Timeout == 0 {
			qcfg.Timeout = 15 * time.Second
		}
		return NewQdrantStore(qcfg)
	default:
		return nil, fmt.Errorf("unknown store backend: %s (supported: memory, sqlite, bleve, qdrant)", cfg.Type)
	}
}
