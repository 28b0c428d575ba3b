package models

import (
	"fmt"
	"time"
)

// IndexFormatVersion is bumped whenever the persisted record layout changes
const IndexFormatVersion = 1

// IndexManifest describes a persisted index. It is written after every
// chunk record, so its presence marks a completed build.
type IndexManifest struct {
	ID                string    `json:"id"` // idx_{uuid}
	FormatVersion     int       `json:"format_version"`
	EmbeddingProvider string    `json:"embedding_provider"`
	EmbeddingModel    string    `json:"embedding_model"`
	Dimension         int       `json:"dimension"`
	ChunkStrategy     string    `json:"chunk_strategy"`
	ChunkSize         int       `json:"chunk_size"`
	ChunkOverlap      int       `json:"chunk_overlap"`
	ChunkCount        int       `json:"chunk_count"`
	SourcePath        string    `json:"source_path"`
	SourceSHA256      string    `json:"source_sha256"`
	CreatedAt         time.Time `json:"created_at"`
}

// ModelIdentity is the embedding configuration an index is bound to
type ModelIdentity struct {
	Provider  string `json:"provider"`
	Model     string `json:"model"`
	Dimension int    `json:"dimension"`
}

func (m ModelIdentity) String() string {
	return fmt.Sprintf("%s:%s@%d", m.Provider, m.Model, m.Dimension)
}

// Identity returns the embedding model identity recorded in the manifest
func (m *IndexManifest) Identity() ModelIdentity {
	return ModelIdentity{
		Provider:  m.EmbeddingProvider,
		Model:     m.EmbeddingModel,
		Dimension: m.Dimension,
	}
}
