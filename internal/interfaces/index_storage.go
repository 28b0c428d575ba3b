package interfaces

import (
	"context"

	"github.com/ternarybob/ragbot/internal/models"
)

// IndexStorage persists and loads the directory-based index artifact
type IndexStorage interface {
	// SaveIndex atomically replaces the index at dir
	SaveIndex(ctx context.Context, dir string, manifest *models.IndexManifest, chunks []models.IndexedChunk) error

	// LoadIndex reads the manifest and all chunks (in Seq order) from dir
	LoadIndex(ctx context.Context, dir string) (*models.IndexManifest, []models.IndexedChunk, error)

	// ReadManifest reads only the manifest from dir
	ReadManifest(ctx context.Context, dir string) (*models.IndexManifest, error)
}
