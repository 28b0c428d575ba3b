package retrieval

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/ragbot/internal/common"
	"github.com/ternarybob/ragbot/internal/interfaces"
	"github.com/ternarybob/ragbot/internal/models"
)

// Retriever embeds queries and searches a loaded VectorIndex
type Retriever struct {
	index    *VectorIndex
	manifest *models.IndexManifest
	embedder interfaces.EmbeddingService
	topK     int
	minScore float32
	logger   arbor.ILogger
}

// NewRetriever binds an index to the embedder that must have produced it
func NewRetriever(index *VectorIndex, manifest *models.IndexManifest, embedder interfaces.EmbeddingService, config *common.RetrievalConfig, logger arbor.ILogger) (*Retriever, error) {
	if got, want := embedder.Identity(), manifest.Identity(); got != want {
		return nil, fmt.Errorf("%w: index built with %s, configured %s", common.ErrModelMismatch, want, got)
	}

	topK := config.TopK
	if topK <= 0 {
		topK = 4
	}

	return &Retriever{
		index:    index,
		manifest: manifest,
		embedder: embedder,
		topK:     topK,
		minScore: config.MinScore,
		logger:   logger,
	}, nil
}

// Load reads the persisted index at dir and returns a Retriever over it
func Load(ctx context.Context, storage interfaces.IndexStorage, dir string, embedder interfaces.EmbeddingService, config *common.RetrievalConfig, logger arbor.ILogger) (*Retriever, error) {
	start := time.Now()

	manifest, chunks, err := storage.LoadIndex(ctx, dir)
	if err != nil {
		return nil, err
	}

	index, err := NewVectorIndex(chunks, manifest.Dimension)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrIndexIncomplete, err)
	}

	retriever, err := NewRetriever(index, manifest, embedder, config, logger)
	if err != nil {
		return nil, err
	}

	logger.Info().
		Str("index_id", manifest.ID).
		Str("embedding_model", manifest.Identity().String()).
		Int("chunks", index.Len()).
		Int("top_k", retriever.topK).
		Dur("duration", time.Since(start)).
		Msg("Index loaded")

	return retriever, nil
}

// Manifest returns the manifest of the loaded index
func (r *Retriever) Manifest() *models.IndexManifest {
	return r.manifest
}

// Retrieve returns the configured top-k chunks for query
func (r *Retriever) Retrieve(ctx context.Context, query string) ([]models.ScoredChunk, error) {
	return r.Search(ctx, query, r.topK)
}

// Search returns up to k chunks for query, dropping those below min_score
func (r *Retriever) Search(ctx context.Context, query string, k int) ([]models.ScoredChunk, error) {
	if strings.TrimSpace(query) == "" {
		return nil, common.ErrEmptyQuestion
	}

	vector, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(vector) != r.index.Dimension() {
		return nil, fmt.Errorf("%w: query vector has dimension %d, index has %d",
			common.ErrModelMismatch, len(vector), r.index.Dimension())
	}

	hits := r.index.Search(vector, k)
	if r.minScore != 0 {
		kept := hits[:0]
		for _, h := range hits {
			if h.Score >= r.minScore {
				kept = append(kept, h)
			}
		}
		hits = kept
	}

	r.logger.Debug().
		Int("k", k).
		Int("hits", len(hits)).
		Msg("Retrieved chunks")

	return hits, nil
}
