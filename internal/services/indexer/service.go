package indexer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/ragbot/internal/common"
	"github.com/ternarybob/ragbot/internal/interfaces"
	"github.com/ternarybob/ragbot/internal/models"
	"github.com/ternarybob/ragbot/internal/services/chunking"
)

// Service builds the persisted index from a corpus file.
// It runs out-of-band (ragbot-index) and is never triggered by a request.
type Service struct {
	splitter chunking.Splitter
	embedder interfaces.EmbeddingService
	storage  interfaces.IndexStorage
	logger   arbor.ILogger
}

// NewService creates a new indexer service
func NewService(splitter chunking.Splitter, embedder interfaces.EmbeddingService, storage interfaces.IndexStorage, logger arbor.ILogger) *Service {
	return &Service{
		splitter: splitter,
		embedder: embedder,
		storage:  storage,
		logger:   logger,
	}
}

// Build reads, splits and embeds the corpus, then persists the index at indexDir
func (s *Service) Build(ctx context.Context, corpusPath, indexDir string) (*models.IndexManifest, error) {
	manifest, chunks, err := s.BuildInMemory(ctx, corpusPath)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	if err := s.storage.SaveIndex(ctx, indexDir, manifest, chunks); err != nil {
		return nil, fmt.Errorf("failed to save index: %w", err)
	}

	s.logger.Info().
		Str("index_id", manifest.ID).
		Str("path", indexDir).
		Dur("duration", time.Since(start)).
		Msg("Index persisted")

	return manifest, nil
}

// BuildInMemory produces the manifest and embedded chunks without persisting them
func (s *Service) BuildInMemory(ctx context.Context, corpusPath string) (*models.IndexManifest, []models.IndexedChunk, error) {
	started := time.Now()

	data, err := os.ReadFile(corpusPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, fmt.Errorf("%w: '%s'", common.ErrCorpusNotFound, corpusPath)
		}
		return nil, nil, fmt.Errorf("failed to read corpus: %w", err)
	}
	if !utf8.Valid(data) {
		return nil, nil, fmt.Errorf("corpus '%s' is not valid UTF-8", corpusPath)
	}

	sum := sha256.Sum256(data)
	text := string(data)
	if strings.TrimSpace(text) == "" {
		return nil, nil, fmt.Errorf("%w: '%s'", common.ErrCorpusEmpty, corpusPath)
	}

	chunks := s.splitter.Split(text)
	if len(chunks) == 0 {
		return nil, nil, fmt.Errorf("%w: '%s'", common.ErrCorpusEmpty, corpusPath)
	}

	s.logger.Info().
		Str("corpus", corpusPath).
		Int("characters", utf8.RuneCountInString(text)).
		Int("chunks", len(chunks)).
		Str("strategy", s.splitter.Strategy()).
		Msg("Corpus split into chunks")

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	embedStart := time.Now()
	vectors, err := s.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return nil, nil, fmt.Errorf("embedding service returned %d vectors for %d chunks", len(vectors), len(chunks))
	}

	identity := s.embedder.Identity()
	indexed := make([]models.IndexedChunk, len(chunks))
	for i, chunk := range chunks {
		if len(vectors[i]) != identity.Dimension {
			return nil, nil, fmt.Errorf("chunk %d embedding has dimension %d, expected %d", chunk.Seq, len(vectors[i]), identity.Dimension)
		}
		indexed[i] = models.IndexedChunk{Chunk: chunk, Vector: vectors[i]}
	}

	s.logger.Info().
		Str("embedding_model", identity.String()).
		Int("vectors", len(vectors)).
		Dur("duration", time.Since(embedStart)).
		Msg("Chunks embedded")

	manifest := &models.IndexManifest{
		ID:                common.NewIndexID(),
		FormatVersion:     models.IndexFormatVersion,
		EmbeddingProvider: identity.Provider,
		EmbeddingModel:    identity.Model,
		Dimension:         identity.Dimension,
		ChunkStrategy:     s.splitter.Strategy(),
		ChunkSize:         s.splitter.Size(),
		ChunkOverlap:      s.splitter.Overlap(),
		ChunkCount:        len(indexed),
		SourcePath:        corpusPath,
		SourceSHA256:      hex.EncodeToString(sum[:]),
		CreatedAt:         time.Now().UTC(),
	}

	s.logger.Debug().
		Str("index_id", manifest.ID).
		Dur("duration", time.Since(started)).
		Msg("In-memory index built")

	return manifest, indexed, nil
}
