package retrieval

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/ragbot/internal/common"
	"github.com/ternarybob/ragbot/internal/models"
	"github.com/ternarybob/ragbot/internal/services/chunking"
	"github.com/ternarybob/ragbot/internal/services/embeddings"
	"github.com/ternarybob/ragbot/internal/services/indexer"
	"github.com/ternarybob/ragbot/internal/storage/badger"
)

func chunk(seq int, vector ...float32) models.IndexedChunk {
	return models.IndexedChunk{Chunk: models.Chunk{Seq: seq}, Vector: vector}
}

func TestVectorIndex_Search(t *testing.T) {
	index, err := NewVectorIndex([]models.IndexedChunk{
		chunk(0, 0, 1),
		chunk(1, 1, 0),
		chunk(2, 1, 1),
		chunk(3, 1, 0),
	}, 2)
	require.NoError(t, err)

	hits := index.Search([]float32{1, 0}, 3)
	require.Len(t, hits, 3)
	// Equal scores keep Seq order
	assert.Equal(t, 1, hits[0].Seq)
	assert.Equal(t, 3, hits[1].Seq)
	assert.Equal(t, 2, hits[2].Seq)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-6)
	assert.InDelta(t, 0.7071, hits[2].Score, 1e-3)

	assert.Len(t, index.Search([]float32{1, 0}, 10), 4)
	assert.Empty(t, index.Search([]float32{1, 0}, 0))
	assert.Empty(t, index.Search([]float32{1, 0, 0}, 2))
}

func TestVectorIndex_ZeroVectors(t *testing.T) {
	index, err := NewVectorIndex([]models.IndexedChunk{chunk(0, 0, 0), chunk(1, 0, 1)}, 2)
	require.NoError(t, err)

	hits := index.Search([]float32{0, 0}, 2)
	require.Len(t, hits, 2)
	assert.Equal(t, float32(0), hits[0].Score)
	assert.Equal(t, 0, hits[0].Seq)
}

func TestNewVectorIndex_DimensionMismatch(t *testing.T) {
	_, err := NewVectorIndex([]models.IndexedChunk{chunk(0, 1, 2, 3)}, 2)
	assert.Error(t, err)
}

func TestNewRetriever_ModelMismatch(t *testing.T) {
	index, err := NewVectorIndex(nil, 64)
	require.NoError(t, err)
	manifest := &models.IndexManifest{EmbeddingProvider: "gemini", EmbeddingModel: "gemini-embedding-001", Dimension: 768}

	_, err = NewRetriever(index, manifest, embeddings.NewHashingEmbedder(64), &common.RetrievalConfig{TopK: 4}, common.NewSilentLogger())
	assert.ErrorIs(t, err, common.ErrModelMismatch)
}

const corpus = `The capital of France is Paris.

Bananas are an excellent source of potassium and grow in tropical climates.

The Pacific Ocean is the largest and deepest ocean on Earth.

Photosynthesis converts sunlight, water and carbon dioxide into glucose.`

func buildIndex(t *testing.T) (string, *indexer.Service) {
	t.Helper()
	logger := common.NewSilentLogger()
	splitter, err := chunking.NewSplitter(chunking.StrategyRecursive, 80, 10)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "corpus.txt")
	require.NoError(t, os.WriteFile(path, []byte(corpus), 0644))

	return path, indexer.NewService(splitter, embeddings.NewHashingEmbedder(256), badger.NewIndexStorage(logger), logger)
}

func TestRetriever_KnownQueryRanksFirst(t *testing.T) {
	path, service := buildIndex(t)
	dir := filepath.Join(t.TempDir(), "vectorstore")
	_, err := service.Build(context.Background(), path, dir)
	require.NoError(t, err)

	logger := common.NewSilentLogger()
	retriever, err := Load(context.Background(), badger.NewIndexStorage(logger), dir,
		embeddings.NewHashingEmbedder(256), &common.RetrievalConfig{TopK: 4}, logger)
	require.NoError(t, err)

	hits, err := retriever.Retrieve(context.Background(), "What is the capital of France?")
	require.NoError(t, err)
	require.Len(t, hits, 4)
	assert.Equal(t, "The capital of France is Paris.", hits[0].Text)
}

func TestRetriever_RoundTripMatchesInMemory(t *testing.T) {
	path, service := buildIndex(t)
	ctx := context.Background()
	logger := common.NewSilentLogger()
	embedder := embeddings.NewHashingEmbedder(256)
	config := &common.RetrievalConfig{TopK: 3}

	manifest, chunks, err := service.BuildInMemory(ctx, path)
	require.NoError(t, err)
	memIndex, err := NewVectorIndex(chunks, manifest.Dimension)
	require.NoError(t, err)
	inMemory, err := NewRetriever(memIndex, manifest, embedder, config, logger)
	require.NoError(t, err)

	storage := badger.NewIndexStorage(logger)
	dir := filepath.Join(t.TempDir(), "vectorstore")
	require.NoError(t, storage.SaveIndex(ctx, dir, manifest, chunks))
	reloaded, err := Load(ctx, storage, dir, embedder, config, logger)
	require.NoError(t, err)

	for _, query := range []string{
		"What is the capital of France?",
		"Which ocean is the largest?",
		"How do plants make glucose?",
		"potassium",
	} {
		want, err := inMemory.Retrieve(ctx, query)
		require.NoError(t, err)
		got, err := reloaded.Retrieve(ctx, query)
		require.NoError(t, err)
		assert.Equal(t, want, got, query)
	}
}

func TestRetriever_MinScoreAndEmptyQuery(t *testing.T) {
	path, service := buildIndex(t)
	ctx := context.Background()
	logger := common.NewSilentLogger()

	manifest, chunks, err := service.BuildInMemory(ctx, path)
	require.NoError(t, err)
	index, err := NewVectorIndex(chunks, manifest.Dimension)
	require.NoError(t, err)
	retriever, err := NewRetriever(index, manifest, embeddings.NewHashingEmbedder(256),
		&common.RetrievalConfig{TopK: 4, MinScore: 0.3}, logger)
	require.NoError(t, err)

	hits, err := retriever.Retrieve(ctx, "What is the capital of France?")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Contains(t, hits[0].Text, "Paris")

	_, err = retriever.Retrieve(ctx, "   ")
	assert.ErrorIs(t, err, common.ErrEmptyQuestion)
}
