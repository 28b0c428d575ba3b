package indexer

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/ragbot/internal/common"
	"github.com/ternarybob/ragbot/internal/services/chunking"
	"github.com/ternarybob/ragbot/internal/services/embeddings"
	"github.com/ternarybob/ragbot/internal/storage/badger"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	splitter, err := chunking.NewSplitter(chunking.StrategyWindow, 500, 50)
	require.NoError(t, err)
	logger := common.NewSilentLogger()
	return NewService(splitter, embeddings.NewHashingEmbedder(64), badger.NewIndexStorage(logger), logger)
}

func writeCorpus(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "corpus.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestBuildInMemory(t *testing.T) {
	service := newTestService(t)
	corpus := writeCorpus(t, strings.Repeat("x", 1234))

	manifest, chunks, err := service.BuildInMemory(context.Background(), corpus)
	require.NoError(t, err)

	assert.Len(t, chunks, 3)
	assert.Equal(t, 3, manifest.ChunkCount)
	assert.Equal(t, "hashing", manifest.EmbeddingProvider)
	assert.Equal(t, 64, manifest.Dimension)
	assert.Equal(t, "window", manifest.ChunkStrategy)
	assert.Equal(t, 500, manifest.ChunkSize)
	assert.Equal(t, 50, manifest.ChunkOverlap)
	assert.True(t, strings.HasPrefix(manifest.ID, "idx_"))
	assert.Len(t, manifest.SourceSHA256, 64)
	for _, c := range chunks {
		assert.Len(t, c.Vector, 64)
	}
}

func TestBuild_Persists(t *testing.T) {
	service := newTestService(t)
	corpus := writeCorpus(t, "The capital of France is Paris.")
	dir := filepath.Join(t.TempDir(), "vectorstore")

	manifest, err := service.Build(context.Background(), corpus, dir)
	require.NoError(t, err)

	stored, err := badger.NewIndexStorage(common.NewSilentLogger()).ReadManifest(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, manifest.ID, stored.ID)
	assert.Equal(t, 1, stored.ChunkCount)
}

func TestBuild_Errors(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	_, _, err := service.BuildInMemory(ctx, filepath.Join(t.TempDir(), "missing.txt"))
	assert.ErrorIs(t, err, common.ErrCorpusNotFound)

	_, _, err = service.BuildInMemory(ctx, writeCorpus(t, ""))
	assert.ErrorIs(t, err, common.ErrCorpusEmpty)

	_, _, err = service.BuildInMemory(ctx, writeCorpus(t, "   \n\t\n"))
	assert.ErrorIs(t, err, common.ErrCorpusEmpty)

	_, _, err = service.BuildInMemory(ctx, writeCorpus(t, "bad \xff\xfe bytes"))
	assert.Error(t, err)
}

func TestBuild_WhitespaceCorpusWritesNoIndex(t *testing.T) {
	service := newTestService(t)
	dir := filepath.Join(t.TempDir(), "vectorstore")

	_, err := service.Build(context.Background(), writeCorpus(t, "   \n\n\t  \n"), dir)
	require.ErrorIs(t, err, common.ErrCorpusEmpty)

	_, statErr := os.Stat(dir)
	assert.True(t, os.IsNotExist(statErr))
}
