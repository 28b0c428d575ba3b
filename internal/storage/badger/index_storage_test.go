package badger

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/ragbot/internal/common"
	"github.com/ternarybob/ragbot/internal/models"
)

func testIndex(n int, id string) (*models.IndexManifest, []models.IndexedChunk) {
	chunks := make([]models.IndexedChunk, n)
	for i := range chunks {
		chunks[i] = models.IndexedChunk{
			Chunk: models.Chunk{
				Seq:    i,
				Text:   "chunk " + string(rune('a'+i%26)),
				Offset: i * 450,
				Length: 7,
			},
			Vector: []float32{float32(i), 1, 0},
		}
	}
	manifest := &models.IndexManifest{
		ID:                id,
		FormatVersion:     models.IndexFormatVersion,
		EmbeddingProvider: "hashing",
		EmbeddingModel:    "hashing-bow-v1",
		Dimension:         3,
		ChunkStrategy:     "window",
		ChunkSize:         500,
		ChunkOverlap:      50,
		ChunkCount:        n,
		CreatedAt:         time.Now().UTC(),
	}
	return manifest, chunks
}

func TestIndexStorage_SaveAndLoad(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "vectorstore")
	storage := NewIndexStorage(common.NewSilentLogger())
	ctx := context.Background()

	// More than one write batch
	manifest, chunks := testIndex(600, "idx_first")
	require.NoError(t, storage.SaveIndex(ctx, dir, manifest, chunks))

	loaded, loadedChunks, err := storage.LoadIndex(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, "idx_first", loaded.ID)
	assert.Equal(t, manifest.Identity(), loaded.Identity())
	require.Len(t, loadedChunks, 600)
	for i, chunk := range loadedChunks {
		assert.Equal(t, i, chunk.Seq)
		assert.Equal(t, chunks[i].Text, chunk.Text)
		assert.Equal(t, chunks[i].Vector, chunk.Vector)
	}

	// No staging directories left behind
	entries, err := os.ReadDir(filepath.Dir(dir))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestIndexStorage_ReplaceExisting(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "vectorstore")
	storage := NewIndexStorage(common.NewSilentLogger())
	ctx := context.Background()

	first, firstChunks := testIndex(5, "idx_first")
	require.NoError(t, storage.SaveIndex(ctx, dir, first, firstChunks))

	second, secondChunks := testIndex(2, "idx_second")
	require.NoError(t, storage.SaveIndex(ctx, dir, second, secondChunks))

	manifest, chunks, err := storage.LoadIndex(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, "idx_second", manifest.ID)
	assert.Len(t, chunks, 2)
}

func TestIndexStorage_CanceledSaveKeepsPrevious(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "vectorstore")
	storage := NewIndexStorage(common.NewSilentLogger())

	first, firstChunks := testIndex(3, "idx_first")
	require.NoError(t, storage.SaveIndex(context.Background(), dir, first, firstChunks))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	second, secondChunks := testIndex(3, "idx_second")
	assert.ErrorIs(t, storage.SaveIndex(ctx, dir, second, secondChunks), context.Canceled)

	manifest, err := storage.ReadManifest(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, "idx_first", manifest.ID)

	entries, err := os.ReadDir(filepath.Dir(dir))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestIndexStorage_NotFound(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "missing")
	storage := NewIndexStorage(common.NewSilentLogger())

	_, _, err := storage.LoadIndex(context.Background(), dir)
	assert.ErrorIs(t, err, common.ErrIndexNotFound)

	_, err = storage.ReadManifest(context.Background(), dir)
	assert.ErrorIs(t, err, common.ErrIndexNotFound)

	// Loading must not create the directory
	_, statErr := os.Stat(dir)
	assert.True(t, os.IsNotExist(statErr))
}

func TestIndexStorage_MissingManifest(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "vectorstore")
	logger := common.NewSilentLogger()

	// Simulate a build interrupted before the manifest was written
	db, err := OpenBadgerDB(logger, dir)
	require.NoError(t, err)
	require.NoError(t, db.Store().Upsert(0, &ChunkRecord{Seq: 0, Text: "orphan", Vector: []float32{1}}))
	require.NoError(t, db.Close())

	_, _, err = NewIndexStorage(logger).LoadIndex(context.Background(), dir)
	assert.ErrorIs(t, err, common.ErrIndexIncomplete)
}

func TestIndexStorage_ChunkCountMismatch(t *testing.T) {
	storage := NewIndexStorage(common.NewSilentLogger())
	manifest, chunks := testIndex(3, "idx_bad")
	manifest.ChunkCount = 4

	err := storage.SaveIndex(context.Background(), filepath.Join(t.TempDir(), "vs"), manifest, chunks)
	assert.Error(t, err)
}
