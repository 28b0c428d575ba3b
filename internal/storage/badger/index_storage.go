package badger

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/ragbot/internal/common"
	"github.com/ternarybob/ragbot/internal/interfaces"
	"github.com/ternarybob/ragbot/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

const (
	manifestKey    = "manifest"
	writeBatchSize = 256
)

// ChunkRecord is the persisted form of an indexed chunk
type ChunkRecord struct {
	Seq    int
	Text   string
	Offset int
	Length int
	Vector []float32
}

// ManifestRecord is the persisted form of the index manifest
type ManifestRecord struct {
	Manifest models.IndexManifest
}

// IndexStorage implements interfaces.IndexStorage on Badger. Each index is
// its own Badger directory; the store is only held open while saving or loading.
type IndexStorage struct {
	logger arbor.ILogger
}

// NewIndexStorage creates a new IndexStorage instance
func NewIndexStorage(logger arbor.ILogger) interfaces.IndexStorage {
	return &IndexStorage{logger: logger}
}

// SaveIndex builds the index in a sibling staging directory, writing the
// manifest after every chunk, then swaps it into place.
func (s *IndexStorage) SaveIndex(ctx context.Context, dir string, manifest *models.IndexManifest, chunks []models.IndexedChunk) error {
	if manifest.ChunkCount != len(chunks) {
		return fmt.Errorf("manifest chunk count %d does not match %d chunks", manifest.ChunkCount, len(chunks))
	}

	dir = filepath.Clean(dir)
	staging := fmt.Sprintf("%s.building-%s", dir, uuid.New().String())
	if err := s.writeStaging(ctx, staging, manifest, chunks); err != nil {
		if removeErr := os.RemoveAll(staging); removeErr != nil {
			s.logger.Warn().Err(removeErr).Str("path", staging).Msg("Failed to remove staging directory")
		}
		return err
	}

	if err := swapDirectory(staging, dir); err != nil {
		return err
	}

	s.logger.Debug().
		Str("path", dir).
		Str("index_id", manifest.ID).
		Int("chunks", len(chunks)).
		Msg("Index saved")

	return nil
}

func (s *IndexStorage) writeStaging(ctx context.Context, staging string, manifest *models.IndexManifest, chunks []models.IndexedChunk) error {
	db, err := OpenBadgerDB(s.logger, staging)
	if err != nil {
		return err
	}
	defer db.Close()

	store := db.Store()
	for start := 0; start < len(chunks); start += writeBatchSize {
		if err := ctx.Err(); err != nil {
			return err
		}

		end := start + writeBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}

		err := store.Badger().Update(func(tx *badger.Txn) error {
			for _, chunk := range chunks[start:end] {
				record := &ChunkRecord{
					Seq:    chunk.Seq,
					Text:   chunk.Text,
					Offset: chunk.Offset,
					Length: chunk.Length,
					Vector: chunk.Vector,
				}
				if err := store.TxUpsert(tx, chunk.Seq, record); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to write chunks: %w", err)
		}
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	if err := store.Upsert(manifestKey, &ManifestRecord{Manifest: *manifest}); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}

	return db.Close()
}

// swapDirectory replaces dir with staging. An existing dir is moved aside
// first and removed only after staging is in place.
func swapDirectory(staging, dir string) error {
	var previous string
	if _, err := os.Stat(dir); err == nil {
		previous = fmt.Sprintf("%s.old-%d", dir, time.Now().UnixNano())
		if err := os.Rename(dir, previous); err != nil {
			return fmt.Errorf("failed to move previous index aside: %w", err)
		}
	}

	if err := os.Rename(staging, dir); err != nil {
		if previous != "" {
			_ = os.Rename(previous, dir)
		}
		return fmt.Errorf("failed to move new index into place: %w", err)
	}

	if previous != "" {
		if err := os.RemoveAll(previous); err != nil {
			return fmt.Errorf("failed to remove previous index: %w", err)
		}
	}
	return nil
}

// LoadIndex reads the manifest and every chunk, sorted by Seq
func (s *IndexStorage) LoadIndex(ctx context.Context, dir string) (*models.IndexManifest, []models.IndexedChunk, error) {
	db, err := s.open(dir)
	if err != nil {
		return nil, nil, err
	}
	defer db.Close()

	manifest, err := readManifest(db.Store(), dir)
	if err != nil {
		return nil, nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	var records []ChunkRecord
	if err := db.Store().Find(&records, nil); err != nil {
		return nil, nil, fmt.Errorf("failed to read chunks: %w", err)
	}

	if len(records) != manifest.ChunkCount {
		return nil, nil, fmt.Errorf("%w: manifest lists %d chunks, found %d at '%s'",
			common.ErrIndexIncomplete, manifest.ChunkCount, len(records), dir)
	}

	chunks := make([]models.IndexedChunk, len(records))
	for i, r := range records {
		chunks[i] = models.IndexedChunk{
			Chunk: models.Chunk{
				Seq:    r.Seq,
				Text:   r.Text,
				Offset: r.Offset,
				Length: r.Length,
			},
			Vector: r.Vector,
		}
	}
	sort.Slice(chunks, func(i, j int) bool { return chunks[i].Seq < chunks[j].Seq })

	s.logger.Debug().
		Str("path", dir).
		Str("index_id", manifest.ID).
		Int("chunks", len(chunks)).
		Msg("Index loaded")

	return manifest, chunks, nil
}

// ReadManifest reads only the manifest
func (s *IndexStorage) ReadManifest(ctx context.Context, dir string) (*models.IndexManifest, error) {
	db, err := s.open(dir)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	return readManifest(db.Store(), dir)
}

// open refuses to create a missing index directory
func (s *IndexStorage) open(dir string) (*BadgerDB, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: '%s'", common.ErrIndexNotFound, dir)
		}
		return nil, fmt.Errorf("failed to stat index directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: '%s' is not a directory", common.ErrIndexNotFound, dir)
	}

	return OpenBadgerDB(s.logger, dir)
}

func readManifest(store *badgerhold.Store, dir string) (*models.IndexManifest, error) {
	var record ManifestRecord
	err := store.Get(manifestKey, &record)
	if err == badgerhold.ErrNotFound {
		return nil, fmt.Errorf("%w: no manifest at '%s'", common.ErrIndexIncomplete, dir)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	if record.Manifest.FormatVersion != models.IndexFormatVersion {
		return nil, fmt.Errorf("%w: format version %d, expected %d",
			common.ErrIndexIncomplete, record.Manifest.FormatVersion, models.IndexFormatVersion)
	}

	return &record.Manifest, nil
}
