package badger

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/specter/core"
	"github.com/poiesic/specter/storage"
)

// records are written in chunks so one Upsert never exceeds badger's txn size limit
const writeChunkSize = 500

// Index implements storage.VectorIndex on top of BadgerDB.
//
// Records live under a generation prefix. Replace writes a complete new
// generation, flips the generation pointer in a single transaction and then
// deletes the old generation, so readers always observe either the old or
// the new contents and never a mix.
type Index struct {
	backend *Backend
	owned   bool
	mu      sync.RWMutex
	gen     uint64
	logger  *slog.Logger
}

var _ storage.VectorIndex = (*Index)(nil)

// NewIndex opens (or creates) a persistent index at path.
//
// Returns storage.VectorIndex to keep callers independent of BadgerDB.
func NewIndex(path string) (storage.VectorIndex, error) {
	backend, err := OpenBackend(path, false)
	if err != nil {
		return nil, err
	}
	idx, err := newIndex(backend, true)
	if err != nil {
		backend.Close()
		return nil, err
	}
	return idx, nil
}

// NewIndexWithBackend creates an index over an already opened backend.
// The caller keeps ownership of the backend and must close it.
func NewIndexWithBackend(backend *Backend) (*Index, error) {
	if backend == nil {
		return nil, ErrBackendRequired
	}
	return newIndex(backend, false)
}

func newIndex(backend *Backend, owned bool) (*Index, error) {
	idx := &Index{
		backend: backend,
		owned:   owned,
		logger:  backend.logger,
	}
	err := backend.WithTx(func(tx *badger.Txn) error {
		gen, err := readGeneration(tx)
		idx.gen = gen
		return err
	}, false)
	if err != nil {
		return nil, err
	}
	return idx, nil
}

// readGeneration returns the generation visible to tx.
// Reading it inside the same transaction as the records keeps the view consistent.
func readGeneration(tx *badger.Txn) (uint64, error) {
	item, err := tx.Get([]byte(generationKey))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	var gen core.ID
	err = item.Value(func(val []byte) error {
		gen, err = storage.UnmarshalID(val)
		return err
	})
	return uint64(gen), err
}

// Close closes the underlying backend if the index owns it.
func (i *Index) Close() error {
	if i.owned {
		return i.backend.Close()
	}
	return nil
}

// Upsert adds records to the current generation.
func (i *Index) Upsert(ctx context.Context, records ...*core.EmbeddingRecord) error {
	if len(records) == 0 {
		return nil
	}
	if err := storage.PrepareRecords(records, time.Now().UTC()); err != nil {
		return err
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	if i.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	return i.writeRecords(ctx, i.gen, records)
}

func (i *Index) writeRecords(ctx context.Context, gen uint64, records []*core.EmbeddingRecord) error {
	for chunk := range slices.Chunk(records, writeChunkSize) {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := i.backend.WithTx(func(tx *badger.Txn) error {
			for _, record := range chunk {
				if err := tx.Set(makeRecordKey(gen, record.Id), storage.MarshalEmbeddingRecord(record)); err != nil {
					return err
				}
			}
			return tx.Commit()
		}, true)
		if err != nil {
			return err
		}
	}
	return nil
}

// Replace swaps the whole index for records.
func (i *Index) Replace(ctx context.Context, records ...*core.EmbeddingRecord) error {
	if err := storage.PrepareRecords(records, time.Now().UTC()); err != nil {
		return err
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	if i.backend.IsClosed() {
		return storage.ErrStorageClosed
	}

	oldGen := i.gen
	newGen := oldGen + 1
	if err := i.writeRecords(ctx, newGen, records); err != nil {
		if derr := i.deleteGeneration(newGen); derr != nil {
			i.logger.Warn("failed to clean up partial index generation", "generation", newGen, "err", derr)
		}
		return err
	}

	err := i.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set([]byte(generationKey), storage.MarshalID(core.ID(newGen))); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return err
	}
	i.gen = newGen

	if err := i.deleteGeneration(oldGen); err != nil {
		i.logger.Warn("failed to delete previous index generation", "generation", oldGen, "err", err)
	}
	i.logger.Info("replaced index contents", "records", len(records), "generation", newGen)
	return nil
}

// deleteGeneration removes every record under gen using batched deletes.
// Deletes respect snapshot isolation so in-flight readers are unaffected.
func (i *Index) deleteGeneration(gen uint64) error {
	var keys [][]byte
	err := i.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = makeGenerationPrefix(gen)
		iter := tx.NewIterator(opts)
		defer iter.Close()
		for iter.Rewind(); iter.Valid(); iter.Next() {
			keys = append(keys, iter.Item().KeyCopy(nil))
		}
		return nil
	}, false)
	if err != nil {
		return err
	}
	return i.backend.WriteBatch(func(wb *badger.WriteBatch) error {
		for _, k := range keys {
			if err := wb.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}

// Delete removes records by ID from the current generation.
func (i *Index) Delete(ctx context.Context, ids ...core.ID) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			if err := tx.Delete(makeRecordKey(i.gen, id)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// Count returns the number of records in the current generation.
func (i *Index) Count(ctx context.Context) (int, error) {
	count := 0
	err := i.backend.WithTx(func(tx *badger.Txn) error {
		gen, err := readGeneration(tx)
		if err != nil {
			return err
		}
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = makeGenerationPrefix(gen)
		iter := tx.NewIterator(opts)
		defer iter.Close()
		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)
	return count, err
}

// ForEach streams records of the current generation in batches.
func (i *Index) ForEach(ctx context.Context, batchSize int, fn func([]*core.EmbeddingRecord) error) error {
	if batchSize < 1 {
		return storage.ErrInvalidQuery
	}
	batch := make([]*core.EmbeddingRecord, 0, batchSize)
	err := i.scan(ctx, func(record *core.EmbeddingRecord) error {
		batch = append(batch, record)
		if len(batch) == batchSize {
			if err := fn(batch); err != nil {
				return err
			}
			batch = make([]*core.EmbeddingRecord, 0, batchSize)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if len(batch) > 0 {
		return fn(batch)
	}
	return nil
}

// Query returns the topK records closest to vector by cosine distance.
func (i *Index) Query(ctx context.Context, vector []float32, topK int) ([]storage.Neighbor, error) {
	if topK < 1 || len(vector) == 0 {
		return nil, storage.ErrInvalidQuery
	}
	if i.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}

	var results []storage.Neighbor
	err := i.scan(ctx, func(record *core.EmbeddingRecord) error {
		if len(record.Vector) == 0 {
			return nil
		}
		if len(record.Vector) != len(vector) {
			return storage.ErrDimensionMismatch
		}
		results = append(results, storage.Neighbor{
			Record:   record,
			Distance: storage.CosineDistance(vector, record.Vector),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Sort by distance ascending, ties broken by ID for stable output
	slices.SortFunc(results, func(a, b storage.Neighbor) int {
		if a.Distance < b.Distance {
			return -1
		}
		if a.Distance > b.Distance {
			return 1
		}
		if a.Record.Id < b.Record.Id {
			return -1
		}
		if a.Record.Id > b.Record.Id {
			return 1
		}
		return 0
	})

	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// scan decodes every record of the visible generation and hands it to fn.
func (i *Index) scan(ctx context.Context, fn func(*core.EmbeddingRecord) error) error {
	return i.backend.WithTx(func(tx *badger.Txn) error {
		gen, err := readGeneration(tx)
		if err != nil {
			return err
		}
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeGenerationPrefix(gen)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		n := 0
		for iter.Rewind(); iter.Valid(); iter.Next() {
			n++
			if n%1000 == 0 {
				if err := ctx.Err(); err != nil {
					return err
				}
			}
			var record *core.EmbeddingRecord
			err := iter.Item().Value(func(val []byte) error {
				var err error
				record, err = storage.UnmarshalEmbeddingRecord(val)
				return err
			})
			if err != nil {
				return err
			}
			if err := fn(record); err != nil {
				return err
			}
		}
		return ctx.Err()
	}, false)
}
