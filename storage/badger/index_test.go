package badger

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/poiesic/specter/core"
	"github.com/poiesic/specter/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIndex(t *testing.T) storage.VectorIndex {
	t.Helper()
	idx, err := NewMemoryIndex()
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })
	return idx
}

func record(question, answer string, vector ...float32) *core.EmbeddingRecord {
	return &core.EmbeddingRecord{
		Vector:     vector,
		SourceText: question,
		Metadata: map[string]string{
			core.MetaQuestion: question,
			core.MetaAnswer:   answer,
		},
	}
}

func TestIndex_QueryEmpty(t *testing.T) {
	idx := newTestIndex(t)

	results, err := idx.Query(context.Background(), []float32{1, 0}, 3)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestIndex_QueryInvalid(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	_, err := idx.Query(ctx, []float32{1, 0}, 0)
	assert.ErrorIs(t, err, storage.ErrInvalidQuery)

	_, err = idx.Query(ctx, nil, 3)
	assert.ErrorIs(t, err, storage.ErrInvalidQuery)
}

func TestIndex_UpsertAndQuery(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	err := idx.Upsert(ctx,
		record("What is Bail?", "bail answer", 1, 0, 0),
		record("What is FIR?", "fir answer", 0, 1, 0),
		record("Explain Divorce", "divorce answer", 0, 0, 1),
		record("Bail and FIR", "mixed answer", 0.7, 0.7, 0),
	)
	require.NoError(t, err)

	results, err := idx.Query(ctx, []float32{1, 0.1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "What is Bail?", results[0].Record.SourceText)
	assert.Equal(t, "Bail and FIR", results[1].Record.SourceText)
	assert.LessOrEqual(t, results[0].Distance, results[1].Distance)
	for _, r := range results {
		assert.GreaterOrEqual(t, r.Distance, 0.0)
		assert.LessOrEqual(t, r.Distance, 2.0)
	}
	assert.Equal(t, "bail answer", results[0].Record.Metadata[core.MetaAnswer])
}

func TestIndex_UpsertIsIdempotent(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.Upsert(ctx, record("What is Bail?", "a", 1, 0)))
	require.NoError(t, idx.Upsert(ctx, record("What is Bail?", "a", 1, 0)))

	count, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestIndex_UpsertRejectsInvalid(t *testing.T) {
	idx := newTestIndex(t)

	err := idx.Upsert(context.Background(), &core.EmbeddingRecord{SourceText: "no vector"})
	assert.ErrorIs(t, err, core.ErrInvalidEmbeddingRecord)
}

func TestIndex_Replace(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.Upsert(ctx,
		record("old 1", "x", 1, 0),
		record("old 2", "y", 0, 1),
	))

	require.NoError(t, idx.Replace(ctx, record("new", "z", 1, 1)))

	count, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	results, err := idx.Query(ctx, []float32{1, 0}, 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "new", results[0].Record.SourceText)

	t.Run("replace with nothing empties the index", func(t *testing.T) {
		require.NoError(t, idx.Replace(ctx))
		count, err := idx.Count(ctx)
		require.NoError(t, err)
		assert.Zero(t, count)
	})
}

func TestIndex_ReplacePersistsGeneration(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	idx, err := NewIndex(dir)
	require.NoError(t, err)
	require.NoError(t, idx.Upsert(ctx, record("old", "x", 1, 0)))
	require.NoError(t, idx.Replace(ctx, record("new", "y", 0, 1)))
	require.NoError(t, idx.Close())

	reopened, err := NewIndex(dir)
	require.NoError(t, err)
	defer reopened.Close()

	results, err := reopened.Query(ctx, []float32{0, 1}, 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "new", results[0].Record.SourceText)
}

func TestIndex_Delete(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	keep := record("keep", "a", 1, 0)
	drop := record("drop", "b", 0, 1)
	require.NoError(t, idx.Upsert(ctx, keep, drop))

	require.NoError(t, idx.Delete(ctx, drop.Id, core.ID(12345)))

	count, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestIndex_ForEach(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	var records []*core.EmbeddingRecord
	for i := range 7 {
		records = append(records, record(fmt.Sprintf("q%d", i), "a", float32(i+1), 1))
	}
	require.NoError(t, idx.Upsert(ctx, records...))

	var sizes []int
	total := 0
	err := idx.ForEach(ctx, 3, func(batch []*core.EmbeddingRecord) error {
		sizes = append(sizes, len(batch))
		total += len(batch)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{3, 3, 1}, sizes)
	assert.Equal(t, 7, total)

	t.Run("invalid batch size", func(t *testing.T) {
		err := idx.ForEach(ctx, 0, func([]*core.EmbeddingRecord) error { return nil })
		assert.ErrorIs(t, err, storage.ErrInvalidQuery)
	})

	t.Run("callback error stops iteration", func(t *testing.T) {
		stop := fmt.Errorf("stop")
		calls := 0
		err := idx.ForEach(ctx, 2, func([]*core.EmbeddingRecord) error {
			calls++
			return stop
		})
		assert.ErrorIs(t, err, stop)
		assert.Equal(t, 1, calls)
	})
}

func TestIndex_DimensionMismatch(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.Upsert(ctx, record("q", "a", 1, 0, 0)))

	_, err := idx.Query(ctx, []float32{1, 0}, 3)
	assert.ErrorIs(t, err, storage.ErrDimensionMismatch)
}

func TestIndex_ConcurrentQueries(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.Upsert(ctx,
		record("a", "a", 1, 0),
		record("b", "b", 0, 1),
	))

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results, err := idx.Query(ctx, []float32{1, 0}, 1)
			assert.NoError(t, err)
			assert.Len(t, results, 1)
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		assert.NoError(t, idx.Replace(ctx, record("a", "a", 1, 0), record("c", "c", 0.5, 0.5)))
	}()
	wg.Wait()
}

func TestIndex_ClosedBackend(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)

	idx, err := NewIndexWithBackend(backend)
	require.NoError(t, err)
	require.NoError(t, idx.Close(), "index does not own the backend")
	assert.False(t, backend.IsClosed())

	require.NoError(t, backend.Close())
	_, err = idx.Query(context.Background(), []float32{1}, 1)
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
}

func TestNewIndexWithBackend_Nil(t *testing.T) {
	_, err := NewIndexWithBackend(nil)
	assert.ErrorIs(t, err, ErrBackendRequired)
}
