package ingestion

import (
	"context"
	"io"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/specter/ai"
	"github.com/poiesic/specter/core"
	"github.com/poiesic/specter/storage"
)

// DefaultBatchSize is the number of items embedded per request.
const DefaultBatchSize = 32

// Stats summarizes one ingestion run.
type Stats struct {
	Items      int           `json:"items"`
	Duplicates int           `json:"duplicates"`
	Records    int           `json:"records"`
	Batches    int           `json:"batches"`
	Elapsed    time.Duration `json:"elapsed"`
}

// Pipeline embeds items and writes them to a vector index.
type Pipeline struct {
	index     storage.VectorIndex
	embedder  *batchEmbedder
	pool      *ants.Pool
	batchSize int
	progress  io.Writer
	logger    *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the number of batches embedded concurrently.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		if p.pool != nil {
			p.pool.Release()
		}
		p.pool = pool
		return nil
	}
}

// WithBatchSize sets the number of items per embedding request.
func WithBatchSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		p.batchSize = size
		return nil
	}
}

// WithBackoff sets the retry policy for embedding requests.
func WithBackoff(b Backoff) Option {
	return func(p *Pipeline) error {
		if b.MaxAttempts <= 0 {
			return ErrInvalidMaxAttempts
		}
		p.embedder.backoff = b
		return nil
	}
}

// WithProgress reports progress to w, typically os.Stderr.
func WithProgress(w io.Writer) Option {
	return func(p *Pipeline) error {
		p.progress = w
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger.With("component", "ingestion")
		p.embedder.logger = p.logger.With("processor", "embeddings")
		return nil
	}
}

// NewPipeline creates a pipeline writing to index.
func NewPipeline(index storage.VectorIndex, embedder ai.Embedder, opts ...Option) (*Pipeline, error) {
	if index == nil {
		return nil, ErrIndexRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	logger := slog.Default().With("component", "ingestion")
	p := &Pipeline{
		index:     index,
		batchSize: DefaultBatchSize,
		logger:    logger,
		embedder: &batchEmbedder{
			embedder: embedder,
			backoff:  DefaultBackoff,
			logger:   logger.With("processor", "embeddings"),
		},
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			p.Release()
			return nil, err
		}
	}
	if p.pool == nil {
		if err := WithPoolSize(runtime.NumCPU() / 2)(p); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Rebuild replaces the whole index with items.
func (p *Pipeline) Rebuild(ctx context.Context, items []Item) (Stats, error) {
	if len(items) == 0 {
		return Stats{}, ErrNoItems
	}
	return p.run(ctx, items, p.index.Replace)
}

// Add upserts items, leaving other records in place.
func (p *Pipeline) Add(ctx context.Context, items []Item) (Stats, error) {
	return p.run(ctx, items, p.index.Upsert)
}

func (p *Pipeline) run(ctx context.Context, items []Item, write func(context.Context, ...*core.EmbeddingRecord) error) (Stats, error) {
	start := time.Now()
	unique := Dedup(items)
	stats := Stats{Items: len(items), Duplicates: len(items) - len(unique)}

	records, batches, err := p.embedAll(ctx, unique)
	stats.Batches = batches
	if err != nil {
		return stats, err
	}
	if err := write(ctx, records...); err != nil {
		p.logger.Error("error writing records", "records", len(records), "err", err)
		return stats, err
	}

	stats.Records = len(records)
	stats.Elapsed = time.Since(start)
	p.logger.Info("ingestion complete",
		"items", stats.Items,
		"duplicates", stats.Duplicates,
		"records", stats.Records,
		"elapsed", stats.Elapsed)
	return stats, nil
}

// embedAll embeds items in batches on the worker pool. Records keep item
// order. The first failing batch cancels the rest.
func (p *Pipeline) embedAll(ctx context.Context, items []Item) ([]*core.EmbeddingRecord, int, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var tracker *ProgressTracker
	if p.progress != nil {
		tracker = NewProgressTracker(p.progress, "Embedding", len(items), p.batchSize)
		tracker.Start()
	}

	var batches [][]Item
	for i := 0; i < len(items); i += p.batchSize {
		batches = append(batches, items[i:min(i+p.batchSize, len(items))])
	}
	results := make([][]*core.EmbeddingRecord, len(batches))

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	fail := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		if firstErr == nil {
			firstErr = err
			cancel()
		}
	}

	for i, batch := range batches {
		wg.Add(1)
		err := p.pool.Submit(func() {
			defer wg.Done()
			records, err := p.embedder.embed(ctx, batch)
			if err != nil {
				fail(err)
				return
			}
			results[i] = records
			tracker.Increment(len(batch))
		})
		if err != nil {
			wg.Done()
			fail(err)
			break
		}
	}
	wg.Wait()

	if firstErr != nil {
		return nil, len(batches), firstErr
	}
	tracker.Finish()

	records := make([]*core.EmbeddingRecord, 0, len(items))
	for _, r := range results {
		records = append(records, r...)
	}
	return records, len(batches), nil
}

// Release releases the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}
