package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/specter/ai"
	"github.com/poiesic/specter/core"
)

const (
	// DefaultTopK is the number of neighbors fetched per query.
	DefaultTopK = 3

	// DefaultEmbedTimeout bounds the query embedding call.
	DefaultEmbedTimeout = 5 * time.Second
)

// Retriever embeds questions and fetches their nearest stored questions.
type Retriever struct {
	embedder     ai.Embedder
	handle       *Handle
	topK         int
	embedTimeout time.Duration
	logger       *slog.Logger
}

// Option configures a Retriever.
type Option func(*Retriever) error

// WithTopK sets how many neighbors are fetched.
func WithTopK(k int) Option {
	return func(r *Retriever) error {
		if k < 1 {
			return fmt.Errorf("%w: %d", ErrInvalidTopK, k)
		}
		r.topK = k
		return nil
	}
}

// WithEmbedTimeout sets the timeout of the query embedding call.
func WithEmbedTimeout(d time.Duration) Option {
	return func(r *Retriever) error {
		if d > 0 {
			r.embedTimeout = d
		}
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Retriever) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger.With("component", "retriever")
		return nil
	}
}

// NewRetriever creates a retriever over the index behind handle.
func NewRetriever(embedder ai.Embedder, handle *Handle, opts ...Option) (*Retriever, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if handle == nil {
		return nil, ErrHandleRequired
	}
	r := &Retriever{
		embedder:     embedder,
		handle:       handle,
		topK:         DefaultTopK,
		embedTimeout: DefaultEmbedTimeout,
		logger:       slog.Default().With("component", "retriever"),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Retrieve returns up to top-k hits for q, nearest first. Any failure
// (unavailable index, embedding error, query error) is logged and reported
// as an empty result, never to the caller.
func (r *Retriever) Retrieve(ctx context.Context, q core.Query) []core.RetrievalHit {
	hits, err := r.retrieve(ctx, q.ExpandedText)
	if err != nil {
		r.logger.Warn("vector retrieval failed, treating as miss", "query_id", q.ID, "err", err)
		return nil
	}
	return hits
}

// RetrieveText is Retrieve for a bare text, reporting errors. Used by evaluation.
func (r *Retriever) RetrieveText(ctx context.Context, text string) ([]core.RetrievalHit, error) {
	return r.retrieve(ctx, text)
}

func (r *Retriever) retrieve(ctx context.Context, text string) ([]core.RetrievalHit, error) {
	index, err := r.handle.Get(ctx)
	if err != nil {
		return nil, err
	}

	embedCtx, cancel := context.WithTimeout(ctx, r.embedTimeout)
	vector, err := r.embedder.EmbedText(embedCtx, text)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vector) == 0 {
		return nil, fmt.Errorf("embed query: %w", ai.ErrEmptyResponse)
	}

	neighbors, err := index.Query(ctx, vector, r.topK)
	if err != nil {
		return nil, fmt.Errorf("query index: %w", err)
	}

	hits := make([]core.RetrievalHit, len(neighbors))
	for i, n := range neighbors {
		hits[i] = core.RetrievalHit{
			SourceText: n.Record.SourceText,
			Metadata:   n.Record.Metadata,
			Similarity: Similarity(n.Distance),
		}
	}
	if len(hits) > 0 {
		r.logger.Debug("retrieved neighbors",
			"count", len(hits),
			"best_question", hits[0].Metadata[core.MetaQuestion],
			"best_similarity", hits[0].Similarity)
	}
	return hits, nil
}
