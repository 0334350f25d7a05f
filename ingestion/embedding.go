package ingestion

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/specter/ai"
	"github.com/poiesic/specter/core"
	"github.com/poiesic/specter/normalize"
)

// embedText is the text stored and embedded for an item. It goes through
// the same cleaning and abbreviation expansion as incoming questions so
// both sides of the similarity search share one vocabulary.
func embedText(it Item) string {
	return normalize.Expand(normalize.Clean(it.Question))
}

// batchEmbedder turns a batch of items into embedding records.
type batchEmbedder struct {
	embedder ai.Embedder
	backoff  Backoff
	logger   *slog.Logger
}

func (b *batchEmbedder) embed(ctx context.Context, batch []Item) ([]*core.EmbeddingRecord, error) {
	texts := make([]string, len(batch))
	for i, it := range batch {
		texts[i] = embedText(it)
	}

	var vectors [][]float32
	err := RetryWithBackoff(ctx, b.backoff, func(ctx context.Context) error {
		var err error
		vectors, err = b.embedder.EmbedTexts(ctx, texts)
		return err
	})
	if err != nil {
		b.logger.Error("error generating embeddings", "items", len(batch), "err", err)
		return nil, err
	}
	if len(vectors) != len(batch) {
		return nil, fmt.Errorf("%w: expected %d, received %d", ErrEmbeddingMismatch, len(batch), len(vectors))
	}

	records := make([]*core.EmbeddingRecord, len(batch))
	for i, it := range batch {
		records[i] = it.record(vectors[i], texts[i])
	}
	return records, nil
}
