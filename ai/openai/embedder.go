package openai

import (
	"context"
	"log/slog"

	"github.com/poiesic/specter/ai"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

// embeddingProvider tags embedding failures in ai.ProviderError.
const embeddingProvider = "embeddings"

// Embedder implements ai.Embedder against an OpenAI-compatible /embeddings
// endpoint. With the default config that is a local Ollama server.
type Embedder struct {
	embedder embeddings.Embedder
	logger   *slog.Logger
}

func newEmbedder(config *ai.Config) (*Embedder, error) {
	if config == nil {
		return nil, ai.ErrConfigRequired
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// local servers ignore the token; the client refuses to start without one
	token := config.HostedToken
	if token == "" {
		token = "none"
	}
	client, err := openai.New(
		openai.WithBaseURL(config.EmbeddingHost),
		openai.WithToken(token),
		openai.WithEmbeddingModel(config.EmbeddingModel),
	)
	if err != nil {
		return nil, err
	}

	embedder, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, err
	}

	return &Embedder{
		embedder: embedder,
		logger:   slog.Default().With("component", "embedder", "model", config.EmbeddingModel),
	}, nil
}

// NewEmbedder creates an embedder for config.EmbeddingHost and EmbeddingModel.
func NewEmbedder(config *ai.Config) (ai.Embedder, error) {
	return newEmbedder(config)
}

// EmbedText embeds a single question. An empty result is reported as
// ai.ErrEmptyResponse.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return nil, ai.NewProviderError(embeddingProvider, ai.ErrEmptyResponse)
	}
	return vectors[0], nil
}

// EmbedTexts embeds texts in one request. Failures are wrapped in
// *ai.ProviderError so callers can tell auth problems from transient ones.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	vectors, err := e.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		err = ai.NewProviderError(embeddingProvider, err)
		e.logger.Warn("embedding request failed", "count", len(texts), "err", err)
		return nil, err
	}
	e.logger.Debug("embedded texts", "count", len(texts))
	return vectors, nil
}
