package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// The returned slice contains embeddings in the same order as the input texts.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Prompt is a single generation request.
type Prompt struct {
	// System is the instruction given to the model.
	System string

	// User carries the question and any grounding context.
	User string

	// Temperature overrides the provider default when positive.
	Temperature float64
}

// Generator produces free text answers. Failures are reported as
// *ProviderError so callers can decide whether to try another generator.
// Implementations must be thread-safe for concurrent use.
type Generator interface {
	// Name identifies the provider in logs and source tags.
	Name() string

	// Generate returns the model's answer to prompt.
	// An empty answer is reported as an error of kind KindInvalidResponse.
	Generate(ctx context.Context, prompt Prompt) (string, error)
}

// Translator renders text into another natural language.
// Implementations must be thread-safe for concurrent use.
type Translator interface {
	Translate(ctx context.Context, text, language string) (string, error)
}

// Provider aggregates the AI services built from one Config.
type Provider interface {
	// Embedder returns the text embedding service.
	Embedder() Embedder

	// Generators returns the configured generation chain in order.
	// Providers whose credentials are missing are left out.
	Generators() []Generator

	// Translator returns the translation service, or nil when none is available.
	Translator() Translator

	// Close releases resources held by the provider and its services.
	Close() error
}
