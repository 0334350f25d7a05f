// Package mock provides test double implementations of AI service interfaces.
//
// The mocks cover ai.Embedder, ai.Generator, ai.Translator and ai.Provider so
// pipeline tests run without external AI services and with controlled,
// deterministic behavior.
//
// # Usage in Tests
//
//	// Basic usage with default behavior
//	embedder := mock.NewMockEmbedder()
//	vec, err := embedder.EmbedText(ctx, "test")
//
//	// Custom behavior injection
//	gen := mock.NewMockGenerator("hosted")
//	gen.GenerateFunc = func(ctx context.Context, p ai.Prompt) (string, error) {
//	    return "", context.DeadlineExceeded
//	}
//
//	// Check call counts
//	count := gen.CallCount()
//
// # Default Behavior
//
//   - MockEmbedder: Returns deterministic unit vectors based on text hash
//   - MockGenerator: Echoes the prompt with the provider name
//   - MockTranslator: Prefixes the text with the target language
//   - MockProvider: Aggregates the mocks above
package mock
