// Package ollama implements ai.Generator and ai.Translator on a self-hosted
// Ollama server using its native chat API.
package ollama

import (
	"github.com/poiesic/specter/ai"
	"github.com/poiesic/specter/ai/llm"
	"github.com/tmc/langchaingo/llms/ollama"
)

// NewGenerator creates a generator backed by config.OllamaModel on config.OllamaURL.
// The server is not contacted until the first call.
func NewGenerator(config *ai.Config) (ai.Generator, error) {
	return newGenerator(config)
}

func newGenerator(config *ai.Config) (*llm.Generator, error) {
	if config == nil {
		return nil, ai.ErrConfigRequired
	}
	if config.OllamaURL == "" || config.OllamaModel == "" {
		return nil, &ai.ProviderError{Provider: ai.ProviderOllama, Kind: ai.KindUnavailable, Err: ai.ErrCredentialsMissing}
	}

	client, err := ollama.New(
		ollama.WithServerURL(config.OllamaURL),
		ollama.WithModel(config.OllamaModel),
	)
	if err != nil {
		return nil, err
	}

	return llm.NewGenerator(ai.ProviderOllama, client,
		llm.WithTemperature(config.Temperature),
		llm.WithMaxTokens(config.MaxTokens),
	)
}

// NewTranslator creates a translator on the local model.
func NewTranslator(config *ai.Config) (ai.Translator, error) {
	gen, err := newGenerator(config)
	if err != nil {
		return nil, err
	}
	return llm.NewTranslator(gen)
}
