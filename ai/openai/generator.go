package openai

import (
	"github.com/poiesic/specter/ai"
	"github.com/poiesic/specter/ai/llm"
	"github.com/tmc/langchaingo/llms/openai"
)

// NewGenerator creates a generator for the hosted OpenAI-compatible chat
// endpoint (OpenRouter by default). It returns ai.ErrCredentialsMissing
// when no API token is configured.
func NewGenerator(config *ai.Config) (ai.Generator, error) {
	if config == nil {
		return nil, ai.ErrConfigRequired
	}
	if config.HostedToken == "" {
		return nil, &ai.ProviderError{Provider: ai.ProviderOpenAI, Kind: ai.KindAuth, Err: ai.ErrCredentialsMissing}
	}

	client, err := openai.New(
		openai.WithBaseURL(config.HostedBaseURL),
		openai.WithToken(config.HostedToken),
		openai.WithModel(config.HostedModel),
	)
	if err != nil {
		return nil, err
	}

	return llm.NewGenerator(ai.ProviderOpenAI, client,
		llm.WithTemperature(config.Temperature),
		llm.WithMaxTokens(config.MaxTokens),
	)
}
