// Package anthropic implements ai.Generator on the Anthropic messages API.
package anthropic

import (
	"github.com/poiesic/specter/ai"
	"github.com/poiesic/specter/ai/llm"
	"github.com/tmc/langchaingo/llms/anthropic"
)

// NewGenerator creates a generator for config.AnthropicModel.
// It returns ai.ErrCredentialsMissing when no API key is configured.
func NewGenerator(config *ai.Config) (ai.Generator, error) {
	if config == nil {
		return nil, ai.ErrConfigRequired
	}
	if config.AnthropicToken == "" {
		return nil, &ai.ProviderError{Provider: ai.ProviderAnthropic, Kind: ai.KindAuth, Err: ai.ErrCredentialsMissing}
	}

	client, err := anthropic.New(
		anthropic.WithToken(config.AnthropicToken),
		anthropic.WithModel(config.AnthropicModel),
	)
	if err != nil {
		return nil, err
	}

	return llm.NewGenerator(ai.ProviderAnthropic, client,
		llm.WithTemperature(config.Temperature),
		llm.WithMaxTokens(config.MaxTokens),
	)
}
