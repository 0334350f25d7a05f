// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package ai

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Provider names accepted in Config.Providers.
const (
	ProviderOpenAI    = "openai"
	ProviderOllama    = "ollama"
	ProviderAnthropic = "anthropic"
	ProviderTemplate  = "template"
)

// Config holds configuration for AI service providers.
type Config struct {
	// EmbeddingHost is the base URL for the OpenAI-compatible embedding API.
	// Example: "http://localhost:11434/v1" for a local Ollama server
	EmbeddingHost string

	// EmbeddingModel is the model identifier to use for text embeddings.
	EmbeddingModel string

	// HostedBaseURL is the OpenAI-compatible chat endpoint of the hosted provider.
	HostedBaseURL string

	// HostedModel is the chat model requested from the hosted provider.
	HostedModel string

	// HostedToken is the API key for the hosted provider. Empty disables it.
	HostedToken string

	// OllamaURL is the server URL of a self-hosted Ollama instance.
	// Unlike EmbeddingHost it has no /v1 suffix; the native API is used.
	OllamaURL string

	// OllamaModel is the fine-tuned local model used for generation.
	OllamaModel string

	// AnthropicToken is the Anthropic API key. Empty disables the provider.
	AnthropicToken string

	// AnthropicModel is the Anthropic model identifier.
	AnthropicModel string

	// Temperature is the sampling temperature for generation.
	Temperature float64

	// MaxTokens caps generated answer length.
	MaxTokens int

	// Providers is the ordered generation chain. The template generator is
	// always appended last and need not be listed.
	Providers []string
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithEmbeddingHost sets the embedding service host URL.
func WithEmbeddingHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
	}
}

// WithEmbeddingModel sets the embedding model identifier.
func WithEmbeddingModel(model string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingModel = model
	}
}

// WithHosted configures the hosted OpenAI-compatible provider.
func WithHosted(baseURL, model, token string) ConfigOption {
	return func(c *Config) {
		c.HostedBaseURL = baseURL
		c.HostedModel = model
		c.HostedToken = token
	}
}

// WithOllama configures the self-hosted Ollama provider.
func WithOllama(url, model string) ConfigOption {
	return func(c *Config) {
		c.OllamaURL = url
		c.OllamaModel = model
	}
}

// WithAnthropic configures the Anthropic provider.
func WithAnthropic(model, token string) ConfigOption {
	return func(c *Config) {
		c.AnthropicModel = model
		c.AnthropicToken = token
	}
}

// WithTemperature sets the generation temperature.
func WithTemperature(t float64) ConfigOption {
	return func(c *Config) {
		c.Temperature = t
	}
}

// WithMaxTokens caps generated answer length.
func WithMaxTokens(n int) ConfigOption {
	return func(c *Config) {
		c.MaxTokens = n
	}
}

// WithProviders sets the generation chain order.
func WithProviders(names ...string) ConfigOption {
	return func(c *Config) {
		c.Providers = names
	}
}

// DefaultConfig returns a Config with defaults for a local Ollama server
// plus the hosted OpenRouter endpoint.
func DefaultConfig() *Config {
	return &Config{
		EmbeddingHost:  "http://localhost:11434/v1",
		EmbeddingModel: "nomic-embed-text",
		HostedBaseURL:  "https://openrouter.ai/api/v1",
		HostedModel:    "openai/gpt-3.5-turbo",
		OllamaURL:      "http://localhost:11434",
		OllamaModel:    "lawman-legal",
		AnthropicModel: "claude-3-5-haiku-latest",
		Temperature:    0.2,
		MaxTokens:      512,
		Providers:      []string{ProviderOpenAI, ProviderOllama, ProviderAnthropic},
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
//
// Example:
//
//	cfg := NewConfig(
//	    WithEmbeddingHost("http://localhost:11434/v1"),
//	    WithProviders("ollama"),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form.
// The embedding host gains a /v1 suffix when missing; the other URLs lose
// trailing slashes.
func (c *Config) Normalize() {
	if c.EmbeddingHost != "" && !strings.HasSuffix(c.EmbeddingHost, "/v1") {
		c.EmbeddingHost = strings.TrimSuffix(c.EmbeddingHost, "/") + "/v1"
	}
	c.HostedBaseURL = strings.TrimSuffix(c.HostedBaseURL, "/")
	c.OllamaURL = strings.TrimSuffix(c.OllamaURL, "/")
	for i, p := range c.Providers {
		c.Providers[i] = strings.ToLower(strings.TrimSpace(p))
	}
}

// Validate checks that the configuration is valid and complete.
// It automatically normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	if c.EmbeddingHost == "" {
		return errors.New("ai config: EmbeddingHost is required")
	}
	if c.EmbeddingModel == "" {
		return errors.New("ai config: EmbeddingModel is required")
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return errors.New("ai config: Temperature must be between 0 and 2")
	}
	if c.MaxTokens < 1 {
		return errors.New("ai config: MaxTokens must be positive")
	}
	known := []string{ProviderOpenAI, ProviderOllama, ProviderAnthropic, ProviderTemplate}
	for _, p := range c.Providers {
		if !slices.Contains(known, p) {
			return fmt.Errorf("ai config: unknown provider %q", p)
		}
	}
	return nil
}
