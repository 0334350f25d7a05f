package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotNil(t, cfg)
	assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
	assert.Equal(t, "https://openrouter.ai/api/v1", cfg.HostedBaseURL)
	assert.Equal(t, "openai/gpt-3.5-turbo", cfg.HostedModel)
	assert.Equal(t, "lawman-legal", cfg.OllamaModel)
	assert.Equal(t, 0.2, cfg.Temperature)
	assert.Equal(t, 512, cfg.MaxTokens)
	assert.Equal(t, []string{"openai", "ollama", "anthropic"}, cfg.Providers)
	assert.Empty(t, cfg.HostedToken)
}

func TestNewConfig(t *testing.T) {
	t.Run("with no options", func(t *testing.T) {
		cfg := NewConfig()
		assert.Equal(t, DefaultConfig(), cfg)
	})

	t.Run("with hosted provider", func(t *testing.T) {
		cfg := NewConfig(WithHosted("https://api.example.com/v1", "gpt-4o-mini", "secret"))

		assert.Equal(t, "https://api.example.com/v1", cfg.HostedBaseURL)
		assert.Equal(t, "gpt-4o-mini", cfg.HostedModel)
		assert.Equal(t, "secret", cfg.HostedToken)
	})

	t.Run("with multiple options", func(t *testing.T) {
		cfg := NewConfig(
			WithEmbeddingHost("http://embed:8080/v1"),
			WithEmbeddingModel("custom-embed"),
			WithOllama("http://gpu:11434", "llama3"),
			WithAnthropic("claude-x", "key"),
			WithTemperature(0.7),
			WithProviders("ollama"),
		)

		assert.Equal(t, "http://embed:8080/v1", cfg.EmbeddingHost)
		assert.Equal(t, "custom-embed", cfg.EmbeddingModel)
		assert.Equal(t, "http://gpu:11434", cfg.OllamaURL)
		assert.Equal(t, "llama3", cfg.OllamaModel)
		assert.Equal(t, "claude-x", cfg.AnthropicModel)
		assert.Equal(t, "key", cfg.AnthropicToken)
		assert.Equal(t, 0.7, cfg.Temperature)
		assert.Equal(t, []string{"ollama"}, cfg.Providers)
	})
}

func TestConfigNormalize(t *testing.T) {
	tests := []struct {
		name              string
		embeddingHost     string
		expectedEmbedding string
	}{
		{"already has /v1", "http://localhost:11434/v1", "http://localhost:11434/v1"},
		{"missing /v1", "http://localhost:11434", "http://localhost:11434/v1"},
		{"has trailing slash", "http://localhost:11434/", "http://localhost:11434/v1"},
		{"empty host", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{EmbeddingHost: tt.embeddingHost}
			cfg.Normalize()
			assert.Equal(t, tt.expectedEmbedding, cfg.EmbeddingHost)
		})
	}

	t.Run("trims urls and provider names", func(t *testing.T) {
		cfg := &Config{
			HostedBaseURL: "https://openrouter.ai/api/v1/",
			OllamaURL:     "http://localhost:11434/",
			Providers:     []string{" OpenAI", "OLLAMA "},
		}
		cfg.Normalize()

		assert.Equal(t, "https://openrouter.ai/api/v1", cfg.HostedBaseURL)
		assert.Equal(t, "http://localhost:11434", cfg.OllamaURL)
		assert.Equal(t, []string{"openai", "ollama"}, cfg.Providers)
	})
}

func TestConfigValidate(t *testing.T) {
	t.Run("valid config", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.EmbeddingHost = "http://localhost:11434"

		require.NoError(t, cfg.Validate())
		assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
	})

	tests := []struct {
		name    string
		mutate  func(*Config)
		message string
	}{
		{"missing embedding host", func(c *Config) { c.EmbeddingHost = "" }, "EmbeddingHost"},
		{"missing embedding model", func(c *Config) { c.EmbeddingModel = "" }, "EmbeddingModel"},
		{"negative temperature", func(c *Config) { c.Temperature = -0.1 }, "Temperature"},
		{"temperature too high", func(c *Config) { c.Temperature = 2.5 }, "Temperature"},
		{"zero max tokens", func(c *Config) { c.MaxTokens = 0 }, "MaxTokens"},
		{"unknown provider", func(c *Config) { c.Providers = []string{"openai", "bard"} }, "bard"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.message)
		})
	}

	t.Run("template provider is accepted", func(t *testing.T) {
		cfg := NewConfig(WithProviders("template"))
		assert.NoError(t, cfg.Validate())
	})
}
