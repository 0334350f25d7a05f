// Package llm adapts langchaingo chat models to the ai.Generator and
// ai.Translator interfaces. The provider packages (openai, ollama,
// anthropic) only construct the underlying model and hand it to this package.
package llm

import (
	"context"
	"errors"
	"log/slog"

	"github.com/poiesic/specter/ai"
	"github.com/tmc/langchaingo/llms"
)

// ErrModelRequired is returned when a nil model is passed to a constructor.
var ErrModelRequired = errors.New("chat model required")

// Model is the subset of llms.Model used for generation.
// Every langchaingo chat client satisfies it.
type Model interface {
	GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error)
}

// Generator implements ai.Generator on top of a langchaingo model.
type Generator struct {
	name        string
	model       Model
	temperature float64
	maxTokens   int
	logger      *slog.Logger
}

var _ ai.Generator = (*Generator)(nil)

// Option configures a Generator.
type Option func(*Generator) error

// WithTemperature sets the default sampling temperature.
func WithTemperature(t float64) Option {
	return func(g *Generator) error {
		g.temperature = t
		return nil
	}
}

// WithMaxTokens caps the generated answer length. Zero leaves the model default.
func WithMaxTokens(n int) Option {
	return func(g *Generator) error {
		g.maxTokens = n
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Generator) error {
		if logger == nil {
			logger = slog.Default()
		}
		g.logger = logger.With("component", "llm-generator", "provider", g.name)
		return nil
	}
}

// NewGenerator wraps model as a generator reporting itself as name.
func NewGenerator(name string, model Model, opts ...Option) (*Generator, error) {
	if model == nil {
		return nil, ErrModelRequired
	}
	g := &Generator{
		name:        name,
		model:       model,
		temperature: 0.2,
		logger:      slog.Default().With("component", "llm-generator", "provider", name),
	}
	for _, opt := range opts {
		if err := opt(g); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// Name returns the provider name.
func (g *Generator) Name() string {
	return g.name
}

// Generate sends prompt to the model and returns the cleaned answer text.
// All failures are returned as *ai.ProviderError.
func (g *Generator) Generate(ctx context.Context, prompt ai.Prompt) (string, error) {
	content := make([]llms.MessageContent, 0, 2)
	if prompt.System != "" {
		content = append(content, llms.TextParts(llms.ChatMessageTypeSystem, prompt.System))
	}
	content = append(content, llms.TextParts(llms.ChatMessageTypeHuman, prompt.User))

	temperature := g.temperature
	if prompt.Temperature > 0 {
		temperature = prompt.Temperature
	}
	callOpts := []llms.CallOption{llms.WithTemperature(temperature)}
	if g.maxTokens > 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(g.maxTokens))
	}

	g.logger.Debug("generating answer", "prompt_length", len(prompt.User))
	response, err := g.model.GenerateContent(ctx, content, callOpts...)
	if err != nil {
		return "", ai.NewProviderError(g.name, err)
	}
	if len(response.Choices) == 0 {
		return "", &ai.ProviderError{Provider: g.name, Kind: ai.KindInvalidResponse, Err: ai.ErrEmptyResponse}
	}

	text := cleanResponse(response.Choices[0].Content)
	if text == "" {
		return "", &ai.ProviderError{Provider: g.name, Kind: ai.KindInvalidResponse, Err: ai.ErrEmptyResponse}
	}
	return text, nil
}
