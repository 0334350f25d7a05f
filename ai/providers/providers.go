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


// Package providers assembles an ai.Provider from an ai.Config, building the
// embedder and the ordered generator chain from the concrete provider packages.
package providers

import (
	"errors"
	"log/slog"

	"github.com/poiesic/specter/ai"
	"github.com/poiesic/specter/ai/anthropic"
	"github.com/poiesic/specter/ai/llm"
	"github.com/poiesic/specter/ai/ollama"
	"github.com/poiesic/specter/ai/openai"
)

// Provider implements ai.Provider over the configured services.
type Provider struct {
	config     *ai.Config
	embedder   ai.Embedder
	generators []ai.Generator
	translator ai.Translator
	logger     *slog.Logger
}

// factories maps provider names to generator constructors.
var factories = map[string]func(*ai.Config) (ai.Generator, error){
	ai.ProviderOpenAI:    openai.NewGenerator,
	ai.ProviderOllama:    ollama.NewGenerator,
	ai.ProviderAnthropic: anthropic.NewGenerator,
}

// New creates a provider from config. Generators whose credentials are
// missing are skipped and logged once here; the template generator is
// never included since the generation chain always appends it.
//
// Returns ai.Provider interface to enforce abstraction.
func New(config *ai.Config, logger *slog.Logger) (ai.Provider, error) {
	if config == nil {
		return nil, ai.ErrConfigRequired
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "ai-provider")

	embedder, err := openai.NewEmbedder(config)
	if err != nil {
		return nil, err
	}

	p := &Provider{
		config:   config,
		embedder: embedder,
		logger:   logger,
	}

	for _, name := range config.Providers {
		factory, ok := factories[name]
		if !ok {
			continue
		}
		gen, err := factory(config)
		if err != nil {
			if errors.Is(err, ai.ErrCredentialsMissing) {
				logger.Warn("generation provider unavailable, skipping", "provider", name, "reason", err)
				continue
			}
			return nil, err
		}
		p.generators = append(p.generators, gen)
	}

	p.translator = p.buildTranslator()
	logger.Info("ai provider ready", "generators", len(p.generators), "translation", p.translator != nil)
	return p, nil
}

// buildTranslator prefers the local model and falls back to the first
// configured generator.
func (p *Provider) buildTranslator() ai.Translator {
	for _, gen := range p.generators {
		if gen.Name() == ai.ProviderOllama {
			if t, err := ollama.NewTranslator(p.config); err == nil {
				return t
			}
		}
	}
	if len(p.generators) == 0 {
		return nil
	}
	t, err := llm.NewTranslator(p.generators[0])
	if err != nil {
		return nil
	}
	return t
}

// Embedder returns the text embedding service.
func (p *Provider) Embedder() ai.Embedder {
	return p.embedder
}

// Generators returns the available generators in configured order.
func (p *Provider) Generators() []ai.Generator {
	return p.generators
}

// Translator returns the translation service, or nil when no generator is available.
func (p *Provider) Translator() ai.Translator {
	return p.translator
}

// Close releases resources held by the provider.
// Currently a no-op as the underlying clients don't require explicit cleanup.
func (p *Provider) Close() error {
	p.logger.Debug("closing ai provider")
	return nil
}
