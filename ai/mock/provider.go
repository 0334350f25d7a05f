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


package mock

import "github.com/poiesic/specter/ai"

// MockProvider is a test double for ai.Provider.
// It aggregates mock embedder, generator and translator instances.
type MockProvider struct {
	embedder   *MockEmbedder
	generators []*MockGenerator
	translator *MockTranslator
}

// NewMockProvider creates a new mock provider with one generator named "mock".
//
// Returns ai.Provider interface for consistency with production constructors.
// Use GetMockEmbedder()/GetMockGenerators() to access concrete types for test assertions.
func NewMockProvider() ai.Provider {
	return NewMockProviderWithServices(NewMockEmbedder(), NewMockTranslator(), NewMockGenerator("mock"))
}

// NewMockProviderWithServices creates a mock provider with custom mock services.
func NewMockProviderWithServices(embedder *MockEmbedder, translator *MockTranslator, generators ...*MockGenerator) *MockProvider {
	return &MockProvider{
		embedder:   embedder,
		generators: generators,
		translator: translator,
	}
}

// Embedder returns the mock embedder.
func (p *MockProvider) Embedder() ai.Embedder {
	return p.embedder
}

// Generators returns the mock generators in order.
func (p *MockProvider) Generators() []ai.Generator {
	out := make([]ai.Generator, len(p.generators))
	for i, g := range p.generators {
		out[i] = g
	}
	return out
}

// Translator returns the mock translator, or nil when none was given.
func (p *MockProvider) Translator() ai.Translator {
	if p.translator == nil {
		return nil
	}
	return p.translator
}

// Close is a no-op for mock provider.
func (p *MockProvider) Close() error {
	return nil
}

// GetMockEmbedder returns the underlying mock embedder for test assertions.
func (p *MockProvider) GetMockEmbedder() *MockEmbedder {
	return p.embedder
}

// GetMockGenerators returns the underlying mock generators for test assertions.
func (p *MockProvider) GetMockGenerators() []*MockGenerator {
	return p.generators
}
