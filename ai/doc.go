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


// Package ai provides abstractions for the AI services used by specter.
//
// The package defines the interfaces the answer pipeline depends on:
//
//   - Embedder: Generates vector embeddings from text
//   - Generator: Produces free text answers from a prompt
//   - Translator: Renders answers into another language
//   - Provider: Aggregates the services built from one Config
//
// Failures from generators are reported as *ProviderError with an ErrorKind,
// so the generation chain can log the reason and move on to the next provider.
//
// # Implementation Packages
//
//   - ai/llm: Generator and Translator over any langchaingo model
//   - ai/openai: OpenAI-compatible embeddings and hosted chat (OpenRouter)
//   - ai/ollama: Self-hosted Ollama chat
//   - ai/anthropic: Anthropic chat
//   - ai/template: Deterministic offline generator that never fails
//   - ai/mock: Test doubles for unit testing without external dependencies
//   - ai/providers: Builds a Provider from Config, skipping providers without credentials
//
// Public constructors return interface types. Mock constructors return
// concrete types so tests can inject behavior and inspect call counts.
//
// # Usage Example
//
//	cfg := ai.NewConfig(ai.WithHosted(url, model, token))
//	provider, err := providers.New(cfg, slog.Default())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	vec, err := provider.Embedder().EmbedText(ctx, "what is bail")
//	chain := provider.Generators() // template generator not included
package ai
