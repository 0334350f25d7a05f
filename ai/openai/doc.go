// Package openai implements the ai interfaces on OpenAI-compatible APIs.
//
// Embeddings go to Config.EmbeddingHost, usually a local Ollama or vLLM
// server speaking the OpenAI protocol. Generation goes to the hosted
// endpoint at Config.HostedBaseURL, OpenRouter by default, and requires
// Config.HostedToken.
//
//	embedder, err := openai.NewEmbedder(cfg)
//	generator, err := openai.NewGenerator(cfg)
package openai
