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


// Package specter assembles the answer-resolution pipeline from a
// config.Config: knowledge base, vector index, AI providers, answer cache
// and resolver.
package specter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/poiesic/specter/ai"
	"github.com/poiesic/specter/ai/providers"
	"github.com/poiesic/specter/cache"
	"github.com/poiesic/specter/compose"
	"github.com/poiesic/specter/config"
	"github.com/poiesic/specter/core"
	"github.com/poiesic/specter/generation"
	"github.com/poiesic/specter/ingestion"
	"github.com/poiesic/specter/knowledge"
	"github.com/poiesic/specter/resolve"
	"github.com/poiesic/specter/retrieval"
	"github.com/poiesic/specter/storage"
	"github.com/poiesic/specter/storage/badger"
	"github.com/poiesic/specter/storage/pgvector"
)

// ErrConfigRequired is returned when New is called with a nil config.
var ErrConfigRequired = errors.New("config required")

// Service is the assembled question-answering pipeline. It owns the vector
// index, the answer cache and the AI providers; Close releases them.
type Service struct {
	cfg       *config.Config
	base      *knowledge.Base
	provider  ai.Provider
	handle    *retrieval.Handle
	retriever *retrieval.Retriever
	gate      retrieval.Gate
	answers   *cache.AnswerCache
	resolver  *resolve.Resolver
	logger    *slog.Logger
}

// Option configures a Service.
type Option func(*serviceOptions)

type serviceOptions struct {
	provider ai.Provider
	index    storage.VectorIndex
	logger   *slog.Logger
}

// WithProvider replaces the providers built from cfg.AI.
func WithProvider(p ai.Provider) Option {
	return func(o *serviceOptions) {
		o.provider = p
	}
}

// WithIndex uses index instead of opening the configured adapter.
// The service takes ownership and closes it.
func WithIndex(index storage.VectorIndex) Option {
	return func(o *serviceOptions) {
		o.index = index
	}
}

// WithLogger sets the logger passed to every component.
func WithLogger(logger *slog.Logger) Option {
	return func(o *serviceOptions) {
		o.logger = logger
	}
}

// New builds a Service. The vector index is opened lazily on first use;
// if it cannot be opened the resolver keeps answering without it.
func New(cfg *config.Config, opts ...Option) (*Service, error) {
	if cfg == nil {
		return nil, ErrConfigRequired
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	options := &serviceOptions{}
	for _, opt := range opts {
		opt(options)
	}
	logger := options.logger
	if logger == nil {
		logger = slog.Default()
	}

	base, err := loadKnowledge(cfg.Knowledge)
	if err != nil {
		return nil, err
	}
	matcher, err := knowledge.NewMatcher(base, knowledge.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	provider := options.provider
	if provider == nil {
		provider, err = providers.New(cfg.AIConfig(), logger)
		if err != nil {
			return nil, fmt.Errorf("create AI providers: %w", err)
		}
	}

	s := &Service{
		cfg:      cfg,
		base:     base,
		provider: provider,
		logger:   logger.With("component", "service"),
	}
	if options.index != nil {
		s.handle = retrieval.NewReadyHandle(options.index)
	} else {
		s.handle = retrieval.NewHandle(openerFor(cfg.Index), logger,
			retrieval.WithOpenTimeout(cfg.Index.OpenTimeout))
	}

	if err := s.build(matcher, logger); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Service) build(matcher *knowledge.Matcher, logger *slog.Logger) error {
	var err error
	s.retriever, err = retrieval.NewRetriever(s.provider.Embedder(), s.handle,
		retrieval.WithTopK(s.cfg.Retrieval.TopK),
		retrieval.WithEmbedTimeout(s.cfg.Retrieval.EmbedTimeout),
		retrieval.WithLogger(logger))
	if err != nil {
		return err
	}
	s.gate, err = retrieval.NewGate(s.cfg.Retrieval.Threshold)
	if err != nil {
		return err
	}

	chain, err := generation.NewChain(s.provider.Generators(),
		generation.WithAttemptTimeout(s.cfg.Generation.AttemptTimeout),
		generation.WithTemperature(s.cfg.AI.Temperature),
		generation.WithLogger(logger))
	if err != nil {
		return err
	}
	composer, err := compose.NewComposer(
		compose.WithTranslator(s.provider.Translator()),
		compose.WithTranslateTimeout(s.cfg.Generation.TranslateTimeout),
		compose.WithLogger(logger))
	if err != nil {
		return err
	}

	resolverOpts := []resolve.Option{
		resolve.WithRetriever(s.retriever),
		resolve.WithGate(s.gate),
		resolve.WithComposer(composer),
		resolve.WithLogger(logger),
	}
	s.answers, err = openCache(s.cfg.Cache, logger)
	if err != nil {
		return err
	}
	if s.answers != nil {
		resolverOpts = append(resolverOpts, resolve.WithCache(s.answers))
	}

	s.resolver, err = resolve.NewResolver(matcher, chain, resolverOpts...)
	return err
}

func loadKnowledge(cfg config.KnowledgeConfig) (*knowledge.Base, error) {
	if cfg.File == "" {
		return knowledge.Builtin()
	}
	return knowledge.LoadFile(cfg.File)
}

func openerFor(cfg config.IndexConfig) retrieval.Opener {
	switch cfg.Adapter {
	case config.AdapterPGVector:
		return func(ctx context.Context) (storage.VectorIndex, error) {
			return pgvector.Open(ctx, pgvector.Config{
				DSN:        cfg.PGVector.DSN,
				Table:      cfg.PGVector.Table,
				Dimensions: cfg.PGVector.Dimensions,
				MaxConns:   cfg.PGVector.MaxConns,
			})
		}
	default:
		return func(context.Context) (storage.VectorIndex, error) {
			if cfg.Badger.InMemory {
				return badger.NewMemoryIndex()
			}
			return badger.NewIndex(cfg.Badger.Path)
		}
	}
}

func openCache(cfg config.CacheConfig, logger *slog.Logger) (*cache.AnswerCache, error) {
	var client cache.Client
	switch cfg.Driver {
	case config.CacheNone:
		return nil, nil
	case config.CacheRedis:
		rc, err := cache.NewRedisClient(cache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
			Prefix:   cfg.Redis.Prefix,
		})
		if err != nil {
			// run uncached rather than refuse to start
			logger.Warn("redis cache unavailable, continuing without cache", "addr", cfg.Redis.Addr, "err", err)
			return nil, nil
		}
		client = rc
	default:
		client = cache.NewMemoryClient(cfg.MaxEntries)
	}
	return cache.NewAnswerCache(client, cfg.TTL, logger)
}

// Resolver returns the configured resolver.
func (s *Service) Resolver() *resolve.Resolver {
	return s.resolver
}

// KnowledgeBase returns the curated knowledge base.
func (s *Service) KnowledgeBase() *knowledge.Base {
	return s.base
}

// Retriever returns the vector retriever.
func (s *Service) Retriever() *retrieval.Retriever {
	return s.retriever
}

// Gate returns the confidence gate.
func (s *Service) Gate() retrieval.Gate {
	return s.gate
}

// NewIngester returns an ingestion pipeline writing to the vector index.
// The caller must Release it.
func (s *Service) NewIngester(ctx context.Context, opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	index, err := s.handle.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("open vector index: %w", err)
	}
	opts = append([]ingestion.Option{ingestion.WithLogger(s.logger)}, opts...)
	return ingestion.NewPipeline(index, s.provider.Embedder(), opts...)
}

// Dataset returns the items indexed by Ingest: knowledge base phrasings
// followed by every configured FAQ file, deduplicated.
func (s *Service) Dataset() ([]ingestion.Item, error) {
	items := ingestion.FromKnowledgeBase(s.base)
	for _, path := range s.cfg.Knowledge.FAQFiles {
		faq, err := ingestion.LoadFAQFile(path)
		if err != nil {
			return nil, err
		}
		items = append(items, faq...)
	}
	return ingestion.Dedup(items), nil
}

// Ingest rebuilds the vector index from Dataset and drops cached answers.
func (s *Service) Ingest(ctx context.Context, opts ...ingestion.Option) (ingestion.Stats, error) {
	items, err := s.Dataset()
	if err != nil {
		return ingestion.Stats{}, err
	}
	pipeline, err := s.NewIngester(ctx, opts...)
	if err != nil {
		return ingestion.Stats{}, err
	}
	defer pipeline.Release()

	stats, err := pipeline.Rebuild(ctx, items)
	if err != nil {
		return stats, err
	}
	if s.answers != nil {
		if err := s.answers.Invalidate(ctx); err != nil {
			s.logger.Warn("failed to invalidate answer cache", "err", err)
		}
	}
	return stats, nil
}

// IndexedCategories counts indexed records per category.
func (s *Service) IndexedCategories(ctx context.Context) (map[string]int, error) {
	index, err := s.handle.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("open vector index: %w", err)
	}
	counts := make(map[string]int)
	err = index.ForEach(ctx, ingestion.DefaultBatchSize, func(batch []*core.EmbeddingRecord) error {
		for _, r := range batch {
			counts[r.Metadata[core.MetaCategory]]++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return counts, nil
}

// Evaluate measures retrieval accuracy over Dataset.
func (s *Service) Evaluate(ctx context.Context) (retrieval.Metrics, error) {
	items, err := s.Dataset()
	if err != nil {
		return retrieval.Metrics{}, err
	}
	return retrieval.Evaluate(ctx, s.retriever, s.gate, ingestion.EvalCases(items))
}

// Close releases the cache, the vector index and the AI providers.
func (s *Service) Close() error {
	var errs []error
	if s.answers != nil {
		if err := s.answers.Close(); err != nil {
			s.logger.Error("error closing answer cache", "err", err)
			errs = append(errs, err)
		}
	}
	if err := s.handle.Close(); err != nil {
		s.logger.Error("error closing vector index", "err", err)
		errs = append(errs, err)
	}
	if err := s.provider.Close(); err != nil {
		s.logger.Error("error closing AI provider", "err", err)
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
