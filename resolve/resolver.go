package resolve

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/poiesic/specter/cache"
	"github.com/poiesic/specter/compose"
	"github.com/poiesic/specter/core"
	"github.com/poiesic/specter/generation"
	"github.com/poiesic/specter/knowledge"
	"github.com/poiesic/specter/normalize"
	"github.com/poiesic/specter/retrieval"
)

// Options control a single resolution.
type Options struct {
	Structured bool
}

// Resolver runs the resolution pipeline. It holds no per-request state and
// is safe for concurrent use.
type Resolver struct {
	matcher   *knowledge.Matcher
	retriever *retrieval.Retriever
	gate      retrieval.Gate
	chain     *generation.Chain
	composer  *compose.Composer
	cache     *cache.AnswerCache
	logger    *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver) error

// WithRetriever enables the vector stage. Without it every query that
// misses the knowledge base goes straight to generation.
func WithRetriever(r *retrieval.Retriever) Option {
	return func(res *Resolver) error {
		res.retriever = r
		return nil
	}
}

// WithGate replaces the default confidence gate.
func WithGate(g retrieval.Gate) Option {
	return func(res *Resolver) error {
		res.gate = g
		return nil
	}
}

// WithComposer replaces the default composer, which cannot translate.
func WithComposer(c *compose.Composer) Option {
	return func(res *Resolver) error {
		if c == nil {
			return ErrComposerRequired
		}
		res.composer = c
		return nil
	}
}

// WithCache enables the answer cache.
func WithCache(c *cache.AnswerCache) Option {
	return func(res *Resolver) error {
		res.cache = c
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(res *Resolver) error {
		if logger == nil {
			logger = slog.Default()
		}
		res.logger = logger.With("component", "resolver")
		return nil
	}
}

// NewResolver creates a resolver over the given knowledge matcher and
// generation chain.
func NewResolver(matcher *knowledge.Matcher, chain *generation.Chain, opts ...Option) (*Resolver, error) {
	if matcher == nil {
		return nil, ErrMatcherRequired
	}
	if chain == nil {
		return nil, ErrChainRequired
	}

	gate, err := retrieval.NewGate(retrieval.DefaultThreshold)
	if err != nil {
		return nil, err
	}
	composer, err := compose.NewComposer()
	if err != nil {
		return nil, err
	}

	r := &Resolver{
		matcher:  matcher,
		chain:    chain,
		gate:     gate,
		composer: composer,
		logger:   slog.Default().With("component", "resolver"),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Resolve answers message. The only error is core.ErrEmptyQuestion (or
// core.ErrQuestionTooLong) for input that fails validation.
func (r *Resolver) Resolve(ctx context.Context, message string, opts Options) (core.AnswerResult, error) {
	return r.ResolveWithMonitor(ctx, message, opts, nil)
}

// ResolveWithMonitor is Resolve with stage callbacks delivered to monitor.
func (r *Resolver) ResolveWithMonitor(ctx context.Context, message string, opts Options, monitor Monitor) (core.AnswerResult, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	if err := core.ValidateQuestion(message); err != nil {
		return core.AnswerResult{}, err
	}

	start := time.Now()
	q := normalize.Normalize(message)
	monitor.Start(q)

	if r.cache != nil {
		if cached, ok := r.cache.Get(ctx, q, opts.Structured); ok {
			monitor.CacheHit(cached)
			monitor.Finish(cached, time.Since(start))
			return cached, nil
		}
	}

	result := r.answer(ctx, q, monitor)
	result, complete := r.composer.Compose(ctx, q, result, compose.Options{Structured: opts.Structured})

	// an untranslated answer must not be served for the translated key
	if r.cache != nil && complete && result.Authoritative() {
		// failures are logged by the cache
		_ = r.cache.Put(ctx, q, opts.Structured, result)
	}

	elapsed := time.Since(start)
	monitor.Finish(result, elapsed)
	r.logger.Info("query resolved",
		"query_id", q.ID,
		"origin", result.Origin.String(),
		"elapsed", elapsed)
	return result, nil
}

// answer runs the lookup tiers and returns the uncomposed result.
func (r *Resolver) answer(ctx context.Context, q core.Query, monitor Monitor) core.AnswerResult {
	if m, ok := r.matcher.Match(q); ok {
		monitor.KnowledgeMatch(m)
		return m.Result()
	}

	var grounding []core.RetrievalHit
	if r.retriever != nil {
		hits := r.retriever.Retrieve(ctx, q)
		monitor.AfterRetrieval(hits)

		decision := r.gate.Evaluate(hits)
		monitor.GateDecision(decision)
		if res, ok := decision.Result(); ok {
			return res
		}
		grounding = decision.Hits
	}

	question, _ := normalize.DetectLanguage(q.RawText)
	gen := r.chain.Generate(ctx, generation.Request{Question: strings.TrimSpace(question), Context: grounding})
	monitor.AfterGeneration(gen)
	return gen.Answer
}
