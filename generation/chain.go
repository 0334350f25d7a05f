// Package generation runs the ordered chain of answer generators used when
// neither the knowledge base nor the vector index has a confident answer.
//
// Each generator gets its own timeout. Errors, timeouts and empty answers
// are logged and the chain moves on; when every generator fails, the
// deterministic template generator answers. Generate never fails.
package generation

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/poiesic/specter/ai"
	"github.com/poiesic/specter/ai/template"
	"github.com/poiesic/specter/core"
)

// DefaultAttemptTimeout bounds each generator call.
const DefaultAttemptTimeout = 90 * time.Second

// Request is the input to the chain.
type Request struct {
	Question string
	Context  []core.RetrievalHit
}

// Outcome is the result of one attempt.
type Outcome int

const (
	OutcomeSucceeded Outcome = iota
	OutcomeFailed
)

func (o Outcome) String() string {
	if o == OutcomeSucceeded {
		return "succeeded"
	}
	return "failed"
}

// Attempt records one generator call.
type Attempt struct {
	Provider string
	Outcome  Outcome
	Kind     ai.ErrorKind
	Err      error
	Duration time.Duration
}

// Result is the chain's answer together with the attempts that produced it.
type Result struct {
	Answer   core.AnswerResult
	Attempts []Attempt
}

// Chain tries generators in a fixed order and falls back to a template.
type Chain struct {
	generators  []ai.Generator
	template    *template.Generator
	timeout     time.Duration
	temperature float64
	logger      *slog.Logger
}

// Option configures a Chain.
type Option func(*Chain) error

// WithAttemptTimeout sets the per-generator timeout.
func WithAttemptTimeout(d time.Duration) Option {
	return func(c *Chain) error {
		if d <= 0 {
			return errors.New("attempt timeout must be positive")
		}
		c.timeout = d
		return nil
	}
}

// WithTemperature sets the prompt temperature. Zero leaves each generator's default.
func WithTemperature(t float64) Option {
	return func(c *Chain) error {
		c.temperature = t
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Chain) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger.With("component", "generation-chain")
		return nil
	}
}

// NewChain creates a chain over generators in the given order. Nil entries
// are dropped. The template generator is always appended last.
func NewChain(generators []ai.Generator, opts ...Option) (*Chain, error) {
	c := &Chain{
		template: template.New(),
		timeout:  DefaultAttemptTimeout,
		logger:   slog.Default().With("component", "generation-chain"),
	}
	for _, g := range generators {
		if g != nil {
			c.generators = append(c.generators, g)
		}
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Providers returns the generator names in chain order, template included.
func (c *Chain) Providers() []string {
	names := make([]string, 0, len(c.generators)+1)
	for _, g := range c.generators {
		names = append(names, g.Name())
	}
	return append(names, c.template.Name())
}

// Generate returns the first non-empty answer in chain order.
func (c *Chain) Generate(ctx context.Context, req Request) Result {
	prompt := BuildPrompt(req, c.temperature)
	var attempts []Attempt

	for _, g := range c.generators {
		answer, attempt := c.attempt(ctx, g, prompt)
		attempts = append(attempts, attempt)
		if attempt.Outcome == OutcomeSucceeded {
			return Result{
				Answer: core.AnswerResult{
					Answer:  answer,
					Sources: []string{core.GeneratedSource(g.Name())},
					Origin:  core.OriginGenerated,
				},
				Attempts: attempts,
			}
		}
		c.logger.Warn("generator failed, trying next",
			"provider", attempt.Provider,
			"kind", attempt.Kind.String(),
			"duration", attempt.Duration,
			"err", attempt.Err)
	}

	attempts = append(attempts, Attempt{Provider: c.template.Name(), Outcome: OutcomeSucceeded})
	if len(c.generators) > 0 {
		c.logger.Warn("all generators failed, using template answer", "attempts", len(attempts)-1)
	}
	return Result{
		Answer: core.AnswerResult{
			Answer:  c.template.Answer(req.Context),
			Sources: []string{core.GeneratedSource(c.template.Name())},
			Origin:  core.OriginTemplate,
		},
		Attempts: attempts,
	}
}

func (c *Chain) attempt(ctx context.Context, g ai.Generator, prompt ai.Prompt) (answer string, attempt Attempt) {
	attempt.Provider = g.Name()
	start := time.Now()

	defer func() {
		// contain generator panics
		if r := recover(); r != nil {
			answer = ""
			attempt.Outcome = OutcomeFailed
			attempt.Kind = ai.KindUpstream
			attempt.Err = errors.New("generator panicked")
			attempt.Duration = time.Since(start)
		}
	}()

	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	answer, err := g.Generate(attemptCtx, prompt)
	attempt.Duration = time.Since(start)
	if err == nil && answer == "" {
		err = ai.ErrEmptyResponse
	}
	if err != nil {
		attempt.Outcome = OutcomeFailed
		attempt.Kind = ai.Classify(err)
		attempt.Err = err
		return "", attempt
	}
	attempt.Outcome = OutcomeSucceeded
	return answer, attempt
}
