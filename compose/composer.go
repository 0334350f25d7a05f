package compose

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/poiesic/specter/ai"
	"github.com/poiesic/specter/core"
)

// DefaultTranslateTimeout bounds a single translation call.
const DefaultTranslateTimeout = 30 * time.Second

// Options control how a single answer is composed.
type Options struct {
	Structured bool
}

// Composer shapes answers for the caller.
type Composer struct {
	translator ai.Translator
	timeout    time.Duration
	logger     *slog.Logger
}

// Option configures a Composer.
type Option func(*Composer) error

// WithTranslator sets the translator. Without one, translation requests are
// answered in English.
func WithTranslator(t ai.Translator) Option {
	return func(c *Composer) error {
		c.translator = t
		return nil
	}
}

// WithTranslateTimeout sets the translation timeout.
func WithTranslateTimeout(d time.Duration) Option {
	return func(c *Composer) error {
		if d <= 0 {
			return errors.New("translate timeout must be positive")
		}
		c.timeout = d
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Composer) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger.With("component", "composer")
		return nil
	}
}

// NewComposer creates a Composer.
func NewComposer(opts ...Option) (*Composer, error) {
	c := &Composer{
		timeout: DefaultTranslateTimeout,
		logger:  slog.Default().With("component", "composer"),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Compose returns r shaped for q. Sources are never nil and confidence is
// passed through unchanged. The bool is false when a requested translation
// could not be applied and the answer was left in English.
func (c *Composer) Compose(ctx context.Context, q core.Query, r core.AnswerResult, opts Options) (core.AnswerResult, bool) {
	out := r
	out.Sources = append([]string{}, r.Sources...)

	if opts.Structured {
		out.Answer = FormatStructured(Structure(r))
	}
	complete := true
	if q.WantsTranslation() {
		out.Answer, complete = c.translate(ctx, q, out.Answer)
	}
	return out, complete
}

func (c *Composer) translate(ctx context.Context, q core.Query, text string) (string, bool) {
	if c.translator == nil {
		c.logger.Warn("translation requested but no translator configured",
			"query_id", q.ID, "language", q.TargetLanguage)
		return text, false
	}

	tctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	translated, err := c.translator.Translate(tctx, text, q.TargetLanguage)
	if err != nil {
		c.logger.Warn("translation failed, returning original answer",
			"query_id", q.ID,
			"language", q.TargetLanguage,
			"kind", ai.Classify(err).String(),
			"err", err)
		return text, false
	}
	if strings.TrimSpace(translated) == "" {
		c.logger.Warn("translator returned empty text", "query_id", q.ID, "language", q.TargetLanguage)
		return text, false
	}
	c.logger.Debug("answer translated", "query_id", q.ID, "language", q.TargetLanguage, "duration", time.Since(start))
	return translated, true
}
