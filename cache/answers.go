package cache

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-crypt/x/blake2b"
	"github.com/poiesic/specter/core"
)

// AnswerPrefix namespaces answer entries inside a Client.
const AnswerPrefix = "answer:"

// DefaultTTL is used when an AnswerCache is created without a TTL.
const DefaultTTL = 30 * time.Minute

// ErrClientRequired is returned when an AnswerCache is built without a Client.
var ErrClientRequired = errors.New("cache client required")

type cachedAnswer struct {
	Answer          string   `json:"answer"`
	Confidence      *float64 `json:"confidence"`
	Sources         []string `json:"sources"`
	MatchedQuestion string   `json:"matched_question,omitempty"`
	Origin          string   `json:"origin"`
	CachedAt        int64    `json:"cached_at"`
}

// AnswerCache stores composed answers keyed by the expanded question text,
// target language and output format.
type AnswerCache struct {
	client Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewAnswerCache wraps client. A non-positive ttl selects DefaultTTL.
func NewAnswerCache(client Client, ttl time.Duration, logger *slog.Logger) (*AnswerCache, error) {
	if client == nil {
		return nil, ErrClientRequired
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AnswerCache{
		client: client,
		ttl:    ttl,
		logger: logger.With("component", "answer-cache"),
	}, nil
}

// Key derives the cache key for q.
func Key(q core.Query, structured bool) string {
	h, _ := blake2b.New(16, nil)
	h.Write([]byte(q.ExpandedText))
	h.Write([]byte{0})
	h.Write([]byte(q.TargetLanguage))
	if structured {
		h.Write([]byte{0, 1})
	}
	return AnswerPrefix + hex.EncodeToString(h.Sum(nil))
}

// Get returns the cached answer for q. Any failure is reported as a miss.
func (c *AnswerCache) Get(ctx context.Context, q core.Query, structured bool) (core.AnswerResult, bool) {
	key := Key(q, structured)
	data, err := c.client.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			c.logger.Warn("cache get failed", "key", key, "err", err)
		}
		return core.AnswerResult{}, false
	}

	var cached cachedAnswer
	if err := json.Unmarshal(data, &cached); err != nil {
		c.logger.Warn("discarding unreadable cache entry", "key", key, "err", err)
		return core.AnswerResult{}, false
	}
	sources := cached.Sources
	if sources == nil {
		sources = []string{}
	}
	return core.AnswerResult{
		Answer:          cached.Answer,
		Confidence:      cached.Confidence,
		Sources:         sources,
		MatchedQuestion: cached.MatchedQuestion,
		Origin:          core.OriginCache,
	}, true
}

// Put stores r for q. Only authoritative answers are stored; errors are
// logged and returned for callers that care.
func (c *AnswerCache) Put(ctx context.Context, q core.Query, structured bool, r core.AnswerResult) error {
	if !r.Authoritative() {
		return nil
	}
	data, err := json.Marshal(cachedAnswer{
		Answer:          r.Answer,
		Confidence:      r.Confidence,
		Sources:         r.Sources,
		MatchedQuestion: r.MatchedQuestion,
		Origin:          r.Origin.String(),
		CachedAt:        time.Now().Unix(),
	})
	if err != nil {
		return fmt.Errorf("marshal cached answer: %w", err)
	}
	key := Key(q, structured)
	if err := c.client.Set(ctx, key, data, c.ttl); err != nil {
		c.logger.Warn("cache set failed", "key", key, "err", err)
		return err
	}
	return nil
}

// Invalidate drops every cached answer.
func (c *AnswerCache) Invalidate(ctx context.Context) error {
	return c.client.DeleteByPrefix(ctx, AnswerPrefix)
}

// Close closes the underlying client.
func (c *AnswerCache) Close() error {
	return c.client.Close()
}
