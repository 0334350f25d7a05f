package cache

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/poiesic/specter/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestMemoryClient(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryClient(2)
	defer c.Close()

	_, err := c.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, c.Set(ctx, "a", []byte("1"), time.Minute))
	got, err := c.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), got)

	t.Run("evicts closest to expiry when full", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, "b", []byte("2"), time.Hour))
		require.NoError(t, c.Set(ctx, "c", []byte("3"), time.Hour))
		assert.Equal(t, 2, c.Len())
		_, err := c.Get(ctx, "a")
		assert.ErrorIs(t, err, ErrCacheMiss)
	})

	t.Run("expiry", func(t *testing.T) {
		now := time.Now()
		c.now = func() time.Time { return now }
		require.NoError(t, c.Set(ctx, "b", []byte("2"), time.Second))
		c.now = func() time.Time { return now.Add(2 * time.Second) }
		_, err := c.Get(ctx, "b")
		assert.ErrorIs(t, err, ErrCacheMiss)

		c.sweep()
		assert.Equal(t, 1, c.Len())
		c.now = time.Now
	})

	t.Run("delete by prefix", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, "x:1", []byte("1"), time.Hour))
		require.NoError(t, c.DeleteByPrefix(ctx, "x:"))
		_, err := c.Get(ctx, "x:1")
		assert.ErrorIs(t, err, ErrCacheMiss)
	})

	assert.NoError(t, c.Close())
	assert.NoError(t, c.Close())
}

func TestKey(t *testing.T) {
	q := core.Query{ExpandedText: "what is driving license"}
	base := Key(q, false)

	assert.Equal(t, base, Key(q, false))
	assert.NotEqual(t, base, Key(q, true))
	assert.NotEqual(t, base, Key(core.Query{ExpandedText: q.ExpandedText, TargetLanguage: "Hindi"}, false))
	assert.Contains(t, base, AnswerPrefix)
}

func TestAnswerCache(t *testing.T) {
	ctx := context.Background()
	client := NewMemoryClient(0)
	ac, err := NewAnswerCache(client, 0, nil)
	require.NoError(t, err)
	defer ac.Close()

	q := core.Query{ExpandedText: "what is bail"}
	kb := core.AnswerResult{
		Answer:          "Bail is release.",
		Confidence:      core.Confidence(1),
		Sources:         []string{core.DefaultSource},
		MatchedQuestion: "bail",
		Origin:          core.OriginKnowledgeBase,
	}

	_, ok := ac.Get(ctx, q, false)
	assert.False(t, ok)

	require.NoError(t, ac.Put(ctx, q, false, kb))
	got, ok := ac.Get(ctx, q, false)
	require.True(t, ok)
	assert.Equal(t, kb.Answer, got.Answer)
	assert.Equal(t, 1.0, *got.Confidence)
	assert.Equal(t, kb.Sources, got.Sources)
	assert.Equal(t, "bail", got.MatchedQuestion)
	assert.Equal(t, core.OriginCache, got.Origin)

	t.Run("generated answers are not stored", func(t *testing.T) {
		other := core.Query{ExpandedText: "something new"}
		require.NoError(t, ac.Put(ctx, other, false, core.AnswerResult{Answer: "llm", Origin: core.OriginGenerated}))
		_, ok := ac.Get(ctx, other, false)
		assert.False(t, ok)
	})

	t.Run("corrupt entries are misses", func(t *testing.T) {
		bad := core.Query{ExpandedText: "corrupt"}
		require.NoError(t, client.Set(ctx, Key(bad, false), []byte("{not json"), time.Minute))
		_, ok := ac.Get(ctx, bad, false)
		assert.False(t, ok)
	})

	t.Run("invalidate", func(t *testing.T) {
		require.NoError(t, ac.Invalidate(ctx))
		_, ok := ac.Get(ctx, q, false)
		assert.False(t, ok)
	})

	_, err = NewAnswerCache(nil, 0, nil)
	assert.ErrorIs(t, err, ErrClientRequired)
}

type failingClient struct{ Client }

func (failingClient) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("connection reset")
}

func (failingClient) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("connection reset")
}

func TestAnswerCache_BackendFailure(t *testing.T) {
	ac, err := NewAnswerCache(failingClient{}, time.Minute, nil)
	require.NoError(t, err)

	q := core.Query{ExpandedText: "q"}
	_, ok := ac.Get(context.Background(), q, false)
	assert.False(t, ok)
	assert.Error(t, ac.Put(context.Background(), q, false, core.AnswerResult{Answer: "a", Origin: core.OriginVector}))
}

func TestRedisClient(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ctx := context.Background()

	container, err := tcredis.Run(ctx,
		"redis:7.4-alpine",
		testcontainers.WithWaitStrategy(
			wait.ForLog("Ready to accept connections").
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate redis container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	client, err := NewRedisClient(RedisConfig{Addr: fmt.Sprintf("%s:%s", host, port.Port())})
	require.NoError(t, err)
	defer client.Close()

	_, err = client.Get(ctx, "nope")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, client.Set(ctx, "answer:1", []byte("v"), time.Minute))
	got, err := client.Get(ctx, "answer:1")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	require.NoError(t, client.DeleteByPrefix(ctx, "answer:"))
	_, err = client.Get(ctx, "answer:1")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, client.Set(ctx, "k", []byte("v"), time.Minute))
	require.NoError(t, client.Delete(ctx, "k"))
	_, err = client.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)
}
