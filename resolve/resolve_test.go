package resolve

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/poiesic/specter/ai"
	"github.com/poiesic/specter/ai/mock"
	"github.com/poiesic/specter/ai/template"
	"github.com/poiesic/specter/cache"
	"github.com/poiesic/specter/compose"
	"github.com/poiesic/specter/core"
	"github.com/poiesic/specter/generation"
	"github.com/poiesic/specter/knowledge"
	"github.com/poiesic/specter/retrieval"
	"github.com/poiesic/specter/storage"
	"github.com/poiesic/specter/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	resolver   *Resolver
	generator  *mock.MockGenerator
	translator *mock.MockTranslator
	embedder   *mock.MockEmbedder
}

// queryVector is what every question embeds to. Stored records are placed
// at a chosen cosine distance from it.
var queryVector = []float32{1, 0}

func atDistance(d float64) []float32 {
	cos := 1 - d
	return []float32{float32(cos), float32(math.Sqrt(1 - cos*cos))}
}

func builtinMatcher(t *testing.T) *knowledge.Matcher {
	t.Helper()
	base, err := knowledge.Builtin()
	require.NoError(t, err)
	m, err := knowledge.NewMatcher(base)
	require.NoError(t, err)
	return m
}

func newFixture(t *testing.T, matcher *knowledge.Matcher, distance float64, opts ...Option) *fixture {
	t.Helper()
	ctx := context.Background()

	index, err := badger.NewMemoryIndex()
	require.NoError(t, err)
	t.Cleanup(func() { index.Close() })
	require.NoError(t, index.Upsert(ctx, &core.EmbeddingRecord{
		Vector:     atDistance(distance),
		SourceText: "What is Zoning?",
		Metadata: map[string]string{
			core.MetaQuestion: "What is Zoning?",
			core.MetaAnswer:   "Zoning rules are set by the municipal corporation.",
			core.MetaCategory: "Comprehensive Legal Database",
		},
	}))

	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(context.Context, string) ([]float32, error) {
		return queryVector, nil
	}
	retriever, err := retrieval.NewRetriever(embedder, retrieval.NewReadyHandle(index))
	require.NoError(t, err)

	gen := mock.NewMockGenerator("openai")
	gen.GenerateFunc = func(context.Context, ai.Prompt) (string, error) {
		return "generated answer", nil
	}
	chain, err := generation.NewChain([]ai.Generator{gen})
	require.NoError(t, err)

	translator := mock.NewMockTranslator()
	composer, err := compose.NewComposer(compose.WithTranslator(translator))
	require.NoError(t, err)

	all := append([]Option{WithRetriever(retriever), WithComposer(composer)}, opts...)
	r, err := NewResolver(matcher, chain, all...)
	require.NoError(t, err)

	return &fixture{resolver: r, generator: gen, translator: translator, embedder: embedder}
}

func smallMatcher(t *testing.T) *knowledge.Matcher {
	t.Helper()
	base, err := knowledge.NewBase(
		[]core.KnowledgeEntry{{Key: "bail", Answer: "bail answer", Category: core.CategoryCriminal}},
		nil,
		[]knowledge.Mapping{{Text: "bail", Key: "bail"}},
	)
	require.NoError(t, err)
	m, err := knowledge.NewMatcher(base)
	require.NoError(t, err)
	return m
}

func TestResolve_EmptyMessage(t *testing.T) {
	f := newFixture(t, smallMatcher(t), 0)
	for _, msg := range []string{"", "   ", "\n\t"} {
		_, err := f.resolver.Resolve(context.Background(), msg, Options{})
		assert.ErrorIs(t, err, core.ErrEmptyQuestion)
	}
	assert.Equal(t, 0, f.embedder.CallCount())
}

func TestResolve_KnowledgeBase(t *testing.T) {
	f := newFixture(t, builtinMatcher(t), 0)
	ctx := context.Background()

	t.Run("exact phrase", func(t *testing.T) {
		res, err := f.resolver.Resolve(ctx, "How to file FIR?", Options{})
		require.NoError(t, err)
		assert.Contains(t, res.Answer, "FIR (First Information Report) filing procedure")
		assert.Equal(t, []string{"Legal Database"}, res.Sources)
		assert.Equal(t, 1.0, *res.Confidence)
		assert.Equal(t, core.OriginKnowledgeBase, res.Origin)
	})

	t.Run("abbreviation", func(t *testing.T) {
		res, err := f.resolver.Resolve(ctx, "What is DL?", Options{})
		require.NoError(t, err)
		assert.Contains(t, res.Answer, "Driving license application requires")
		assert.Equal(t, "driving license", res.MatchedQuestion)
	})

	t.Run("translated", func(t *testing.T) {
		res, err := f.resolver.Resolve(ctx, "Respond in Hindi. What is bail?", Options{})
		require.NoError(t, err)
		assert.Contains(t, res.Answer, "[Hindi] Bail is the temporary release")
		assert.Equal(t, 1, f.translator.CallCount())
	})

	assert.Equal(t, 0, f.embedder.CallCount())
	assert.Equal(t, 0, f.generator.CallCount())
}

func TestResolve_VectorAccepted(t *testing.T) {
	f := newFixture(t, smallMatcher(t), 0.1)

	res, err := f.resolver.Resolve(context.Background(), "zoning regulations near my plot", Options{})
	require.NoError(t, err)
	assert.Equal(t, "Zoning rules are set by the municipal corporation.", res.Answer)
	assert.InDelta(t, 0.95, *res.Confidence, 1e-4)
	assert.Equal(t, []string{"Comprehensive Legal Database"}, res.Sources)
	assert.Equal(t, core.OriginVector, res.Origin)
	assert.Equal(t, 0, f.generator.CallCount())
}

func TestResolve_BelowThresholdGenerates(t *testing.T) {
	f := newFixture(t, smallMatcher(t), 0.9)

	res, err := f.resolver.Resolve(context.Background(), "zoning regulations near my plot", Options{})
	require.NoError(t, err)
	assert.Equal(t, "generated answer", res.Answer)
	assert.Nil(t, res.Confidence)
	assert.Equal(t, []string{"Generated: openai"}, res.Sources)

	require.Equal(t, 1, f.generator.CallCount())
	prompt := f.generator.Prompts()[0]
	assert.Contains(t, prompt.User, "What is Zoning?")
	assert.Contains(t, prompt.User, "Question: zoning regulations near my plot")
}

func TestResolve_AllProvidersFail(t *testing.T) {
	f := newFixture(t, smallMatcher(t), 0.9)
	f.generator.GenerateFunc = func(context.Context, ai.Prompt) (string, error) {
		return "", errors.New("503 service unavailable")
	}

	res, err := f.resolver.Resolve(context.Background(), "zoning regulations near my plot", Options{Structured: true})
	require.NoError(t, err)
	assert.Contains(t, res.Answer, "Answer: "+compose.FallbackAnswer)
	assert.Equal(t, []string{"Generated: template"}, res.Sources)
	assert.Equal(t, core.OriginTemplate, res.Origin)
}

func TestResolve_UnavailableIndex(t *testing.T) {
	matcher := smallMatcher(t)
	handle := retrieval.NewHandle(func(context.Context) (storage.VectorIndex, error) {
		return nil, errors.New("disk full")
	}, nil)
	retriever, err := retrieval.NewRetriever(mock.NewMockEmbedder(), handle)
	require.NoError(t, err)
	chain, err := generation.NewChain(nil)
	require.NoError(t, err)

	r, err := NewResolver(matcher, chain, WithRetriever(retriever))
	require.NoError(t, err)

	res, err := r.Resolve(context.Background(), "zoning regulations", Options{})
	require.NoError(t, err)
	assert.Equal(t, template.NoInformationAnswer, res.Answer)
}

func TestResolve_Cache(t *testing.T) {
	client := cache.NewMemoryClient(10)
	ac, err := cache.NewAnswerCache(client, time.Minute, nil)
	require.NoError(t, err)
	defer ac.Close()

	f := newFixture(t, smallMatcher(t), 0.1, WithCache(ac))
	ctx := context.Background()

	first, err := f.resolver.Resolve(ctx, "zoning regulations near my plot", Options{})
	require.NoError(t, err)
	assert.Equal(t, core.OriginVector, first.Origin)
	assert.Equal(t, 1, f.embedder.CallCount())

	second, err := f.resolver.Resolve(ctx, "Zoning   regulations near my PLOT", Options{})
	require.NoError(t, err)
	assert.Equal(t, core.OriginCache, second.Origin)
	assert.Equal(t, first.Answer, second.Answer)
	assert.Equal(t, 1, f.embedder.CallCount())

	t.Run("generated answers are not cached", func(t *testing.T) {
		g := newFixture(t, smallMatcher(t), 0.9, WithCache(ac))
		_, err := g.resolver.Resolve(ctx, "an unrelated question", Options{})
		require.NoError(t, err)
		_, err = g.resolver.Resolve(ctx, "an unrelated question", Options{})
		require.NoError(t, err)
		assert.Equal(t, 2, g.generator.CallCount())
	})
}

func TestResolve_FailedTranslationIsNotCached(t *testing.T) {
	client := cache.NewMemoryClient(10)
	ac, err := cache.NewAnswerCache(client, time.Minute, nil)
	require.NoError(t, err)
	defer ac.Close()

	f := newFixture(t, smallMatcher(t), 0.9, WithCache(ac))
	ctx := context.Background()
	f.translator.TranslateFunc = func(context.Context, string, string) (string, error) {
		return "", errors.New("translator down")
	}

	first, err := f.resolver.Resolve(ctx, "Respond in Hindi. What is bail?", Options{})
	require.NoError(t, err)
	assert.Equal(t, core.OriginKnowledgeBase, first.Origin)
	assert.Equal(t, "bail answer", first.Answer)

	f.translator.TranslateFunc = nil
	second, err := f.resolver.Resolve(ctx, "Respond in Hindi. What is bail?", Options{})
	require.NoError(t, err)
	assert.Equal(t, core.OriginKnowledgeBase, second.Origin)
	assert.Equal(t, "[Hindi] bail answer", second.Answer)
	assert.Equal(t, 2, f.translator.CallCount())

	third, err := f.resolver.Resolve(ctx, "Respond in Hindi. What is bail?", Options{})
	require.NoError(t, err)
	assert.Equal(t, core.OriginCache, third.Origin)
	assert.Equal(t, "[Hindi] bail answer", third.Answer)
}

type recordingMonitor struct {
	noopMonitor
	events []string
}

func (m *recordingMonitor) Start(core.Query)                        { m.events = append(m.events, "start") }
func (m *recordingMonitor) KnowledgeMatch(knowledge.Match)          { m.events = append(m.events, "knowledge") }
func (m *recordingMonitor) AfterRetrieval([]core.RetrievalHit)      { m.events = append(m.events, "retrieval") }
func (m *recordingMonitor) GateDecision(retrieval.Decision)         { m.events = append(m.events, "gate") }
func (m *recordingMonitor) AfterGeneration(generation.Result)       { m.events = append(m.events, "generation") }
func (m *recordingMonitor) Finish(core.AnswerResult, time.Duration) { m.events = append(m.events, "finish") }

func TestResolveWithMonitor(t *testing.T) {
	ctx := context.Background()

	t.Run("generation path", func(t *testing.T) {
		f := newFixture(t, smallMatcher(t), 0.9)
		m := &recordingMonitor{}
		_, err := f.resolver.ResolveWithMonitor(ctx, "zoning", Options{}, m)
		require.NoError(t, err)
		assert.Equal(t, []string{"start", "retrieval", "gate", "generation", "finish"}, m.events)
	})

	t.Run("knowledge path", func(t *testing.T) {
		f := newFixture(t, smallMatcher(t), 0.9)
		m := &recordingMonitor{}
		_, err := f.resolver.ResolveWithMonitor(ctx, "bail please", Options{}, m)
		require.NoError(t, err)
		assert.Equal(t, []string{"start", "knowledge", "finish"}, m.events)
	})

	t.Run("log monitor", func(t *testing.T) {
		f := newFixture(t, smallMatcher(t), 0.9)
		_, err := f.resolver.ResolveWithMonitor(ctx, "zoning", Options{}, NewLogMonitor(nil))
		require.NoError(t, err)
	})
}

func TestNewResolver_Validation(t *testing.T) {
	chain, err := generation.NewChain(nil)
	require.NoError(t, err)

	_, err = NewResolver(nil, chain)
	assert.ErrorIs(t, err, ErrMatcherRequired)

	_, err = NewResolver(smallMatcher(t), nil)
	assert.ErrorIs(t, err, ErrChainRequired)

	_, err = NewResolver(smallMatcher(t), chain, WithComposer(nil))
	assert.ErrorIs(t, err, ErrComposerRequired)
}
