package generation

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/poiesic/specter/ai"
	"github.com/poiesic/specter/ai/mock"
	"github.com/poiesic/specter/ai/template"
	"github.com/poiesic/specter/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChain_SecondProviderSucceeds(t *testing.T) {
	first := mock.NewFailingGenerator("openai", errors.New("upstream 500"))
	second := mock.NewMockGenerator("ollama")
	second.GenerateFunc = func(ctx context.Context, p ai.Prompt) (string, error) {
		return "local answer", nil
	}
	third := mock.NewMockGenerator("anthropic")

	chain, err := NewChain([]ai.Generator{first, second, third})
	require.NoError(t, err)

	res := chain.Generate(context.Background(), Request{Question: "what is bail"})
	assert.Equal(t, "local answer", res.Answer.Answer)
	assert.Equal(t, []string{"Generated: ollama"}, res.Answer.Sources)
	assert.Nil(t, res.Answer.Confidence)
	assert.Equal(t, core.OriginGenerated, res.Answer.Origin)

	assert.Equal(t, 1, first.CallCount())
	assert.Equal(t, 1, second.CallCount())
	assert.Equal(t, 0, third.CallCount())

	require.Len(t, res.Attempts, 2)
	assert.Equal(t, OutcomeFailed, res.Attempts[0].Outcome)
	assert.Equal(t, ai.KindUpstream, res.Attempts[0].Kind)
	assert.Equal(t, OutcomeSucceeded, res.Attempts[1].Outcome)
}

func TestChain_AllFailUsesTemplate(t *testing.T) {
	hung := mock.NewMockGenerator("openai")
	hung.GenerateFunc = func(ctx context.Context, p ai.Prompt) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}
	empty := mock.NewMockGenerator("ollama")
	empty.GenerateFunc = func(context.Context, ai.Prompt) (string, error) { return "", nil }
	panicky := mock.NewMockGenerator("anthropic")
	panicky.GenerateFunc = func(context.Context, ai.Prompt) (string, error) { panic("boom") }

	chain, err := NewChain([]ai.Generator{hung, empty, panicky}, WithAttemptTimeout(20*time.Millisecond))
	require.NoError(t, err)

	res := chain.Generate(context.Background(), Request{Question: "something obscure"})
	assert.Equal(t, template.NoInformationAnswer, res.Answer.Answer)
	assert.Equal(t, []string{"Generated: template"}, res.Answer.Sources)
	assert.Equal(t, core.OriginTemplate, res.Answer.Origin)
	assert.Nil(t, res.Answer.Confidence)

	require.Len(t, res.Attempts, 4)
	assert.Equal(t, ai.KindTimeout, res.Attempts[0].Kind)
	assert.Equal(t, ai.KindInvalidResponse, res.Attempts[1].Kind)
	assert.Equal(t, ai.KindUpstream, res.Attempts[2].Kind)
	assert.Equal(t, "template", res.Attempts[3].Provider)
}

func TestChain_TemplateUsesRejectedContext(t *testing.T) {
	chain, err := NewChain(nil)
	require.NoError(t, err)

	res := chain.Generate(context.Background(), Request{
		Question: "q",
		Context: []core.RetrievalHit{{
			Similarity: 0.55,
			Metadata:   map[string]string{core.MetaQuestion: "What is Bail?"},
		}},
	})
	assert.Contains(t, res.Answer.Answer, "confidence: 55.0%")
	assert.Len(t, res.Attempts, 1)
}

func TestChain_CancelledRequestStillAnswers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	gen := mock.NewMockGenerator("openai")
	gen.GenerateFunc = func(ctx context.Context, p ai.Prompt) (string, error) {
		return "", ctx.Err()
	}
	chain, err := NewChain([]ai.Generator{gen})
	require.NoError(t, err)

	res := chain.Generate(ctx, Request{Question: "q"})
	assert.NotEmpty(t, res.Answer.Answer)
	assert.Equal(t, core.OriginTemplate, res.Answer.Origin)
}

func TestChain_Options(t *testing.T) {
	_, err := NewChain(nil, WithAttemptTimeout(0))
	assert.Error(t, err)

	gen := mock.NewMockGenerator("openai")
	chain, err := NewChain([]ai.Generator{nil, gen}, WithTemperature(0.2), WithLogger(nil))
	require.NoError(t, err)
	assert.Equal(t, []string{"openai", "template"}, chain.Providers())

	chain.Generate(context.Background(), Request{Question: "q"})
	require.Len(t, gen.Prompts(), 1)
	assert.Equal(t, 0.2, gen.Prompts()[0].Temperature)
}

func TestBuildPrompt(t *testing.T) {
	p := BuildPrompt(Request{
		Question: "how long does bail take",
		Context: []core.RetrievalHit{
			{SourceText: "What is Bail?", Metadata: map[string]string{core.MetaQuestion: "What is Bail?", core.MetaAnswer: "Bail is release."}},
			{SourceText: "raw law text"},
		},
	}, 0)

	assert.Equal(t, SystemPrompt, p.System)
	assert.True(t, strings.HasPrefix(p.User, "Context:\nWhat is Bail?\nBail is release.\n---\nraw law text\n\n"))
	assert.True(t, strings.HasSuffix(p.User, "Question: how long does bail take\nAnswer:"))

	empty := BuildPrompt(Request{Question: "q"}, 0)
	assert.Contains(t, empty.User, noContext)
}
