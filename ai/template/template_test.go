package template

import (
	"context"
	"testing"

	"github.com/poiesic/specter/ai"
	"github.com/poiesic/specter/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerator_NoContext(t *testing.T) {
	g := New()
	assert.Equal(t, "template", g.Name())

	out, err := g.Generate(context.Background(), ai.Prompt{User: "anything"})
	require.NoError(t, err)
	assert.Equal(t, NoInformationAnswer, out)
	assert.Equal(t, NoInformationAnswer, g.Answer(nil))
}

func TestGenerator_WithRejectedHits(t *testing.T) {
	g := New()
	hits := []core.RetrievalHit{
		{Similarity: 0.55, Metadata: map[string]string{core.MetaQuestion: "What is Bail?"}},
		{Similarity: 0.40},
	}

	out := g.Answer(hits)
	assert.Contains(t, out, "confidence: 55.0%")
	assert.Contains(t, out, `"What is Bail?"`)

	assert.Equal(t, out, g.Answer(hits), "output is deterministic")
}

func TestGenerator_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, err := New().Generate(ctx, ai.Prompt{})
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}
