// Package template provides the last generator of the fallback chain.
// It builds answers from fixed text and whatever retrieval context is
// available, needs no network and never fails.
package template

import (
	"context"
	"fmt"

	"github.com/poiesic/specter/ai"
	"github.com/poiesic/specter/core"
)

// NoInformationAnswer is returned when there is no grounding context at all.
const NoInformationAnswer = "I don't have specific information about that topic. " +
	"Please try asking about: bail, divorce, FIR filing, driving license, property law, " +
	"employment rights, or other Indian legal topics."

// Generator is the deterministic template generator.
type Generator struct{}

var _ ai.Generator = (*Generator)(nil)

// New returns a template generator.
func New() *Generator {
	return &Generator{}
}

// Name returns "template".
func (g *Generator) Name() string {
	return ai.ProviderTemplate
}

// Generate ignores the prompt text and returns the no-information answer.
// The error is always nil.
func (g *Generator) Generate(ctx context.Context, prompt ai.Prompt) (string, error) {
	return g.Answer(nil), nil
}

// Answer builds a response from retrieval hits that did not clear the
// confidence gate. Hits are expected nearest first.
func (g *Generator) Answer(hits []core.RetrievalHit) string {
	if len(hits) == 0 {
		return NoInformationAnswer
	}
	best := hits[0]
	answer := fmt.Sprintf("I couldn't find an exact answer (confidence: %.1f%%). "+
		"Please try rephrasing your question or ask about specific Indian legal topics.",
		best.Similarity*100)
	if q := best.Metadata[core.MetaQuestion]; q != "" {
		answer += fmt.Sprintf("\n\nThe closest topic in the legal database is: %q.", q)
	}
	return answer
}
