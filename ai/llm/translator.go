package llm

import (
	"context"
	"fmt"

	"github.com/poiesic/specter/ai"
)

// maxTranslateRunes bounds the text sent for translation.
const maxTranslateRunes = 8000

const translatorSystemPrompt = `You are an expert legal translator. Translate the text you are given into %s.
Maintain strict legal accuracy. Preserve Latin terms or specific legal terminology where appropriate, or provide the standard equivalent in the target language.
Do not summarize; translate the full meaning while maintaining legal precision.
Reply with the translation only.`

// Translator implements ai.Translator with a chat model.
type Translator struct {
	generator ai.Generator
}

var _ ai.Translator = (*Translator)(nil)

// NewTranslator creates a translator that prompts generator.
func NewTranslator(generator ai.Generator) (*Translator, error) {
	if generator == nil {
		return nil, ErrModelRequired
	}
	return &Translator{generator: generator}, nil
}

// Translate renders text into language.
func (t *Translator) Translate(ctx context.Context, text, language string) (string, error) {
	return t.generator.Generate(ctx, ai.Prompt{
		System:      fmt.Sprintf(translatorSystemPrompt, language),
		User:        fmt.Sprintf("Translate this legal text to %s:\n\n%s", language, truncateRunes(text, maxTranslateRunes)),
		Temperature: 0.1,
	})
}
