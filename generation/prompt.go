package generation

import (
	"fmt"
	"strings"

	"github.com/poiesic/specter/ai"
	"github.com/poiesic/specter/core"
)

// SystemPrompt instructs every generator.
const SystemPrompt = "You are a helpful legal assistant. Use the provided law text to answer clearly and cite relevant sections."

const noContext = "No matching material was found in the legal database."

// BuildPrompt assembles the prompt for req. Retrieved hits, even ones the
// confidence gate rejected, are attached as grounding context.
func BuildPrompt(req Request, temperature float64) ai.Prompt {
	chunks := make([]string, 0, len(req.Context))
	for _, hit := range req.Context {
		text := hit.Answer()
		if q := hit.Metadata[core.MetaQuestion]; q != "" && q != text {
			text = q + "\n" + text
		}
		chunks = append(chunks, text)
	}
	material := noContext
	if len(chunks) > 0 {
		material = strings.Join(chunks, "\n---\n")
	}
	return ai.Prompt{
		System:      SystemPrompt,
		User:        fmt.Sprintf("Context:\n%s\n\nQuestion: %s\nAnswer:", material, req.Question),
		Temperature: temperature,
	}
}
