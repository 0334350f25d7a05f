package compose

import (
	"regexp"
	"strings"

	"github.com/poiesic/specter/core"
)

// Fallback structure used when no answer could be grounded.
const (
	FallbackAnswer      = "I couldn't find specific information about your query."
	FallbackExplanation = "Please try rephrasing your question or provide more details."
)

var (
	// FallbackSteps are suggested when the template generator answered.
	FallbackSteps = []string{
		"Be more specific about your legal issue",
		"Include relevant details like location, dates, amounts",
		"Try using different keywords",
	}

	// DefaultSteps are suggested alongside a grounded answer.
	DefaultSteps = []string{
		"Contact a local lawyer with your documents",
		"Gather relevant case details",
		"Prepare necessary documentation",
	}
)

var (
	sentenceEnd = regexp.MustCompile(`[.!?](\s+|$)`)
	referenceRe = regexp.MustCompile(
		`\b(?i:sections?|articles?)\s+\d+[A-Z]?(?:\s*(?:-|to|and|,)\s*\d+[A-Z]?)*` +
			`|\b(?:[A-Z][A-Za-z()]*\s+)+Act\b(?:,?\s+\d{4})?`)
	leadingFiller = regexp.MustCompile(`^(?:The|Under|As|Per|In)\s+`)
)

// Structured is the sectioned form of an answer.
type Structured struct {
	Answer         string
	LegalReference string
	Explanation    string
	Steps          []string
}

// Structure splits r into sections. The first sentence becomes the answer
// and the rest the explanation; statute mentions form the legal reference.
func Structure(r core.AnswerResult) Structured {
	if r.Origin == core.OriginTemplate || strings.TrimSpace(r.Answer) == "" {
		return Structured{
			Answer:      FallbackAnswer,
			Explanation: FallbackExplanation,
			Steps:       append([]string(nil), FallbackSteps...),
		}
	}

	text := strings.TrimSpace(r.Answer)
	s := Structured{
		Answer:         text,
		LegalReference: LegalReferences(text),
		Steps:          append([]string(nil), DefaultSteps...),
	}
	if loc := sentenceEnd.FindStringIndex(text); loc != nil && loc[1] < len(text) {
		s.Answer = strings.TrimSpace(text[:loc[0]+1])
		s.Explanation = strings.TrimSpace(text[loc[1]:])
	}
	return s
}

// LegalReferences returns the distinct Section, Article and Act mentions in
// text joined with "; ", in order of first appearance.
func LegalReferences(text string) string {
	var refs []string
	seen := make(map[string]bool)
	for _, m := range referenceRe.FindAllString(text, -1) {
		m = strings.TrimSpace(leadingFiller.ReplaceAllString(m, ""))
		key := strings.ToLower(m)
		if m == "" || seen[key] {
			continue
		}
		seen[key] = true
		refs = append(refs, m)
	}
	return strings.Join(refs, "; ")
}

// FormatStructured renders s. Empty sections are omitted.
func FormatStructured(s Structured) string {
	var b strings.Builder
	b.WriteString("Answer: ")
	b.WriteString(s.Answer)
	b.WriteByte('\n')
	if s.LegalReference != "" {
		b.WriteString("Legal Reference: ")
		b.WriteString(s.LegalReference)
		b.WriteByte('\n')
	}
	if s.Explanation != "" {
		b.WriteString("Explanation: ")
		b.WriteString(s.Explanation)
		b.WriteByte('\n')
	}
	if len(s.Steps) > 0 {
		b.WriteString("Next Steps:\n")
		for _, step := range s.Steps {
			b.WriteString("- ")
			b.WriteString(step)
			b.WriteByte('\n')
		}
	}
	return strings.TrimSpace(b.String())
}
