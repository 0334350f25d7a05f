// Package normalize turns raw user messages into core.Query values: it
// extracts a leading language directive, lower-cases and collapses
// whitespace, and expands legal abbreviations.
package normalize

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/poiesic/specter/core"
)

// Abbreviation maps a short form to its full legal term.
type Abbreviation struct {
	Short string
	Full  string
}

// Abbreviations is the expansion table, applied in order.
var Abbreviations = []Abbreviation{
	{"dl", "driving license"},
	{"fir", "first information report"},
	{"pil", "public interest litigation"},
	{"rti", "right to information"},
	{"pf", "provident fund"},
	{"gst", "goods and services tax"},
	{"posh", "prevention of sexual harassment"},
	{"ipc", "indian penal code"},
	{"crpc", "criminal procedure code"},
}

var (
	directivePattern = regexp.MustCompile(`(?is)^\s*respond in (\w+)\.\s*(.*)$`)
	abbrevPatterns   = compileAbbreviations(Abbreviations)
)

func compileAbbreviations(table []Abbreviation) []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, len(table))
	for i, a := range table {
		patterns[i] = regexp.MustCompile(`\b` + regexp.QuoteMeta(a.Short) + `\b`)
	}
	return patterns
}

// Normalize parses raw into a query with a fresh request ID.
// It never fails; validation of empty input happens before this step.
func Normalize(raw string) core.Query {
	text, language := DetectLanguage(raw)
	normalized := Clean(text)
	return core.Query{
		ID:             uuid.New(),
		RawText:        raw,
		NormalizedText: normalized,
		ExpandedText:   Expand(normalized),
		TargetLanguage: language,
	}
}

// DetectLanguage splits a "respond in <language>. <question>" directive
// from raw. Without a directive it returns raw unchanged and an empty language.
func DetectLanguage(raw string) (text, language string) {
	m := directivePattern.FindStringSubmatch(raw)
	if m == nil {
		return raw, ""
	}
	lang := strings.ToLower(m[1])
	return m[2], strings.ToUpper(lang[:1]) + lang[1:]
}

// Clean lower-cases s and collapses runs of whitespace into single spaces.
func Clean(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// Expand replaces whole-word abbreviations in lower-cased text with their
// full forms. Expand(Expand(s)) == Expand(s) because no full form contains
// an abbreviation as a whole word.
func Expand(text string) string {
	for i, p := range abbrevPatterns {
		text = p.ReplaceAllLiteralString(text, Abbreviations[i].Full)
	}
	return text
}
