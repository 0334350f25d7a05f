package knowledge

import (
	"strings"
	"unicode"
)

var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "are": {}, "was": {}, "what": {}, "how": {},
	"can": {}, "does": {}, "with": {}, "about": {}, "tell": {}, "explain": {},
	"this": {}, "that": {}, "from": {}, "into": {}, "have": {}, "has": {},
	"who": {}, "why": {}, "when": {}, "where": {}, "which": {}, "should": {},
	"would": {}, "could": {}, "under": {}, "your": {}, "you": {}, "get": {},
	"india": {}, "indian": {},
}

// genericTerms appear in many keys and carry no topic on their own.
var genericTerms = map[string]struct{}{
	"law": {}, "laws": {}, "act": {},
}

// Tokenize splits text into lower-case words longer than two characters,
// dropping stop words and punctuation.
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	tokens := fields[:0]
	for _, f := range fields {
		if len(f) <= 2 {
			continue
		}
		if _, stop := stopWords[f]; stop {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}

// keyTerms splits an entry key into its topic words ("fir_filing" -> fir, filing).
func keyTerms(key string) []string {
	var terms []string
	for _, w := range strings.Split(key, "_") {
		if len(w) <= 2 {
			continue
		}
		if _, generic := genericTerms[w]; generic {
			continue
		}
		terms = append(terms, w)
	}
	return terms
}
