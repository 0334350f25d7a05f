package ingestion

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/poiesic/specter/core"
	"github.com/poiesic/specter/knowledge"
	"github.com/poiesic/specter/retrieval"
)

// Categories attached to generated items.
const (
	CategoryDatabase      = "Comprehensive Legal Database"
	CategoryAbbreviations = "Legal Abbreviations"
	CategoryGeneral       = "General"
)

// Item is one question/answer pair to be indexed.
type Item struct {
	Question string
	Answer   string
	Category string
	Key      string // knowledge base key, empty for FAQ items
}

func (it Item) dedupKey() string {
	answer := it.Answer
	if r := []rune(answer); len(r) > 100 {
		answer = string(r[:100])
	}
	return strings.ToLower(it.Question) + "\x00" + answer
}

// FromKnowledgeBase expands every entry of base into question phrasings,
// followed by the phrasings of every entry alias.
func FromKnowledgeBase(base *knowledge.Base) []Item {
	entries := base.Entries()
	items := make([]Item, 0, len(entries)*5)
	for _, e := range entries {
		title := titleCase(e.Label())
		for _, q := range []string{
			fmt.Sprintf("What is %s?", title),
			fmt.Sprintf("Tell me about %s", title),
			fmt.Sprintf("Explain %s", title),
			fmt.Sprintf("How to %s", title),
			title,
		} {
			items = append(items, Item{Question: q, Answer: e.Answer, Category: CategoryDatabase, Key: e.Key})
		}
	}
	for _, e := range entries {
		for _, alias := range e.Aliases {
			a := strings.ToUpper(alias)
			for _, q := range []string{
				fmt.Sprintf("What is %s?", a),
				fmt.Sprintf("How to apply %s", a),
				fmt.Sprintf("How to get %s", a),
				a + " application",
				a + " procedure",
				a,
			} {
				items = append(items, Item{Question: q, Answer: e.Answer, Category: CategoryAbbreviations, Key: e.Key})
			}
		}
	}
	return items
}

// Dedup drops items whose lower-cased question and first 100 answer
// characters were already seen. The first occurrence is kept.
func Dedup(items []Item) []Item {
	seen := make(map[string]struct{}, len(items))
	out := make([]Item, 0, len(items))
	for _, it := range items {
		k := it.dedupKey()
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, it)
	}
	return out
}

// EvalCases turns items into retrieval evaluation cases.
func EvalCases(items []Item) []retrieval.EvalCase {
	cases := make([]retrieval.EvalCase, len(items))
	for i, it := range items {
		cases[i] = retrieval.EvalCase{Question: it.Question, Answer: it.Answer}
	}
	return cases
}

func (it Item) record(vector []float32, embedded string) *core.EmbeddingRecord {
	meta := map[string]string{
		core.MetaQuestion: it.Question,
		core.MetaAnswer:   it.Answer,
		core.MetaCategory: it.Category,
	}
	if it.Key != "" {
		meta[core.MetaKey] = it.Key
	}
	return &core.EmbeddingRecord{
		Id:         core.IDFromContent(it.dedupKey()),
		Vector:     vector,
		SourceText: embedded,
		Metadata:   meta,
	}
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(strings.ToLower(w))
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
