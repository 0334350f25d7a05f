package knowledge

import (
	"fmt"
	"strings"

	"github.com/poiesic/specter/core"
)

// Mapping routes a phrase or keyword to an entry key.
type Mapping struct {
	Text string `yaml:"text"`
	Key  string `yaml:"key"`
}

// Topic is a summary of one entry for listing.
type Topic struct {
	Key      string `json:"key"`
	Label    string `json:"label"`
	Category string `json:"category"`
}

// Base is an immutable, in-memory set of curated answers with the ordered
// phrase and keyword tables that route questions to them.
// It is safe for concurrent use.
type Base struct {
	entries   []core.KnowledgeEntry
	index     map[string]int
	phrases   []Mapping
	keywords  []Mapping
	solutions *solutionTable
}

// NewBase validates and indexes entries, mappings and solutions. Mapping
// text is lower-cased; table order is preserved.
func NewBase(entries []core.KnowledgeEntry, phrases, keywords []Mapping, solutions ...Solution) (*Base, error) {
	b := &Base{
		entries: make([]core.KnowledgeEntry, 0, len(entries)),
		index:   make(map[string]int, len(entries)),
	}
	for _, e := range entries {
		if err := core.ValidateKnowledgeEntry(&e); err != nil {
			return nil, err
		}
		if _, dup := b.index[e.Key]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateKey, e.Key)
		}
		b.index[e.Key] = len(b.entries)
		b.entries = append(b.entries, e)
	}

	var err error
	if b.phrases, err = b.checkMappings(phrases); err != nil {
		return nil, fmt.Errorf("phrases: %w", err)
	}
	if b.keywords, err = b.checkMappings(keywords); err != nil {
		return nil, fmt.Errorf("keywords: %w", err)
	}
	if b.solutions, err = newSolutionTable(solutions); err != nil {
		return nil, fmt.Errorf("solutions: %w", err)
	}
	return b, nil
}

func (b *Base) checkMappings(in []Mapping) ([]Mapping, error) {
	out := make([]Mapping, 0, len(in))
	for _, m := range in {
		text := strings.ToLower(strings.TrimSpace(m.Text))
		if text == "" {
			return nil, fmt.Errorf("%w (key %q)", ErrEmptyMapping, m.Key)
		}
		if _, ok := b.index[m.Key]; !ok {
			return nil, fmt.Errorf("%w: %q -> %q", ErrUnknownKey, text, m.Key)
		}
		out = append(out, Mapping{Text: text, Key: m.Key})
	}
	return out, nil
}

// Entry returns the entry for key.
func (b *Base) Entry(key string) (core.KnowledgeEntry, bool) {
	i, ok := b.index[key]
	if !ok {
		return core.KnowledgeEntry{}, false
	}
	return b.entries[i], true
}

// Entries returns all entries in insertion order. The slice must not be modified.
func (b *Base) Entries() []core.KnowledgeEntry {
	return b.entries
}

// Phrases returns the exact phrase table in match order.
func (b *Base) Phrases() []Mapping {
	return b.phrases
}

// Keywords returns the keyword table in match order.
func (b *Base) Keywords() []Mapping {
	return b.keywords
}

// SolutionFor returns the first solution whose topic appears in text.
func (b *Base) SolutionFor(text string) (*Solution, bool) {
	return b.solutions.find(text)
}

// Solutions returns the solution table in match order.
func (b *Base) Solutions() []Solution {
	return b.solutions.solutions
}

// Len returns the number of entries.
func (b *Base) Len() int {
	return len(b.entries)
}

// Topics lists every entry key with its label and category.
func (b *Base) Topics() []Topic {
	topics := make([]Topic, len(b.entries))
	for i := range b.entries {
		e := &b.entries[i]
		topics[i] = Topic{Key: e.Key, Label: e.Label(), Category: e.Category.String()}
	}
	return topics
}
