package knowledge

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/poiesic/specter/core"
)

// Hit is a stage's verdict for one text.
type Hit struct {
	Key        string
	Confidence float64
}

// Stage is one tier of knowledge base lookup.
type Stage interface {
	Name() string
	Match(text string) (Hit, bool)
}

// ExactPhraseStage matches the first phrase, in table order, contained in the text.
type ExactPhraseStage struct {
	phrases []Mapping
}

// NewExactPhraseStage builds the phrase stage for base.
func NewExactPhraseStage(base *Base) *ExactPhraseStage {
	return &ExactPhraseStage{phrases: base.Phrases()}
}

func (s *ExactPhraseStage) Name() string { return "exact_phrase" }

func (s *ExactPhraseStage) Match(text string) (Hit, bool) {
	text = strings.ToLower(text)
	for _, p := range s.phrases {
		if strings.Contains(text, p.Text) {
			return Hit{Key: p.Key, Confidence: 1.0}, true
		}
	}
	return Hit{}, false
}

// KeywordStage matches the first keyword, in table order, found on word
// boundaries in the text. "rent" does not match "parent". Entry aliases are
// tried after the keyword table.
type KeywordStage struct {
	patterns []*regexp.Regexp
	keys     []string
}

// NewKeywordStage builds the keyword stage for base.
func NewKeywordStage(base *Base) *KeywordStage {
	s := &KeywordStage{}
	for _, k := range base.Keywords() {
		s.add(k.Text, k.Key)
	}
	for _, e := range base.Entries() {
		for _, alias := range e.Aliases {
			if alias = strings.TrimSpace(alias); alias != "" {
				s.add(alias, e.Key)
			}
		}
	}
	return s
}

func (s *KeywordStage) add(text, key string) {
	s.patterns = append(s.patterns, regexp.MustCompile(`(?i)\b`+regexp.QuoteMeta(text)+`\b`))
	s.keys = append(s.keys, key)
}

func (s *KeywordStage) Name() string { return "keyword" }

func (s *KeywordStage) Match(text string) (Hit, bool) {
	for i, p := range s.patterns {
		if p.MatchString(text) {
			return Hit{Key: s.keys[i], Confidence: 1.0}, true
		}
	}
	return Hit{}, false
}

// FuzzyOverlapStage picks the entry whose key terms share the most words
// with the text. Ties go to the earlier entry. Confidence is the share of
// the key's terms found in the text.
type FuzzyOverlapStage struct {
	keys  []string
	terms [][]string
}

// NewFuzzyOverlapStage builds the overlap stage for base.
func NewFuzzyOverlapStage(base *Base) *FuzzyOverlapStage {
	entries := base.Entries()
	s := &FuzzyOverlapStage{
		keys:  make([]string, 0, len(entries)),
		terms: make([][]string, 0, len(entries)),
	}
	for _, e := range entries {
		terms := keyTerms(e.Key)
		if len(terms) == 0 {
			continue
		}
		s.keys = append(s.keys, e.Key)
		s.terms = append(s.terms, terms)
	}
	return s
}

func (s *FuzzyOverlapStage) Name() string { return "fuzzy_overlap" }

func (s *FuzzyOverlapStage) Match(text string) (Hit, bool) {
	words := make(map[string]struct{})
	for _, t := range Tokenize(text) {
		words[t] = struct{}{}
	}
	if len(words) == 0 {
		return Hit{}, false
	}

	best, bestOverlap := -1, 0
	for i, terms := range s.terms {
		overlap := 0
		for _, t := range terms {
			if _, ok := words[t]; ok {
				overlap++
			}
		}
		if overlap > bestOverlap {
			best, bestOverlap = i, overlap
		}
	}
	if best < 0 {
		return Hit{}, false
	}
	return Hit{
		Key:        s.keys[best],
		Confidence: float64(bestOverlap) / float64(len(s.terms[best])),
	}, true
}

// Match is a successful knowledge base lookup. Solution is set when the
// question names a topic with a detailed solution.
type Match struct {
	Entry      core.KnowledgeEntry
	Stage      string
	Confidence float64
	Solution   *Solution
}

// Result converts the match into an authoritative answer, with the
// detailed solution appended when there is one.
func (m Match) Result() core.AnswerResult {
	answer := m.Entry.Answer
	if m.Solution != nil {
		answer += "\n\n" + SolutionHeader + "\n" + m.Solution.Format()
	}
	return core.AnswerResult{
		Answer:          answer,
		Confidence:      core.Confidence(m.Confidence),
		Sources:         []string{core.DefaultSource},
		MatchedQuestion: m.Entry.Label(),
		Origin:          core.OriginKnowledgeBase,
	}
}

// Matcher runs lookup stages in order; the first stage to hit wins.
type Matcher struct {
	base   *Base
	stages []Stage
	logger *slog.Logger
}

// Option configures a Matcher.
type Option func(*Matcher) error

// WithStages replaces the default stage list.
func WithStages(stages ...Stage) Option {
	return func(m *Matcher) error {
		m.stages = stages
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Matcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		m.logger = logger.With("component", "knowledge-matcher")
		return nil
	}
}

// DefaultStages returns exact phrase, keyword and fuzzy overlap stages for base.
func DefaultStages(base *Base) []Stage {
	return []Stage{
		NewExactPhraseStage(base),
		NewKeywordStage(base),
		NewFuzzyOverlapStage(base),
	}
}

// NewMatcher creates a matcher over base using DefaultStages unless overridden.
func NewMatcher(base *Base, opts ...Option) (*Matcher, error) {
	if base == nil {
		return nil, ErrBaseRequired
	}
	m := &Matcher{
		base:   base,
		stages: DefaultStages(base),
		logger: slog.Default().With("component", "knowledge-matcher"),
	}
	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Base returns the knowledge base the matcher reads.
func (m *Matcher) Base() *Base {
	return m.base
}

// Match looks q up stage by stage, trying the normalized text and then the
// expanded text within each stage.
func (m *Matcher) Match(q core.Query) (Match, bool) {
	texts := []string{q.NormalizedText}
	if q.ExpandedText != "" && q.ExpandedText != q.NormalizedText {
		texts = append(texts, q.ExpandedText)
	}

	for _, stage := range m.stages {
		for _, text := range texts {
			hit, ok := stage.Match(text)
			if !ok {
				continue
			}
			entry, found := m.base.Entry(hit.Key)
			if !found {
				m.logger.Warn("stage returned unknown key", "stage", stage.Name(), "key", hit.Key)
				continue
			}
			match := Match{Entry: entry, Stage: stage.Name(), Confidence: hit.Confidence}
			if sol, ok := m.base.SolutionFor(q.NormalizedText); ok {
				match.Solution = sol
			}
			m.logger.Debug("knowledge base hit", "stage", stage.Name(), "key", hit.Key, "confidence", hit.Confidence)
			return match, true
		}
	}
	return Match{}, false
}
