package knowledge

import (
	"fmt"
	"regexp"
	"strings"
)

// SolutionHeader separates a curated answer from the solution appended to it.
const SolutionHeader = "--- DETAILED LEGAL SOLUTION ---"

// Solution is a step-by-step remedy attached to knowledge base answers
// whose question mentions one of its topics.
type Solution struct {
	Key            string   `yaml:"key"`
	Topics         []string `yaml:"topics"`
	Title          string   `yaml:"title"`
	Description    string   `yaml:"description"`
	Remedy         string   `yaml:"remedy"`
	Procedure      []string `yaml:"procedure"`
	Documents      []string `yaml:"documents"`
	TimeLimit      string   `yaml:"time_limit"`
	CourtFees      string   `yaml:"court_fees"`
	CaseReferences []string `yaml:"case_references"`
	Tips           []string `yaml:"tips"`
}

// Format renders the solution as plain text.
func (s *Solution) Format() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n", s.Title)
	if s.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n\n", s.Description)
	}
	if s.Remedy != "" {
		fmt.Fprintf(&b, "Legal Remedy: %s\n\n", s.Remedy)
	}
	if len(s.Procedure) > 0 {
		b.WriteString("Procedure:\n")
		for i, step := range s.Procedure {
			fmt.Fprintf(&b, "%d. %s\n", i+1, step)
		}
		b.WriteString("\n")
	}
	writeList(&b, "Documents Required", s.Documents)
	if s.TimeLimit != "" {
		fmt.Fprintf(&b, "Time Limit: %s\n", s.TimeLimit)
	}
	if s.CourtFees != "" {
		fmt.Fprintf(&b, "Court Fees: %s\n", s.CourtFees)
	}
	if s.TimeLimit != "" || s.CourtFees != "" {
		b.WriteString("\n")
	}
	writeList(&b, "Important Case References", s.CaseReferences)
	writeList(&b, "Practical Tips", s.Tips)
	return strings.TrimRight(b.String(), "\n")
}

func writeList(b *strings.Builder, heading string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "%s:\n", heading)
	for _, it := range items {
		fmt.Fprintf(b, "- %s\n", it)
	}
	b.WriteString("\n")
}

// solutionTable finds the first solution, in table order, with a topic on
// word boundaries in the text.
type solutionTable struct {
	solutions []Solution
	patterns  [][]*regexp.Regexp
}

func newSolutionTable(in []Solution) (*solutionTable, error) {
	t := &solutionTable{}
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		if s.Key == "" || s.Title == "" {
			return nil, fmt.Errorf("%w (key %q)", ErrInvalidSolution, s.Key)
		}
		if _, dup := seen[s.Key]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateKey, s.Key)
		}
		seen[s.Key] = struct{}{}

		var patterns []*regexp.Regexp
		for _, topic := range s.Topics {
			topic = strings.ToLower(strings.TrimSpace(topic))
			if topic == "" {
				continue
			}
			patterns = append(patterns, regexp.MustCompile(`(?i)\b`+regexp.QuoteMeta(topic)+`\b`))
		}
		if len(patterns) == 0 {
			return nil, fmt.Errorf("%w: %s has no topics", ErrInvalidSolution, s.Key)
		}
		t.solutions = append(t.solutions, s)
		t.patterns = append(t.patterns, patterns)
	}
	return t, nil
}

func (t *solutionTable) find(text string) (*Solution, bool) {
	for i, patterns := range t.patterns {
		for _, p := range patterns {
			if p.MatchString(text) {
				return &t.solutions[i], true
			}
		}
	}
	return nil, false
}
