package ingestion

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"
)

// ParseFAQ reads Q:/A: formatted text. An upper-case line longer than five
// characters without parentheses starts a new category ("=" decoration is
// stripped). Lines following an answer continue it until the next question.
func ParseFAQ(r io.Reader) ([]Item, error) {
	var (
		items    []Item
		question string
		answer   []string
		category = CategoryGeneral
	)
	flush := func() {
		if question != "" && len(answer) > 0 {
			items = append(items, Item{
				Question: question,
				Answer:   strings.TrimSpace(strings.Join(answer, " ")),
				Category: category,
			})
		}
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if isCategoryHeader(line) {
			category = strings.TrimSpace(strings.ReplaceAll(line, "=", ""))
			continue
		}
		switch {
		case strings.HasPrefix(line, "Q:"):
			flush()
			question = strings.TrimSpace(line[2:])
			answer = nil
		case strings.HasPrefix(line, "A:"):
			answer = append(answer, strings.TrimSpace(line[2:]))
		case len(answer) > 0 && line != "":
			answer = append(answer, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read faq: %w", err)
	}
	flush()
	return items, nil
}

// LoadFAQFile parses the FAQ file at path.
func LoadFAQFile(path string) ([]Item, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseFAQ(f)
}

func isCategoryHeader(line string) bool {
	if len(line) <= 5 || strings.HasPrefix(line, "Q:") || strings.HasPrefix(line, "A:") {
		return false
	}
	if strings.ContainsAny(line, "()") {
		return false
	}
	cased := false
	for _, r := range line {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) {
			cased = true
		}
	}
	return cased
}
