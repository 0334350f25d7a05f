package retrieval

import (
	"context"
	"strings"

	"github.com/poiesic/specter/normalize"
)

// EvalCase is a question with its expected answer.
type EvalCase struct {
	Question string
	Answer   string
}

// Metrics summarizes an evaluation run.
type Metrics struct {
	Accuracy      float64 `json:"accuracy"`
	Correct       int     `json:"correct"`
	Total         int     `json:"total"`
	AvgSimilarity float64 `json:"avg_similarity"`
	Threshold     float64 `json:"threshold"`
}

// Evaluate runs every case through retriever and gate. Questions are
// normalized the way live queries are before embedding. A case is correct
// when the accepted answer equals the expected answer or contains its first
// 50 characters.
func Evaluate(ctx context.Context, r *Retriever, gate Gate, cases []EvalCase) (Metrics, error) {
	m := Metrics{Total: len(cases), Threshold: gate.Threshold}
	var simSum float64
	for _, c := range cases {
		if err := ctx.Err(); err != nil {
			return m, err
		}
		hits, err := r.RetrieveText(ctx, normalize.Normalize(c.Question).ExpandedText)
		if err != nil {
			return m, err
		}
		decision := gate.Evaluate(hits)
		if best, ok := decision.Best(); ok {
			simSum += best.Similarity
		}
		if result, ok := decision.Result(); ok && answerMatches(result.Answer, c.Answer) {
			m.Correct++
		}
	}
	if m.Total > 0 {
		m.Accuracy = float64(m.Correct) / float64(m.Total)
		m.AvgSimilarity = simSum / float64(m.Total)
	}
	return m, nil
}

func answerMatches(got, want string) bool {
	if got == want {
		return true
	}
	prefix := want
	if len(prefix) > 50 {
		prefix = prefix[:50]
	}
	return prefix != "" && strings.Contains(got, prefix)
}
