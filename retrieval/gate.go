package retrieval

import (
	"fmt"

	"github.com/poiesic/specter/core"
)

// DefaultThreshold is the minimum similarity for reusing a stored answer.
const DefaultThreshold = 0.70

// Gate decision reasons.
const (
	ReasonAccepted       = "accepted"
	ReasonBelowThreshold = "below threshold"
	ReasonNoHits         = "no hits"
)

// Similarity converts cosine distance into a similarity in [0, 1].
func Similarity(distance float64) float64 {
	s := 1 - distance/2
	switch {
	case s < 0:
		return 0
	case s > 1:
		return 1
	}
	return s
}

// Decision is the gate's verdict on a set of hits.
type Decision struct {
	Accepted bool
	Reason   string
	Hits     []core.RetrievalHit
}

// Best returns the nearest hit, if any.
func (d Decision) Best() (core.RetrievalHit, bool) {
	if len(d.Hits) == 0 {
		return core.RetrievalHit{}, false
	}
	return d.Hits[0], true
}

// Result converts an accepted decision into an authoritative answer.
// The confidence is the raw similarity of the best hit.
func (d Decision) Result() (core.AnswerResult, bool) {
	best, ok := d.Best()
	if !d.Accepted || !ok {
		return core.AnswerResult{}, false
	}
	source := best.Metadata[core.MetaCategory]
	if source == "" {
		source = core.DefaultSource
	}
	return core.AnswerResult{
		Answer:          best.Answer(),
		Confidence:      core.Confidence(best.Similarity),
		Sources:         []string{source},
		MatchedQuestion: best.Metadata[core.MetaQuestion],
		Origin:          core.OriginVector,
	}, true
}

// Gate accepts hits whose best similarity reaches Threshold.
type Gate struct {
	Threshold float64
}

// NewGate returns a gate with the given threshold.
func NewGate(threshold float64) (Gate, error) {
	if threshold < 0 || threshold > 1 {
		return Gate{}, fmt.Errorf("%w: %v", ErrInvalidThreshold, threshold)
	}
	return Gate{Threshold: threshold}, nil
}

// Evaluate decides on hits, which must be ordered nearest first.
func (g Gate) Evaluate(hits []core.RetrievalHit) Decision {
	if len(hits) == 0 {
		return Decision{Reason: ReasonNoHits}
	}
	if hits[0].Similarity >= g.Threshold {
		return Decision{Accepted: true, Reason: ReasonAccepted, Hits: hits}
	}
	return Decision{Reason: ReasonBelowThreshold, Hits: hits}
}
