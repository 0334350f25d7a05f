package resolve

import (
	"log/slog"
	"time"

	"github.com/poiesic/specter/core"
	"github.com/poiesic/specter/generation"
	"github.com/poiesic/specter/knowledge"
	"github.com/poiesic/specter/retrieval"
)

// Monitor provides hooks to observe resolution.
// Stages that are skipped produce no callback.
type Monitor interface {
	Start(q core.Query)
	CacheHit(r core.AnswerResult)
	KnowledgeMatch(m knowledge.Match)
	AfterRetrieval(hits []core.RetrievalHit)
	GateDecision(d retrieval.Decision)
	AfterGeneration(res generation.Result)
	Finish(r core.AnswerResult, elapsed time.Duration)
}

// noopMonitor is a no-op implementation of Monitor
type noopMonitor struct{}

var _ Monitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ core.Query)                          {}
func (n *noopMonitor) CacheHit(_ core.AnswerResult)                {}
func (n *noopMonitor) KnowledgeMatch(_ knowledge.Match)            {}
func (n *noopMonitor) AfterRetrieval(_ []core.RetrievalHit)        {}
func (n *noopMonitor) GateDecision(_ retrieval.Decision)           {}
func (n *noopMonitor) AfterGeneration(_ generation.Result)         {}
func (n *noopMonitor) Finish(_ core.AnswerResult, _ time.Duration) {}

// LogMonitor reports every stage to a logger at debug level.
type LogMonitor struct {
	Logger *slog.Logger
	query  core.Query
}

var _ Monitor = (*LogMonitor)(nil)

// NewLogMonitor returns a Monitor writing to logger, or slog.Default when nil.
func NewLogMonitor(logger *slog.Logger) *LogMonitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogMonitor{Logger: logger.With("component", "resolve-monitor")}
}

func (m *LogMonitor) Start(q core.Query) {
	m.query = q
	m.Logger.Debug("resolving",
		"query_id", q.ID,
		"normalized", q.NormalizedText,
		"expanded", q.ExpandedText,
		"language", q.TargetLanguage)
}

func (m *LogMonitor) CacheHit(r core.AnswerResult) {
	m.Logger.Debug("cache hit", "query_id", m.query.ID, "matched", r.MatchedQuestion)
}

func (m *LogMonitor) KnowledgeMatch(km knowledge.Match) {
	m.Logger.Debug("knowledge base match",
		"query_id", m.query.ID,
		"stage", km.Stage,
		"key", km.Entry.Key,
		"confidence", km.Confidence)
}

func (m *LogMonitor) AfterRetrieval(hits []core.RetrievalHit) {
	best := 0.0
	if len(hits) > 0 {
		best = hits[0].Similarity
	}
	m.Logger.Debug("vector retrieval", "query_id", m.query.ID, "hits", len(hits), "best_similarity", best)
}

func (m *LogMonitor) GateDecision(d retrieval.Decision) {
	m.Logger.Debug("confidence gate", "query_id", m.query.ID, "accepted", d.Accepted, "reason", d.Reason)
}

func (m *LogMonitor) AfterGeneration(res generation.Result) {
	for _, a := range res.Attempts {
		m.Logger.Debug("generation attempt",
			"query_id", m.query.ID,
			"provider", a.Provider,
			"outcome", a.Outcome.String(),
			"duration", a.Duration)
	}
}

func (m *LogMonitor) Finish(r core.AnswerResult, elapsed time.Duration) {
	m.Logger.Debug("resolved",
		"query_id", m.query.ID,
		"origin", r.Origin.String(),
		"sources", r.Sources,
		"elapsed", elapsed)
}
