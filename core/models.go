package core

import (
	"encoding/binary"
	"strings"
	"time"

	"github.com/go-crypt/x/blake2b"
	"github.com/google/uuid"
)

// ID is a unique identifier for stored embedding records.
// It is derived from record content so re-ingesting the same text is idempotent.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Metadata keys carried by embedding records.
const (
	MetaQuestion = "question"
	MetaAnswer   = "answer"
	MetaCategory = "category"
	MetaKey      = "key"
)

// DefaultSource is the source tag attached to curated answers.
const DefaultSource = "Legal Database"

// KnowledgeEntry is one curated answer in the knowledge base.
type KnowledgeEntry struct {
	Key      string
	Answer   string
	Category Category
	Aliases  []string
}

// Label returns the human readable form of the entry key ("fir_filing" -> "fir filing").
func (e *KnowledgeEntry) Label() string {
	return strings.ReplaceAll(e.Key, "_", " ")
}

// EmbeddingRecord is a unit of text stored in the vector index.
// Records are never mutated in place; re-ingestion replaces them wholesale.
type EmbeddingRecord struct {
	Id         ID
	Vector     []float32
	SourceText string
	Metadata   map[string]string
	InsertedAt time.Time
}

// RecordID computes the content ID for a record from its source text and question metadata.
func RecordID(sourceText string, metadata map[string]string) ID {
	return IDFromContent(metadata[MetaQuestion] + "\x00" + sourceText)
}

// Query is a single user request after normalization.
type Query struct {
	ID             uuid.UUID
	RawText        string
	NormalizedText string
	ExpandedText   string
	TargetLanguage string // empty means no translation was requested
}

// WantsTranslation reports whether the caller asked for a non-English answer.
func (q *Query) WantsTranslation() bool {
	return q.TargetLanguage != "" && !strings.EqualFold(q.TargetLanguage, "english")
}

// RetrievalHit is a nearest neighbor returned by the vector index.
// Similarity is always within [0, 1].
type RetrievalHit struct {
	SourceText string
	Metadata   map[string]string
	Similarity float64
}

// Answer returns the answer text carried by the hit, falling back to the source text.
func (h RetrievalHit) Answer() string {
	if a := h.Metadata[MetaAnswer]; a != "" {
		return a
	}
	return h.SourceText
}

// Origin identifies which stage produced an answer.
type Origin int

const (
	OriginKnowledgeBase Origin = iota + 1
	OriginVector
	OriginGenerated
	OriginTemplate
	OriginCache
)

func (o Origin) String() string {
	switch o {
	case OriginKnowledgeBase:
		return "knowledge_base"
	case OriginVector:
		return "vector"
	case OriginGenerated:
		return "generated"
	case OriginTemplate:
		return "template"
	case OriginCache:
		return "cache"
	default:
		return "unknown"
	}
}

// AnswerResult is the outcome of resolving one query.
// Confidence is nil for generated answers, which carry no similarity score.
type AnswerResult struct {
	Answer          string
	Confidence      *float64
	Sources         []string
	MatchedQuestion string
	Origin          Origin
}

// Authoritative reports whether the answer came from curated or indexed content.
func (r *AnswerResult) Authoritative() bool {
	return r.Origin == OriginKnowledgeBase || r.Origin == OriginVector
}

// Confidence returns a pointer to v for use in AnswerResult.
func Confidence(v float64) *float64 {
	return &v
}

// GeneratedSource returns the source tag for an answer produced by the named generator.
func GeneratedSource(provider string) string {
	return "Generated: " + provider
}
