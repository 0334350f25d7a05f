package knowledge

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/poiesic/specter/core"
	"github.com/poiesic/specter/normalize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBase(t *testing.T) *Base {
	t.Helper()
	base, err := NewBase(
		[]core.KnowledgeEntry{
			{Key: "fir_filing", Answer: "fir answer", Category: core.CategoryCriminal},
			{Key: "bail", Answer: "bail answer", Category: core.CategoryCriminal},
			{Key: "rent_agreement", Answer: "rent answer", Category: core.CategoryProperty},
			{Key: "property_disputes", Answer: "dispute answer", Category: core.CategoryProperty},
			{Key: "property_registration", Answer: "registration answer", Category: core.CategoryProperty},
			{Key: "driving_license", Answer: "license answer", Category: core.CategoryMotorVehicle},
		},
		[]Mapping{{Text: "How to file FIR", Key: "fir_filing"}},
		[]Mapping{
			{Text: "fir", Key: "fir_filing"},
			{Text: "bail", Key: "bail"},
			{Text: "rent", Key: "rent_agreement"},
			{Text: "driving license", Key: "driving_license"},
		},
	)
	require.NoError(t, err)
	return base
}

func TestNewBase_Validation(t *testing.T) {
	entries := []core.KnowledgeEntry{{Key: "bail", Answer: "a"}}

	t.Run("unknown key", func(t *testing.T) {
		_, err := NewBase(entries, []Mapping{{Text: "x", Key: "nope"}}, nil)
		assert.ErrorIs(t, err, ErrUnknownKey)
	})

	t.Run("duplicate key", func(t *testing.T) {
		_, err := NewBase(append(entries, core.KnowledgeEntry{Key: "bail", Answer: "b"}), nil, nil)
		assert.ErrorIs(t, err, ErrDuplicateKey)
	})

	t.Run("empty mapping", func(t *testing.T) {
		_, err := NewBase(entries, nil, []Mapping{{Text: "  ", Key: "bail"}})
		assert.ErrorIs(t, err, ErrEmptyMapping)
	})

	t.Run("invalid entry", func(t *testing.T) {
		_, err := NewBase([]core.KnowledgeEntry{{Key: "bail"}}, nil, nil)
		assert.ErrorIs(t, err, core.ErrInvalidKnowledgeEntry)
	})
}

func TestMatcher_Stages(t *testing.T) {
	m, err := NewMatcher(testBase(t))
	require.NoError(t, err)

	tests := []struct {
		name       string
		message    string
		key        string
		stage      string
		confidence float64
	}{
		{"exact phrase any casing", "Please tell me HOW TO FILE FIR today", "fir_filing", "exact_phrase", 1.0},
		{"keyword", "what is bail?", "bail", "keyword", 1.0},
		{"keyword needs word boundary", "my parent's property disputes", "property_disputes", "fuzzy_overlap", 1.0},
		{"fuzzy tie goes to first entry", "property question", "property_disputes", "fuzzy_overlap", 0.5},
		{"keyword via expanded text", "How to renew my DL", "driving_license", "keyword", 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			match, ok := m.Match(normalize.Normalize(tt.message))
			require.True(t, ok)
			assert.Equal(t, tt.key, match.Entry.Key)
			assert.Equal(t, tt.stage, match.Stage)
			assert.InDelta(t, tt.confidence, match.Confidence, 1e-9)
		})
	}

	t.Run("no overlap is a miss", func(t *testing.T) {
		_, ok := m.Match(normalize.Normalize("hello there friend"))
		assert.False(t, ok)
	})
}

func TestMatch_Result(t *testing.T) {
	m, err := NewMatcher(testBase(t))
	require.NoError(t, err)

	match, ok := m.Match(normalize.Normalize("How to file FIR?"))
	require.True(t, ok)

	r := match.Result()
	assert.Equal(t, "fir answer", r.Answer)
	assert.Equal(t, []string{"Legal Database"}, r.Sources)
	assert.Equal(t, "fir filing", r.MatchedQuestion)
	assert.Equal(t, core.OriginKnowledgeBase, r.Origin)
	require.NotNil(t, r.Confidence)
	assert.Equal(t, 1.0, *r.Confidence)
}

func TestMatch_Solution(t *testing.T) {
	base, err := NewBase(
		[]core.KnowledgeEntry{
			{Key: "fir_filing", Answer: "fir answer", Category: core.CategoryCriminal},
			{Key: "bail", Answer: "bail answer", Category: core.CategoryCriminal},
		},
		nil,
		[]Mapping{{Text: "fir", Key: "fir_filing"}, {Text: "bail", Key: "bail"}},
		Solution{
			Key:            "bail_application",
			Topics:         []string{"bail"},
			Title:          "Bail Application",
			Remedy:         "File under Section 437 CrPC",
			Procedure:      []string{"File the application", "Furnish surety"},
			Documents:      []string{"Identity proof"},
			TimeLimit:      "None",
			CaseReferences: []string{"Sibbia (1980)"},
			Tips:           []string{"Engage a lawyer"},
		},
	)
	require.NoError(t, err)
	m, err := NewMatcher(base)
	require.NoError(t, err)

	match, ok := m.Match(normalize.Normalize("Can I get bail?"))
	require.True(t, ok)
	require.NotNil(t, match.Solution)
	assert.Equal(t, "bail_application", match.Solution.Key)

	answer := match.Result().Answer
	assert.True(t, strings.HasPrefix(answer, "bail answer\n\n"+SolutionHeader+"\nBail Application\n"))
	assert.Contains(t, answer, "Legal Remedy: File under Section 437 CrPC")
	assert.Contains(t, answer, "Procedure:\n1. File the application\n2. Furnish surety\n")
	assert.Contains(t, answer, "Documents Required:\n- Identity proof\n")
	assert.Contains(t, answer, "Time Limit: None\n")
	assert.NotContains(t, answer, "Court Fees")
	assert.True(t, strings.HasSuffix(answer, "Practical Tips:\n- Engage a lawyer"))

	t.Run("no topic no solution", func(t *testing.T) {
		match, ok := m.Match(normalize.Normalize("How to file FIR?"))
		require.True(t, ok)
		assert.Nil(t, match.Solution)
		assert.Equal(t, "fir answer", match.Result().Answer)
	})

	t.Run("topic needs word boundary", func(t *testing.T) {
		_, ok := base.SolutionFor("bailiff fees")
		assert.False(t, ok)
	})

	t.Run("invalid solutions", func(t *testing.T) {
		entries := []core.KnowledgeEntry{{Key: "bail", Answer: "a"}}
		_, err := NewBase(entries, nil, nil, Solution{Key: "x", Title: "X"})
		assert.ErrorIs(t, err, ErrInvalidSolution)
		_, err = NewBase(entries, nil, nil, Solution{Key: "x", Topics: []string{"bail"}})
		assert.ErrorIs(t, err, ErrInvalidSolution)
		dup := Solution{Key: "x", Title: "X", Topics: []string{"bail"}}
		_, err = NewBase(entries, nil, nil, dup, dup)
		assert.ErrorIs(t, err, ErrDuplicateKey)
	})
}

func TestKeywordStage_Aliases(t *testing.T) {
	base, err := NewBase(
		[]core.KnowledgeEntry{
			{Key: "bail", Answer: "bail answer", Category: core.CategoryCriminal},
			{Key: "workplace_harassment", Answer: "posh answer", Category: core.CategoryEmployment, Aliases: []string{"POSH"}},
		},
		nil,
		[]Mapping{{Text: "bail", Key: "bail"}},
	)
	require.NoError(t, err)
	stage := NewKeywordStage(base)

	hit, ok := stage.Match("complaint under posh committee")
	require.True(t, ok)
	assert.Equal(t, "workplace_harassment", hit.Key)

	hit, ok = stage.Match("posh bail hearing")
	require.True(t, ok)
	assert.Equal(t, "bail", hit.Key, "table keywords win over aliases")

	_, ok = stage.Match("a poshly furnished flat")
	assert.False(t, ok)
}

func TestMatcher_CustomStages(t *testing.T) {
	base := testBase(t)
	m, err := NewMatcher(base, WithStages(NewFuzzyOverlapStage(base)), WithLogger(nil))
	require.NoError(t, err)

	match, ok := m.Match(normalize.Normalize("what is bail"))
	require.True(t, ok)
	assert.Equal(t, "fuzzy_overlap", match.Stage)

	_, err = NewMatcher(nil)
	assert.ErrorIs(t, err, ErrBaseRequired)
}

func TestBuiltin(t *testing.T) {
	base, err := Builtin()
	require.NoError(t, err)
	assert.Greater(t, base.Len(), 100)

	m, err := NewMatcher(base)
	require.NoError(t, err)

	tests := []struct {
		message string
		key     string
	}{
		{"How to file FIR?", "fir_filing"},
		{"What is DL?", "driving_license"},
		{"what is bail?", "bail"},
		{"Respond in Hindi. What is bail?", "bail"},
		{"I want a mutual consent divorce", "mutual_consent_divorce"},
		{"who gets custody of my son", "child_custody_divorce"},
		{"how do I withdraw my PF", "pf_withdrawal"},
		{"what is RTI", "right_to_information"},
		{"punishment for murder", "murder_law"},
	}
	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			match, ok := m.Match(normalize.Normalize(tt.message))
			require.True(t, ok)
			assert.Equal(t, tt.key, match.Entry.Key)
		})
	}

	entry, ok := base.Entry("driving_license")
	require.True(t, ok)
	assert.Contains(t, entry.Aliases, "DL")
	assert.Equal(t, core.CategoryMotorVehicle, entry.Category)

	t.Run("detailed solutions", func(t *testing.T) {
		assert.Len(t, base.Solutions(), 12)

		match, ok := m.Match(normalize.Normalize("what is bail?"))
		require.True(t, ok)
		require.NotNil(t, match.Solution)
		assert.Equal(t, "bail_application", match.Solution.Key)
		assert.Contains(t, match.Result().Answer, SolutionHeader)
		assert.Contains(t, match.Result().Answer, "Section 437/438 CrPC")

		match, ok = m.Match(normalize.Normalize("How to file FIR?"))
		require.True(t, ok)
		assert.Nil(t, match.Solution)
	})
}

func TestTopics(t *testing.T) {
	topics := testBase(t).Topics()
	require.Len(t, topics, 6)
	assert.Equal(t, Topic{Key: "fir_filing", Label: "fir filing", Category: "criminal"}, topics[0])
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kb.yaml")
	content := `
entries:
  - key: bail
    category: criminal
    answer: "Bail is release pending trial."
  - key: divorce_procedure
    category: family
    aliases: ["Talaq"]
    answer: "File a petition in family court."
phrases:
  - {text: "How to file divorce", key: divorce_procedure}
keywords:
  - {text: bail, key: bail}
solutions:
  - key: bail_application
    topics: [bail]
    title: Bail Application
    procedure: ["File the application"]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	base, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, base.Len())
	assert.Equal(t, "how to file divorce", base.Phrases()[0].Text)

	entry, ok := base.Entry("divorce_procedure")
	require.True(t, ok)
	assert.Equal(t, core.CategoryFamily, entry.Category)
	assert.Equal(t, []string{"Talaq"}, entry.Aliases)
	require.Len(t, base.Solutions(), 1)
	assert.Equal(t, []string{"File the application"}, base.Solutions()[0].Procedure)

	t.Run("unknown category", func(t *testing.T) {
		_, err := Load(strings.NewReader("entries:\n  - {key: x, category: maritime, answer: y}\n"))
		assert.ErrorIs(t, err, core.ErrUnknownCategory)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.Error(t, err)
	})
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"file", "complaint", "police"}, Tokenize("How do I file a complaint with the police?"))
	assert.Empty(t, Tokenize("is it ok"))
	assert.Equal(t, []string{"driving", "license"}, keyTerms("driving_license"))
	assert.Equal(t, []string{"contract"}, keyTerms("contract_law"))
}
