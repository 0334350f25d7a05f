package normalize

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		normalized string
		expanded   string
		language   string
	}{
		{
			name:       "plain question",
			raw:        "How to file FIR?",
			normalized: "how to file fir?",
			expanded:   "how to file first information report?",
		},
		{
			name:       "language directive",
			raw:        "Respond in Hindi. What is bail?",
			normalized: "what is bail?",
			expanded:   "what is bail?",
			language:   "Hindi",
		},
		{
			name:       "directive is case insensitive",
			raw:        "  RESPOND IN tamil.   What is DL",
			normalized: "what is dl",
			expanded:   "what is driving license",
			language:   "Tamil",
		},
		{
			name:       "whitespace collapsed",
			raw:        "what   is\tthe\nipc",
			normalized: "what is the ipc",
			expanded:   "what is the indian penal code",
		},
		{
			name:       "abbreviation inside a word is untouched",
			raw:        "fireworks and handle",
			normalized: "fireworks and handle",
			expanded:   "fireworks and handle",
		},
		{
			name:       "several abbreviations",
			raw:        "PF and GST under CrPC",
			normalized: "pf and gst under crpc",
			expanded:   "provident fund and goods and services tax under criminal procedure code",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := Normalize(tt.raw)
			assert.Equal(t, tt.raw, q.RawText)
			assert.Equal(t, tt.normalized, q.NormalizedText)
			assert.Equal(t, tt.expanded, q.ExpandedText)
			assert.Equal(t, tt.language, q.TargetLanguage)
			assert.NotEqual(t, uuid.Nil, q.ID)
		})
	}
}

func TestNormalize_WantsTranslation(t *testing.T) {
	hindi := Normalize("Respond in Hindi. bail")
	english := Normalize("Respond in English. bail")
	plain := Normalize("bail")

	assert.True(t, hindi.WantsTranslation())
	assert.False(t, english.WantsTranslation())
	assert.False(t, plain.WantsTranslation())
}

func TestExpand_Idempotent(t *testing.T) {
	inputs := []string{
		"what is dl",
		"fir pil rti pf gst posh ipc crpc",
		"how do i get my pf withdrawn after an fir",
		"nothing to expand here",
		"",
	}
	for _, in := range inputs {
		once := Expand(in)
		assert.Equal(t, once, Expand(once), in)
	}
}

func TestExpand_FullFormsHaveNoAbbreviations(t *testing.T) {
	for _, a := range Abbreviations {
		for _, other := range Abbreviations {
			for _, word := range strings.Fields(a.Full) {
				assert.NotEqual(t, other.Short, word, "full form %q contains abbreviation %q", a.Full, other.Short)
			}
		}
	}
}

func TestDetectLanguage(t *testing.T) {
	text, lang := DetectLanguage("respond in marathi.what is rent agreement")
	assert.Equal(t, "what is rent agreement", text)
	assert.Equal(t, "Marathi", lang)

	text, lang = DetectLanguage("please respond in hindi. x")
	assert.Equal(t, "please respond in hindi. x", text)
	assert.Empty(t, lang)
}
