package knowledge

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/poiesic/specter/core"
	"gopkg.in/yaml.v3"
)

//go:embed data/knowledge.yaml
var builtinData []byte

type fileEntry struct {
	Key      string        `yaml:"key"`
	Category core.Category `yaml:"category"`
	Aliases  []string      `yaml:"aliases"`
	Answer   string        `yaml:"answer"`
}

type fileFormat struct {
	Entries   []fileEntry `yaml:"entries"`
	Phrases   []Mapping   `yaml:"phrases"`
	Keywords  []Mapping   `yaml:"keywords"`
	Solutions []Solution  `yaml:"solutions"`
}

// Load parses a knowledge base from YAML.
func Load(r io.Reader) (*Base, error) {
	var f fileFormat
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode knowledge base: %w", err)
	}

	entries := make([]core.KnowledgeEntry, len(f.Entries))
	for i, e := range f.Entries {
		entries[i] = core.KnowledgeEntry{
			Key:      e.Key,
			Answer:   e.Answer,
			Category: e.Category,
			Aliases:  e.Aliases,
		}
	}
	return NewBase(entries, f.Phrases, f.Keywords, f.Solutions...)
}

// LoadFile reads a knowledge base from a YAML file.
func LoadFile(path string) (*Base, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open knowledge base: %w", err)
	}
	defer f.Close()
	return Load(f)
}

var builtin = sync.OnceValues(func() (*Base, error) {
	return Load(bytes.NewReader(builtinData))
})

// Builtin returns the curated knowledge base compiled into the binary.
// It is parsed once and shared.
func Builtin() (*Base, error) {
	return builtin()
}
