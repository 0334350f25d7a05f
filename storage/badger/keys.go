package badger

import (
	"encoding/binary"

	"github.com/poiesic/specter/core"
)

// Key prefixes for different data types
const (
	embeddingRecordPrefix = "embrec:"
	generationKey         = "embmeta:gen"
)

// makeGenerationPrefix generates the key prefix shared by all records of a generation.
// Format: prefix:generation
func makeGenerationPrefix(gen uint64) []byte {
	buf := make([]byte, len(embeddingRecordPrefix)+8)
	offset := copy(buf, embeddingRecordPrefix)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], gen)
	return buf
}

// makeRecordKey generates a composite key for an embedding record.
// Format: prefix:generation:id
func makeRecordKey(gen uint64, id core.ID) []byte {
	buf := make([]byte, len(embeddingRecordPrefix)+16)
	offset := copy(buf, embeddingRecordPrefix)
	binary.BigEndian.PutUint64(buf[offset:], gen)
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}
