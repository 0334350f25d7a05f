// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package storage

import (
	"fmt"
	"slices"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/specter/core"
)

// Wire layout of an embedding record:
//
//	id          varint uint64
//	vector      varint length, then raw float32 values
//	source text ord string
//	metadata    varint length, then key/value ord string pairs sorted by key
//	inserted at varint int64 unix microseconds

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, varint.Uint64.Size(uint64(id)))
	varint.Uint64.Marshal(uint64(id), buf)
	return buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	id, _, err := varint.Uint64.Unmarshal(data)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return core.ID(id), nil
}

// MarshalEmbeddingRecord serializes an EmbeddingRecord to bytes.
func MarshalEmbeddingRecord(record *core.EmbeddingRecord) []byte {
	keys := sortedKeys(record.Metadata)
	buf := make([]byte, recordSize(record, keys))

	n := varint.Uint64.Marshal(uint64(record.Id), buf)
	n += varint.Int.Marshal(len(record.Vector), buf[n:])
	for _, v := range record.Vector {
		n += raw.Float32.Marshal(v, buf[n:])
	}
	n += ord.String.Marshal(record.SourceText, buf[n:])
	n += varint.Int.Marshal(len(keys), buf[n:])
	for _, k := range keys {
		n += ord.String.Marshal(k, buf[n:])
		n += ord.String.Marshal(record.Metadata[k], buf[n:])
	}
	varint.Int64.Marshal(insertedAtMicros(record.InsertedAt), buf[n:])
	return buf
}

// UnmarshalEmbeddingRecord deserializes an EmbeddingRecord from bytes.
func UnmarshalEmbeddingRecord(data []byte) (*core.EmbeddingRecord, error) {
	record := &core.EmbeddingRecord{}

	id, n, err := varint.Uint64.Unmarshal(data)
	if err != nil {
		return nil, wrapDecode("id", err)
	}
	record.Id = core.ID(id)
	off := n

	dims, n, err := varint.Int.Unmarshal(data[off:])
	if err != nil {
		return nil, wrapDecode("vector length", err)
	}
	off += n
	if dims < 0 || dims*4 > len(data)-off {
		return nil, fmt.Errorf("%w: vector length %d", ErrTruncatedData, dims)
	}
	if dims > 0 {
		record.Vector = make([]float32, dims)
		for i := range record.Vector {
			record.Vector[i], n, err = raw.Float32.Unmarshal(data[off:])
			if err != nil {
				return nil, wrapDecode("vector", err)
			}
			off += n
		}
	}

	record.SourceText, n, err = ord.String.Unmarshal(data[off:])
	if err != nil {
		return nil, wrapDecode("source text", err)
	}
	off += n

	pairs, n, err := varint.Int.Unmarshal(data[off:])
	if err != nil {
		return nil, wrapDecode("metadata length", err)
	}
	off += n
	if pairs < 0 || pairs > len(data)-off {
		return nil, fmt.Errorf("%w: metadata length %d", ErrTruncatedData, pairs)
	}
	if pairs > 0 {
		record.Metadata = make(map[string]string, pairs)
		for range pairs {
			k, n, err := ord.String.Unmarshal(data[off:])
			if err != nil {
				return nil, wrapDecode("metadata key", err)
			}
			off += n
			v, n, err := ord.String.Unmarshal(data[off:])
			if err != nil {
				return nil, wrapDecode("metadata value", err)
			}
			off += n
			record.Metadata[k] = v
		}
	}

	micros, _, err := varint.Int64.Unmarshal(data[off:])
	if err != nil {
		return nil, wrapDecode("inserted at", err)
	}
	if micros != 0 {
		record.InsertedAt = time.UnixMicro(micros).UTC()
	}

	return record, nil
}

func recordSize(record *core.EmbeddingRecord, keys []string) int {
	size := varint.Uint64.Size(uint64(record.Id))
	size += varint.Int.Size(len(record.Vector))
	for _, v := range record.Vector {
		size += raw.Float32.Size(v)
	}
	size += ord.String.Size(record.SourceText)
	size += varint.Int.Size(len(keys))
	for _, k := range keys {
		size += ord.String.Size(k)
		size += ord.String.Size(record.Metadata[k])
	}
	size += varint.Int64.Size(insertedAtMicros(record.InsertedAt))
	return size
}

func insertedAtMicros(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMicro()
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func wrapDecode(field string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrSerializationFailed, field, err)
}
