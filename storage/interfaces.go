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
	"context"
	"time"

	"github.com/poiesic/specter/core"
)

// Neighbor is a record returned from a nearest neighbor query.
// Distance is cosine distance in [0, 2]; smaller means more similar.
type Neighbor struct {
	Record   *core.EmbeddingRecord
	Distance float64
}

// VectorIndex stores embedding records and answers nearest neighbor queries.
// Implementations must be thread-safe and support concurrent readers.
type VectorIndex interface {
	// Query returns up to topK records closest to vector, nearest first.
	// An empty index returns an empty slice and no error.
	Query(ctx context.Context, vector []float32, topK int) ([]Neighbor, error)

	// Upsert adds records, replacing any existing record with the same ID.
	// Records with ID=0 are assigned core.RecordID of their content.
	// Sets InsertedAt if not already set.
	Upsert(ctx context.Context, records ...*core.EmbeddingRecord) error

	// Replace atomically swaps the entire index contents for records.
	Replace(ctx context.Context, records ...*core.EmbeddingRecord) error

	// Delete removes records by ID. Missing IDs are ignored.
	Delete(ctx context.Context, ids ...core.ID) error

	// Count returns the number of stored records.
	Count(ctx context.Context) (int, error)

	// ForEach calls fn with batches of up to batchSize records, in storage order.
	// Iteration stops at the first error returned by fn.
	ForEach(ctx context.Context, batchSize int, fn func([]*core.EmbeddingRecord) error) error

	// Close releases resources held by the index.
	Close() error
}

// PrepareRecords validates records and fills in their ID and InsertedAt fields.
func PrepareRecords(records []*core.EmbeddingRecord, now time.Time) error {
	for _, record := range records {
		if err := core.ValidateEmbeddingRecord(record); err != nil {
			return err
		}
		if record.Id == 0 {
			record.Id = core.RecordID(record.SourceText, record.Metadata)
		}
		if record.InsertedAt.IsZero() {
			record.InsertedAt = now
		}
	}
	return nil
}
