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


// Package storage provides the vector index abstraction for specter.
//
// The VectorIndex interface decouples nearest neighbor search from the
// backend holding the embeddings. Two backends are provided:
//
//   - storage/badger: embedded BadgerDB store with a brute force cosine scan
//   - storage/pgvector: PostgreSQL with the pgvector extension
//
// Constructors return storage.VectorIndex:
//
//	index, err := badger.NewIndex("./data/index")
//	index, err := pgvector.Open(ctx, pgvector.Config{DSN: dsn, Dimensions: 768})
//
// badger.NewMemoryIndex gives a throwaway index for tests.
//
// Records are keyed by core.ID. Replace swaps the whole contents in one
// step so readers never observe a half rebuilt index.
//
// # Distances
//
// Every backend reports cosine distance in [0, 2]. Conversion to a
// similarity score happens in the retrieval package, never here.
//
// # Thread Safety
//
// All index implementations must be safe for concurrent use.
package storage
