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

import "errors"

// Errors returned by VectorIndex implementations and the record codec.
var (
	// ErrStorageClosed is returned by operations on a closed index.
	ErrStorageClosed = errors.New("storage is closed")

	// ErrInvalidQuery is returned for a non-positive top-k or batch size, or an empty query vector.
	ErrInvalidQuery = errors.New("invalid query parameters")

	// ErrDimensionMismatch is returned when a vector's length differs from the index's.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrSerializationFailed wraps record encode and decode failures.
	ErrSerializationFailed = errors.New("serialization failed")

	// ErrTruncatedData is returned when an encoded record ends early.
	ErrTruncatedData = errors.New("truncated data")
)
