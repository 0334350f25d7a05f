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


package core

import "errors"

// Domain validation errors
var (
	// ErrEmptyQuestion indicates the incoming message was empty or whitespace.
	ErrEmptyQuestion = errors.New("message cannot be empty")

	// ErrQuestionTooLong indicates the incoming message exceeded MaxQuestionLength.
	ErrQuestionTooLong = errors.New("message is too long")

	// ErrInvalidEmbeddingRecord indicates an EmbeddingRecord failed validation.
	ErrInvalidEmbeddingRecord = errors.New("invalid embedding record")

	// ErrInvalidKnowledgeEntry indicates a KnowledgeEntry failed validation.
	ErrInvalidKnowledgeEntry = errors.New("invalid knowledge entry")

	// ErrEmptyContent indicates a text field is empty.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrEmptyVector indicates a record has no embedding.
	ErrEmptyVector = errors.New("vector cannot be empty")

	// ErrEmptyKey indicates a knowledge entry has no key.
	ErrEmptyKey = errors.New("key cannot be empty")

	// ErrUnknownCategory indicates a category name could not be parsed.
	ErrUnknownCategory = errors.New("unknown category")
)
