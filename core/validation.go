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

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxQuestionLength is the maximum number of runes accepted in a single message.
const MaxQuestionLength = 4000

// ValidateQuestion validates an incoming user message.
//
// Validation rules:
//   - Message must contain at least one non-whitespace character
//   - Message must not exceed MaxQuestionLength runes
func ValidateQuestion(message string) error {
	if strings.TrimSpace(message) == "" {
		return ErrEmptyQuestion
	}
	if n := utf8.RuneCountInString(message); n > MaxQuestionLength {
		return fmt.Errorf("%w: %d runes exceeds %d", ErrQuestionTooLong, n, MaxQuestionLength)
	}
	return nil
}

// ValidateEmbeddingRecord validates an EmbeddingRecord according to domain rules.
//
// Validation rules:
//   - SourceText must not be empty
//   - Vector must not be empty
//
// NOT validated:
//   - ID (computed by the index from content when zero)
//   - Metadata (optional)
func ValidateEmbeddingRecord(record *EmbeddingRecord) error {
	if record == nil {
		return fmt.Errorf("%w: record is nil", ErrInvalidEmbeddingRecord)
	}

	if strings.TrimSpace(record.SourceText) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidEmbeddingRecord, ErrEmptyContent)
	}

	if len(record.Vector) == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidEmbeddingRecord, ErrEmptyVector)
	}

	return nil
}

// ValidateKnowledgeEntry validates a KnowledgeEntry.
func ValidateKnowledgeEntry(entry *KnowledgeEntry) error {
	if entry == nil {
		return fmt.Errorf("%w: entry is nil", ErrInvalidKnowledgeEntry)
	}

	if strings.TrimSpace(entry.Key) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidKnowledgeEntry, ErrEmptyKey)
	}

	if strings.TrimSpace(entry.Answer) == "" {
		return fmt.Errorf("%w: %s: %w", ErrInvalidKnowledgeEntry, entry.Key, ErrEmptyContent)
	}

	return nil
}
