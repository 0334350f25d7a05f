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


// Package resolve answers a single user message by running the full
// resolution pipeline:
//   - validation and normalization of the message
//   - answer cache lookup
//   - knowledge base matching (exact phrase, keyword, fuzzy overlap)
//   - vector retrieval behind a confidence gate
//   - the generation fallback chain
//   - composition (structured layout, translation)
//
// Only an empty message is an error. Every downstream failure degrades to
// the next stage, so a valid message always receives an answer.
package resolve
