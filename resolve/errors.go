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


package resolve

import "errors"

var (
	// ErrMatcherRequired is returned when a knowledge matcher is not provided.
	ErrMatcherRequired = errors.New("knowledge matcher required")

	// ErrChainRequired is returned when a generation chain is not provided.
	ErrChainRequired = errors.New("generation chain required")

	// ErrComposerRequired is returned when WithComposer is given nil.
	ErrComposerRequired = errors.New("composer required")
)
