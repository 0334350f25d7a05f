package mock

import (
	"context"
	"sync"

	"github.com/poiesic/specter/ai"
)

// MockGenerator is a test double for ai.Generator.
type MockGenerator struct {
	// GenerateFunc is called by Generate if set.
	// If nil, returns "<name>: <prompt.User>".
	GenerateFunc func(ctx context.Context, prompt ai.Prompt) (string, error)

	name      string
	mu        sync.Mutex
	callCount int
	prompts   []ai.Prompt
}

// NewMockGenerator creates a mock generator reporting itself as name.
func NewMockGenerator(name string) *MockGenerator {
	return &MockGenerator{name: name}
}

// NewFailingGenerator creates a mock generator whose every call fails with err.
func NewFailingGenerator(name string, err error) *MockGenerator {
	m := NewMockGenerator(name)
	m.GenerateFunc = func(context.Context, ai.Prompt) (string, error) {
		return "", err
	}
	return m
}

// Name returns the configured provider name.
func (m *MockGenerator) Name() string {
	return m.name
}

// Generate records the prompt and returns the scripted answer.
func (m *MockGenerator) Generate(ctx context.Context, prompt ai.Prompt) (string, error) {
	m.mu.Lock()
	m.callCount++
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()

	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, prompt)
	}
	return m.name + ": " + prompt.User, nil
}

// CallCount returns the number of Generate calls.
func (m *MockGenerator) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// Prompts returns the prompts received, in call order.
func (m *MockGenerator) Prompts() []ai.Prompt {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ai.Prompt(nil), m.prompts...)
}

// Reset clears recorded calls and injected behavior.
func (m *MockGenerator) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
	m.prompts = nil
	m.GenerateFunc = nil
}
