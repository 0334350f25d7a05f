package mock

import (
	"context"
	"sync"
)

// MockTranslator is a test double for ai.Translator.
type MockTranslator struct {
	// TranslateFunc is called by Translate if set.
	// If nil, returns "[<language>] <text>".
	TranslateFunc func(ctx context.Context, text, language string) (string, error)

	mu        sync.Mutex
	callCount int
}

// NewMockTranslator creates a mock translator with default behavior.
func NewMockTranslator() *MockTranslator {
	return &MockTranslator{}
}

// Translate returns the scripted translation.
func (m *MockTranslator) Translate(ctx context.Context, text, language string) (string, error) {
	m.mu.Lock()
	m.callCount++
	m.mu.Unlock()

	if m.TranslateFunc != nil {
		return m.TranslateFunc(ctx, text, language)
	}
	return "[" + language + "] " + text, nil
}

// CallCount returns the number of Translate calls.
func (m *MockTranslator) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// Reset clears the call count and injected behavior.
func (m *MockTranslator) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
	m.TranslateFunc = nil
}
