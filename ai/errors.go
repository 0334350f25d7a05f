package ai

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

var (
	// ErrCredentialsMissing is returned when a hosted provider has no API key.
	ErrCredentialsMissing = errors.New("provider credentials missing")

	// ErrEmptyResponse is returned when a model answers with no text.
	ErrEmptyResponse = errors.New("empty response from model")

	// ErrConfigRequired is returned when a constructor receives a nil config.
	ErrConfigRequired = errors.New("ai config required")
)

// ErrorKind classifies provider failures.
type ErrorKind int

const (
	KindUpstream ErrorKind = iota
	KindTimeout
	KindAuth
	KindInvalidResponse
	KindUnavailable
)

func (k ErrorKind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindAuth:
		return "auth"
	case KindInvalidResponse:
		return "invalid_response"
	case KindUnavailable:
		return "unavailable"
	default:
		return "upstream"
	}
}

// ProviderError reports a failed call to an AI provider.
type ProviderError struct {
	Provider string
	Kind     ErrorKind
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Provider, e.Kind, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewProviderError wraps err for provider, classifying it with Classify.
// A nil err yields nil. Errors that already are *ProviderError are returned as is.
func NewProviderError(provider string, err error) error {
	if err == nil {
		return nil
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		return err
	}
	return &ProviderError{Provider: provider, Kind: Classify(err), Err: err}
}

// Classify maps an error from an AI client to an ErrorKind.
func Classify(err error) ErrorKind {
	var pe *ProviderError
	switch {
	case errors.As(err, &pe):
		return pe.Kind
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case errors.Is(err, ErrCredentialsMissing):
		return KindAuth
	case errors.Is(err, ErrEmptyResponse):
		return KindInvalidResponse
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return KindTimeout
		}
		return KindUnavailable
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "401"), strings.Contains(msg, "403"),
		strings.Contains(msg, "unauthorized"), strings.Contains(msg, "api key"):
		return KindAuth
	case strings.Contains(msg, "connection refused"), strings.Contains(msg, "no such host"),
		strings.Contains(msg, "503"):
		return KindUnavailable
	case strings.Contains(msg, "timeout"):
		return KindTimeout
	}
	return KindUpstream
}
