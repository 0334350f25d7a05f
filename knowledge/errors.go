package knowledge

import "errors"

var (
	// ErrUnknownKey is returned when a phrase or keyword targets a key with no entry.
	ErrUnknownKey = errors.New("mapping targets unknown key")

	// ErrDuplicateKey is returned when two entries share a key.
	ErrDuplicateKey = errors.New("duplicate knowledge key")

	// ErrEmptyMapping is returned when a phrase or keyword has no text.
	ErrEmptyMapping = errors.New("mapping text is empty")

	// ErrInvalidSolution is returned for a solution without a key, title or topic.
	ErrInvalidSolution = errors.New("invalid legal solution")

	// ErrBaseRequired is returned when a nil base is passed to a constructor.
	ErrBaseRequired = errors.New("knowledge base required")
)
