package retrieval

import "errors"

var (
	// ErrEmbedderRequired is returned when a nil embedder is passed to NewRetriever.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrHandleRequired is returned when a nil handle is passed to NewRetriever.
	ErrHandleRequired = errors.New("index handle required")

	// ErrInvalidThreshold is returned for thresholds outside [0, 1].
	ErrInvalidThreshold = errors.New("threshold must be between 0 and 1")

	// ErrInvalidTopK is returned for a top-k below 1.
	ErrInvalidTopK = errors.New("top-k must be at least 1")

	// ErrUnavailable is returned by Handle.Get once the index failed to open.
	ErrUnavailable = errors.New("vector index unavailable")
)
