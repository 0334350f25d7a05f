package retrieval

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/poiesic/specter/storage"
)

// State is the lifecycle state of a Handle.
type State int

const (
	StateUninitialized State = iota
	StateReady
	StateUnavailable
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateUnavailable:
		return "unavailable"
	default:
		return "uninitialized"
	}
}

// DefaultOpenTimeout bounds opening the index.
const DefaultOpenTimeout = 5 * time.Second

// Opener opens the vector index.
type Opener func(ctx context.Context) (storage.VectorIndex, error)

// Handle opens the vector index on first use and memoizes the outcome.
// A failed open is permanent: the handle reports StateUnavailable and
// Get returns ErrUnavailable without retrying.
type Handle struct {
	open        Opener
	openTimeout time.Duration
	mu          sync.Mutex
	state       State
	index       storage.VectorIndex
	err         error
	logger      *slog.Logger
}

// HandleOption configures a Handle.
type HandleOption func(*Handle)

// WithOpenTimeout bounds how long the first Get waits for the index.
// Non-positive values keep DefaultOpenTimeout.
func WithOpenTimeout(d time.Duration) HandleOption {
	return func(h *Handle) {
		if d > 0 {
			h.openTimeout = d
		}
	}
}

// NewHandle creates a handle that calls open on first use.
func NewHandle(open Opener, logger *slog.Logger, opts ...HandleOption) *Handle {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handle{
		open:        open,
		openTimeout: DefaultOpenTimeout,
		logger:      logger.With("component", "index-handle"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// NewReadyHandle wraps an already opened index.
func NewReadyHandle(index storage.VectorIndex) *Handle {
	return &Handle{
		state:  StateReady,
		index:  index,
		logger: slog.Default().With("component", "index-handle"),
	}
}

// Get returns the index, opening it if needed. The open is bounded by the
// handle's open timeout; cancelling ctx does not abort it.
func (h *Handle) Get(ctx context.Context) (storage.VectorIndex, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	switch h.state {
	case StateReady:
		return h.index, nil
	case StateUnavailable:
		return nil, h.err
	}

	if h.open == nil {
		h.markUnavailable(errors.New("no index configured"))
		return nil, h.err
	}
	octx, cancel := context.WithTimeout(context.WithoutCancel(ctx), h.openTimeout)
	defer cancel()
	index, err := h.open(octx)
	if err == nil && index == nil {
		err = errors.New("opener returned nil index")
	}
	if err != nil {
		h.markUnavailable(err)
		return nil, h.err
	}

	h.index = index
	h.state = StateReady
	if count, err := index.Count(octx); err == nil {
		if count == 0 {
			h.logger.Warn("vector index is empty; run ingest to populate it")
		} else {
			h.logger.Info("vector index ready", "records", count)
		}
	}
	return index, nil
}

func (h *Handle) markUnavailable(cause error) {
	h.state = StateUnavailable
	h.err = errors.Join(ErrUnavailable, cause)
	h.logger.Error("vector index unavailable; similarity lookups disabled", "err", cause)
}

// State returns the current state.
func (h *Handle) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Close closes the index if it was opened.
func (h *Handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state != StateReady || h.index == nil {
		return nil
	}
	err := h.index.Close()
	h.index = nil
	h.state = StateUnavailable
	h.err = errors.Join(ErrUnavailable, storage.ErrStorageClosed)
	return err
}
