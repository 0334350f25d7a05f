package badger

import "errors"

// ErrBackendRequired is returned when an index is created without a backend.
var ErrBackendRequired = errors.New("badger backend required")
