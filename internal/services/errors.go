package services

import "errors"

var (
	// ErrStoreUnavailable means the store could not be read; the operation was aborted
	// before anything was written.
	ErrStoreUnavailable = errors.New("session store unavailable")
	// ErrWriteRejected means a single upsert or delete failed.
	ErrWriteRejected = errors.New("session store rejected write")
	// ErrParseFailure marks duration text that could not be interpreted. Metrics recover
	// from it by counting zero minutes.
	ErrParseFailure = errors.New("unparseable duration")
)

type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string { return "Validation error" }

type NotFoundError struct{ Message string }

func (e *NotFoundError) Error() string { return e.Message }
