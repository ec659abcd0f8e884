package models

import "errors"

// Error taxonomy surfaced by the lifecycle and repository layers.
var (
	// ErrNotFound means the referenced complaint or ticket does not exist.
	ErrNotFound = errors.New("not found")

	// ErrStateConflict means a confirm/cancel hit a complaint that already
	// left the draft state. No state is changed.
	ErrStateConflict = errors.New("state conflict")

	// ErrWriteConflict means a conditional repository write affected no rows,
	// typically because a concurrent request won. Retryable.
	ErrWriteConflict = errors.New("write conflict")

	// ErrClassifierUnavailable means a classification call failed. Analyzers
	// degrade to score 0 on it; it is never fatal to an evaluation.
	ErrClassifierUnavailable = errors.New("classifier unavailable")
)
