package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned by read-by-id when neither store holds the event.
var ErrNotFound = errors.New("event not found")

var (
	// ErrMirrorUnavailable marks a mirror operation skipped because no mirror is configured.
	ErrMirrorUnavailable = errors.New("mirror store unavailable")

	// ErrPredictorUnavailable marks a prediction skipped because no model is loaded.
	ErrPredictorUnavailable = errors.New("severity predictor unavailable")
)

// StorageError wraps a primary-store failure. Code holds the SQLSTATE when the
// driver reported one.
type StorageError struct {
	Op   string
	Code string
	Err  error
}

func (e *StorageError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("storage %s (sqlstate %s): %v", e.Op, e.Code, e.Err)
	}
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// ValidationError reports a create payload that could not be accepted.
type ValidationError struct {
	Fields []string // missing required fields
	Reason string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) > 0 {
		return "missing required fields: " + strings.Join(e.Fields, ", ")
	}
	return e.Reason
}
