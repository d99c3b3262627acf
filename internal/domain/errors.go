package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for contract violations. Callers match with errors.Is.
var (
	// ErrProductNotFound signals that an event has no non-deleted
	// submissions of a requested product type, or that a named source
	// contributed none.
	ErrProductNotFound = errors.New("product not found")

	// ErrProductNotSpecified signals that an operation needing a single
	// unambiguous product type was given an event carrying several.
	ErrProductNotSpecified = errors.New("product type not specified")

	// ErrArgumentConflict signals a mutually exclusive filter combination,
	// such as a bounding box together with a search radius.
	ErrArgumentConflict = errors.New("conflicting filter arguments")

	// ErrInvalidRange signals a time range whose start is after its end.
	ErrInvalidRange = errors.New("invalid time range")

	// ErrContentNotFound signals that no content file of a resolved
	// product matched the requested pattern.
	ErrContentNotFound = errors.New("content not found")
)

// ConnError reports a transport-level failure (network error, timeout, or a
// non-2xx response that survived the retry budget) for a specific URL.
type ConnError struct {
	URL string
	Err error
}

func (e *ConnError) Error() string {
	return fmt.Sprintf("connection error for %s: %v", e.URL, e.Err)
}

func (e *ConnError) Unwrap() error { return e.Err }

// ParseError reports a malformed or unexpectedly shaped document from an
// otherwise successful response.
type ParseError struct {
	URL string
	Err error
}

func (e *ParseError) Error() string {
	if e.URL == "" {
		return fmt.Sprintf("parse error: %v", e.Err)
	}
	return fmt.Sprintf("parse error for %s: %v", e.URL, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
