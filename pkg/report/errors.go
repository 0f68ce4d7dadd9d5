package report

import (
	"errors"
	"fmt"
)

// Common errors returned by the generator.
var (
	// ErrInvalidPageBound is returned when the page bound is negative.
	ErrInvalidPageBound = errors.New("page bound must be >= 0")

	// ErrUnknownPolicy is returned for unrecognised OnPageError values.
	ErrUnknownPolicy = errors.New("unknown page error policy")

	// ErrNilFetcher is returned when no page fetcher is supplied.
	ErrNilFetcher = errors.New("page fetcher is required")
)

// PageError reports the page whose fetch failed a run under OnPageErrorAbort.
type PageError struct {
	Page int
	Err  error
}

// Error implements the error interface.
func (e *PageError) Error() string {
	return fmt.Sprintf("fetch page %d: %v", e.Page, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *PageError) Unwrap() error {
	return e.Err
}
