package trip

import (
	"context"
	"errors"
	"fmt"
)

// ValidationError marks malformed or out-of-range input. A bad proposal is
// recorded as a rejection and skipped; a bad TripSpec fails the run before
// any producer is called.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation: " + e.Msg
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Msg)
}

// ProducerError wraps a failed producer call for one day and category.
// Transient failures (timeouts, rate limits) are retried; everything else is
// recorded immediately and the category marked unresolved for that day.
type ProducerError struct {
	Category  Category
	Day       int
	Transient bool
	Err       error
}

func (e *ProducerError) Error() string {
	kind := "non-transient"
	if e.Transient {
		kind = "transient"
	}
	return fmt.Sprintf("producer %s (day %d, %s): %v", e.Category, e.Day, kind, e.Err)
}

func (e *ProducerError) Unwrap() error { return e.Err }

// ConsistencyError is an internal invariant violation, e.g. overlapping
// slots reaching the assembler. It indicates a bug in the resolver, not a
// data problem, and aborts the run.
type ConsistencyError struct {
	Day int
	Msg string
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("consistency: day %d: %s", e.Day, e.Msg)
}

// IsTransient reports whether err should be retried: an explicit transient
// ProducerError, or a timeout surfaced as context.DeadlineExceeded.
func IsTransient(err error) bool {
	var pe *ProducerError
	if errors.As(err, &pe) {
		return pe.Transient
	}
	return errors.Is(err, context.DeadlineExceeded)
}
