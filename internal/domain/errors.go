package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrSchema signals a catalog source missing required structure. Fatal at load time.
	ErrSchema = errors.New("catalog schema error")
	// ErrMalformedRecord signals a record whose embedding or facets cannot be parsed.
	ErrMalformedRecord = errors.New("malformed record")
	// ErrCatalogEmpty signals that no usable records survived the load.
	ErrCatalogEmpty = errors.New("catalog is empty")
	// ErrCourseNotFound signals a missing course.
	ErrCourseNotFound = errors.New("course not found")
	// ErrDimensionMismatch signals a query embedding dimensionality disagreement.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
	// ErrDegenerateVector signals a zero-norm vector that cannot be normalized.
	ErrDegenerateVector = errors.New("degenerate vector")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
)

// MalformedRecordError wraps ErrMalformedRecord with the row position and cause.
type MalformedRecordError struct {
	Row    int
	Reason error
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("%s: row %d: %v", ErrMalformedRecord.Error(), e.Row, e.Reason)
}

func (e *MalformedRecordError) Unwrap() error { return ErrMalformedRecord }

// NewMalformedRecord creates a malformed record error for the given source row.
func NewMalformedRecord(row int, reason error) error {
	return &MalformedRecordError{Row: row, Reason: reason}
}
