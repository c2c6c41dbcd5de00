package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedRecord marks a raw row that could not be normalized.
	ErrMalformedRecord = errors.New("malformed record")

	// ErrNotFound is returned when a subscription id is absent from a result set.
	ErrNotFound = errors.New("subscription not found")
)

// MalformedRecordError describes why a single row was dropped.
// Line is 1-based; 0 means the position is unknown.
type MalformedRecordError struct {
	Line   int
	Reason string
}

func (e *MalformedRecordError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s: line %d: %s", ErrMalformedRecord, e.Line, e.Reason)
	}
	return fmt.Sprintf("%s: %s", ErrMalformedRecord, e.Reason)
}

func (e *MalformedRecordError) Unwrap() error {
	return ErrMalformedRecord
}
