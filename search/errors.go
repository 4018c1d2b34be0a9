package search

import (
	"errors"
	"fmt"
)

// ErrInternalRanking wraps any unexpected failure while scoring a query
var ErrInternalRanking = errors.New("internal ranking error")

// ErrNotReady is returned when a searcher is built before the corpus is published
var ErrNotReady = errors.New("record store is not ready")

// ClientInputError reports a malformed or out-of-range request parameter.
// Message is surfaced verbatim to the caller.
type ClientInputError struct {
	Message string
}

func (e *ClientInputError) Error() string {
	return e.Message
}

// NotFoundError reports a detail lookup for an unknown drug id
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("Drug not found: %s", e.ID)
}

func invalidInput(msg string) error {
	return &ClientInputError{Message: msg}
}
