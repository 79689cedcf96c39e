package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyReplies is returned when the next replies page has no anchor.
	ErrEmptyReplies = errors.New("no replies loaded to page after")
	// ErrMessageNotFound is returned when the remote authority has no such message.
	ErrMessageNotFound = errors.New("message not found")
)

// ValidationError reports malformed caller input. It never reaches the gateway.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
