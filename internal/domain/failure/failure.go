// Package failure is the error taxonomy shared by every stage of the fulfillment pipeline.
// A stage never lets a raw transport error cross its boundary: it converts it into an *Error
// with a category that callers (and the HTTP layer) can branch on.
package failure

import (
	"errors"
	"fmt"
)

type Category string

const (
	// Validation: a required field is missing or malformed. Resolved locally, never retried.
	Validation Category = "validation"
	// Capacity: not enough stock. A legitimate business outcome, never retried automatically.
	Capacity Category = "capacity"
	// Fraud: the fraud evaluator flagged the transaction.
	Fraud Category = "fraud"
	// Downstream: a dependent service could not be reached, timed out or failed.
	Downstream Category = "downstream"
)

// ErrUnreachable marks a transport-level failure (connection refused, timeout) as opposed to a
// dependent service answering with a failure status.
var ErrUnreachable = errors.New("downstream unreachable")

type Error struct {
	Category Category
	Message  string
	Err      error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Category, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Category, e.Message, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func New(category Category, message string) *Error {
	return &Error{Category: category, Message: message}
}

func Wrap(category Category, message string, err error) *Error {
	return &Error{Category: category, Message: message, Err: err}
}

// CategoryOf returns the category of the first *Error in err's chain, or "" when there is none.
func CategoryOf(err error) Category {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Category
	}
	return ""
}

// MessageOf returns the human-readable message of the first *Error in err's chain, falling back to err.Error().
func MessageOf(err error) string {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

func Is(err error, category Category) bool {
	return err != nil && CategoryOf(err) == category
}
