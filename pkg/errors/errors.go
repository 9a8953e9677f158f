// Package errors defines the error types shared across the sync engine.
// Errors are wrapped with context as they propagate so that the final
// message reads as a chain of operations, e.g.
// "list spaces: get http://...: connection refused".
package errors

import (
	"errors"
	"fmt"
)

// ErrContentChanged is returned when a downloaded file's contents don't
// match what the tree listing promised, i.e. the file changed on the remote
// mid-sync. Retrying with a fresh listing resolves it.
var ErrContentChanged = New("file contents changed during sync")

// New returns an error with the given message.
func New(msg string) error {
	return errors.New(msg)
}

// ContextError annotates an error with the operation that caused it.
type ContextError struct {
	Context string
	Err     error
}

// WithContext wraps err with a description of the operation that failed.
func WithContext(err error, context string) error {
	return ContextError{Context: context, Err: err}
}

func (err ContextError) Error() string {
	return fmt.Sprintf("%s: %s", err.Context, err.Err)
}

// Unwrap returns the wrapped error.
func (err ContextError) Unwrap() error {
	return err.Err
}

// RootCause unwraps err until it reaches the error that started the chain.
func RootCause(err error) error {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
}

// FriendlyError is an error with a message meant to be read by the operator
// directly, without any wrapping context prepended.
type FriendlyError struct {
	Message string
}

// NewFriendlyError creates an error that is printed to the operator verbatim.
func NewFriendlyError(format string, args ...interface{}) error {
	return FriendlyError{Message: fmt.Sprintf(format, args...)}
}

func (err FriendlyError) Error() string {
	return err.Message
}

// GetPrintableMessage returns the message that should be shown to the
// operator for the given error.
func GetPrintableMessage(err error) string {
	var friendly FriendlyError
	if errors.As(err, &friendly) {
		return friendly.Message
	}
	return err.Error()
}
