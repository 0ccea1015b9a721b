package service

import (
	"errors"
	"fmt"
)

// Error kinds. Match them with errors.Is; read the caller-safe message with errors.As on *Error.
var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrStorage    = errors.New("storage provider error")
)

// Error is a classified failure. Message is safe to show to API clients;
// Err keeps the underlying cause for logs.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func validationError(msg string) error {
	return &Error{Kind: ErrValidation, Message: msg}
}

func notFoundError(msg string) error {
	return &Error{Kind: ErrNotFound, Message: msg}
}

func conflictError(msg string, err error) error {
	return &Error{Kind: ErrConflict, Message: msg, Err: err}
}

func storageError(op string, err error) error {
	return &Error{Kind: ErrStorage, Message: op, Err: err}
}

// Message returns the caller-safe message of a classified error, or "" otherwise.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return ""
}
