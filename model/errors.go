package model

import "errors"

var (
	// ErrInvalidInput is returned for binary or non-UTF-8 text, unknown enum
	// values and missing identifiers.
	ErrInvalidInput = errors.New("invalid input")
	// ErrConflict is returned when a file already has a pending diff event.
	ErrConflict = errors.New("conflict")
	// ErrNotFound is returned for unknown event, line or version identifiers.
	ErrNotFound = errors.New("not found")
	// ErrInvalidState is returned when an operation does not apply to the
	// current state of an event or line.
	ErrInvalidState = errors.New("invalid state")
	// ErrSuperseded is returned to a diff request replaced by a newer request
	// for the same file.
	ErrSuperseded = errors.New("superseded by a newer request")
)
