// Package blenderr defines the error taxonomy shared across the blend
// pipeline. Callers classify failures with errors.Is against the sentinels
// below rather than matching on message text.
package blenderr

import "errors"

var (
	// ErrIO covers opening, reading, or writing image or temporary files.
	ErrIO = errors.New("multiblend: i/o error")

	// ErrFormat covers an input image with mismatched dimensions or an
	// incompatible channel layout relative to input #1.
	ErrFormat = errors.New("multiblend: format error")

	// ErrArgs covers a missing output path, no inputs, or an out-of-range
	// option.
	ErrArgs = errors.New("multiblend: argument error")

	// ErrOOM covers an allocation failure for a row buffer, pyramid level,
	// or TileStore page.
	ErrOOM = errors.New("multiblend: out of memory")

	// ErrEmptyOverlay signals an overlay that adds no new pixels to the
	// composite. It is diagnostic, not fatal: the caller logs it and skips
	// the overlay.
	ErrEmptyOverlay = errors.New("multiblend: overlay is redundant")
)

// Wrap annotates err with msg and marks it as belonging to the given
// taxonomy sentinel, so that errors.Is(wrapped, sentinel) still succeeds.
func Wrap(sentinel error, msg string, err error) error {
	if err == nil {
		return &taggedError{sentinel: sentinel, msg: msg}
	}
	return &taggedError{sentinel: sentinel, msg: msg, cause: err}
}

type taggedError struct {
	sentinel error
	msg      string
	cause    error
}

func (e *taggedError) Error() string {
	if e.cause == nil {
		return e.msg
	}
	return e.msg + ": " + e.cause.Error()
}

func (e *taggedError) Unwrap() error {
	if e.cause != nil {
		return e.cause
	}
	return e.sentinel
}

func (e *taggedError) Is(target error) bool {
	return target == e.sentinel
}
