package codegraph

import (
	"errors"

	"github.com/codegraph/codegraph/pkg/algorithms"
	"github.com/codegraph/codegraph/pkg/graphstore"
)

// ErrClosed is returned by any Graph method called after Close.
var ErrClosed = errors.New("codegraph: graph closed")

// Error wraps a failure from one of the underlying packages (graphstore,
// algorithms, graphexport) with a stable, string-typed classification a
// caller can branch on without importing those packages directly.
type Error struct {
	kind string
	err  error
}

// Error implements the error interface, returning the wrapped error's text.
func (e *Error) Error() string { return e.err.Error() }

// Unwrap lets errors.Is/errors.As see through to the original sentinel.
func (e *Error) Unwrap() error { return e.err }

// Kind reports a stable classification: "not_found", "invalid_argument",
// "closed", "depth_exceeded", or "storage". New values may be added; callers should not treat
// this as an exhaustive switch.
func (e *Error) Kind() string { return e.kind }

// classify wraps a non-nil error from graphstore or algorithms into an
// *Error carrying the right Kind, or returns nil unchanged.
func classify(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, ErrClosed):
		return &Error{kind: "closed", err: err}
	case errors.Is(err, graphstore.ErrNotFound):
		return &Error{kind: "not_found", err: err}
	case errors.Is(err, graphstore.ErrInvalidArgument), errors.Is(err, algorithms.ErrInvalidArgument):
		return &Error{kind: "invalid_argument", err: err}
	case errors.Is(err, algorithms.ErrDepthExceeded):
		return &Error{kind: "depth_exceeded", err: err}
	default:
		return &Error{kind: "storage", err: err}
	}
}
