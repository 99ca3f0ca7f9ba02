package graphstore

import "errors"

// Sentinel errors for the graph store layer. Package codegraph wraps
// these under a single Kind() accessor for callers that want to switch
// on a failure class rather than match error values directly.
var (
	// ErrNotFound is returned when a node or edge id is absent.
	ErrNotFound = errors.New("graphstore: not found")

	// ErrInvalidArgument is returned for malformed input such as an unknown
	// discriminator. An edge whose endpoint does not exist is reported
	// with ErrNotFound instead.
	ErrInvalidArgument = errors.New("graphstore: invalid argument")

	// ErrStorage wraps a backend I/O failure or schema-version mismatch.
	ErrStorage = errors.New("graphstore: storage error")

	// ErrBatchFailed is returned when an atomic batch is rejected by the
	// backend; the in-memory index is guaranteed untouched.
	ErrBatchFailed = errors.New("graphstore: batch failed")

	// ErrSchemaVersionMismatch is returned by Open when the on-disk
	// schema-version metadata does not match the version this build
	// expects.
	ErrSchemaVersionMismatch = errors.New("graphstore: schema version mismatch")
)
