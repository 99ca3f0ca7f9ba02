// Package storekv provides the key-value persistence layer underneath the
// graph store.
//
// The storage layer is designed around one narrow contract (put, get,
// delete, prefix-scan, and atomic batch) so that the graph store (package
// graphstore) never has to know whether it is talking to RAM or to disk.
//
// Design Principles:
//   - A single key space with string prefixes ("n:", "e:", "m:")
//   - Lexicographically sortable, fixed-width big-endian id encoding so
//     prefix scans come back in ascending-id order for free
//   - Crash-safe batches: a write_batch is applied in full or not at all
//
// Example Usage:
//
//	backend := storekv.NewMemoryBackend()
//	defer backend.Close()
//
//	if err := backend.Put([]byte("n:\x00\x00\x00\x00\x00\x00\x00\x01"), payload); err != nil {
//		log.Fatal(err)
//	}
//
//	it := backend.ScanPrefix([]byte("n:"))
//	for it.Next() {
//		fmt.Println(it.Key(), it.Value())
//	}
package storekv

import "errors"

// Sentinel errors returned by Backend implementations. Callers should use
// errors.Is against these rather than matching on message text.
var (
	// ErrNotFound is returned by Get for a key that does not exist. It is
	// never wrapped around an I/O failure: a missing key is absence, not
	// an error condition, per the storage contract.
	ErrNotFound = errors.New("storekv: key not found")

	// ErrClosed is returned by any operation attempted after Close.
	ErrClosed = errors.New("storekv: backend closed")

	// ErrBatchFailed is returned when a WriteBatch is rejected by the
	// backend. The backend is guaranteed unchanged when this is returned.
	ErrBatchFailed = errors.New("storekv: batch failed")
)

// MutationKind distinguishes the two operations a Batch may contain.
type MutationKind int

const (
	// MutationPut upserts Key to Value.
	MutationPut MutationKind = iota
	// MutationDelete removes Key if present; deleting an absent key is a
	// no-op, not an error.
	MutationDelete
)

// Mutation is one element of an atomic Batch passed to WriteBatch.
type Mutation struct {
	Kind  MutationKind
	Key   []byte
	Value []byte // unused for MutationDelete
}

// Batch is an ordered list of mutations applied atomically by WriteBatch.
// Mutations are applied in slice order; a later mutation to the same key
// overrides an earlier one within the same batch.
type Batch []Mutation

// Put appends a put mutation and returns the batch for chaining.
func (b Batch) Put(key, value []byte) Batch {
	return append(b, Mutation{Kind: MutationPut, Key: key, Value: value})
}

// Delete appends a delete mutation and returns the batch for chaining.
func (b Batch) Delete(key []byte) Batch {
	return append(b, Mutation{Kind: MutationDelete, Key: key})
}

// Iterator walks key/value pairs returned by ScanPrefix in ascending key
// order. Callers must call Close once done, even after a partial scan.
type Iterator interface {
	// Next advances the iterator and reports whether a pair is available.
	Next() bool
	// Key returns the current key. Valid only after a Next that returned true.
	Key() []byte
	// Value returns the current value. Valid only after a Next that returned true.
	Value() []byte
	// Err returns any error encountered during iteration.
	Err() error
	// Close releases resources held by the iterator.
	Close() error
}

// Backend is the storage contract underneath the graph store: opaque
// key/value persistence with batch writes and prefix scans.
//
// All Backend implementations must be:
//   - Safe for concurrent use by multiple readers and one writer at a time
//     (graphstore enforces the single-writer discipline above this layer)
//   - Atomic on WriteBatch: a batch is applied in full or not at all, and a
//     crash mid-batch must leave the backend as if the batch never started
//
// Implementations: MemoryBackend (ordered map, not durable) and
// BadgerBackend (embedded on-disk store with its own write-ahead log).
type Backend interface {
	// Put upserts key to value.
	Put(key, value []byte) error

	// Get returns the value for key, or ErrNotFound if absent. Get never
	// returns an error for a missing key, only for genuine I/O failure.
	Get(key []byte) ([]byte, error)

	// Delete removes key. Deleting an absent key is not an error.
	Delete(key []byte) error

	// ScanPrefix returns an iterator over all keys with the given prefix,
	// in ascending lexicographic order.
	ScanPrefix(prefix []byte) Iterator

	// WriteBatch applies every mutation in batch atomically. On failure the
	// backend is left exactly as it was before the call.
	WriteBatch(batch Batch) error

	// Flush forces every acknowledged write down to the backend's durable
	// medium. A no-op for backends with nothing to sync.
	Flush() error

	// Close flushes any pending writes and releases backend resources.
	// Close is idempotent; calling it twice is not an error.
	Close() error
}
