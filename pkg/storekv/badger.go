package storekv

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

// BadgerBackend is the persistent, on-disk Backend, built on
// github.com/dgraph-io/badger/v4.
//
// Badger's own value log and manifest give us crash-safe batch semantics
// for free: a WriteBatch is committed as one Badger transaction, so a
// crash mid-commit leaves the on-disk state as if the transaction had
// never started, and a successful commit is durable across reopen.
//
// Example:
//
//	backend, err := storekv.NewBadgerBackend("./data/mygraph")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer backend.Close()
type BadgerBackend struct {
	db     *badger.DB
	closed bool
}

// BadgerOptions configures the persistent backend.
type BadgerOptions struct {
	// DataDir is the directory holding the backend's files. Required
	// unless InMemory is set.
	DataDir string

	// InMemory runs Badger in memory-only mode (used by tests that want
	// Badger's transactional semantics without touching disk).
	InMemory bool

	// SyncWrites forces an fsync on every commit. Slower, maximally durable.
	SyncWrites bool

	// Logger receives Badger's internal log output. Defaults to a quiet
	// logger (nil) so opening a graph doesn't spam stdout.
	Logger badger.Logger
}

// NewBadgerBackend opens (or creates) a persistent backend at dataDir.
func NewBadgerBackend(dataDir string) (*BadgerBackend, error) {
	return NewBadgerBackendWithOptions(BadgerOptions{DataDir: dataDir})
}

// NewBadgerBackendInMemory opens a Badger-backed backend with InMemory set,
// for tests that want transactional semantics without disk I/O.
func NewBadgerBackendInMemory() (*BadgerBackend, error) {
	return NewBadgerBackendWithOptions(BadgerOptions{InMemory: true})
}

// NewBadgerBackendWithOptions opens a backend with full control over
// Badger's tuning knobs.
func NewBadgerBackendWithOptions(opts BadgerOptions) (*BadgerBackend, error) {
	badgerOpts := badger.DefaultOptions(opts.DataDir)

	if opts.InMemory {
		badgerOpts = badgerOpts.WithInMemory(true)
	}
	if opts.SyncWrites {
		badgerOpts = badgerOpts.WithSyncWrites(true)
	}
	badgerOpts = badgerOpts.WithLogger(opts.Logger) // nil disables logging

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("storekv: open badger backend: %w", err)
	}

	return &BadgerBackend{db: db}, nil
}

func (b *BadgerBackend) Put(key, value []byte) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, value)
	})
	if err != nil {
		return fmt.Errorf("storekv: put: %w", err)
	}
	return nil
}

func (b *BadgerBackend) Get(key []byte) ([]byte, error) {
	var out []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			out = cloneBytes(val)
			return nil
		})
	})
	if errors.Is(err, ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("storekv: get: %w", err)
	}
	return out, nil
}

func (b *BadgerBackend) Delete(key []byte) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key)
	})
	if err != nil {
		return fmt.Errorf("storekv: delete: %w", err)
	}
	return nil
}

func (b *BadgerBackend) ScanPrefix(prefix []byte) Iterator {
	var pairs []memoryItem
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			key := cloneBytes(item.KeyCopy(nil))
			val, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			pairs = append(pairs, memoryItem{key: key, value: val})
		}
		return nil
	})
	if err != nil {
		return &sliceIterator{err: fmt.Errorf("storekv: scan: %w", err)}
	}
	return &sliceIterator{pairs: pairs, pos: -1}
}

// WriteBatch applies every mutation inside one Badger transaction: either
// every Set/Delete lands, or none does and ErrBatchFailed is returned with
// the backend untouched.
func (b *BadgerBackend) WriteBatch(batch Batch) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		for _, mut := range batch {
			switch mut.Kind {
			case MutationPut:
				if err := txn.Set(mut.Key, mut.Value); err != nil {
					return err
				}
			case MutationDelete:
				if err := txn.Delete(mut.Key); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBatchFailed, err)
	}
	return nil
}

// Flush fsyncs Badger's value log so every acknowledged write survives a
// crash, independent of the SyncWrites setting.
func (b *BadgerBackend) Flush() error {
	if b.closed {
		return ErrClosed
	}
	if err := b.db.Sync(); err != nil {
		return fmt.Errorf("storekv: flush: %w", err)
	}
	return nil
}

func (b *BadgerBackend) Close() error {
	if b.closed {
		return nil
	}
	b.closed = true
	if err := b.db.Close(); err != nil {
		return fmt.Errorf("storekv: close badger backend: %w", err)
	}
	return nil
}
