package storekv

import (
	"bytes"
	"sync"

	"github.com/google/btree"
)

// memoryItem is one key/value pair stored in the B-tree. Ordering is by Key
// alone; Value never participates in comparisons.
type memoryItem struct {
	key   []byte
	value []byte
}

func (a memoryItem) Less(than btree.Item) bool {
	return bytes.Compare(a.key, than.(memoryItem).key) < 0
}

// MemoryBackend is a non-durable, in-memory Backend.
//
// Use Cases:
//   - Unit tests that need reproducible iteration order without disk I/O
//   - Scratch graphs that are built, queried, and discarded within a
//     process (e.g. a one-shot analysis run over a repo)
//
// Keys are kept in a google/btree ordered tree rather than a bare Go map
// so that ScanPrefix returns keys in ascending lexicographic order, the
// same guarantee the persistent BadgerBackend gives for free.
//
// Thread Safety: all methods are safe for concurrent use; a single
// sync.RWMutex guards the tree.
type MemoryBackend struct {
	mu     sync.RWMutex
	tree   *btree.BTree
	closed bool
}

// NewMemoryBackend returns an empty, ready-to-use in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{tree: btree.New(32)}
}

func (m *MemoryBackend) Put(key, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.tree.ReplaceOrInsert(memoryItem{key: cloneBytes(key), value: cloneBytes(value)})
	return nil
}

func (m *MemoryBackend) Get(key []byte) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}
	found := m.tree.Get(memoryItem{key: key})
	if found == nil {
		return nil, ErrNotFound
	}
	return cloneBytes(found.(memoryItem).value), nil
}

func (m *MemoryBackend) Delete(key []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.tree.Delete(memoryItem{key: key})
	return nil
}

func (m *MemoryBackend) ScanPrefix(prefix []byte) Iterator {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return &sliceIterator{err: ErrClosed}
	}

	var pairs []memoryItem
	m.tree.AscendGreaterOrEqual(memoryItem{key: prefix}, func(i btree.Item) bool {
		it := i.(memoryItem)
		if !bytes.HasPrefix(it.key, prefix) {
			return false
		}
		pairs = append(pairs, memoryItem{key: cloneBytes(it.key), value: cloneBytes(it.value)})
		return true
	})
	return &sliceIterator{pairs: pairs, pos: -1}
}

func (m *MemoryBackend) WriteBatch(batch Batch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}

	// MemoryBackend has no persistence to roll back, so "atomic" here
	// means the tree mutation happens under the same lock acquisition as
	// every other operation: no reader observes a partially-applied
	// batch. There is no partial-failure mode to simulate in memory.
	for _, mut := range batch {
		switch mut.Kind {
		case MutationPut:
			m.tree.ReplaceOrInsert(memoryItem{key: cloneBytes(mut.Key), value: cloneBytes(mut.Value)})
		case MutationDelete:
			m.tree.Delete(memoryItem{key: mut.Key})
		}
	}
	return nil
}

// Flush is a no-op: there is no durable medium behind the tree.
func (m *MemoryBackend) Flush() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return ErrClosed
	}
	return nil
}

func (m *MemoryBackend) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// sliceIterator adapts a pre-collected slice of pairs to the Iterator
// contract. MemoryBackend snapshots matches up front (under the read
// lock) rather than holding the lock across iteration, so a long-running
// scan never blocks a writer.
type sliceIterator struct {
	pairs []memoryItem
	pos   int
	err   error
}

func (s *sliceIterator) Next() bool {
	if s.err != nil {
		return false
	}
	s.pos++
	return s.pos < len(s.pairs)
}

func (s *sliceIterator) Key() []byte   { return s.pairs[s.pos].key }
func (s *sliceIterator) Value() []byte { return s.pairs[s.pos].value }
func (s *sliceIterator) Err() error    { return s.err }
func (s *sliceIterator) Close() error  { return nil }
