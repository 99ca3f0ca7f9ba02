package graphstore_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/codegraph/codegraph/pkg/graphstore"
	"github.com/codegraph/codegraph/pkg/storekv"
)

func backends(t *testing.T) map[string]storekv.Backend {
	t.Helper()
	badgerBackend, err := storekv.NewBadgerBackendInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = badgerBackend.Close() })

	mem := storekv.NewMemoryBackend()
	t.Cleanup(func() { _ = mem.Close() })

	return map[string]storekv.Backend{
		"memory": mem,
		"badger": badgerBackend,
	}
}

func openStore(t *testing.T, b storekv.Backend) *graphstore.Store {
	t.Helper()
	s, err := graphstore.Open(b)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// Minimal store: one file, one function, one Contains edge.
func TestMinimalStoreNeighbors(t *testing.T) {
	for name, b := range backends(t) {
		b := b
		t.Run(name, func(t *testing.T) {
			s := openStore(t, b)

			fileProps := graphstore.NewPropertyMap()
			fileProps.Set("path", graphstore.String("a.rs"))
			n1, err := s.AddNode(graphstore.KindFile, fileProps)
			require.NoError(t, err)

			fnProps := graphstore.NewPropertyMap()
			fnProps.Set("name", graphstore.String("main"))
			fnProps.Set("line_start", graphstore.Int64(1))
			fnProps.Set("line_end", graphstore.Int64(10))
			n2, err := s.AddNode(graphstore.KindFunction, fnProps)
			require.NoError(t, err)

			_, err = s.AddEdge(n1, n2, graphstore.EdgeContains, nil)
			require.NoError(t, err)

			out, err := s.GetNeighbors(n1, graphstore.Outgoing, nil)
			require.NoError(t, err)
			require.Equal(t, []graphstore.NodeID{n2}, out)

			in, err := s.GetNeighbors(n2, graphstore.Incoming, nil)
			require.NoError(t, err)
			require.Equal(t, []graphstore.NodeID{n1}, in)
		})
	}
}

// Deleting a node removes every incident edge and nothing else.
func TestCascadingDelete(t *testing.T) {
	for name, b := range backends(t) {
		b := b
		t.Run(name, func(t *testing.T) {
			s := openStore(t, b)

			n1, err := s.AddNode(graphstore.KindFile, nil)
			require.NoError(t, err)
			n2, err := s.AddNode(graphstore.KindFunction, nil)
			require.NoError(t, err)
			n3, err := s.AddNode(graphstore.KindFunction, nil)
			require.NoError(t, err)

			e1, err := s.AddEdge(n1, n2, graphstore.EdgeContains, nil)
			require.NoError(t, err)
			_, err = s.AddEdge(n2, n3, graphstore.EdgeCalls, nil)
			require.NoError(t, err)

			require.NoError(t, s.DeleteNode(n2))

			_, err = s.GetNode(n2)
			require.ErrorIs(t, err, graphstore.ErrNotFound)
			_, err = s.GetEdge(e1)
			require.ErrorIs(t, err, graphstore.ErrNotFound)

			stillThere, err := s.GetNode(n3)
			require.NoError(t, err)
			require.Equal(t, n3, stillThere.ID)

			out, err := s.GetNeighbors(n1, graphstore.Outgoing, nil)
			require.NoError(t, err)
			require.Empty(t, out)
		})
	}
}

// The adjacency index always equals the fold of persisted edges.
func TestIndexMatchesPersistedEdges(t *testing.T) {
	for name, b := range backends(t) {
		b := b
		t.Run(name, func(t *testing.T) {
			s := openStore(t, b)

			n1, _ := s.AddNode(graphstore.KindFile, nil)
			n2, _ := s.AddNode(graphstore.KindFunction, nil)
			n3, _ := s.AddNode(graphstore.KindFunction, nil)
			_, err := s.AddEdge(n1, n2, graphstore.EdgeContains, nil)
			require.NoError(t, err)
			_, err = s.AddEdge(n2, n3, graphstore.EdgeCalls, nil)
			require.NoError(t, err)

			persisted, err := s.ScanEdges()
			require.NoError(t, err)
			var persistedIDs []graphstore.EdgeID
			for persisted.Next() {
				persistedIDs = append(persistedIDs, persisted.Edge().ID)
			}
			require.NoError(t, persisted.Err())
			require.NoError(t, persisted.Close())

			count, err := s.EdgeCount()
			require.NoError(t, err)
			require.Len(t, persistedIDs, count)
		})
	}
}

// Deleting a node leaves no edge referencing it anywhere.
func TestDeleteLeavesNoDanglingEdge(t *testing.T) {
	for name, b := range backends(t) {
		b := b
		t.Run(name, func(t *testing.T) {
			s := openStore(t, b)

			n1, _ := s.AddNode(graphstore.KindFile, nil)
			n2, _ := s.AddNode(graphstore.KindFunction, nil)
			_, err := s.AddEdge(n1, n2, graphstore.EdgeContains, nil)
			require.NoError(t, err)

			require.NoError(t, s.DeleteNode(n1))

			it, err := s.ScanEdges()
			require.NoError(t, err)
			defer it.Close()
			for it.Next() {
				e := it.Edge()
				require.NotEqual(t, n1, e.Source)
				require.NotEqual(t, n1, e.Target)
			}
			require.NoError(t, it.Err())
		})
	}
}

// Reopening a persistent store replays to the same observable state.
func TestReopenReplaysState(t *testing.T) {
	dir := t.TempDir()
	b1, err := storekv.NewBadgerBackend(dir)
	require.NoError(t, err)

	s1, err := graphstore.Open(b1)
	require.NoError(t, err)
	n1, _ := s1.AddNode(graphstore.KindFile, nil)
	n2, _ := s1.AddNode(graphstore.KindFunction, nil)
	_, err = s1.AddEdge(n1, n2, graphstore.EdgeContains, nil)
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	b2, err := storekv.NewBadgerBackend(dir)
	require.NoError(t, err)
	s2, err := graphstore.Open(b2)
	require.NoError(t, err)
	defer s2.Close()

	out, err := s2.GetNeighbors(n1, graphstore.Outgoing, nil)
	require.NoError(t, err)
	require.Equal(t, []graphstore.NodeID{n2}, out)

	_, err = s2.AddNode(graphstore.KindFile, nil)
	require.NoError(t, err)
}

// Ids are strictly increasing and never reused, even after deletes.
func TestIDsStrictlyIncreasing(t *testing.T) {
	for name, b := range backends(t) {
		b := b
		t.Run(name, func(t *testing.T) {
			s := openStore(t, b)

			n1, _ := s.AddNode(graphstore.KindFile, nil)
			n2, _ := s.AddNode(graphstore.KindFile, nil)
			require.Less(t, n1, n2)

			require.NoError(t, s.DeleteNode(n1))
			n3, _ := s.AddNode(graphstore.KindFile, nil)
			require.Less(t, n2, n3)
			require.NotEqual(t, n1, n3)
		})
	}
}

// failingBackend wraps a Backend and forces WriteBatch to fail.
type failingBackend struct {
	storekv.Backend
}

func (f failingBackend) WriteBatch(storekv.Batch) error {
	return errors.New("injected backend failure")
}

// A batch that fails at the backend leaves both persistence and the
// in-memory index unchanged.
func TestFailedBatchLeavesStateUnchanged(t *testing.T) {
	mem := storekv.NewMemoryBackend()
	defer mem.Close()
	s := openStore(t, mem)

	n1, err := s.AddNode(graphstore.KindFile, nil)
	require.NoError(t, err)
	countBefore, err := s.NodeCount()
	require.NoError(t, err)

	failing, err := graphstore.Open(failingBackend{Backend: mem})
	require.NoError(t, err)

	specs := make([]graphstore.NodeSpec, 50)
	for i := range specs {
		specs[i] = graphstore.NodeSpec{Kind: graphstore.KindFunction}
	}
	_, err = failing.BatchAddNodes(specs)
	require.Error(t, err)
	require.ErrorIs(t, err, graphstore.ErrBatchFailed)

	countAfter, err := s.NodeCount()
	require.NoError(t, err)
	require.Equal(t, countBefore, countAfter)

	n2, err := s.AddNode(graphstore.KindFile, nil)
	require.NoError(t, err)
	require.Less(t, n1, n2)
}

// Double-delete returns not-found the second time, with no state change.
func TestDoubleDeleteReturnsNotFound(t *testing.T) {
	for name, b := range backends(t) {
		b := b
		t.Run(name, func(t *testing.T) {
			s := openStore(t, b)

			n1, err := s.AddNode(graphstore.KindFile, nil)
			require.NoError(t, err)
			require.NoError(t, s.DeleteNode(n1))

			err = s.DeleteNode(n1)
			require.ErrorIs(t, err, graphstore.ErrNotFound)
		})
	}
}

// Add-then-delete-then-add of equivalent content yields a new id but
// the same observable neighborhood structure.
func TestAddDeleteAddYieldsNewIDSameShape(t *testing.T) {
	for name, b := range backends(t) {
		b := b
		t.Run(name, func(t *testing.T) {
			s := openStore(t, b)

			props := graphstore.NewPropertyMap()
			props.Set("path", graphstore.String("a.rs"))

			n1, err := s.AddNode(graphstore.KindFile, props)
			require.NoError(t, err)
			require.NoError(t, s.DeleteNode(n1))

			n2, err := s.AddNode(graphstore.KindFile, props.Clone())
			require.NoError(t, err)
			require.NotEqual(t, n1, n2)

			got, err := s.GetNode(n2)
			require.NoError(t, err)
			val, ok := got.Properties.Get("path")
			require.True(t, ok)
			require.Equal(t, "a.rs", val.Str)
		})
	}
}

func TestSelfLoopCountsBothDirections(t *testing.T) {
	s := openStore(t, storekv.NewMemoryBackend())

	n1, err := s.AddNode(graphstore.KindFunction, nil)
	require.NoError(t, err)
	_, err = s.AddEdge(n1, n1, graphstore.EdgeCalls, nil)
	require.NoError(t, err)

	out, err := s.GetNeighbors(n1, graphstore.Outgoing, nil)
	require.NoError(t, err)
	require.Equal(t, []graphstore.NodeID{n1}, out)

	in, err := s.GetNeighbors(n1, graphstore.Incoming, nil)
	require.NoError(t, err)
	require.Equal(t, []graphstore.NodeID{n1}, in)
}

func TestParallelEdgesAreDistinct(t *testing.T) {
	s := openStore(t, storekv.NewMemoryBackend())

	n1, _ := s.AddNode(graphstore.KindFunction, nil)
	n2, _ := s.AddNode(graphstore.KindFunction, nil)
	e1, err := s.AddEdge(n1, n2, graphstore.EdgeCalls, nil)
	require.NoError(t, err)
	e2, err := s.AddEdge(n1, n2, graphstore.EdgeCalls, nil)
	require.NoError(t, err)
	require.NotEqual(t, e1, e2)

	ids, err := s.GetEdgesBetween(n1, n2, nil)
	require.NoError(t, err)
	require.ElementsMatch(t, []graphstore.EdgeID{e1, e2}, ids)
}

func TestEmptyGraphScansReturnEmpty(t *testing.T) {
	s := openStore(t, storekv.NewMemoryBackend())

	it, err := s.ScanNodes()
	require.NoError(t, err)
	defer it.Close()
	require.False(t, it.Next())
	require.NoError(t, it.Err())
}

func TestAddEdgeMissingEndpointFails(t *testing.T) {
	s := openStore(t, storekv.NewMemoryBackend())

	n1, err := s.AddNode(graphstore.KindFunction, nil)
	require.NoError(t, err)

	_, err = s.AddEdge(n1, graphstore.NodeID(9999), graphstore.EdgeCalls, nil)
	require.ErrorIs(t, err, graphstore.ErrNotFound)
}

func TestNodesByKindTracksAddAndDelete(t *testing.T) {
	for name, b := range backends(t) {
		b := b
		t.Run(name, func(t *testing.T) {
			s := openStore(t, b)

			f1, err := s.AddNode(graphstore.KindFunction, nil)
			require.NoError(t, err)
			_, err = s.AddNode(graphstore.KindFile, nil)
			require.NoError(t, err)
			f2, err := s.AddNode(graphstore.KindFunction, nil)
			require.NoError(t, err)

			fns, err := s.NodesByKind(graphstore.KindFunction)
			require.NoError(t, err)
			require.Equal(t, []graphstore.NodeID{f1, f2}, fns)

			require.NoError(t, s.DeleteNode(f1))
			fns, err = s.NodesByKind(graphstore.KindFunction)
			require.NoError(t, err)
			require.Equal(t, []graphstore.NodeID{f2}, fns)
		})
	}
}

func TestSchemaVersionMismatchRejected(t *testing.T) {
	b := storekv.NewMemoryBackend()
	defer b.Close()

	require.NoError(t, b.Put([]byte(storekv.MetaSchemaVersion), []byte{99}))

	_, err := graphstore.Open(b)
	require.ErrorIs(t, err, graphstore.ErrSchemaVersionMismatch)
}
