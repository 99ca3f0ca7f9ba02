package storekv_test

import (
	"testing"

	"github.com/stretchr/testify/require"

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

func TestPutGetDelete(t *testing.T) {
	for name, b := range backends(t) {
		b := b
		t.Run(name, func(t *testing.T) {
			_, err := b.Get([]byte("missing"))
			require.ErrorIs(t, err, storekv.ErrNotFound)

			require.NoError(t, b.Put([]byte("k1"), []byte("v1")))
			val, err := b.Get([]byte("k1"))
			require.NoError(t, err)
			require.Equal(t, "v1", string(val))

			require.NoError(t, b.Delete([]byte("k1")))
			_, err = b.Get([]byte("k1"))
			require.ErrorIs(t, err, storekv.ErrNotFound)

			require.NoError(t, b.Delete([]byte("never-existed")))
		})
	}
}

func TestScanPrefixOrdering(t *testing.T) {
	for name, b := range backends(t) {
		b := b
		t.Run(name, func(t *testing.T) {
			keys := []string{
				"n:\x00\x00\x00\x00\x00\x00\x00\x03",
				"n:\x00\x00\x00\x00\x00\x00\x00\x01",
				"n:\x00\x00\x00\x00\x00\x00\x00\x02",
				"e:\x00\x00\x00\x00\x00\x00\x00\x01",
			}
			for _, k := range keys {
				require.NoError(t, b.Put([]byte(k), []byte("x")))
			}

			it := b.ScanPrefix([]byte("n:"))
			defer it.Close()

			var got []string
			for it.Next() {
				got = append(got, string(it.Key()))
			}
			require.NoError(t, it.Err())
			require.Equal(t, []string{
				"n:\x00\x00\x00\x00\x00\x00\x00\x01",
				"n:\x00\x00\x00\x00\x00\x00\x00\x02",
				"n:\x00\x00\x00\x00\x00\x00\x00\x03",
			}, got)
		})
	}
}

func TestFlushThenReadBack(t *testing.T) {
	for name, b := range backends(t) {
		b := b
		t.Run(name, func(t *testing.T) {
			require.NoError(t, b.Put([]byte("k"), []byte("v")))
			require.NoError(t, b.Flush())

			val, err := b.Get([]byte("k"))
			require.NoError(t, err)
			require.Equal(t, "v", string(val))
		})
	}
}

func TestWriteBatchAtomic(t *testing.T) {
	for name, b := range backends(t) {
		b := b
		t.Run(name, func(t *testing.T) {
			batch := storekv.Batch{}.
				Put([]byte("a"), []byte("1")).
				Put([]byte("b"), []byte("2")).
				Delete([]byte("missing"))

			require.NoError(t, b.WriteBatch(batch))

			va, err := b.Get([]byte("a"))
			require.NoError(t, err)
			require.Equal(t, "1", string(va))

			vb, err := b.Get([]byte("b"))
			require.NoError(t, err)
			require.Equal(t, "2", string(vb))
		})
	}
}
