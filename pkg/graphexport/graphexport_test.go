package graphexport_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/codegraph/codegraph/pkg/graphexport"
	"github.com/codegraph/codegraph/pkg/graphstore"
	"github.com/codegraph/codegraph/pkg/storekv"
)

func buildStore(t *testing.T) *graphstore.Store {
	t.Helper()
	s, err := graphstore.Open(storekv.NewMemoryBackend())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	fileProps := graphstore.NewPropertyMap()
	fileProps.Set("path", graphstore.String("a.rs"))
	n1, err := s.AddNode(graphstore.KindFile, fileProps)
	require.NoError(t, err)

	fnProps := graphstore.NewPropertyMap()
	fnProps.Set("name", graphstore.String("main"))
	fnProps.Set("line_start", graphstore.Int64(1))
	n2, err := s.AddNode(graphstore.KindFunction, fnProps)
	require.NoError(t, err)

	_, err = s.AddEdge(n1, n2, graphstore.EdgeContains, nil)
	require.NoError(t, err)
	return s
}

// DOT/CSV/N-Triples are byte-deterministic for identical stores.
func TestDeterministicOutputs(t *testing.T) {
	s1 := buildStore(t)
	s2 := buildStore(t)

	var dot1, dot2 bytes.Buffer
	require.NoError(t, graphexport.WriteDOT(s1, &dot1, graphexport.DefaultOptions()))
	require.NoError(t, graphexport.WriteDOT(s2, &dot2, graphexport.DefaultOptions()))
	require.Equal(t, dot1.String(), dot2.String())

	var csv1, csv2 bytes.Buffer
	require.NoError(t, graphexport.WriteNodesCSV(s1, &csv1, graphexport.DefaultOptions()))
	require.NoError(t, graphexport.WriteNodesCSV(s2, &csv2, graphexport.DefaultOptions()))
	require.Equal(t, csv1.String(), csv2.String())

	var nt1, nt2 bytes.Buffer
	require.NoError(t, graphexport.WriteNTriples(s1, &nt1, graphexport.DefaultOptions()))
	require.NoError(t, graphexport.WriteNTriples(s2, &nt2, graphexport.DefaultOptions()))
	require.Equal(t, nt1.String(), nt2.String())
}

// Export followed by portable re-import yields an isomorphic graph
// (same node/edge counts, kinds, and properties).
func TestPortableRoundTrip(t *testing.T) {
	s := buildStore(t)

	export, err := graphexport.ToPortableJSON(s)
	require.NoError(t, err)

	s2, err := graphstore.Open(storekv.NewMemoryBackend())
	require.NoError(t, err)
	defer s2.Close()

	_, err = graphexport.Import(s2, export)
	require.NoError(t, err)

	n1, err := s.NodeCount()
	require.NoError(t, err)
	n2, err := s2.NodeCount()
	require.NoError(t, err)
	require.Equal(t, n1, n2)

	e1, err := s.EdgeCount()
	require.NoError(t, err)
	e2, err := s2.EdgeCount()
	require.NoError(t, err)
	require.Equal(t, e1, e2)

	fns, err := graphStoreFunctionNames(s2)
	require.NoError(t, err)
	require.Equal(t, []string{"main"}, fns)
}

func graphStoreFunctionNames(s *graphstore.Store) ([]string, error) {
	ids, err := s.NodesByKind(graphstore.KindFunction)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, id := range ids {
		n, err := s.GetNode(id)
		if err != nil {
			return nil, err
		}
		if v, ok := n.Properties.Get("name"); ok {
			names = append(names, v.Str)
		}
	}
	return names, nil
}

func TestWriteJSONAscendingIDOrder(t *testing.T) {
	s := buildStore(t)

	var buf bytes.Buffer
	require.NoError(t, graphexport.WriteJSON(s, &buf, graphexport.DefaultOptions()))
	require.Contains(t, buf.String(), `"nodes"`)
	require.Contains(t, buf.String(), `"edges"`)

	var decoded struct {
		Nodes []struct {
			ID uint64 `json:"id"`
		} `json:"nodes"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded.Nodes, 2)
	require.Less(t, decoded.Nodes[0].ID, decoded.Nodes[1].ID)
}

func TestExportTooLargeFailsFast(t *testing.T) {
	s := buildStore(t)

	var buf bytes.Buffer
	err := graphexport.WriteDOT(s, &buf, graphexport.Options{FailAt: 1})
	require.ErrorIs(t, err, graphexport.ErrExportTooLarge)
	require.Zero(t, buf.Len())
}

func TestImportRejectsUnknownReference(t *testing.T) {
	s, err := graphstore.Open(storekv.NewMemoryBackend())
	require.NoError(t, err)
	defer s.Close()

	export := &graphexport.PortableExport{
		Relationships: []graphexport.PortableRelationship{
			{ID: "r1", Type: string(graphstore.EdgeCalls), StartNode: "missing-1", EndNode: "missing-2"},
		},
	}
	_, err = graphexport.Import(s, export)
	require.Error(t, err)
}
