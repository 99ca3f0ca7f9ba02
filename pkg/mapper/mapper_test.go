package mapper_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/codegraph/codegraph/pkg/graphstore"
	"github.com/codegraph/codegraph/pkg/ir"
	"github.com/codegraph/codegraph/pkg/mapper"
	"github.com/codegraph/codegraph/pkg/storekv"
)

func openStore(t *testing.T) *graphstore.Store {
	t.Helper()
	s, err := graphstore.Open(storekv.NewMemoryBackend())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func simpleFile() *ir.File {
	return &ir.File{
		Functions: []ir.Function{
			{Name: "main", StartLine: 1, EndLine: 10},
			{Name: "helper", StartLine: 12, EndLine: 20},
		},
		Calls: []ir.Call{
			{Caller: "main", Callee: "helper", Line: 2},
			{Caller: "main", Callee: "strlen", Line: 3},
		},
		Imports: []ir.Import{
			{Importer: "a.rs", Imported: "std::io", Symbols: []string{"Read"}},
		},
	}
}

func TestMapCreatesFileFunctionsAndContainsEdges(t *testing.T) {
	s := openStore(t)

	summary, err := mapper.Map(s, "a.rs", "rust", simpleFile(), 5*time.Millisecond)
	require.NoError(t, err)
	require.NotEmpty(t, summary.RequestID)
	require.Len(t, summary.FunctionIDs, 2)

	file, err := s.GetNode(summary.FileNodeID)
	require.NoError(t, err)
	require.Equal(t, graphstore.KindFile, file.Kind)

	neighbors, err := s.GetNeighbors(summary.FileNodeID, graphstore.Outgoing, nil)
	require.NoError(t, err)
	require.Len(t, neighbors, 3) // 2 functions + 1 module (import target)
}

// Applying the mapper twice on the same path upserts, never duplicates,
// the File node.
func TestMapIsIdempotentOnFilePath(t *testing.T) {
	s := openStore(t)

	_, err := mapper.Map(s, "a.rs", "rust", simpleFile(), 0)
	require.NoError(t, err)
	_, err = mapper.Map(s, "a.rs", "rust", simpleFile(), 0)
	require.NoError(t, err)

	files, err := s.NodesByKind(graphstore.KindFile)
	require.NoError(t, err)
	require.Len(t, files, 1)
}

// An unresolved callee becomes one external placeholder Function node,
// shared by every call site referencing the same name within the file.
func TestUnresolvedCalleeBecomesExternalPlaceholder(t *testing.T) {
	s := openStore(t)

	file := &ir.File{
		Functions: []ir.Function{{Name: "main", StartLine: 1, EndLine: 5}},
		Calls: []ir.Call{
			{Caller: "main", Callee: "libc_exit", Line: 1},
			{Caller: "main", Callee: "libc_exit", Line: 2},
		},
	}
	summary, err := mapper.Map(s, "b.rs", "rust", file, 0)
	require.NoError(t, err)

	fns, err := s.NodesByKind(graphstore.KindFunction)
	require.NoError(t, err)
	require.Len(t, fns, 2) // main + one shared libc_exit placeholder

	mainID := summary.FunctionIDs[0]
	callees, err := s.GetNeighbors(mainID, graphstore.Outgoing, nil)
	require.NoError(t, err)
	require.Len(t, callees, 1) // two Calls edges, deduplicated to one neighbor

	placeholder, err := s.GetNode(callees[0])
	require.NoError(t, err)
	v, ok := placeholder.Properties.Get("external")
	require.True(t, ok)
	require.True(t, v.Bool)
}

func TestMapRejectsNilIR(t *testing.T) {
	s := openStore(t)
	_, err := mapper.Map(s, "a.rs", "rust", nil, 0)
	require.ErrorIs(t, err, mapper.ErrInvalidArgument)
}

func TestMapRejectsEmptyPath(t *testing.T) {
	s := openStore(t)
	_, err := mapper.Map(s, "", "rust", &ir.File{}, 0)
	require.ErrorIs(t, err, mapper.ErrInvalidArgument)
}

func TestMapClassWithMethodsConnectsContains(t *testing.T) {
	s := openStore(t)

	file := &ir.File{
		Classes: []ir.Class{
			{
				Name:      "Parser",
				StartLine: 1,
				EndLine:   50,
				Methods: []ir.Function{
					{Name: "parse", StartLine: 2, EndLine: 10, ParentClass: "Parser"},
				},
			},
		},
		Inheritance: []ir.Inheritance{
			{Child: "Parser", Parent: "BaseParser", Order: 0},
		},
	}
	summary, err := mapper.Map(s, "parser.rs", "rust", file, 0)
	require.NoError(t, err)
	require.Len(t, summary.ClassIDs, 1)
	require.Len(t, summary.FunctionIDs, 1)

	classID := summary.ClassIDs[0]
	methods, err := s.GetNeighbors(classID, graphstore.Outgoing, nil)
	require.NoError(t, err)
	require.Contains(t, methods, summary.FunctionIDs[0])

	extendsKind := graphstore.EdgeExtends
	parents, err := s.GetNeighbors(classID, graphstore.Outgoing, &extendsKind)
	require.NoError(t, err)
	require.Len(t, parents, 1)

	parentNode, err := s.GetNode(parents[0])
	require.NoError(t, err)
	v, ok := parentNode.Properties.Get("external")
	require.True(t, ok)
	require.True(t, v.Bool)
}

// A name unresolved within one file must never be wired to a same-named
// real entity that happens to exist because a different file was mapped
// earlier into the same store: resolution is file-scoped, so file b's
// call to "shared" gets its own placeholder rather than cross-linking to
// file a's real function.
func TestUnresolvedCalleeNeverCrossLinksToAnotherFilesEntity(t *testing.T) {
	s := openStore(t)

	fileA := &ir.File{
		Functions: []ir.Function{{Name: "shared", StartLine: 1, EndLine: 5}},
	}
	summaryA, err := mapper.Map(s, "a.rs", "rust", fileA, 0)
	require.NoError(t, err)
	require.Len(t, summaryA.FunctionIDs, 1)
	realSharedID := summaryA.FunctionIDs[0]

	fileB := &ir.File{
		Functions: []ir.Function{{Name: "main", StartLine: 1, EndLine: 5}},
		Calls: []ir.Call{
			{Caller: "main", Callee: "shared", Line: 2},
		},
	}
	summaryB, err := mapper.Map(s, "b.rs", "rust", fileB, 0)
	require.NoError(t, err)

	mainID := summaryB.FunctionIDs[0]
	callees, err := s.GetNeighbors(mainID, graphstore.Outgoing, nil)
	require.NoError(t, err)
	require.Len(t, callees, 1)
	require.NotEqual(t, realSharedID, callees[0], "call must not resolve to the other file's real function")

	placeholder, err := s.GetNode(callees[0])
	require.NoError(t, err)
	v, ok := placeholder.Properties.Get("external")
	require.True(t, ok)
	require.True(t, v.Bool)

	fns, err := s.NodesByKind(graphstore.KindFunction)
	require.NoError(t, err)
	require.Len(t, fns, 3) // a.shared (real) + b.main (real) + b's shared placeholder
}

func TestBatchWriteFailureLeavesNoPartialFile(t *testing.T) {
	s := openStore(t)

	// A BatchWrite with a bad edge reference (out-of-range new-node
	// index) must fail before any node or edge is persisted.
	_, _, err := s.BatchWrite(
		[]graphstore.NodeSpec{{Kind: graphstore.KindFile, Properties: nil}},
		[]graphstore.EdgeWriteSpec{{
			Source: graphstore.NewNodeRef(0),
			Target: graphstore.NewNodeRef(99),
			Kind:   graphstore.EdgeContains,
		}},
	)
	require.Error(t, err)

	count, err := s.NodeCount()
	require.NoError(t, err)
	require.Zero(t, count)
}
