package codegraph_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/codegraph/codegraph/pkg/codegraph"
	"github.com/codegraph/codegraph/pkg/graphstore"
)

func openGraph(t *testing.T) *codegraph.Graph {
	t.Helper()
	g, err := codegraph.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = g.Close() })
	return g
}

func toUints(ids []graphstore.NodeID) []uint64 {
	out := make([]uint64, len(ids))
	for i, id := range ids {
		out[i] = uint64(id)
	}
	return out
}

func TestOpenEmptyDataDirIsInMemory(t *testing.T) {
	g, err := codegraph.Open("")
	require.NoError(t, err)
	defer g.Close()

	file, err := g.AddFile("a.go", "go")
	require.NoError(t, err)
	require.NotZero(t, file)
}

func TestAddFileIsIdempotentOnPath(t *testing.T) {
	g := openGraph(t)

	first, err := g.AddFile("main.go", "go")
	require.NoError(t, err)
	second, err := g.AddFile("main.go", "go")
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestAddFunctionConnectsFileWithContains(t *testing.T) {
	g := openGraph(t)

	file, err := g.AddFile("main.go", "go")
	require.NoError(t, err)
	fn, err := g.AddFunction(file, "main", 1, 10)
	require.NoError(t, err)

	fns, err := g.ListFunctionsInFile("main.go")
	require.NoError(t, err)
	require.Contains(t, fns, fn)
}

func TestRecordCallAndListCallersCallees(t *testing.T) {
	g := openGraph(t)

	file, err := g.AddFile("main.go", "go")
	require.NoError(t, err)
	caller, err := g.AddFunction(file, "main", 1, 5)
	require.NoError(t, err)
	callee, err := g.AddFunction(file, "helper", 6, 10)
	require.NoError(t, err)

	edge, err := g.RecordCall(caller, callee, 3)
	require.NoError(t, err)

	callees, err := g.ListCallees(caller)
	require.NoError(t, err)
	require.Equal(t, []uint64{uint64(callee)}, toUints(callees))

	callers, err := g.ListCallers(callee)
	require.NoError(t, err)
	require.Equal(t, []uint64{uint64(caller)}, toUints(callers))

	e, err := g.Store().GetEdge(edge)
	require.NoError(t, err)
	line, ok := e.Properties.Get("line")
	require.True(t, ok)
	require.EqualValues(t, 3, line.Int)
}

func TestDependenciesAndDependentsFollowImports(t *testing.T) {
	g := openGraph(t)

	a, err := g.AddFile("a.go", "go")
	require.NoError(t, err)
	b, err := g.AddFile("b.go", "go")
	require.NoError(t, err)
	c, err := g.AddFile("c.go", "go")
	require.NoError(t, err)

	_, err = g.RecordImport(a, b)
	require.NoError(t, err)
	_, err = g.RecordImport(b, c)
	require.NoError(t, err)

	deps, err := g.Dependencies(a)
	require.NoError(t, err)
	require.ElementsMatch(t, toUints(deps), []uint64{uint64(b), uint64(c)})

	dependents, err := g.Dependents(c)
	require.NoError(t, err)
	require.ElementsMatch(t, toUints(dependents), []uint64{uint64(a), uint64(b)})

	direct, err := g.DirectDependencies(a)
	require.NoError(t, err)
	require.Equal(t, []uint64{uint64(b)}, toUints(direct))

	directDependents, err := g.DirectDependents(c)
	require.NoError(t, err)
	require.Equal(t, []uint64{uint64(b)}, toUints(directDependents))
}

func TestRecordImportCarriesSymbols(t *testing.T) {
	g := openGraph(t)

	a, err := g.AddFile("a.go", "go")
	require.NoError(t, err)
	b, err := g.AddFile("b.go", "go")
	require.NoError(t, err)

	edge, err := g.RecordImport(a, b, "Reader", "Writer")
	require.NoError(t, err)

	e, err := g.Store().GetEdge(edge)
	require.NoError(t, err)
	v, ok := e.Properties.Get("symbols")
	require.True(t, ok)
	require.Equal(t, []string{"Reader", "Writer"}, v.StrList)
}

func TestCircularDepsFindsImportCycle(t *testing.T) {
	g := openGraph(t)

	a, err := g.AddFile("a.go", "go")
	require.NoError(t, err)
	b, err := g.AddFile("b.go", "go")
	require.NoError(t, err)

	_, err = g.RecordImport(a, b)
	require.NoError(t, err)
	_, err = g.RecordImport(b, a)
	require.NoError(t, err)

	require.NoError(t, g.Flush())

	cycles, err := g.CircularDeps()
	require.NoError(t, err)
	require.Len(t, cycles, 1)
}

func TestMethodsAfterCloseReturnClosedError(t *testing.T) {
	g := openGraph(t)
	require.NoError(t, g.Close())

	_, err := g.AddFile("x.go", "go")
	require.Error(t, err)

	var cgErr *codegraph.Error
	require.True(t, errors.As(err, &cgErr))
	require.Equal(t, "closed", cgErr.Kind())
}

func TestListFunctionsInFileUnknownPathIsNotFound(t *testing.T) {
	g := openGraph(t)
	_, err := g.ListFunctionsInFile("missing.go")
	require.Error(t, err)

	var cgErr *codegraph.Error
	require.True(t, errors.As(err, &cgErr))
	require.Equal(t, "not_found", cgErr.Kind())
}
