// Package codegraph is the embeddable front door to the code graph
// database: one Open/Close lifecycle wrapping package graphstore, plus a
// set of convenience methods for the common read/write operations so a
// caller doesn't need to hand-build property maps and edge specs for
// routine work.
//
// Example Usage:
//
//	g, err := codegraph.Open("./data")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer g.Close()
//
//	file, _ := g.AddFile("main.go", "go")
//	fn, _ := g.AddFunction(file, "main", 1, 10)
//	callers, _ := g.ListCallers(fn)
//
// Anything not covered by the convenience methods remains reachable
// through Store, which returns the underlying *graphstore.Store for
// direct use with package query, package algorithms, or package
// graphexport.
package codegraph

import (
	"sync"

	"github.com/codegraph/codegraph/pkg/algorithms"
	"github.com/codegraph/codegraph/pkg/graphstore"
	"github.com/codegraph/codegraph/pkg/query"
	"github.com/codegraph/codegraph/pkg/storekv"
)

// Graph is the embeddable handle to a code graph database. The zero value
// is not usable; construct one with Open or OpenInMemory.
type Graph struct {
	mu     sync.RWMutex
	store  *graphstore.Store
	closed bool
}

// Open opens (creating if necessary) a code graph database backed by an
// on-disk Badger store at dataDir. Passing an empty dataDir is equivalent
// to OpenInMemory, useful for tests that want the exact same code path
// production callers use.
func Open(dataDir string) (*Graph, error) {
	if dataDir == "" {
		return OpenInMemory()
	}
	backend, err := storekv.NewBadgerBackend(dataDir)
	if err != nil {
		return nil, classify(err)
	}
	return newGraph(backend)
}

// OpenInMemory opens a code graph database backed entirely by RAM. Nothing
// written to it survives process exit; useful for tests and short-lived
// analysis runs.
func OpenInMemory() (*Graph, error) {
	return newGraph(storekv.NewMemoryBackend())
}

func newGraph(backend storekv.Backend) (*Graph, error) {
	store, err := graphstore.Open(backend)
	if err != nil {
		_ = backend.Close()
		return nil, classify(err)
	}
	return &Graph{store: store}, nil
}

// Close releases the store and its backend. Close is idempotent; calling
// it twice is not an error.
func (g *Graph) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return nil
	}
	g.closed = true
	return classify(g.store.Close())
}

// Store returns the underlying graph store, for callers that want package
// query, package algorithms, or package graphexport directly.
func (g *Graph) Store() *graphstore.Store {
	return g.store
}

// Flush forces every acknowledged write down to the backend's durable
// medium without closing the graph.
func (g *Graph) Flush() error {
	if err := g.checkOpen(); err != nil {
		return err
	}
	return classify(g.store.Flush())
}

func (g *Graph) checkOpen() error {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.closed {
		return classify(ErrClosed)
	}
	return nil
}

// AddFile creates (or, if a File node with this path already exists,
// returns) a File node for path. path is treated as the node's stable
// identity, matching the idempotent-upsert behavior package mapper gives
// full front-end submissions.
func (g *Graph) AddFile(path, language string) (graphstore.NodeID, error) {
	if err := g.checkOpen(); err != nil {
		return 0, err
	}
	existing, err := g.findByProperty(graphstore.KindFile, "path", graphstore.String(path))
	if err != nil {
		return 0, classify(err)
	}
	if existing != nil {
		return existing.ID, nil
	}
	props := graphstore.NewPropertyMap()
	props.Set("path", graphstore.String(path))
	props.Set("language", graphstore.String(language))
	id, err := g.store.AddNode(graphstore.KindFile, props)
	return id, classify(err)
}

// AddFunction creates a Function node and connects file to it with a
// Contains edge.
func (g *Graph) AddFunction(file graphstore.NodeID, name string, startLine, endLine int) (graphstore.NodeID, error) {
	return g.addContainedEntity(file, graphstore.KindFunction, name, startLine, endLine)
}

// AddClass creates a Class node and connects file to it with a Contains
// edge.
func (g *Graph) AddClass(file graphstore.NodeID, name string, startLine, endLine int) (graphstore.NodeID, error) {
	return g.addContainedEntity(file, graphstore.KindClass, name, startLine, endLine)
}

func (g *Graph) addContainedEntity(file graphstore.NodeID, kind graphstore.NodeKind, name string, startLine, endLine int) (graphstore.NodeID, error) {
	if err := g.checkOpen(); err != nil {
		return 0, err
	}
	props := graphstore.NewPropertyMap()
	props.Set("name", graphstore.String(name))
	props.Set("line_start", graphstore.Int64(int64(startLine)))
	props.Set("line_end", graphstore.Int64(int64(endLine)))
	id, err := g.store.AddNode(kind, props)
	if err != nil {
		return 0, classify(err)
	}
	if _, err := g.store.AddEdge(file, id, graphstore.EdgeContains, nil); err != nil {
		return 0, classify(err)
	}
	return id, nil
}

// RecordCall adds a Calls edge from caller to callee, carrying the
// call-site line when line is positive.
func (g *Graph) RecordCall(caller, callee graphstore.NodeID, line int) (graphstore.EdgeID, error) {
	if err := g.checkOpen(); err != nil {
		return 0, err
	}
	var props *graphstore.PropertyMap
	if line > 0 {
		props = graphstore.NewPropertyMap()
		props.Set("line", graphstore.Int64(int64(line)))
	}
	id, err := g.store.AddEdge(caller, callee, graphstore.EdgeCalls, props)
	return id, classify(err)
}

// RecordImport adds an Imports edge from importer to imported, carrying
// the imported symbol names when any are given.
func (g *Graph) RecordImport(importer, imported graphstore.NodeID, symbols ...string) (graphstore.EdgeID, error) {
	if err := g.checkOpen(); err != nil {
		return 0, err
	}
	var props *graphstore.PropertyMap
	if len(symbols) > 0 {
		props = graphstore.NewPropertyMap()
		props.Set("symbols", graphstore.StringList(symbols))
	}
	id, err := g.store.AddEdge(importer, imported, graphstore.EdgeImports, props)
	return id, classify(err)
}

// ListCallers returns every node with a Calls edge pointing at fn,
// deduplicated, in GetNeighbors order.
func (g *Graph) ListCallers(fn graphstore.NodeID) ([]graphstore.NodeID, error) {
	if err := g.checkOpen(); err != nil {
		return nil, err
	}
	kind := graphstore.EdgeCalls
	ids, err := g.store.GetNeighbors(fn, graphstore.Incoming, &kind)
	return ids, classify(err)
}

// ListCallees returns every node fn has a Calls edge pointing at,
// deduplicated, in GetNeighbors order.
func (g *Graph) ListCallees(fn graphstore.NodeID) ([]graphstore.NodeID, error) {
	if err := g.checkOpen(); err != nil {
		return nil, err
	}
	kind := graphstore.EdgeCalls
	ids, err := g.store.GetNeighbors(fn, graphstore.Outgoing, &kind)
	return ids, classify(err)
}

// ListFunctionsInFile returns every Function node reachable from the File
// node at path via a Contains edge. Classes contained in the same file
// (and their methods) are filtered out.
func (g *Graph) ListFunctionsInFile(path string) ([]graphstore.NodeID, error) {
	if err := g.checkOpen(); err != nil {
		return nil, err
	}
	file, err := g.findByProperty(graphstore.KindFile, "path", graphstore.String(path))
	if err != nil {
		return nil, classify(err)
	}
	if file == nil {
		return nil, classify(graphstore.ErrNotFound)
	}
	kind := graphstore.EdgeContains
	contained, err := g.store.GetNeighbors(file.ID, graphstore.Outgoing, &kind)
	if err != nil {
		return nil, classify(err)
	}
	out := make([]graphstore.NodeID, 0, len(contained))
	for _, id := range contained {
		n, err := g.store.GetNode(id)
		if err != nil {
			return nil, classify(err)
		}
		if n.Kind == graphstore.KindFunction {
			out = append(out, id)
		}
	}
	return out, nil
}

// DirectDependencies returns the files file imports directly (one hop of
// Imports or ImportsFrom).
func (g *Graph) DirectDependencies(file graphstore.NodeID) ([]graphstore.NodeID, error) {
	if err := g.checkOpen(); err != nil {
		return nil, err
	}
	ids, err := algorithms.TransitiveClosure(g.store, file, []graphstore.EdgeKind{graphstore.EdgeImports, graphstore.EdgeImportsFrom}, 1)
	return ids, classify(err)
}

// DirectDependents returns the files that import file directly.
func (g *Graph) DirectDependents(file graphstore.NodeID) ([]graphstore.NodeID, error) {
	if err := g.checkOpen(); err != nil {
		return nil, err
	}
	ids, err := algorithms.TransitiveClosure(reverseNeighbors{g.store}, file, []graphstore.EdgeKind{graphstore.EdgeImports, graphstore.EdgeImportsFrom}, 1)
	return ids, classify(err)
}

// Dependencies returns every file transitively reachable from file via
// Imports or ImportsFrom edges: the full set of things file depends on.
func (g *Graph) Dependencies(file graphstore.NodeID) ([]graphstore.NodeID, error) {
	if err := g.checkOpen(); err != nil {
		return nil, err
	}
	ids, err := algorithms.TransitiveClosure(g.store, file, []graphstore.EdgeKind{graphstore.EdgeImports, graphstore.EdgeImportsFrom}, 0)
	return ids, classify(err)
}

// Dependents returns every file that transitively depends on file via
// Imports or ImportsFrom edges: the reverse of Dependencies.
func (g *Graph) Dependents(file graphstore.NodeID) ([]graphstore.NodeID, error) {
	if err := g.checkOpen(); err != nil {
		return nil, err
	}
	ids, err := algorithms.TransitiveClosure(reverseNeighbors{g.store}, file, []graphstore.EdgeKind{graphstore.EdgeImports, graphstore.EdgeImportsFrom}, 0)
	return ids, classify(err)
}

// CircularDeps reports every import cycle in the whole graph.
func (g *Graph) CircularDeps() ([][]graphstore.NodeID, error) {
	if err := g.checkOpen(); err != nil {
		return nil, err
	}
	cycles, err := algorithms.CircularDeps(g.store, g.store)
	return cycles, classify(err)
}

// reverseNeighbors adapts a *graphstore.Store into an algorithms.NeighborSource
// that walks edges backwards, so the outgoing-only traversal algorithms
// (TransitiveClosure, BFS) can be reused to answer "what points at this
// node" questions like Dependents.
type reverseNeighbors struct {
	store *graphstore.Store
}

func (r reverseNeighbors) GetNeighbors(id graphstore.NodeID, _ graphstore.Direction, kind *graphstore.EdgeKind) ([]graphstore.NodeID, error) {
	return r.store.GetNeighbors(id, graphstore.Incoming, kind)
}

func (g *Graph) findByProperty(kind graphstore.NodeKind, key string, value graphstore.Value) (*graphstore.Node, error) {
	nodes, err := query.New(g.store).ByKind(kind).WithProperty(key, value).Execute()
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, nil
	}
	return nodes[0], nil
}
