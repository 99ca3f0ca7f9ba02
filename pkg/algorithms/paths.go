package algorithms

import (
	"fmt"

	"github.com/codegraph/codegraph/pkg/graphstore"
)

// pathFrame is one explicit-stack entry for the iterative all-simple-paths
// search below.
type pathFrame struct {
	node      graphstore.NodeID
	neighbors []graphstore.NodeID
	pos       int
}

// AllSimplePaths enumerates every simple path (no repeated node) from
// source to target with at most maxLen edges. maxLen must be a positive,
// explicit bound no greater than AbsoluteMaxPathLength; enumeration
// without a usable bound is refused rather than attempted.
func AllSimplePaths(g NeighborSource, source, target graphstore.NodeID, maxLen int, edgeKind *graphstore.EdgeKind) ([][]graphstore.NodeID, error) {
	if maxLen <= 0 {
		return nil, fmt.Errorf("%w: maxLen must be a positive, explicit bound", ErrDepthExceeded)
	}
	if maxLen > AbsoluteMaxPathLength {
		return nil, fmt.Errorf("%w: maxLen %d exceeds ceiling %d", ErrDepthExceeded, maxLen, AbsoluteMaxPathLength)
	}

	var results [][]graphstore.NodeID
	path := []graphstore.NodeID{source}
	onPath := map[graphstore.NodeID]bool{source: true}

	firstNeighbors, err := pathNeighbors(g, source, 0, maxLen, edgeKind)
	if err != nil {
		return nil, fmt.Errorf("algorithms: AllSimplePaths from %d: %w", source, err)
	}
	stack := []*pathFrame{{node: source, neighbors: firstNeighbors}}

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		if top.pos >= len(top.neighbors) {
			stack = stack[:len(stack)-1]
			onPath[top.node] = false
			path = path[:len(path)-1]
			continue
		}
		next := top.neighbors[top.pos]
		top.pos++
		if onPath[next] {
			continue
		}
		if next == target {
			full := make([]graphstore.NodeID, len(path)+1)
			copy(full, path)
			full[len(path)] = next
			results = append(results, full)
			continue
		}

		path = append(path, next)
		onPath[next] = true
		nn, err := pathNeighbors(g, next, len(path)-1, maxLen, edgeKind)
		if err != nil {
			return nil, fmt.Errorf("algorithms: AllSimplePaths from %d: %w", source, err)
		}
		stack = append(stack, &pathFrame{node: next, neighbors: nn})
	}
	return results, nil
}

// pathNeighbors returns node's outgoing neighbors, or none if edgesUsed
// has already reached maxLen; extending further would exceed the bound.
func pathNeighbors(g NeighborSource, node graphstore.NodeID, edgesUsed, maxLen int, edgeKind *graphstore.EdgeKind) ([]graphstore.NodeID, error) {
	if edgesUsed >= maxLen {
		return nil, nil
	}
	return g.GetNeighbors(node, graphstore.Outgoing, edgeKind)
}

// TransitiveClosure returns every node reachable from source by following
// only edges whose kind is in edgeKinds, up to maxDepth hops (0 means
// unbounded). It is BFS specialized to one or more edge types; an empty
// edgeKinds follows edges of every kind. The source itself is excluded
// from the result.
func TransitiveClosure(g NeighborSource, source graphstore.NodeID, edgeKinds []graphstore.EdgeKind, maxDepth int) ([]graphstore.NodeID, error) {
	if len(edgeKinds) == 0 {
		return BFSNodesOnly(g, source, maxDepth, nil)
	}

	visited := map[graphstore.NodeID]struct{}{source: {}}
	queue := []BFSResult{{Node: source, Depth: 0}}
	var out []graphstore.NodeID

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		if maxDepth > 0 && cur.Depth >= maxDepth {
			continue
		}
		for _, kind := range edgeKinds {
			k := kind
			neighbors, err := g.GetNeighbors(cur.Node, graphstore.Outgoing, &k)
			if err != nil {
				return nil, fmt.Errorf("algorithms: TransitiveClosure from %d: %w", source, err)
			}
			for _, n := range neighbors {
				if _, seen := visited[n]; seen {
					continue
				}
				visited[n] = struct{}{}
				out = append(out, n)
				queue = append(queue, BFSResult{Node: n, Depth: cur.Depth + 1})
			}
		}
	}
	return out, nil
}

// BFSNodesOnly runs BFS and returns only the reached node ids (excluding
// source), in discovery order.
func BFSNodesOnly(g NeighborSource, source graphstore.NodeID, maxDepth int, edgeKind *graphstore.EdgeKind) ([]graphstore.NodeID, error) {
	results, err := BFS(g, source, maxDepth, edgeKind)
	if err != nil {
		return nil, err
	}
	out := make([]graphstore.NodeID, 0, len(results))
	for _, r := range results {
		if r.Node == source {
			continue
		}
		out = append(out, r.Node)
	}
	return out, nil
}

// CallChain returns every simple call path from caller to callee with at
// most maxLen hops: AllSimplePaths restricted to Calls edges.
func CallChain(g NeighborSource, caller, callee graphstore.NodeID, maxLen int) ([][]graphstore.NodeID, error) {
	kind := graphstore.EdgeCalls
	return AllSimplePaths(g, caller, callee, maxLen, &kind)
}

// NodeLister is the minimal surface SCC-based algorithms need to obtain
// the candidate node set when the caller does not supply one explicitly.
type NodeLister interface {
	ScanNodes() (*graphstore.NodeIterator, error)
}

// CircularDeps reports every import cycle in the graph: SCC restricted to
// Imports edges, keeping only components that indicate an actual cycle
// (size >= 2, or a single node with a self-loop). ImportsFrom edges are
// not followed; a named import travels alongside an Imports edge to the
// same module, so following both would only re-find the same cycles.
// Callers that want ImportsFrom cycles on their own can run SCC with
// that kind directly.
func CircularDeps(g NeighborSource, lister NodeLister) ([][]graphstore.NodeID, error) {
	it, err := lister.ScanNodes()
	if err != nil {
		return nil, fmt.Errorf("algorithms: CircularDeps: %w", err)
	}
	defer it.Close()

	var nodes []graphstore.NodeID
	for it.Next() {
		nodes = append(nodes, it.Node().ID)
	}
	if err := it.Err(); err != nil {
		return nil, fmt.Errorf("algorithms: CircularDeps: %w", err)
	}

	imports := graphstore.EdgeImports
	components, err := SCC(g, nodes, &imports)
	if err != nil {
		return nil, fmt.Errorf("algorithms: CircularDeps: %w", err)
	}

	var cycles [][]graphstore.NodeID
	for _, comp := range components {
		if len(comp) >= 2 {
			cycles = append(cycles, comp)
			continue
		}
		node := comp[0]
		neighbors, err := g.GetNeighbors(node, graphstore.Outgoing, &imports)
		if err != nil {
			return nil, fmt.Errorf("algorithms: CircularDeps: %w", err)
		}
		for _, n := range neighbors {
			if n == node {
				cycles = append(cycles, comp)
				break
			}
		}
	}
	return cycles, nil
}
