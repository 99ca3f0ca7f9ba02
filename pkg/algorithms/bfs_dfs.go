// Package algorithms implements the graph traversal operations over a
// graph store: BFS, iterative DFS, iterative strongly-connected
// components, bounded all-simple-paths, transitive closure, call-chain,
// and circular-deps.
//
// Every algorithm here reads exclusively through graphstore.Store's
// neighbor queries, never the backend directly, so results always
// reflect the same coherent adjacency index the store itself maintains.
// None of these use recursion for traversal depth: every algorithm uses
// an explicit stack or queue so a deeply nested or pathological graph
// cannot blow the Go call stack.
package algorithms

import (
	"fmt"

	"github.com/codegraph/codegraph/pkg/graphstore"
)

// NeighborSource is the minimal surface algorithms need from a graph
// store. graphstore.Store satisfies it; tests may substitute a fake.
type NeighborSource interface {
	GetNeighbors(id graphstore.NodeID, dir graphstore.Direction, kind *graphstore.EdgeKind) ([]graphstore.NodeID, error)
}

// BFSResult pairs a discovered node with the depth (hop count from the
// source) at which it was first reached.
type BFSResult struct {
	Node  graphstore.NodeID
	Depth int
}

// BFS performs a breadth-first traversal from source, optionally bounded
// by maxDepth (0 means unbounded; the visited set still guarantees
// termination on cycles) and optionally filtered to a single edge kind.
// Discovery order at each depth follows the outgoing adjacency index's
// insertion order, so results are reproducible for the same graph state.
func BFS(g NeighborSource, source graphstore.NodeID, maxDepth int, edgeKind *graphstore.EdgeKind) ([]BFSResult, error) {
	visited := map[graphstore.NodeID]struct{}{source: {}}
	queue := []BFSResult{{Node: source, Depth: 0}}
	results := make([]BFSResult, 0, 1)

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		results = append(results, cur)

		if maxDepth > 0 && cur.Depth >= maxDepth {
			continue
		}
		neighbors, err := g.GetNeighbors(cur.Node, graphstore.Outgoing, edgeKind)
		if err != nil {
			return nil, fmt.Errorf("algorithms: BFS from %d: %w", source, err)
		}
		for _, n := range neighbors {
			if _, seen := visited[n]; seen {
				continue
			}
			visited[n] = struct{}{}
			queue = append(queue, BFSResult{Node: n, Depth: cur.Depth + 1})
		}
	}
	return results, nil
}

// dfsFrame is one explicit-stack entry for the iterative DFS below: a
// node plus the index of the next neighbor of that node still to visit.
type dfsFrame struct {
	node      graphstore.NodeID
	depth     int
	neighbors []graphstore.NodeID
	nextIdx   int
}

// DFS performs an iterative, pre-order depth-first traversal from
// source, with the same depth-bound and edge-kind-filter semantics as
// BFS. Returned nodes are in pre-order of first discovery.
func DFS(g NeighborSource, source graphstore.NodeID, maxDepth int, edgeKind *graphstore.EdgeKind) ([]graphstore.NodeID, error) {
	visited := map[graphstore.NodeID]struct{}{source: {}}
	var order []graphstore.NodeID

	firstNeighbors, err := neighborsOrEmpty(g, source, 0, maxDepth, edgeKind)
	if err != nil {
		return nil, fmt.Errorf("algorithms: DFS from %d: %w", source, err)
	}
	stack := []*dfsFrame{{node: source, depth: 0, neighbors: firstNeighbors}}
	order = append(order, source)

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		if top.nextIdx >= len(top.neighbors) {
			stack = stack[:len(stack)-1]
			continue
		}
		next := top.neighbors[top.nextIdx]
		top.nextIdx++
		if _, seen := visited[next]; seen {
			continue
		}
		visited[next] = struct{}{}
		order = append(order, next)

		nextNeighbors, err := neighborsOrEmpty(g, next, top.depth+1, maxDepth, edgeKind)
		if err != nil {
			return nil, fmt.Errorf("algorithms: DFS from %d: %w", source, err)
		}
		stack = append(stack, &dfsFrame{node: next, depth: top.depth + 1, neighbors: nextNeighbors})
	}
	return order, nil
}

func neighborsOrEmpty(g NeighborSource, node graphstore.NodeID, depth, maxDepth int, edgeKind *graphstore.EdgeKind) ([]graphstore.NodeID, error) {
	if maxDepth > 0 && depth >= maxDepth {
		return nil, nil
	}
	return g.GetNeighbors(node, graphstore.Outgoing, edgeKind)
}
