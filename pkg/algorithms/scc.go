package algorithms

import (
	"fmt"

	"github.com/codegraph/codegraph/pkg/graphstore"
)

// SCC computes the strongly-connected components of the subgraph induced
// by nodes, following only edges of kind edgeKind when non-nil. Pass the
// full node set for a whole-graph computation. The algorithm is Tarjan's,
// implemented with an explicit work stack instead of recursion so graphs
// of arbitrary depth cannot overflow the Go call stack.
//
// Components are returned in the order Tarjan discovers them (reverse
// topological order of the condensation); within a component, nodes are
// ordered by pop order off the algorithm's internal stack. A component of
// size >= 2, or a size-1 component whose sole node has a self-loop,
// indicates a cycle.
func SCC(g NeighborSource, nodes []graphstore.NodeID, edgeKind *graphstore.EdgeKind) ([][]graphstore.NodeID, error) {
	index := make(map[graphstore.NodeID]int, len(nodes))
	lowlink := make(map[graphstore.NodeID]int, len(nodes))
	onStack := make(map[graphstore.NodeID]bool, len(nodes))
	var tarjanStack []graphstore.NodeID
	var components [][]graphstore.NodeID
	counter := 0

	for _, root := range nodes {
		if _, seen := index[root]; seen {
			continue
		}
		if err := strongConnect(g, root, edgeKind, &counter, index, lowlink, onStack, &tarjanStack, &components); err != nil {
			return nil, err
		}
	}
	return components, nil
}

// workFrame is one explicit-stack entry standing in for a recursive call
// to Tarjan's strongconnect(node).
type workFrame struct {
	node      graphstore.NodeID
	neighbors []graphstore.NodeID
	pos       int
}

func strongConnect(
	g NeighborSource,
	root graphstore.NodeID,
	edgeKind *graphstore.EdgeKind,
	counter *int,
	index, lowlink map[graphstore.NodeID]int,
	onStack map[graphstore.NodeID]bool,
	tarjanStack *[]graphstore.NodeID,
	components *[][]graphstore.NodeID,
) error {
	rootNeighbors, err := g.GetNeighbors(root, graphstore.Outgoing, edgeKind)
	if err != nil {
		return fmt.Errorf("algorithms: SCC at node %d: %w", root, err)
	}
	index[root] = *counter
	lowlink[root] = *counter
	*counter++
	*tarjanStack = append(*tarjanStack, root)
	onStack[root] = true

	work := []*workFrame{{node: root, neighbors: rootNeighbors}}

	for len(work) > 0 {
		top := work[len(work)-1]
		if top.pos < len(top.neighbors) {
			w := top.neighbors[top.pos]
			top.pos++
			if _, seen := index[w]; !seen {
				wNeighbors, err := g.GetNeighbors(w, graphstore.Outgoing, edgeKind)
				if err != nil {
					return fmt.Errorf("algorithms: SCC at node %d: %w", w, err)
				}
				index[w] = *counter
				lowlink[w] = *counter
				*counter++
				*tarjanStack = append(*tarjanStack, w)
				onStack[w] = true
				work = append(work, &workFrame{node: w, neighbors: wNeighbors})
			} else if onStack[w] {
				if index[w] < lowlink[top.node] {
					lowlink[top.node] = index[w]
				}
			}
			continue
		}

		work = work[:len(work)-1]
		if len(work) > 0 {
			parent := work[len(work)-1]
			if lowlink[top.node] < lowlink[parent.node] {
				lowlink[parent.node] = lowlink[top.node]
			}
		}
		if lowlink[top.node] == index[top.node] {
			var comp []graphstore.NodeID
			for {
				n := len(*tarjanStack) - 1
				w := (*tarjanStack)[n]
				*tarjanStack = (*tarjanStack)[:n]
				onStack[w] = false
				comp = append(comp, w)
				if w == top.node {
					break
				}
			}
			*components = append(*components, comp)
		}
	}
	return nil
}
