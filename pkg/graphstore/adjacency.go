package graphstore

import "github.com/elliotchance/orderedmap"

// edgeSet is an insertion-ordered set of edge ids. It backs every slot of
// the outgoing/incoming/typed adjacency index. Using an ordered map
// rather than a plain map[EdgeID]struct{} is what gives BFS/DFS/query
// their deterministic tie-break: traversal order follows the insertion
// order of the index for the current node.
type edgeSet struct {
	m *orderedmap.OrderedMap
}

func newEdgeSet() *edgeSet {
	return &edgeSet{m: orderedmap.NewOrderedMap()}
}

func (s *edgeSet) add(id EdgeID) {
	s.m.Set(id, struct{}{})
}

func (s *edgeSet) remove(id EdgeID) {
	s.m.Delete(id)
}

func (s *edgeSet) contains(id EdgeID) bool {
	_, ok := s.m.Get(id)
	return ok
}

func (s *edgeSet) len() int {
	return s.m.Len()
}

// ids returns the set's members in insertion order.
func (s *edgeSet) ids() []EdgeID {
	out := make([]EdgeID, 0, s.m.Len())
	for el := s.m.Front(); el != nil; el = el.Next() {
		out = append(out, el.Key.(EdgeID))
	}
	return out
}

// typedKey indexes the third adjacency mapping: (node, discriminator,
// direction) -> edge ids.
type typedKey struct {
	node NodeID
	kind EdgeKind
	dir  Direction
}

// adjacency bundles the three indices plus the edge cache needed to
// resolve "the other end" of an edge during neighbor queries without a
// backend round trip per edge.
type adjacency struct {
	outgoing  map[NodeID]*edgeSet
	incoming  map[NodeID]*edgeSet
	typed     map[typedKey]*edgeSet
	edgeCache map[EdgeID]*Edge
}

func newAdjacency() *adjacency {
	return &adjacency{
		outgoing:  make(map[NodeID]*edgeSet),
		incoming:  make(map[NodeID]*edgeSet),
		typed:     make(map[typedKey]*edgeSet),
		edgeCache: make(map[EdgeID]*Edge),
	}
}

func (a *adjacency) outSetFor(id NodeID) *edgeSet {
	s, ok := a.outgoing[id]
	if !ok {
		s = newEdgeSet()
		a.outgoing[id] = s
	}
	return s
}

func (a *adjacency) inSetFor(id NodeID) *edgeSet {
	s, ok := a.incoming[id]
	if !ok {
		s = newEdgeSet()
		a.incoming[id] = s
	}
	return s
}

func (a *adjacency) typedSetFor(key typedKey) *edgeSet {
	s, ok := a.typed[key]
	if !ok {
		s = newEdgeSet()
		a.typed[key] = s
	}
	return s
}

// addEdge records e in every index slot it belongs to. Called only after
// the backing batch write has been acknowledged.
func (a *adjacency) addEdge(e *Edge) {
	a.edgeCache[e.ID] = e
	a.outSetFor(e.Source).add(e.ID)
	a.inSetFor(e.Target).add(e.ID)
	a.typedSetFor(typedKey{node: e.Source, kind: e.Kind, dir: Outgoing}).add(e.ID)
	a.typedSetFor(typedKey{node: e.Target, kind: e.Kind, dir: Incoming}).add(e.ID)
}

// removeEdge undoes addEdge. Safe to call even if e was never added.
func (a *adjacency) removeEdge(e *Edge) {
	delete(a.edgeCache, e.ID)
	if s, ok := a.outgoing[e.Source]; ok {
		s.remove(e.ID)
	}
	if s, ok := a.incoming[e.Target]; ok {
		s.remove(e.ID)
	}
	if s, ok := a.typed[typedKey{node: e.Source, kind: e.Kind, dir: Outgoing}]; ok {
		s.remove(e.ID)
	}
	if s, ok := a.typed[typedKey{node: e.Target, kind: e.Kind, dir: Incoming}]; ok {
		s.remove(e.ID)
	}
}

// incidentEdgeIDs returns, in a stable order (outgoing first, then
// incoming edges not already listed), every edge touching node. DeleteNode
// uses this to compute the cascade set.
func (a *adjacency) incidentEdgeIDs(node NodeID) []EdgeID {
	seen := make(map[EdgeID]struct{})
	var out []EdgeID
	if s, ok := a.outgoing[node]; ok {
		for _, id := range s.ids() {
			if _, dup := seen[id]; !dup {
				seen[id] = struct{}{}
				out = append(out, id)
			}
		}
	}
	if s, ok := a.incoming[node]; ok {
		for _, id := range s.ids() {
			if _, dup := seen[id]; !dup {
				seen[id] = struct{}{}
				out = append(out, id)
			}
		}
	}
	return out
}
