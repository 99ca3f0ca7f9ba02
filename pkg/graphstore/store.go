package graphstore

import (
	"fmt"
	"log"
	"sync"

	"github.com/elliotchance/orderedmap"

	"github.com/codegraph/codegraph/pkg/storekv"
)

// CurrentSchemaVersion is the on-disk schema version this build writes and
// expects. Open fails with ErrSchemaVersionMismatch when an existing store
// carries a different value.
const CurrentSchemaVersion = 1

// NodeSpec describes one node to create via BatchAddNodes.
type NodeSpec struct {
	Kind       NodeKind
	Properties *PropertyMap
}

// EdgeSpec describes one edge to create via BatchAddEdges.
type EdgeSpec struct {
	Source, Target NodeID
	Kind           EdgeKind
	Properties     *PropertyMap
}

// Store is the typed node/edge store. A single sync.RWMutex guards both
// the backend write and the adjacency-index update as one atomic critical
// section: one writer at a time, any number of concurrent readers.
type Store struct {
	mu      sync.RWMutex
	backend storekv.Backend
	logger  *log.Logger

	nextNodeID uint64
	nextEdgeID uint64

	adj *adjacency
	// kindIndex lets the query builder's discriminator filter drive its
	// candidate scan from a per-kind set instead of a full node scan.
	kindIndex map[NodeKind]*orderedmap.OrderedMap
	closed    bool
}

func (s *Store) kindSetFor(kind NodeKind) *orderedmap.OrderedMap {
	set, ok := s.kindIndex[kind]
	if !ok {
		set = orderedmap.NewOrderedMap()
		s.kindIndex[kind] = set
	}
	return set
}

// NodesByKind returns, in insertion order, the ids of every node of kind.
func (s *Store) NodesByKind(kind NodeKind) ([]NodeID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	set, ok := s.kindIndex[kind]
	if !ok {
		return nil, nil
	}
	out := make([]NodeID, 0, set.Len())
	for el := set.Front(); el != nil; el = el.Next() {
		out = append(out, el.Key.(NodeID))
	}
	return out, nil
}

// Option configures a Store at Open time.
type Option func(*Store)

// WithLogger overrides the default logger, which writes to the standard
// logger's destination with a "graphstore: " prefix.
func WithLogger(l *log.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// Open builds a Store on top of backend, replaying every persisted edge to
// reconstruct the in-memory adjacency index. Open rejects a backend whose
// schema-version metadata does not match CurrentSchemaVersion and stamps a
// fresh backend with the current version.
func Open(backend storekv.Backend, opts ...Option) (*Store, error) {
	s := &Store{
		backend:    backend,
		logger:     log.New(log.Writer(), "graphstore: ", log.LstdFlags),
		nextNodeID: 1,
		nextEdgeID: 1,
		adj:        newAdjacency(),
		kindIndex:  make(map[NodeKind]*orderedmap.OrderedMap),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.checkSchemaVersion(); err != nil {
		return nil, err
	}
	if err := s.loadWatermarks(); err != nil {
		return nil, err
	}
	if err := s.reload(); err != nil {
		return nil, err
	}
	s.logger.Printf("opened store: next node id %d, next edge id %d, %d edges indexed",
		s.nextNodeID, s.nextEdgeID, len(s.adj.edgeCache))
	return s, nil
}

func (s *Store) checkSchemaVersion() error {
	raw, err := s.backend.Get([]byte(storekv.MetaSchemaVersion))
	if err == storekv.ErrNotFound {
		return s.backend.Put([]byte(storekv.MetaSchemaVersion), []byte{CurrentSchemaVersion})
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	if len(raw) != 1 || raw[0] != CurrentSchemaVersion {
		return fmt.Errorf("%w: %w", ErrStorage, ErrSchemaVersionMismatch)
	}
	return nil
}

func (s *Store) loadWatermarks() error {
	if v, err := s.getWatermark(storekv.MetaNextNodeID); err != nil {
		return err
	} else if v != 0 {
		s.nextNodeID = v
	}
	if v, err := s.getWatermark(storekv.MetaNextEdgeID); err != nil {
		return err
	} else if v != 0 {
		s.nextEdgeID = v
	}
	return nil
}

func (s *Store) getWatermark(key string) (uint64, error) {
	raw, err := s.backend.Get([]byte(key))
	if err == storekv.ErrNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	if len(raw) != 8 {
		return 0, fmt.Errorf("%w: malformed watermark %q", ErrStorage, key)
	}
	var v uint64
	for _, b := range raw {
		v = v<<8 | uint64(b)
	}
	return v, nil
}

func encodeWatermark(v uint64) []byte {
	buf := make([]byte, 8)
	for i := 7; i >= 0; i-- {
		buf[i] = byte(v)
		v >>= 8
	}
	return buf
}

// reload rescans every persisted node and edge, rebuilding the kind
// index and the three adjacency indices plus the edge cache from
// scratch. The index is a derived structure: always exactly the fold of
// persisted edges, so it can always be rebuilt by rescanning.
func (s *Store) reload() error {
	nodeIt := s.backend.ScanPrefix([]byte(storekv.NodePrefix))
	defer nodeIt.Close()
	for nodeIt.Next() {
		n, err := decodeNode(nodeIt.Value())
		if err != nil {
			return fmt.Errorf("%w: decoding node: %v", ErrStorage, err)
		}
		s.kindSetFor(n.Kind).Set(n.ID, struct{}{})
	}
	if err := nodeIt.Err(); err != nil {
		return err
	}

	edgeIt := s.backend.ScanPrefix([]byte(storekv.EdgePrefix))
	defer edgeIt.Close()
	for edgeIt.Next() {
		e, err := decodeEdge(edgeIt.Value())
		if err != nil {
			return fmt.Errorf("%w: decoding edge: %v", ErrStorage, err)
		}
		s.adj.addEdge(e)
	}
	return edgeIt.Err()
}

// Flush forces the backend to persist every acknowledged write.
func (s *Store) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}
	if err := s.backend.Flush(); err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return nil
}

// Close releases the underlying backend. Close is idempotent.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.backend.Close()
}

func (s *Store) checkOpen() error {
	if s.closed {
		return fmt.Errorf("%w: store is closed", ErrStorage)
	}
	return nil
}

// AddNode allocates a new node id and persists kind/props. Fails with
// ErrInvalidArgument if kind is not one of the closed discriminator set.
func (s *Store) AddNode(kind NodeKind, props *PropertyMap) (NodeID, error) {
	if !ValidNodeKind(kind) {
		return 0, fmt.Errorf("%w: unknown node kind %q", ErrInvalidArgument, kind)
	}
	if props == nil {
		props = NewPropertyMap()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return 0, err
	}

	id := NodeID(s.nextNodeID)
	node := &Node{ID: id, Kind: kind, Properties: props}
	payload, err := encodeNode(node)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	batch := storekv.Batch{}.
		Put(storekv.NodeKey(uint64(id)), payload).
		Put([]byte(storekv.MetaNextNodeID), encodeWatermark(uint64(id)+1))

	if err := s.backend.WriteBatch(batch); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrBatchFailed, err)
	}
	s.nextNodeID = uint64(id) + 1
	s.kindSetFor(kind).Set(id, struct{}{})
	return id, nil
}

// GetNode returns the node with id, or ErrNotFound.
func (s *Store) GetNode(id NodeID) (*Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	return s.getNodeLocked(id)
}

func (s *Store) getNodeLocked(id NodeID) (*Node, error) {
	raw, err := s.backend.Get(storekv.NodeKey(uint64(id)))
	if err == storekv.ErrNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	n, err := decodeNode(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: decoding node %d: %v", ErrStorage, id, err)
	}
	return n, nil
}

// UpdateNode replaces the node's properties atomically. The node's kind
// and id are immutable.
func (s *Store) UpdateNode(id NodeID, props *PropertyMap) error {
	if props == nil {
		props = NewPropertyMap()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}
	existing, err := s.getNodeLocked(id)
	if err != nil {
		return err
	}
	existing.Properties = props
	payload, err := encodeNode(existing)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	if err := s.backend.Put(storekv.NodeKey(uint64(id)), payload); err != nil {
		return fmt.Errorf("%w: %v", ErrBatchFailed, err)
	}
	return nil
}

// DeleteNode removes the node and every edge incident to it in one atomic
// batch, so no dangling edge ever survives its endpoint. Deleting an
// absent node returns ErrNotFound.
func (s *Store) DeleteNode(id NodeID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}
	existing, err := s.getNodeLocked(id)
	if err != nil {
		return err
	}

	incident := s.adj.incidentEdgeIDs(id)
	batch := storekv.Batch{}.Delete(storekv.NodeKey(uint64(id)))
	edges := make([]*Edge, 0, len(incident))
	for _, eid := range incident {
		e, ok := s.adj.edgeCache[eid]
		if !ok {
			continue
		}
		edges = append(edges, e)
		batch = batch.Delete(storekv.EdgeKey(uint64(eid)))
	}

	if err := s.backend.WriteBatch(batch); err != nil {
		return fmt.Errorf("%w: %v", ErrBatchFailed, err)
	}

	for _, e := range edges {
		s.adj.removeEdge(e)
	}
	delete(s.adj.outgoing, id)
	delete(s.adj.incoming, id)
	if set, ok := s.kindIndex[existing.Kind]; ok {
		set.Delete(id)
	}
	return nil
}

// AddEdge allocates a new edge id and persists it, then updates the
// adjacency index. Fails with ErrNotFound if either endpoint does not
// exist, and with ErrInvalidArgument for an unknown discriminator.
func (s *Store) AddEdge(source, target NodeID, kind EdgeKind, props *PropertyMap) (EdgeID, error) {
	if !ValidEdgeKind(kind) {
		return 0, fmt.Errorf("%w: unknown edge kind %q", ErrInvalidArgument, kind)
	}
	if props == nil {
		props = NewPropertyMap()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return 0, err
	}
	if _, err := s.getNodeLocked(source); err != nil {
		return 0, err
	}
	if _, err := s.getNodeLocked(target); err != nil {
		return 0, err
	}

	id := EdgeID(s.nextEdgeID)
	edge := &Edge{ID: id, Source: source, Target: target, Kind: kind, Properties: props}
	payload, err := encodeEdge(edge)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	batch := storekv.Batch{}.
		Put(storekv.EdgeKey(uint64(id)), payload).
		Put([]byte(storekv.MetaNextEdgeID), encodeWatermark(uint64(id)+1))

	if err := s.backend.WriteBatch(batch); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrBatchFailed, err)
	}
	s.nextEdgeID = uint64(id) + 1
	s.adj.addEdge(edge)
	return id, nil
}

// GetEdge returns the edge with id, or ErrNotFound.
func (s *Store) GetEdge(id EdgeID) (*Edge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	if e, ok := s.adj.edgeCache[id]; ok {
		cp := *e
		return &cp, nil
	}
	return nil, ErrNotFound
}

// UpdateEdge replaces the edge's properties atomically. Source, target,
// and kind are immutable.
func (s *Store) UpdateEdge(id EdgeID, props *PropertyMap) error {
	if props == nil {
		props = NewPropertyMap()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}
	existing, ok := s.adj.edgeCache[id]
	if !ok {
		return ErrNotFound
	}
	updated := &Edge{ID: existing.ID, Source: existing.Source, Target: existing.Target, Kind: existing.Kind, Properties: props}
	payload, err := encodeEdge(updated)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	if err := s.backend.Put(storekv.EdgeKey(uint64(id)), payload); err != nil {
		return fmt.Errorf("%w: %v", ErrBatchFailed, err)
	}
	s.adj.edgeCache[id] = updated
	return nil
}

// DeleteEdge removes the edge and updates the adjacency index. Deleting an
// absent edge returns ErrNotFound.
func (s *Store) DeleteEdge(id EdgeID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}
	e, ok := s.adj.edgeCache[id]
	if !ok {
		return ErrNotFound
	}
	if err := s.backend.Delete(storekv.EdgeKey(uint64(id))); err != nil {
		return fmt.Errorf("%w: %v", ErrBatchFailed, err)
	}
	s.adj.removeEdge(e)
	return nil
}

// BatchAddNodes creates every spec in one atomic batch, returning ids in
// the same order as specs.
func (s *Store) BatchAddNodes(specs []NodeSpec) ([]NodeID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	ids := make([]NodeID, len(specs))
	nodes := make([]*Node, len(specs))
	batch := storekv.Batch{}
	next := s.nextNodeID
	for i, spec := range specs {
		if !ValidNodeKind(spec.Kind) {
			return nil, fmt.Errorf("%w: unknown node kind %q", ErrInvalidArgument, spec.Kind)
		}
		props := spec.Properties
		if props == nil {
			props = NewPropertyMap()
		}
		id := NodeID(next)
		node := &Node{ID: id, Kind: spec.Kind, Properties: props}
		payload, err := encodeNode(node)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStorage, err)
		}
		batch = batch.Put(storekv.NodeKey(uint64(id)), payload)
		ids[i] = id
		nodes[i] = node
		next++
	}
	batch = batch.Put([]byte(storekv.MetaNextNodeID), encodeWatermark(next))

	if err := s.backend.WriteBatch(batch); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBatchFailed, err)
	}
	s.nextNodeID = next
	for _, n := range nodes {
		s.kindSetFor(n.Kind).Set(n.ID, struct{}{})
	}
	return ids, nil
}

// BatchAddEdges creates every spec in one atomic batch, returning ids in
// the same order as specs. The whole batch fails, with no partial effect,
// if any endpoint does not exist.
func (s *Store) BatchAddEdges(specs []EdgeSpec) ([]EdgeID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	for _, spec := range specs {
		if !ValidEdgeKind(spec.Kind) {
			return nil, fmt.Errorf("%w: unknown edge kind %q", ErrInvalidArgument, spec.Kind)
		}
		if _, err := s.getNodeLocked(spec.Source); err != nil {
			return nil, err
		}
		if _, err := s.getNodeLocked(spec.Target); err != nil {
			return nil, err
		}
	}

	ids := make([]EdgeID, len(specs))
	edges := make([]*Edge, len(specs))
	batch := storekv.Batch{}
	next := s.nextEdgeID
	for i, spec := range specs {
		props := spec.Properties
		if props == nil {
			props = NewPropertyMap()
		}
		id := EdgeID(next)
		edge := &Edge{ID: id, Source: spec.Source, Target: spec.Target, Kind: spec.Kind, Properties: props}
		payload, err := encodeEdge(edge)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStorage, err)
		}
		batch = batch.Put(storekv.EdgeKey(uint64(id)), payload)
		ids[i] = id
		edges[i] = edge
		next++
	}
	batch = batch.Put([]byte(storekv.MetaNextEdgeID), encodeWatermark(next))

	if err := s.backend.WriteBatch(batch); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBatchFailed, err)
	}
	s.nextEdgeID = next
	for _, e := range edges {
		s.adj.addEdge(e)
	}
	return ids, nil
}

// NodeRef identifies an edge endpoint for BatchWrite: either the id of a
// node that already exists in the store, or the index of a node created
// earlier in the same nodeSpecs slice passed to the same BatchWrite call.
// The zero value is deliberately invalid (BatchWrite rejects an
// ExistingNodeRef(0), since 0 is never an allocated node id) so a
// forgotten Source or Target fails loudly instead of silently pointing
// at node 1.
type NodeRef struct {
	id    NodeID
	index int
	isNew bool
}

// ExistingNodeRef references a node already persisted in the store.
func ExistingNodeRef(id NodeID) NodeRef { return NodeRef{id: id} }

// NewNodeRef references the node at nodeSpecs[index] within the same
// BatchWrite call.
func NewNodeRef(index int) NodeRef { return NodeRef{index: index, isNew: true} }

// EdgeWriteSpec is an edge to create as part of BatchWrite, whose
// endpoints may reference nodes created in the same call.
type EdgeWriteSpec struct {
	Source, Target NodeRef
	Kind           EdgeKind
	Properties     *PropertyMap
}

// BatchWrite creates every node in nodeSpecs and every edge in edgeSpecs
// as a single atomic backend batch. Edge endpoints resolve against either
// a pre-existing node (ExistingNodeRef) or a node created at nodeSpecs[i]
// in this same call (NewNodeRef), so a caller populating an entire file's
// worth of nodes and edges never has to split the insert across two
// backend round trips the way BatchAddNodes followed by BatchAddEdges
// would; a failure anywhere leaves nothing behind.
func (s *Store) BatchWrite(nodeSpecs []NodeSpec, edgeSpecs []EdgeWriteSpec) ([]NodeID, []EdgeID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return nil, nil, err
	}

	nodeIDs := make([]NodeID, len(nodeSpecs))
	nodes := make([]*Node, len(nodeSpecs))
	batch := storekv.Batch{}
	nextNode := s.nextNodeID
	for i, spec := range nodeSpecs {
		if !ValidNodeKind(spec.Kind) {
			return nil, nil, fmt.Errorf("%w: unknown node kind %q", ErrInvalidArgument, spec.Kind)
		}
		props := spec.Properties
		if props == nil {
			props = NewPropertyMap()
		}
		id := NodeID(nextNode)
		node := &Node{ID: id, Kind: spec.Kind, Properties: props}
		payload, err := encodeNode(node)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrStorage, err)
		}
		batch = batch.Put(storekv.NodeKey(uint64(id)), payload)
		nodeIDs[i] = id
		nodes[i] = node
		nextNode++
	}

	resolve := func(ref NodeRef) (NodeID, error) {
		if ref.isNew {
			if ref.index < 0 || ref.index >= len(nodeIDs) {
				return 0, fmt.Errorf("%w: edge references out-of-range new node index %d", ErrInvalidArgument, ref.index)
			}
			return nodeIDs[ref.index], nil
		}
		if ref.id == 0 {
			return 0, fmt.Errorf("%w: edge references an unset node endpoint", ErrInvalidArgument)
		}
		if _, err := s.getNodeLocked(ref.id); err != nil {
			return 0, err
		}
		return ref.id, nil
	}

	edgeIDs := make([]EdgeID, len(edgeSpecs))
	edges := make([]*Edge, len(edgeSpecs))
	nextEdge := s.nextEdgeID
	for i, spec := range edgeSpecs {
		if !ValidEdgeKind(spec.Kind) {
			return nil, nil, fmt.Errorf("%w: unknown edge kind %q", ErrInvalidArgument, spec.Kind)
		}
		source, err := resolve(spec.Source)
		if err != nil {
			return nil, nil, err
		}
		target, err := resolve(spec.Target)
		if err != nil {
			return nil, nil, err
		}
		props := spec.Properties
		if props == nil {
			props = NewPropertyMap()
		}
		id := EdgeID(nextEdge)
		edge := &Edge{ID: id, Source: source, Target: target, Kind: spec.Kind, Properties: props}
		payload, err := encodeEdge(edge)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrStorage, err)
		}
		batch = batch.Put(storekv.EdgeKey(uint64(id)), payload)
		edgeIDs[i] = id
		edges[i] = edge
		nextEdge++
	}

	batch = batch.
		Put([]byte(storekv.MetaNextNodeID), encodeWatermark(nextNode)).
		Put([]byte(storekv.MetaNextEdgeID), encodeWatermark(nextEdge))

	if err := s.backend.WriteBatch(batch); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrBatchFailed, err)
	}

	s.nextNodeID = nextNode
	s.nextEdgeID = nextEdge
	for _, n := range nodes {
		s.kindSetFor(n.Kind).Set(n.ID, struct{}{})
	}
	for _, e := range edges {
		s.adj.addEdge(e)
	}
	return nodeIDs, edgeIDs, nil
}

// GetNeighbors returns the deduplicated ids of nodes reachable from id by
// a single hop in direction dir, optionally filtered to a single edge
// kind. Parallel edges to the same neighbor remain distinct edges in the
// store but collapse to one entry here; a caller wanting edge-level
// detail uses GetEdgesBetween instead. Order follows first discovery in
// the adjacency index's insertion order, so it is stable within a
// process run.
func (s *Store) GetNeighbors(id NodeID, dir Direction, kind *EdgeKind) ([]NodeID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	var edgeIDs []EdgeID
	switch dir {
	case Outgoing:
		edgeIDs = s.edgeIDsFor(id, Outgoing, kind)
	case Incoming:
		edgeIDs = s.edgeIDsFor(id, Incoming, kind)
	case Both:
		edgeIDs = append(s.edgeIDsFor(id, Outgoing, kind), s.edgeIDsFor(id, Incoming, kind)...)
	default:
		return nil, fmt.Errorf("%w: unknown direction", ErrInvalidArgument)
	}

	seen := make(map[NodeID]struct{}, len(edgeIDs))
	out := make([]NodeID, 0, len(edgeIDs))
	add := func(n NodeID) {
		if _, ok := seen[n]; ok {
			return
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	for _, eid := range edgeIDs {
		e := s.adj.edgeCache[eid]
		if e == nil {
			continue
		}
		if e.Source == id && (dir == Outgoing || dir == Both) {
			add(e.Target)
		} else if e.Target == id && (dir == Incoming || dir == Both) {
			add(e.Source)
		}
	}
	return out, nil
}

func (s *Store) edgeIDsFor(id NodeID, dir Direction, kind *EdgeKind) []EdgeID {
	if kind != nil {
		if set, ok := s.adj.typed[typedKey{node: id, kind: *kind, dir: dir}]; ok {
			return set.ids()
		}
		return nil
	}
	if dir == Outgoing {
		if set, ok := s.adj.outgoing[id]; ok {
			return set.ids()
		}
		return nil
	}
	if set, ok := s.adj.incoming[id]; ok {
		return set.ids()
	}
	return nil
}

// GetEdgesBetween returns the ids of every edge from source to target,
// optionally filtered to a single edge kind.
func (s *Store) GetEdgesBetween(source, target NodeID, kind *EdgeKind) ([]EdgeID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	var out []EdgeID
	for _, eid := range s.edgeIDsFor(source, Outgoing, kind) {
		e := s.adj.edgeCache[eid]
		if e != nil && e.Target == target {
			out = append(out, eid)
		}
	}
	return out, nil
}

// NodeIterator walks nodes in ascending id order.
type NodeIterator struct {
	it  storekv.Iterator
	cur *Node
	err error
}

// Next advances the iterator. Call Node after a Next that returns true.
func (ni *NodeIterator) Next() bool {
	if !ni.it.Next() {
		ni.err = ni.it.Err()
		return false
	}
	n, err := decodeNode(ni.it.Value())
	if err != nil {
		ni.err = err
		return false
	}
	ni.cur = n
	return true
}

// Node returns the current node.
func (ni *NodeIterator) Node() *Node { return ni.cur }

// Err returns any error encountered during iteration.
func (ni *NodeIterator) Err() error { return ni.err }

// Close releases resources held by the iterator.
func (ni *NodeIterator) Close() error { return ni.it.Close() }

// ScanNodes returns an iterator over every node in ascending id order.
func (s *Store) ScanNodes() (*NodeIterator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	return &NodeIterator{it: s.backend.ScanPrefix([]byte(storekv.NodePrefix))}, nil
}

// EdgeIterator walks edges in ascending id order.
type EdgeIterator struct {
	it  storekv.Iterator
	cur *Edge
	err error
}

// Next advances the iterator. Call Edge after a Next that returns true.
func (ei *EdgeIterator) Next() bool {
	if !ei.it.Next() {
		ei.err = ei.it.Err()
		return false
	}
	e, err := decodeEdge(ei.it.Value())
	if err != nil {
		ei.err = err
		return false
	}
	ei.cur = e
	return true
}

// Edge returns the current edge.
func (ei *EdgeIterator) Edge() *Edge { return ei.cur }

// Err returns any error encountered during iteration.
func (ei *EdgeIterator) Err() error { return ei.err }

// Close releases resources held by the iterator.
func (ei *EdgeIterator) Close() error { return ei.it.Close() }

// ScanEdges returns an iterator over every edge in ascending id order.
func (s *Store) ScanEdges() (*EdgeIterator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	return &EdgeIterator{it: s.backend.ScanPrefix([]byte(storekv.EdgePrefix))}, nil
}

// NodeCount returns the number of persisted nodes by scanning the node
// key range. Intended for diagnostics and tests, not hot paths.
func (s *Store) NodeCount() (int, error) {
	it, err := s.ScanNodes()
	if err != nil {
		return 0, err
	}
	defer it.Close()
	n := 0
	for it.Next() {
		n++
	}
	return n, it.Err()
}

// EdgeCount returns the number of edges in the in-memory adjacency index,
// which Open rebuilds from the persisted edges and every write keeps in
// step with them; unlike NodeCount it does not scan the backend.
func (s *Store) EdgeCount() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(); err != nil {
		return 0, err
	}
	return len(s.adj.edgeCache), nil
}
