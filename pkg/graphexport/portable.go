package graphexport

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/codegraph/codegraph/pkg/graphstore"
)

// PortableNode and PortableRelationship use string ids and a flat
// property bag, so a codegraph store can be dumped to and reloaded from
// the same format `neo4j-admin database import` or `apoc.import.json`
// accept.
// Discriminators travel as a single-element Labels list for that same
// compatibility, even though this store's discriminator set is closed
// (one label per node, not Neo4j's open label set).
type PortableNode struct {
	ID         string         `json:"id"`
	Labels     []string       `json:"labels"`
	Properties map[string]any `json:"properties,omitempty"`
}

// PortableRelationship is the edge side of PortableExport.
type PortableRelationship struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	StartNode  string         `json:"start"`
	EndNode    string         `json:"end"`
	Properties map[string]any `json:"properties,omitempty"`
}

// PortableExport is the full round-trippable snapshot produced by
// ToPortableJSON and consumed by Import.
type PortableExport struct {
	Nodes         []PortableNode         `json:"nodes"`
	Relationships []PortableRelationship `json:"relationships"`
}

// ToPortableJSON converts a store snapshot to the portable shape. Ids
// are stringified since the target formats use string ids throughout.
func ToPortableJSON(store *graphstore.Store) (*PortableExport, error) {
	nodes, err := allNodes(store)
	if err != nil {
		return nil, err
	}
	edges, err := allEdges(store)
	if err != nil {
		return nil, err
	}

	out := &PortableExport{
		Nodes:         make([]PortableNode, len(nodes)),
		Relationships: make([]PortableRelationship, len(edges)),
	}
	for i, n := range nodes {
		out.Nodes[i] = PortableNode{
			ID:         fmt.Sprintf("%d", n.ID),
			Labels:     []string{string(n.Kind)},
			Properties: n.Properties.AsMap(),
		}
	}
	for i, e := range edges {
		out.Relationships[i] = PortableRelationship{
			ID:         fmt.Sprintf("%d", e.ID),
			Type:       string(e.Kind),
			StartNode:  fmt.Sprintf("%d", e.Source),
			EndNode:    fmt.Sprintf("%d", e.Target),
			Properties: e.Properties.AsMap(),
		}
	}
	return out, nil
}

// WritePortableJSON is ToPortableJSON followed by a JSON encode to w.
func WritePortableJSON(store *graphstore.Store, w io.Writer) error {
	export, err := ToPortableJSON(store)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(export)
}

// Import re-creates every node and relationship from export into store,
// allocating fresh ids (ids are never reused) and returning the
// mapping from the export's string ids to the ids actually assigned, so
// callers can cross-reference. A relationship referencing a node id not
// present in export.Nodes is an error; the whole import is one atomic
// batch per entity kind (nodes, then relationships), so a single bad
// reference leaves no partial relationships behind.
func Import(store *graphstore.Store, export *PortableExport) (map[string]graphstore.NodeID, error) {
	specs := make([]graphstore.NodeSpec, len(export.Nodes))
	for i, n := range export.Nodes {
		if len(n.Labels) == 0 {
			return nil, fmt.Errorf("graphexport: node %q has no label", n.ID)
		}
		kind := graphstore.NodeKind(n.Labels[0])
		if !graphstore.ValidNodeKind(kind) {
			return nil, fmt.Errorf("graphexport: node %q has unknown discriminator %q", n.ID, kind)
		}
		specs[i] = graphstore.NodeSpec{Kind: kind, Properties: propertyMapFromBag(n.Properties)}
	}

	newIDs, err := store.BatchAddNodes(specs)
	if err != nil {
		return nil, err
	}

	idMap := make(map[string]graphstore.NodeID, len(export.Nodes))
	for i, n := range export.Nodes {
		idMap[n.ID] = newIDs[i]
	}

	edgeSpecs := make([]graphstore.EdgeSpec, len(export.Relationships))
	for i, r := range export.Relationships {
		kind := graphstore.EdgeKind(r.Type)
		if !graphstore.ValidEdgeKind(kind) {
			return nil, fmt.Errorf("graphexport: relationship %q has unknown discriminator %q", r.ID, kind)
		}
		source, ok := idMap[r.StartNode]
		if !ok {
			return nil, fmt.Errorf("graphexport: relationship %q references unknown start node %q", r.ID, r.StartNode)
		}
		target, ok := idMap[r.EndNode]
		if !ok {
			return nil, fmt.Errorf("graphexport: relationship %q references unknown end node %q", r.ID, r.EndNode)
		}
		edgeSpecs[i] = graphstore.EdgeSpec{Source: source, Target: target, Kind: kind, Properties: propertyMapFromBag(r.Properties)}
	}

	if _, err := store.BatchAddEdges(edgeSpecs); err != nil {
		return nil, err
	}
	return idMap, nil
}

// propertyMapFromBag rebuilds an ordered property map from a flat bag.
// The bag has no order of its own, so keys are sorted; an imported store
// then serializes the same way on every run.
func propertyMapFromBag(bag map[string]any) *graphstore.PropertyMap {
	keys := make([]string, 0, len(bag))
	for k := range bag {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	props := graphstore.NewPropertyMap()
	for _, k := range keys {
		props.Set(k, graphstore.FromAny(bag[k]))
	}
	return props
}

// ReadPortableJSON decodes a PortableExport and calls Import.
func ReadPortableJSON(store *graphstore.Store, r io.Reader) (map[string]graphstore.NodeID, error) {
	var export PortableExport
	if err := json.NewDecoder(r).Decode(&export); err != nil {
		return nil, err
	}
	return Import(store, &export)
}
