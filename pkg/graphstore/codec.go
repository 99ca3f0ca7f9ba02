package graphstore

import "encoding/json"

// wireNode and wireEdge are the on-disk JSON shape of a Node/Edge. Ids are
// carried as plain JSON numbers (not the binary key encoding in package
// storekv) purely for readability when a store is inspected by hand;
// the authoritative ordering still comes from the fixed-width key, not
// from this payload.
type wireNode struct {
	ID         NodeID       `json:"id"`
	Kind       NodeKind     `json:"kind"`
	Properties *PropertyMap `json:"properties"`
}

type wireEdge struct {
	ID         EdgeID       `json:"id"`
	Source     NodeID       `json:"source"`
	Target     NodeID       `json:"target"`
	Kind       EdgeKind     `json:"kind"`
	Properties *PropertyMap `json:"properties"`
}

func encodeNode(n *Node) ([]byte, error) {
	props := n.Properties
	if props == nil {
		props = NewPropertyMap()
	}
	return json.Marshal(wireNode{ID: n.ID, Kind: n.Kind, Properties: props})
}

func decodeNode(data []byte) (*Node, error) {
	var wn wireNode
	wn.Properties = NewPropertyMap()
	if err := json.Unmarshal(data, &wn); err != nil {
		return nil, err
	}
	return &Node{ID: wn.ID, Kind: wn.Kind, Properties: wn.Properties}, nil
}

func encodeEdge(e *Edge) ([]byte, error) {
	props := e.Properties
	if props == nil {
		props = NewPropertyMap()
	}
	return json.Marshal(wireEdge{ID: e.ID, Source: e.Source, Target: e.Target, Kind: e.Kind, Properties: props})
}

func decodeEdge(data []byte) (*Edge, error) {
	var we wireEdge
	we.Properties = NewPropertyMap()
	if err := json.Unmarshal(data, &we); err != nil {
		return nil, err
	}
	return &Edge{ID: we.ID, Source: we.Source, Target: we.Target, Kind: we.Kind, Properties: we.Properties}, nil
}
