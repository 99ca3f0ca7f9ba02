package graphexport

import (
	"encoding/json"
	"io"

	"github.com/codegraph/codegraph/pkg/graphstore"
)

// jsonNode and jsonEdge are the wire shape of WriteJSON's output: id,
// discriminator, and the ordered property map.
type jsonNode struct {
	ID         graphstore.NodeID       `json:"id"`
	Kind       graphstore.NodeKind     `json:"discriminator"`
	Properties *graphstore.PropertyMap `json:"properties"`
}

type jsonEdge struct {
	ID         graphstore.EdgeID       `json:"id"`
	Source     graphstore.NodeID       `json:"source"`
	Target     graphstore.NodeID       `json:"target"`
	Kind       graphstore.EdgeKind     `json:"discriminator"`
	Properties *graphstore.PropertyMap `json:"properties"`
}

type jsonExport struct {
	Nodes []jsonNode `json:"nodes"`
	Edges []jsonEdge `json:"edges"`
}

// WriteJSON writes `{"nodes": [...], "edges": [...]}` with arrays in
// ascending-id order for reproducibility.
func WriteJSON(store *graphstore.Store, w io.Writer, opts Options) error {
	if _, _, err := checkSize(store, opts); err != nil {
		return err
	}

	nodes, err := allNodes(store)
	if err != nil {
		return err
	}
	edges, err := allEdges(store)
	if err != nil {
		return err
	}

	out := jsonExport{
		Nodes: make([]jsonNode, len(nodes)),
		Edges: make([]jsonEdge, len(edges)),
	}
	for i, n := range nodes {
		out.Nodes[i] = jsonNode{ID: n.ID, Kind: n.Kind, Properties: n.Properties}
	}
	for i, e := range edges {
		out.Edges[i] = jsonEdge{ID: e.ID, Source: e.Source, Target: e.Target, Kind: e.Kind, Properties: e.Properties}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
