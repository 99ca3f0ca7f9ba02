package graphexport

import (
	"fmt"
	"io"
	"strings"

	"github.com/codegraph/codegraph/pkg/graphstore"
)

// dotShape maps a node discriminator to a Graphviz shape, so a reader
// can tell File/Function/Class/etc. apart at a glance.
func dotShape(kind graphstore.NodeKind) string {
	switch kind {
	case graphstore.KindFile:
		return "folder"
	case graphstore.KindFunction:
		return "ellipse"
	case graphstore.KindClass, graphstore.KindInterface:
		return "box"
	case graphstore.KindModule:
		return "tab"
	case graphstore.KindVariable:
		return "ellipse"
	case graphstore.KindType, graphstore.KindGeneric:
		return "diamond"
	default:
		return "plaintext"
	}
}

// dotColor maps a node discriminator to a fill color.
func dotColor(kind graphstore.NodeKind) string {
	switch kind {
	case graphstore.KindFile:
		return "lightyellow"
	case graphstore.KindFunction:
		return "lightblue"
	case graphstore.KindClass, graphstore.KindInterface:
		return "lightgreen"
	case graphstore.KindModule:
		return "lavender"
	case graphstore.KindVariable:
		return "white"
	case graphstore.KindType, graphstore.KindGeneric:
		return "lightpink"
	default:
		return "white"
	}
}

// WriteDOT writes the store as a Graphviz directed graph. Each node is
// one vertex shaped and colored by discriminator; each edge is a
// directed arc labeled by its discriminator. Node identifiers in the
// output are the node's own id, stable across runs.
func WriteDOT(store *graphstore.Store, w io.Writer, opts Options) error {
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

	var b strings.Builder
	b.WriteString("digraph codegraph {\n")
	for _, n := range nodes {
		fmt.Fprintf(&b, "  n%d [label=%q, shape=%s, style=filled, fillcolor=%s];\n",
			n.ID, nodeLabel(n), dotShape(n.Kind), dotColor(n.Kind))
	}
	for _, e := range edges {
		fmt.Fprintf(&b, "  n%d -> n%d [label=%q];\n", e.Source, e.Target, string(e.Kind))
	}
	b.WriteString("}\n")

	_, err = io.WriteString(w, b.String())
	return err
}
