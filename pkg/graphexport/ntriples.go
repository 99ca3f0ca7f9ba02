package graphexport

import (
	"fmt"
	"io"
	"strings"

	"github.com/codegraph/codegraph/pkg/graphstore"
)

const ntriplesBaseURI = "urn:codegraph:"

func nodeURI(id graphstore.NodeID) string {
	return fmt.Sprintf("%snode:%d", ntriplesBaseURI, id)
}

func edgePredicateURI(kind graphstore.EdgeKind) string {
	return fmt.Sprintf("%sedge:%s", ntriplesBaseURI, kind)
}

func propertyPredicateURI(key string) string {
	return fmt.Sprintf("%sprop:%s", ntriplesBaseURI, key)
}

// ntriplesScalarProperties are the properties promoted to their own
// literal triples, beyond the edge-discriminator triples every edge
// already produces. "name" and "path" are the two properties a reader
// most often wants without opening the JSON export.
var ntriplesScalarProperties = []string{"name", "path"}

func escapeNTriplesLiteral(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	s = strings.ReplaceAll(s, "\n", `\n`)
	return s
}

// WriteNTriples writes one `<subject> <predicate> <object> .` line per
// edge, using stable URIs built from graph-local ids, plus one
// additional literal triple per selected scalar property present on
// each node.
func WriteNTriples(store *graphstore.Store, w io.Writer, opts Options) error {
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
	for _, e := range edges {
		fmt.Fprintf(&b, "<%s> <%s> <%s> .\n", nodeURI(e.Source), edgePredicateURI(e.Kind), nodeURI(e.Target))
	}
	for _, n := range nodes {
		for _, key := range ntriplesScalarProperties {
			v, ok := n.Properties.Get(key)
			if !ok || v.Kind != graphstore.ValueString {
				continue
			}
			fmt.Fprintf(&b, "<%s> <%s> \"%s\" .\n", nodeURI(n.ID), propertyPredicateURI(key), escapeNTriplesLiteral(v.Str))
		}
	}

	_, err = io.WriteString(w, b.String())
	return err
}
