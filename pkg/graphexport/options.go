// Package graphexport implements the deterministic export formats: DOT,
// JSON, CSV, and N-Triples, plus a portable Neo4j-style JSON round-trip
// used for backup/restore.
//
// Design Principles:
//   - One function per format, taking a graph store and an io.Writer
//   - Ascending node/edge id order for reproducibility across runs
//   - A size guardrail ahead of every writer: export-size-warn logs and
//     continues, export-size-fail refuses with ErrExportTooLarge
package graphexport

import (
	"fmt"
	"log"

	"github.com/codegraph/codegraph/pkg/graphstore"
)

// Options configures the size guardrail and logging destination shared
// by every exporter in this package.
type Options struct {
	// WarnAt is the combined node+edge count above which exporters log a
	// warning but still proceed. Zero disables the warning.
	WarnAt int
	// FailAt is the combined node+edge count above which exporters
	// refuse with ErrExportTooLarge. Zero disables the hard ceiling.
	FailAt int
	// Logger receives the warning message. Defaults to the standard
	// logger with a "graphexport: " prefix.
	Logger *log.Logger
}

// DefaultOptions returns Options with no size ceiling and the default
// logger.
func DefaultOptions() Options {
	return Options{Logger: log.New(log.Writer(), "graphexport: ", log.LstdFlags)}
}

func (o Options) logger() *log.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return log.New(log.Writer(), "graphexport: ", log.LstdFlags)
}

// checkSize counts the store's nodes and edges and enforces opts'
// guardrail, returning the counts for callers that want them.
func checkSize(store *graphstore.Store, opts Options) (nodeCount, edgeCount int, err error) {
	nodeCount, err = store.NodeCount()
	if err != nil {
		return 0, 0, err
	}
	edgeCount, err = store.EdgeCount()
	if err != nil {
		return 0, 0, err
	}
	total := nodeCount + edgeCount

	if opts.FailAt > 0 && total > opts.FailAt {
		return nodeCount, edgeCount, fmt.Errorf("%w: %d entities exceeds ceiling %d", ErrExportTooLarge, total, opts.FailAt)
	}
	if opts.WarnAt > 0 && total > opts.WarnAt {
		opts.logger().Printf("export size %d entities exceeds warning threshold %d", total, opts.WarnAt)
	}
	return nodeCount, edgeCount, nil
}

// allNodes collects every node in ascending id order.
func allNodes(store *graphstore.Store) ([]*graphstore.Node, error) {
	it, err := store.ScanNodes()
	if err != nil {
		return nil, err
	}
	defer it.Close()
	var out []*graphstore.Node
	for it.Next() {
		n := *it.Node()
		out = append(out, &n)
	}
	return out, it.Err()
}

// allEdges collects every edge in ascending id order.
func allEdges(store *graphstore.Store) ([]*graphstore.Edge, error) {
	it, err := store.ScanEdges()
	if err != nil {
		return nil, err
	}
	defer it.Close()
	var out []*graphstore.Edge
	for it.Next() {
		e := *it.Edge()
		out = append(out, &e)
	}
	return out, it.Err()
}

// nodeLabel derives a human-readable label for a node: its "name"
// property if present, otherwise a synthesized "<kind>#<id>" label.
func nodeLabel(n *graphstore.Node) string {
	if v, ok := n.Properties.Get("name"); ok && v.Kind == graphstore.ValueString && v.Str != "" {
		return v.Str
	}
	return fmt.Sprintf("%s#%d", n.Kind, n.ID)
}
