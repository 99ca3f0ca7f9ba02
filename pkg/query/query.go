// Package query implements a fluent query builder: a composable filter
// chain over package graphstore's node space, with a fixed pushdown
// execution order so cheap filters always run before expensive ones.
//
// Example Usage:
//
//	ids, err := query.New(store).
//		ByKind(graphstore.KindFunction).
//		NameContains("parse").
//		InFile("src/lexer.rs").
//		Execute()
//	if err != nil {
//		log.Fatal(err)
//	}
package query

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/codegraph/codegraph/pkg/graphstore"
)

// propertyFilter is one exact-value property match accumulated by
// WithProperty.
type propertyFilter struct {
	key   string
	value graphstore.Value
}

// Query is a composable, reusable filter chain. Every chain method
// returns the same *Query so calls can be chained fluently; the chain is
// only evaluated by a terminal method (Execute, Count, Exists).
type Query struct {
	store *graphstore.Store

	kind        *graphstore.NodeKind
	properties  []propertyFilter
	nameSubstr  *string
	inFile      *string
	filePattern *string
	predicates  []func(*graphstore.Node) bool
}

// New starts a query chain over store.
func New(store *graphstore.Store) *Query {
	return &Query{store: store}
}

// ByKind restricts results to nodes of the given discriminator. This is
// the pushdown filter's first stage: it drives the candidate scan itself
// via graphstore.Store.NodesByKind rather than filtering after the fact.
func (q *Query) ByKind(kind graphstore.NodeKind) *Query {
	k := kind
	q.kind = &k
	return q
}

// WithProperty adds an exact-value property match. Multiple calls are
// ANDed together.
func (q *Query) WithProperty(key string, value graphstore.Value) *Query {
	q.properties = append(q.properties, propertyFilter{key: key, value: value})
	return q
}

// NameContains keeps only nodes whose "name" property contains substr.
func (q *Query) NameContains(substr string) *Query {
	s := substr
	q.nameSubstr = &s
	return q
}

// InFile keeps only nodes that a File node with the exact path given
// reaches through one direct Contains edge; nodes nested deeper (a
// method contained by a class) do not match.
func (q *Query) InFile(path string) *Query {
	p := path
	q.inFile = &p
	return q
}

// FileGlob keeps only nodes whose containing file's path matches the
// given shell glob pattern (path/filepath.Match syntax).
func (q *Query) FileGlob(pattern string) *Query {
	p := pattern
	q.filePattern = &p
	return q
}

// Where adds a custom predicate. Predicates are always evaluated last in
// the pushdown order, after the type, property, and file filters have
// reduced the candidate set.
func (q *Query) Where(pred func(*graphstore.Node) bool) *Query {
	q.predicates = append(q.predicates, pred)
	return q
}

// candidates returns the type-indexed (or, absent a ByKind filter,
// full-scan) starting set, in ascending id order.
func (q *Query) candidates() ([]*graphstore.Node, error) {
	if q.kind != nil {
		ids, err := q.store.NodesByKind(*q.kind)
		if err != nil {
			return nil, err
		}
		out := make([]*graphstore.Node, 0, len(ids))
		for _, id := range ids {
			n, err := q.store.GetNode(id)
			if err != nil {
				return nil, err
			}
			out = append(out, n)
		}
		return out, nil
	}

	it, err := q.store.ScanNodes()
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

// matchesPropertyAndName applies the constant-time-per-candidate property
// and name filters (pushdown stage 2).
func (q *Query) matchesPropertyAndName(n *graphstore.Node) bool {
	for _, f := range q.properties {
		v, ok := n.Properties.Get(f.key)
		if !ok || !v.Equal(f.value) {
			return false
		}
	}
	if q.nameSubstr != nil {
		v, ok := n.Properties.Get("name")
		if !ok || v.Kind != graphstore.ValueString || !strings.Contains(v.Str, *q.nameSubstr) {
			return false
		}
	}
	return true
}

// matchesFile applies the file / file-pattern filters (pushdown stage
// 3), which may require a neighbor lookup per candidate.
func (q *Query) matchesFile(n *graphstore.Node) (bool, error) {
	if q.inFile == nil && q.filePattern == nil {
		return true, nil
	}
	path, ok, err := q.containingFilePath(n.ID)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	if q.inFile != nil && path != *q.inFile {
		return false, nil
	}
	if q.filePattern != nil {
		matched, err := filepath.Match(*q.filePattern, path)
		if err != nil {
			return false, fmt.Errorf("query: bad file pattern %q: %w", *q.filePattern, err)
		}
		if !matched {
			return false, nil
		}
	}
	return true, nil
}

// containingFilePath resolves the path property of the File node that
// reaches id via a Contains edge.
func (q *Query) containingFilePath(id graphstore.NodeID) (string, bool, error) {
	containsKind := graphstore.EdgeContains
	sources, err := q.store.GetNeighbors(id, graphstore.Incoming, &containsKind)
	if err != nil {
		return "", false, err
	}
	for _, srcID := range sources {
		src, err := q.store.GetNode(srcID)
		if err != nil {
			if err == graphstore.ErrNotFound {
				continue
			}
			return "", false, err
		}
		if src.Kind != graphstore.KindFile {
			continue
		}
		v, ok := src.Properties.Get("path")
		if !ok || v.Kind != graphstore.ValueString {
			continue
		}
		return v.Str, true, nil
	}
	return "", false, nil
}

// run evaluates the full pushdown chain, stopping early if stopAt returns
// true for a match (used by Exists to short-circuit).
func (q *Query) run(stopAt func(int) bool) ([]*graphstore.Node, error) {
	candidates, err := q.candidates()
	if err != nil {
		return nil, err
	}

	var out []*graphstore.Node
	for _, n := range candidates {
		if !q.matchesPropertyAndName(n) {
			continue
		}
		fileMatch, err := q.matchesFile(n)
		if err != nil {
			return nil, err
		}
		if !fileMatch {
			continue
		}
		matched := true
		for _, pred := range q.predicates {
			if !pred(n) {
				matched = false
				break
			}
		}
		if !matched {
			continue
		}
		out = append(out, n)
		if stopAt != nil && stopAt(len(out)) {
			return out, nil
		}
	}
	return out, nil
}

// Execute runs the chain and returns every matching node, in ascending
// id order.
func (q *Query) Execute() ([]*graphstore.Node, error) {
	return q.run(nil)
}

// Count returns the number of matching nodes.
func (q *Query) Count() (int, error) {
	nodes, err := q.run(nil)
	if err != nil {
		return 0, err
	}
	return len(nodes), nil
}

// Exists reports whether at least one node matches, short-circuiting on
// the first match.
func (q *Query) Exists() (bool, error) {
	nodes, err := q.run(func(n int) bool { return n >= 1 })
	if err != nil {
		return false, err
	}
	return len(nodes) >= 1, nil
}
