package graphexport

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/codegraph/codegraph/pkg/graphstore"
)

// listValueDelimiter joins list-valued properties within a single CSV
// field. The header documents it by suffixing list columns, e.g.
// `symbols (";"-joined)`.
const listValueDelimiter = ";"

// propertyColumns returns the ordered union of property keys across
// every record, keyed in first-seen order so the header is deterministic
// for a given store snapshot, along with the set of columns that held a
// list value anywhere.
func propertyColumns(keyed func(i int) *graphstore.PropertyMap, n int) ([]string, map[string]bool) {
	seen := map[string]struct{}{}
	listCols := map[string]bool{}
	var cols []string
	for i := 0; i < n; i++ {
		keyed(i).Range(func(k string, v graphstore.Value) bool {
			if _, ok := seen[k]; !ok {
				seen[k] = struct{}{}
				cols = append(cols, k)
			}
			if v.Kind == graphstore.ValueStringList || v.Kind == graphstore.ValueInt64List {
				listCols[k] = true
			}
			return true
		})
	}
	return cols, listCols
}

// headerCells renders property column names, marking list-valued columns
// with the delimiter that joins their elements.
func headerCells(cols []string, listCols map[string]bool) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		if listCols[c] {
			out[i] = fmt.Sprintf("%s (%q-joined)", c, listValueDelimiter)
			continue
		}
		out[i] = c
	}
	return out
}

func formatValueForCSV(v graphstore.Value) string {
	switch v.Kind {
	case graphstore.ValueString:
		return v.Str
	case graphstore.ValueInt64:
		return strconv.FormatInt(v.Int, 10)
	case graphstore.ValueFloat64:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	case graphstore.ValueBool:
		return strconv.FormatBool(v.Bool)
	case graphstore.ValueStringList:
		return strings.Join(v.StrList, listValueDelimiter)
	case graphstore.ValueInt64List:
		parts := make([]string, len(v.IntList))
		for i, n := range v.IntList {
			parts[i] = strconv.FormatInt(n, 10)
		}
		return strings.Join(parts, listValueDelimiter)
	default:
		return ""
	}
}

// WriteNodesCSV writes one header row ("id", "discriminator", then one
// column per distinct property key seen across the store) followed by
// one record per node, in ascending id order.
func WriteNodesCSV(store *graphstore.Store, w io.Writer, opts Options) error {
	if _, _, err := checkSize(store, opts); err != nil {
		return err
	}
	nodes, err := allNodes(store)
	if err != nil {
		return err
	}

	cols, listCols := propertyColumns(func(i int) *graphstore.PropertyMap { return nodes[i].Properties }, len(nodes))

	cw := csv.NewWriter(w)
	header := append([]string{"id", "discriminator"}, headerCells(cols, listCols)...)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, n := range nodes {
		row := make([]string, 0, len(header))
		row = append(row, fmt.Sprintf("%d", n.ID), string(n.Kind))
		for _, c := range cols {
			v, ok := n.Properties.Get(c)
			if !ok {
				row = append(row, "")
				continue
			}
			row = append(row, formatValueForCSV(v))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteEdgesCSV writes one header row ("id", "source", "target",
// "discriminator", then property columns) followed by one record per
// edge, in ascending id order.
func WriteEdgesCSV(store *graphstore.Store, w io.Writer, opts Options) error {
	if _, _, err := checkSize(store, opts); err != nil {
		return err
	}
	edges, err := allEdges(store)
	if err != nil {
		return err
	}

	cols, listCols := propertyColumns(func(i int) *graphstore.PropertyMap { return edges[i].Properties }, len(edges))

	cw := csv.NewWriter(w)
	header := append([]string{"id", "source", "target", "discriminator"}, headerCells(cols, listCols)...)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, e := range edges {
		row := make([]string, 0, len(header))
		row = append(row, fmt.Sprintf("%d", e.ID), fmt.Sprintf("%d", e.Source), fmt.Sprintf("%d", e.Target), string(e.Kind))
		for _, c := range cols {
			v, ok := e.Properties.Get(c)
			if !ok {
				row = append(row, "")
				continue
			}
			row = append(row, formatValueForCSV(v))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
