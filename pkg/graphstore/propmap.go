package graphstore

import (
	"encoding/json"

	"github.com/elliotchance/orderedmap"
)

// PropertyMap is an ordered mapping from string keys to tagged Values.
// Insertion order is preserved, which is what makes serialization
// deterministic; a later Set of an existing key overwrites the value
// without moving its position (last write wins).
//
// Built on github.com/elliotchance/orderedmap, the same structure used for
// the graph store's adjacency index (package graphstore, adjacency.go);
// both need the identical guarantee: insertion order survives mutation.
type PropertyMap struct {
	m *orderedmap.OrderedMap
}

// NewPropertyMap returns an empty property map.
func NewPropertyMap() *PropertyMap {
	return &PropertyMap{m: orderedmap.NewOrderedMap()}
}

// Set upserts key to value, preserving key's original position if it
// already existed.
func (p *PropertyMap) Set(key string, value Value) {
	p.m.Set(key, value)
}

// Get returns the value for key and whether it was present.
func (p *PropertyMap) Get(key string) (Value, bool) {
	raw, ok := p.m.Get(key)
	if !ok {
		return Value{}, false
	}
	return raw.(Value), true
}

// Delete removes key, returning whether it was present.
func (p *PropertyMap) Delete(key string) bool {
	return p.m.Delete(key)
}

// Len returns the number of keys.
func (p *PropertyMap) Len() int {
	return p.m.Len()
}

// Keys returns the keys in insertion order.
func (p *PropertyMap) Keys() []string {
	raw := p.m.Keys()
	out := make([]string, len(raw))
	for i, k := range raw {
		out[i] = k.(string)
	}
	return out
}

// Range calls fn for every key/value pair in insertion order. Iteration
// stops early if fn returns false.
func (p *PropertyMap) Range(fn func(key string, value Value) bool) {
	for el := p.m.Front(); el != nil; el = el.Next() {
		if !fn(el.Key.(string), el.Value.(Value)) {
			return
		}
	}
}

// Clone returns a deep copy with the same key order and values.
func (p *PropertyMap) Clone() *PropertyMap {
	out := NewPropertyMap()
	p.Range(func(k string, v Value) bool {
		out.Set(k, v)
		return true
	})
	return out
}

// propertyEntry is the on-the-wire shape of one PropertyMap entry. Encoding
// as an array of entries (rather than a JSON object) is what lets
// serialization preserve key order; encoding/json always emits Go map
// keys sorted alphabetically, which would lose insertion order.
type propertyEntry struct {
	Key     string   `json:"key"`
	Kind    string   `json:"kind"`
	Str     string   `json:"str,omitempty"`
	Int     int64    `json:"int,omitempty"`
	Float   float64  `json:"float,omitempty"`
	Bool    bool     `json:"bool,omitempty"`
	StrList []string `json:"strList,omitempty"`
	IntList []int64  `json:"intList,omitempty"`
}

// MarshalJSON encodes the map as an ordered array of entries.
func (p *PropertyMap) MarshalJSON() ([]byte, error) {
	entries := make([]propertyEntry, 0, p.Len())
	p.Range(func(k string, v Value) bool {
		entries = append(entries, propertyEntry{
			Key:     k,
			Kind:    v.Kind.String(),
			Str:     v.Str,
			Int:     v.Int,
			Float:   v.Float,
			Bool:    v.Bool,
			StrList: v.StrList,
			IntList: v.IntList,
		})
		return true
	})
	return json.Marshal(entries)
}

// UnmarshalJSON decodes an ordered array of entries produced by MarshalJSON.
func (p *PropertyMap) UnmarshalJSON(data []byte) error {
	var entries []propertyEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}
	p.m = orderedmap.NewOrderedMap()
	for _, e := range entries {
		p.Set(e.Key, kindFromEntry(e))
	}
	return nil
}

func kindFromEntry(e propertyEntry) Value {
	switch e.Kind {
	case "String":
		return String(e.Str)
	case "Int64":
		return Int64(e.Int)
	case "Float64":
		return Float64(e.Float)
	case "Bool":
		return Bool(e.Bool)
	case "StringList":
		return StringList(e.StrList)
	case "Int64List":
		return Int64List(e.IntList)
	default:
		return Null
	}
}

// AsMap flattens the property map into a plain map[string]any, for
// exporters (package graphexport) that need the simplest possible shape.
// Order is lost; callers needing order should use Range/Keys instead.
func (p *PropertyMap) AsMap() map[string]any {
	out := make(map[string]any, p.Len())
	p.Range(func(k string, v Value) bool {
		out[k] = v.Any()
		return true
	})
	return out
}
