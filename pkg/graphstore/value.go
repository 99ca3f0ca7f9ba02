package graphstore

// ValueKind tags the variant held by a Value. The set is closed: String,
// Int64, Float64, Bool, StringList, Int64List, Null.
type ValueKind int

const (
	ValueNull ValueKind = iota
	ValueString
	ValueInt64
	ValueFloat64
	ValueBool
	ValueStringList
	ValueInt64List
)

func (k ValueKind) String() string {
	switch k {
	case ValueString:
		return "String"
	case ValueInt64:
		return "Int64"
	case ValueFloat64:
		return "Float64"
	case ValueBool:
		return "Bool"
	case ValueStringList:
		return "StringList"
	case ValueInt64List:
		return "Int64List"
	default:
		return "Null"
	}
}

// Value is a tagged scalar or list value stored in a PropertyMap. Exactly
// one field is meaningful, selected by Kind; this mirrors a closed sum
// type using the idiom Go actually offers (no algebraic enums).
type Value struct {
	Kind    ValueKind
	Str     string
	Int     int64
	Float   float64
	Bool    bool
	StrList []string
	IntList []int64
}

// String constructs a String value.
func String(s string) Value { return Value{Kind: ValueString, Str: s} }

// Int64 constructs an Int64 value.
func Int64(i int64) Value { return Value{Kind: ValueInt64, Int: i} }

// Float64 constructs a Float64 value.
func Float64(f float64) Value { return Value{Kind: ValueFloat64, Float: f} }

// Bool constructs a Bool value.
func Bool(b bool) Value { return Value{Kind: ValueBool, Bool: b} }

// StringList constructs a StringList value.
func StringList(ss []string) Value { return Value{Kind: ValueStringList, StrList: ss} }

// Int64List constructs an Int64List value.
func Int64List(is []int64) Value { return Value{Kind: ValueInt64List, IntList: is} }

// Null is the singleton absent-value marker.
var Null = Value{Kind: ValueNull}

// Any unwraps a Value into a plain Go value, for callers (export, query
// predicates) that want to treat properties generically rather than
// switch on Kind.
func (v Value) Any() any {
	switch v.Kind {
	case ValueString:
		return v.Str
	case ValueInt64:
		return v.Int
	case ValueFloat64:
		return v.Float
	case ValueBool:
		return v.Bool
	case ValueStringList:
		return v.StrList
	case ValueInt64List:
		return v.IntList
	default:
		return nil
	}
}

// Equal reports whether two values carry the same kind and payload. Used by
// the query builder's exact-value property filter.
func (v Value) Equal(other Value) bool {
	if v.Kind != other.Kind {
		return false
	}
	switch v.Kind {
	case ValueString:
		return v.Str == other.Str
	case ValueInt64:
		return v.Int == other.Int
	case ValueFloat64:
		return v.Float == other.Float
	case ValueBool:
		return v.Bool == other.Bool
	case ValueStringList:
		return stringSliceEqual(v.StrList, other.StrList)
	case ValueInt64List:
		return int64SliceEqual(v.IntList, other.IntList)
	default:
		return true // both Null
	}
}

func stringSliceEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func int64SliceEqual(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// FromAny converts a plain Go value into a Value, for convenience helpers
// (package codegraph) that want to build property maps from literals
// without spelling out constructors.
func FromAny(v any) Value {
	switch x := v.(type) {
	case nil:
		return Null
	case string:
		return String(x)
	case int:
		return Int64(int64(x))
	case int64:
		return Int64(x)
	case float64:
		return Float64(x)
	case bool:
		return Bool(x)
	case []string:
		return StringList(x)
	case []int64:
		return Int64List(x)
	case []any:
		return listFromAny(x)
	default:
		return Null
	}
}

// listFromAny converts a JSON-decoded []any into a StringList or
// Int64List when the elements are uniform, and Null otherwise. JSON
// decoding hands every array over as []any, so importers see this shape
// rather than []string or []int64.
func listFromAny(xs []any) Value {
	strs := make([]string, 0, len(xs))
	ints := make([]int64, 0, len(xs))
	allStr, allInt := true, true
	for _, x := range xs {
		switch v := x.(type) {
		case string:
			strs = append(strs, v)
			allInt = false
		case float64:
			ints = append(ints, int64(v))
			allStr = false
		default:
			return Null
		}
	}
	switch {
	case allStr:
		return StringList(strs)
	case allInt:
		return Int64List(ints)
	default:
		return Null
	}
}
