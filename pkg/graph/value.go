// Package graph implements the property/pattern model xmute plans and
// executes conversions over: Value, Properties, PropertyPattern, Port, and
// the Plan/PlanStep arena that the planner assembles.
package graph

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
)

// Kind tags the variant held by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindList
	KindMap
	KindBytes
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	case KindBytes:
		return "bytes"
	default:
		return "unknown"
	}
}

// Value is a closed discriminated union. The zero Value is Null. Values are
// copied by value (List/Map/Bytes hold their own backing slices/maps, never
// shared with the caller after construction) and compared structurally.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
	list []Value
	m    map[string]Value
	by   []byte
}

// Null is the null Value.
var Null = Value{kind: KindNull}

// Bool constructs a boolean Value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Int constructs a signed 64-bit integer Value.
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// Float constructs a 64-bit float Value.
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

// String constructs a string Value.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Bytes constructs an opaque binary Value. The slice is copied.
func Bytes(b []byte) Value {
	cp := make([]byte, len(b))
	copy(cp, b)
	return Value{kind: KindBytes, by: cp}
}

// List constructs an ordered list Value. The slice is copied shallowly.
func List(items ...Value) Value {
	cp := make([]Value, len(items))
	copy(cp, items)
	return Value{kind: KindList, list: cp}
}

// Map constructs a string-keyed mapping Value. The map is copied shallowly.
func Map(m map[string]Value) Value {
	cp := make(map[string]Value, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return Value{kind: KindMap, m: cp}
}

// Kind reports the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v holds Null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsBool returns v's boolean payload and whether v is a KindBool.
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

// AsInt returns v's integer payload and whether v is a KindInt.
func (v Value) AsInt() (int64, bool) { return v.i, v.kind == KindInt }

// AsFloat returns v's float payload and whether v is a KindFloat.
func (v Value) AsFloat() (float64, bool) { return v.f, v.kind == KindFloat }

// AsString returns v's string payload and whether v is a KindString.
func (v Value) AsString() (string, bool) { return v.s, v.kind == KindString }

// AsBytes returns v's byte payload and whether v is a KindBytes.
func (v Value) AsBytes() ([]byte, bool) { return v.by, v.kind == KindBytes }

// AsList returns v's list payload and whether v is a KindList.
func (v Value) AsList() ([]Value, bool) { return v.list, v.kind == KindList }

// AsMap returns v's map payload and whether v is a KindMap.
func (v Value) AsMap() (map[string]Value, bool) { return v.m, v.kind == KindMap }

// Numeric reports whether v is an Int or a Float and returns it widened to
// float64, for predicates that accept either representation.
func (v Value) Numeric() (float64, bool) {
	switch v.kind {
	case KindInt:
		return float64(v.i), true
	case KindFloat:
		return v.f, true
	default:
		return 0, false
	}
}

// Equal reports structural equality. Integer and float Values compare equal
// when the float is finite and exactly integer-valued and matches the int.
func (v Value) Equal(other Value) bool {
	if v.kind == other.kind {
		switch v.kind {
		case KindNull:
			return true
		case KindBool:
			return v.b == other.b
		case KindInt:
			return v.i == other.i
		case KindFloat:
			return v.f == other.f
		case KindString:
			return v.s == other.s
		case KindBytes:
			if len(v.by) != len(other.by) {
				return false
			}
			for i := range v.by {
				if v.by[i] != other.by[i] {
					return false
				}
			}
			return true
		case KindList:
			if len(v.list) != len(other.list) {
				return false
			}
			for i := range v.list {
				if !v.list[i].Equal(other.list[i]) {
					return false
				}
			}
			return true
		case KindMap:
			if len(v.m) != len(other.m) {
				return false
			}
			for k, vv := range v.m {
				ov, ok := other.m[k]
				if !ok || !vv.Equal(ov) {
					return false
				}
			}
			return true
		}
	}
	// Cross int/float comparison.
	if v.kind == KindInt && other.kind == KindFloat {
		return floatEqualsInt(other.f, v.i)
	}
	if v.kind == KindFloat && other.kind == KindInt {
		return floatEqualsInt(v.f, other.i)
	}
	return false
}

func floatEqualsInt(f float64, i int64) bool {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return false
	}
	return f == math.Trunc(f) && int64(f) == i
}

// String implements fmt.Stringer for debugging and canonical signatures.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindBool:
		return fmt.Sprintf("%t", v.b)
	case KindInt:
		return fmt.Sprintf("%d", v.i)
	case KindFloat:
		return fmt.Sprintf("%g", v.f)
	case KindString:
		return v.s
	case KindBytes:
		return fmt.Sprintf("bytes(%d)", len(v.by))
	case KindList:
		parts := make([]string, len(v.list))
		for i, e := range v.list {
			parts[i] = e.String()
		}
		return fmt.Sprintf("%v", parts)
	case KindMap:
		keys := make([]string, 0, len(v.m))
		for k := range v.m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := "{"
		for i, k := range keys {
			if i > 0 {
				out += ","
			}
			out += k + "=" + v.m[k].String()
		}
		return out + "}"
	default:
		return "<invalid>"
	}
}

// jsonValue is the wire shape used for Value's JSON boundary encoding.
type jsonValue struct {
	Kind  string            `json:"kind"`
	Bool  *bool             `json:"bool,omitempty"`
	Int   *int64            `json:"int,omitempty"`
	Float *float64          `json:"float,omitempty"`
	Str   *string           `json:"str,omitempty"`
	Bytes []byte            `json:"bytes,omitempty"`
	List  []Value           `json:"list,omitempty"`
	Map   map[string]Value  `json:"map,omitempty"`
}

// MarshalJSON implements json.Marshaler for boundary serialisation (history
// persistence, plugin IPC). It is not used on the planner's hot path.
func (v Value) MarshalJSON() ([]byte, error) {
	jv := jsonValue{Kind: v.kind.String()}
	switch v.kind {
	case KindBool:
		jv.Bool = &v.b
	case KindInt:
		jv.Int = &v.i
	case KindFloat:
		jv.Float = &v.f
	case KindString:
		jv.Str = &v.s
	case KindBytes:
		jv.Bytes = v.by
	case KindList:
		jv.List = v.list
	case KindMap:
		jv.Map = v.m
	}
	return json.Marshal(jv)
}

// UnmarshalJSON implements json.Unmarshaler, the inverse of MarshalJSON.
func (v *Value) UnmarshalJSON(data []byte) error {
	var jv jsonValue
	if err := json.Unmarshal(data, &jv); err != nil {
		return err
	}
	switch jv.Kind {
	case "null", "":
		*v = Null
	case "bool":
		*v = Bool(jv.Bool != nil && *jv.Bool)
	case "int":
		if jv.Int != nil {
			*v = Int(*jv.Int)
		}
	case "float":
		if jv.Float != nil {
			*v = Float(*jv.Float)
		}
	case "string":
		if jv.Str != nil {
			*v = String(*jv.Str)
		}
	case "bytes":
		*v = Bytes(jv.Bytes)
	case "list":
		*v = List(jv.List...)
	case "map":
		*v = Map(jv.Map)
	default:
		return fmt.Errorf("graph: unknown value kind %q", jv.Kind)
	}
	return nil
}
