package domain

import (
	"slices"
	"strconv"
	"strings"
)

// Kind is the tag of a Value. The set of kinds is closed; interpolation and
// hold behaviour are dispatched on it.
type Kind int

const (
	// KindInvalid is the zero Value.
	KindInvalid Kind = iota
	// KindFloat is a real scalar (float, double, half, timecode).
	KindFloat
	// KindInt is an integral scalar.
	KindInt
	// KindVector is a fixed-size tuple of reals (float3, color3f, matrix4d...).
	KindVector
	// KindString is a free-form string.
	KindString
	// KindToken is an enumerated token.
	KindToken
	// KindBool is a boolean.
	KindBool
	// KindAsset is an unresolved asset path.
	KindAsset
	// KindPath is a scene path, used by relationship targets.
	KindPath
	// KindArray is a homogeneous list of values.
	KindArray
	// KindOpaque is a value whose type has no interpolation or hold rule.
	KindOpaque
)

var kindNames = map[Kind]string{
	KindInvalid: "invalid",
	KindFloat:   "float",
	KindInt:     "int",
	KindVector:  "vector",
	KindString:  "string",
	KindToken:   "token",
	KindBool:    "bool",
	KindAsset:   "asset",
	KindPath:    "path",
	KindArray:   "array",
	KindOpaque:  "opaque",
}

// String returns the string representation of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// ParseKind returns the kind with the given name.
func ParseKind(name string) (Kind, bool) {
	for k, n := range kindNames {
		if n == name {
			return k, true
		}
	}
	return KindInvalid, false
}

// Value is a closed tagged variant over the supported value kinds.
// Values are immutable; accessors return copies of slices.
type Value struct {
	kind  Kind
	num   float64
	i     int64
	str   string
	b     bool
	vec   []float64
	elems []Value
}

// FloatValue returns a real scalar.
func FloatValue(f float64) Value { return Value{kind: KindFloat, num: f} }

// IntValue returns an integral scalar.
func IntValue(i int64) Value { return Value{kind: KindInt, i: i} }

// VectorValue returns a fixed-size tuple of reals.
func VectorValue(components ...float64) Value {
	return Value{kind: KindVector, vec: slices.Clone(components)}
}

// StringValue returns a string.
func StringValue(s string) Value { return Value{kind: KindString, str: s} }

// TokenValue returns a token.
func TokenValue(s string) Value { return Value{kind: KindToken, str: s} }

// BoolValue returns a boolean.
func BoolValue(b bool) Value { return Value{kind: KindBool, b: b} }

// AssetValue returns an asset path.
func AssetValue(s string) Value { return Value{kind: KindAsset, str: s} }

// PathValue returns a scene path.
func PathValue(p Path) Value { return Value{kind: KindPath, str: string(p)} }

// ArrayValue returns a list of values.
func ArrayValue(elems ...Value) Value {
	return Value{kind: KindArray, elems: slices.Clone(elems)}
}

// OpaqueValue wraps a value the engine can display but never sample.
func OpaqueValue(raw string) Value { return Value{kind: KindOpaque, str: raw} }

// Kind returns the tag.
func (v Value) Kind() Kind { return v.kind }

// IsValid reports whether v holds anything.
func (v Value) IsValid() bool { return v.kind != KindInvalid }

// Float returns the scalar of a KindFloat value.
func (v Value) Float() (float64, bool) {
	return v.num, v.kind == KindFloat
}

// Int returns the scalar of a KindInt value.
func (v Value) Int() (int64, bool) {
	return v.i, v.kind == KindInt
}

// Bool returns the scalar of a KindBool value.
func (v Value) Bool() (bool, bool) {
	return v.b, v.kind == KindBool
}

// Text returns the payload of string-like kinds (string, token, asset, path, opaque).
func (v Value) Text() (string, bool) {
	switch v.kind {
	case KindString, KindToken, KindAsset, KindPath, KindOpaque:
		return v.str, true
	default:
		return "", false
	}
}

// Vector returns the components of a KindVector value.
func (v Value) Vector() []float64 {
	if v.kind != KindVector {
		return nil
	}
	return slices.Clone(v.vec)
}

// Elements returns the elements of a KindArray value.
func (v Value) Elements() []Value {
	if v.kind != KindArray {
		return nil
	}
	return slices.Clone(v.elems)
}

// Len returns the number of components or elements; scalars report 1.
func (v Value) Len() int {
	switch v.kind {
	case KindInvalid:
		return 0
	case KindVector:
		return len(v.vec)
	case KindArray:
		return len(v.elems)
	default:
		return 1
	}
}

// IsArray reports whether presenters should list v as index/value rows.
func (v Value) IsArray() bool {
	return v.kind == KindArray
}

// Interpolable reports whether v supports linear interpolation.
func (v Value) Interpolable() bool {
	switch v.kind {
	case KindFloat, KindVector:
		return true
	case KindArray:
		if len(v.elems) == 0 {
			return false
		}
		for _, e := range v.elems {
			if !e.Interpolable() {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Sampleable reports whether v has an interpolation or hold rule.
func (v Value) Sampleable() bool {
	switch v.kind {
	case KindInvalid, KindOpaque:
		return false
	case KindArray:
		for _, e := range v.elems {
			if !e.Sampleable() {
				return false
			}
		}
		return true
	default:
		return true
	}
}

// Equal reports whether two values are identical, component for component.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindInvalid:
		return true
	case KindFloat:
		return v.num == other.num
	case KindInt:
		return v.i == other.i
	case KindBool:
		return v.b == other.b
	case KindVector:
		return slices.Equal(v.vec, other.vec)
	case KindArray:
		return slices.EqualFunc(v.elems, other.elems, Value.Equal)
	default:
		return v.str == other.str
	}
}

// String formats the value for display.
func (v Value) String() string {
	switch v.kind {
	case KindFloat:
		return formatFloat(v.num)
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindVector:
		parts := make([]string, len(v.vec))
		for i, c := range v.vec {
			parts[i] = formatFloat(c)
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case KindString:
		return strconv.Quote(v.str)
	case KindToken, KindOpaque:
		return v.str
	case KindAsset:
		return "@" + v.str + "@"
	case KindPath:
		return "<" + v.str + ">"
	case KindArray:
		parts := make([]string, len(v.elems))
		for i, e := range v.elems {
			parts[i] = e.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return ""
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
