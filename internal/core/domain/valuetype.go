package domain

import (
	"fmt"
	"strings"
)

// vectorWidths maps tuple and matrix type names to their component count.
var vectorWidths = map[string]int{
	"float2": 2, "float3": 3, "float4": 4,
	"double2": 2, "double3": 3, "double4": 4,
	"half2": 2, "half3": 3, "half4": 4,
	"point3f": 3, "point3d": 3, "point3h": 3,
	"normal3f": 3, "normal3d": 3, "normal3h": 3,
	"vector3f": 3, "vector3d": 3, "vector3h": 3,
	"color3f": 3, "color3d": 3, "color3h": 3,
	"color4f": 4, "color4d": 4, "color4h": 4,
	"texCoord2f": 2, "texCoord2d": 2, "texCoord2h": 2,
	"texCoord3f": 3, "texCoord3d": 3, "texCoord3h": 3,
	"quatf": 4, "quatd": 4, "quath": 4,
	"matrix2d": 4, "matrix3d": 9, "matrix4d": 16,
	"frame4d": 16,
}

// intVectorWidths maps integral tuples; they are held, never interpolated.
var intVectorWidths = map[string]int{
	"int2": 2, "int3": 3, "int4": 4,
}

// KindForType maps a declared value type name to the Kind its values carry.
// Unknown type names map to KindOpaque.
func KindForType(typeName string) Kind {
	if strings.HasSuffix(typeName, "[]") {
		return KindArray
	}
	switch typeName {
	case "float", "double", "half", "timecode":
		return KindFloat
	case "int", "uint", "int64", "uint64", "uchar":
		return KindInt
	case "bool":
		return KindBool
	case "string":
		return KindString
	case "token":
		return KindToken
	case "asset":
		return KindAsset
	}
	if _, ok := vectorWidths[typeName]; ok {
		return KindVector
	}
	if _, ok := intVectorWidths[typeName]; ok {
		return KindArray
	}
	return KindOpaque
}

// DecodeValue converts a loosely typed payload (as produced by YAML or JSON
// decoders) into a Value of the declared type.
func DecodeValue(typeName string, raw any) (Value, error) {
	if elemType, ok := strings.CutSuffix(typeName, "[]"); ok {
		items, ok := raw.([]any)
		if !ok {
			return Value{}, fmt.Errorf("%w: %s expects a list, got %T", ErrInvalidInput, typeName, raw)
		}
		elems := make([]Value, len(items))
		for i, item := range items {
			v, err := DecodeValue(elemType, item)
			if err != nil {
				return Value{}, fmt.Errorf("element %d: %w", i, err)
			}
			elems[i] = v
		}
		return ArrayValue(elems...), nil
	}

	if width, ok := intVectorWidths[typeName]; ok {
		ints, err := decodeInts(typeName, raw, width)
		if err != nil {
			return Value{}, err
		}
		elems := make([]Value, len(ints))
		for i, n := range ints {
			elems[i] = IntValue(n)
		}
		return ArrayValue(elems...), nil
	}

	switch KindForType(typeName) {
	case KindFloat:
		f, err := toFloat(raw)
		if err != nil {
			return Value{}, fmt.Errorf("%s: %w", typeName, err)
		}
		return FloatValue(f), nil
	case KindInt:
		f, err := toFloat(raw)
		if err != nil {
			return Value{}, fmt.Errorf("%s: %w", typeName, err)
		}
		return IntValue(int64(f)), nil
	case KindBool:
		b, ok := raw.(bool)
		if !ok {
			return Value{}, fmt.Errorf("%w: %s expects a boolean, got %T", ErrInvalidInput, typeName, raw)
		}
		return BoolValue(b), nil
	case KindString:
		return StringValue(fmt.Sprint(raw)), nil
	case KindToken:
		return TokenValue(fmt.Sprint(raw)), nil
	case KindAsset:
		return AssetValue(strings.Trim(fmt.Sprint(raw), "@")), nil
	case KindVector:
		width := vectorWidths[typeName]
		items, ok := raw.([]any)
		if !ok || len(items) != width {
			return Value{}, fmt.Errorf("%w: %s expects %d components", ErrInvalidInput, typeName, width)
		}
		comps := make([]float64, width)
		for i, item := range items {
			f, err := toFloat(item)
			if err != nil {
				return Value{}, fmt.Errorf("%s component %d: %w", typeName, i, err)
			}
			comps[i] = f
		}
		return VectorValue(comps...), nil
	default:
		return OpaqueValue(fmt.Sprint(raw)), nil
	}
}

// EncodeValue converts a Value back to a loosely typed payload suitable for
// YAML or JSON encoding. It is the inverse of DecodeValue for the value's
// declared type.
func EncodeValue(v Value) any {
	switch v.kind {
	case KindFloat:
		return v.num
	case KindInt:
		return v.i
	case KindBool:
		return v.b
	case KindVector:
		out := make([]any, len(v.vec))
		for i, c := range v.vec {
			out[i] = c
		}
		return out
	case KindArray:
		out := make([]any, len(v.elems))
		for i, e := range v.elems {
			out[i] = EncodeValue(e)
		}
		return out
	case KindInvalid:
		return nil
	default:
		return v.str
	}
}

func decodeInts(typeName string, raw any, width int) ([]int64, error) {
	items, ok := raw.([]any)
	if !ok || len(items) != width {
		return nil, fmt.Errorf("%w: %s expects %d components", ErrInvalidInput, typeName, width)
	}
	out := make([]int64, width)
	for i, item := range items {
		f, err := toFloat(item)
		if err != nil {
			return nil, fmt.Errorf("%s component %d: %w", typeName, i, err)
		}
		out[i] = int64(f)
	}
	return out, nil
}

func toFloat(raw any) (float64, error) {
	switch n := raw.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	case int32:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("%w: expected a number, got %T", ErrInvalidInput, raw)
	}
}
