package sqlitestage

import (
	"encoding/json"
	"fmt"

	"github.com/custodia-labs/usdinspect/internal/core/domain"
)

// storedValue is the tagged JSON form of a domain.Value.
type storedValue struct {
	Kind   string        `json:"kind"`
	Float  *float64      `json:"float,omitempty"`
	Int    *int64        `json:"int,omitempty"`
	Bool   *bool         `json:"bool,omitempty"`
	Text   *string       `json:"text,omitempty"`
	Vector []float64     `json:"vector,omitempty"`
	Elems  []storedValue `json:"elems,omitempty"`
}

func toStored(v domain.Value) (storedValue, error) {
	s := storedValue{Kind: v.Kind().String()}
	switch v.Kind() {
	case domain.KindFloat:
		f, _ := v.Float()
		s.Float = &f
	case domain.KindInt:
		i, _ := v.Int()
		s.Int = &i
	case domain.KindBool:
		b, _ := v.Bool()
		s.Bool = &b
	case domain.KindVector:
		s.Vector = v.Vector()
		if s.Vector == nil {
			s.Vector = []float64{}
		}
	case domain.KindString, domain.KindToken, domain.KindAsset, domain.KindPath, domain.KindOpaque:
		t, _ := v.Text()
		s.Text = &t
	case domain.KindArray:
		elems := v.Elements()
		s.Elems = make([]storedValue, len(elems))
		for i, e := range elems {
			stored, err := toStored(e)
			if err != nil {
				return storedValue{}, err
			}
			s.Elems[i] = stored
		}
	default:
		return storedValue{}, fmt.Errorf("cannot store value of kind %s", v.Kind())
	}
	return s, nil
}

func (s storedValue) value() (domain.Value, error) {
	kind, ok := domain.ParseKind(s.Kind)
	if !ok {
		return domain.Value{}, fmt.Errorf("unknown value kind %q", s.Kind)
	}
	switch kind {
	case domain.KindFloat:
		if s.Float == nil {
			return domain.Value{}, fmt.Errorf("float value missing payload")
		}
		return domain.FloatValue(*s.Float), nil
	case domain.KindInt:
		if s.Int == nil {
			return domain.Value{}, fmt.Errorf("int value missing payload")
		}
		return domain.IntValue(*s.Int), nil
	case domain.KindBool:
		if s.Bool == nil {
			return domain.Value{}, fmt.Errorf("bool value missing payload")
		}
		return domain.BoolValue(*s.Bool), nil
	case domain.KindVector:
		return domain.VectorValue(s.Vector...), nil
	case domain.KindArray:
		elems := make([]domain.Value, len(s.Elems))
		for i, e := range s.Elems {
			v, err := e.value()
			if err != nil {
				return domain.Value{}, err
			}
			elems[i] = v
		}
		return domain.ArrayValue(elems...), nil
	}

	if s.Text == nil {
		return domain.Value{}, fmt.Errorf("%s value missing payload", kind)
	}
	switch kind {
	case domain.KindString:
		return domain.StringValue(*s.Text), nil
	case domain.KindToken:
		return domain.TokenValue(*s.Text), nil
	case domain.KindAsset:
		return domain.AssetValue(*s.Text), nil
	case domain.KindPath:
		return domain.PathValue(domain.Path(*s.Text)), nil
	case domain.KindOpaque:
		return domain.OpaqueValue(*s.Text), nil
	default:
		return domain.Value{}, fmt.Errorf("unknown value kind %q", s.Kind)
	}
}

// encodeValue marshals v to its stored JSON text.
func encodeValue(v domain.Value) (string, error) {
	s, err := toStored(v)
	if err != nil {
		return "", err
	}
	data, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("marshalling value: %w", err)
	}
	return string(data), nil
}

// decodeValue parses stored JSON text back into a value.
func decodeValue(raw string) (domain.Value, error) {
	var s storedValue
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return domain.Value{}, fmt.Errorf("unmarshalling value: %w", err)
	}
	return s.value()
}
