package yamlstage

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/usdinspect/internal/core/domain"
)

// layerFile is the on-disk shape of one layer.
//
//	subLayers: [anim.yaml, base.yaml]
//	startTimeCode: 1
//	endTimeCode: 24
//	timeCodesPerSecond: 24
//	prims:
//	  - def: World
//	    type: Xform
//	    metadata: {kind: assembly}
//	    properties:
//	      visibility: {type: token, default: inherited}
//	    children:
//	      - over: Cube
//	        properties:
//	          size:
//	            type: double
//	            timeSamples: {1: 1.0, 24: 2.0}
//	          material:binding: {targets: [/World/Looks/Red]}
type layerFile struct {
	SubLayers          []string   `yaml:"subLayers"`
	StartTimeCode      *float64   `yaml:"startTimeCode"`
	EndTimeCode        *float64   `yaml:"endTimeCode"`
	TimeCodesPerSecond float64    `yaml:"timeCodesPerSecond"`
	Prims              []primFile `yaml:"prims"`
}

// primFile is one prim spec. Exactly one of Def, Over and Class names it.
type primFile struct {
	Def        string                  `yaml:"def"`
	Over       string                  `yaml:"over"`
	Class      string                  `yaml:"class"`
	Type       string                  `yaml:"type"`
	Metadata   map[string]any          `yaml:"metadata"`
	Properties map[string]propertyFile `yaml:"properties"`
	Children   []primFile              `yaml:"children"`
}

// propertyFile is one property spec. Targets marks a relationship.
type propertyFile struct {
	Type        string         `yaml:"type"`
	Default     any            `yaml:"default"`
	TimeSamples yaml.Node      `yaml:"timeSamples"`
	Targets     []string       `yaml:"targets"`
	Metadata    map[string]any `yaml:"metadata"`
}

func (p primFile) spec() (string, domain.Specifier, error) {
	var (
		name  string
		spec  domain.Specifier
		count int
	)
	if p.Def != "" {
		name, spec = p.Def, domain.SpecifierDef
		count++
	}
	if p.Over != "" {
		name, spec = p.Over, domain.SpecifierOver
		count++
	}
	if p.Class != "" {
		name, spec = p.Class, domain.SpecifierClass
		count++
	}
	if count != 1 {
		return "", "", fmt.Errorf("prim needs exactly one of def, over or class")
	}
	return name, spec, nil
}

func (p propertyFile) isRelationship() bool {
	return p.Targets != nil
}

func (p propertyFile) hasDefault() bool {
	return p.Default != nil
}

// samples decodes the timeSamples mapping in document order.
func (p propertyFile) samples() ([]domain.TimeSample, error) {
	node := p.TimeSamples
	if node.Kind == 0 {
		return nil, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("timeSamples must be a mapping of time code to value")
	}

	samples := make([]domain.TimeSample, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, valueNode := node.Content[i], node.Content[i+1]
		t, err := domain.ParseTimeCode(key.Value)
		if err != nil {
			return nil, fmt.Errorf("time code %q (line %d): %w", key.Value, key.Line, err)
		}
		var raw any
		if err := valueNode.Decode(&raw); err != nil {
			return nil, fmt.Errorf("sample at %s (line %d): %w", key.Value, key.Line, err)
		}
		v, err := domain.DecodeValue(p.Type, raw)
		if err != nil {
			return nil, fmt.Errorf("sample at %s (line %d): %w", key.Value, key.Line, err)
		}
		samples = append(samples, domain.TimeSample{Time: t, Value: v})
	}
	return samples, nil
}

// inferValue types a metadata payload from its YAML scalar or sequence.
func inferValue(raw any) domain.Value {
	switch v := raw.(type) {
	case bool:
		return domain.BoolValue(v)
	case int:
		return domain.IntValue(int64(v))
	case int64:
		return domain.IntValue(v)
	case float64:
		return domain.FloatValue(v)
	case string:
		return domain.TokenValue(v)
	case []any:
		elems := make([]domain.Value, len(v))
		for i, e := range v {
			elems[i] = inferValue(e)
		}
		return domain.ArrayValue(elems...)
	default:
		return domain.OpaqueValue(fmt.Sprint(v))
	}
}
