package domain

// Opinion is one layer's authored value(s) for one property.
// An opinion exists only if the layer explicitly authors the property.
type Opinion struct {
	// LayerID identifies the authoring layer.
	LayerID string

	// Path and Property locate the opinion.
	Path     Path
	Property string

	// Kind is attribute or relationship.
	Kind PropertyKind

	// TypeName is the declared value type.
	TypeName string

	// Default is the constant value, if authored.
	Default *Value

	// Samples are the time samples, ascending by time.
	// When present they govern every numeric time code.
	Samples []TimeSample
}

// IsTimeVarying reports whether the opinion carries time samples.
func (o Opinion) IsTimeVarying() bool {
	return len(o.Samples) > 0
}

// HasValue reports whether the opinion authors any value at all.
func (o Opinion) HasValue() bool {
	return o.Default != nil || len(o.Samples) > 0
}

// SampleTimes returns the authored sample times in order.
func (o Opinion) SampleTimes() []TimeCode {
	times := make([]TimeCode, len(o.Samples))
	for i, s := range o.Samples {
		times[i] = s.Time
	}
	return times
}

// ResolvedOpinionSet lists the layers holding an opinion for a property,
// strongest first. A computed set is never empty; its head is the winner.
type ResolvedOpinionSet struct {
	Path     Path
	Property string
	Layers   []Layer
}

// Winner returns the strongest contributing layer.
func (r ResolvedOpinionSet) Winner() Layer {
	if len(r.Layers) == 0 {
		return Layer{}
	}
	return r.Layers[0]
}

// Contributes reports whether the layer with the given identifier holds an opinion.
func (r ResolvedOpinionSet) Contributes(layerID string) bool {
	for _, l := range r.Layers {
		if l.Identifier == layerID {
			return true
		}
	}
	return false
}

// SampleSource records how a sampled value was obtained.
type SampleSource string

const (
	// SourceDefault is a constant opinion returned regardless of time.
	SourceDefault SampleSource = "default"
	// SourceExact is a time sample authored at exactly the requested time.
	SourceExact SampleSource = "exact"
	// SourceInterpolated is computed from the two bracketing samples.
	SourceInterpolated SampleSource = "interpolated"
	// SourceHeld is an edge sample or the earlier bracketing sample held constant.
	SourceHeld SampleSource = "held"
)

// SampledValue is a concrete value of a property at a time code, tagged with
// the winning layer it came from.
type SampledValue struct {
	Path     Path
	Property string
	Value    Value
	Layer    Layer
	Time     TimeCode
	Source   SampleSource
}

// PrimSpecRef is one layer's spec on a prim, used to present a prim's own
// layer stack.
type PrimSpecRef struct {
	Layer     Layer
	Path      Path
	Specifier Specifier
	TypeName  string
}

// Metadata is an ordered list of metadatum key/value pairs.
type Metadata []Metadatum

// Metadatum is one metadata field.
type Metadatum struct {
	Key   string
	Value Value

	// LayerID is the layer the field came from.
	LayerID string
}

// Get returns the value stored for key.
func (m Metadata) Get(key string) (Value, bool) {
	for _, md := range m {
		if md.Key == key {
			return md.Value, true
		}
	}
	return Value{}, false
}

// PropertyRow is one line of a property panel: a property, its resolution
// and its value at the panel's time. Err carries property-scoped failures
// such as ErrUnsupportedType without affecting sibling rows.
type PropertyRow struct {
	Info       PropertyInfo
	Resolution ResolvedOpinionSet
	Sample     SampledValue
	Found      bool
	Err        error
}
