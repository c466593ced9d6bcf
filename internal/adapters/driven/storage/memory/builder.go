package memory

import (
	"fmt"
	"slices"

	"github.com/custodia-labs/usdinspect/internal/core/domain"
)

// Builder assembles a Document layer by layer. Layers are added strongest
// first. Builder is not safe for concurrent use.
type Builder struct {
	doc *Document
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{doc: &Document{byID: make(map[string]*layerData)}}
}

// LayerBuilder authors specs into one layer.
type LayerBuilder struct {
	layer *layerData
}

// Layer appends a layer weaker than every layer added before it.
// Adding an identifier twice returns the existing layer.
func (b *Builder) Layer(identifier string, arc domain.Arc) *LayerBuilder {
	if l, ok := b.doc.byID[identifier]; ok {
		return &LayerBuilder{layer: l}
	}
	l := &layerData{
		spec: domain.LayerSpec{Identifier: identifier, Arc: arc},
		prims: map[domain.Path]*primSpec{
			domain.RootPath: {props: map[string]*propSpec{}},
		},
	}
	b.doc.layers = append(b.doc.layers, l)
	b.doc.byID[identifier] = l
	return &LayerBuilder{layer: l}
}

// TimeRange sets the authored playback range.
func (b *Builder) TimeRange(r domain.TimeRange) *Builder {
	b.doc.timeRange = r
	return b
}

// Build returns the finished document. The builder must not be used afterwards.
func (b *Builder) Build() *Document {
	return b.doc
}

// DisplayName sets the layer's short label.
func (lb *LayerBuilder) DisplayName(name string) *LayerBuilder {
	lb.layer.spec.DisplayName = name
	return lb
}

// Def defines a prim. Missing ancestors are added as overs.
func (lb *LayerBuilder) Def(path, typeName string) *LayerBuilder {
	prim := lb.ensure(mustPath(path))
	prim.specifier = domain.SpecifierDef
	prim.typeName = typeName
	return lb
}

// Class defines an abstract prim.
func (lb *LayerBuilder) Class(path, typeName string) *LayerBuilder {
	prim := lb.ensure(mustPath(path))
	prim.specifier = domain.SpecifierClass
	prim.typeName = typeName
	return lb
}

// Over adds an override spec for a prim.
func (lb *LayerBuilder) Over(path string) *LayerBuilder {
	lb.ensure(mustPath(path))
	return lb
}

// Declare declares an attribute without authoring a value.
func (lb *LayerBuilder) Declare(path, name, typeName string) *LayerBuilder {
	lb.property(path, name, domain.PropertyAttribute, typeName)
	return lb
}

// Attr authors a constant attribute value.
func (lb *LayerBuilder) Attr(path, name, typeName string, v domain.Value) *LayerBuilder {
	p := lb.property(path, name, domain.PropertyAttribute, typeName)
	p.def = &v
	return lb
}

// Samples authors time samples for an attribute. Samples are stored in
// ascending time order.
func (lb *LayerBuilder) Samples(path, name, typeName string, samples ...domain.TimeSample) *LayerBuilder {
	p := lb.property(path, name, domain.PropertyAttribute, typeName)
	p.samples = slices.Clone(samples)
	slices.SortStableFunc(p.samples, func(a, b domain.TimeSample) int {
		switch {
		case a.Time < b.Time:
			return -1
		case a.Time > b.Time:
			return 1
		}
		return 0
	})
	return lb
}

// Rel authors relationship targets.
func (lb *LayerBuilder) Rel(path, name string, targets ...domain.Path) *LayerBuilder {
	p := lb.property(path, name, domain.PropertyRelationship, "")
	elems := make([]domain.Value, len(targets))
	for i, t := range targets {
		elems[i] = domain.PathValue(t)
	}
	v := domain.ArrayValue(elems...)
	p.def = &v
	return lb
}

// Meta authors a prim metadata field.
func (lb *LayerBuilder) Meta(path, key string, v domain.Value) *LayerBuilder {
	prim := lb.ensure(mustPath(path))
	prim.metadata = setMeta(prim.metadata, key, v)
	return lb
}

// PropMeta authors a property metadata field.
func (lb *LayerBuilder) PropMeta(path, name, key string, v domain.Value) *LayerBuilder {
	prim := lb.ensure(mustPath(path))
	p, ok := prim.props[name]
	if !ok {
		p = &propSpec{kind: domain.PropertyAttribute}
		prim.props[name] = p
	}
	p.metadata = setMeta(p.metadata, key, v)
	return lb
}

func (lb *LayerBuilder) property(path, name string, kind domain.PropertyKind, typeName string) *propSpec {
	prim := lb.ensure(mustPath(path))
	p, ok := prim.props[name]
	if !ok {
		p = &propSpec{}
		prim.props[name] = p
	}
	p.kind = kind
	p.typeName = typeName
	return p
}

// ensure returns the spec at path, creating it and its ancestors as overs.
func (lb *LayerBuilder) ensure(path domain.Path) *primSpec {
	if prim, ok := lb.layer.prims[path]; ok {
		return prim
	}
	parent := lb.ensure(path.Parent())
	prim := &primSpec{specifier: domain.SpecifierOver, props: map[string]*propSpec{}}
	lb.layer.prims[path] = prim
	parent.children = append(parent.children, path)
	return prim
}

func setMeta(md domain.Metadata, key string, v domain.Value) domain.Metadata {
	for i := range md {
		if md[i].Key == key {
			md[i].Value = v
			return md
		}
	}
	return append(md, domain.Metadatum{Key: key, Value: v})
}

func mustPath(s string) domain.Path {
	p, err := domain.ParsePath(s)
	if err != nil {
		panic(fmt.Sprintf("memory: %v", err))
	}
	return p
}
