package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/usdinspect/internal/core/domain"
	"github.com/custodia-labs/usdinspect/internal/core/ports/driven"
	"github.com/custodia-labs/usdinspect/internal/core/ports/driving"
)

// Ensure PrimInspector implements the interface.
var _ driving.PrimInspector = (*PrimInspector)(nil)

// PrimInspector reports per-layer detail for a prim: which layers define it,
// what each layer authors and the metadata they carry.
type PrimInspector struct {
	doc   driven.ComposedDocument
	stack *LayerStack
}

// NewPrimInspector creates an inspector over doc.
func NewPrimInspector(doc driven.ComposedDocument, stack *LayerStack) *PrimInspector {
	return &PrimInspector{doc: doc, stack: stack}
}

// PrimStack returns the layer specs for path, strongest first.
func (i *PrimInspector) PrimStack(ctx context.Context, path domain.Path) ([]domain.PrimSpecRef, error) {
	ok, err := i.doc.HasNode(ctx, path)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrNodeNotFound, path)
	}

	var refs []domain.PrimSpecRef
	for _, layer := range i.stack.Layers() {
		ref, found, err := i.doc.PrimSpec(ctx, layer.Identifier, path)
		if err != nil {
			return nil, fmt.Errorf("prim stack %s in %s: %w", path, layer.Identifier, err)
		}
		if !found {
			continue
		}
		ref.Layer = layer
		ref.Path = path
		refs = append(refs, ref)
	}
	return refs, nil
}

// LayerOpinion returns the raw opinion one layer authors for a property.
func (i *PrimInspector) LayerOpinion(
	ctx context.Context, layerID string, path domain.Path, property string,
) (*domain.Opinion, error) {
	if _, err := i.stack.Layer(layerID); err != nil {
		return nil, err
	}
	return i.doc.Opinion(ctx, layerID, path, property)
}

// Metadata returns prim metadata (property empty) or property metadata.
// With an empty layerID every layer is consulted strongest first and the
// strongest value of each key wins.
func (i *PrimInspector) Metadata(
	ctx context.Context, path domain.Path, property, layerID string,
) (domain.Metadata, error) {
	if layerID != "" {
		if _, err := i.stack.Layer(layerID); err != nil {
			return nil, err
		}
		return i.doc.Metadata(ctx, layerID, path, property)
	}

	seen := make(map[string]bool)
	var composed domain.Metadata
	for _, layer := range i.stack.Layers() {
		md, err := i.doc.Metadata(ctx, layer.Identifier, path, property)
		if err != nil {
			return nil, err
		}
		for _, field := range md {
			if seen[field.Key] {
				continue
			}
			seen[field.Key] = true
			field.LayerID = layer.Identifier
			composed = append(composed, field)
		}
	}
	return composed, nil
}

// TimeRange returns the stage's authored playback range.
func (i *PrimInspector) TimeRange(ctx context.Context) (domain.TimeRange, error) {
	return i.doc.TimeRange(ctx)
}
