package services

import (
	"fmt"

	"github.com/custodia-labs/usdinspect/internal/core/domain"
	"github.com/custodia-labs/usdinspect/internal/core/ports/driving"
)

// Ensure LayerStack implements the interface.
var _ driving.LayerStack = (*LayerStack)(nil)

// LayerStack is the ordered, immutable set of layers of a composed document,
// strongest first. It is rebuilt wholesale on reload, never edited.
type LayerStack struct {
	layers []domain.Layer
	byID   map[string]int
}

// NewLayerStack ranks the given specs in order (index 0 is strongest).
// Identifiers must be non-empty and unique.
func NewLayerStack(specs []domain.LayerSpec) (*LayerStack, error) {
	s := &LayerStack{
		layers: make([]domain.Layer, len(specs)),
		byID:   make(map[string]int, len(specs)),
	}
	for rank, spec := range specs {
		if spec.Identifier == "" {
			return nil, fmt.Errorf("%w: layer at rank %d has no identifier", domain.ErrInvalidInput, rank)
		}
		if _, dup := s.byID[spec.Identifier]; dup {
			return nil, fmt.Errorf("%w: duplicate layer %s", domain.ErrInvalidInput, spec.Identifier)
		}
		label := spec.DisplayName
		if label == "" {
			label = spec.Identifier
		}
		s.layers[rank] = domain.Layer{
			Identifier:  spec.Identifier,
			DisplayName: label,
			Rank:        rank,
			Arc:         spec.Arc,
			Color:       LayerColor(spec.Identifier),
		}
		s.byID[spec.Identifier] = rank
	}
	return s, nil
}

// Layers returns a copy of the stack, strongest first.
func (s *LayerStack) Layers() []domain.Layer {
	out := make([]domain.Layer, len(s.layers))
	copy(out, s.layers)
	return out
}

// Len returns the number of layers.
func (s *LayerStack) Len() int {
	return len(s.layers)
}

// Layer returns the layer with the given identifier.
func (s *LayerStack) Layer(id string) (domain.Layer, error) {
	rank, ok := s.byID[id]
	if !ok {
		return domain.Layer{}, fmt.Errorf("%w: layer %s", domain.ErrNotFound, id)
	}
	return s.layers[rank], nil
}

// ColorOf returns the display colour of a layer in the stack.
func (s *LayerStack) ColorOf(id string) (string, error) {
	if _, ok := s.byID[id]; !ok {
		return "", fmt.Errorf("%w: layer %s", domain.ErrNotFound, id)
	}
	return LayerColor(id), nil
}
