package driven

import (
	"context"

	"github.com/custodia-labs/usdinspect/internal/core/domain"
)

// ComposedDocument exposes a composed stage and the layers it is built from.
// Implementations are read-only and safe for concurrent use.
//
// Methods that take a path return domain.ErrNodeNotFound when the path is
// not part of the composed hierarchy. Read failures of the underlying
// storage are reported as domain.ErrDocumentUnavailable.
type ComposedDocument interface {
	// Layers returns the layer stack, strongest first.
	Layers(ctx context.Context) ([]domain.LayerSpec, error)

	// HasNode reports whether path exists in the composed hierarchy.
	HasNode(ctx context.Context, path domain.Path) (bool, error)

	// Node returns the composed prim header at path.
	// Children and Properties are left empty; use Children and Properties.
	Node(ctx context.Context, path domain.Path) (*domain.Node, error)

	// Children returns the child paths of path in composed order.
	Children(ctx context.Context, path domain.Path) ([]domain.Path, error)

	// Properties returns the composed properties of path in dictionary order.
	Properties(ctx context.Context, path domain.Path) ([]domain.PropertyInfo, error)

	// PrimSpec reports the spec a single layer authors for path, if any.
	PrimSpec(ctx context.Context, layerID string, path domain.Path) (domain.PrimSpecRef, bool, error)

	// HasOpinion reports whether a layer authors a value for the property.
	HasOpinion(ctx context.Context, layerID string, path domain.Path, property string) (bool, error)

	// Opinion returns a layer's authored value(s) for the property.
	// Returns domain.ErrNotFound if the layer authors nothing for it.
	Opinion(ctx context.Context, layerID string, path domain.Path, property string) (*domain.Opinion, error)

	// Metadata returns the metadata a layer authors on a prim, or on one of
	// its properties when property is non-empty.
	Metadata(ctx context.Context, layerID string, path domain.Path, property string) (domain.Metadata, error)

	// TimeRange returns the authored playback range.
	TimeRange(ctx context.Context) (domain.TimeRange, error)

	// Close releases the document.
	Close() error
}

// DocumentLoader opens composed documents read-only.
type DocumentLoader interface {
	// Open opens the document at location.
	// Failures are reported as domain.ErrDocumentUnavailable.
	Open(ctx context.Context, location string) (ComposedDocument, error)
}
