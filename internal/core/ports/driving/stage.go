package driving

import (
	"context"

	"github.com/custodia-labs/usdinspect/internal/core/domain"
)

// LayerStack exposes the ranked layers of the open stage.
type LayerStack interface {
	// Layers returns all layers, strongest first.
	Layers() []domain.Layer

	// Layer returns the layer with the given identifier.
	// Returns domain.ErrNotFound if it is not in the stack.
	Layer(id string) (domain.Layer, error)

	// ColorOf returns the display colour of a layer in the stack.
	// Returns domain.ErrNotFound if it is not in the stack.
	ColorOf(id string) (string, error)
}

// StageTree is a lazily expanded view over the prim hierarchy.
type StageTree interface {
	// Node returns the prim header at path.
	Node(ctx context.Context, path domain.Path) (domain.Node, error)

	// ChildrenOf returns the child paths of path in composed order.
	ChildrenOf(ctx context.Context, path domain.Path) ([]domain.Path, error)

	// PropertiesOf returns the property names of path.
	PropertiesOf(ctx context.Context, path domain.Path) ([]string, error)

	// PropertyInfos returns the properties of path with their kinds and types.
	PropertyInfos(ctx context.Context, path domain.Path) ([]domain.PropertyInfo, error)
}

// OpinionResolver finds which layers author a property.
type OpinionResolver interface {
	// Resolve returns the contributing layers, strongest first.
	// found is false when no layer authors the property; that is not an error.
	Resolve(ctx context.Context, path domain.Path, property string) (set domain.ResolvedOpinionSet, found bool, err error)
}

// ValueSampler evaluates a property at a time code.
type ValueSampler interface {
	// Sample returns the winning layer's value at time t.
	// found is false when no layer authors the property.
	Sample(ctx context.Context, path domain.Path, property string, t domain.TimeCode) (value domain.SampledValue, found bool, err error)
}

// PropertyPanel produces the rows of a property panel for one prim.
type PropertyPanel interface {
	// Rows resolves and samples every property of path at time t.
	// Property-scoped failures are reported on the row, not returned.
	Rows(ctx context.Context, path domain.Path, t domain.TimeCode) ([]domain.PropertyRow, error)
}

// PrimInspector exposes per-layer detail about a prim.
type PrimInspector interface {
	// PrimStack returns the layers holding a spec for path, strongest first.
	PrimStack(ctx context.Context, path domain.Path) ([]domain.PrimSpecRef, error)

	// LayerOpinion returns one layer's raw opinion for a property.
	LayerOpinion(ctx context.Context, layerID string, path domain.Path, property string) (*domain.Opinion, error)

	// Metadata returns metadata of a prim (property empty) or property.
	// With an empty layerID the composed metadata is returned.
	Metadata(ctx context.Context, path domain.Path, property, layerID string) (domain.Metadata, error)

	// TimeRange returns the stage's authored playback range.
	TimeRange(ctx context.Context) (domain.TimeRange, error)
}

// StageService is the single entry point presentation adapters consume.
// It survives document reloads.
type StageService interface {
	LayerStack
	StageTree
	OpinionResolver
	ValueSampler
	PropertyPanel
	PrimInspector

	// ID identifies the session.
	ID() string

	// Location is the document location the session was opened from.
	Location() string

	// LayerFiles returns the layer identifiers that refer to files on disk.
	LayerFiles() []string

	// Reload reopens the document and clears every cache.
	Reload(ctx context.Context) error

	// Close releases the document. Further calls fail with domain.ErrSessionClosed.
	Close() error
}
