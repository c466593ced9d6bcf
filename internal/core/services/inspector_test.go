package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/usdinspect/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/usdinspect/internal/core/domain"
)

func newInspector(t *testing.T, doc *memory.Document) *PrimInspector {
	t.Helper()
	specs, err := doc.Layers(context.Background())
	require.NoError(t, err)
	stack, err := NewLayerStack(specs)
	require.NoError(t, err)
	return NewPrimInspector(doc, stack)
}

func TestPrimInspector_PrimStack(t *testing.T) {
	inspector := newInspector(t, buildStage())

	refs, err := inspector.PrimStack(context.Background(), "/x")
	require.NoError(t, err)
	require.Len(t, refs, 2)

	assert.Equal(t, "A", refs[0].Layer.Identifier)
	assert.Equal(t, domain.ArcRoot, refs[0].Layer.Arc)
	assert.Equal(t, domain.SpecifierOver, refs[0].Specifier)
	assert.NotEmpty(t, refs[0].Layer.Color)

	assert.Equal(t, "B", refs[1].Layer.Identifier)
	assert.Equal(t, domain.ArcSublayer, refs[1].Layer.Arc)
	assert.Equal(t, domain.SpecifierDef, refs[1].Specifier)
	assert.Equal(t, "Xform", refs[1].TypeName)
}

func TestPrimInspector_PrimStack_SingleLayer(t *testing.T) {
	inspector := newInspector(t, buildStage())

	refs, err := inspector.PrimStack(context.Background(), "/y")
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, "B", refs[0].Layer.Identifier)

	_, err = inspector.PrimStack(context.Background(), "/missing")
	assert.ErrorIs(t, err, domain.ErrNodeNotFound)
}

func TestPrimInspector_LayerOpinion(t *testing.T) {
	inspector := newInspector(t, buildStage())
	ctx := context.Background()

	weak, err := inspector.LayerOpinion(ctx, "B", "/x", "q")
	require.NoError(t, err)
	require.NotNil(t, weak.Default)
	assert.Equal(t, domain.FloatValue(9), *weak.Default)
	assert.False(t, weak.IsTimeVarying())

	strong, err := inspector.LayerOpinion(ctx, "A", "/x", "q")
	require.NoError(t, err)
	assert.Equal(t, []domain.TimeCode{0, 10}, strong.SampleTimes())

	_, err = inspector.LayerOpinion(ctx, "A", "/x", "p")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = inspector.LayerOpinion(ctx, "C", "/x", "p")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPrimInspector_Metadata(t *testing.T) {
	inspector := newInspector(t, buildStage())
	ctx := context.Background()

	composed, err := inspector.Metadata(ctx, "/x", "", "")
	require.NoError(t, err)
	require.Len(t, composed, 2)

	kind, ok := composed.Get("kind")
	require.True(t, ok)
	assert.Equal(t, domain.TokenValue("component"), kind, "strongest layer wins per key")
	assert.Equal(t, "A", composed[0].LayerID)

	instanceable, ok := composed.Get("instanceable")
	require.True(t, ok)
	assert.Equal(t, domain.BoolValue(false), instanceable)
	assert.Equal(t, "B", composed[1].LayerID)

	weak, err := inspector.Metadata(ctx, "/x", "", "B")
	require.NoError(t, err)
	kind, _ = weak.Get("kind")
	assert.Equal(t, domain.TokenValue("group"), kind)

	_, err = inspector.Metadata(ctx, "/x", "", "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPrimInspector_TimeRange(t *testing.T) {
	inspector := newInspector(t, buildStage())

	r, err := inspector.TimeRange(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.TimeRange{Start: 0, End: 10, TimeCodesPerSecond: 24}, r)
}
