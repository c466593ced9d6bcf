package inspector

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/usdinspect/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/usdinspect/internal/core/domain"
)

type mockInspector struct {
	primStackFn func(ctx context.Context, path domain.Path) ([]domain.PrimSpecRef, error)
	metadataFn  func(ctx context.Context, path domain.Path, property, layerID string) (domain.Metadata, error)
}

func (m *mockInspector) PrimStack(ctx context.Context, path domain.Path) ([]domain.PrimSpecRef, error) {
	return m.primStackFn(ctx, path)
}

func (m *mockInspector) LayerOpinion(context.Context, string, domain.Path, string) (*domain.Opinion, error) {
	return nil, domain.ErrNotFound
}

func (m *mockInspector) Metadata(ctx context.Context, path domain.Path, property, layerID string) (domain.Metadata, error) {
	return m.metadataFn(ctx, path, property, layerID)
}

func (m *mockInspector) TimeRange(context.Context) (domain.TimeRange, error) {
	return domain.TimeRange{}, nil
}

func newMock() *mockInspector {
	return &mockInspector{
		primStackFn: func(_ context.Context, path domain.Path) ([]domain.PrimSpecRef, error) {
			return []domain.PrimSpecRef{
				{Layer: domain.Layer{Identifier: "anim", DisplayName: "anim.yaml", Arc: domain.ArcRoot}, Path: path, Specifier: domain.SpecifierOver},
				{Layer: domain.Layer{Identifier: "base", DisplayName: "base.yaml", Rank: 1, Arc: domain.ArcSublayer}, Path: path, Specifier: domain.SpecifierDef, TypeName: "Cube"},
			}, nil
		},
		metadataFn: func(_ context.Context, _ domain.Path, property, layerID string) (domain.Metadata, error) {
			if property != "" || layerID != "" {
				return nil, errors.New("expected composed prim metadata")
			}
			return domain.Metadata{{Key: "kind", Value: domain.TokenValue("component"), LayerID: "base"}}, nil
		},
	}
}

func TestView_Load(t *testing.T) {
	v := NewView(nil, newMock())

	v.Update(v.Load("/World/Cube")())

	require.Len(t, v.Stack(), 2)
	view := v.View()
	assert.Contains(t, view, "anim.yaml")
	assert.Contains(t, view, "def Cube")
	assert.Contains(t, view, "Metadata")
	assert.Contains(t, view, "kind = component")
}

func TestView_IgnoresOtherPaths(t *testing.T) {
	v := NewView(nil, newMock())
	stale := v.Load("/World/Cube")
	v.Load("/World/Light")

	v.Update(stale())

	assert.Empty(t, v.Stack())
}

func TestView_Error(t *testing.T) {
	mock := newMock()
	mock.primStackFn = func(context.Context, domain.Path) ([]domain.PrimSpecRef, error) {
		return nil, domain.ErrNodeNotFound
	}
	v := NewView(nil, mock)

	msg, ok := v.Load("/Gone")().(messages.PrimLoaded)
	require.True(t, ok)
	v.Update(msg)

	assert.ErrorIs(t, msg.Err, domain.ErrNodeNotFound)
	assert.Contains(t, v.View(), "Error")
}

func TestView_NoSelection(t *testing.T) {
	v := NewView(nil, nil)

	assert.Contains(t, v.View(), "(no prim selected)")
}

func TestView_Truncates(t *testing.T) {
	v := NewView(nil, newMock())
	v.SetDimensions(40, 2)
	v.Update(v.Load("/World/Cube")())

	assert.Contains(t, v.View(), "...")
}
