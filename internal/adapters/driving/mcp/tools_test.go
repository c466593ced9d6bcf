package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/usdinspect/internal/core/domain"
)

func TestServer_handleListChildren(t *testing.T) {
	ctx := context.Background()
	server := newTestServer(t)

	t.Run("lists children in composed order", func(t *testing.T) {
		_, output, err := server.handleListChildren(ctx, nil, PathInput{Path: "/World"})
		require.NoError(t, err)
		require.Len(t, output.Children, 2)
		assert.Equal(t, "/World/Cube", output.Children[0].Path)
		assert.Equal(t, "Cube", output.Children[0].Name)
		assert.Equal(t, "Cube", output.Children[0].TypeName)
		assert.Equal(t, "def", output.Children[0].Specifier)
		assert.Equal(t, "DistantLight", output.Children[1].TypeName)
	})

	t.Run("root", func(t *testing.T) {
		_, output, err := server.handleListChildren(ctx, nil, PathInput{Path: "/"})
		require.NoError(t, err)
		require.Len(t, output.Children, 1)
		assert.Equal(t, "/World", output.Children[0].Path)
	})

	t.Run("unknown prim", func(t *testing.T) {
		_, _, err := server.handleListChildren(ctx, nil, PathInput{Path: "/Nope"})
		assert.ErrorIs(t, err, domain.ErrNodeNotFound)
	})

	t.Run("relative path", func(t *testing.T) {
		_, _, err := server.handleListChildren(ctx, nil, PathInput{Path: "World"})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestServer_handleListProperties(t *testing.T) {
	ctx := context.Background()
	server := newTestServer(t)

	t.Run("defaults to the start of the time range", func(t *testing.T) {
		_, output, err := server.handleListProperties(ctx, nil, ListPropertiesInput{Path: "/World/Cube"})
		require.NoError(t, err)
		assert.Equal(t, 1.0, output.Time)
		require.Len(t, output.Properties, 3)

		notes, size, tags := output.Properties[0], output.Properties[1], output.Properties[2]
		assert.Equal(t, "size", size.Name)
		assert.Equal(t, "1", size.Value)
		assert.Equal(t, "anim", size.Winner)
		assert.Equal(t, []string{"anim", "base"}, size.Layers)
		assert.Equal(t, "exact", size.Source)

		assert.Equal(t, "[hero]", tags.Value)

		assert.Equal(t, "notes", notes.Name)
		assert.NotEmpty(t, notes.Error, "opaque values cannot be sampled")
		assert.Equal(t, "base", notes.Winner)
	})

	t.Run("explicit time", func(t *testing.T) {
		at := 12.5
		_, output, err := server.handleListProperties(ctx, nil, ListPropertiesInput{Path: "/World/Cube", Time: &at})
		require.NoError(t, err)
		assert.Equal(t, "interpolated", output.Properties[1].Source)
	})
}

func TestServer_handleResolveProperty(t *testing.T) {
	ctx := context.Background()
	server := newTestServer(t)

	_, output, err := server.handleResolveProperty(ctx, nil, PropertyInput{Path: "/World/Cube", Property: "size"})
	require.NoError(t, err)
	assert.True(t, output.Found)
	require.Len(t, output.Layers, 2)
	assert.Equal(t, "anim", output.Layers[0].Identifier)
	assert.Equal(t, "Root", output.Layers[0].Arc)
	assert.NotEmpty(t, output.Layers[0].Color)

	_, output, err = server.handleResolveProperty(ctx, nil, PropertyInput{Path: "/World/Cube", Property: "radius"})
	require.NoError(t, err)
	assert.False(t, output.Found)
	assert.Empty(t, output.Layers)
}

func TestServer_handleSampleProperty(t *testing.T) {
	ctx := context.Background()
	server := newTestServer(t)

	_, output, err := server.handleSampleProperty(ctx, nil,
		SamplePropertyInput{Path: "/World/Cube", Property: "size", Time: 12.5})
	require.NoError(t, err)
	assert.True(t, output.Found)
	assert.Equal(t, "1.5", output.Value)
	assert.Equal(t, "float", output.Kind)
	assert.Equal(t, "interpolated", output.Source)
	assert.Equal(t, "anim", output.Layer)

	_, output, err = server.handleSampleProperty(ctx, nil,
		SamplePropertyInput{Path: "/World/Cube", Property: "tags", Time: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"hero"}, output.Elements)

	_, output, err = server.handleSampleProperty(ctx, nil,
		SamplePropertyInput{Path: "/World/Cube", Property: "radius", Time: 1})
	require.NoError(t, err)
	assert.False(t, output.Found)
	assert.Empty(t, output.Value)
}

func TestServer_handleListLayers(t *testing.T) {
	server := newTestServer(t)

	_, output, err := server.handleListLayers(context.Background(), nil, ListLayersInput{})
	require.NoError(t, err)
	require.Len(t, output.Layers, 2)
	assert.Equal(t, 0, output.Layers[0].Rank)
	assert.Equal(t, "base", output.Layers[1].Identifier)
	assert.Equal(t, "Sublayer", output.Layers[1].Arc)
}

func TestServer_ToolErrors(t *testing.T) {
	ctx := context.Background()
	failure := errors.New("document went away")
	server, err := NewServer(&Ports{Stage: &failingStage{err: failure}})
	require.NoError(t, err)

	_, _, err = server.handleListChildren(ctx, nil, PathInput{Path: "/World"})
	assert.ErrorIs(t, err, failure)

	_, _, err = server.handleListProperties(ctx, nil, ListPropertiesInput{Path: "/World"})
	assert.ErrorIs(t, err, failure)

	_, _, err = server.handleResolveProperty(ctx, nil, PropertyInput{Path: "/World", Property: "x"})
	assert.ErrorIs(t, err, failure)

	_, _, err = server.handleSampleProperty(ctx, nil, SamplePropertyInput{Path: "/World", Property: "x"})
	assert.ErrorIs(t, err, failure)
}
