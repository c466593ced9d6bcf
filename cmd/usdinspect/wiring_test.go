package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/usdinspect/internal/adapters/driven/stage/sqlitestage"
	"github.com/custodia-labs/usdinspect/internal/adapters/driven/stage/yamlstage"
	"github.com/custodia-labs/usdinspect/internal/adapters/driving/cli"
	"github.com/custodia-labs/usdinspect/internal/core/domain"
)

const rootLayer = `
subLayers: [base.yaml]
startTimeCode: 1
endTimeCode: 10
prims:
  - over: Ball
    properties:
      radius:
        type: double
        timeSamples: {1: 1.0, 10: 10.0}
`

const baseLayer = `
prims:
  - def: Ball
    type: Sphere
    properties:
      radius: {type: double, default: 0.5}
`

func writeStage(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "root.yaml"), []byte(rootLayer), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "base.yaml"), []byte(baseLayer), 0o600))
	return filepath.Join(dir, "root.yaml")
}

func TestLoaderFor(t *testing.T) {
	assert.IsType(t, &sqlitestage.Loader{}, loaderFor("shot.usdb", cli.OpenOptions{}))
	assert.IsType(t, &sqlitestage.Loader{}, loaderFor("SHOT.DB", cli.OpenOptions{}))
	assert.IsType(t, &yamlstage.Loader{}, loaderFor("shot.yaml", cli.OpenOptions{}))
	assert.IsType(t, &yamlstage.Loader{}, loaderFor("shot", cli.OpenOptions{SessionLayer: "s.yaml"}))
}

func TestWiring_Bootstrap(t *testing.T) {
	dir := t.TempDir()
	w := newWiring()

	require.NoError(t, w.bootstrap(cli.GlobalOptions{ConfigDir: dir}))
	require.NotNil(t, w.settings)
	require.NoError(t, w.settings.Set("engine.workers", "2"))

	again := newWiring()
	require.NoError(t, again.bootstrap(cli.GlobalOptions{ConfigDir: dir}))
	assert.Equal(t, 2, again.app.Engine.Workers)
	assert.FileExists(t, filepath.Join(dir, "config.toml"))
}

func TestWiring_OpenStage(t *testing.T) {
	ctx := context.Background()
	location := writeStage(t)

	stage, err := newWiring().openStage(ctx, location, cli.OpenOptions{})
	require.NoError(t, err)
	defer stage.Close()

	layers := stage.Layers()
	require.Len(t, layers, 2)
	assert.Equal(t, "root.yaml", layers[0].DisplayName)

	v, found, err := stage.Sample(ctx, "/Ball", "radius", 5.5)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, domain.FloatValue(5.5), v.Value)
}

func TestWiring_OpenStageMetrics(t *testing.T) {
	ctx := context.Background()
	w := newWiring()
	stage, err := w.openStage(ctx, writeStage(t), cli.OpenOptions{})
	require.NoError(t, err)
	defer stage.Close()

	_, _, err = stage.Resolve(ctx, "/Ball", "radius")
	require.NoError(t, err)

	families, err := w.registry.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestWiring_BundleRoundTrip(t *testing.T) {
	ctx := context.Background()
	location := writeStage(t)
	out := filepath.Join(t.TempDir(), "stage.usdb")

	summary, err := newWiring().bundle(ctx, location, out, cli.OpenOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Layers)
	assert.Equal(t, 2, summary.Samples)

	stage, err := newWiring().openStage(ctx, out, cli.OpenOptions{})
	require.NoError(t, err)
	defer stage.Close()

	v, found, err := stage.Sample(ctx, "/Ball", "radius", 5.5)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, domain.FloatValue(5.5), v.Value)

	_, err = newWiring().bundle(ctx, location, out, cli.OpenOptions{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestWiring_BundleMissingStage(t *testing.T) {
	_, err := newWiring().bundle(context.Background(), "nope.yaml", filepath.Join(t.TempDir(), "x.usdb"), cli.OpenOptions{})

	assert.ErrorIs(t, err, domain.ErrDocumentUnavailable)
}

func TestWiring_OpenStageSessionLayerIsRoot(t *testing.T) {
	location := writeStage(t)

	_, err := newWiring().openStage(context.Background(), location, cli.OpenOptions{SessionLayer: location})

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
