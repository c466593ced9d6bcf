package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLayersCmd(t *testing.T) {
	defer setupTestServices(t)()

	out := mustExecute(t, "layers", testStage)

	assert.Contains(t, out, "IDENTIFIER")
	assert.Contains(t, out, "Root")
	assert.Contains(t, out, "Sublayer")
	assert.Contains(t, out, "Total: 2 layers")
}

func TestLayersCmd_JSON(t *testing.T) {
	defer setupTestServices(t)()

	out := mustExecute(t, "layers", testStage, "--json")

	var layers []layerView
	require.NoError(t, json.Unmarshal([]byte(out), &layers))
	require.Len(t, layers, 2)
	assert.Equal(t, "anim", layers[0].Identifier)
	assert.Equal(t, 0, layers[0].Rank)
	assert.Regexp(t, `^#[0-9a-f]{6}$`, layers[0].Color)
	assert.NotEqual(t, layers[0].Color, layers[1].Color)
}

func TestLayersCmd_NoOpener(t *testing.T) {
	defer setupTestServices(t)()
	openStage = nil

	_, err := execute(t, "layers", testStage)

	assert.ErrorContains(t, err, "stage opener not configured")
}
