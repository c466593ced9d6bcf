package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPropsCmd(t *testing.T) {
	defer setupTestServices(t)()

	out := mustExecute(t, "props", testStage, "/World/Cube")

	assert.Contains(t, out, "/World/Cube @ 1")
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "size")
	assert.Contains(t, out, "anim +1")
	assert.Contains(t, out, "exact")
	assert.Contains(t, out, "(declared)")
	assert.Contains(t, out, "[hero, prop] (2)")
}

func TestPropsCmd_AtTime(t *testing.T) {
	defer setupTestServices(t)()

	out := mustExecute(t, "props", testStage, "/World/Cube", "--json", "-t", "12.5")

	var result struct {
		Time       float64        `json:"time"`
		Properties []propertyView `json:"properties"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, 12.5, result.Time)

	byName := make(map[string]propertyView)
	for _, p := range result.Properties {
		byName[p.Name] = p
	}
	assert.Equal(t, "interpolated", byName["size"].Source)
	assert.Equal(t, "anim", byName["size"].Winner)
	assert.Equal(t, []string{"anim", "base"}, byName["size"].Layers)
	assert.Empty(t, byName["radius"].Winner)
}

func TestPropsCmd_NoProperties(t *testing.T) {
	defer setupTestServices(t)()

	out := mustExecute(t, "props", testStage, "/World/Light")

	assert.Contains(t, out, "/World/Light has no properties")
}

func TestResolveCmd(t *testing.T) {
	defer setupTestServices(t)()

	out := mustExecute(t, "resolve", testStage, "/World/Cube", "size")
	assert.Contains(t, out, "RANK")
	assert.Contains(t, out, "anim")
	assert.Contains(t, out, "base")
	assert.Contains(t, out, "Sublayer")

	out = mustExecute(t, "resolve", testStage, "/World/Cube", "radius")
	assert.Contains(t, out, "/World/Cube.radius has no authored opinion")
}

func TestResolveCmd_JSON(t *testing.T) {
	defer setupTestServices(t)()

	out := mustExecute(t, "resolve", testStage, "/World/Cube", "tags", "--json")

	var result struct {
		Found  bool        `json:"found"`
		Layers []layerView `json:"layers"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.True(t, result.Found)
	require.Len(t, result.Layers, 1)
	assert.Equal(t, "base", result.Layers[0].Identifier)
	assert.Equal(t, 1, result.Layers[0].Rank)
}

func TestSampleCmd(t *testing.T) {
	defer setupTestServices(t)()

	out := mustExecute(t, "sample", testStage, "/World/Cube", "size", "--time", "12.5")
	assert.Contains(t, out, "/World/Cube.size @ 12.5")
	assert.Contains(t, out, "Layer:  anim")
	assert.Contains(t, out, "Source: interpolated")
	assert.Contains(t, out, "Value:  1.5")

	out = mustExecute(t, "sample", testStage, "/World/Cube", "tags")
	assert.Contains(t, out, "Value:  2 elements")
	assert.Contains(t, out, "[0] hero")
	assert.Contains(t, out, "[1] prop")
}

func TestSampleCmd_TimeResetsBetweenRuns(t *testing.T) {
	defer setupTestServices(t)()

	mustExecute(t, "sample", testStage, "/World/Cube", "size", "-t", "24")
	out := mustExecute(t, "sample", testStage, "/World/Cube", "size")

	assert.Contains(t, out, "@ 1\n")
}

func TestSampleCmd_NotAuthored(t *testing.T) {
	defer setupTestServices(t)()

	out := mustExecute(t, "sample", testStage, "/World/Cube", "radius")

	assert.Contains(t, out, "/World/Cube.radius has no authored value")
}

func TestSampleCmd_JSON(t *testing.T) {
	defer setupTestServices(t)()

	out := mustExecute(t, "sample", testStage, "/World/Cube", "size", "--json", "-t", "30")

	var result map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, true, result["found"])
	assert.Equal(t, 2.0, result["value"])
	assert.Equal(t, "held", result["source"])
	assert.Equal(t, "float", result["kind"])
}
