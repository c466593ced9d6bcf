package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTreeCmd_Args(t *testing.T) {
	assert.Equal(t, "tree [stage] [path]", treeCmd.Use)

	_, err := execute(t, "tree")
	assert.Error(t, err)

	flag := treeCmd.Flags().Lookup("depth")
	require.NotNil(t, flag)
	assert.Equal(t, "d", flag.Shorthand)
	assert.Equal(t, "0", flag.DefValue)
}

func TestTreeCmd_Full(t *testing.T) {
	defer setupTestServices(t)()

	out := mustExecute(t, "tree", testStage)

	assert.Contains(t, out, "/\n")
	assert.Contains(t, out, `  def Xform "World"`)
	assert.Contains(t, out, `    def Cube "Cube"`)
	assert.Contains(t, out, `    def DistantLight "Light"`)
}

func TestTreeCmd_DepthAndPath(t *testing.T) {
	defer setupTestServices(t)()

	out := mustExecute(t, "tree", testStage, "--depth", "1")
	assert.Contains(t, out, `"World"`)
	assert.NotContains(t, out, `"Cube"`)

	out = mustExecute(t, "tree", testStage, "/World")
	assert.Contains(t, out, `def Xform "World"`)
	assert.Contains(t, out, `  def Cube "Cube"`)
}

func TestTreeCmd_JSON(t *testing.T) {
	defer setupTestServices(t)()

	out := mustExecute(t, "tree", testStage, "/World", "--json")

	var view treeView
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	assert.Equal(t, "/World", view.Path)
	assert.Equal(t, "Xform", view.TypeName)
	require.Len(t, view.Children, 2)
	assert.Equal(t, "/World/Cube", view.Children[0].Path)
}

func TestTreeCmd_Errors(t *testing.T) {
	defer setupTestServices(t)()

	_, err := execute(t, "tree", testStage, "/Missing")
	assert.Error(t, err)

	_, err = execute(t, "tree", testStage, "World")
	assert.ErrorContains(t, err, "invalid prim path")

	_, err = execute(t, "tree", testStage, "--depth", "-1")
	assert.ErrorContains(t, err, "--depth")

	_, err = execute(t, "tree", "missing.yaml")
	assert.ErrorContains(t, err, "opening missing.yaml")
}
