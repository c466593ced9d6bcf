package logger

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func capture(t *testing.T, verboseMode bool) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(verboseMode)
	t.Cleanup(func() {
		SetVerbose(false)
		SetOutput(os.Stderr)
	})
	return &buf
}

func TestSetVerbose(t *testing.T) {
	capture(t, false)
	assert.False(t, IsVerbose())

	SetVerbose(true)
	assert.True(t, IsVerbose())

	SetVerbose(false)
	assert.False(t, IsVerbose())
}

func TestDebug_WhenVerbose(t *testing.T) {
	buf := capture(t, true)

	Debug("test message %s", "arg")

	assert.Equal(t, "[DEBUG] test message arg\n", buf.String())
}

func TestDebug_WhenNotVerbose(t *testing.T) {
	buf := capture(t, false)

	Debug("hidden")
	Info("hidden")
	Warn("hidden")
	Section("hidden")

	assert.Empty(t, buf.String())
}

func TestError_AlwaysPrinted(t *testing.T) {
	buf := capture(t, false)

	Error("document %s unavailable", "a.yaml")

	assert.Equal(t, "[ERROR] document a.yaml unavailable\n", buf.String())
}

func TestComponent_Prefix(t *testing.T) {
	buf := capture(t, true)

	For("cache").Debug("miss %s", "/x.p")
	For("tree").Warn("slow expansion")

	assert.Equal(t, "[DEBUG] cache: miss /x.p\n[WARN] tree: slow expansion\n", buf.String())
}

func TestComponent_Timed(t *testing.T) {
	buf := capture(t, true)

	done := For("tree").Timed("expand /World")
	done()

	assert.Contains(t, buf.String(), "[DEBUG] tree: expand /World took ")
}

func TestComponent_TimedWhenNotVerbose(t *testing.T) {
	buf := capture(t, false)

	For("tree").Timed("expand")()

	assert.Empty(t, buf.String())
}

func TestSection(t *testing.T) {
	buf := capture(t, true)

	Section("Reload")

	assert.Equal(t, "\n=== Reload ===\n", buf.String())
}
