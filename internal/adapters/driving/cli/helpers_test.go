package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/usdinspect/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/usdinspect/internal/core/domain"
	"github.com/custodia-labs/usdinspect/internal/core/ports/driving"
	"github.com/custodia-labs/usdinspect/internal/core/services"
)

const testStage = "shot.yaml"

// buildTestStage composes:
//
//	anim (root):  over /World/Cube  size samples {1: 1, 24: 2}
//	base (sub):   def Xform /World (kind=assembly)
//	              def Cube /World/Cube  size=1  tags=[hero, prop]  radius declared  notes opaque
//	              def DistantLight /World/Light
func buildTestStage() *memory.Document {
	b := memory.NewBuilder()
	b.Layer("anim", domain.ArcRoot).
		Over("/World/Cube").
		Samples("/World/Cube", "size", "double",
			domain.TimeSample{Time: 1, Value: domain.FloatValue(1)},
			domain.TimeSample{Time: 24, Value: domain.FloatValue(2)})
	b.Layer("base", domain.ArcSublayer).
		Def("/World", "Xform").
		Meta("/World", "kind", domain.TokenValue("assembly")).
		Def("/World/Cube", "Cube").
		Attr("/World/Cube", "size", "double", domain.FloatValue(1)).
		PropMeta("/World/Cube", "size", "doc", domain.StringValue("edge length")).
		Attr("/World/Cube", "tags", "token[]",
			domain.ArrayValue(domain.TokenValue("hero"), domain.TokenValue("prop"))).
		Declare("/World/Cube", "radius", "double").
		Def("/World/Light", "DistantLight")
	b.TimeRange(domain.TimeRange{Start: 1, End: 24, TimeCodesPerSecond: 24})
	return b.Build()
}

// setupTestServices wires an in-memory stage and settings service into the
// command tree and returns a cleanup function.
func setupTestServices(t *testing.T) func() {
	t.Helper()
	loader := memory.NewLoader()
	loader.Put(testStage, buildTestStage())

	origOpener, origSettings, origBundler, origColor := openStage, settingsService, bundler, colorEnabled
	openStage = func(ctx context.Context, location string, _ OpenOptions) (driving.StageService, error) {
		return services.OpenSession(ctx, loader, location)
	}
	settingsService = services.NewSettingsService(memory.NewConfigStore())
	colorEnabled = func() bool { return false }

	return func() {
		openStage, settingsService, bundler, colorEnabled = origOpener, origSettings, origBundler, origColor
	}
}

// execute runs the root command with args and returns its combined output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}

// resetFlags restores every flag to its default; cobra keeps parsed values
// between executions.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

func mustExecute(t *testing.T, args ...string) string {
	t.Helper()
	out, err := execute(t, args...)
	require.NoError(t, err, out)
	return out
}
