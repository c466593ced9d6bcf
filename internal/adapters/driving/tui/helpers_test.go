package tui

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/usdinspect/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/usdinspect/internal/core/domain"
	"github.com/custodia-labs/usdinspect/internal/core/ports/driving"
	"github.com/custodia-labs/usdinspect/internal/core/services"
)

const testLocation = "shot.yaml"

// newTestStage opens a session over a two-layer stage:
//
//	anim (root):  over /World/Cube  size samples {1: 1, 24: 2}
//	base (sub):   def /World Xform, def /World/Cube Cube size=1 tags=[hero, prop], def /World/Light
func newTestStage(t *testing.T) (driving.StageService, *memory.Loader) {
	t.Helper()
	loader := memory.NewLoader()
	loader.Put(testLocation, buildStage())
	session, err := services.OpenSession(context.Background(), loader, testLocation)
	require.NoError(t, err)
	t.Cleanup(func() { session.Close() })
	return session, loader
}

func buildStage() *memory.Document {
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
		Attr("/World/Cube", "tags", "token[]",
			domain.ArrayValue(domain.TokenValue("hero"), domain.TokenValue("prop"))).
		Def("/World/Light", "DistantLight")
	b.TimeRange(domain.TimeRange{Start: 1, End: 24, TimeCodesPerSecond: 24})
	return b.Build()
}

func newTestApp(t *testing.T) (*App, *memory.Loader) {
	t.Helper()
	stage, loader := newTestStage(t)
	app, err := NewApp(&Ports{Stage: stage})
	require.NoError(t, err)
	app.SetDimensions(160, 40)
	return app, loader
}

// run executes cmd and feeds every resulting message back into the app
// until no commands remain.
func run(app *App, cmd tea.Cmd) {
	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0 && steps < 200; steps++ {
		next := queue[0]
		queue = queue[1:]
		if next == nil {
			continue
		}
		msg := next()
		if batch, ok := msg.(tea.BatchMsg); ok {
			queue = append(queue, batch...)
			continue
		}
		if _, ok := msg.(tea.QuitMsg); ok {
			continue
		}
		_, follow := app.Update(msg)
		queue = append(queue, follow)
	}
}

func press(app *App, keys ...string) {
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		case "shift+tab":
			msg = tea.KeyMsg{Type: tea.KeyShiftTab}
		case "ctrl+c":
			msg = tea.KeyMsg{Type: tea.KeyCtrlC}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		_, cmd := app.Update(msg)
		run(app, cmd)
	}
}

// flakyStage fails hierarchy and time range queries with err while it is set.
type flakyStage struct {
	driving.StageService
	err error
}

func (f *flakyStage) ChildrenOf(ctx context.Context, path domain.Path) ([]domain.Path, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.StageService.ChildrenOf(ctx, path)
}

func (f *flakyStage) TimeRange(ctx context.Context) (domain.TimeRange, error) {
	if f.err != nil {
		return domain.TimeRange{}, f.err
	}
	return f.StageService.TimeRange(ctx)
}

func (f *flakyStage) Reload(ctx context.Context) error {
	if f.err != nil {
		return f.err
	}
	return f.StageService.Reload(ctx)
}
