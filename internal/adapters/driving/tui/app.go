package tui

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/usdinspect/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/usdinspect/internal/adapters/driving/tui/components/timeline"
	"github.com/custodia-labs/usdinspect/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/usdinspect/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/usdinspect/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/usdinspect/internal/adapters/driving/tui/views/inspector"
	"github.com/custodia-labs/usdinspect/internal/adapters/driving/tui/views/properties"
	"github.com/custodia-labs/usdinspect/internal/adapters/driving/tui/views/tree"
	"github.com/custodia-labs/usdinspect/internal/adapters/driving/tui/views/value"
	"github.com/custodia-labs/usdinspect/internal/core/domain"
)

// App is the main TUI application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	ports  *Ports
	ctx    context.Context
	styles *styles.Styles
	keymap *keymap.KeyMap

	treeView  *tree.View
	propsView *properties.View
	stackView *inspector.View
	valueView *value.View
	timeline  *timeline.Timeline
	statusBar *status.Bar
	help      help.Model

	// focus is the pane receiving navigation keys.
	focus messages.Pane

	// selected is the prim under the tree cursor.
	selected domain.Path

	// fatal is set when the document became unreadable; cleared by a reload.
	fatal error

	reloading bool
	showHelp  bool

	width  int
	height int
	ready  bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	settings := domain.DefaultAppSettings()
	if ports.Settings != nil {
		if s, err := ports.Settings.Get(); err == nil && s != nil {
			settings = *s
		}
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()
	a := &App{
		ports:     ports,
		ctx:       context.Background(),
		styles:    s,
		keymap:    km,
		treeView:  tree.NewView(s, km, ports.Stage),
		propsView: properties.NewView(s, km, ports.Stage),
		stackView: inspector.NewView(s, ports.Stage),
		valueView: value.NewView(s, km),
		timeline:  timeline.New(s, settings.Timeline.Step, settings.Timeline.ScrubRate),
		statusBar: status.NewBar(s, km),
		help:      help.New(),
		focus:     messages.PaneTree,
	}
	a.applyFocus()
	return a, nil
}

// WithContext sets the context for the app and its views.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.treeView.WithContext(ctx)
	a.propsView.WithContext(ctx)
	a.stackView.WithContext(ctx)
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.SetWindowTitle("usdinspect - "+filepath.Base(a.ports.Stage.Location())),
		a.treeView.Init(),
		a.loadTimeRange(),
	)
}

// Update implements tea.Model.
//
//nolint:gocyclo // central message handler
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		return a, a.handleKey(msg)

	case messages.ChildrenLoaded:
		a.noteErr(msg.Err)
		a.treeView, cmd = a.treeView.Update(msg)
		return a, cmd

	case messages.PrimSelected:
		a.selected = msg.Path
		a.statusBar.SetPosition(a.selected, a.timeline.Current())
		return a, tea.Batch(
			a.stackView.Load(msg.Path),
			a.propsView.Load(msg.Path, a.timeline.Current()),
		)

	case messages.PrimLoaded:
		a.noteErr(msg.Err)
		a.stackView, cmd = a.stackView.Update(msg)
		return a, cmd

	case messages.RowsLoaded:
		a.noteErr(msg.Err)
		a.propsView, cmd = a.propsView.Update(msg)
		return a, cmd

	case messages.PropertySelected:
		a.valueView, cmd = a.valueView.Update(msg)
		return a, cmd

	case messages.TimeRangeLoaded:
		a.noteErr(msg.Err)
		if msg.Err != nil || msg.Range == a.timeline.Range() {
			return a, nil
		}
		a.timeline.SetRange(msg.Range)
		return a, a.timeChanged(a.timeline.Current())

	case messages.TimeChanged:
		if msg.Time != a.timeline.Current() {
			return a, nil
		}
		return a, a.timeChanged(msg.Time)

	case messages.ScrubFlush:
		return a, a.timeline.Flush(msg)

	case messages.ReloadRequested:
		return a, a.reload()

	case messages.StageReloaded:
		return a, a.handleReloaded(msg)

	case messages.ErrorOccurred:
		a.noteErr(msg.Err)
		a.statusBar.SetState(status.StateError)
		a.statusBar.SetMessage(msg.Err.Error())
		return a, nil

	case messages.Quit:
		return a, tea.Quit
	}

	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) tea.Cmd {
	key := msg.String()
	if key == "ctrl+c" {
		return tea.Quit
	}
	if a.showHelp {
		a.showHelp = false
		return nil
	}

	switch {
	case keymap.Matches(key, a.keymap.Quit):
		return tea.Quit
	case keymap.Matches(key, a.keymap.Help):
		a.showHelp = true
		return nil
	case keymap.Matches(key, a.keymap.Reload):
		return a.reload()
	case keymap.Matches(key, a.keymap.NextPane):
		a.focus = a.focus.Next()
		a.applyFocus()
		return nil
	case keymap.Matches(key, a.keymap.PrevPane):
		a.focus = a.focus.Prev()
		a.applyFocus()
		return nil
	case keymap.Matches(key, a.keymap.TimeForward):
		return a.scrubbed(a.timeline.Forward())
	case keymap.Matches(key, a.keymap.TimeBack):
		return a.scrubbed(a.timeline.Back())
	case keymap.Matches(key, a.keymap.TimeStart):
		return a.scrubbed(a.timeline.ToStart())
	case keymap.Matches(key, a.keymap.TimeEnd):
		return a.scrubbed(a.timeline.ToEnd())
	}

	var cmd tea.Cmd
	switch a.focus {
	case messages.PaneTree:
		a.treeView, cmd = a.treeView.Update(msg)
	case messages.PaneProperties:
		a.propsView, cmd = a.propsView.Update(msg)
	case messages.PaneValue:
		a.valueView, cmd = a.valueView.Update(msg)
	}
	return cmd
}

func (a *App) scrubbed(cmd tea.Cmd) tea.Cmd {
	a.statusBar.SetPosition(a.selected, a.timeline.Current())
	return cmd
}

func (a *App) timeChanged(t domain.TimeCode) tea.Cmd {
	a.statusBar.SetPosition(a.selected, t)
	if a.selected == "" {
		return nil
	}
	return a.propsView.Load(a.selected, t)
}

func (a *App) loadTimeRange() tea.Cmd {
	ctx := a.ctx
	stage := a.ports.Stage
	return func() tea.Msg {
		r, err := stage.TimeRange(ctx)
		return messages.TimeRangeLoaded{Range: r, Err: err}
	}
}

func (a *App) reload() tea.Cmd {
	if a.reloading {
		return nil
	}
	a.reloading = true
	a.statusBar.SetState(status.StateReloading)
	ctx := a.ctx
	stage := a.ports.Stage
	return func() tea.Msg {
		err := stage.Reload(ctx)
		return messages.StageReloaded{Files: stage.LayerFiles(), Err: err}
	}
}

func (a *App) handleReloaded(msg messages.StageReloaded) tea.Cmd {
	a.reloading = false
	if msg.Err != nil {
		a.statusBar.SetState(status.StateError)
		a.statusBar.SetMessage("reload failed: " + msg.Err.Error())
		return nil
	}

	a.fatal = nil
	a.statusBar.SetState(status.StateReady)
	a.statusBar.SetMessage(fmt.Sprintf("reloaded (%d layer files)", len(msg.Files)))

	cmds := []tea.Cmd{a.treeView.Reset(), a.loadTimeRange()}
	if a.selected != "" {
		cmds = append(cmds,
			a.stackView.Load(a.selected),
			a.propsView.Load(a.selected, a.timeline.Current()))
	}
	return tea.Batch(cmds...)
}

// noteErr raises the fatal banner for document failures.
func (a *App) noteErr(err error) {
	if errors.Is(err, domain.ErrDocumentUnavailable) {
		a.fatal = err
	}
}

func (a *App) applyFocus() {
	a.treeView.SetFocused(a.focus == messages.PaneTree)
	a.propsView.SetFocused(a.focus == messages.PaneProperties)
	a.valueView.SetFocused(a.focus == messages.PaneValue)
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}
	if a.showHelp {
		return a.styles.Title.Render("Keys") + "\n\n" +
			a.help.FullHelpView(a.keymap.FullHelp()) + "\n\n" +
			a.styles.Help.Render("press any key to return")
	}

	treeW, propsW, sideW, bodyH := a.layout()
	stackH := bodyH / 2
	valueH := bodyH - stackH

	side := lipgloss.JoinVertical(lipgloss.Left,
		a.pane(a.stackView.View(), sideW, stackH, false),
		a.pane(a.valueView.View(), sideW, valueH, a.focus == messages.PaneValue),
	)
	body := lipgloss.JoinHorizontal(lipgloss.Top,
		a.pane(a.treeView.View(), treeW, bodyH, a.focus == messages.PaneTree),
		a.pane(a.propsView.View(), propsW, bodyH, a.focus == messages.PaneProperties),
		side,
	)

	parts := make([]string, 0, 4)
	if a.fatal != nil {
		parts = append(parts, a.styles.Banner.Width(a.width).Render(
			fmt.Sprintf("Document unavailable: %v (press r to reload)", a.fatal)))
	}
	parts = append(parts, body, a.timeline.View(), a.statusBar.View())
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (a *App) pane(content string, width, height int, focused bool) string {
	return a.styles.PaneFor(focused).
		Width(width - 2).
		Height(height - 2).
		MaxHeight(height).
		Render(content)
}

// layout splits the terminal into pane sizes including borders.
func (a *App) layout() (treeW, propsW, sideW, bodyH int) {
	treeW = a.width * 3 / 10
	propsW = a.width * 4 / 10
	sideW = a.width - treeW - propsW
	bodyH = a.height - 2
	if a.fatal != nil {
		bodyH--
	}
	return max(treeW, 4), max(propsW, 4), max(sideW, 4), max(bodyH, 4)
}

// SetDimensions sets the terminal dimensions and resizes every pane.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true

	treeW, propsW, sideW, bodyH := a.layout()
	inner := func(n int) int { return max(n-2, 1) }
	a.treeView.SetDimensions(inner(treeW), inner(bodyH))
	a.propsView.SetDimensions(inner(propsW), inner(bodyH))
	a.stackView.SetDimensions(inner(sideW), inner(bodyH/2))
	a.valueView.SetDimensions(inner(sideW), inner(bodyH-bodyH/2))
	a.timeline.SetWidth(width)
	a.statusBar.SetWidth(width)
}

// Focus returns the pane with keyboard focus.
func (a *App) Focus() messages.Pane {
	return a.focus
}

// Selected returns the prim under the tree cursor.
func (a *App) Selected() domain.Path {
	return a.selected
}

// Time returns the timeline's current time code.
func (a *App) Time() domain.TimeCode {
	return a.timeline.Current()
}

// Fatal returns the document failure shown in the banner, if any.
func (a *App) Fatal() error {
	return a.fatal
}

// Ready returns whether the app has received its dimensions.
func (a *App) Ready() bool {
	return a.ready
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
