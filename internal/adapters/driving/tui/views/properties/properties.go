// Package properties provides the property panel pane for the TUI.
package properties

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/usdinspect/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/usdinspect/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/usdinspect/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/usdinspect/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/usdinspect/internal/core/domain"
	"github.com/custodia-labs/usdinspect/internal/core/ports/driving"
)

// View lists the properties of the selected prim at the current time, each
// tagged with the colour of its winning layer.
type View struct {
	styles *styles.Styles
	keymap *keymap.KeyMap
	panel  driving.PropertyPanel
	ctx    context.Context

	path    domain.Path
	time    domain.TimeCode
	rows    []domain.PropertyRow
	cursor  *list.Cursor
	loading bool
	err     error

	focused bool
	width   int
	height  int
}

// NewView creates a property panel view.
func NewView(s *styles.Styles, km *keymap.KeyMap, panel driving.PropertyPanel) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	return &View{
		styles: s,
		keymap: km,
		panel:  panel,
		ctx:    context.Background(),
		cursor: list.NewCursor(10),
	}
}

// WithContext sets the context used for panel queries.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Load returns a command that computes the rows of path at t.
// Responses for any other path or time are discarded when they arrive.
func (v *View) Load(path domain.Path, t domain.TimeCode) tea.Cmd {
	if path != v.path {
		v.cursor.Reset()
	}
	v.path = path
	v.time = t
	v.loading = true

	if v.panel == nil {
		return func() tea.Msg {
			return messages.RowsLoaded{Path: path, Time: t, Err: fmt.Errorf("property panel not available")}
		}
	}
	ctx := v.ctx
	panel := v.panel
	return func() tea.Msg {
		rows, err := panel.Rows(ctx, path, t)
		return messages.RowsLoaded{Path: path, Time: t, Rows: rows, Err: err}
	}
}

// Update handles messages for the property panel.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case messages.RowsLoaded:
		return v, v.handleLoaded(msg)
	case tea.KeyMsg:
		key := msg.String()
		switch {
		case keymap.Matches(key, v.keymap.Up):
			if v.cursor.MoveUp() {
				return v, v.selected()
			}
		case keymap.Matches(key, v.keymap.Down):
			if v.cursor.MoveDown() {
				return v, v.selected()
			}
		}
	}
	return v, nil
}

func (v *View) handleLoaded(msg messages.RowsLoaded) tea.Cmd {
	if msg.Path != v.path || msg.Time != v.time {
		return nil
	}
	v.loading = false
	if msg.Err != nil {
		v.err = msg.Err
		v.rows = nil
		v.cursor.SetCount(0)
		return v.selected()
	}
	v.err = nil

	prev, hadPrev := v.SelectedRow()
	v.rows = msg.Rows
	v.cursor.SetCount(len(v.rows))
	if hadPrev {
		for i, r := range v.rows {
			if r.Info.Name == prev.Info.Name {
				v.cursor.SetSelected(i)
				break
			}
		}
	}
	return v.selected()
}

func (v *View) selected() tea.Cmd {
	row, _ := v.SelectedRow()
	return func() tea.Msg {
		return messages.PropertySelected{Row: row}
	}
}

// SelectedRow returns the row under the cursor.
func (v *View) SelectedRow() (domain.PropertyRow, bool) {
	if len(v.rows) == 0 {
		return domain.PropertyRow{}, false
	}
	return v.rows[v.cursor.Selected()], true
}

// Rows returns the loaded rows.
func (v *View) Rows() []domain.PropertyRow {
	return v.rows
}

// Err returns the last load error.
func (v *View) Err() error {
	return v.err
}

// SetFocused sets whether the pane has keyboard focus.
func (v *View) SetFocused(focused bool) {
	v.focused = focused
}

// SetDimensions sets the pane size, excluding its border.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.cursor.SetHeight(height - 1)
}

// View renders the property panel.
func (v *View) View() string {
	var b strings.Builder
	title := "Properties"
	if v.path != "" {
		title += "  " + v.styles.Muted.Render(string(v.path))
	}
	b.WriteString(v.styles.Title.Render(title))

	switch {
	case v.err != nil:
		b.WriteString("\n" + v.styles.Error.Render(fmt.Sprintf("Error: %v", v.err)))
		return b.String()
	case v.loading && len(v.rows) == 0:
		b.WriteString("\n" + v.styles.Muted.Render("Loading..."))
		return b.String()
	case len(v.rows) == 0:
		b.WriteString("\n" + v.styles.Muted.Render("(no properties)"))
		return b.String()
	}

	nameWidth := 0
	for _, r := range v.rows {
		nameWidth = max(nameWidth, len(r.Info.Name))
	}
	nameWidth = min(nameWidth, v.width/3)

	start, end := v.cursor.Visible()
	for i := start; i < end; i++ {
		b.WriteString("\n" + v.renderRow(i, v.rows[i], nameWidth))
	}
	return b.String()
}

func (v *View) renderRow(i int, r domain.PropertyRow, nameWidth int) string {
	name := fmt.Sprintf("%-4s %-*s", r.Info.Label(), nameWidth, clip(r.Info.Name, nameWidth))

	var value string
	switch {
	case r.Err != nil:
		value = v.styles.Error.Render("! " + r.Err.Error())
	case !r.Found:
		value = v.styles.Warning.Render("(declared " + r.Info.TypeName + ")")
	default:
		winner := r.Resolution.Winner()
		tag := v.styles.LayerTag(winner.DisplayName, winner.Color)
		if extra := len(r.Resolution.Layers) - 1; extra > 0 {
			tag += v.styles.Muted.Render(fmt.Sprintf(" +%d", extra))
		}
		room := v.width - nameWidth - lipgloss.Width(tag) - 8
		value = v.styles.Normal.Render(clip(r.Sample.Value.String(), room)) + "  " + tag
	}

	switch {
	case i != v.cursor.Selected():
		return "  " + v.styles.Normal.Render(name) + " " + value
	case v.focused:
		return v.styles.Selected.Render("> "+name) + " " + value
	default:
		return v.styles.Cursor.Render("> "+name) + " " + value
	}
}

func clip(s string, maxLen int) string {
	if maxLen < 4 || len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
