// Package value provides the value pane for the TUI.
package value

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/usdinspect/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/usdinspect/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/usdinspect/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/usdinspect/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/usdinspect/internal/core/domain"
)

// View shows the selected property's value at the current time, listing
// arrays as index/value rows, followed by its contributing layers.
type View struct {
	styles *styles.Styles
	keymap *keymap.KeyMap

	row    domain.PropertyRow
	has    bool
	lines  []string
	cursor *list.Cursor

	focused bool
	width   int
	height  int
}

// NewView creates a value view.
func NewView(s *styles.Styles, km *keymap.KeyMap) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	return &View{
		styles: s,
		keymap: km,
		cursor: list.NewCursor(10),
	}
}

// Update handles messages for the value view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case messages.PropertySelected:
		v.SetRow(msg.Row)
	case tea.KeyMsg:
		key := msg.String()
		switch {
		case keymap.Matches(key, v.keymap.Up):
			v.cursor.MoveUp()
		case keymap.Matches(key, v.keymap.Down):
			v.cursor.MoveDown()
		}
	}
	return v, nil
}

// SetRow shows row. A zero row clears the pane.
func (v *View) SetRow(row domain.PropertyRow) {
	same := v.has && row.Info.Name == v.row.Info.Name
	v.row = row
	v.has = row.Info.Name != ""
	v.lines = v.render()
	v.cursor.SetCount(len(v.lines))
	if !same {
		v.cursor.Reset()
	}
}

// Lines returns the rendered body lines.
func (v *View) Lines() []string {
	return v.lines
}

func (v *View) render() []string {
	if !v.has {
		return nil
	}
	r := v.row
	lines := []string{
		v.styles.Normal.Render(r.Info.Name) + v.styles.Muted.Render(
			fmt.Sprintf("  %s %s", r.Info.Kind, r.Info.TypeName)),
	}

	switch {
	case r.Err != nil:
		lines = append(lines, v.styles.Error.Render("Error: "+r.Err.Error()))
	case !r.Found:
		lines = append(lines, v.styles.Warning.Render("No authored value"))
	default:
		s := r.Sample
		lines = append(lines, v.styles.Muted.Render(
			fmt.Sprintf("@ %s  %s from ", s.Time, s.Source))+v.styles.LayerTag(s.Layer.DisplayName, s.Layer.Color))
		lines = append(lines, valueLines(v.styles, s.Value)...)
	}

	if r.Found {
		lines = append(lines, "", v.styles.Title.Render("Opinions"))
		for i, l := range r.Resolution.Layers {
			marker := "  "
			if i == 0 {
				marker = "* "
			}
			lines = append(lines, marker+v.styles.LayerTag(l.DisplayName, l.Color)+
				v.styles.Muted.Render(fmt.Sprintf("  %s #%d", l.Arc, l.Rank)))
		}
	}
	return lines
}

func valueLines(s *styles.Styles, val domain.Value) []string {
	if !val.IsArray() {
		return []string{s.Normal.Render(val.String())}
	}
	elems := val.Elements()
	lines := []string{s.Muted.Render(fmt.Sprintf("%d elements", len(elems)))}
	for i, e := range elems {
		lines = append(lines, s.Muted.Render(fmt.Sprintf("[%d] ", i))+s.Normal.Render(e.String()))
	}
	return lines
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

// View renders the value pane.
func (v *View) View() string {
	var b strings.Builder
	b.WriteString(v.styles.Title.Render("Value"))
	if !v.has {
		b.WriteString("\n" + v.styles.Muted.Render("(no property selected)"))
		return b.String()
	}
	start, end := v.cursor.Visible()
	for i := start; i < end; i++ {
		line := v.lines[i]
		if v.focused && i == v.cursor.Selected() {
			line = v.styles.Cursor.Render("> ") + line
		} else {
			line = "  " + line
		}
		b.WriteString("\n" + line)
	}
	return b.String()
}
