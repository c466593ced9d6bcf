// Package inspector provides the prim layer stack pane for the TUI.
package inspector

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/usdinspect/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/usdinspect/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/usdinspect/internal/core/domain"
	"github.com/custodia-labs/usdinspect/internal/core/ports/driving"
)

// View shows the layers holding a spec for the selected prim, strongest
// first, and the prim's composed metadata.
type View struct {
	styles    *styles.Styles
	inspector driving.PrimInspector
	ctx       context.Context

	path     domain.Path
	stack    []domain.PrimSpecRef
	metadata domain.Metadata
	err      error

	width  int
	height int
}

// NewView creates a prim stack view.
func NewView(s *styles.Styles, inspector driving.PrimInspector) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles:    s,
		inspector: inspector,
		ctx:       context.Background(),
	}
}

// WithContext sets the context used for inspector queries.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Load returns a command that fetches the stack and metadata of path.
func (v *View) Load(path domain.Path) tea.Cmd {
	v.path = path
	if v.inspector == nil {
		return func() tea.Msg {
			return messages.PrimLoaded{Path: path, Err: fmt.Errorf("prim inspector not available")}
		}
	}
	ctx := v.ctx
	inspector := v.inspector
	return func() tea.Msg {
		stack, err := inspector.PrimStack(ctx, path)
		if err != nil {
			return messages.PrimLoaded{Path: path, Err: err}
		}
		md, err := inspector.Metadata(ctx, path, "", "")
		if err != nil {
			return messages.PrimLoaded{Path: path, Err: err}
		}
		return messages.PrimLoaded{Path: path, Stack: stack, Metadata: md}
	}
}

// Update handles messages for the prim stack view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	if msg, ok := msg.(messages.PrimLoaded); ok && msg.Path == v.path {
		v.err = msg.Err
		v.stack = msg.Stack
		v.metadata = msg.Metadata
	}
	return v, nil
}

// Stack returns the loaded layer stack.
func (v *View) Stack() []domain.PrimSpecRef {
	return v.stack
}

// SetDimensions sets the pane size, excluding its border.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
}

// View renders the prim stack.
func (v *View) View() string {
	lines := []string{v.styles.Title.Render("Layer Stack")}
	if v.err != nil {
		lines = append(lines, v.styles.Error.Render(fmt.Sprintf("Error: %v", v.err)))
		return strings.Join(lines, "\n")
	}
	if v.path == "" {
		return strings.Join(append(lines, v.styles.Muted.Render("(no prim selected)")), "\n")
	}

	for _, ref := range v.stack {
		spec := string(ref.Specifier)
		if ref.TypeName != "" {
			spec += " " + ref.TypeName
		}
		lines = append(lines, fmt.Sprintf("%s %s %s",
			v.styles.LayerTag(ref.Layer.DisplayName, ref.Layer.Color),
			v.styles.Muted.Render(ref.Layer.Arc.String()),
			v.styles.Normal.Render(spec)))
	}

	if len(v.metadata) > 0 {
		lines = append(lines, "", v.styles.Title.Render("Metadata"))
		for _, m := range v.metadata {
			lines = append(lines, v.styles.Normal.Render(m.Key+" = ")+v.styles.Muted.Render(m.Value.String()))
		}
	}

	if v.height > 0 && len(lines) > v.height {
		lines = append(lines[:v.height-1], v.styles.Muted.Render("..."))
	}
	return strings.Join(lines, "\n")
}
