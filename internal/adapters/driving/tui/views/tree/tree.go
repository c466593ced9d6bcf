// Package tree provides the stage hierarchy pane for the TUI.
package tree

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/usdinspect/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/usdinspect/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/usdinspect/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/usdinspect/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/usdinspect/internal/core/domain"
	"github.com/custodia-labs/usdinspect/internal/core/ports/driving"
)

// row is one visible line of the flattened tree.
type row struct {
	node  domain.Node
	depth int
}

// View is the lazily expanded prim hierarchy.
type View struct {
	styles *styles.Styles
	keymap *keymap.KeyMap
	stage  driving.StageTree
	ctx    context.Context

	children map[domain.Path][]domain.Node
	expanded map[domain.Path]bool
	loading  map[domain.Path]bool
	rows     []row
	cursor   *list.Cursor

	// restore is the selection to reinstate once a reset reload reaches it.
	restore domain.Path

	err     error
	focused bool
	width   int
	height  int
}

// NewView creates a tree view over stage.
func NewView(s *styles.Styles, km *keymap.KeyMap, stage driving.StageTree) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	return &View{
		styles:   s,
		keymap:   km,
		stage:    stage,
		ctx:      context.Background(),
		children: make(map[domain.Path][]domain.Node),
		expanded: map[domain.Path]bool{domain.RootPath: true},
		loading:  make(map[domain.Path]bool),
		cursor:   list.NewCursor(10),
	}
}

// WithContext sets the context used for stage queries.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init loads the top-level prims.
func (v *View) Init() tea.Cmd {
	return v.load(domain.RootPath)
}

// Reset forgets every loaded node, keeping which paths were expanded and
// the selection, and reloads from the root. Used after the document is reloaded.
func (v *View) Reset() tea.Cmd {
	if path := v.SelectedPath(); path != "" {
		v.restore = path
	}
	v.children = make(map[domain.Path][]domain.Node)
	v.loading = make(map[domain.Path]bool)
	v.err = nil
	v.rebuild()

	cmds := make([]tea.Cmd, 0, len(v.expanded))
	for path := range v.expanded {
		cmds = append(cmds, v.load(path))
	}
	return tea.Batch(cmds...)
}

// load returns a command that fetches the children of parent and their headers.
func (v *View) load(parent domain.Path) tea.Cmd {
	if v.stage == nil {
		return func() tea.Msg {
			return messages.ChildrenLoaded{Parent: parent, Err: fmt.Errorf("stage not available")}
		}
	}
	v.loading[parent] = true
	ctx := v.ctx
	stage := v.stage
	return func() tea.Msg {
		paths, err := stage.ChildrenOf(ctx, parent)
		if err != nil {
			return messages.ChildrenLoaded{Parent: parent, Err: err}
		}
		nodes := make([]domain.Node, 0, len(paths))
		for _, p := range paths {
			node, err := stage.Node(ctx, p)
			if err != nil {
				return messages.ChildrenLoaded{Parent: parent, Err: err}
			}
			nodes = append(nodes, node)
		}
		return messages.ChildrenLoaded{Parent: parent, Children: nodes}
	}
}

// Update handles messages for the tree view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case messages.ChildrenLoaded:
		return v, v.handleLoaded(msg)
	case tea.KeyMsg:
		return v, v.handleKey(msg)
	}
	return v, nil
}

func (v *View) handleLoaded(msg messages.ChildrenLoaded) tea.Cmd {
	delete(v.loading, msg.Parent)
	want := v.SelectedPath()
	if v.restore != "" {
		want = v.restore
	}

	switch {
	case errors.Is(msg.Err, domain.ErrNodeNotFound) && !msg.Parent.IsRoot():
		// Expanded prim vanished in a reload.
		delete(v.expanded, msg.Parent)
	case msg.Err != nil:
		v.err = msg.Err
		return nil
	default:
		v.err = nil
		v.children[msg.Parent] = msg.Children
	}
	v.rebuild()

	if v.selectPath(want) {
		v.restore = ""
		return nil
	}
	if v.restore != "" && len(v.loading) > 0 {
		return nil
	}
	v.restore = ""
	return selected(v.SelectedPath())
}

func (v *View) handleKey(msg tea.KeyMsg) tea.Cmd {
	key := msg.String()
	switch {
	case keymap.Matches(key, v.keymap.Up):
		if v.cursor.MoveUp() {
			return selected(v.SelectedPath())
		}
	case keymap.Matches(key, v.keymap.Down):
		if v.cursor.MoveDown() {
			return selected(v.SelectedPath())
		}
	case keymap.Matches(key, v.keymap.Expand):
		return v.expand()
	case keymap.Matches(key, v.keymap.Collapse):
		return v.collapse()
	}
	return nil
}

func (v *View) expand() tea.Cmd {
	r, ok := v.current()
	if !ok || v.expanded[r.node.Path] {
		return nil
	}
	v.expanded[r.node.Path] = true
	if _, loaded := v.children[r.node.Path]; loaded {
		v.rebuild()
		return nil
	}
	return v.load(r.node.Path)
}

func (v *View) collapse() tea.Cmd {
	r, ok := v.current()
	if !ok {
		return nil
	}
	if v.expanded[r.node.Path] {
		delete(v.expanded, r.node.Path)
		v.rebuild()
		return nil
	}
	parent := r.node.Path.Parent()
	if parent.IsRoot() {
		return nil
	}
	v.selectPath(parent)
	return selected(parent)
}

// rebuild flattens the expanded hierarchy into rows.
func (v *View) rebuild() {
	v.rows = v.rows[:0]
	var walk func(parent domain.Path, depth int)
	walk = func(parent domain.Path, depth int) {
		for _, child := range v.children[parent] {
			v.rows = append(v.rows, row{node: child, depth: depth})
			if v.expanded[child.Path] {
				walk(child.Path, depth+1)
			}
		}
	}
	walk(domain.RootPath, 0)
	v.cursor.SetCount(len(v.rows))
}

func (v *View) selectPath(path domain.Path) bool {
	if path == "" {
		return false
	}
	for i, r := range v.rows {
		if r.node.Path == path {
			v.cursor.SetSelected(i)
			return true
		}
	}
	return false
}

func (v *View) current() (row, bool) {
	if len(v.rows) == 0 {
		return row{}, false
	}
	return v.rows[v.cursor.Selected()], true
}

// SelectedPath returns the path under the cursor, or empty when the tree is empty.
func (v *View) SelectedPath() domain.Path {
	r, ok := v.current()
	if !ok {
		return ""
	}
	return r.node.Path
}

// Err returns the last load error.
func (v *View) Err() error {
	return v.err
}

func selected(path domain.Path) tea.Cmd {
	if path == "" {
		return nil
	}
	return func() tea.Msg {
		return messages.PrimSelected{Path: path}
	}
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

// View renders the tree view.
func (v *View) View() string {
	var b strings.Builder
	b.WriteString(v.styles.Title.Render("Stage"))

	if v.err != nil {
		b.WriteString("\n" + v.styles.Error.Render(fmt.Sprintf("Error: %v", v.err)))
	}
	if len(v.rows) == 0 {
		if v.loading[domain.RootPath] {
			b.WriteString("\n" + v.styles.Muted.Render("Loading..."))
		} else if v.err == nil {
			b.WriteString("\n" + v.styles.Muted.Render("(empty stage)"))
		}
		return b.String()
	}

	start, end := v.cursor.Visible()
	for i := start; i < end; i++ {
		b.WriteString("\n" + v.renderRow(i, v.rows[i]))
	}
	return b.String()
}

func (v *View) renderRow(i int, r row) string {
	marker := "▸"
	switch {
	case v.loading[r.node.Path]:
		marker = "…"
	case v.expanded[r.node.Path] && len(v.children[r.node.Path]) == 0:
		marker = "·"
	case v.expanded[r.node.Path]:
		marker = "▾"
	}

	label := r.node.Name()
	if r.node.Specifier != domain.SpecifierDef {
		label += " [" + string(r.node.Specifier) + "]"
	}
	line := strings.Repeat("  ", r.depth) + marker + " " + label
	typeName := ""
	if r.node.TypeName != "" {
		typeName = " " + r.node.TypeName
	}
	line = truncate(line, v.width-len(typeName))

	if i != v.cursor.Selected() {
		return v.styles.Normal.Render(line) + v.styles.Muted.Render(typeName)
	}
	if v.focused {
		return v.styles.Selected.Render(line + typeName)
	}
	return v.styles.Cursor.Render(line) + v.styles.Muted.Render(typeName)
}

func truncate(s string, maxLen int) string {
	if maxLen < 4 || len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
