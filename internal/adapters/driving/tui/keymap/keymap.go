// Package keymap defines keybindings for the TUI.
package keymap

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines all keybindings for the TUI.
type KeyMap struct {
	// Quit exits the application.
	Quit key.Binding

	// Help toggles the full key reference.
	Help key.Binding

	// Up navigates up in a list.
	Up key.Binding

	// Down navigates down in a list.
	Down key.Binding

	// Expand opens the prim under the cursor.
	Expand key.Binding

	// Collapse closes the prim under the cursor, or moves to its parent.
	Collapse key.Binding

	// NextPane moves focus to the next pane.
	NextPane key.Binding

	// PrevPane moves focus to the previous pane.
	PrevPane key.Binding

	// TimeForward steps the timeline forward.
	TimeForward key.Binding

	// TimeBack steps the timeline back.
	TimeBack key.Binding

	// TimeStart jumps to the start of the time range.
	TimeStart key.Binding

	// TimeEnd jumps to the end of the time range.
	TimeEnd key.Binding

	// Reload reopens the stage document.
	Reload key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Expand: key.NewBinding(
			key.WithKeys("right", "l", "enter"),
			key.WithHelp("→/l", "expand"),
		),
		Collapse: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/h", "collapse"),
		),
		NextPane: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next pane"),
		),
		PrevPane: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "prev pane"),
		),
		TimeForward: key.NewBinding(
			key.WithKeys("]", "."),
			key.WithHelp("]", "time +"),
		),
		TimeBack: key.NewBinding(
			key.WithKeys("[", ","),
			key.WithHelp("[", "time -"),
		),
		TimeStart: key.NewBinding(
			key.WithKeys("home", "{"),
			key.WithHelp("{", "start"),
		),
		TimeEnd: key.NewBinding(
			key.WithKeys("end", "}"),
			key.WithHelp("}", "end"),
		),
		Reload: key.NewBinding(
			key.WithKeys("r", "ctrl+r"),
			key.WithHelp("r", "reload"),
		),
	}
}

// ShortHelp returns a short list of keybindings for the status bar.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.NextPane, k.TimeBack, k.TimeForward, k.Reload, k.Help, k.Quit}
}

// FullHelp returns the full list of keybindings for the help view.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Expand, k.Collapse},
		{k.NextPane, k.PrevPane},
		{k.TimeBack, k.TimeForward, k.TimeStart, k.TimeEnd},
		{k.Reload, k.Help, k.Quit},
	}
}

// Matches checks if a key string matches a binding.
func Matches(keyStr string, binding key.Binding) bool {
	for _, k := range binding.Keys() {
		if k == keyStr {
			return true
		}
	}
	return false
}
