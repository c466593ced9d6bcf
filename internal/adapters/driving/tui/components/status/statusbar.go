// Package status provides status bar components for the TUI.
package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/usdinspect/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/usdinspect/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/usdinspect/internal/core/domain"
)

// State represents the current application state for display.
type State string

const (
	StateReady     State = "ready"
	StateLoading   State = "loading"
	StateReloading State = "reloading"
	StateError     State = "error"
)

// Bar displays the selected prim, the time code and keybinding hints.
type Bar struct {
	styles  *styles.Styles
	keymap  *keymap.KeyMap
	state   State
	message string
	path    domain.Path
	time    domain.TimeCode
	width   int
}

// NewBar creates a new status bar component.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &Bar{
		styles: s,
		keymap: km,
		state:  StateReady,
		width:  80,
	}
}

// View renders the status bar.
func (s *Bar) View() string {
	left := s.renderLeft()
	right := s.renderRight()

	padding := s.width - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 1 {
		padding = 1
	}

	return s.styles.StatusBar.Width(s.width).Render(
		left + strings.Repeat(" ", padding) + right,
	)
}

func (s *Bar) renderLeft() string {
	where := s.styles.Normal.Render(fmt.Sprintf("%s @ %s", s.path, s.time))
	if s.path == "" {
		where = s.styles.Normal.Render(fmt.Sprintf("@ %s", s.time))
	}

	switch s.state {
	case StateLoading:
		return where + s.styles.Muted.Render("  loading...")
	case StateReloading:
		return where + s.styles.Muted.Render("  reloading...")
	case StateError:
		if s.message != "" {
			return where + "  " + s.styles.Error.Render("Error: "+s.message)
		}
		return where + "  " + s.styles.Error.Render("Error")
	case StateReady:
		if s.message != "" {
			return where + "  " + s.styles.Muted.Render(s.message)
		}
	}
	return where
}

func (s *Bar) renderRight() string {
	bindings := s.keymap.ShortHelp()
	hints := make([]string, 0, len(bindings))
	for _, b := range bindings {
		hints = append(hints, hint(b))
	}
	return s.styles.Muted.Render(strings.Join(hints, " | "))
}

func hint(b key.Binding) string {
	h := b.Help()
	return fmt.Sprintf("%s: %s", h.Key, h.Desc)
}

// SetState sets the current state.
func (s *Bar) SetState(state State) {
	s.state = state
}

// State returns the current state.
func (s *Bar) State() State {
	return s.state
}

// SetMessage sets a custom message.
func (s *Bar) SetMessage(message string) {
	s.message = message
}

// Message returns the current message.
func (s *Bar) Message() string {
	return s.message
}

// SetPosition sets the selected prim and the current time code.
func (s *Bar) SetPosition(path domain.Path, t domain.TimeCode) {
	s.path = path
	s.time = t
}

// SetWidth sets the status bar width.
func (s *Bar) SetWidth(width int) {
	s.width = width
}

// Width returns the current width.
func (s *Bar) Width() int {
	return s.width
}

// Clear resets the status bar to default state.
func (s *Bar) Clear() {
	s.state = StateReady
	s.message = ""
}
