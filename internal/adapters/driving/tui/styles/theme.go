// Package styles provides colour themes and styling for the TUI.
package styles

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme defines the colour palette and styling for the TUI.
type Theme struct {
	// Primary is the main accent colour.
	Primary lipgloss.Color

	// Secondary is the secondary accent colour.
	Secondary lipgloss.Color

	// Foreground is the default text colour.
	Foreground lipgloss.Color

	// Muted is for less important text.
	Muted lipgloss.Color

	// Warning marks held or declared-only values.
	Warning lipgloss.Color

	// Error indicates problems.
	Error lipgloss.Color

	// Border is the border colour of unfocused panes.
	Border lipgloss.Color

	// Bar is the status bar background.
	Bar lipgloss.Color
}

// DefaultTheme returns the default colour theme.
func DefaultTheme() *Theme {
	return &Theme{
		Primary:    lipgloss.Color("#89B4FA"), // Blue
		Secondary:  lipgloss.Color("#94E2D5"), // Teal
		Foreground: lipgloss.Color("#CDD6F4"), // Light gray
		Muted:      lipgloss.Color("#6C7086"), // Medium gray
		Warning:    lipgloss.Color("#F9E2AF"), // Yellow
		Error:      lipgloss.Color("#F38BA8"), // Red
		Border:     lipgloss.Color("#45475A"), // Border gray
		Bar:        lipgloss.Color("#181825"),
	}
}

// Styles contains pre-configured lipgloss styles.
type Styles struct {
	theme *Theme

	// Title style for pane headers.
	Title lipgloss.Style

	// Normal style for regular text.
	Normal lipgloss.Style

	// Muted style for less important text.
	Muted lipgloss.Style

	// Selected style for the cursor row of the focused pane.
	Selected lipgloss.Style

	// Cursor style for the cursor row of an unfocused pane.
	Cursor lipgloss.Style

	// Error style for error messages.
	Error lipgloss.Style

	// Warning style for held or declared-only values.
	Warning lipgloss.Style

	// Banner style for the fatal document banner.
	Banner lipgloss.Style

	// Pane style for unfocused panes.
	Pane lipgloss.Style

	// FocusedPane style for the pane with keyboard focus.
	FocusedPane lipgloss.Style

	// StatusBar style for the status bar.
	StatusBar lipgloss.Style

	// Help style for help text.
	Help lipgloss.Style
}

// NewStyles creates styles from a theme.
func NewStyles(theme *Theme) *Styles {
	if theme == nil {
		theme = DefaultTheme()
	}

	return &Styles{
		theme: theme,

		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.Primary),

		Normal: lipgloss.NewStyle().
			Foreground(theme.Foreground),

		Muted: lipgloss.NewStyle().
			Foreground(theme.Muted),

		Selected: lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.Bar).
			Background(theme.Primary),

		Cursor: lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.Foreground),

		Error: lipgloss.NewStyle().
			Foreground(theme.Error),

		Warning: lipgloss.NewStyle().
			Foreground(theme.Warning),

		Banner: lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.Bar).
			Background(theme.Error).
			Padding(0, 1),

		Pane: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.Border),

		FocusedPane: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.Primary),

		StatusBar: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Background(theme.Bar).
			Padding(0, 1),

		Help: lipgloss.NewStyle().
			Foreground(theme.Muted),
	}
}

// DefaultStyles returns styles with the default theme.
func DefaultStyles() *Styles {
	return NewStyles(DefaultTheme())
}

// Theme returns the theme used by these styles.
func (s *Styles) Theme() *Theme {
	return s.theme
}

// LayerTag renders a layer name in the layer's colour.
func (s *Styles) LayerTag(name, color string) string {
	if color == "" {
		return s.Muted.Render(name)
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render("■ " + name)
}

// PaneFor returns the border style for a pane.
func (s *Styles) PaneFor(focused bool) lipgloss.Style {
	if focused {
		return s.FocusedPane
	}
	return s.Pane
}
