// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/usdinspect/internal/core/domain"
)

// ChildrenLoaded carries the children of an expanded prim.
type ChildrenLoaded struct {
	Parent   domain.Path
	Children []domain.Node
	Err      error
}

// PrimSelected is sent when the tree cursor lands on a prim.
type PrimSelected struct {
	Path domain.Path
}

// PrimLoaded carries a prim's layer stack and composed metadata.
type PrimLoaded struct {
	Path     domain.Path
	Stack    []domain.PrimSpecRef
	Metadata domain.Metadata
	Err      error
}

// RowsLoaded carries the property panel rows of a prim at a time code.
type RowsLoaded struct {
	Path domain.Path
	Time domain.TimeCode
	Rows []domain.PropertyRow
	Err  error
}

// PropertySelected is sent when the property cursor moves.
type PropertySelected struct {
	Row domain.PropertyRow
}

// TimeRangeLoaded carries the stage's authored playback range.
type TimeRangeLoaded struct {
	Range domain.TimeRange
	Err   error
}

// TimeChanged is sent when the timeline settles on a new time code.
type TimeChanged struct {
	Time domain.TimeCode
}

// ScrubFlush fires when a throttled timeline may resample again.
// Seq identifies the scrub it was scheduled for.
type ScrubFlush struct {
	Seq int
}

// ReloadRequested asks the app to reload the stage document.
type ReloadRequested struct{}

// StageReloaded signals a document reload attempt finished, whether it was
// triggered from the keyboard or by a layer file change.
type StageReloaded struct {
	Files []string
	Err   error
}

// SettingsLoaded carries the application settings.
type SettingsLoaded struct {
	Settings *domain.AppSettings
	Err      error
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}

// Pane identifies which pane has keyboard focus.
type Pane int

const (
	// PaneTree is the stage hierarchy.
	PaneTree Pane = iota
	// PaneProperties is the property panel.
	PaneProperties
	// PaneValue is the selected property's value and opinions.
	PaneValue
)

// String returns the string representation of the pane.
func (p Pane) String() string {
	switch p {
	case PaneTree:
		return "tree"
	case PaneProperties:
		return "properties"
	case PaneValue:
		return "value"
	default:
		return "unknown"
	}
}

// Next returns the pane after p, wrapping around.
func (p Pane) Next() Pane {
	return (p + 1) % 3
}

// Prev returns the pane before p, wrapping around.
func (p Pane) Prev() Pane {
	return (p + 2) % 3
}
