// Package tui provides an interactive terminal user interface for usdinspect.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/usdinspect/internal/core/ports/driving"
)

// Ports aggregates the driving ports required by the TUI.
type Ports struct {
	// Stage is the open stage session.
	Stage driving.StageService

	// Settings supplies timeline tuning. Optional; defaults are used without it.
	Settings driving.SettingsService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil {
		return ErrInvalidPorts
	}
	if p.Stage == nil {
		return ErrMissingStageService
	}
	return nil
}
