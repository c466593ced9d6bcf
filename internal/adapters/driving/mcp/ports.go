package mcp

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/custodia-labs/usdinspect/internal/core/ports/driving"
)

// Ports aggregates the driving ports and collaborators the MCP server uses.
type Ports struct {
	// Stage is the open stage session.
	Stage driving.StageService

	// Metrics is served on /metrics in HTTP mode. Optional.
	Metrics prometheus.Gatherer
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Stage == nil {
		return ErrMissingStageService
	}
	return nil
}
