package mcp

import (
	"github.com/custodia-labs/annotator/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Coding opens units and applies coding actions.
	Coding driving.CodingService

	// Unit lists and reads stored units.
	Unit driving.UnitService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Coding == nil {
		return ErrMissingCodingService
	}
	// Unit is optional; without it the unit resources are empty.
	return nil
}
