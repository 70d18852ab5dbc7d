package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// uriScheme is the custom URI scheme for annotator resources.
	uriScheme = "annotator://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "units",
		Name:        "units",
		Description: "List of stored units and their coding status",
		MIMEType:    "application/json",
	}, s.handleUnitsResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "units/{unitId}/annotations",
		Name:        "unit-annotations",
		Description: "Saved annotations of a unit in wire format",
		MIMEType:    "application/json",
	}, s.handleUnitAnnotationsResource)
}

// handleUnitsResource returns the stored units.
func (s *Server) handleUnitsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Unit == nil {
		return jsonResult(req.Params.URI, "[]"), nil
	}

	units, err := s.ports.Unit.List(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("listing units: %w", err)
	}

	type unitInfo struct {
		ID     string `json:"id"`
		JobID  string `json:"job_id,omitempty"`
		Status string `json:"status"`
	}

	infos := make([]unitInfo, len(units))
	for i, u := range units {
		infos[i] = unitInfo{ID: u.ID, JobID: u.JobID, Status: string(u.Status)}
	}

	data, err := json.MarshalIndent(infos, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling units: %w", err)
	}
	return jsonResult(req.Params.URI, string(data)), nil
}

// handleUnitAnnotationsResource returns the saved annotations of a unit.
func (s *Server) handleUnitAnnotationsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Unit == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	unitID := extractUnitID(req.Params.URI)
	if unitID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	unit, err := s.ports.Unit.Get(ctx, unitID)
	if err != nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	data, err := json.MarshalIndent(unit.Annotations, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling annotations: %w", err)
	}
	return jsonResult(req.Params.URI, string(data)), nil
}

func jsonResult(uri, text string) *mcp.ReadResourceResult {
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     text,
		}},
	}
}

// extractUnitID extracts the unit ID from annotator://units/{unitId}/annotations.
func extractUnitID(uri string) string {
	prefix := uriScheme + "units/"
	suffix := "/annotations"

	if len(uri) <= len(prefix)+len(suffix) ||
		!strings.HasPrefix(uri, prefix) || !strings.HasSuffix(uri, suffix) {
		return ""
	}

	id := strings.TrimSuffix(strings.TrimPrefix(uri, prefix), suffix)
	if id == "" || strings.Contains(id, "/") {
		return ""
	}
	return id
}
