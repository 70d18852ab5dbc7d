package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/annotator/internal/core/domain"
)

func TestExtractUnitID(t *testing.T) {
	tests := []struct {
		uri      string
		expected string
	}{
		{"annotator://units/u1/annotations", "u1"},
		{"annotator://units/job-7.unit-3/annotations", "job-7.unit-3"},
		{"annotator://units//annotations", ""},
		{"annotator://units/annotations", ""},
		{"annotator://units/a/b/annotations", ""},
		{"annotator://units/u1", ""},
		{"other://units/u1/annotations", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractUnitID(tt.uri))
		})
	}
}

// Helper to create a ReadResourceRequest with the given URI.
func makeReadResourceRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{
			URI: uri,
		},
	}
}

func TestServer_handleUnitsResource(t *testing.T) {
	ctx := context.Background()

	t.Run("nil unit service returns empty list", func(t *testing.T) {
		server, err := NewServer(&Ports{Coding: &mockCodingService{}})
		require.NoError(t, err)

		result, err := server.handleUnitsResource(ctx, makeReadResourceRequest("annotator://units"))
		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "[]", result.Contents[0].Text)
	})

	t.Run("returns units", func(t *testing.T) {
		units := &mockUnitService{units: []domain.Unit{
			{ID: "u1", JobID: "job", Status: domain.UnitStatusDone},
		}}
		server, err := NewServer(&Ports{Coding: &mockCodingService{}, Unit: units})
		require.NoError(t, err)

		result, err := server.handleUnitsResource(ctx, makeReadResourceRequest("annotator://units"))
		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Contains(t, result.Contents[0].Text, `"id": "u1"`)
		assert.Contains(t, result.Contents[0].Text, `"status": "DONE"`)
	})

	t.Run("returns error on list failure", func(t *testing.T) {
		units := &mockUnitService{err: errors.New("database error")}
		server, err := NewServer(&Ports{Coding: &mockCodingService{}, Unit: units})
		require.NoError(t, err)

		_, err = server.handleUnitsResource(ctx, makeReadResourceRequest("annotator://units"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "listing units")
	})
}

func TestServer_handleUnitAnnotationsResource(t *testing.T) {
	ctx := context.Background()

	t.Run("returns annotations", func(t *testing.T) {
		units := &mockUnitService{unit: &domain.Unit{
			ID:          "u1",
			Annotations: []domain.WireAnnotation{{Type: domain.AnnotationField, Variable: "tone", Value: "neutral"}},
		}}
		server, err := NewServer(&Ports{Coding: &mockCodingService{}, Unit: units})
		require.NoError(t, err)

		result, err := server.handleUnitAnnotationsResource(ctx, makeReadResourceRequest("annotator://units/u1/annotations"))
		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Contains(t, result.Contents[0].Text, `"variable": "tone"`)
	})

	t.Run("unknown unit is not found", func(t *testing.T) {
		units := &mockUnitService{err: domain.ErrNotFound}
		server, err := NewServer(&Ports{Coding: &mockCodingService{}, Unit: units})
		require.NoError(t, err)

		_, err = server.handleUnitAnnotationsResource(ctx, makeReadResourceRequest("annotator://units/u9/annotations"))
		assert.Error(t, err)
	})

	t.Run("malformed uri is not found", func(t *testing.T) {
		server, err := NewServer(&Ports{Coding: &mockCodingService{}, Unit: &mockUnitService{}})
		require.NoError(t, err)

		_, err = server.handleUnitAnnotationsResource(ctx, makeReadResourceRequest("annotator://units/u1"))
		assert.Error(t, err)
	})

	t.Run("nil unit service is not found", func(t *testing.T) {
		server, err := NewServer(&Ports{Coding: &mockCodingService{}})
		require.NoError(t, err)

		_, err = server.handleUnitAnnotationsResource(ctx, makeReadResourceRequest("annotator://units/u1/annotations"))
		assert.Error(t, err)
	})
}
