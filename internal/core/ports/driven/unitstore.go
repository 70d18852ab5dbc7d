package driven

import (
	"context"

	"github.com/custodia-labs/annotator/internal/core/domain"
)

// UnitStore persists coding units.
type UnitStore interface {
	// SaveUnit stores or updates a unit.
	SaveUnit(ctx context.Context, unit *domain.Unit) error

	// GetUnit retrieves a unit by ID.
	// Returns domain.ErrNotFound if the unit does not exist.
	GetUnit(ctx context.Context, id string) (*domain.Unit, error)

	// ListUnits returns all units of a job, or every unit when jobID is empty.
	ListUnits(ctx context.Context, jobID string) ([]domain.Unit, error)

	// DeleteUnit removes a unit.
	DeleteUnit(ctx context.Context, id string) error
}

// AnnotationSink receives a unit's annotations after each change. It is
// the persistence and transport collaborator of a coding session.
type AnnotationSink interface {
	// PostAnnotations delivers the full annotation array of a unit.
	PostAnnotations(ctx context.Context, unitID string, records []domain.WireAnnotation, status domain.UnitStatus) error
}
