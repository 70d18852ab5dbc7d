package driving

import (
	"context"

	"github.com/custodia-labs/annotator/internal/core/domain"
)

// UnitService manages the units available for coding.
type UnitService interface {
	// Create tokenises fields into a new unit, imports records into it
	// and saves it. Records that cannot be placed are left out and
	// listed in the report.
	Create(ctx context.Context, id, jobID string, fields []domain.TextField, records []domain.WireAnnotation) (*domain.Unit, *domain.ImportReport, error)

	// CreateFromDocument normalises a document file (plain text,
	// markdown or HTML, chosen by name's extension) into a new unit.
	CreateFromDocument(ctx context.Context, id, jobID, name string, content []byte) (*domain.Unit, *domain.ImportReport, error)

	// Get retrieves a unit by ID.
	Get(ctx context.Context, id string) (*domain.Unit, error)

	// List returns the units of a job, or all units when jobID is empty.
	List(ctx context.Context, jobID string) ([]domain.Unit, error)

	// Delete removes a unit.
	Delete(ctx context.Context, id string) error
}
