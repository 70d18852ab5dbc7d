package driving

import (
	"context"

	"github.com/custodia-labs/annotator/internal/core/domain"
)

// Session describes the unit currently open for coding.
type Session struct {
	// UnitID is the open unit.
	UnitID string

	// Check identifies this load of the unit. Every mutation must pass it
	// back; requests carrying another value are rejected as stale.
	Check string

	// Tokens is the unit's token sequence.
	Tokens []domain.Token

	// Annotations is the current annotation array.
	Annotations []domain.WireAnnotation

	// Answers holds one answer per codebook question.
	Answers []domain.Answer

	// Irrelevant marks the questions currently made irrelevant.
	Irrelevant []bool

	// Status is the unit's coding progress.
	Status domain.UnitStatus

	// Report describes records dropped while loading the unit.
	Report *domain.ImportReport
}

// Progress is the outcome of answering a question.
type Progress struct {
	// Answers holds one answer per codebook question after branching.
	Answers []domain.Answer

	// Irrelevant marks the questions made irrelevant.
	Irrelevant []bool

	// Next is the index of the next relevant question, or nil when the
	// unit is done.
	Next *int

	// Status is the unit's coding progress.
	Status domain.UnitStatus
}

// CodingService is the intent API for coding one unit at a time.
type CodingService interface {
	// Open loads a unit and makes it the active one.
	Open(ctx context.Context, unitID string) (*Session, error)

	// Current returns the active session.
	Current() (*Session, error)

	// CreateSpan codes a token span.
	CreateSpan(ctx context.Context, check, variable, value string, span domain.Span) (domain.Annotation, error)

	// Toggle creates the span annotation, or deletes it when it exists.
	Toggle(ctx context.Context, check, variable, value string, span domain.Span) error

	// CreateRelation connects two span annotations.
	CreateRelation(ctx context.Context, check, variable, value, fromID, toID string) (domain.Annotation, error)

	// CreateField labels the unit, or one field of it.
	CreateField(ctx context.Context, check, variable, value, field string) (domain.Annotation, error)

	// Delete removes an annotation and the relations depending on it.
	Delete(ctx context.Context, check, id string) error

	// Answer stores the answer to a question and applies branching.
	Answer(ctx context.Context, check string, question int, answer domain.Answer) (*Progress, error)

	// Export returns the active unit's annotations in wire format.
	Export(ctx context.Context) ([]domain.WireAnnotation, error)

	// ValidRelations lists the relations that may be created between
	// the annotations at two token positions.
	ValidRelations(ctx context.Context, fromToken, toToken int) ([]domain.RelationOption, error)
}
