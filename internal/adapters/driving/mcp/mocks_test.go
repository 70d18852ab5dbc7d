package mcp

import (
	"context"

	"github.com/custodia-labs/annotator/internal/core/domain"
	"github.com/custodia-labs/annotator/internal/core/ports/driving"
)

// mockCodingService is a mock implementation of driving.CodingService
// that fails every call with err.
type mockCodingService struct {
	err error
}

func (m *mockCodingService) Open(_ context.Context, _ string) (*driving.Session, error) {
	return nil, m.err
}

func (m *mockCodingService) Current() (*driving.Session, error) {
	return nil, m.err
}

func (m *mockCodingService) CreateSpan(_ context.Context, _, _, _ string, _ domain.Span) (domain.Annotation, error) {
	return domain.Annotation{}, m.err
}

func (m *mockCodingService) Toggle(_ context.Context, _, _, _ string, _ domain.Span) error {
	return m.err
}

func (m *mockCodingService) CreateRelation(_ context.Context, _, _, _, _, _ string) (domain.Annotation, error) {
	return domain.Annotation{}, m.err
}

func (m *mockCodingService) CreateField(_ context.Context, _, _, _, _ string) (domain.Annotation, error) {
	return domain.Annotation{}, m.err
}

func (m *mockCodingService) Delete(_ context.Context, _, _ string) error {
	return m.err
}

func (m *mockCodingService) Answer(_ context.Context, _ string, _ int, _ domain.Answer) (*driving.Progress, error) {
	return nil, m.err
}

func (m *mockCodingService) Export(_ context.Context) ([]domain.WireAnnotation, error) {
	return nil, m.err
}

func (m *mockCodingService) ValidRelations(_ context.Context, _, _ int) ([]domain.RelationOption, error) {
	return nil, m.err
}

// mockUnitService is a mock implementation of driving.UnitService.
type mockUnitService struct {
	units []domain.Unit
	unit  *domain.Unit
	err   error
}

func (m *mockUnitService) Create(
	_ context.Context,
	_, _ string,
	_ []domain.TextField,
	_ []domain.WireAnnotation,
) (*domain.Unit, *domain.ImportReport, error) {
	return m.unit, &domain.ImportReport{}, m.err
}

func (m *mockUnitService) CreateFromDocument(
	_ context.Context,
	_, _, _ string,
	_ []byte,
) (*domain.Unit, *domain.ImportReport, error) {
	return m.unit, &domain.ImportReport{}, m.err
}

func (m *mockUnitService) Get(_ context.Context, _ string) (*domain.Unit, error) {
	return m.unit, m.err
}

func (m *mockUnitService) List(_ context.Context, _ string) ([]domain.Unit, error) {
	return m.units, m.err
}

func (m *mockUnitService) Delete(_ context.Context, _ string) error {
	return m.err
}
