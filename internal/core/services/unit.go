package services

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/custodia-labs/annotator/internal/core/domain"
	"github.com/custodia-labs/annotator/internal/core/ports/driven"
	"github.com/custodia-labs/annotator/internal/core/ports/driving"
	"github.com/custodia-labs/annotator/internal/engine/library"
	"github.com/custodia-labs/annotator/internal/engine/tokenindex"
	"github.com/custodia-labs/annotator/internal/tokenizer"
)

// Ensure UnitService implements the interface.
var _ driving.UnitService = (*UnitService)(nil)

// Field names given to the parts of a normalised document.
const (
	TitleField = "title"
	TextField  = "text"
)

// UnitService manages the units available for coding.
type UnitService struct {
	unitStore   driven.UnitStore
	tokenizer   *tokenizer.Tokenizer
	normalisers map[string]driven.Normaliser
}

// UnitOption configures a UnitService.
type UnitOption func(*UnitService)

// WithNormalisers registers the normalisers used by CreateFromDocument,
// keyed by their extensions. Later normalisers win on conflicts.
func WithNormalisers(normalisers ...driven.Normaliser) UnitOption {
	return func(s *UnitService) {
		for _, n := range normalisers {
			for _, ext := range n.Extensions() {
				s.normalisers[strings.ToLower(ext)] = n
			}
		}
	}
}

// NewUnitService creates a new unit service.
func NewUnitService(unitStore driven.UnitStore, opts ...UnitOption) *UnitService {
	s := &UnitService{
		unitStore:   unitStore,
		tokenizer:   tokenizer.New(),
		normalisers: make(map[string]driven.Normaliser),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create tokenises fields into a new unit, imports records into it and
// saves it. Records that cannot be placed are left out of the saved unit
// and listed in the report.
func (s *UnitService) Create(
	ctx context.Context,
	id, jobID string,
	fields []domain.TextField,
	records []domain.WireAnnotation,
) (*domain.Unit, *domain.ImportReport, error) {
	if id == "" {
		return nil, nil, fmt.Errorf("%w: unit id is required", domain.ErrInvalidInput)
	}
	if len(fields) == 0 {
		return nil, nil, fmt.Errorf("%w: unit %s has no text fields", domain.ErrInvalidInput, id)
	}

	tokens := s.tokenizer.Tokenize(fields)
	index, err := tokenindex.New(tokens)
	if err != nil {
		return nil, nil, fmt.Errorf("indexing tokens: %w", err)
	}

	lib, report := library.Import(records, index, library.WithUnit(id, ""))

	unit := &domain.Unit{
		ID:          id,
		JobID:       jobID,
		Tokens:      tokens,
		Annotations: lib.Export(),
		Status:      domain.UnitStatusInProgress,
		UpdatedAt:   time.Now().UTC(),
	}
	if err := s.unitStore.SaveUnit(ctx, unit); err != nil {
		return nil, report, fmt.Errorf("saving unit: %w", err)
	}
	return unit, report, nil
}

// CreateFromDocument normalises a document file into a unit with a
// "text" field and, when the document has a title, a "title" context
// field. The unit id defaults to the file name without its extension.
func (s *UnitService) CreateFromDocument(
	ctx context.Context,
	id, jobID, name string,
	content []byte,
) (*domain.Unit, *domain.ImportReport, error) {
	ext := strings.ToLower(filepath.Ext(name))
	n, ok := s.normalisers[ext]
	if !ok {
		return nil, nil, fmt.Errorf("%w: no normaliser for %q files", domain.ErrUnsupportedType, ext)
	}
	doc, err := n.Normalise(content)
	if err != nil {
		return nil, nil, fmt.Errorf("normalising %s: %w", name, err)
	}
	if doc.Text == "" {
		return nil, nil, fmt.Errorf("%w: %s has no text", domain.ErrInvalidInput, name)
	}

	if id == "" {
		id = strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	}
	var fields []domain.TextField
	if doc.Title != "" {
		fields = append(fields, domain.TextField{Name: TitleField, Value: doc.Title, Context: true})
	}
	fields = append(fields, domain.TextField{Name: TextField, Value: doc.Text})
	return s.Create(ctx, id, jobID, fields, nil)
}

// Get retrieves a unit by ID.
func (s *UnitService) Get(ctx context.Context, id string) (*domain.Unit, error) {
	if id == "" {
		return nil, domain.ErrInvalidInput
	}
	return s.unitStore.GetUnit(ctx, id)
}

// List returns the units of a job, or all units when jobID is empty.
func (s *UnitService) List(ctx context.Context, jobID string) ([]domain.Unit, error) {
	return s.unitStore.ListUnits(ctx, jobID)
}

// Delete removes a unit.
func (s *UnitService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return domain.ErrInvalidInput
	}
	if _, err := s.unitStore.GetUnit(ctx, id); err != nil {
		return err
	}
	return s.unitStore.DeleteUnit(ctx, id)
}
