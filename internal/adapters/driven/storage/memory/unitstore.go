package memory

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/annotator/internal/core/domain"
	"github.com/custodia-labs/annotator/internal/core/ports/driven"
)

// Ensure UnitStore implements the interfaces.
var (
	_ driven.UnitStore      = (*UnitStore)(nil)
	_ driven.AnnotationSink = (*UnitStore)(nil)
)

// UnitStore is an in-memory implementation of driven.UnitStore. It also
// acts as the annotation sink, writing posted annotations back to the unit.
type UnitStore struct {
	mu    sync.RWMutex
	units map[string]domain.Unit
	now   func() time.Time
}

// NewUnitStore creates a new in-memory unit store.
func NewUnitStore() *UnitStore {
	return &UnitStore{
		units: make(map[string]domain.Unit),
		now:   time.Now,
	}
}

// SaveUnit stores or updates a unit.
func (s *UnitStore) SaveUnit(_ context.Context, unit *domain.Unit) error {
	if unit == nil || unit.ID == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.units[unit.ID] = cloneUnit(*unit)
	return nil
}

// GetUnit retrieves a unit by ID.
func (s *UnitStore) GetUnit(_ context.Context, id string) (*domain.Unit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	unit, ok := s.units[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	unit = cloneUnit(unit)
	return &unit, nil
}

// ListUnits returns the units of a job ordered by ID.
func (s *UnitStore) ListUnits(_ context.Context, jobID string) ([]domain.Unit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []domain.Unit
	for _, unit := range s.units {
		if jobID == "" || unit.JobID == jobID {
			result = append(result, cloneUnit(unit))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// DeleteUnit removes a unit.
func (s *UnitStore) DeleteUnit(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.units, id)
	return nil
}

// PostAnnotations replaces a unit's annotations and status.
func (s *UnitStore) PostAnnotations(_ context.Context, unitID string, records []domain.WireAnnotation, status domain.UnitStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	unit, ok := s.units[unitID]
	if !ok {
		return domain.ErrNotFound
	}
	unit.Annotations = slices.Clone(records)
	unit.Status = status
	unit.UpdatedAt = s.now()
	s.units[unitID] = unit
	return nil
}

func cloneUnit(u domain.Unit) domain.Unit {
	u.Tokens = slices.Clone(u.Tokens)
	u.Annotations = slices.Clone(u.Annotations)
	return u
}
