package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/annotator/internal/core/domain"
	"github.com/custodia-labs/annotator/internal/core/ports/driven"
)

// Ensure CodebookStore implements the interface.
var _ driven.CodebookStore = (*CodebookStore)(nil)

// CodebookStore serves a codebook held in memory.
type CodebookStore struct {
	mu       sync.RWMutex
	codebook *domain.Codebook
}

// NewCodebookStore creates a store serving codebook. A nil codebook is
// served as an empty one.
func NewCodebookStore(codebook *domain.Codebook) *CodebookStore {
	if codebook == nil {
		codebook = &domain.Codebook{}
	}
	return &CodebookStore{codebook: codebook}
}

// Load returns the codebook.
func (s *CodebookStore) Load(_ context.Context) (*domain.Codebook, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.codebook, nil
}

// Set replaces the codebook.
func (s *CodebookStore) Set(codebook *domain.Codebook) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codebook = codebook
}
