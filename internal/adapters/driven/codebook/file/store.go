// Package file loads codebooks from TOML or JSON files and reloads them
// when the file changes.
package file

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/annotator/internal/core/domain"
	"github.com/custodia-labs/annotator/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.CodebookStore = (*Store)(nil)

// Store is a CodebookStore reading a single file. The decoded codebook is
// cached until Reload is called.
type Store struct {
	path string

	mu     sync.RWMutex
	cached *domain.Codebook
}

// NewStore creates a store for the codebook at path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the codebook file path.
func (s *Store) Path() string {
	return s.path
}

// Load returns the codebook, reading the file on first use.
func (s *Store) Load(ctx context.Context) (*domain.Codebook, error) {
	s.mu.RLock()
	cached := s.cached
	s.mu.RUnlock()
	if cached != nil {
		return cached, nil
	}
	return s.Reload(ctx)
}

// Reload reads the file again and replaces the cached codebook. On
// failure the previous codebook stays cached.
func (s *Store) Reload(ctx context.Context) (*domain.Codebook, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read codebook: %w", err)
	}
	cb, err := Decode(data, filepath.Ext(s.path))
	if err != nil {
		return nil, fmt.Errorf("codebook %s: %w", s.path, err)
	}
	if err := cb.Validate(); err != nil {
		return nil, fmt.Errorf("codebook %s: %w", s.path, err)
	}

	s.mu.Lock()
	s.cached = cb
	s.mu.Unlock()
	return cb, nil
}

// Decode parses a codebook. ext selects the format (".toml" or ".json");
// when it is empty the format is guessed from the content.
func Decode(data []byte, ext string) (*domain.Codebook, error) {
	format := strings.ToLower(strings.TrimPrefix(ext, "."))
	if format == "" {
		format = "toml"
		if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '{' {
			format = "json"
		}
	}

	var cb domain.Codebook
	switch format {
	case "toml":
		if err := toml.Unmarshal(data, &cb); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
		}
	case "json":
		if err := json.Unmarshal(data, &cb); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
		}
	default:
		return nil, fmt.Errorf("%w: codebook format %q", domain.ErrUnsupportedType, format)
	}
	return &cb, nil
}
