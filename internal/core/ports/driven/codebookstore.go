package driven

import (
	"context"

	"github.com/custodia-labs/annotator/internal/core/domain"
)

// CodebookStore loads the codebook used for coding.
type CodebookStore interface {
	// Load reads the codebook.
	Load(ctx context.Context) (*domain.Codebook, error)
}
