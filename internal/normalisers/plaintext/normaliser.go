package plaintext

import (
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/annotator/internal/core/domain"
	"github.com/custodia-labs/annotator/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles plain text documents.
type Normaliser struct{}

// New creates a new plain text normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// Extensions returns the extensions this normaliser handles.
func (n *Normaliser) Extensions() []string {
	return []string{"", ".txt", ".text"}
}

// Normalise returns the content as the body. Plain text has no title.
// Windows line endings are folded so offsets count one rune per break.
func (n *Normaliser) Normalise(content []byte) (*driven.NormaliseResult, error) {
	if !utf8.Valid(content) {
		return nil, domain.ErrInvalidInput
	}
	text := strings.ReplaceAll(string(content), "\r\n", "\n")
	return &driven.NormaliseResult{Text: strings.TrimSpace(text)}, nil
}
