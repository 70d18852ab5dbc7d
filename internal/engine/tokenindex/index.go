// Package tokenindex maps between character offsets within text fields and
// positions in a unit's flat token sequence.
package tokenindex

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/annotator/internal/core/domain"
)

// fieldRange is the half-open range of token indices belonging to one field.
type fieldRange struct {
	lo, hi int
}

// Index resolves offsets to token indices and back. It is immutable and
// safe to share between library snapshots.
type Index struct {
	tokens []domain.Token
	fields map[string]fieldRange
	order  []string
}

// New builds an index over tokens. Tokens must be ordered by Index, the
// tokens of a field must be contiguous, and offsets must increase within
// a field.
func New(tokens []domain.Token) (*Index, error) {
	ix := &Index{
		tokens: make([]domain.Token, len(tokens)),
		fields: make(map[string]fieldRange),
	}
	copy(ix.tokens, tokens)

	for i, tok := range ix.tokens {
		if tok.Index != i {
			return nil, fmt.Errorf("%w: token %d has index %d", domain.ErrInvalidInput, i, tok.Index)
		}
		r, seen := ix.fields[tok.Field]
		switch {
		case !seen:
			ix.fields[tok.Field] = fieldRange{lo: i, hi: i + 1}
			ix.order = append(ix.order, tok.Field)
		case r.hi != i:
			return nil, fmt.Errorf("%w: field %q is not contiguous at token %d", domain.ErrInvalidInput, tok.Field, i)
		default:
			if tok.Offset < ix.tokens[i-1].End() {
				return nil, fmt.Errorf("%w: token %d overlaps its predecessor", domain.ErrInvalidInput, i)
			}
			r.hi = i + 1
			ix.fields[tok.Field] = r
		}
	}

	return ix, nil
}

// Len returns the number of tokens.
func (ix *Index) Len() int {
	return len(ix.tokens)
}

// Token returns the token at position i.
func (ix *Index) Token(i int) (domain.Token, bool) {
	if i < 0 || i >= len(ix.tokens) {
		return domain.Token{}, false
	}
	return ix.tokens[i], true
}

// Tokens returns a copy of the token sequence.
func (ix *Index) Tokens() []domain.Token {
	out := make([]domain.Token, len(ix.tokens))
	copy(out, ix.tokens)
	return out
}

// Fields returns field names in token order.
func (ix *Index) Fields() []string {
	out := make([]string, len(ix.order))
	copy(out, ix.order)
	return out
}

// Resolve returns the index of the token in field whose text contains
// offset. An offset in the whitespace after a token resolves to that
// token. The trailing separator of the last token of a field counts as
// at least one character.
func (ix *Index) Resolve(field string, offset int) (int, bool) {
	r, ok := ix.fields[field]
	if !ok {
		return 0, false
	}

	// First token starting after offset; the candidate is the one before.
	n := sort.Search(r.hi-r.lo, func(k int) bool {
		return ix.tokens[r.lo+k].Offset > offset
	})
	i := r.lo + n - 1
	if i < r.lo {
		return 0, false
	}

	tok := ix.tokens[i]
	if offset < tok.End() || i+1 < r.hi {
		return i, true
	}

	trailing := utf8.RuneCountInString(tok.Post)
	if trailing < 1 {
		trailing = 1
	}
	if offset < tok.End()+trailing {
		return i, true
	}
	return 0, false
}

// SpanOf converts a character range to the token span it covers. A range
// starting in whitespace begins at the following token.
func (ix *Index) SpanOf(field string, offset, length int) (domain.Span, error) {
	if length <= 0 {
		return domain.Span{}, fmt.Errorf("%w: %s@%d+%d is empty", domain.ErrOffsetResolution, field, offset, length)
	}

	start, ok := ix.Resolve(field, offset)
	if !ok {
		return domain.Span{}, fmt.Errorf("%w: %s@%d", domain.ErrOffsetResolution, field, offset)
	}
	if offset >= ix.tokens[start].End() {
		start++
	}

	end, ok := ix.Resolve(field, offset+length-1)
	if !ok {
		return domain.Span{}, fmt.Errorf("%w: %s@%d", domain.ErrOffsetResolution, field, offset+length-1)
	}
	if end < start {
		return domain.Span{}, fmt.Errorf("%w: %s@%d+%d covers only whitespace", domain.ErrOffsetResolution, field, offset, length)
	}

	return domain.Span{Start: start, End: end}, nil
}

// Locate returns the field and character range of a span. It is the
// inverse of SpanOf for ranges aligned to token boundaries.
func (ix *Index) Locate(span domain.Span) (field string, offset, length int, err error) {
	if err := ix.ValidateSpan(span); err != nil {
		return "", 0, 0, err
	}
	first, last := ix.tokens[span.Start], ix.tokens[span.End]
	return first.Field, first.Offset, last.End() - first.Offset, nil
}

// ValidateSpan checks that span is non-degenerate, in range, within one
// field, and free of context tokens.
func (ix *Index) ValidateSpan(span domain.Span) error {
	if !span.Valid() || span.End >= len(ix.tokens) {
		return fmt.Errorf("%w: %s outside 0..%d", domain.ErrInvalidSpan, span, len(ix.tokens)-1)
	}
	field := ix.tokens[span.Start].Field
	for i := span.Start; i <= span.End; i++ {
		tok := ix.tokens[i]
		if tok.Field != field {
			return fmt.Errorf("%w: %s crosses from field %q to %q", domain.ErrInvalidSpan, span, field, tok.Field)
		}
		if tok.Context {
			return fmt.Errorf("%w: %s includes context token %d", domain.ErrInvalidSpan, span, i)
		}
	}
	return nil
}

// TextOf reconstructs the text covered by span. Separators between tokens
// are kept; the leading separator of the first token and the trailing
// separator of the last are dropped.
func (ix *Index) TextOf(span domain.Span) string {
	if !span.Valid() || span.End >= len(ix.tokens) {
		return ""
	}
	var b strings.Builder
	for i := span.Start; i <= span.End; i++ {
		tok := ix.tokens[i]
		if i > span.Start {
			b.WriteString(tok.Pre)
		}
		b.WriteString(tok.Text)
		if i < span.End {
			b.WriteString(tok.Post)
		}
	}
	return b.String()
}
