package domain

import "fmt"

// Token is the smallest addressable unit of text in a unit.
// Tokens are immutable once a unit is loaded.
type Token struct {
	// Field is the name of the text field the token belongs to.
	Field string `json:"field"`

	// Offset is the character position of Text within Field.
	Offset int `json:"offset"`

	// Length is the number of characters in Text.
	Length int `json:"length"`

	// Index is the position in the flattened, field-ordered token sequence.
	Index int `json:"index"`

	// Text is the token text without separators.
	Text string `json:"text"`

	// Pre is the separator preceding the token (usually whitespace).
	Pre string `json:"pre,omitempty"`

	// Post is the separator following the token.
	Post string `json:"post,omitempty"`

	// Paragraph and Sentence are layout metadata, not used by the engine.
	Paragraph int `json:"paragraph,omitempty"`
	Sentence  int `json:"sentence,omitempty"`

	// Context marks tokens that are shown but cannot be coded.
	Context bool `json:"context,omitempty"`
}

// End returns the character position one past the token text.
func (t Token) End() int {
	return t.Offset + t.Length
}

// Span is a closed interval [Start, End] of token indices.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// NewSpan returns a span covering a and b in either order.
func NewSpan(a, b int) Span {
	if a > b {
		a, b = b, a
	}
	return Span{Start: a, End: b}
}

// Valid reports whether the span is non-degenerate.
func (s Span) Valid() bool {
	return s.Start >= 0 && s.Start <= s.End
}

// Contains reports whether index i lies within the span.
func (s Span) Contains(i int) bool {
	return i >= s.Start && i <= s.End
}

// Overlaps reports whether two spans share at least one token.
func (s Span) Overlaps(o Span) bool {
	return s.Start <= o.End && o.Start <= s.End
}

// Covers reports whether s fully contains o.
func (s Span) Covers(o Span) bool {
	return s.Start <= o.Start && o.End <= s.End
}

// Len returns the number of tokens in the span.
func (s Span) Len() int {
	return s.End - s.Start + 1
}

// String returns the span as "[start,end]".
func (s Span) String() string {
	return fmt.Sprintf("[%d,%d]", s.Start, s.End)
}
