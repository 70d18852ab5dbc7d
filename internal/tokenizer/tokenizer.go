// Package tokenizer splits plain text fields into the token sequence the
// annotation engine indexes. It is a simple word/punctuation splitter for
// loading units from raw text; it does no linguistic analysis.
package tokenizer

import (
	"strings"
	"unicode"

	"github.com/custodia-labs/annotator/internal/core/domain"
)

// Field is a named text field of a unit.
type Field = domain.TextField

// Tokenizer turns fields into tokens.
type Tokenizer struct {
	contextFields map[string]bool
}

// Option configures the tokenizer.
type Option func(*Tokenizer)

// WithContextFields marks tokens of the named fields as context (not codable).
func WithContextFields(names ...string) Option {
	return func(t *Tokenizer) {
		for _, n := range names {
			t.contextFields[n] = true
		}
	}
}

// New creates a tokenizer with the given options.
func New(opts ...Option) *Tokenizer {
	t := &Tokenizer{contextFields: make(map[string]bool)}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Tokenize splits the fields in order into one flat token sequence.
// Offsets and lengths count runes within each field.
func (t *Tokenizer) Tokenize(fields []Field) []domain.Token {
	var tokens []domain.Token
	paragraph, sentence := 0, 0

	for _, f := range fields {
		runes := []rune(f.Value)
		var pre strings.Builder
		first := len(tokens)

		i := 0
		for i < len(runes) && unicode.IsSpace(runes[i]) {
			pre.WriteRune(runes[i])
			i++
		}

		for i < len(runes) {
			start := i
			if isWordRune(runes[i]) {
				for i < len(runes) && (isWordRune(runes[i]) || isJoiner(runes, i)) {
					i++
				}
			} else {
				i++
			}
			text := string(runes[start:i])

			postStart := i
			for i < len(runes) && unicode.IsSpace(runes[i]) {
				i++
			}
			post := string(runes[postStart:i])

			tok := domain.Token{
				Field:     f.Name,
				Offset:    start,
				Length:    postStart - start,
				Index:     len(tokens),
				Text:      text,
				Post:      post,
				Paragraph: paragraph,
				Sentence:  sentence,
				Context:   f.Context || t.contextFields[f.Name],
			}
			if len(tokens) == first {
				tok.Pre = pre.String()
			}
			tokens = append(tokens, tok)

			if isSentenceEnd(text) {
				sentence++
			}
			if strings.Count(post, "\n") >= 2 {
				paragraph++
				sentence++
			}
		}

		// Fields always start a new paragraph.
		if len(tokens) > first {
			paragraph++
			sentence++
		}
	}

	return tokens
}

// Tokenize splits a single field named "text" with default options.
func Tokenize(text string) []domain.Token {
	return New().Tokenize([]Field{{Name: "text", Value: text}})
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r)
}

// isJoiner reports an apostrophe or hyphen between two word runes.
func isJoiner(runes []rune, i int) bool {
	if runes[i] != '\'' && runes[i] != '-' && runes[i] != '’' {
		return false
	}
	return i > 0 && i+1 < len(runes) && isWordRune(runes[i-1]) && isWordRune(runes[i+1])
}

func isSentenceEnd(text string) bool {
	return text == "." || text == "!" || text == "?"
}
