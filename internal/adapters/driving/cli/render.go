package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/annotator/internal/core/domain"
)

var (
	fieldStyle   = lipgloss.NewStyle().Bold(true)
	contextStyle = lipgloss.NewStyle().Faint(true)
)

// renderTokens prints the unit text field by field. With colour set, tokens
// covered by a span annotation get the annotation's colour as background.
func renderTokens(tokens []domain.Token, records []domain.WireAnnotation, colour bool) string {
	var b strings.Builder
	field := ""
	for i, tok := range tokens {
		if i == 0 || tok.Field != field {
			if i > 0 {
				b.WriteString("\n\n")
			}
			field = tok.Field
			b.WriteString(fieldStyle.Render(field + ":"))
			b.WriteString("\n")
		}

		text := tok.Text
		switch {
		case tok.Context:
			text = contextStyle.Render(text)
		case colour:
			if r, ok := coveringSpan(tok, records); ok && r.Color != "" {
				text = lipgloss.NewStyle().
					Background(lipgloss.Color(r.Color)).
					Foreground(lipgloss.Color("#000000")).
					Render(text)
			}
		}
		b.WriteString(tok.Pre)
		b.WriteString(text)
		b.WriteString(tok.Post)
	}
	return strings.TrimRight(b.String(), " \t\n")
}

// coveringSpan returns the first span record overlapping the token.
func coveringSpan(tok domain.Token, records []domain.WireAnnotation) (domain.WireAnnotation, bool) {
	for _, r := range records {
		if r.Classify() != domain.AnnotationSpan || r.Offset == nil || r.Length == nil {
			continue
		}
		if r.Field != tok.Field || r.Value == domain.EmptyValue {
			continue
		}
		start, end := *r.Offset, *r.Offset+*r.Length
		if start < tok.End() && tok.Offset < end {
			return r, true
		}
	}
	return domain.WireAnnotation{}, false
}

// describeRecord is a one-line summary of a wire record.
func describeRecord(r domain.WireAnnotation) string {
	switch r.Classify() {
	case domain.AnnotationSpan:
		offset, length := 0, 0
		if r.Offset != nil {
			offset = *r.Offset
		}
		if r.Length != nil {
			length = *r.Length
		}
		return fmt.Sprintf("span      %s %s=%s %s[%d:%d] %q", r.ID, r.Variable, r.Value, r.Field, offset, offset+length, r.Text)
	case domain.AnnotationRelation:
		return fmt.Sprintf("relation  %s %s=%s %s -> %s", r.ID, r.Variable, r.Value, r.FromID, r.ToID)
	default:
		if r.Field != "" {
			return fmt.Sprintf("field     %s %s=%s (%s)", r.ID, r.Variable, r.Value, r.Field)
		}
		return fmt.Sprintf("field     %s %s=%s", r.ID, r.Variable, r.Value)
	}
}
