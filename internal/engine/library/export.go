package library

import (
	"sort"

	"github.com/custodia-labs/annotator/internal/core/domain"
)

// Export returns the annotations as wire records. Span annotations come
// first in token order, each emitted only at its first token; relations
// and field annotations follow in creation order.
func (l *Library) Export() []domain.WireAnnotation {
	out := make([]domain.WireAnnotation, 0, len(l.annotations))

	positions := make([]int, 0, len(l.byToken))
	for i := range l.byToken {
		positions = append(positions, i)
	}
	sort.Ints(positions)

	for _, i := range positions {
		for _, id := range l.byToken[i] {
			a := l.annotations[id]
			if a.Type != domain.AnnotationSpan || a.Span.Start != i {
				continue
			}
			out = append(out, l.spanRecord(a))
		}
	}

	var rest []string
	for id, a := range l.annotations {
		if a.Type != domain.AnnotationSpan {
			rest = append(rest, id)
		}
	}
	l.sortBySeq(rest)

	for _, id := range rest {
		a := l.annotations[id]
		if a.Type == domain.AnnotationRelation {
			out = append(out, l.relationRecord(a))
		}
	}
	for _, id := range rest {
		a := l.annotations[id]
		if a.Type == domain.AnnotationField {
			out = append(out, domain.WireAnnotation{
				ID:       a.ID,
				Type:     domain.AnnotationField,
				Variable: a.Variable,
				Value:    a.Value,
				Color:    a.Color,
				Field:    a.Field,
			})
		}
	}

	return out
}

func (l *Library) spanRecord(a domain.Annotation) domain.WireAnnotation {
	return domain.WireAnnotation{
		ID:       a.ID,
		Type:     domain.AnnotationSpan,
		Variable: a.Variable,
		Value:    a.Value,
		Color:    a.Color,
		Field:    a.Field,
		Offset:   domain.IntPtr(a.Offset),
		Length:   domain.IntPtr(a.Length),
		Text:     a.Text,
	}
}

func (l *Library) relationRecord(a domain.Annotation) domain.WireAnnotation {
	return domain.WireAnnotation{
		ID:       a.ID,
		Type:     domain.AnnotationRelation,
		Variable: a.Variable,
		Value:    a.Value,
		Color:    a.Color,
		FromID:   a.FromID,
		ToID:     a.ToID,
		From:     l.endpoint(a.FromID),
		To:       l.endpoint(a.ToID),
	}
}

func (l *Library) endpoint(id string) *domain.WireEndpoint {
	a, ok := l.annotations[id]
	if !ok {
		return nil
	}
	ep := &domain.WireEndpoint{Variable: a.Variable, Value: a.Value}
	if a.Type == domain.AnnotationSpan {
		ep.Field = a.Field
		ep.Offset = a.Offset
		ep.Length = a.Length
	}
	return ep
}
