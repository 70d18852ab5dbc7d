// Package answers maps between question answers and the annotations that
// store them.
//
// An item of question "q" is stored under variable "q" when it is unnamed
// and "q.item" otherwise. A question with a target only reads and writes
// annotations at that target; without one it owns every annotation of its
// variables. Span targets are compared by character range, so they must
// be snapped to token boundaries with NormalizeTargets first.
package answers

import (
	"slices"

	"github.com/custodia-labs/annotator/internal/core/domain"
	"github.com/custodia-labs/annotator/internal/engine/tokenindex"
)

// NormalizeTargets returns a copy of questions whose span targets cover
// exactly the characters of the tokens they resolve to, the way exported
// span records do. A target that runs into the trailing separator is
// shortened. Targets that resolve to no token are kept as given; answers
// to them fail when they are stored.
func NormalizeTargets(questions []domain.Question, ix *tokenindex.Index) []domain.Question {
	out := slices.Clone(questions)
	for i, q := range out {
		t := q.Target
		if t == nil || t.Offset == nil || t.Length == nil {
			continue
		}
		span, err := ix.SpanOf(t.Field, *t.Offset, *t.Length)
		if err != nil {
			continue
		}
		field, offset, length, err := ix.Locate(span)
		if err != nil {
			continue
		}
		out[i].Target = &domain.AnnotationTarget{
			Field:  field,
			Offset: domain.IntPtr(offset),
			Length: domain.IntPtr(length),
		}
	}
	return out
}

// Blank returns an answer to q with no values.
func Blank(q domain.Question) domain.Answer {
	a := domain.Answer{Variable: q.Name}
	for _, item := range q.ItemNames() {
		a.Items = append(a.Items, domain.AnswerItem{Item: item.Name, Optional: item.Optional})
	}
	if q.Target != nil {
		a.Field = q.Target.Field
		a.Offset = q.Target.Offset
		a.Length = q.Target.Length
	}
	return a
}

// FromAnnotations returns one answer per question, collecting the values
// of the matching records in record order.
func FromAnnotations(questions []domain.Question, records []domain.WireAnnotation) []domain.Answer {
	out := make([]domain.Answer, len(questions))
	for i, q := range questions {
		a := Blank(q)
		for k := range a.Items {
			item := &a.Items[k]
			variable := domain.ItemVariable(q.Name, item.Item)
			for _, r := range records {
				if r.Variable == variable && matchesTarget(r, a) && !slices.Contains(item.Values, r.Value) {
					item.Values = append(item.Values, r.Value)
				}
			}
		}
		out[i] = a
	}
	return out
}

// ToAnnotations returns records updated to hold exactly the answer's
// values: records of an answered item whose value is no longer selected
// are removed and missing values are appended as new records without an
// id. Applying the same answer twice gives the same records.
func ToAnnotations(answer domain.Answer, records []domain.WireAnnotation) []domain.WireAnnotation {
	selected := make(map[string]map[string]bool, len(answer.Items))
	for _, item := range answer.Items {
		variable := domain.ItemVariable(answer.Variable, item.Item)
		set := make(map[string]bool, len(item.Values))
		for _, v := range item.Values {
			if v != "" {
				set[v] = true
			}
		}
		selected[variable] = set
	}

	out := make([]domain.WireAnnotation, 0, len(records))
	present := make(map[string]map[string]bool, len(selected))
	for _, r := range records {
		set, owned := selected[r.Variable]
		if owned && matchesTarget(r, answer) {
			if !set[r.Value] {
				continue
			}
			if present[r.Variable] == nil {
				present[r.Variable] = make(map[string]bool)
			}
			present[r.Variable][r.Value] = true
		}
		out = append(out, r)
	}

	for _, item := range answer.Items {
		variable := domain.ItemVariable(answer.Variable, item.Item)
		for _, v := range item.Values {
			if v == "" || present[variable][v] {
				continue
			}
			if present[variable] == nil {
				present[variable] = make(map[string]bool)
			}
			present[variable][v] = true
			out = append(out, newRecord(answer, variable, v))
		}
	}
	return out
}

func newRecord(answer domain.Answer, variable, value string) domain.WireAnnotation {
	r := domain.WireAnnotation{
		Variable: variable,
		Value:    value,
		Field:    answer.Field,
	}
	if answer.Offset != nil && answer.Length != nil {
		r.Type = domain.AnnotationSpan
		r.Offset = domain.IntPtr(*answer.Offset)
		r.Length = domain.IntPtr(*answer.Length)
		return r
	}
	r.Type = domain.AnnotationField
	return r
}

// matchesTarget reports whether r sits at the answer's target. Answers
// without a target match every position.
func matchesTarget(r domain.WireAnnotation, a domain.Answer) bool {
	if a.Field == "" && a.Offset == nil {
		return true
	}
	if r.Field != a.Field {
		return false
	}
	if a.Offset == nil {
		return r.Offset == nil
	}
	return r.Offset != nil && *r.Offset == *a.Offset &&
		r.Length != nil && a.Length != nil && *r.Length == *a.Length
}
