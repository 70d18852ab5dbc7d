package library

import (
	"fmt"

	"github.com/custodia-labs/annotator/internal/core/domain"
	"github.com/custodia-labs/annotator/internal/engine/tokenindex"
	"github.com/custodia-labs/annotator/internal/logger"
)

// Import builds a library from wire records. Records that cannot be
// placed are dropped and listed in the report; the import itself never
// fails.
func Import(records []domain.WireAnnotation, tokens *tokenindex.Index, opts ...Option) (*Library, *domain.ImportReport) {
	txn := Empty(tokens, opts...).Begin()
	report := txn.Add(records)
	return txn.Commit(), report
}

// Add stages wire records. Spans and field annotations are placed first,
// then relations, repeatedly, so a relation may point at another relation
// that appears later in records.
func (t *Txn) Add(records []domain.WireAnnotation) *domain.ImportReport {
	report := &domain.ImportReport{}
	ids := make(map[string]string)

	var pending []int
	for i, r := range records {
		if r.Variable == "" || r.Value == "" {
			t.drop(report, i, r, fmt.Errorf("%w: missing variable or value", domain.ErrInvalidInput))
			continue
		}
		switch r.Classify() {
		case domain.AnnotationSpan:
			t.addSpan(report, ids, i, r)
		case domain.AnnotationField:
			t.addField(report, ids, i, r)
		case domain.AnnotationRelation:
			pending = append(pending, i)
		}
	}

	for len(pending) > 0 {
		var next []int
		for _, i := range pending {
			if !t.addRelation(report, ids, records[i]) {
				next = append(next, i)
			}
		}
		if len(next) == len(pending) {
			break
		}
		pending = next
	}
	for _, i := range pending {
		t.drop(report, i, records[i], fmt.Errorf("%w: endpoint not found", domain.ErrInvalidEndpoint))
	}

	return report
}

func (t *Txn) addSpan(report *domain.ImportReport, ids map[string]string, i int, r domain.WireAnnotation) {
	if r.Offset == nil || r.Length == nil {
		t.drop(report, i, r, fmt.Errorf("%w: span without offset or length", domain.ErrInvalidInput))
		return
	}
	span, err := t.l.tokens.SpanOf(r.Field, *r.Offset, *r.Length)
	if err != nil {
		t.drop(report, i, r, err)
		return
	}
	if err := t.l.tokens.ValidateSpan(span); err != nil {
		t.drop(report, i, r, err)
		return
	}

	var emptied []string
	for k := span.Start; k <= span.End; k++ {
		for _, other := range t.SpansAt(k) {
			if other.Variable != r.Variable {
				continue
			}
			switch {
			case other.Value == r.Value && other.Span == span:
				report.Duplicates++
				mapID(ids, r.ID, other.ID)
				return
			case other.IsEmpty() && r.Value != domain.EmptyValue:
				emptied = append(emptied, other.ID)
			default:
				t.drop(report, i, r, fmt.Errorf("%w: overlaps %s (%s=%s)",
					domain.ErrDuplicateAssignment, other.ID, other.Variable, other.Value))
				return
			}
		}
	}
	for _, id := range emptied {
		t.Remove(id)
	}

	a, err := t.NewSpan(t.assignID(ids, r.ID), r.Variable, r.Value, span, r.Color)
	if err != nil {
		t.drop(report, i, r, err)
		return
	}
	if err := t.Insert(a); err != nil {
		t.drop(report, i, r, err)
		return
	}
	t.TouchHistory(a.Variable, a.Value)
	report.Imported++
}

func (t *Txn) addField(report *domain.ImportReport, ids map[string]string, i int, r domain.WireAnnotation) {
	if existing, ok := t.FindField(r.Variable, r.Value, r.Field); ok {
		report.Duplicates++
		mapID(ids, r.ID, existing.ID)
		return
	}
	a := domain.Annotation{
		ID:       t.assignID(ids, r.ID),
		Type:     domain.AnnotationField,
		Variable: r.Variable,
		Value:    r.Value,
		Field:    r.Field,
		Color:    t.l.colorFor(r.Variable, r.Value, r.Color),
	}
	if err := t.Insert(a); err != nil {
		t.drop(report, i, r, err)
		return
	}
	t.TouchHistory(a.Variable, a.Value)
	report.Imported++
}

// addRelation places a relation record and reports whether it is done
// with it. A record whose endpoints are not staged yet is left pending.
func (t *Txn) addRelation(report *domain.ImportReport, ids map[string]string, r domain.WireAnnotation) bool {
	from, ok := t.resolveEndpoint(ids, r.FromID, r.From)
	if !ok {
		return false
	}
	to, ok := t.resolveEndpoint(ids, r.ToID, r.To)
	if !ok {
		return false
	}

	if existing, ok := t.FindRelation(r.Variable, r.Value, from, to); ok {
		report.Duplicates++
		mapID(ids, r.ID, existing.ID)
		return true
	}

	a := domain.Annotation{
		ID:       t.assignID(ids, r.ID),
		Type:     domain.AnnotationRelation,
		Variable: r.Variable,
		Value:    r.Value,
		FromID:   from,
		ToID:     to,
		Color:    t.l.colorFor(r.Variable, r.Value, r.Color),
	}
	if err := t.Insert(a); err != nil {
		return false
	}
	t.TouchHistory(a.Variable, a.Value)
	report.Imported++
	return true
}

// resolveEndpoint finds the staged annotation a relation endpoint refers
// to, by id or by the span annotation's variable, value and position.
func (t *Txn) resolveEndpoint(ids map[string]string, id string, ep *domain.WireEndpoint) (string, bool) {
	if id != "" {
		if mapped, ok := ids[id]; ok {
			id = mapped
		}
		_, ok := t.Get(id)
		return id, ok
	}
	if ep == nil {
		return "", false
	}
	span, err := t.l.tokens.SpanOf(ep.Field, ep.Offset, ep.Length)
	if err != nil {
		return "", false
	}
	for _, a := range t.SpansAt(span.Start) {
		if a.Span == span && a.Variable == ep.Variable && a.Value == ep.Value {
			return a.ID, true
		}
	}
	return "", false
}

// NewSpan builds a span annotation with its character-level fields
// derived from the token index.
func (t *Txn) NewSpan(id, variable, value string, span domain.Span, color string) (domain.Annotation, error) {
	field, offset, length, err := t.l.tokens.Locate(span)
	if err != nil {
		return domain.Annotation{}, err
	}
	return domain.Annotation{
		ID:       id,
		Type:     domain.AnnotationSpan,
		Variable: variable,
		Value:    value,
		Color:    t.l.colorFor(variable, value, color),
		Span:     span,
		Field:    field,
		Offset:   offset,
		Length:   length,
		Text:     t.l.tokens.TextOf(span),
	}, nil
}

// FindField returns the field annotation with the given content.
func (t *Txn) FindField(variable, value, field string) (domain.Annotation, bool) {
	return t.l.FindField(variable, value, field)
}

// FindRelation returns the relation with the given content.
func (t *Txn) FindRelation(variable, value, fromID, toID string) (domain.Annotation, bool) {
	return t.l.FindRelation(variable, value, fromID, toID)
}

// FindField returns the field annotation with the given content.
func (l *Library) FindField(variable, value, field string) (domain.Annotation, bool) {
	for _, a := range l.annotations {
		if a.Type == domain.AnnotationField && a.Variable == variable && a.Value == value && a.Field == field {
			return a, true
		}
	}
	return domain.Annotation{}, false
}

// FindRelation returns the relation with the given content.
func (l *Library) FindRelation(variable, value, fromID, toID string) (domain.Annotation, bool) {
	for _, id := range l.referencedBy[fromID] {
		a := l.annotations[id]
		if a.FromID == fromID && a.ToID == toID && a.Variable == variable && a.Value == value {
			return a, true
		}
	}
	return domain.Annotation{}, false
}

// assignID keeps a record's own id when it is free.
func (t *Txn) assignID(ids map[string]string, recordID string) string {
	id := recordID
	if _, used := t.l.annotations[id]; id == "" || used {
		id = t.NewID()
	}
	mapID(ids, recordID, id)
	return id
}

func (t *Txn) drop(report *domain.ImportReport, i int, r domain.WireAnnotation, err error) {
	logger.Warn("dropping annotation %d (%s=%s): %v", i, r.Variable, r.Value, err)
	report.Dropped = append(report.Dropped, domain.RecordError{Index: i, Record: r, Err: err})
}

func mapID(ids map[string]string, from, to string) {
	if from != "" {
		ids[from] = to
	}
}
