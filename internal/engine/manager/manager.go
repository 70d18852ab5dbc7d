// Package manager is the sole mutator of an annotation library. Every
// operation stages its edits in a library transaction and publishes a new
// snapshot only when the whole edit succeeded.
package manager

import (
	"fmt"
	"sync"

	"github.com/custodia-labs/annotator/internal/core/domain"
	"github.com/custodia-labs/annotator/internal/engine/library"
	"github.com/custodia-labs/annotator/internal/logger"
)

// Change describes the outcome of one mutation.
type Change struct {
	// Library is the snapshot after the mutation.
	Library *library.Library

	// Created lists annotations added by the mutation.
	Created []domain.Annotation

	// Removed lists annotations deleted by the mutation, cascades included.
	Removed []domain.Annotation
}

// Changed reports whether the mutation had any effect.
func (c *Change) Changed() bool {
	return len(c.Created) > 0 || len(c.Removed) > 0
}

// Manager owns the current library snapshot of one unit.
type Manager struct {
	mu     sync.Mutex
	lib    *library.Library
	strict bool
}

// Option configures a Manager.
type Option func(*Manager)

// WithStrict enables an invariant check before each snapshot is published.
func WithStrict(strict bool) Option {
	return func(m *Manager) {
		m.strict = strict
	}
}

// New creates a manager starting from lib.
func New(lib *library.Library, opts ...Option) *Manager {
	m := &Manager{lib: lib}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Library returns the current snapshot.
func (m *Manager) Library() *library.Library {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lib
}

// CreateSpan codes span with variable=value. Span annotations of the same
// variable that overlap span with another value are replaced, and an
// EMPTY placeholder gives way. Overlapping annotations with the same value
// are merged into one annotation covering both, keeping their relations.
// When an annotation with the same value already covers span the call
// changes nothing and returns that annotation.
func (m *Manager) CreateSpan(variable, value string, span domain.Span, color string) (domain.Annotation, *Change, error) {
	if err := checkCode(variable, value); err != nil {
		return domain.Annotation{}, nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.lib.Tokens().ValidateSpan(span); err != nil {
		return domain.Annotation{}, nil, err
	}

	same, other := overlapping(m.lib, variable, value, span)
	for _, a := range same {
		if a.Span.Covers(span) {
			return a, &Change{Library: m.lib}, nil
		}
	}

	merged := span
	for _, a := range same {
		merged = domain.NewSpan(min(merged.Start, a.Span.Start), max(merged.End, a.Span.End))
	}

	txn := m.lib.Begin()
	change := &Change{}

	for _, a := range other {
		change.Removed = append(change.Removed, txn.Remove(a.ID)...)
	}

	var carried []domain.Annotation
	for _, a := range same {
		removed := txn.Remove(a.ID)
		change.Removed = append(change.Removed, removed[0])
		carried = append(carried, removed[1:]...)
	}

	created, err := txn.NewSpan(txn.NewID(), variable, value, merged, color)
	if err != nil {
		return domain.Annotation{}, nil, err
	}
	if err := txn.Insert(created); err != nil {
		return domain.Annotation{}, nil, err
	}
	txn.TouchHistory(variable, value)
	change.Created = append(change.Created, created)

	change.Removed = append(change.Removed, relink(txn, carried, same, created.ID)...)

	if err := m.commit(txn, change); err != nil {
		return domain.Annotation{}, nil, err
	}
	return created, change, nil
}

// Toggle deletes the annotation coding exactly span with variable=value,
// or creates it when there is none.
func (m *Manager) Toggle(variable, value string, span domain.Span, keepEmpty bool) (*Change, error) {
	lib := m.Library()
	for _, a := range lib.SpansAt(span.Start) {
		if a.Variable == variable && a.Value == value && a.Span == span {
			return m.Delete(a.ID, keepEmpty)
		}
	}
	_, change, err := m.CreateSpan(variable, value, span, "")
	return change, err
}

// Delete removes an annotation and every relation depending on it. With
// keepEmpty, deleting the last real value of a variable at a span leaves
// an EMPTY placeholder there.
func (m *Manager) Delete(id string, keepEmpty bool) (*Change, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	target, ok := m.lib.Annotation(id)
	if !ok {
		return nil, fmt.Errorf("%w: annotation %s", domain.ErrNotFound, id)
	}

	txn := m.lib.Begin()
	change := &Change{Removed: txn.Remove(id)}

	if keepEmpty && target.Type == domain.AnnotationSpan && !target.IsEmpty() {
		if !variableRemains(txn.View(), target.Variable, target.Span) {
			placeholder, err := txn.NewSpan(txn.NewID(), target.Variable, domain.EmptyValue, target.Span, "")
			if err != nil {
				return nil, err
			}
			if err := txn.Insert(placeholder); err != nil {
				return nil, err
			}
			change.Created = append(change.Created, placeholder)
		}
	}

	if err := m.commit(txn, change); err != nil {
		return nil, err
	}
	return change, nil
}

// CreateRelation connects two span annotations. Creating a relation that
// already exists returns the existing one.
func (m *Manager) CreateRelation(variable, value, fromID, toID string) (domain.Annotation, *Change, error) {
	if err := checkCode(variable, value); err != nil {
		return domain.Annotation{}, nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if fromID == toID {
		return domain.Annotation{}, nil, fmt.Errorf("%w: %s relates to itself", domain.ErrInvalidEndpoint, fromID)
	}
	for _, id := range []string{fromID, toID} {
		a, ok := m.lib.Annotation(id)
		if !ok || a.Type != domain.AnnotationSpan {
			return domain.Annotation{}, nil, fmt.Errorf("%w: %s is not a span annotation", domain.ErrInvalidEndpoint, id)
		}
	}
	if existing, ok := m.lib.FindRelation(variable, value, fromID, toID); ok {
		return existing, &Change{Library: m.lib}, nil
	}

	txn := m.lib.Begin()
	a := domain.Annotation{
		ID:       txn.NewID(),
		Type:     domain.AnnotationRelation,
		Variable: variable,
		Value:    value,
		FromID:   fromID,
		ToID:     toID,
	}
	a, err := insertColored(txn, a)
	if err != nil {
		return domain.Annotation{}, nil, err
	}
	change := &Change{Created: []domain.Annotation{a}}
	if err := m.commit(txn, change); err != nil {
		return domain.Annotation{}, nil, err
	}
	return a, change, nil
}

// DeleteRelation removes a relation annotation.
func (m *Manager) DeleteRelation(id string) (*Change, error) {
	a, ok := m.Library().Annotation(id)
	if !ok {
		return nil, fmt.Errorf("%w: annotation %s", domain.ErrNotFound, id)
	}
	if a.Type != domain.AnnotationRelation {
		return nil, fmt.Errorf("%w: %s is a %s annotation", domain.ErrInvalidInput, id, a.Type)
	}
	return m.Delete(id, false)
}

// CreateField labels the whole unit, or one field of it, with
// variable=value. Field annotations are unique per variable, value and field.
func (m *Manager) CreateField(variable, value, field string) (domain.Annotation, *Change, error) {
	if err := checkCode(variable, value); err != nil {
		return domain.Annotation{}, nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.lib.FindField(variable, value, field); ok {
		return existing, &Change{Library: m.lib}, nil
	}

	txn := m.lib.Begin()
	a, err := insertColored(txn, domain.Annotation{
		ID:       txn.NewID(),
		Type:     domain.AnnotationField,
		Variable: variable,
		Value:    value,
		Field:    field,
	})
	if err != nil {
		return domain.Annotation{}, nil, err
	}
	change := &Change{Created: []domain.Annotation{a}}
	if err := m.commit(txn, change); err != nil {
		return domain.Annotation{}, nil, err
	}
	return a, change, nil
}

// Reconcile makes the library match records in one snapshot. Records
// whose id is already present are kept as they are, annotations whose id
// is absent from records are deleted, and the remaining records are
// imported. If any record cannot be placed nothing is applied and the
// report lists the dropped records.
func (m *Manager) Reconcile(records []domain.WireAnnotation) (*Change, *domain.ImportReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	keep := make(map[string]bool, len(records))
	var incoming []domain.WireAnnotation
	for _, r := range records {
		if _, ok := m.lib.Annotation(r.ID); ok && r.ID != "" {
			keep[r.ID] = true
			continue
		}
		incoming = append(incoming, r)
	}

	txn := m.lib.Begin()
	change := &Change{}
	for _, a := range m.lib.Annotations() {
		if keep[a.ID] {
			continue
		}
		if _, ok := txn.Get(a.ID); !ok {
			continue
		}
		change.Removed = append(change.Removed, txn.Remove(a.ID)...)
	}

	before := txn.View().Annotations()
	report := txn.Add(incoming)
	existed := make(map[string]bool, len(before))
	for _, a := range before {
		existed[a.ID] = true
	}
	for _, a := range txn.View().Annotations() {
		if !existed[a.ID] {
			change.Created = append(change.Created, a)
		}
	}

	if err := report.Err(); err != nil {
		return nil, report, fmt.Errorf("reconciling annotations: %w", err)
	}
	if err := m.commit(txn, change); err != nil {
		return nil, report, err
	}
	return change, report, nil
}

// checkCode rejects missing names and the sentinel values.
func checkCode(variable, value string) error {
	if variable == "" || value == "" {
		return fmt.Errorf("%w: variable and value are required", domain.ErrInvalidInput)
	}
	if domain.IsReservedValue(value) {
		return fmt.Errorf("%w: %q is reserved", domain.ErrInvalidInput, value)
	}
	return nil
}

// commit validates the staged snapshot in strict mode and publishes it.
// The caller holds m.mu.
func (m *Manager) commit(txn *library.Txn, change *Change) error {
	next := txn.Commit()
	if m.strict {
		if err := next.Validate(); err != nil {
			logger.Warn("rejecting annotation change: %v", err)
			return fmt.Errorf("invariant check failed: %w", err)
		}
	}
	m.lib = next
	change.Library = next
	return nil
}

// overlapping returns the span annotations of variable overlapping span,
// split into those with value and those with any other value.
func overlapping(lib *library.Library, variable, value string, span domain.Span) (same, other []domain.Annotation) {
	seen := make(map[string]bool)
	for i := span.Start; i <= span.End; i++ {
		for _, a := range lib.SpansAt(i) {
			if a.Variable != variable || seen[a.ID] {
				continue
			}
			seen[a.ID] = true
			if a.Value == value {
				same = append(same, a)
			} else {
				other = append(other, a)
			}
		}
	}
	return same, other
}

// relink re-inserts relations that depended on merged annotations,
// pointing them at the annotation that replaced them. Relations that can
// no longer be placed are returned as removed.
func relink(txn *library.Txn, carried, merged []domain.Annotation, target string) []domain.Annotation {
	replaced := make(map[string]bool, len(merged))
	for _, a := range merged {
		replaced[a.ID] = true
	}
	var lost []domain.Annotation
	for _, r := range carried {
		moved := r
		if replaced[moved.FromID] {
			moved.FromID = target
		}
		if replaced[moved.ToID] {
			moved.ToID = target
		}
		if moved.FromID == moved.ToID {
			lost = append(lost, r)
			continue
		}
		if _, dup := txn.FindRelation(moved.Variable, moved.Value, moved.FromID, moved.ToID); dup {
			lost = append(lost, r)
			continue
		}
		if err := txn.Insert(moved); err != nil {
			lost = append(lost, r)
		}
	}
	return lost
}

// variableRemains reports whether any span annotation of variable
// still overlaps span.
func variableRemains(lib *library.Library, variable string, span domain.Span) bool {
	for i := span.Start; i <= span.End; i++ {
		for _, a := range lib.SpansAt(i) {
			if a.Variable == variable {
				return true
			}
		}
	}
	return false
}

// insertColored stages a non-span annotation with its resolved colour.
func insertColored(txn *library.Txn, a domain.Annotation) (domain.Annotation, error) {
	a.Color = txn.ColorFor(a.Variable, a.Value, a.Color)
	if err := txn.Insert(a); err != nil {
		return domain.Annotation{}, err
	}
	txn.TouchHistory(a.Variable, a.Value)
	return a, nil
}
