// Package library holds the indexed, immutable snapshot of a unit's
// annotations: the annotations by id, the tokens each one covers, the
// relations that depend on each annotation, and the recent values coded
// per variable.
//
// A Library is never modified after it is committed. Changes go through a
// Txn, which copies the indexes on write and commits a new snapshot, so a
// caller holding an older *Library never observes a partial update.
package library

import (
	"sort"

	"github.com/google/uuid"

	"github.com/custodia-labs/annotator/internal/core/domain"
	"github.com/custodia-labs/annotator/internal/engine/tokenindex"
)

// IDFunc generates annotation ids.
type IDFunc func() string

// NewID returns a time-ordered UUIDv7. Successive calls within a process
// are strictly increasing.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Library is an immutable snapshot of a unit's annotations.
type Library struct {
	unitID      string
	safetyCheck string

	tokens      *tokenindex.Index
	variables   domain.VariableMap
	historySize int
	newID       IDFunc

	annotations  map[string]domain.Annotation
	seq          map[string]uint64
	nextSeq      uint64
	byToken      map[int][]string
	referencedBy map[string][]string
	codeHistory  map[string][]string
}

// Option configures a new library.
type Option func(*Library)

// WithUnit tags the library with the unit it belongs to and the safety
// check value that identifies this load of the unit.
func WithUnit(unitID, safetyCheck string) Option {
	return func(l *Library) {
		l.unitID = unitID
		l.safetyCheck = safetyCheck
	}
}

// WithVariables sets the codebook variables used for colours and relation rules.
func WithVariables(vm domain.VariableMap) Option {
	return func(l *Library) {
		if vm != nil {
			l.variables = vm
		}
	}
}

// WithHistorySize caps the recent-value history per variable.
func WithHistorySize(n int) Option {
	return func(l *Library) {
		if n > 0 {
			l.historySize = n
		}
	}
}

// WithIDFunc replaces the id generator.
func WithIDFunc(f IDFunc) Option {
	return func(l *Library) {
		if f != nil {
			l.newID = f
		}
	}
}

// Empty returns a library with no annotations over the given tokens.
func Empty(tokens *tokenindex.Index, opts ...Option) *Library {
	l := &Library{
		tokens:       tokens,
		variables:    domain.VariableMap{},
		historySize:  domain.DefaultHistorySize,
		newID:        NewID,
		annotations:  make(map[string]domain.Annotation),
		seq:          make(map[string]uint64),
		byToken:      make(map[int][]string),
		referencedBy: make(map[string][]string),
		codeHistory:  make(map[string][]string),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.safetyCheck == "" {
		l.safetyCheck = uuid.NewString()
	}
	return l
}

// UnitID returns the id of the unit the library was built for.
func (l *Library) UnitID() string {
	return l.unitID
}

// SafetyCheck returns the value identifying this load of the unit.
// Results computed against another value must be discarded.
func (l *Library) SafetyCheck() string {
	return l.safetyCheck
}

// Tokens returns the token index.
func (l *Library) Tokens() *tokenindex.Index {
	return l.tokens
}

// Variables returns the codebook variables.
func (l *Library) Variables() domain.VariableMap {
	return l.variables
}

// Len returns the number of annotations.
func (l *Library) Len() int {
	return len(l.annotations)
}

// Annotation returns the annotation with the given id.
func (l *Library) Annotation(id string) (domain.Annotation, bool) {
	a, ok := l.annotations[id]
	return a, ok
}

// Annotations returns all annotations in creation order.
func (l *Library) Annotations() []domain.Annotation {
	ids := make([]string, 0, len(l.annotations))
	for id := range l.annotations {
		ids = append(ids, id)
	}
	l.sortBySeq(ids)
	out := make([]domain.Annotation, len(ids))
	for i, id := range ids {
		out[i] = l.annotations[id]
	}
	return out
}

// AtToken returns the annotations covering token i, in creation order.
// Relations are included when one of their endpoints covers i.
func (l *Library) AtToken(i int) []domain.Annotation {
	ids := l.byToken[i]
	out := make([]domain.Annotation, 0, len(ids))
	for _, id := range ids {
		out = append(out, l.annotations[id])
	}
	return out
}

// SpansAt returns the span annotations covering token i.
func (l *Library) SpansAt(i int) []domain.Annotation {
	var out []domain.Annotation
	for _, id := range l.byToken[i] {
		if a := l.annotations[id]; a.Type == domain.AnnotationSpan {
			out = append(out, a)
		}
	}
	return out
}

// ReferencedBy returns the ids of relations using id as an endpoint.
func (l *Library) ReferencedBy(id string) []string {
	refs := l.referencedBy[id]
	out := make([]string, len(refs))
	copy(out, refs)
	return out
}

// CodeHistory returns the recently coded values of variable, most recent first.
func (l *Library) CodeHistory(variable string) []string {
	h := l.codeHistory[variable]
	out := make([]string, len(h))
	copy(out, h)
	return out
}

// sortBySeq orders ids by creation order.
func (l *Library) sortBySeq(ids []string) {
	sort.Slice(ids, func(i, j int) bool {
		return l.seq[ids[i]] < l.seq[ids[j]]
	})
}
