package library

import (
	"fmt"
	"maps"
	"sort"

	"github.com/custodia-labs/annotator/internal/core/domain"
	"github.com/custodia-labs/annotator/internal/logger"
)

// Txn stages changes against a library snapshot. The index maps are
// cloned once when the Txn begins; the per-token and per-endpoint id
// slices are shared with the base snapshot and replaced, never modified,
// when written. A Txn must not be used after Commit.
type Txn struct {
	l *Library
}

// Begin starts a transaction on top of l. l itself is left untouched.
func (l *Library) Begin() *Txn {
	n := *l
	n.annotations = maps.Clone(l.annotations)
	n.seq = maps.Clone(l.seq)
	n.byToken = maps.Clone(l.byToken)
	n.referencedBy = maps.Clone(l.referencedBy)
	n.codeHistory = maps.Clone(l.codeHistory)
	return &Txn{l: &n}
}

// Commit returns the staged snapshot.
func (t *Txn) Commit() *Library {
	l := t.l
	t.l = nil
	return l
}

// View returns the staged state as a read-only library without ending
// the transaction. The result must not be retained past further edits.
func (t *Txn) View() *Library {
	return t.l
}

// Get returns a staged annotation.
func (t *Txn) Get(id string) (domain.Annotation, bool) {
	a, ok := t.l.annotations[id]
	return a, ok
}

// SpansAt returns the staged span annotations covering token i.
func (t *Txn) SpansAt(i int) []domain.Annotation {
	return t.l.SpansAt(i)
}

// NewID returns an id not used by any staged annotation.
func (t *Txn) NewID() string {
	for {
		id := t.l.newID()
		if _, used := t.l.annotations[id]; !used && id != "" {
			return id
		}
	}
}

// Insert adds an annotation. Relation endpoints must already be staged.
func (t *Txn) Insert(a domain.Annotation) error {
	if a.ID == "" {
		return fmt.Errorf("%w: annotation without id", domain.ErrInvalidInput)
	}
	if _, exists := t.l.annotations[a.ID]; exists {
		return fmt.Errorf("%w: id %s already in use", domain.ErrInvalidInput, a.ID)
	}
	if a.Type == domain.AnnotationRelation {
		if _, ok := t.l.annotations[a.FromID]; !ok {
			return fmt.Errorf("%w: from %s", domain.ErrInvalidEndpoint, a.FromID)
		}
		if _, ok := t.l.annotations[a.ToID]; !ok {
			return fmt.Errorf("%w: to %s", domain.ErrInvalidEndpoint, a.ToID)
		}
	}

	t.l.annotations[a.ID] = a
	t.l.seq[a.ID] = t.l.nextSeq
	t.l.nextSeq++

	for _, i := range t.coverage(a.ID) {
		t.l.byToken[i] = appendID(t.l.byToken[i], a.ID)
	}
	if a.Type == domain.AnnotationRelation {
		t.l.referencedBy[a.FromID] = appendID(t.l.referencedBy[a.FromID], a.ID)
		if a.ToID != a.FromID {
			t.l.referencedBy[a.ToID] = appendID(t.l.referencedBy[a.ToID], a.ID)
		}
	}
	return nil
}

// Remove deletes an annotation together with every relation that depends
// on it, directly or through other relations. It returns the removed
// annotations, the requested one first.
func (t *Txn) Remove(id string) []domain.Annotation {
	if _, ok := t.l.annotations[id]; !ok {
		return nil
	}

	// Collect the dependency closure first so coverage can still be
	// computed through endpoints that are about to go.
	order := []string{id}
	seen := map[string]bool{id: true}
	for k := 0; k < len(order); k++ {
		for _, ref := range t.l.referencedBy[order[k]] {
			if !seen[ref] {
				seen[ref] = true
				order = append(order, ref)
			}
		}
	}

	coverage := make(map[string][]int, len(order))
	for _, rid := range order {
		coverage[rid] = t.coverage(rid)
	}

	removed := make([]domain.Annotation, 0, len(order))
	for _, rid := range order {
		a := t.l.annotations[rid]
		for _, i := range coverage[rid] {
			t.l.byToken[i] = withoutID(t.l.byToken[i], rid)
			if len(t.l.byToken[i]) == 0 {
				delete(t.l.byToken, i)
			}
		}
		if a.Type == domain.AnnotationRelation {
			t.dropReference(a.FromID, rid)
			t.dropReference(a.ToID, rid)
		}
		delete(t.l.referencedBy, rid)
		delete(t.l.annotations, rid)
		delete(t.l.seq, rid)
		removed = append(removed, a)
	}

	if len(removed) > 1 {
		logger.Debug("removing %s cascaded to %d relation(s)", id, len(removed)-1)
	}
	return removed
}

// TouchHistory records value as the most recent value of variable.
// Sentinel values are not recorded.
func (t *Txn) TouchHistory(variable, value string) {
	if value == domain.EmptyValue || value == domain.IrrelevantValue {
		return
	}
	old := t.l.codeHistory[variable]
	h := make([]string, 0, t.l.historySize)
	h = append(h, value)
	for _, v := range old {
		if len(h) >= t.l.historySize {
			break
		}
		if v != value {
			h = append(h, v)
		}
	}
	t.l.codeHistory[variable] = h
}

func (t *Txn) dropReference(endpoint, relation string) {
	refs, ok := t.l.referencedBy[endpoint]
	if !ok {
		return
	}
	refs = withoutID(refs, relation)
	if len(refs) == 0 {
		delete(t.l.referencedBy, endpoint)
		return
	}
	t.l.referencedBy[endpoint] = refs
}

// coverage returns the sorted token indices an annotation is indexed at.
func (t *Txn) coverage(id string) []int {
	return t.l.coverage(id)
}

// coverage returns the token indices covered by a span, or by the
// endpoints of a relation, transitively.
func (l *Library) coverage(id string) []int {
	set := make(map[int]bool)
	visited := make(map[string]bool)
	var walk func(string)
	walk = func(id string) {
		if visited[id] {
			return
		}
		visited[id] = true
		a, ok := l.annotations[id]
		if !ok {
			return
		}
		switch a.Type {
		case domain.AnnotationSpan:
			for i := a.Span.Start; i <= a.Span.End; i++ {
				set[i] = true
			}
		case domain.AnnotationRelation:
			walk(a.FromID)
			walk(a.ToID)
		}
	}
	walk(id)

	out := make([]int, 0, len(set))
	for i := range set {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// appendID returns a new slice; ids may be shared with another snapshot.
func appendID(ids []string, id string) []string {
	out := make([]string, len(ids), len(ids)+1)
	copy(out, ids)
	return append(out, id)
}

func withoutID(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, x := range ids {
		if x != id {
			out = append(out, x)
		}
	}
	return out
}
