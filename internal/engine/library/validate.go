package library

import (
	"errors"
	"fmt"
	"sort"

	"github.com/custodia-labs/annotator/internal/core/domain"
)

// ErrCorruptIndex indicates the token index disagrees with the annotations.
var ErrCorruptIndex = errors.New("library: corrupt token index")

// Validate checks the library invariants: the token index matches the
// annotations, no token carries two span annotations of one variable,
// and every relation endpoint exists. It returns nil or the joined
// violations.
func (l *Library) Validate() error {
	var errs []error

	expected := make(map[int]map[string]bool)
	for id := range l.annotations {
		for _, i := range l.coverage(id) {
			if expected[i] == nil {
				expected[i] = make(map[string]bool)
			}
			expected[i][id] = true
		}
	}
	for i, ids := range l.byToken {
		for _, id := range ids {
			if !expected[i][id] {
				errs = append(errs, fmt.Errorf("%w: token %d lists %s", ErrCorruptIndex, i, id))
			}
		}
	}
	for i, set := range expected {
		listed := make(map[string]bool, len(l.byToken[i]))
		for _, id := range l.byToken[i] {
			listed[id] = true
		}
		for id := range set {
			if !listed[id] {
				errs = append(errs, fmt.Errorf("%w: token %d misses %s", ErrCorruptIndex, i, id))
			}
		}
	}

	positions := make([]int, 0, len(l.byToken))
	for i := range l.byToken {
		positions = append(positions, i)
	}
	sort.Ints(positions)
	reported := make(map[[2]string]bool)
	for _, i := range positions {
		byVariable := make(map[string]string)
		for _, a := range l.SpansAt(i) {
			prev, clash := byVariable[a.Variable]
			if !clash {
				byVariable[a.Variable] = a.ID
				continue
			}
			pair := [2]string{prev, a.ID}
			if !reported[pair] {
				reported[pair] = true
				errs = append(errs, fmt.Errorf("%w: %s and %s both code %q at token %d",
					domain.ErrDuplicateAssignment, prev, a.ID, a.Variable, i))
			}
		}
	}

	for id, a := range l.annotations {
		if a.Type != domain.AnnotationRelation {
			continue
		}
		for _, ep := range []string{a.FromID, a.ToID} {
			if _, ok := l.annotations[ep]; !ok {
				errs = append(errs, fmt.Errorf("%w: relation %s points at missing %s", domain.ErrInvalidEndpoint, id, ep))
			}
		}
	}

	return errors.Join(errs...)
}
