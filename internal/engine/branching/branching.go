// Package branching decides which codebook questions are irrelevant given
// the answers so far, and keeps the IRRELEVANT sentinel in the answers and
// their annotations in step with that decision.
package branching

import (
	"slices"

	"github.com/custodia-labs/annotator/internal/core/domain"
	"github.com/custodia-labs/annotator/internal/engine/answers"
)

// Evaluator evaluates branching rules for one codebook. It holds no state
// besides the questions and is safe for concurrent use.
type Evaluator struct {
	questions []domain.Question
	byName    map[string][]int
}

// New creates an evaluator. required_for declarations are rewritten into
// makes_irrelevant declarations first.
func New(questions []domain.Question) *Evaluator {
	e := &Evaluator{
		questions: AddRequiredFor(questions),
		byName:    make(map[string][]int, len(questions)),
	}
	for i, q := range e.questions {
		e.byName[q.Name] = append(e.byName[q.Name], i)
	}
	return e
}

// Questions returns the rewritten questions.
func (e *Evaluator) Questions() []domain.Question {
	return e.questions
}

// AddRequiredFor returns a copy of questions in which every code declaring
// required_for targets is replaced by the equivalent rule: every other code
// of the same question makes those targets irrelevant.
func AddRequiredFor(questions []domain.Question) []domain.Question {
	out := make([]domain.Question, len(questions))
	for i, q := range questions {
		q.Codes = slices.Clone(q.Codes)
		for k := range q.Codes {
			q.Codes[k].MakesIrrelevant = slices.Clone(q.Codes[k].MakesIrrelevant)
		}
		for k, c := range q.Codes {
			if len(c.RequiredFor) == 0 {
				continue
			}
			for j := range q.Codes {
				if j == k {
					continue
				}
				for _, target := range c.RequiredFor {
					if !slices.Contains(q.Codes[j].MakesIrrelevant, target) {
						q.Codes[j].MakesIrrelevant = append(q.Codes[j].MakesIrrelevant, target)
					}
				}
			}
		}
		for k := range q.Codes {
			q.Codes[k].RequiredFor = nil
		}
		out[i] = q
	}
	return out
}

// Irrelevant returns, per question, whether an answer makes it irrelevant.
// Questions are evaluated in order and the answer of a question that is
// already irrelevant contributes nothing. Targets that name no question
// are ignored.
func (e *Evaluator) Irrelevant(given []domain.Answer) []bool {
	irrelevant := make([]bool, len(e.questions))
	for i, q := range e.questions {
		if irrelevant[i] || i >= len(given) {
			continue
		}
		for _, target := range e.targets(q, given[i]) {
			if target == domain.RemainingTarget {
				for j := i + 1; j < len(irrelevant); j++ {
					irrelevant[j] = true
				}
				continue
			}
			for _, j := range e.byName[target] {
				irrelevant[j] = true
			}
		}
	}
	return irrelevant
}

// targets collects the makes_irrelevant lists of every selected value.
func (e *Evaluator) targets(q domain.Question, a domain.Answer) []string {
	var out []string
	for _, item := range a.Items {
		for _, v := range item.Values {
			if c, ok := q.Code(v); ok {
				out = append(out, c.MakesIrrelevant...)
			}
		}
	}
	return out
}

// Next returns the first relevant question after current. It returns
// false when none remain, meaning the unit is done.
func Next(irrelevant []bool, current int) (int, bool) {
	for i := max(current+1, 0); i < len(irrelevant); i++ {
		if !irrelevant[i] {
			return i, true
		}
	}
	return 0, false
}

// Result is the outcome of Sync.
type Result struct {
	Answers    []domain.Answer
	Records    []domain.WireAnnotation
	Irrelevant []bool

	// Changed lists the questions whose answer was forced or cleared.
	Changed []int
}

// Sync evaluates the branching rules and applies them: irrelevant
// questions get IRRELEVANT as the value of every item, questions that were
// IRRELEVANT but no longer are get a blank answer, and the records are
// updated to match. given is padded with blank answers; neither given nor
// records is modified.
func (e *Evaluator) Sync(given []domain.Answer, records []domain.WireAnnotation) Result {
	res := Result{
		Answers: make([]domain.Answer, len(e.questions)),
		Records: records,
	}
	for i, q := range e.questions {
		if i < len(given) {
			res.Answers[i] = given[i]
		} else {
			res.Answers[i] = answers.Blank(q)
		}
	}

	res.Irrelevant = e.Irrelevant(res.Answers)

	for i, q := range e.questions {
		current := res.Answers[i]
		var next domain.Answer
		switch {
		case res.Irrelevant[i] && !forced(current):
			next = answers.Blank(q)
			for k := range next.Items {
				next.Items[k].Values = []string{domain.IrrelevantValue}
			}
		case !res.Irrelevant[i] && current.IsIrrelevant():
			next = answers.Blank(q)
		default:
			continue
		}
		res.Answers[i] = next
		res.Records = answers.ToAnnotations(next, res.Records)
		res.Changed = append(res.Changed, i)
	}
	return res
}

// forced reports whether every item of a holds only IRRELEVANT.
func forced(a domain.Answer) bool {
	if len(a.Items) == 0 {
		return false
	}
	for _, item := range a.Items {
		if len(item.Values) != 1 || item.Values[0] != domain.IrrelevantValue {
			return false
		}
	}
	return true
}
