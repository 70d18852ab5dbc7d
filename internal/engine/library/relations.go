package library

import (
	"sort"

	"github.com/custodia-labs/annotator/internal/core/domain"
)

const anyValue = "*"

// relationCode is a relation value together with the variable it belongs to.
type relationCode struct {
	variable string
	code     domain.RelationCode
}

// RelationRules indexes which relation codes may start or end at an
// annotation, keyed by "variable|value" ("variable|*" for any value).
type RelationRules struct {
	codes     []relationCode
	validFrom map[string]map[int]bool
	validTo   map[string]map[int]bool
}

// NewRelationRules builds the from/to indexes for the relation codes of
// the given variables.
func NewRelationRules(variables []domain.Variable) *RelationRules {
	r := &RelationRules{
		validFrom: make(map[string]map[int]bool),
		validTo:   make(map[string]map[int]bool),
	}
	for _, v := range variables {
		for _, rc := range v.Relations {
			id := len(r.codes)
			r.codes = append(r.codes, relationCode{variable: v.Name, code: rc})
			addRules(r.validFrom, rc.From, id)
			addRules(r.validTo, rc.To, id)
		}
	}
	return r
}

func addRules(index map[string]map[int]bool, rules []domain.EndpointRule, id int) {
	add := func(key string) {
		if index[key] == nil {
			index[key] = make(map[int]bool)
		}
		index[key][id] = true
	}
	for _, rule := range rules {
		if len(rule.Values) == 0 {
			add(domain.CodeKey(rule.Variable, anyValue))
			continue
		}
		for _, v := range rule.Values {
			add(domain.CodeKey(rule.Variable, v))
		}
	}
}

// allowed returns the relation ids permitted for an annotation on one side.
func allowed(index map[string]map[int]bool, a domain.Annotation) map[int]bool {
	out := make(map[int]bool)
	for id := range index[a.Key()] {
		out[id] = true
	}
	for id := range index[domain.CodeKey(a.Variable, anyValue)] {
		out[id] = true
	}
	return out
}

// ValidRelations lists every (from, to, relation) triple the rules allow
// between the span annotations touching token from and those touching
// token to. Both sides must permit the same relation code. EMPTY
// placeholders never take part in relations.
func (l *Library) ValidRelations(from, to int, rules *RelationRules) []domain.RelationOption {
	if rules == nil {
		return nil
	}
	var out []domain.RelationOption
	for _, fa := range l.SpansAt(from) {
		if fa.IsEmpty() {
			continue
		}
		fromIDs := allowed(rules.validFrom, fa)
		if len(fromIDs) == 0 {
			continue
		}
		for _, ta := range l.SpansAt(to) {
			if ta.IsEmpty() || ta.ID == fa.ID {
				continue
			}
			toIDs := allowed(rules.validTo, ta)
			for _, id := range sortedIDs(fromIDs) {
				if !toIDs[id] {
					continue
				}
				rc := rules.codes[id]
				out = append(out, domain.RelationOption{
					From:     fa,
					To:       ta,
					Variable: rc.variable,
					Value:    rc.code.Code,
					Color:    l.colorFor(rc.variable, rc.code.Code, rc.code.Color),
				})
			}
		}
	}
	return out
}

// ValidDestinations returns the token positions at which a relation
// starting from token from could end.
func (l *Library) ValidDestinations(from int, rules *RelationRules) []int {
	if rules == nil {
		return nil
	}
	fromIDs := make(map[int]bool)
	for _, fa := range l.SpansAt(from) {
		if fa.IsEmpty() {
			continue
		}
		for id := range allowed(rules.validFrom, fa) {
			fromIDs[id] = true
		}
	}
	if len(fromIDs) == 0 {
		return nil
	}

	var out []int
	for i := 0; i < l.tokens.Len(); i++ {
		for _, ta := range l.SpansAt(i) {
			if ta.IsEmpty() {
				continue
			}
			if intersects(fromIDs, allowed(rules.validTo, ta)) {
				out = append(out, i)
				break
			}
		}
	}
	return out
}

func intersects(a, b map[int]bool) bool {
	for id := range a {
		if b[id] {
			return true
		}
	}
	return false
}

func sortedIDs(set map[int]bool) []int {
	out := make([]int, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}
