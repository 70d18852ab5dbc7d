package domain

import (
	"errors"
	"fmt"
	"slices"
)

// RemainingTarget in a makes_irrelevant list targets every later question.
const RemainingTarget = "REMAINING"

// Code is a selectable option of a question or annotation variable.
type Code struct {
	Code            string   `json:"code" toml:"code"`
	Color           string   `json:"color,omitempty" toml:"color,omitempty"`
	MakesIrrelevant []string `json:"makes_irrelevant,omitempty" toml:"makes_irrelevant,omitempty"`
	RequiredFor     []string `json:"required_for,omitempty" toml:"required_for,omitempty"`
}

// QuestionItem is a named sub-slot of a question.
type QuestionItem struct {
	Name     string `json:"name" toml:"name"`
	Optional bool   `json:"optional,omitempty" toml:"optional,omitempty"`
}

// AnnotationTarget fixes the position a question's answer is stored at.
// A target with only Field set produces field annotations.
type AnnotationTarget struct {
	Field  string `json:"field,omitempty" toml:"field,omitempty"`
	Offset *int   `json:"offset,omitempty" toml:"offset,omitempty"`
	Length *int   `json:"length,omitempty" toml:"length,omitempty"`
}

// Question is a codebook question.
type Question struct {
	Name     string            `json:"name" toml:"name"`
	Question string            `json:"question,omitempty" toml:"question,omitempty"`
	Items    []QuestionItem    `json:"items,omitempty" toml:"items,omitempty"`
	Codes    []Code            `json:"codes,omitempty" toml:"codes,omitempty"`
	Target   *AnnotationTarget `json:"target,omitempty" toml:"target,omitempty"`
}

// ItemNames returns the question's item names, or a single unnamed
// item when none are declared.
func (q Question) ItemNames() []QuestionItem {
	if len(q.Items) == 0 {
		return []QuestionItem{{Name: ""}}
	}
	return q.Items
}

// ItemVariable returns the annotation variable for one of the question's items.
func (q Question) ItemVariable(item string) string {
	return ItemVariable(q.Name, item)
}

// ItemVariable joins a question name and item name into the variable
// its answers are stored under.
func ItemVariable(question, item string) string {
	if item == "" {
		return question
	}
	return question + "." + item
}

// Code returns the option with the given code value.
func (q Question) Code(value string) (Code, bool) {
	for _, c := range q.Codes {
		if c.Code == value {
			return c, true
		}
	}
	return Code{}, false
}

// AnswerItem holds the values given for one item of a question.
type AnswerItem struct {
	Item     string   `json:"item"`
	Values   []string `json:"values"`
	Invalid  bool     `json:"invalid,omitempty"`
	Optional bool     `json:"optional,omitempty"`
}

// Answer is the answer to one question.
type Answer struct {
	Variable string       `json:"variable"`
	Items    []AnswerItem `json:"items"`

	// Target position copied from the question.
	Field  string `json:"field,omitempty"`
	Offset *int   `json:"offset,omitempty"`
	Length *int   `json:"length,omitempty"`
}

// Complete reports whether every required item has a value and no
// item is marked invalid.
func (a Answer) Complete() bool {
	for _, item := range a.Items {
		if item.Invalid {
			return false
		}
		if !item.Optional && len(item.Values) == 0 {
			return false
		}
	}
	return true
}

// IsIrrelevant reports whether any item carries the IRRELEVANT sentinel.
func (a Answer) IsIrrelevant() bool {
	for _, item := range a.Items {
		if len(item.Values) > 0 && item.Values[0] == IrrelevantValue {
			return true
		}
	}
	return false
}

// EndpointRule restricts one side of a relation to a variable and,
// optionally, a set of its values.
type EndpointRule struct {
	Variable string   `json:"variable" toml:"variable"`
	Values   []string `json:"values,omitempty" toml:"values,omitempty"`
}

// RelationCode is a relation value together with the annotations it may connect.
type RelationCode struct {
	Code  string         `json:"code" toml:"code"`
	Color string         `json:"color,omitempty" toml:"color,omitempty"`
	From  []EndpointRule `json:"from,omitempty" toml:"from,omitempty"`
	To    []EndpointRule `json:"to,omitempty" toml:"to,omitempty"`
}

// Variable is an annotation variable in the codebook.
type Variable struct {
	Name      string         `json:"name" toml:"name"`
	Codes     []Code         `json:"codes,omitempty" toml:"codes,omitempty"`
	Relations []RelationCode `json:"relations,omitempty" toml:"relations,omitempty"`
}

// Codebook bundles the questions and annotation variables of a job.
type Codebook struct {
	Questions []Question `json:"questions,omitempty" toml:"questions,omitempty"`
	Variables []Variable `json:"variables,omitempty" toml:"variables,omitempty"`
}

// VariableMap indexes variables by name.
type VariableMap map[string]Variable

// VariableMap returns the codebook's variables keyed by name.
func (c *Codebook) VariableMap() VariableMap {
	vm := make(VariableMap, len(c.Variables))
	for _, v := range c.Variables {
		vm[v.Name] = v
	}
	return vm
}

// Color returns the colour configured for variable/value, if any.
func (vm VariableMap) Color(variable, value string) (string, bool) {
	v, ok := vm[variable]
	if !ok {
		return "", false
	}
	for _, c := range v.Codes {
		if c.Code == value && c.Color != "" {
			return c.Color, true
		}
	}
	for _, r := range v.Relations {
		if r.Code == value && r.Color != "" {
			return r.Color, true
		}
	}
	return "", false
}

// Validate checks that question, item, code and variable names are
// present and unique. Branching targets that name no question are not
// errors; see UnknownTargets.
func (c *Codebook) Validate() error {
	var errs []error
	questions := make(map[string]bool, len(c.Questions))
	for i, q := range c.Questions {
		if q.Name == "" {
			errs = append(errs, fmt.Errorf("%w: question %d has no name", ErrInvalidInput, i))
			continue
		}
		if questions[q.Name] {
			errs = append(errs, fmt.Errorf("%w: duplicate question %q", ErrInvalidInput, q.Name))
		}
		questions[q.Name] = true

		items := make(map[string]bool, len(q.Items))
		for _, item := range q.Items {
			if item.Name == "" || items[item.Name] {
				errs = append(errs, fmt.Errorf("%w: question %q has an empty or duplicate item name", ErrInvalidInput, q.Name))
			}
			items[item.Name] = true
		}
		errs = append(errs, checkCodes("question "+q.Name, q.Codes)...)
	}

	variables := make(map[string]bool, len(c.Variables))
	for i, v := range c.Variables {
		if v.Name == "" {
			errs = append(errs, fmt.Errorf("%w: variable %d has no name", ErrInvalidInput, i))
			continue
		}
		if variables[v.Name] {
			errs = append(errs, fmt.Errorf("%w: duplicate variable %q", ErrInvalidInput, v.Name))
		}
		variables[v.Name] = true
		errs = append(errs, checkCodes("variable "+v.Name, v.Codes)...)
	}

	for _, v := range c.Variables {
		for _, r := range v.Relations {
			for _, rule := range append(slices.Clone(r.From), r.To...) {
				if !variables[rule.Variable] {
					errs = append(errs, fmt.Errorf("%w: relation %s|%s refers to unknown variable %q",
						ErrInvalidInput, v.Name, r.Code, rule.Variable))
				}
			}
		}
	}
	return errors.Join(errs...)
}

func checkCodes(owner string, codes []Code) []error {
	var errs []error
	seen := make(map[string]bool, len(codes))
	for _, c := range codes {
		switch {
		case c.Code == "":
			errs = append(errs, fmt.Errorf("%w: %s has an empty code", ErrInvalidInput, owner))
		case IsReservedValue(c.Code):
			errs = append(errs, fmt.Errorf("%w: %s uses reserved code %q", ErrInvalidInput, owner, c.Code))
		case seen[c.Code]:
			errs = append(errs, fmt.Errorf("%w: %s has duplicate code %q", ErrInvalidInput, owner, c.Code))
		}
		seen[c.Code] = true
	}
	return errs
}

// UnknownTargets lists makes_irrelevant and required_for targets that
// match no question name. They are ignored during branching.
func (c *Codebook) UnknownTargets() []string {
	names := make(map[string]bool, len(c.Questions))
	for _, q := range c.Questions {
		names[q.Name] = true
	}
	var out []string
	for _, q := range c.Questions {
		for _, code := range q.Codes {
			for _, target := range append(slices.Clone(code.MakesIrrelevant), code.RequiredFor...) {
				if target != RemainingTarget && !names[target] && !slices.Contains(out, target) {
					out = append(out, target)
				}
			}
		}
	}
	return out
}
