// internal/models/rule.go
package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrUnknownEvaluator is a configuration error: a ruleset names an
	// evaluator kind the engine does not implement.
	ErrUnknownEvaluator = errors.New("UNKNOWN_EVALUATOR")
	// ErrInvalidRuleset is a configuration error in an otherwise known
	// ruleset (bad params, duplicate codes, bad severity).
	ErrInvalidRuleset = errors.New("RULESET_INVALID")
)

type RuleKind string

const (
	KindAgeBetween            RuleKind = "age_between"
	KindSkillsAssessmentValid RuleKind = "skills_assessment_valid"
	KindEnglishMinimum        RuleKind = "english_minimum"
	KindPointsMinimum         RuleKind = "points_minimum"
)

// ParseRuleKind resolves an evaluator name, including the names older
// ruleset documents use.
func ParseRuleKind(name string) (RuleKind, error) {
	switch k := RuleKind(name); k {
	case KindAgeBetween, KindSkillsAssessmentValid, KindEnglishMinimum, KindPointsMinimum:
		return k, nil
	}
	switch name {
	case "skills_assessment_positive_and_not_expired":
		return KindSkillsAssessmentValid, nil
	case "points_at_least":
		return KindPointsMinimum, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownEvaluator, name)
}

// Rule is the typed parameter payload of a criterion. The set of
// implementations is closed to this package.
type Rule interface {
	Kind() RuleKind
	validate() error
}

// AgeBetween passes when Min <= age < Max.
type AgeBetween struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

func (AgeBetween) Kind() RuleKind { return KindAgeBetween }

func (r AgeBetween) validate() error {
	if r.Min < 0 || r.Min >= r.Max {
		return fmt.Errorf("age_between requires 0 <= min < max, got min=%d max=%d", r.Min, r.Max)
	}
	return nil
}

// SkillsAssessmentValid passes for a positive assessment that has not expired.
type SkillsAssessmentValid struct{}

func (SkillsAssessmentValid) Kind() RuleKind { return KindSkillsAssessmentValid }

func (SkillsAssessmentValid) validate() error { return nil }

// EnglishMinimum passes when every component meets the level's threshold.
type EnglishMinimum struct {
	Level EnglishLevel `json:"level"`
}

func (EnglishMinimum) Kind() RuleKind { return KindEnglishMinimum }

func (r EnglishMinimum) validate() error {
	if !r.Level.Valid() {
		return fmt.Errorf("english_minimum has unknown level %q", r.Level)
	}
	return nil
}

// PointsMinimum passes when the claimed total reaches Minimum.
type PointsMinimum struct {
	Minimum int `json:"minimum"`
}

func (PointsMinimum) Kind() RuleKind { return KindPointsMinimum }

func (r PointsMinimum) validate() error {
	if r.Minimum < 0 {
		return fmt.Errorf("points_minimum requires minimum >= 0, got %d", r.Minimum)
	}
	return nil
}

// DecodeRule compiles an evaluator name and its parameter bag into a typed
// rule. Unknown parameters are rejected.
func DecodeRule(name string, params json.RawMessage) (Rule, error) {
	kind, err := ParseRuleKind(name)
	if err != nil {
		return nil, err
	}

	var rule Rule
	switch kind {
	case KindAgeBetween:
		var r AgeBetween
		err = decodeParams(params, &r)
		rule = r
	case KindSkillsAssessmentValid:
		var r SkillsAssessmentValid
		err = decodeParams(params, &r)
		rule = r
	case KindEnglishMinimum:
		var r EnglishMinimum
		err = decodeParams(params, &r)
		rule = r
	case KindPointsMinimum:
		var r PointsMinimum
		err = decodeParams(params, &r)
		rule = r
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s params: %v", ErrInvalidRuleset, kind, err)
	}
	if err := rule.validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRuleset, err)
	}
	return rule, nil
}

func decodeParams(params json.RawMessage, into interface{}) error {
	trimmed := bytes.TrimSpace(params)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.DisallowUnknownFields()
	return dec.Decode(into)
}
