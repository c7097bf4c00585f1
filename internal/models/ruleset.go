// internal/models/ruleset.go
package models

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrRulesetNotFound means no published ruleset exists for the requested
// snapshot or subclass.
var ErrRulesetNotFound = errors.New("RULESET_NOT_FOUND")

type Severity string

const (
	SeverityHard Severity = "hard"
	SeveritySoft Severity = "soft"
)

func (s Severity) Valid() bool {
	return s == SeverityHard || s == SeveritySoft
}

type PolicyReference struct {
	Type  string `json:"type" yaml:"type"`
	Label string `json:"label" yaml:"label"`
	Ref   string `json:"ref" yaml:"ref"`
}

// Criterion is one eligibility rule of a ruleset.
type Criterion struct {
	Code        string
	Description string
	Severity    Severity
	Rule        Rule
}

type criterionDocument struct {
	Code        string          `json:"code"`
	Description string          `json:"description"`
	Severity    Severity        `json:"severity"`
	Evaluate    string          `json:"evaluate"`
	Params      json.RawMessage `json:"params,omitempty"`
}

func (c Criterion) MarshalJSON() ([]byte, error) {
	if c.Rule == nil {
		return nil, fmt.Errorf("%w: criterion %s has no rule", ErrInvalidRuleset, c.Code)
	}
	params, err := json.Marshal(c.Rule)
	if err != nil {
		return nil, err
	}
	return json.Marshal(criterionDocument{
		Code:        c.Code,
		Description: c.Description,
		Severity:    c.Severity,
		Evaluate:    string(c.Rule.Kind()),
		Params:      params,
	})
}

func (c *Criterion) UnmarshalJSON(data []byte) error {
	var doc criterionDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRuleset, err)
	}
	rule, err := DecodeRule(doc.Evaluate, doc.Params)
	if err != nil {
		return fmt.Errorf("criterion %s: %w", doc.Code, err)
	}
	*c = Criterion{
		Code:        doc.Code,
		Description: doc.Description,
		Severity:    doc.Severity,
		Rule:        rule,
	}
	return nil
}

// Ruleset is a versioned, published set of criteria for one visa subclass.
type Ruleset struct {
	ID               string            `json:"id,omitempty"`
	PolicySnapshotID string            `json:"policy_snapshot_id,omitempty"`
	Visa             string            `json:"visa"`
	Version          string            `json:"version"`
	Criteria         []Criterion       `json:"criteria"`
	PolicyReferences []PolicyReference `json:"policy_references,omitempty"`
}

// Validate checks the invariants a ruleset must hold before publication.
func (r *Ruleset) Validate() error {
	if r == nil {
		return fmt.Errorf("%w: ruleset is nil", ErrInvalidRuleset)
	}
	if r.Visa == "" {
		return fmt.Errorf("%w: visa is required", ErrInvalidRuleset)
	}
	if r.Version == "" {
		return fmt.Errorf("%w: ruleset %s has no version", ErrInvalidRuleset, r.Visa)
	}
	if len(r.Criteria) == 0 {
		return fmt.Errorf("%w: ruleset %s@%s has no criteria", ErrInvalidRuleset, r.Visa, r.Version)
	}

	seen := make(map[string]struct{}, len(r.Criteria))
	for i, c := range r.Criteria {
		if c.Code == "" {
			return fmt.Errorf("%w: criterion %d has no code", ErrInvalidRuleset, i)
		}
		if _, dup := seen[c.Code]; dup {
			return fmt.Errorf("%w: duplicate criterion code %s", ErrInvalidRuleset, c.Code)
		}
		seen[c.Code] = struct{}{}

		if !c.Severity.Valid() {
			return fmt.Errorf("%w: criterion %s has severity %q", ErrInvalidRuleset, c.Code, c.Severity)
		}
		if c.Rule == nil {
			return fmt.Errorf("%w: criterion %s has no rule", ErrInvalidRuleset, c.Code)
		}
		if err := c.Rule.validate(); err != nil {
			return fmt.Errorf("%w: criterion %s: %v", ErrInvalidRuleset, c.Code, err)
		}
	}
	return nil
}

// DecodeRuleset parses and validates a ruleset document.
func DecodeRuleset(data []byte) (*Ruleset, error) {
	var rs Ruleset
	if err := json.Unmarshal(data, &rs); err != nil {
		return nil, err
	}
	if err := rs.Validate(); err != nil {
		return nil, err
	}
	return &rs, nil
}

// PolicySnapshot is a dated bundle of regulatory references and the
// rulesets in force.
type PolicySnapshot struct {
	ID            string            `json:"id"`
	EffectiveDate Date              `json:"effective_date"`
	References    []PolicyReference `json:"references,omitempty"`
	Rulesets      []*Ruleset        `json:"rulesets"`
}

// Validate checks every ruleset and that no subclass appears twice, since
// results are keyed by subclass.
func (s *PolicySnapshot) Validate() error {
	if s == nil || s.ID == "" {
		return fmt.Errorf("%w: snapshot without id", ErrInvalidRuleset)
	}
	return ValidateRulesets(s.ID, s.Rulesets)
}

// ValidateRulesets checks the rulesets served under one snapshot.
func ValidateRulesets(snapshotID string, rulesets []*Ruleset) error {
	seen := make(map[string]struct{}, len(rulesets))
	for _, rs := range rulesets {
		if err := rs.Validate(); err != nil {
			return fmt.Errorf("snapshot %s: %w", snapshotID, err)
		}
		if _, dup := seen[rs.Visa]; dup {
			return fmt.Errorf("%w: snapshot %s has two rulesets for subclass %s", ErrInvalidRuleset, snapshotID, rs.Visa)
		}
		seen[rs.Visa] = struct{}{}
	}
	return nil
}

// Ruleset returns the ruleset for a visa subclass.
func (s *PolicySnapshot) Ruleset(visa string) (*Ruleset, bool) {
	for _, rs := range s.Rulesets {
		if rs.Visa == visa {
			return rs, true
		}
	}
	return nil, false
}
