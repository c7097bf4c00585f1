// internal/workers/policy/validate-ruleset/models.go
package validateruleset

import (
	"encoding/json"

	"migration-assessment/internal/common/validation"
)

type Input struct {
	Ruleset json.RawMessage `json:"ruleset" validate:"required"`
}

// Output reports problems as data; an invalid ruleset does not fail the job.
type Output struct {
	Valid    bool                         `json:"valid"`
	Visa     string                       `json:"visa,omitempty"`
	Version  string                       `json:"version,omitempty"`
	Criteria int                          `json:"criteria"`
	Errors   []validation.ValidationError `json:"errors"`
}
