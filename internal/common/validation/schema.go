// internal/common/validation/schema.go
package validation

import (
	"embed"
	"fmt"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schemas/*.json
var schemaFiles embed.FS

var (
	profileSchema = mustLoadSchema("schemas/profile.json")
	rulesetSchema = mustLoadSchema("schemas/ruleset.json")
)

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Summary joins the individual failures into one message.
func (r *ValidationResult) Summary() string {
	if r == nil || r.Valid {
		return ""
	}
	parts := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		parts[i] = e.Field + ": " + e.Message
	}
	return strings.Join(parts, "; ")
}

func mustLoadSchema(name string) *gojsonschema.Schema {
	raw, err := schemaFiles.ReadFile(name)
	if err != nil {
		panic(fmt.Sprintf("read schema %s: %v", name, err))
	}
	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		panic(fmt.Sprintf("compile schema %s: %v", name, err))
	}
	return schema
}

// ValidateProfileDocument checks a raw applicant profile document for
// structure and value types. Semantic checks happen after decoding.
func ValidateProfileDocument(raw []byte) (*ValidationResult, error) {
	return validateDocument(profileSchema, gojsonschema.NewBytesLoader(raw))
}

// ValidateRulesetDocument checks a raw ruleset document before its criteria
// are compiled.
func ValidateRulesetDocument(raw []byte) (*ValidationResult, error) {
	return validateDocument(rulesetSchema, gojsonschema.NewBytesLoader(raw))
}

func validateDocument(schema *gojsonschema.Schema, document gojsonschema.JSONLoader) (*ValidationResult, error) {
	result, err := schema.Validate(document)
	if err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}

	errs := make([]ValidationError, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		errs = append(errs, ValidationError{
			Field:   desc.Field(),
			Message: desc.Description(),
			Code:    desc.Type(),
		})
	}
	sort.SliceStable(errs, func(i, j int) bool { return errs[i].Field < errs[j].Field })

	return &ValidationResult{
		Valid:  result.Valid(),
		Errors: errs,
	}, nil
}
