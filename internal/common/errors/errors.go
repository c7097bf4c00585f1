// Package errors maps engine, store and worker failures onto the error codes
// and retry policy the BPMN processes act on.
package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"migration-assessment/internal/models"
)

// ==========================
// 1. Standard Error Types
// ==========================

type ErrorCode string

// Configuration errors: a bad or missing ruleset, never the applicant's fault.
const (
	ErrCodeRulesetInvalid   ErrorCode = "RULESET_INVALID"
	ErrCodeUnknownEvaluator ErrorCode = "UNKNOWN_EVALUATOR"
	ErrCodeRulesetNotFound  ErrorCode = "RULESET_NOT_FOUND"
)

// Applicant data and worker input errors.
const (
	ErrCodeProfileInvalid        ErrorCode = "PROFILE_INVALID"
	ErrCodeInputParseFailed      ErrorCode = "INPUT_PARSE_FAILED"
	ErrCodeInputValidationFailed ErrorCode = "INPUT_VALIDATION_FAILED"
)

// Audit record lifecycle errors.
const (
	ErrCodeAuditRecordNotFound    ErrorCode = "AUDIT_RECORD_NOT_FOUND"
	ErrCodeAuditRecordExists      ErrorCode = "AUDIT_RECORD_EXISTS"
	ErrCodeAuditAppendRejected    ErrorCode = "AUDIT_APPEND_REJECTED"
	ErrCodeAuditBindingIncomplete ErrorCode = "AUDIT_BINDING_INCOMPLETE"
)

// Infrastructure errors.
const (
	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeDatabaseInsertFailed     ErrorCode = "DATABASE_INSERT_FAILED"
	ErrCodeQueryTimeout             ErrorCode = "QUERY_TIMEOUT"
	ErrCodeCacheUnavailable         ErrorCode = "CACHE_UNAVAILABLE"
	ErrCodeIndexingFailed           ErrorCode = "INDEXING_FAILED"
	ErrCodeInternal                 ErrorCode = "INTERNAL_ERROR"
)

const (
	CategoryConfiguration = "CONFIGURATION"
	CategoryApplicantData = "APPLICANT_DATA"
	CategoryInput         = "INPUT"
	CategoryAudit         = "AUDIT"
	CategoryDatabase      = "DATABASE"
	CategoryCache         = "CACHE"
	CategorySearch        = "SEARCH"
	CategoryOther         = "OTHER"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	cause     error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// Category reports which side of the system the error belongs to.
func (e *StandardError) Category() string {
	return GetErrorCategory(e.Code)
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

func newError(code ErrorCode, message string, cause error) *StandardError {
	details := ""
	if cause != nil {
		details = cause.Error()
	}
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: GetRetryCount(code) > 0,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

func NewRulesetInvalidError(err error) *StandardError {
	return newError(ErrCodeRulesetInvalid, "Ruleset failed validation", err)
}

func NewUnknownEvaluatorError(err error) *StandardError {
	return newError(ErrCodeUnknownEvaluator, "Ruleset references an evaluator the engine does not implement", err)
}

func NewRulesetNotFoundError(err error) *StandardError {
	return newError(ErrCodeRulesetNotFound, "No published ruleset for policy snapshot", err)
}

func NewProfileInvalidError(err error) *StandardError {
	return newError(ErrCodeProfileInvalid, "Applicant profile is malformed or incomplete", err)
}

func NewInputParseFailedError(err error) *StandardError {
	return newError(ErrCodeInputParseFailed, "Job variables could not be parsed", err)
}

func NewInputValidationFailedError(details string) *StandardError {
	e := newError(ErrCodeInputValidationFailed, "Job variables failed validation", nil)
	e.Details = details
	return e
}

func NewAuditRecordNotFoundError(err error) *StandardError {
	return newError(ErrCodeAuditRecordNotFound, "No audit record exists for assessment", err)
}

func NewAuditRecordExistsError(err error) *StandardError {
	return newError(ErrCodeAuditRecordExists, "Audit record already exists for assessment", err)
}

func NewAuditAppendRejectedError(err error) *StandardError {
	return newError(ErrCodeAuditAppendRejected, "Audit record append rejected", err)
}

func NewDatabaseConnectionFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseConnectionFailed, "Database connection error", err)
}

func NewQueryExecutionFailedError(err error) *StandardError {
	return newError(ErrCodeQueryExecutionFailed, "Database query execution error", err)
}

func NewDatabaseInsertFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseInsertFailed, "Database insert operation failed", err)
}

func NewQueryTimeoutError(err error) *StandardError {
	return newError(ErrCodeQueryTimeout, "Operation timed out", err)
}

func NewIndexingFailedError(err error) *StandardError {
	return newError(ErrCodeIndexingFailed, "Audit record indexing failed", err)
}

func NewInternalError(err error) *StandardError {
	return newError(ErrCodeInternal, "Unexpected error", err)
}

// ==========================
// 4. Classification
// ==========================

// sentinelCodes lists the codes packages use as errors.New sentinels
// outside models.
var sentinelCodes = map[ErrorCode]func(error) *StandardError{
	ErrCodeDatabaseConnectionFailed: NewDatabaseConnectionFailedError,
	ErrCodeQueryExecutionFailed:     NewQueryExecutionFailedError,
	ErrCodeDatabaseInsertFailed:     NewDatabaseInsertFailedError,
	ErrCodeIndexingFailed:           NewIndexingFailedError,
	ErrCodeAuditBindingIncomplete: func(err error) *StandardError {
		return newError(ErrCodeAuditBindingIncomplete, "Assessment outputs are incomplete", err)
	},
	ErrCodeCacheUnavailable: func(err error) *StandardError {
		return newError(ErrCodeCacheUnavailable, "Ruleset cache unavailable", err)
	},
}

// Classify maps any error returned by the engine, the stores or a worker
// onto a StandardError. A StandardError anywhere in the chain is returned
// as is.
func Classify(err error) *StandardError {
	if err == nil {
		return nil
	}

	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}

	switch {
	case stderrors.Is(err, models.ErrUnknownEvaluator):
		return NewUnknownEvaluatorError(err)
	case stderrors.Is(err, models.ErrInvalidRuleset):
		return NewRulesetInvalidError(err)
	case stderrors.Is(err, models.ErrRulesetNotFound):
		return NewRulesetNotFoundError(err)
	case stderrors.Is(err, models.ErrMalformedProfile):
		return NewProfileInvalidError(err)
	case stderrors.Is(err, models.ErrRecordNotFound):
		return NewAuditRecordNotFoundError(err)
	case stderrors.Is(err, models.ErrRecordExists):
		return NewAuditRecordExistsError(err)
	case stderrors.Is(err, models.ErrAppendRejected):
		return NewAuditAppendRejectedError(err)
	case stderrors.Is(err, context.DeadlineExceeded):
		return NewQueryTimeoutError(err)
	}

	for e := err; e != nil; e = stderrors.Unwrap(e) {
		if build, ok := sentinelCodes[ErrorCode(e.Error())]; ok {
			return build(err)
		}
	}
	return NewInternalError(err)
}

// ==========================
// 5. BPMN Mapping
// ==========================

func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDatabaseConnectionFailed,
		ErrCodeQueryExecutionFailed,
		ErrCodeDatabaseInsertFailed,
		ErrCodeCacheUnavailable,
		ErrCodeIndexingFailed:
		return 3

	case ErrCodeQueryTimeout:
		return 2

	default:
		return 0
	}
}

func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      string(stdErr.Code),
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"errorCategory":     stdErr.Category(),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

func GetErrorCategory(code ErrorCode) string {
	switch code {
	case ErrCodeRulesetInvalid, ErrCodeUnknownEvaluator, ErrCodeRulesetNotFound:
		return CategoryConfiguration
	case ErrCodeProfileInvalid:
		return CategoryApplicantData
	}

	codeStr := string(code)
	switch {
	case strings.HasPrefix(codeStr, "INPUT_"):
		return CategoryInput
	case strings.HasPrefix(codeStr, "AUDIT_"):
		return CategoryAudit
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "QUERY"):
		return CategoryDatabase
	case strings.Contains(codeStr, "CACHE"):
		return CategoryCache
	case strings.Contains(codeStr, "INDEX"):
		return CategorySearch
	default:
		return CategoryOther
	}
}
