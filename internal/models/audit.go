// internal/models/audit.go
package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrRecordNotFound = errors.New("AUDIT_RECORD_NOT_FOUND")
	ErrRecordExists   = errors.New("AUDIT_RECORD_EXISTS")
	// ErrAppendRejected covers appends that would overwrite a written field.
	ErrAppendRejected = errors.New("AUDIT_APPEND_REJECTED")
)

type ReportPaths struct {
	HTML string `json:"html,omitempty"`
	PDF  string `json:"pdf,omitempty"`
}

type ReviewerSignoff struct {
	ReviewerName  string    `json:"reviewer_name"`
	LicenseNumber string    `json:"license_number"`
	SignedAt      time.Time `json:"signed_at"`
	Comments      string    `json:"comments,omitempty"`
}

// AuditRecord links one profile snapshot to the decisions computed from it.
// Everything but ReportPaths, ReviewerSignoff and UpdatedAt is write-once.
type AuditRecord struct {
	ID                 string                        `json:"id"`
	AssessmentID       string                        `json:"assessment_id"`
	TenantID           string                        `json:"tenant_id"`
	ProfileChecksum    string                        `json:"profile_checksum"`
	PolicySnapshotID   string                        `json:"policy_snapshot_id"`
	RulesetVersions    map[string]string             `json:"ruleset_versions"`
	EligibilityOutputs map[string]*EligibilityResult `json:"eligibility_outputs"`
	RiskOutputs        map[string]*RiskAssessment    `json:"risk_outputs"`
	EvidenceGaps       []EvidenceGap                 `json:"evidence_gaps"`
	ReportPaths        *ReportPaths                  `json:"report_paths,omitempty"`
	ReviewerSignoff    *ReviewerSignoff              `json:"reviewer_signoff,omitempty"`
	CreatedAt          time.Time                     `json:"created_at"`
	UpdatedAt          time.Time                     `json:"updated_at"`
}

// WithReportPaths returns a copy of the record with the given report
// locations added. A path that is already set may only be repeated, never
// replaced.
func (r AuditRecord) WithReportPaths(paths ReportPaths, now time.Time) (*AuditRecord, error) {
	paths.HTML = strings.TrimSpace(paths.HTML)
	paths.PDF = strings.TrimSpace(paths.PDF)
	if paths.HTML == "" && paths.PDF == "" {
		return nil, fmt.Errorf("%w: no report path given", ErrAppendRejected)
	}

	merged := ReportPaths{}
	if r.ReportPaths != nil {
		merged = *r.ReportPaths
	}
	if err := appendPath(&merged.HTML, paths.HTML, "html"); err != nil {
		return nil, err
	}
	if err := appendPath(&merged.PDF, paths.PDF, "pdf"); err != nil {
		return nil, err
	}

	r.ReportPaths = &merged
	r.UpdatedAt = now.UTC()
	return &r, nil
}

func appendPath(current *string, next, format string) error {
	if next == "" || *current == next {
		return nil
	}
	if *current != "" {
		return fmt.Errorf("%w: %s report path already set to %s", ErrAppendRejected, format, *current)
	}
	*current = next
	return nil
}

// WithSignoff returns a copy of the record signed off by a reviewer. A
// record is signed off at most once.
func (r AuditRecord) WithSignoff(signoff ReviewerSignoff, now time.Time) (*AuditRecord, error) {
	if r.ReviewerSignoff != nil {
		return nil, fmt.Errorf("%w: assessment %s already signed off by %s",
			ErrAppendRejected, r.AssessmentID, r.ReviewerSignoff.ReviewerName)
	}

	signoff.ReviewerName = strings.TrimSpace(signoff.ReviewerName)
	signoff.LicenseNumber = strings.TrimSpace(signoff.LicenseNumber)
	if signoff.ReviewerName == "" || signoff.LicenseNumber == "" {
		return nil, fmt.Errorf("%w: reviewer name and license number are required", ErrAppendRejected)
	}
	if signoff.SignedAt.IsZero() {
		signoff.SignedAt = now
	}
	signoff.SignedAt = signoff.SignedAt.UTC()

	r.ReviewerSignoff = &signoff
	r.UpdatedAt = now.UTC()
	return &r, nil
}
