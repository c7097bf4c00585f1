// internal/assessment/audit/binder.go
//
// Package audit binds a profile snapshot to the decisions computed from it
// and appends report locations and reviewer signoffs to existing records.
package audit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"migration-assessment/internal/models"
)

var ErrIncompleteBinding = errors.New("AUDIT_BINDING_INCOMPLETE")

type BindInput struct {
	AssessmentID       string
	TenantID           string
	Profile            *models.ApplicantProfile
	PolicySnapshotID   string
	RulesetVersions    map[string]string
	EligibilityOutputs map[string]*models.EligibilityResult
	RiskOutputs        map[string]*models.RiskAssessment
	EvidenceGaps       []models.EvidenceGap
}

// Store persists audit records. Update applies fn to the current record and
// stores what it returns in one atomic step; it returns
// models.ErrRecordNotFound when no record exists for the assessment.
type Store interface {
	Create(ctx context.Context, record *models.AuditRecord) error
	Get(ctx context.Context, assessmentID string) (*models.AuditRecord, error)
	Update(ctx context.Context, assessmentID string, fn func(models.AuditRecord) (*models.AuditRecord, error)) (*models.AuditRecord, error)
}

// Bind packages the outputs with a checksum of the profile data. The record
// has no ID or timestamps; the store assigns those.
func Bind(in BindInput) (*models.AuditRecord, error) {
	if strings.TrimSpace(in.AssessmentID) == "" {
		return nil, fmt.Errorf("%w: assessment id is required", ErrIncompleteBinding)
	}
	if strings.TrimSpace(in.PolicySnapshotID) == "" {
		return nil, fmt.Errorf("%w: policy snapshot id is required", ErrIncompleteBinding)
	}
	if err := in.Profile.Validate(); err != nil {
		return nil, err
	}

	checksum, err := ProfileChecksum(in.Profile)
	if err != nil {
		return nil, fmt.Errorf("failed to checksum profile %s: %w", in.Profile.ID, err)
	}

	record := &models.AuditRecord{
		AssessmentID:       in.AssessmentID,
		TenantID:           in.TenantID,
		ProfileChecksum:    checksum,
		PolicySnapshotID:   in.PolicySnapshotID,
		RulesetVersions:    make(map[string]string, len(in.RulesetVersions)),
		EligibilityOutputs: make(map[string]*models.EligibilityResult, len(in.EligibilityOutputs)),
		RiskOutputs:        make(map[string]*models.RiskAssessment, len(in.RiskOutputs)),
		EvidenceGaps:       append([]models.EvidenceGap{}, in.EvidenceGaps...),
	}
	for visa, version := range in.RulesetVersions {
		record.RulesetVersions[visa] = version
	}
	for visa, result := range in.EligibilityOutputs {
		record.EligibilityOutputs[visa] = result
	}
	for visa, assessment := range in.RiskOutputs {
		record.RiskOutputs[visa] = assessment
	}
	return record, nil
}

// AttachReportPaths appends rendered report locations to the record for
// the assessment.
func AttachReportPaths(ctx context.Context, store Store, assessmentID string, paths models.ReportPaths, now time.Time) (*models.AuditRecord, error) {
	return store.Update(ctx, assessmentID, func(current models.AuditRecord) (*models.AuditRecord, error) {
		return current.WithReportPaths(paths, now)
	})
}

// AttachSignoff records the reviewer signoff for the assessment.
func AttachSignoff(ctx context.Context, store Store, assessmentID string, signoff models.ReviewerSignoff, now time.Time) (*models.AuditRecord, error) {
	return store.Update(ctx, assessmentID, func(current models.AuditRecord) (*models.AuditRecord, error) {
		return current.WithSignoff(signoff, now)
	})
}
