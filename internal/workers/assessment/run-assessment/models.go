// internal/workers/assessment/run-assessment/models.go
package runassessment

import (
	"encoding/json"

	"migration-assessment/internal/models"
)

type Input struct {
	AssessmentID     string          `json:"assessmentId" validate:"required,max=128"`
	TenantID         string          `json:"tenantId" validate:"max=128"`
	PolicySnapshotID string          `json:"policySnapshotId" validate:"max=128"`
	EvaluatedAt      string          `json:"evaluatedAt,omitempty"` // RFC 3339
	Profile          json.RawMessage `json:"profile" validate:"required"`
}

type Output struct {
	AssessmentID    string                               `json:"assessmentId"`
	AuditRecordID   string                               `json:"auditRecordId"`
	ProfileChecksum string                               `json:"profileChecksum"`
	OverallStatus   models.EligibilityStatus             `json:"overallStatus"`
	Eligibility     map[string]*models.EligibilityResult `json:"eligibility"`
	Risk            *models.RiskAssessment               `json:"risk"`
	EvidenceGaps    []models.EvidenceGap                 `json:"evidenceGaps"`
	RulesetVersions map[string]string                    `json:"rulesetVersions"`
	EvaluatedAt     string                               `json:"evaluatedAt"`
}
