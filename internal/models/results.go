// internal/models/results.go
package models

type EligibilityStatus string

const (
	StatusEligible    EligibilityStatus = "Eligible"
	StatusBorderline  EligibilityStatus = "Borderline"
	StatusNotEligible EligibilityStatus = "NotEligible"
)

type EligibilityReason struct {
	Code     string   `json:"code"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

type EligibilityResult struct {
	EligibilityStatus  EligibilityStatus   `json:"eligibility_status"`
	EligibilityReasons []EligibilityReason `json:"eligibility_reasons"`
	MissingCriteria    []string            `json:"missing_criteria"`
	PointsScore        int                 `json:"points_score"`
}

type RiskLevel string

const (
	RiskLow    RiskLevel = "Low"
	RiskMedium RiskLevel = "Medium"
	RiskHigh   RiskLevel = "High"
)

type RiskFactor struct {
	Code   string    `json:"code"`
	Level  RiskLevel `json:"level"`
	Detail string    `json:"detail"`
}

// RiskAssessment keeps factors in check order, never sorted by level.
type RiskAssessment struct {
	OverallRiskLevel  RiskLevel     `json:"overall_risk_level"`
	RiskFactors       []RiskFactor  `json:"risk_factors"`
	MitigatingFactors []string      `json:"mitigating_factors"`
	EvidenceGaps      []EvidenceGap `json:"evidence_gaps,omitempty"`
}

type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

// Rank orders priorities High > Medium > Low; unknown values rank lowest.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

type EvidenceGap struct {
	Priority  Priority `json:"priority"`
	Item      string   `json:"item"`
	Rationale string   `json:"rationale"`
}
