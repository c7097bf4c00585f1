// internal/assessment/risk/analyzer.go
//
// Package risk runs a fixed battery of checks over an applicant profile and
// aggregates the resulting factors into an overall level. Like the
// eligibility evaluator it performs no I/O and takes the instant as input.
package risk

import (
	"fmt"
	"math"
	"slices"
	"sort"
	"time"

	"migration-assessment/internal/assessment/evidence"
	"migration-assessment/internal/models"
)

const (
	CodePointsMarginLow              = "POINTS_MARGIN_LOW"
	CodePointsBelowRecentTrends      = "POINTS_BELOW_RECENT_TRENDS"
	CodeAgeNearThreshold             = "AGE_NEAR_THRESHOLD"
	CodeANZSCOMismatch               = "ANZSCO_MISMATCH_RISK"
	CodeSkillsAssessmentExpiringSoon = "SKILLS_ASSESSMENT_EXPIRING_SOON"
	CodeSkillsAssessmentPending      = "SKILLS_ASSESSMENT_PENDING"
	CodeEmploymentEvidenceWeak       = "EMPLOYMENT_EVIDENCE_WEAK"
	CodeInconsistentEmployment       = "INCONSISTENT_EMPLOYMENT_HISTORY"
	CodeDutyStatementsMissing        = "DUTY_STATEMENTS_MISSING"
	CodeEnglishTestOld               = "ENGLISH_TEST_OLD"
	CodeEnglishScoreBorderline       = "ENGLISH_SCORE_BORDERLINE"
	CodePriorRefusal                 = "PRIOR_REFUSAL_FLAG"
	CodePriorCancellation            = "PRIOR_CANCELLATION_FLAG"
	CodeComplianceIssues             = "COMPLIANCE_ISSUES_FLAG"
	CodeOccupationVolatile           = "OCCUPATION_VOLATILE"
	CodeStatePolicyVolatile          = "STATE_POLICY_VOLATILE"
	CodeOccupationCeiling            = "OCCUPATION_CEILING_RISK"
	CodeStateNominationUnknown       = "STATE_NOMINATION_UNKNOWN"
	CodeStateNominationLowCertainty  = "STATE_NOMINATION_LOW_CERTAINTY"
	CodeRegionalRequirementsUnclear  = "REGIONAL_REQUIREMENTS_UNCLEAR"
	CodeVisaExpirySoon               = "VISA_EXPIRY_SOON"
	CodeStatusChange                 = "STATUS_CHANGE_RISK"
	CodeCoreDocsMissing              = "CORE_DOCS_MISSING"
	CodeFinancialEvidenceGap         = "FINANCIAL_EVIDENCE_GAP"
	CodeLowAuditDefensibility        = "LOW_AUDIT_DEFENSIBILITY"
)

const (
	MitigatingSkillsAssessment = "Positive skills assessment held"
	MitigatingStrongEnglish    = "Strong English test results"
	MitigatingHighPoints       = "High points score provides competitive advantage"
)

// A month is counted as a block of 30 days.
const monthDuration = 30 * 24 * time.Hour

type Analyzer struct {
	Policy Policy
}

func New(policy Policy) *Analyzer {
	return &Analyzer{Policy: policy}
}

// subject carries the profile plus facts several checks share.
type subject struct {
	data              models.ProfileData
	now               time.Time
	today             models.Date
	weakEvidenceCount int
	hasEmploymentGap  bool
	coreDocsMissing   bool
}

type check func(s *subject) *models.RiskFactor

// Assess runs the battery in its fixed order. Factor order in the result
// is the battery order.
func (a *Analyzer) Assess(profile *models.ApplicantProfile, now time.Time) (*models.RiskAssessment, error) {
	if err := profile.Validate(); err != nil {
		return nil, err
	}

	s := a.prepare(profile.Data, now)

	factors := []models.RiskFactor{}
	for _, c := range a.battery() {
		if f := c(s); f != nil {
			factors = append(factors, *f)
		}
	}

	return &models.RiskAssessment{
		OverallRiskLevel:  Aggregate(factors),
		RiskFactors:       factors,
		MitigatingFactors: a.mitigatingFactors(s),
		EvidenceGaps:      evidence.Merge(evidence.FromRiskFactors(factors)),
	}, nil
}

func (a *Analyzer) battery() []check {
	return []check{
		a.pointsMargin,
		a.pointsTrend,
		a.ageNearThreshold,
		anzscoMismatch,
		a.skillsAssessmentExpiring,
		skillsAssessmentPending,
		employmentEvidenceWeak,
		inconsistentEmployment,
		dutyStatementsMissing,
		a.englishTestOld,
		a.englishScoreBorderline,
		priorRefusal,
		priorCancellation,
		complianceIssues,
		a.occupationVolatile,
		a.statePolicyVolatile,
		a.occupationCeiling,
		stateNominationUnknown,
		stateNominationLowCertainty,
		regionalRequirements,
		a.visaExpirySoon,
		a.statusChange,
		coreDocsMissing,
		financialEvidenceGap,
		a.lowAuditDefensibility,
	}
}

func (a *Analyzer) prepare(data models.ProfileData, now time.Time) *subject {
	s := &subject{data: data, now: now, today: models.DateOf(now)}
	for _, e := range data.Employment {
		if e.EvidenceStrength == models.EvidenceWeak || e.EvidenceStrength == models.EvidenceUnknown {
			s.weakEvidenceCount++
		}
	}
	s.hasEmploymentGap = hasEmploymentGap(data.Employment, a.Policy.EmploymentGapMonths)
	docs := data.Documents
	s.coreDocsMissing = !docs.Passport || !docs.SkillsAssessment || !docs.EnglishTest
	return s
}

// Aggregate is a severity vote: any High wins, then two Mediums or one
// Medium backed by two Lows.
func Aggregate(factors []models.RiskFactor) models.RiskLevel {
	high, medium, low := 0, 0, 0
	for _, f := range factors {
		switch f.Level {
		case models.RiskHigh:
			high++
		case models.RiskMedium:
			medium++
		case models.RiskLow:
			low++
		}
	}

	switch {
	case high > 0:
		return models.RiskHigh
	case medium >= 2, medium >= 1 && low >= 2:
		return models.RiskMedium
	default:
		return models.RiskLow
	}
}

func (a *Analyzer) mitigatingFactors(s *subject) []string {
	mitigating := []string{}
	if s.data.Occupation.SkillsAssessment.Status == models.SkillsAssessmentPositive {
		mitigating = append(mitigating, MitigatingSkillsAssessment)
	}
	english := s.data.English
	if threshold, ok := models.EnglishThreshold(models.EnglishProficient, english.TestType); ok && english.Overall >= threshold {
		mitigating = append(mitigating, MitigatingStrongEnglish)
	}
	if s.data.PointsClaim.TotalPointsClaimed >= a.Policy.PointsStrongThreshold {
		mitigating = append(mitigating, MitigatingHighPoints)
	}
	return mitigating
}

func factor(code string, level models.RiskLevel, detail string) *models.RiskFactor {
	return &models.RiskFactor{Code: code, Level: level, Detail: detail}
}

// monthsBetween rounds the span from start to end up to whole 30-day
// months. Negative spans round toward zero.
func monthsBetween(start, end time.Time) int {
	return int(math.Ceil(float64(end.Sub(start)) / float64(monthDuration)))
}

// hasEmploymentGap only considers entries with an end date, in start order.
func hasEmploymentGap(entries []models.Employment, maxGapMonths int) bool {
	ended := make([]models.Employment, 0, len(entries))
	for _, e := range entries {
		if !e.EndDate.IsZero() {
			ended = append(ended, e)
		}
	}
	sort.SliceStable(ended, func(i, j int) bool {
		return ended[i].StartDate.Before(ended[j].StartDate.Time)
	})

	for i := 1; i < len(ended); i++ {
		gap := ended[i].StartDate.Sub(ended[i-1].EndDate.Time)
		if float64(gap)/float64(monthDuration) > float64(maxGapMonths) {
			return true
		}
	}
	return false
}

// ==========================
// Points and age
// ==========================

func (a *Analyzer) pointsMargin(s *subject) *models.RiskFactor {
	points := s.data.PointsClaim.TotalPointsClaimed
	if points >= a.Policy.PointsMarginThreshold {
		return nil
	}
	return factor(CodePointsMarginLow, models.RiskMedium,
		fmt.Sprintf("Points score of %d provides minimal margin above minimum thresholds", points))
}

func (a *Analyzer) pointsTrend(s *subject) *models.RiskFactor {
	if s.data.PointsClaim.TotalPointsClaimed >= a.Policy.PointsTrendThreshold {
		return nil
	}
	return factor(CodePointsBelowRecentTrends, models.RiskHigh,
		"Points score below recent invitation trends for competitive selection")
}

func (a *Analyzer) ageNearThreshold(s *subject) *models.RiskFactor {
	age := s.data.Person.AgeAt(s.now)
	if age < a.Policy.AgeUpperLimit-a.Policy.AgeWarningYears {
		return nil
	}
	return factor(CodeAgeNearThreshold, models.RiskMedium,
		fmt.Sprintf("Age %d approaching %d-year eligibility limit", age, a.Policy.AgeUpperLimit))
}

// ==========================
// Occupation and employment
// ==========================

func anzscoMismatch(s *subject) *models.RiskFactor {
	for _, e := range s.data.Employment {
		if e.DutiesAlignment == models.AlignmentLow || e.DutiesAlignment == models.AlignmentUnknown {
			return factor(CodeANZSCOMismatch, models.RiskHigh,
				"Employment duties may not align with nominated ANZSCO code")
		}
	}
	return nil
}

func (a *Analyzer) skillsAssessmentExpiring(s *subject) *models.RiskFactor {
	expiry := s.data.Occupation.SkillsAssessment.ExpiryDate
	if expiry.IsZero() {
		return nil
	}
	months := monthsBetween(s.today.Time, expiry.Time)
	if months > a.Policy.SkillsExpiryWindowMonths {
		return nil
	}
	return factor(CodeSkillsAssessmentExpiringSoon, models.RiskMedium,
		fmt.Sprintf("Skills assessment expires in %d months", months))
}

func skillsAssessmentPending(s *subject) *models.RiskFactor {
	if s.data.Occupation.SkillsAssessment.Status != models.SkillsAssessmentPending {
		return nil
	}
	return factor(CodeSkillsAssessmentPending, models.RiskHigh, "Skills assessment outcome still pending")
}

func employmentEvidenceWeak(s *subject) *models.RiskFactor {
	if s.weakEvidenceCount == 0 {
		return nil
	}
	return factor(CodeEmploymentEvidenceWeak, models.RiskHigh,
		fmt.Sprintf("%d employment periods have weak supporting evidence", s.weakEvidenceCount))
}

func inconsistentEmployment(s *subject) *models.RiskFactor {
	if !s.hasEmploymentGap {
		return nil
	}
	return factor(CodeInconsistentEmployment, models.RiskMedium,
		"Employment history contains unexplained gaps or inconsistencies")
}

func dutyStatementsMissing(s *subject) *models.RiskFactor {
	if s.data.Documents.EmploymentReferenceLetters {
		return nil
	}
	return factor(CodeDutyStatementsMissing, models.RiskMedium,
		"Employment reference letters with duty statements not confirmed")
}

// ==========================
// English
// ==========================

func (a *Analyzer) englishTestOld(s *subject) *models.RiskFactor {
	tested := s.data.English.TestDate
	if tested.IsZero() {
		return nil
	}
	months := monthsBetween(tested.Time, s.today.Time)
	if months < a.Policy.EnglishTestMaxAgeMonths {
		return nil
	}
	return factor(CodeEnglishTestOld, models.RiskMedium,
		fmt.Sprintf("English test is %d years old, approaching expiry", months/12))
}

func (a *Analyzer) englishScoreBorderline(s *subject) *models.RiskFactor {
	english := s.data.English
	threshold, ok := models.EnglishThreshold(models.EnglishCompetent, english.TestType)
	if !ok {
		return nil
	}
	for _, score := range english.Components() {
		if score <= threshold+a.Policy.EnglishBorderlineMargin {
			return factor(CodeEnglishScoreBorderline, models.RiskMedium,
				"English test scores are close to minimum requirements")
		}
	}
	return nil
}

// ==========================
// Visa history
// ==========================

func priorRefusal(s *subject) *models.RiskFactor {
	if !s.data.VisaHistory.PreviousRefusals {
		return nil
	}
	return factor(CodePriorRefusal, models.RiskHigh, "Previous visa refusals on record require careful consideration")
}

func priorCancellation(s *subject) *models.RiskFactor {
	if !s.data.VisaHistory.PreviousCancellations {
		return nil
	}
	return factor(CodePriorCancellation, models.RiskHigh, "Previous visa cancellations on record")
}

func complianceIssues(s *subject) *models.RiskFactor {
	if !s.data.VisaHistory.ComplianceIssues {
		return nil
	}
	return factor(CodeComplianceIssues, models.RiskHigh, "Previous compliance issues noted in visa history")
}

// ==========================
// Policy volatility and nomination
// ==========================

func (a *Analyzer) occupationVolatile(s *subject) *models.RiskFactor {
	if !slices.Contains(a.Policy.VolatileOccupations, s.data.Occupation.ANZSCOCode) {
		return nil
	}
	return factor(CodeOccupationVolatile, models.RiskMedium, "Nominated occupation subject to frequent policy changes")
}

func (a *Analyzer) statePolicyVolatile(s *subject) *models.RiskFactor {
	nomination := s.data.StateNomination
	if !nomination.SeekingNomination || !slices.Contains(a.Policy.VolatileStates, nomination.State) {
		return nil
	}
	return factor(CodeStatePolicyVolatile, models.RiskMedium, "State nomination policies subject to frequent changes")
}

func (a *Analyzer) occupationCeiling(s *subject) *models.RiskFactor {
	if !slices.Contains(a.Policy.CeilingOccupations, s.data.Occupation.ANZSCOCode) {
		return nil
	}
	return factor(CodeOccupationCeiling, models.RiskMedium, "Occupation may be subject to invitation ceiling limitations")
}

func stateNominationUnknown(s *subject) *models.RiskFactor {
	nomination := s.data.StateNomination
	if !nomination.SeekingNomination || nomination.OccupationListStatus != models.ListStatusUnknown {
		return nil
	}
	return factor(CodeStateNominationUnknown, models.RiskMedium, "State nomination eligibility not confirmed")
}

func stateNominationLowCertainty(s *subject) *models.RiskFactor {
	nomination := s.data.StateNomination
	if !nomination.SeekingNomination || nomination.OccupationListStatus != models.ListStatusOffList {
		return nil
	}
	return factor(CodeStateNominationLowCertainty, models.RiskHigh, "Low certainty of obtaining state nomination")
}

func regionalRequirements(s *subject) *models.RiskFactor {
	if s.data.PointsClaim.RegionalStudyPoints <= 0 {
		return nil
	}
	return factor(CodeRegionalRequirementsUnclear, models.RiskMedium,
		"Regional study requirements may need additional verification")
}

// ==========================
// Current visa status
// ==========================

func (a *Analyzer) visaExpirySoon(s *subject) *models.RiskFactor {
	expiry := s.data.VisaHistory.VisaExpiryDate
	if expiry.IsZero() {
		return nil
	}
	months := monthsBetween(s.today.Time, expiry.Time)
	if months > a.Policy.VisaExpiryWindowMonths {
		return nil
	}
	return factor(CodeVisaExpirySoon, models.RiskHigh, fmt.Sprintf("Current visa expires in %d months", months))
}

func (a *Analyzer) statusChange(s *subject) *models.RiskFactor {
	if !slices.Contains(a.Policy.StatusChangeSubclasses, s.data.VisaHistory.CurrentVisaSubclass) {
		return nil
	}
	return factor(CodeStatusChange, models.RiskMedium, "Temporary visa holder requires status change consideration")
}

// ==========================
// Documents and defensibility
// ==========================

func coreDocsMissing(s *subject) *models.RiskFactor {
	if !s.coreDocsMissing {
		return nil
	}
	return factor(CodeCoreDocsMissing, models.RiskHigh, "Core application documents not confirmed available")
}

func financialEvidenceGap(s *subject) *models.RiskFactor {
	if s.data.Documents.BankStatements {
		return nil
	}
	return factor(CodeFinancialEvidenceGap, models.RiskMedium, "Financial capacity evidence not confirmed")
}

func (a *Analyzer) lowAuditDefensibility(s *subject) *models.RiskFactor {
	indicators := 0
	for _, present := range []bool{s.weakEvidenceCount > 0, s.hasEmploymentGap, s.coreDocsMissing} {
		if present {
			indicators++
		}
	}
	if indicators < a.Policy.DefensibilityMinIndicators {
		return nil
	}
	return factor(CodeLowAuditDefensibility, models.RiskHigh,
		"Application may not withstand detailed departmental scrutiny")
}
