// internal/assessment/evidence/catalog.go
package evidence

import "migration-assessment/internal/models"

func gap(priority models.Priority, item, rationale string) models.EvidenceGap {
	return models.EvidenceGap{Priority: priority, Item: item, Rationale: rationale}
}

var (
	birthCertificate = gap(models.PriorityHigh, "Birth certificate verification",
		"Age eligibility must be verified with official documentation")
	skillsAssessment = gap(models.PriorityHigh, "Positive skills assessment",
		"Skills assessment from relevant authority required for eligibility")
	englishResults = gap(models.PriorityHigh, "English test results meeting competent level",
		"Minimum English requirement not met")
	pointsOptimisation = gap(models.PriorityHigh, "Points optimization strategy",
		"Current points below minimum threshold")
	nominationApplication = gap(models.PriorityHigh, "State nomination application",
		"State nomination required for subclass 190")
)

// criterionGaps maps hard-failure criterion codes, including the names
// older rulesets used, to the item that remedies them.
var criterionGaps = map[string]models.EvidenceGap{
	"AGE_RANGE":               birthCertificate,
	"AGE_REQUIREMENT":         birthCertificate,
	"SKILLS_ASSESSMENT_VALID": skillsAssessment,
	"SKILLS_ASSESSMENT":       skillsAssessment,
	"ENGLISH_MINIMUM":         englishResults,
	"ENGLISH_COMPETENT":       englishResults,
	"POINTS_MINIMUM":          pointsOptimisation,
	"POINTS_THRESHOLD":        pointsOptimisation,
	"STATE_NOMINATION":        nominationApplication,
}

var riskGaps = map[string]models.EvidenceGap{
	"EMPLOYMENT_EVIDENCE_WEAK": gap(models.PriorityHigh, "Employment verification package",
		"Strengthen employment claims with contracts, payslips, and detailed references"),
	"CORE_DOCS_MISSING": gap(models.PriorityHigh, "Core application documents",
		"Essential documents (passport, skills assessment, English test) must be available"),
	"DUTY_STATEMENTS_MISSING": gap(models.PriorityMedium, "Employment reference letters with duty statements",
		"Detailed duty statements required to demonstrate ANZSCO alignment"),
	"SKILLS_ASSESSMENT_EXPIRING_SOON": gap(models.PriorityHigh, "Skills assessment renewal",
		"Current assessment expires soon, renewal required before application"),
	"ENGLISH_TEST_OLD": gap(models.PriorityMedium, "Updated English test results",
		"Current test results approaching 3-year validity limit"),
	"VISA_EXPIRY_SOON": gap(models.PriorityHigh, "Urgent application lodgement",
		"Current visa expires soon, immediate action required"),
	"PRIOR_REFUSAL_FLAG": gap(models.PriorityHigh, "Previous refusal response documentation",
		"Must address reasons for previous refusal with comprehensive evidence"),
	"STATE_NOMINATION_UNKNOWN": gap(models.PriorityHigh, "State nomination eligibility confirmation",
		"Verify occupation on state list and meet state-specific requirements"),
	"FINANCIAL_EVIDENCE_GAP": gap(models.PriorityMedium, "Financial capacity documentation",
		"Bank statements and asset evidence may be required"),
}

type documentCheck struct {
	present func(d *models.Documents) bool
	gap     models.EvidenceGap
}

// documentChecks runs in checklist order.
var documentChecks = []documentCheck{
	{
		present: func(d *models.Documents) bool { return d.Passport },
		gap:     gap(models.PriorityHigh, "Current passport", "Valid passport required for identity verification"),
	},
	{
		present: func(d *models.Documents) bool { return d.SkillsAssessment },
		gap: gap(models.PriorityHigh, "Skills assessment documentation",
			"Skills assessment letter and supporting documents required"),
	},
	{
		present: func(d *models.Documents) bool { return d.EnglishTest },
		gap:     gap(models.PriorityHigh, "English test results", "Official English test results required for points claim"),
	},
	{
		present: func(d *models.Documents) bool { return d.EmploymentReferenceLetters },
		gap: gap(models.PriorityHigh, "Employment reference letters",
			"Reference letters required to verify employment claims"),
	},
	{
		present: func(d *models.Documents) bool { return d.EmploymentContracts },
		gap:     gap(models.PriorityMedium, "Employment contracts", "Contracts strengthen employment verification"),
	},
	{
		present: func(d *models.Documents) bool { return d.Payslips },
		gap:     gap(models.PriorityMedium, "Payslips", "Recent payslips support employment and salary claims"),
	},
	{
		present: func(d *models.Documents) bool { return d.CV },
		gap:     gap(models.PriorityLow, "Current CV/Resume", "Updated CV provides employment history overview"),
	},
	{
		present: func(d *models.Documents) bool { return d.BankStatements },
		gap:     gap(models.PriorityLow, "Bank statements", "Financial evidence may be requested by Department"),
	},
}
