// internal/policy/builtin.go
package policy

import (
	"time"

	"migration-assessment/internal/models"
)

const BuiltinSnapshotID = "au-2026-01-01"

// Builtin returns the policy snapshot compiled into the binary. It backs the
// offline assess tool and seeds new deployments.
func Builtin() *models.PolicySnapshot {
	return &models.PolicySnapshot{
		ID:            BuiltinSnapshotID,
		EffectiveDate: models.NewDate(2026, time.January, 1),
		References: []models.PolicyReference{
			{Type: "regulation", Label: "Migration Regulations 1994", Ref: "Schedule 2"},
			{Type: "regulation", Label: "Points Test", Ref: "Schedule 6D"},
		},
		Rulesets: []*models.Ruleset{
			skilledRuleset("189", "Subclass 189", "Schedule 2, Part 189", 65,
				"Must score at least 65 points"),
			skilledRuleset("190", "Subclass 190", "Schedule 2, Part 190", 60,
				"Must score at least 60 points (including nomination)"),
		},
	}
}

func skilledRuleset(visa, label, ref string, minimumPoints int, pointsDescription string) *models.Ruleset {
	return &models.Ruleset{
		PolicySnapshotID: BuiltinSnapshotID,
		Visa:             visa,
		Version:          "1.0.0",
		Criteria: []models.Criterion{
			{
				Code:        "AGE_RANGE",
				Description: "Applicant must be under 45 years of age",
				Severity:    models.SeverityHard,
				Rule:        models.AgeBetween{Min: 18, Max: 45},
			},
			{
				Code:        "SKILLS_ASSESSMENT_VALID",
				Description: "Must hold valid positive skills assessment",
				Severity:    models.SeverityHard,
				Rule:        models.SkillsAssessmentValid{},
			},
			{
				Code:        "ENGLISH_MINIMUM",
				Description: "Must demonstrate Competent English",
				Severity:    models.SeverityHard,
				Rule:        models.EnglishMinimum{Level: models.EnglishCompetent},
			},
			{
				Code:        "POINTS_MINIMUM",
				Description: pointsDescription,
				Severity:    models.SeverityHard,
				Rule:        models.PointsMinimum{Minimum: minimumPoints},
			},
		},
		PolicyReferences: []models.PolicyReference{
			{Type: "regulation", Label: label, Ref: ref},
		},
	}
}
