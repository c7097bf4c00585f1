// internal/assessment/eligibility/evaluator.go
//
// Package eligibility applies a ruleset's criteria to an applicant profile.
// Evaluation is pure: no I/O and no clock reads; the instant is an input.
package eligibility

import (
	"fmt"
	"time"

	"migration-assessment/internal/models"
)

// Evaluate runs every criterion of the ruleset against the profile at now.
// A malformed profile or an unsupported rule aborts evaluation with no
// partial result.
func Evaluate(profile *models.ApplicantProfile, ruleset *models.Ruleset, now time.Time) (*models.EligibilityResult, error) {
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	if ruleset == nil {
		return nil, fmt.Errorf("%w: ruleset is nil", models.ErrInvalidRuleset)
	}

	result := &models.EligibilityResult{
		EligibilityReasons: []models.EligibilityReason{},
		MissingCriteria:    []string{},
		PointsScore:        profile.Data.PointsClaim.TotalPointsClaimed,
	}

	hardFailures, softFailures := 0, 0
	for _, criterion := range ruleset.Criteria {
		passed, message, err := evaluateCriterion(profile, criterion, now)
		if err != nil {
			return nil, fmt.Errorf("ruleset %s@%s criterion %s: %w", ruleset.Visa, ruleset.Version, criterion.Code, err)
		}
		if passed {
			continue
		}

		result.EligibilityReasons = append(result.EligibilityReasons, models.EligibilityReason{
			Code:     criterion.Code,
			Message:  message,
			Severity: criterion.Severity,
		})
		if criterion.Severity == models.SeverityHard {
			hardFailures++
			result.MissingCriteria = append(result.MissingCriteria, criterion.Code)
		} else {
			softFailures++
		}
	}

	result.EligibilityStatus = aggregate(hardFailures, softFailures)
	return result, nil
}

// aggregate lets any hard failure dominate soft failures.
func aggregate(hardFailures, softFailures int) models.EligibilityStatus {
	switch {
	case hardFailures > 0:
		return models.StatusNotEligible
	case softFailures > 0:
		return models.StatusBorderline
	default:
		return models.StatusEligible
	}
}

func evaluateCriterion(profile *models.ApplicantProfile, c models.Criterion, now time.Time) (bool, string, error) {
	data := profile.Data

	switch rule := c.Rule.(type) {
	case models.AgeBetween:
		age := data.Person.AgeAt(now)
		return age >= rule.Min && age < rule.Max, c.Description, nil

	case models.SkillsAssessmentValid:
		sa := data.Occupation.SkillsAssessment
		passed := sa.Status == models.SkillsAssessmentPositive && sa.ExpiryDate.After(models.DateOf(now).Time)
		return passed, c.Description, nil

	case models.EnglishMinimum:
		return meetsEnglish(data.English, rule.Level), c.Description, nil

	case models.PointsMinimum:
		total := data.PointsClaim.TotalPointsClaimed
		message := fmt.Sprintf("Must score at least %d points (current: %d)", rule.Minimum, total)
		return total >= rule.Minimum, message, nil

	default:
		return false, "", fmt.Errorf("%w: %T", models.ErrUnknownEvaluator, c.Rule)
	}
}

// meetsEnglish fails when no threshold exists for the level and test type.
func meetsEnglish(english *models.EnglishTest, level models.EnglishLevel) bool {
	threshold, ok := models.EnglishThreshold(level, english.TestType)
	if !ok {
		return false
	}
	for _, score := range english.Components() {
		if score < threshold {
			return false
		}
	}
	return true
}
