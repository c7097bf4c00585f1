package eligibility

import (
	"errors"
	"testing"
	"time"

	"migration-assessment/internal/models"
	"migration-assessment/internal/policy"
	"migration-assessment/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestRuleset(t *testing.T, visa string) *models.Ruleset {
	t.Helper()
	rs, ok := policy.Builtin().Ruleset(visa)
	require.True(t, ok, "builtin ruleset %s missing", visa)
	return rs
}

func singleCriterionRuleset(code string, severity models.Severity, rule models.Rule) *models.Ruleset {
	return &models.Ruleset{
		Visa:    "189",
		Version: "test",
		Criteria: []models.Criterion{
			{Code: code, Description: code + " description", Severity: severity, Rule: rule},
		},
	}
}

// ==========================
// Core Functionality Tests
// ==========================

func TestEvaluate_BaseProfileEligible(t *testing.T) {
	result, err := Evaluate(testutil.BaseProfile(), createTestRuleset(t, "189"), testutil.Now)

	require.NoError(t, err)
	assert.Equal(t, models.StatusEligible, result.EligibilityStatus)
	assert.Empty(t, result.EligibilityReasons)
	assert.Empty(t, result.MissingCriteria)
	assert.NotNil(t, result.MissingCriteria)
	assert.Equal(t, 80, result.PointsScore)
}

func TestEvaluate_AgeOverLimit(t *testing.T) {
	profile := testutil.BaseProfile()
	profile.Data.Person.DateOfBirth = models.NewDate(1978, time.June, 15) // 46 at the pinned instant

	result, err := Evaluate(profile, createTestRuleset(t, "189"), testutil.Now)

	require.NoError(t, err)
	assert.Equal(t, models.StatusNotEligible, result.EligibilityStatus)
	assert.Contains(t, result.MissingCriteria, "AGE_RANGE")
	require.Len(t, result.EligibilityReasons, 1)
	assert.Equal(t, models.SeverityHard, result.EligibilityReasons[0].Severity)
	assert.Equal(t, "Applicant must be under 45 years of age", result.EligibilityReasons[0].Message)
}

func TestEvaluate_AgeBoundaries(t *testing.T) {
	rs := singleCriterionRuleset("AGE_RANGE", models.SeverityHard, models.AgeBetween{Min: 18, Max: 45})
	now := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		dob    models.Date
		passed bool
	}{
		{"turns 45 today", models.NewDate(1980, time.March, 10), false},
		{"turns 45 tomorrow", models.NewDate(1980, time.March, 11), true},
		{"turns 18 today", models.NewDate(2007, time.March, 10), true},
		{"turns 18 tomorrow", models.NewDate(2007, time.March, 11), false},
		{"44 and a half", models.NewDate(1980, time.September, 1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profile := testutil.BaseProfile()
			profile.Data.Person.DateOfBirth = tt.dob

			result, err := Evaluate(profile, rs, now)

			require.NoError(t, err)
			assert.Equal(t, tt.passed, len(result.MissingCriteria) == 0)
		})
	}
}

func TestAgeAt_BirthdayArithmetic(t *testing.T) {
	tests := []struct {
		name string
		dob  models.Date
		now  time.Time
		want int
	}{
		{"on birthday", models.NewDate(1990, time.May, 20), time.Date(2025, time.May, 20, 0, 0, 0, 0, time.UTC), 35},
		{"day before birthday", models.NewDate(1990, time.May, 20), time.Date(2025, time.May, 19, 23, 59, 0, 0, time.UTC), 34},
		{"earlier month", models.NewDate(1990, time.May, 20), time.Date(2025, time.April, 30, 0, 0, 0, 0, time.UTC), 34},
		{"later month", models.NewDate(1990, time.May, 20), time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC), 35},
		{"leap day birth", models.NewDate(2000, time.February, 29), time.Date(2025, time.February, 28, 0, 0, 0, 0, time.UTC), 24},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			person := &models.Person{DateOfBirth: tt.dob}
			assert.Equal(t, tt.want, person.AgeAt(tt.now))
		})
	}
}

func TestEvaluate_SkillsAssessment(t *testing.T) {
	rs := singleCriterionRuleset("SKILLS_ASSESSMENT_VALID", models.SeverityHard, models.SkillsAssessmentValid{})

	tests := []struct {
		name   string
		status models.SkillsAssessmentStatus
		expiry models.Date
		passed bool
	}{
		{"positive and current", models.SkillsAssessmentPositive, models.NewDate(2027, time.January, 1), true},
		{"positive but expired", models.SkillsAssessmentPositive, models.NewDate(2024, time.December, 31), false},
		{"expires today", models.SkillsAssessmentPositive, models.NewDate(2025, time.January, 1), false},
		{"pending", models.SkillsAssessmentPending, models.NewDate(2027, time.January, 1), false},
		{"no expiry recorded", models.SkillsAssessmentPositive, models.Date{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profile := testutil.BaseProfile()
			profile.Data.Occupation.SkillsAssessment.Status = tt.status
			profile.Data.Occupation.SkillsAssessment.ExpiryDate = tt.expiry

			result, err := Evaluate(profile, rs, testutil.Now)

			require.NoError(t, err)
			if tt.passed {
				assert.Equal(t, models.StatusEligible, result.EligibilityStatus)
			} else {
				assert.Equal(t, []string{"SKILLS_ASSESSMENT_VALID"}, result.MissingCriteria)
			}
		})
	}
}

func TestEvaluate_SkillsExpiryUsesLocalCalendarDay(t *testing.T) {
	sydney, err := time.LoadLocation("Australia/Sydney")
	require.NoError(t, err)
	rs := singleCriterionRuleset("SKILLS_ASSESSMENT_VALID", models.SeverityHard, models.SkillsAssessmentValid{})

	tests := []struct {
		name   string
		expiry models.Date
		passed bool
	}{
		{"expires on the local day", models.NewDate(2026, time.October, 15), false},
		{"expires the next local day", models.NewDate(2026, time.October, 16), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, hour := range []int{0, 9, 12, 23} {
				profile := testutil.BaseProfile()
				profile.Data.Occupation.SkillsAssessment.ExpiryDate = tt.expiry
				now := time.Date(2026, time.October, 15, hour, 30, 0, 0, sydney)

				result, err := Evaluate(profile, rs, now)

				require.NoError(t, err)
				if tt.passed {
					assert.Empty(t, result.MissingCriteria, "at %02d:30", hour)
				} else {
					assert.Equal(t, []string{"SKILLS_ASSESSMENT_VALID"}, result.MissingCriteria, "at %02d:30", hour)
				}
			}
		})
	}
}

func TestEvaluate_EnglishMinimum(t *testing.T) {
	tests := []struct {
		name     string
		level    models.EnglishLevel
		testType models.EnglishTestType
		scores   [4]float64
		passed   bool
	}{
		{"IELTS competent met", models.EnglishCompetent, models.TestIELTS, [4]float64{6, 6, 6, 6}, true},
		{"IELTS competent one short", models.EnglishCompetent, models.TestIELTS, [4]float64{6, 6, 5.5, 6}, false},
		{"PTE proficient met", models.EnglishProficient, models.TestPTE, [4]float64{65, 70, 66, 80}, true},
		{"TOEFL superior short", models.EnglishSuperior, models.TestTOEFL, [4]float64{94, 94, 93, 94}, false},
		{"NA never passes", models.EnglishCompetent, models.TestNA, [4]float64{9, 9, 9, 9}, false},
		{"unsupported test type fails", models.EnglishCompetent, models.TestOET, [4]float64{400, 400, 400, 400}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profile := testutil.BaseProfile()
			english := profile.Data.English
			english.TestType = tt.testType
			english.Listening, english.Reading, english.Writing, english.Speaking =
				tt.scores[0], tt.scores[1], tt.scores[2], tt.scores[3]

			rs := singleCriterionRuleset("ENGLISH_MINIMUM", models.SeverityHard, models.EnglishMinimum{Level: tt.level})
			result, err := Evaluate(profile, rs, testutil.Now)

			require.NoError(t, err)
			assert.Equal(t, tt.passed, result.EligibilityStatus == models.StatusEligible)
		})
	}
}

func TestEvaluate_PointsMinimum(t *testing.T) {
	profile := testutil.BaseProfile()
	profile.Data.PointsClaim.TotalPointsClaimed = 70

	passing := singleCriterionRuleset("POINTS_MINIMUM", models.SeverityHard, models.PointsMinimum{Minimum: 65})
	result, err := Evaluate(profile, passing, testutil.Now)
	require.NoError(t, err)
	assert.Equal(t, models.StatusEligible, result.EligibilityStatus)
	assert.Equal(t, 70, result.PointsScore)

	failing := singleCriterionRuleset("POINTS_MINIMUM", models.SeverityHard, models.PointsMinimum{Minimum: 90})
	result, err = Evaluate(profile, failing, testutil.Now)
	require.NoError(t, err)
	assert.Equal(t, models.StatusNotEligible, result.EligibilityStatus)
	require.Len(t, result.EligibilityReasons, 1)
	assert.Equal(t, "Must score at least 90 points (current: 70)", result.EligibilityReasons[0].Message)
	assert.Equal(t, 70, result.PointsScore)
}

// ==========================
// Aggregation Tests
// ==========================

func TestEvaluate_SoftFailureIsBorderline(t *testing.T) {
	rs := &models.Ruleset{
		Visa:    "189",
		Version: "test",
		Criteria: []models.Criterion{
			{Code: "AGE_RANGE", Description: "age", Severity: models.SeverityHard, Rule: models.AgeBetween{Min: 18, Max: 45}},
			{Code: "POINTS_PREFERRED", Description: "preferred points", Severity: models.SeveritySoft, Rule: models.PointsMinimum{Minimum: 95}},
		},
	}

	result, err := Evaluate(testutil.BaseProfile(), rs, testutil.Now)

	require.NoError(t, err)
	assert.Equal(t, models.StatusBorderline, result.EligibilityStatus)
	assert.Empty(t, result.MissingCriteria)
	require.Len(t, result.EligibilityReasons, 1)
	assert.Equal(t, "POINTS_PREFERRED", result.EligibilityReasons[0].Code)
	assert.Equal(t, models.SeveritySoft, result.EligibilityReasons[0].Severity)
}

func TestEvaluate_HardFailureDominatesSoft(t *testing.T) {
	profile := testutil.BaseProfile()
	profile.Data.Occupation.SkillsAssessment.Status = models.SkillsAssessmentPending

	rs := &models.Ruleset{
		Visa:    "189",
		Version: "test",
		Criteria: []models.Criterion{
			{Code: "POINTS_PREFERRED", Description: "preferred points", Severity: models.SeveritySoft, Rule: models.PointsMinimum{Minimum: 95}},
			{Code: "SKILLS_ASSESSMENT_VALID", Description: "skills", Severity: models.SeverityHard, Rule: models.SkillsAssessmentValid{}},
		},
	}

	result, err := Evaluate(profile, rs, testutil.Now)

	require.NoError(t, err)
	assert.Equal(t, models.StatusNotEligible, result.EligibilityStatus)
	assert.Equal(t, []string{"SKILLS_ASSESSMENT_VALID"}, result.MissingCriteria)
	assert.Len(t, result.EligibilityReasons, 2)
	assert.Equal(t, "POINTS_PREFERRED", result.EligibilityReasons[0].Code, "reasons follow ruleset order")
}

func TestEvaluate_Deterministic(t *testing.T) {
	profile := testutil.BaseProfile()
	profile.Data.PointsClaim.TotalPointsClaimed = 62
	rs := createTestRuleset(t, "189")

	first, err := Evaluate(profile, rs, testutil.Now)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := Evaluate(profile, rs, testutil.Now)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

// ==========================
// Error Handling Tests
// ==========================

func TestEvaluate_MalformedProfile(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *models.ApplicantProfile)
	}{
		{"missing person", func(p *models.ApplicantProfile) { p.Data.Person = nil }},
		{"missing english", func(p *models.ApplicantProfile) { p.Data.English = nil }},
		{"missing skills assessment", func(p *models.ApplicantProfile) { p.Data.Occupation.SkillsAssessment = nil }},
		{"missing date of birth", func(p *models.ApplicantProfile) { p.Data.Person.DateOfBirth = models.Date{} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profile := testutil.BaseProfile()
			tt.mutate(profile)

			result, err := Evaluate(profile, createTestRuleset(t, "189"), testutil.Now)

			assert.Nil(t, result)
			assert.True(t, errors.Is(err, models.ErrMalformedProfile))
		})
	}
}

func TestEvaluate_MissingRuleIsConfigurationError(t *testing.T) {
	rs := singleCriterionRuleset("BROKEN", models.SeverityHard, nil)

	result, err := Evaluate(testutil.BaseProfile(), rs, testutil.Now)

	assert.Nil(t, result)
	assert.True(t, errors.Is(err, models.ErrUnknownEvaluator))
	assert.False(t, errors.Is(err, models.ErrMalformedProfile))
}
