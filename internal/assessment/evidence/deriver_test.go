package evidence

import (
	"errors"
	"testing"

	"migration-assessment/internal/models"
	"migration-assessment/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func items(gaps []models.EvidenceGap) []string {
	out := make([]string, 0, len(gaps))
	for _, g := range gaps {
		out = append(out, g.Item)
	}
	return out
}

func createTestEligibility(missing ...string) *models.EligibilityResult {
	status := models.StatusEligible
	if len(missing) > 0 {
		status = models.StatusNotEligible
	}
	return &models.EligibilityResult{EligibilityStatus: status, MissingCriteria: missing}
}

// ==========================
// Derive Tests
// ==========================

func TestDerive_NoGapsForCompleteProfile(t *testing.T) {
	gaps, err := Derive(testutil.BaseProfile(), createTestEligibility(), &models.RiskAssessment{})

	require.NoError(t, err)
	assert.Empty(t, gaps)
	assert.NotNil(t, gaps)
}

func TestDerive_AllSources(t *testing.T) {
	profile := testutil.BaseProfile()
	profile.Data.Documents.CV = false
	profile.Data.Documents.Payslips = false

	risk := &models.RiskAssessment{
		RiskFactors: []models.RiskFactor{
			{Code: "OCCUPATION_VOLATILE", Level: models.RiskMedium},
			{Code: "FINANCIAL_EVIDENCE_GAP", Level: models.RiskMedium},
			{Code: "VISA_EXPIRY_SOON", Level: models.RiskHigh},
		},
	}

	gaps, err := Derive(profile, createTestEligibility("AGE_RANGE", "POINTS_MINIMUM"), risk)

	require.NoError(t, err)
	assert.Equal(t, []string{
		"Birth certificate verification",
		"Points optimization strategy",
		"Urgent application lodgement",
		"Financial capacity documentation",
		"Payslips",
		"Current CV/Resume",
	}, items(gaps))
}

func TestDerive_LegacyCriterionCodes(t *testing.T) {
	gaps, err := Derive(testutil.BaseProfile(),
		createTestEligibility("AGE_REQUIREMENT", "SKILLS_ASSESSMENT", "ENGLISH_COMPETENT", "POINTS_THRESHOLD", "STATE_NOMINATION", "UNMAPPED"), nil)

	require.NoError(t, err)
	assert.Equal(t, []string{
		"Birth certificate verification",
		"Positive skills assessment",
		"English test results meeting competent level",
		"Points optimization strategy",
		"State nomination application",
	}, items(gaps))
}

func TestDerive_DuplicateLabelsKeepFirst(t *testing.T) {
	profile := testutil.BaseProfile()
	profile.Data.Documents.Passport = false

	risk := &models.RiskAssessment{
		RiskFactors: []models.RiskFactor{
			{Code: "CORE_DOCS_MISSING", Level: models.RiskHigh},
			{Code: "CORE_DOCS_MISSING", Level: models.RiskHigh},
		},
	}

	gaps, err := Derive(profile, createTestEligibility(), risk)

	require.NoError(t, err)
	assert.Equal(t, []string{"Core application documents", "Current passport"}, items(gaps))
	assert.Equal(t, "Essential documents (passport, skills assessment, English test) must be available", gaps[0].Rationale)
}

func TestDerive_MissingDocumentPriorities(t *testing.T) {
	profile := testutil.BaseProfile()
	profile.Data.Documents = &models.Documents{}

	gaps, err := Derive(profile, nil, nil)

	require.NoError(t, err)
	require.Len(t, gaps, 8)
	want := []struct {
		item     string
		priority models.Priority
	}{
		{"Current passport", models.PriorityHigh},
		{"Skills assessment documentation", models.PriorityHigh},
		{"English test results", models.PriorityHigh},
		{"Employment reference letters", models.PriorityHigh},
		{"Employment contracts", models.PriorityMedium},
		{"Payslips", models.PriorityMedium},
		{"Current CV/Resume", models.PriorityLow},
		{"Bank statements", models.PriorityLow},
	}
	for i, w := range want {
		assert.Equal(t, w.item, gaps[i].Item)
		assert.Equal(t, w.priority, gaps[i].Priority)
	}
}

func TestDerive_MalformedProfile(t *testing.T) {
	profile := testutil.BaseProfile()
	profile.Data.Person = nil

	gaps, err := Derive(profile, createTestEligibility(), nil)

	assert.Nil(t, gaps)
	assert.True(t, errors.Is(err, models.ErrMalformedProfile))
}

// ==========================
// Mapping Tests
// ==========================

func TestFromRiskFactors(t *testing.T) {
	factors := []models.RiskFactor{
		{Code: "EMPLOYMENT_EVIDENCE_WEAK"},
		{Code: "POINTS_MARGIN_LOW"},
		{Code: "DUTY_STATEMENTS_MISSING"},
		{Code: "SKILLS_ASSESSMENT_EXPIRING_SOON"},
		{Code: "ENGLISH_TEST_OLD"},
		{Code: "PRIOR_REFUSAL_FLAG"},
		{Code: "STATE_NOMINATION_UNKNOWN"},
	}

	gaps := FromRiskFactors(factors)

	assert.Equal(t, []string{
		"Employment verification package",
		"Employment reference letters with duty statements",
		"Skills assessment renewal",
		"Updated English test results",
		"Previous refusal response documentation",
		"State nomination eligibility confirmation",
	}, items(gaps))
}

// ==========================
// Merge Tests
// ==========================

func TestMerge_StableByPriority(t *testing.T) {
	a := []models.EvidenceGap{
		{Priority: models.PriorityLow, Item: "low-1"},
		{Priority: models.PriorityMedium, Item: "medium-1"},
		{Priority: models.PriorityHigh, Item: "high-1"},
	}
	b := []models.EvidenceGap{
		{Priority: models.PriorityHigh, Item: "high-2"},
		{Priority: models.PriorityLow, Item: "low-2"},
		{Priority: models.PriorityMedium, Item: "medium-1", Rationale: "duplicate"},
	}

	merged := Merge(a, b)

	assert.Equal(t, []string{"high-1", "high-2", "medium-1", "low-1", "low-2"}, items(merged))
	assert.Empty(t, merged[2].Rationale)
}

func TestMerge_UniqueLabels(t *testing.T) {
	profile := testutil.BaseProfile()
	profile.Data.Documents = &models.Documents{}
	docs := FromDocuments(profile.Data.Documents)

	merged := Merge(docs, docs, FromMissingCriteria([]string{"AGE_RANGE", "AGE_REQUIREMENT"}))

	seen := map[string]bool{}
	for _, g := range merged {
		assert.False(t, seen[g.Item], "duplicate item %q", g.Item)
		seen[g.Item] = true
	}
	assert.Len(t, merged, 9)
}

func TestMerge_Empty(t *testing.T) {
	merged := Merge()
	assert.NotNil(t, merged)
	assert.Empty(t, merged)
}
