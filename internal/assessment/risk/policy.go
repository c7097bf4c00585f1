// internal/assessment/risk/policy.go
package risk

// Policy holds every threshold and list the analyzer consults. The zero
// value is not useful; start from DefaultPolicy.
type Policy struct {
	PointsMarginThreshold      int
	PointsTrendThreshold       int
	PointsStrongThreshold      int
	AgeUpperLimit              int
	AgeWarningYears            int
	SkillsExpiryWindowMonths   int
	EmploymentGapMonths        int
	EnglishTestMaxAgeMonths    int
	EnglishBorderlineMargin    float64
	VisaExpiryWindowMonths     int
	VolatileOccupations        []string
	VolatileStates             []string
	CeilingOccupations         []string
	StatusChangeSubclasses     []string
	DefensibilityMinIndicators int
}

func DefaultPolicy() Policy {
	return Policy{
		PointsMarginThreshold:      70,
		PointsTrendThreshold:       75,
		PointsStrongThreshold:      80,
		AgeUpperLimit:              45,
		AgeWarningYears:            2,
		SkillsExpiryWindowMonths:   6,
		EmploymentGapMonths:        3,
		EnglishTestMaxAgeMonths:    30,
		EnglishBorderlineMargin:    0.5,
		VisaExpiryWindowMonths:     3,
		VolatileOccupations:        []string{"261313", "261312", "233211"},
		VolatileStates:             []string{"NSW", "VIC", "QLD", "SA", "WA", "TAS", "ACT", "NT"},
		CeilingOccupations:         []string{"221111", "221112", "221113", "261111", "261112"},
		StatusChangeSubclasses:     []string{"485", "482"},
		DefensibilityMinIndicators: 2,
	}
}
