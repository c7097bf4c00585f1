// internal/models/english.go
package models

type EnglishLevel string

const (
	EnglishCompetent  EnglishLevel = "competent"
	EnglishProficient EnglishLevel = "proficient"
	EnglishSuperior   EnglishLevel = "superior"
)

// Minimum component score per level and test type. A pair absent from the
// table cannot be satisfied.
var englishThresholds = map[EnglishLevel]map[EnglishTestType]float64{
	EnglishCompetent: {
		TestIELTS: 6.0,
		TestPTE:   50,
		TestTOEFL: 60,
	},
	EnglishProficient: {
		TestIELTS: 7.0,
		TestPTE:   65,
		TestTOEFL: 79,
	},
	EnglishSuperior: {
		TestIELTS: 8.0,
		TestPTE:   79,
		TestTOEFL: 94,
	},
}

func (l EnglishLevel) Valid() bool {
	_, ok := englishThresholds[l]
	return ok
}

// EnglishThreshold looks up the minimum score for a level on a test type.
// It reports false for NA and for any unsupported pairing.
func EnglishThreshold(level EnglishLevel, testType EnglishTestType) (float64, bool) {
	if testType == TestNA {
		return 0, false
	}
	byType, ok := englishThresholds[level]
	if !ok {
		return 0, false
	}
	threshold, ok := byType[testType]
	return threshold, ok
}
