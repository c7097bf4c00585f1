// internal/assessment/evidence/deriver.go
//
// Package evidence turns eligibility failures, risk factors and the
// document checklist into a single prioritized remediation list.
package evidence

import (
	"sort"

	"migration-assessment/internal/models"
)

// Derive collects gaps from hard failures, then mapped risk factors, then
// missing documents, and merges them. Either result may be nil.
func Derive(profile *models.ApplicantProfile, eligibility *models.EligibilityResult, risk *models.RiskAssessment) ([]models.EvidenceGap, error) {
	if err := profile.Validate(); err != nil {
		return nil, err
	}

	var fromCriteria, fromRisk []models.EvidenceGap
	if eligibility != nil {
		fromCriteria = FromMissingCriteria(eligibility.MissingCriteria)
	}
	if risk != nil {
		fromRisk = FromRiskFactors(risk.RiskFactors)
	}

	return Merge(fromCriteria, fromRisk, FromDocuments(profile.Data.Documents)), nil
}

// FromMissingCriteria skips codes without a catalog entry.
func FromMissingCriteria(codes []string) []models.EvidenceGap {
	gaps := []models.EvidenceGap{}
	for _, code := range codes {
		if g, ok := criterionGaps[code]; ok {
			gaps = append(gaps, g)
		}
	}
	return gaps
}

// FromRiskFactors maps the subset of risk codes that have a concrete
// remedy; other factors produce nothing.
func FromRiskFactors(factors []models.RiskFactor) []models.EvidenceGap {
	gaps := []models.EvidenceGap{}
	for _, f := range factors {
		if g, ok := riskGaps[f.Code]; ok {
			gaps = append(gaps, g)
		}
	}
	return gaps
}

func FromDocuments(docs *models.Documents) []models.EvidenceGap {
	gaps := []models.EvidenceGap{}
	if docs == nil {
		return gaps
	}
	for _, c := range documentChecks {
		if !c.present(docs) {
			gaps = append(gaps, c.gap)
		}
	}
	return gaps
}

// Merge concatenates the lists, keeps the first gap for each item label and
// orders the survivors High, Medium, Low. Gaps of equal priority keep the
// order they were derived in.
func Merge(lists ...[]models.EvidenceGap) []models.EvidenceGap {
	seen := make(map[string]struct{})
	merged := []models.EvidenceGap{}
	for _, list := range lists {
		for _, g := range list {
			if _, dup := seen[g.Item]; dup {
				continue
			}
			seen[g.Item] = struct{}{}
			merged = append(merged, g)
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Priority.Rank() > merged[j].Priority.Rank()
	})
	return merged
}
