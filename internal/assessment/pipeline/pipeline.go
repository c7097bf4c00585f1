// internal/assessment/pipeline/pipeline.go
//
// Package pipeline runs every ruleset of a policy snapshot against one
// profile and binds the outputs into an audit record.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"migration-assessment/internal/assessment/audit"
	"migration-assessment/internal/assessment/eligibility"
	"migration-assessment/internal/assessment/evidence"
	"migration-assessment/internal/assessment/risk"
	"migration-assessment/internal/models"
	"migration-assessment/internal/policy"

	"golang.org/x/sync/errgroup"
)

type Request struct {
	AssessmentID     string
	TenantID         string
	PolicySnapshotID string
	Profile          *models.ApplicantProfile
	Now              time.Time
}

// Outcome carries the bound record plus the views callers report on.
type Outcome struct {
	Record        *models.AuditRecord
	Rulesets      []*models.Ruleset
	Eligibility   map[string]*models.EligibilityResult
	Risk          *models.RiskAssessment
	EvidenceGaps  []models.EvidenceGap
	OverallStatus models.EligibilityStatus
}

type Pipeline struct {
	provider policy.Provider
	analyzer *risk.Analyzer
}

func New(provider policy.Provider, analyzer *risk.Analyzer) *Pipeline {
	return &Pipeline{provider: provider, analyzer: analyzer}
}

// Assess evaluates each ruleset concurrently with the risk analysis. Any
// evaluator error aborts the whole assessment.
func (p *Pipeline) Assess(ctx context.Context, req Request) (*Outcome, error) {
	if err := req.Profile.Validate(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.PolicySnapshotID) == "" {
		return nil, fmt.Errorf("%w: policy snapshot id is required", models.ErrRulesetNotFound)
	}

	rulesets, err := p.provider.Rulesets(ctx, req.PolicySnapshotID)
	if err != nil {
		return nil, err
	}
	if err := models.ValidateRulesets(req.PolicySnapshotID, rulesets); err != nil {
		return nil, err
	}

	results := make([]*models.EligibilityResult, len(rulesets))
	var riskAssessment *models.RiskAssessment

	g, gctx := errgroup.WithContext(ctx)
	for i, rs := range rulesets {
		i, rs := i, rs
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			result, err := eligibility.Evaluate(req.Profile, rs, req.Now)
			if err != nil {
				return fmt.Errorf("subclass %s: %w", rs.Visa, err)
			}
			results[i] = result
			return nil
		})
	}
	g.Go(func() error {
		assessment, err := p.analyzer.Assess(req.Profile, req.Now)
		if err != nil {
			return err
		}
		riskAssessment = assessment
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &Outcome{
		Rulesets:    rulesets,
		Eligibility: make(map[string]*models.EligibilityResult, len(rulesets)),
		Risk:        riskAssessment,
	}
	versions := make(map[string]string, len(rulesets))
	riskOutputs := make(map[string]*models.RiskAssessment, len(rulesets))
	gapLists := make([][]models.EvidenceGap, 0, len(rulesets))
	for i, rs := range rulesets {
		versions[rs.Visa] = rs.Version
		out.Eligibility[rs.Visa] = results[i]
		riskOutputs[rs.Visa] = riskAssessment

		gaps, err := evidence.Derive(req.Profile, results[i], riskAssessment)
		if err != nil {
			return nil, err
		}
		gapLists = append(gapLists, gaps)
	}
	out.EvidenceGaps = evidence.Merge(gapLists...)
	out.OverallStatus = OverallStatus(results)

	tenant := req.TenantID
	if tenant == "" {
		tenant = req.Profile.TenantID
	}
	out.Record, err = audit.Bind(audit.BindInput{
		AssessmentID:       req.AssessmentID,
		TenantID:           tenant,
		Profile:            req.Profile,
		PolicySnapshotID:   req.PolicySnapshotID,
		RulesetVersions:    versions,
		EligibilityOutputs: out.Eligibility,
		RiskOutputs:        riskOutputs,
		EvidenceGaps:       out.EvidenceGaps,
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// OverallStatus is the best verdict across subclasses: one eligible
// pathway makes the applicant eligible.
func OverallStatus(results []*models.EligibilityResult) models.EligibilityStatus {
	best := models.StatusNotEligible
	for _, r := range results {
		switch r.EligibilityStatus {
		case models.StatusEligible:
			return models.StatusEligible
		case models.StatusBorderline:
			best = models.StatusBorderline
		}
	}
	return best
}
