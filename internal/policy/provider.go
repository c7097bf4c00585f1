// internal/policy/provider.go
package policy

import (
	"context"
	"errors"
	"fmt"

	"migration-assessment/internal/models"
)

// Provider resolves the compiled rulesets published under a policy
// snapshot. Implementations return models.ErrRulesetNotFound for an unknown
// snapshot.
type Provider interface {
	Rulesets(ctx context.Context, snapshotID string) ([]*models.Ruleset, error)
}

// Static serves rulesets from snapshots held in memory.
type Static struct {
	snapshots map[string]*models.PolicySnapshot
}

// NewStatic validates every ruleset up front so a broken snapshot fails at
// startup rather than on the first job.
func NewStatic(snapshots ...*models.PolicySnapshot) (*Static, error) {
	s := &Static{snapshots: make(map[string]*models.PolicySnapshot, len(snapshots))}
	for _, snapshot := range snapshots {
		if err := snapshot.Validate(); err != nil {
			return nil, err
		}
		if _, dup := s.snapshots[snapshot.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate snapshot %s", models.ErrInvalidRuleset, snapshot.ID)
		}
		s.snapshots[snapshot.ID] = snapshot
	}
	return s, nil
}

func (s *Static) Rulesets(ctx context.Context, snapshotID string) ([]*models.Ruleset, error) {
	snapshot, ok := s.snapshots[snapshotID]
	if !ok || len(snapshot.Rulesets) == 0 {
		return nil, fmt.Errorf("%w: policy snapshot %s", models.ErrRulesetNotFound, snapshotID)
	}
	return snapshot.Rulesets, nil
}

// Chain asks each provider in order and returns the first snapshot found.
// Errors other than models.ErrRulesetNotFound stop the search.
type Chain []Provider

func (c Chain) Rulesets(ctx context.Context, snapshotID string) ([]*models.Ruleset, error) {
	for _, p := range c {
		rulesets, err := p.Rulesets(ctx, snapshotID)
		if err == nil {
			return rulesets, nil
		}
		if !errors.Is(err, models.ErrRulesetNotFound) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%w: policy snapshot %s", models.ErrRulesetNotFound, snapshotID)
}
