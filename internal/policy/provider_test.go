package policy

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"migration-assessment/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltin_IsValid(t *testing.T) {
	snapshot := Builtin()

	assert.Equal(t, BuiltinSnapshotID, snapshot.ID)
	require.Len(t, snapshot.Rulesets, 2)
	for _, rs := range snapshot.Rulesets {
		assert.NoError(t, rs.Validate(), rs.Visa)
		assert.Equal(t, BuiltinSnapshotID, rs.PolicySnapshotID)
	}

	rs189, ok := snapshot.Ruleset("189")
	require.True(t, ok)
	assert.Equal(t, models.PointsMinimum{Minimum: 65}, rs189.Criteria[3].Rule)

	rs190, ok := snapshot.Ruleset("190")
	require.True(t, ok)
	assert.Equal(t, models.PointsMinimum{Minimum: 60}, rs190.Criteria[3].Rule)
}

func TestBuiltin_RoundTripsThroughDocument(t *testing.T) {
	for _, rs := range Builtin().Rulesets {
		doc, err := json.Marshal(rs)
		require.NoError(t, err)

		decoded, err := models.DecodeRuleset(doc)
		require.NoError(t, err)
		assert.Equal(t, rs.Criteria, decoded.Criteria)
	}
}

func TestStatic_Rulesets(t *testing.T) {
	provider, err := NewStatic(Builtin())
	require.NoError(t, err)

	rulesets, err := provider.Rulesets(context.Background(), BuiltinSnapshotID)
	require.NoError(t, err)
	assert.Len(t, rulesets, 2)

	_, err = provider.Rulesets(context.Background(), "unknown")
	assert.ErrorIs(t, err, models.ErrRulesetNotFound)
}

func TestNewStatic_RejectsBrokenSnapshots(t *testing.T) {
	broken := Builtin()
	broken.Rulesets[0].Criteria[1].Code = "AGE_RANGE"
	twice := Builtin()
	twice.Rulesets[1].Visa = twice.Rulesets[0].Visa

	tests := []struct {
		name      string
		snapshots []*models.PolicySnapshot
	}{
		{"duplicate criterion", []*models.PolicySnapshot{broken}},
		{"duplicate snapshot", []*models.PolicySnapshot{Builtin(), Builtin()}},
		{"two rulesets for one subclass", []*models.PolicySnapshot{twice}},
		{"missing id", []*models.PolicySnapshot{{Rulesets: Builtin().Rulesets}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewStatic(tt.snapshots...)
			assert.ErrorIs(t, err, models.ErrInvalidRuleset)
		})
	}
}

type failingProvider struct{ err error }

func (f failingProvider) Rulesets(ctx context.Context, snapshotID string) ([]*models.Ruleset, error) {
	return nil, f.err
}

func TestChain_Rulesets(t *testing.T) {
	builtin, err := NewStatic(Builtin())
	require.NoError(t, err)
	empty, err := NewStatic()
	require.NoError(t, err)
	down := errors.New("QUERY_EXECUTION_FAILED")

	tests := []struct {
		name    string
		chain   Chain
		found   bool
		wantErr error
	}{
		{"first provider", Chain{builtin, failingProvider{down}}, true, nil},
		{"falls through not found", Chain{empty, builtin}, true, nil},
		{"stops on other errors", Chain{failingProvider{down}, builtin}, false, down},
		{"nothing found", Chain{empty, empty}, false, models.ErrRulesetNotFound},
		{"empty chain", Chain{}, false, models.ErrRulesetNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rulesets, err := tt.chain.Rulesets(context.Background(), BuiltinSnapshotID)
			if tt.found {
				require.NoError(t, err)
				assert.Len(t, rulesets, 2)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
