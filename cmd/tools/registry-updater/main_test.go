package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"migration-assessment/internal/models"
	"migration-assessment/internal/policy"
	"migration-assessment/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const shippedPolicies = "../../../configs/policies"

type fakePublisher struct {
	published []*models.PolicySnapshot
	err       error
}

func (f *fakePublisher) Publish(ctx context.Context, snapshot *models.PolicySnapshot) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, snapshot)
	return nil
}

type fakeInvalidator struct {
	dropped []string
	err     error
}

func (f *fakeInvalidator) Invalidate(ctx context.Context, snapshotID string) error {
	f.dropped = append(f.dropped, snapshotID)
	return f.err
}

// ==========================
// publish
// ==========================

func TestPublishSnapshot(t *testing.T) {
	repo := &fakePublisher{}
	cache := &fakeInvalidator{}
	path := filepath.Join(shippedPolicies, policy.BuiltinSnapshotID+".yaml")

	snapshot, err := publishSnapshot(context.Background(), path, repo, cache)
	require.NoError(t, err)

	assert.Equal(t, policy.BuiltinSnapshotID, snapshot.ID)
	require.Len(t, repo.published, 1)
	assert.Len(t, repo.published[0].Rulesets, 2)
	assert.Equal(t, []string{policy.BuiltinSnapshotID}, cache.dropped)
}

func TestPublishSnapshot_Errors(t *testing.T) {
	dir := t.TempDir()
	broken := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(broken, []byte("id: x\nrulesets: []\n"), 0o644))
	valid := filepath.Join(shippedPolicies, policy.BuiltinSnapshotID+".yaml")

	tests := []struct {
		name      string
		path      string
		repo      *fakePublisher
		cache     *fakeInvalidator
		wantErr   error
		published int
	}{
		{"invalid file is never stored", broken, &fakePublisher{}, &fakeInvalidator{}, models.ErrInvalidRuleset, 0},
		{"already published", valid, &fakePublisher{err: store.ErrSnapshotExists}, &fakeInvalidator{}, store.ErrSnapshotExists, 0},
		{"cache down after publish", valid, &fakePublisher{}, &fakeInvalidator{err: store.ErrCacheUnavailable}, store.ErrCacheUnavailable, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := publishSnapshot(context.Background(), tt.path, tt.repo, tt.cache)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Len(t, tt.repo.published, tt.published)
		})
	}
}

func TestPublishSnapshot_NoCache(t *testing.T) {
	repo := &fakePublisher{}

	_, err := publishSnapshot(context.Background(), filepath.Join(shippedPolicies, policy.BuiltinSnapshotID+".yaml"), repo, nil)
	require.NoError(t, err)
	assert.Len(t, repo.published, 1)
}

// ==========================
// validate
// ==========================

func TestValidatePolicies(t *testing.T) {
	snapshots, err := validatePolicies(shippedPolicies)
	require.NoError(t, err)
	require.Len(t, snapshots, 1)
	assert.Equal(t, policy.BuiltinSnapshotID, snapshots[0].ID)

	single, err := validatePolicies(filepath.Join(shippedPolicies, policy.BuiltinSnapshotID+".yaml"))
	require.NoError(t, err)
	assert.Len(t, single, 1)
}

func TestValidatePolicies_Errors(t *testing.T) {
	empty := t.TempDir()

	dup := t.TempDir()
	data, err := os.ReadFile(filepath.Join(shippedPolicies, policy.BuiltinSnapshotID+".yaml"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dup, "a.yaml"), data, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dup, "b.yaml"), data, 0o644))

	_, err = validatePolicies(empty)
	assert.Error(t, err)

	_, err = validatePolicies(dup)
	assert.ErrorIs(t, err, models.ErrInvalidRuleset)

	_, err = validatePolicies(filepath.Join(empty, "missing"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

// ==========================
// help
// ==========================

func TestHelp(t *testing.T) {
	var out bytes.Buffer
	help(&out)

	text := out.String()
	assert.Contains(t, text, "Usage: registry-updater <command> [flags]")
	assert.Contains(t, text, "publish -path configs/policies/"+policy.BuiltinSnapshotID+".yaml")
	assert.True(t, strings.HasSuffix(text, "command.\n"))
	assert.False(t, strings.HasSuffix(text, "\n\n"))
}
