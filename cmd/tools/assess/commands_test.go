package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"migration-assessment/internal/assessment/audit"
	"migration-assessment/internal/models"
	"migration-assessment/internal/testutil"
	runassessment "migration-assessment/internal/workers/assessment/run-assessment"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const snapshotYAML = `id: au-2026-07-01
effective_date: 2026-07-01
rulesets:
  - visa: "189"
    version: "1.1.0"
    criteria:
      - code: POINTS_MINIMUM
        description: Must score at least 90 points
        severity: hard
        evaluate: points_at_least
        params: {minimum: 90}
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// ==========================
// run
// ==========================

func TestRun_BuiltinSnapshot(t *testing.T) {
	profile := writeFile(t, "profile.json", testutil.BaseProfileJSON)

	stdout, err := execute(t, "run", "--profile", profile, "--now", "2025-01-01T00:00:00Z", "--assessment-id", "a-1")
	require.NoError(t, err)

	var output runassessment.Output
	require.NoError(t, json.Unmarshal([]byte(stdout), &output))
	assert.Equal(t, "a-1", output.AssessmentID)
	assert.Equal(t, models.StatusEligible, output.OverallStatus)
	assert.Len(t, output.Eligibility, 2)
	assert.Contains(t, output.RulesetVersions, "189")
	assert.Contains(t, output.RulesetVersions, "190")
	assert.Empty(t, output.EvidenceGaps)

	sum, err := execute(t, "checksum", "--profile", profile)
	require.NoError(t, err)
	assert.Equal(t, strings.TrimSpace(sum), output.ProfileChecksum)
}

func TestRun_SnapshotFile(t *testing.T) {
	profile := writeFile(t, "profile.json", testutil.BaseProfileJSON)
	snapshot := writeFile(t, "au-2026-07-01.yaml", snapshotYAML)

	stdout, err := execute(t, "run", "--profile", profile, "--snapshot", snapshot, "--now", "2025-01-01T00:00:00Z")
	require.NoError(t, err)

	var output runassessment.Output
	require.NoError(t, json.Unmarshal([]byte(stdout), &output))
	assert.NotEmpty(t, output.AssessmentID)
	assert.Equal(t, models.StatusNotEligible, output.OverallStatus)
	assert.Equal(t, map[string]string{"189": "1.1.0"}, output.RulesetVersions)
}

func TestRun_Errors(t *testing.T) {
	profile := writeFile(t, "profile.json", testutil.BaseProfileJSON)
	broken := writeFile(t, "broken.json", `{"id": "p"}`)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing profile flag", []string{"run"}, "profile"},
		{"unreadable profile", []string{"run", "--profile", filepath.Join(t.TempDir(), "nope.json")}, "read profile"},
		{"malformed profile", []string{"run", "--profile", broken}, "MALFORMED_PROFILE"},
		{"bad now", []string{"run", "--profile", profile, "--now", "yesterday"}, "Job variables failed validation"},
		{"bad timezone", []string{"run", "--profile", profile, "--timezone", "Mars/Olympus"}, "timezone"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

// ==========================
// checksum
// ==========================

func TestChecksum_IgnoresLayout(t *testing.T) {
	var compact bytes.Buffer
	require.NoError(t, json.Compact(&compact, []byte(testutil.BaseProfileJSON)))
	first, err := execute(t, "checksum", "--profile", writeFile(t, "compact.json", compact.String()))
	require.NoError(t, err)
	second, err := execute(t, "checksum", "--profile", writeFile(t, "pretty.json", testutil.BaseProfileJSON))
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, strings.TrimSpace(first), 64)
}

func TestChecksum_MatchesStoredRecord(t *testing.T) {
	raw := strings.Replace(testutil.BaseProfileJSON, `"data": {`, `"data": {"passport_number": "X9",`, 1)
	profile := writeFile(t, "profile.json", raw)

	stdout, err := execute(t, "run", "--profile", profile, "--now", "2025-01-01T00:00:00Z")
	require.NoError(t, err)
	var output runassessment.Output
	require.NoError(t, json.Unmarshal([]byte(stdout), &output))

	sum, err := execute(t, "checksum", "--profile", profile)
	require.NoError(t, err)
	assert.Equal(t, output.ProfileChecksum, strings.TrimSpace(sum))

	changed := writeFile(t, "changed.json", strings.Replace(raw, `"X9"`, `"Y7"`, 1))
	other, err := execute(t, "checksum", "--profile", changed)
	require.NoError(t, err)
	assert.NotEqual(t, sum, other)
}

func TestChecksum_RequiresDataSection(t *testing.T) {
	_, err := execute(t, "checksum", "--profile", writeFile(t, "envelope.json", `{"id":"p-1"}`))
	assert.ErrorIs(t, err, audit.ErrNoProfileData)
}

// ==========================
// validate-snapshot
// ==========================

func TestValidateSnapshot(t *testing.T) {
	snapshot := writeFile(t, "au-2026-07-01.yaml", snapshotYAML)

	stdout, err := execute(t, "validate-snapshot", "--snapshot", snapshot)
	require.NoError(t, err)

	var summary snapshotSummary
	require.NoError(t, json.Unmarshal([]byte(stdout), &summary))
	assert.Equal(t, "au-2026-07-01", summary.ID)
	assert.Equal(t, "2026-07-01", summary.EffectiveDate)
	assert.Equal(t, map[string]string{"189": "1.1.0"}, summary.Rulesets)
}

func TestValidateSnapshot_RejectsUnknownEvaluator(t *testing.T) {
	snapshot := writeFile(t, "bad.yaml", strings.Replace(snapshotYAML, "points_at_least", "points_at_most", 1))

	_, err := execute(t, "validate-snapshot", "--snapshot", snapshot)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrUnknownEvaluator)
}
