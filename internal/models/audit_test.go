package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var auditNow = time.Date(2025, time.January, 1, 9, 0, 0, 0, time.UTC)

func TestAuditRecord_WithReportPaths(t *testing.T) {
	tests := []struct {
		name     string
		existing *ReportPaths
		paths    ReportPaths
		expected *ReportPaths
		rejected bool
	}{
		{"first html", nil, ReportPaths{HTML: "a.html"}, &ReportPaths{HTML: "a.html"}, false},
		{"adds pdf", &ReportPaths{HTML: "a.html"}, ReportPaths{PDF: "a.pdf"}, &ReportPaths{HTML: "a.html", PDF: "a.pdf"}, false},
		{"repeats html", &ReportPaths{HTML: "a.html"}, ReportPaths{HTML: " a.html "}, &ReportPaths{HTML: "a.html"}, false},
		{"replaces html", &ReportPaths{HTML: "a.html"}, ReportPaths{HTML: "b.html"}, nil, true},
		{"empty", nil, ReportPaths{HTML: "  "}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := AuditRecord{AssessmentID: "a1", ReportPaths: tt.existing, UpdatedAt: auditNow.Add(-time.Hour)}

			updated, err := record.WithReportPaths(tt.paths, auditNow)
			if tt.rejected {
				assert.ErrorIs(t, err, ErrAppendRejected)
				assert.Nil(t, updated)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, updated.ReportPaths)
			assert.Equal(t, auditNow, updated.UpdatedAt)
			assert.Equal(t, auditNow.Add(-time.Hour), record.UpdatedAt)
		})
	}
}

func TestAuditRecord_WithReportPathsDoesNotAlias(t *testing.T) {
	existing := &ReportPaths{HTML: "a.html"}
	record := AuditRecord{ReportPaths: existing}

	_, err := record.WithReportPaths(ReportPaths{PDF: "a.pdf"}, auditNow)
	require.NoError(t, err)
	assert.Empty(t, existing.PDF)
}

func TestAuditRecord_WithSignoff(t *testing.T) {
	record := AuditRecord{AssessmentID: "a1"}

	signed, err := record.WithSignoff(ReviewerSignoff{ReviewerName: " J. Smith ", LicenseNumber: "MARN-1234567"}, auditNow)
	require.NoError(t, err)
	assert.Equal(t, "J. Smith", signed.ReviewerSignoff.ReviewerName)
	assert.Equal(t, auditNow, signed.ReviewerSignoff.SignedAt)
	assert.Nil(t, record.ReviewerSignoff)

	_, err = signed.WithSignoff(ReviewerSignoff{ReviewerName: "Other", LicenseNumber: "MARN-7654321"}, auditNow)
	assert.ErrorIs(t, err, ErrAppendRejected)

	_, err = record.WithSignoff(ReviewerSignoff{ReviewerName: "J. Smith"}, auditNow)
	assert.ErrorIs(t, err, ErrAppendRejected)

	explicit := time.Date(2024, time.December, 31, 23, 0, 0, 0, time.FixedZone("AEDT", 11*3600))
	signed, err = record.WithSignoff(ReviewerSignoff{ReviewerName: "J. Smith", LicenseNumber: "MARN-1", SignedAt: explicit}, auditNow)
	require.NoError(t, err)
	assert.Equal(t, time.UTC, signed.ReviewerSignoff.SignedAt.Location())
	assert.True(t, explicit.Equal(signed.ReviewerSignoff.SignedAt))
}
