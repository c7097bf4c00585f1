// internal/workers/assessment/attach-report-paths/handler_test.go
package attachreportpaths

import (
	"context"
	"testing"
	"time"

	"migration-assessment/internal/assessment/audit"
	commonerrors "migration-assessment/internal/common/errors"
	"migration-assessment/internal/common/logger"
	"migration-assessment/internal/models"
	"migration-assessment/internal/store"
	"migration-assessment/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

var attachedAt = time.Date(2025, time.January, 2, 10, 0, 0, 0, time.UTC)

func createTestConfig() *Config {
	return &Config{Timeout: 5 * time.Second}
}

func createTestInput() *Input {
	return &Input{
		AssessmentID: "assessment-001",
		HTMLPath:     "s3://reports/assessment-001.html",
		PDFPath:      "s3://reports/assessment-001.pdf",
	}
}

type recordingIndex struct {
	records []*models.AuditRecord
}

func (r *recordingIndex) Index(_ context.Context, record *models.AuditRecord) error {
	r.records = append(r.records, record)
	return nil
}

func seedRecord(t *testing.T, auditStore *store.AuditMemory) {
	t.Helper()
	record, err := audit.Bind(audit.BindInput{
		AssessmentID:     "assessment-001",
		TenantID:         "tenant-001",
		Profile:          testutil.BaseProfile(),
		PolicySnapshotID: "au-2026-01-01",
		RulesetVersions:  map[string]string{"189": "1.0.0"},
	})
	require.NoError(t, err)
	require.NoError(t, auditStore.Create(context.Background(), record))
}

func newTestHandler(t *testing.T, auditStore audit.Store, index Indexer) *Handler {
	t.Helper()
	h := NewHandler(createTestConfig(), auditStore, index, logger.NewTestLogger(t))
	h.now = func() time.Time { return attachedAt }
	return h
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_Success(t *testing.T) {
	auditStore := store.NewAuditMemory()
	seedRecord(t, auditStore)
	index := &recordingIndex{}

	output, err := newTestHandler(t, auditStore, index).Execute(context.Background(), createTestInput())
	require.NoError(t, err)

	assert.Equal(t, "assessment-001", output.AssessmentID)
	assert.Equal(t, "s3://reports/assessment-001.html", output.HTMLPath)
	assert.Equal(t, "s3://reports/assessment-001.pdf", output.PDFPath)
	assert.Equal(t, "2025-01-02T10:00:00Z", output.UpdatedAt)

	stored, err := auditStore.Get(context.Background(), "assessment-001")
	require.NoError(t, err)
	require.NotNil(t, stored.ReportPaths)
	assert.Equal(t, "s3://reports/assessment-001.html", stored.ReportPaths.HTML)
	require.Len(t, index.records, 1)
	assert.Equal(t, stored.ReportPaths, index.records[0].ReportPaths)
}

func TestHandler_Execute_PathsArriveSeparately(t *testing.T) {
	auditStore := store.NewAuditMemory()
	seedRecord(t, auditStore)
	handler := newTestHandler(t, auditStore, nil)

	_, err := handler.Execute(context.Background(), &Input{
		AssessmentID: "assessment-001",
		HTMLPath:     "reports/a.html",
	})
	require.NoError(t, err)

	output, err := handler.Execute(context.Background(), &Input{
		AssessmentID: "assessment-001",
		PDFPath:      " reports/a.pdf ",
	})
	require.NoError(t, err)
	assert.Equal(t, "reports/a.html", output.HTMLPath)
	assert.Equal(t, "reports/a.pdf", output.PDFPath)
}

func TestHandler_Execute_RepeatIsIdempotent(t *testing.T) {
	auditStore := store.NewAuditMemory()
	seedRecord(t, auditStore)
	handler := newTestHandler(t, auditStore, nil)

	_, err := handler.Execute(context.Background(), createTestInput())
	require.NoError(t, err)
	_, err = handler.Execute(context.Background(), createTestInput())
	assert.NoError(t, err)
}

// ==========================
// Error Handling Tests
// ==========================

func TestHandler_Execute_Errors(t *testing.T) {
	tests := []struct {
		name     string
		seed     bool
		input    *Input
		wantCode commonerrors.ErrorCode
	}{
		{
			name:     "no paths",
			seed:     true,
			input:    &Input{AssessmentID: "assessment-001", HTMLPath: "  "},
			wantCode: commonerrors.ErrCodeInputValidationFailed,
		},
		{
			name:     "missing assessment id",
			seed:     true,
			input:    &Input{HTMLPath: "reports/a.html"},
			wantCode: commonerrors.ErrCodeInputValidationFailed,
		},
		{
			name:     "unknown assessment",
			input:    createTestInput(),
			wantCode: commonerrors.ErrCodeAuditRecordNotFound,
		},
		{
			name:     "replacing a path",
			seed:     true,
			input:    &Input{AssessmentID: "assessment-001", HTMLPath: "reports/other.html"},
			wantCode: commonerrors.ErrCodeAuditAppendRejected,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auditStore := store.NewAuditMemory()
			if tt.seed {
				seedRecord(t, auditStore)
				_, err := audit.AttachReportPaths(context.Background(), auditStore, "assessment-001",
					models.ReportPaths{HTML: "reports/a.html"}, attachedAt)
				require.NoError(t, err)
			}

			output, err := newTestHandler(t, auditStore, nil).Execute(context.Background(), tt.input)
			require.Error(t, err)
			assert.Nil(t, output)
			assert.Equal(t, tt.wantCode, commonerrors.Classify(err).Code)
		})
	}
}
