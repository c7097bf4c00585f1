// internal/store/audit_postgres.go
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"migration-assessment/internal/models"

	"github.com/lib/pq"
)

var (
	ErrDatabaseInsertFailed = errors.New("DATABASE_INSERT_FAILED")
	ErrQueryExecutionFailed = errors.New("QUERY_EXECUTION_FAILED")
)

const uniqueViolation = "23505"

const auditColumns = `id, assessment_id, tenant_id, profile_checksum, policy_snapshot_id,
		ruleset_versions, eligibility_outputs, risk_outputs, evidence_gaps,
		report_html_path, report_pdf_path, reviewer_signoff, created_at, updated_at`

// AuditPostgres stores audit records in assessment_audit_logs, one row per
// assessment.
type AuditPostgres struct {
	db  *sql.DB
	now func() time.Time
}

func NewAuditPostgres(db *sql.DB) *AuditPostgres {
	return &AuditPostgres{db: db, now: time.Now}
}

func (s *AuditPostgres) Create(ctx context.Context, record *models.AuditRecord) error {
	stampNew(record, s.now())

	rulesetVersions, err := json.Marshal(record.RulesetVersions)
	if err != nil {
		return fmt.Errorf("%w: marshal ruleset versions: %v", ErrDatabaseInsertFailed, err)
	}
	eligibility, err := json.Marshal(record.EligibilityOutputs)
	if err != nil {
		return fmt.Errorf("%w: marshal eligibility outputs: %v", ErrDatabaseInsertFailed, err)
	}
	risk, err := json.Marshal(record.RiskOutputs)
	if err != nil {
		return fmt.Errorf("%w: marshal risk outputs: %v", ErrDatabaseInsertFailed, err)
	}
	gaps, err := json.Marshal(record.EvidenceGaps)
	if err != nil {
		return fmt.Errorf("%w: marshal evidence gaps: %v", ErrDatabaseInsertFailed, err)
	}
	html, pdf := reportColumns(record.ReportPaths)
	signoff, err := signoffColumn(record.ReviewerSignoff)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseInsertFailed, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO assessment_audit_logs (`+auditColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		record.ID,
		record.AssessmentID,
		record.TenantID,
		record.ProfileChecksum,
		record.PolicySnapshotID,
		rulesetVersions,
		eligibility,
		risk,
		gaps,
		html,
		pdf,
		signoff,
		record.CreatedAt,
		record.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return fmt.Errorf("%w: assessment %s", models.ErrRecordExists, record.AssessmentID)
		}
		return fmt.Errorf("%w: insert audit record: %v", ErrDatabaseInsertFailed, err)
	}
	return nil
}

func (s *AuditPostgres) Get(ctx context.Context, assessmentID string) (*models.AuditRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+auditColumns+`
		FROM assessment_audit_logs
		WHERE assessment_id = $1`, assessmentID)

	return scanAuditRecord(row, assessmentID)
}

// Update locks the row for the length of the transaction so concurrent
// appends to one assessment serialize.
func (s *AuditPostgres) Update(ctx context.Context, assessmentID string, fn func(models.AuditRecord) (*models.AuditRecord, error)) (*models.AuditRecord, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: begin transaction: %v", ErrQueryExecutionFailed, err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `
		SELECT `+auditColumns+`
		FROM assessment_audit_logs
		WHERE assessment_id = $1
		FOR UPDATE`, assessmentID)

	current, err := scanAuditRecord(row, assessmentID)
	if err != nil {
		return nil, err
	}

	updated, err := fn(*current)
	if err != nil {
		return nil, err
	}
	if err := checkWriteOnce(current, updated); err != nil {
		return nil, err
	}

	html, pdf := reportColumns(updated.ReportPaths)
	signoff, err := signoffColumn(updated.ReviewerSignoff)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQueryExecutionFailed, err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE assessment_audit_logs
		SET report_html_path = $2, report_pdf_path = $3, reviewer_signoff = $4, updated_at = $5
		WHERE assessment_id = $1`,
		assessmentID, html, pdf, signoff, updated.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: update audit record: %v", ErrQueryExecutionFailed, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: commit: %v", ErrQueryExecutionFailed, err)
	}
	return updated, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAuditRecord(row rowScanner, assessmentID string) (*models.AuditRecord, error) {
	var record models.AuditRecord
	var rulesetVersions, eligibility, risk, gaps, signoff []byte
	var html, pdf sql.NullString

	err := row.Scan(
		&record.ID,
		&record.AssessmentID,
		&record.TenantID,
		&record.ProfileChecksum,
		&record.PolicySnapshotID,
		&rulesetVersions,
		&eligibility,
		&risk,
		&gaps,
		&html,
		&pdf,
		&signoff,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: assessment %s", models.ErrRecordNotFound, assessmentID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: load audit record: %v", ErrQueryExecutionFailed, err)
	}

	for _, col := range []struct {
		raw  []byte
		dest interface{}
	}{
		{rulesetVersions, &record.RulesetVersions},
		{eligibility, &record.EligibilityOutputs},
		{risk, &record.RiskOutputs},
		{gaps, &record.EvidenceGaps},
	} {
		if len(col.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(col.raw, col.dest); err != nil {
			return nil, fmt.Errorf("%w: decode audit record %s: %v", ErrQueryExecutionFailed, assessmentID, err)
		}
	}

	if html.Valid || pdf.Valid {
		record.ReportPaths = &models.ReportPaths{HTML: html.String, PDF: pdf.String}
	}
	if len(signoff) > 0 {
		record.ReviewerSignoff = &models.ReviewerSignoff{}
		if err := json.Unmarshal(signoff, record.ReviewerSignoff); err != nil {
			return nil, fmt.Errorf("%w: decode reviewer signoff %s: %v", ErrQueryExecutionFailed, assessmentID, err)
		}
	}
	return &record, nil
}

func reportColumns(paths *models.ReportPaths) (sql.NullString, sql.NullString) {
	if paths == nil {
		return sql.NullString{}, sql.NullString{}
	}
	return nullString(paths.HTML), nullString(paths.PDF)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func signoffColumn(signoff *models.ReviewerSignoff) (interface{}, error) {
	if signoff == nil {
		return nil, nil
	}
	data, err := json.Marshal(signoff)
	if err != nil {
		return nil, fmt.Errorf("marshal reviewer signoff: %w", err)
	}
	return data, nil
}
