// internal/common/database/postgres.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"migration-assessment/internal/common/config"

	_ "github.com/lib/pq"
)

// schema creates the tables the audit store and ruleset repository use.
// Every statement is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS policy_snapshots (
		id             TEXT PRIMARY KEY,
		effective_date DATE,
		"references"   JSONB NOT NULL DEFAULT '[]',
		created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS rulesets (
		id                 TEXT PRIMARY KEY,
		policy_snapshot_id TEXT NOT NULL REFERENCES policy_snapshots(id),
		visa_subclass      TEXT NOT NULL,
		rules_json         JSONB NOT NULL,
		UNIQUE (policy_snapshot_id, visa_subclass)
	)`,
	`CREATE TABLE IF NOT EXISTS assessment_audit_logs (
		id                  UUID PRIMARY KEY,
		assessment_id       TEXT NOT NULL UNIQUE,
		tenant_id           TEXT NOT NULL,
		profile_checksum    TEXT NOT NULL,
		policy_snapshot_id  TEXT NOT NULL,
		ruleset_versions    JSONB NOT NULL,
		eligibility_outputs JSONB NOT NULL,
		risk_outputs        JSONB NOT NULL,
		evidence_gaps       JSONB NOT NULL,
		report_html_path    TEXT,
		report_pdf_path     TEXT,
		reviewer_signoff    JSONB,
		created_at          TIMESTAMPTZ NOT NULL,
		updated_at          TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_assessment_audit_logs_tenant
		ON assessment_audit_logs (tenant_id, created_at)`,
}

// PostgresClient wraps the SQL database connection
type PostgresClient struct {
	DB *sql.DB
}

// NewPostgres creates a new PostgreSQL client
func NewPostgres(cfg config.PostgresConfig) (*PostgresClient, error) {
	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxIdle)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return &PostgresClient{DB: db}, nil
}

// Migrate applies the schema in a single transaction.
func (c *PostgresClient) Migrate(ctx context.Context) error {
	tx, err := c.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for i, stmt := range schema {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration statement %d: %w", i+1, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration: %w", err)
	}
	return nil
}

// Ping tests the database connection
func (c *PostgresClient) Ping(ctx context.Context) error {
	return c.DB.PingContext(ctx)
}

// Close closes the database connection
func (c *PostgresClient) Close() error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
