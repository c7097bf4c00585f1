// internal/store/ruleset_repository.go
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"migration-assessment/internal/models"

	"github.com/google/uuid"
)

var ErrSnapshotExists = errors.New("SNAPSHOT_EXISTS")

// RulesetRepository reads published policy snapshots and their rulesets
// from policy_snapshots and rulesets.
type RulesetRepository struct {
	db *sql.DB
}

func NewRulesetRepository(db *sql.DB) *RulesetRepository {
	return &RulesetRepository{db: db}
}

// Snapshot loads a snapshot and compiles every ruleset bound to it. A
// ruleset that no longer compiles fails the whole load.
func (r *RulesetRepository) Snapshot(ctx context.Context, snapshotID string) (*models.PolicySnapshot, error) {
	var (
		snapshot   models.PolicySnapshot
		effective  sql.NullTime
		references []byte
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, effective_date, "references"
		FROM policy_snapshots
		WHERE id = $1`, snapshotID).Scan(&snapshot.ID, &effective, &references)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: policy snapshot %s", models.ErrRulesetNotFound, snapshotID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: load policy snapshot: %v", ErrQueryExecutionFailed, err)
	}
	if effective.Valid {
		snapshot.EffectiveDate = models.Date{Time: effective.Time.UTC()}
	}
	if len(references) > 0 {
		if err := json.Unmarshal(references, &snapshot.References); err != nil {
			return nil, fmt.Errorf("%w: decode references of snapshot %s: %v", ErrQueryExecutionFailed, snapshotID, err)
		}
	}

	rulesets, err := r.rulesets(ctx, snapshotID)
	if err != nil {
		return nil, err
	}
	snapshot.Rulesets = rulesets
	return &snapshot, nil
}

// Rulesets returns the compiled rulesets of a snapshot ordered by visa.
func (r *RulesetRepository) Rulesets(ctx context.Context, snapshotID string) ([]*models.Ruleset, error) {
	rulesets, err := r.rulesets(ctx, snapshotID)
	if err != nil {
		return nil, err
	}
	if len(rulesets) == 0 {
		return nil, fmt.Errorf("%w: no rulesets for policy snapshot %s", models.ErrRulesetNotFound, snapshotID)
	}
	return rulesets, nil
}

func (r *RulesetRepository) rulesets(ctx context.Context, snapshotID string) ([]*models.Ruleset, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, visa_subclass, rules_json
		FROM rulesets
		WHERE policy_snapshot_id = $1
		ORDER BY visa_subclass`, snapshotID)
	if err != nil {
		return nil, fmt.Errorf("%w: query rulesets: %v", ErrQueryExecutionFailed, err)
	}
	defer rows.Close()

	rulesets := []*models.Ruleset{}
	for rows.Next() {
		var id, visa string
		var document []byte
		if err := rows.Scan(&id, &visa, &document); err != nil {
			return nil, fmt.Errorf("%w: scan ruleset: %v", ErrQueryExecutionFailed, err)
		}

		rs, err := models.DecodeRuleset(document)
		if err != nil {
			return nil, fmt.Errorf("ruleset %s (subclass %s): %w", id, visa, err)
		}
		if rs.Visa != visa {
			return nil, fmt.Errorf("%w: ruleset %s is stored under subclass %s but declares %s",
				models.ErrInvalidRuleset, id, visa, rs.Visa)
		}
		rs.ID = id
		rs.PolicySnapshotID = snapshotID
		rulesets = append(rulesets, rs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate rulesets: %v", ErrQueryExecutionFailed, err)
	}
	return rulesets, nil
}

// Publish stores a snapshot and its rulesets in one transaction. Published
// snapshots are immutable: publishing an existing id returns
// ErrSnapshotExists and changes nothing.
func (r *RulesetRepository) Publish(ctx context.Context, snapshot *models.PolicySnapshot) error {
	if err := snapshot.Validate(); err != nil {
		return err
	}
	references := snapshot.References
	if references == nil {
		references = []models.PolicyReference{}
	}
	refsJSON, err := json.Marshal(references)
	if err != nil {
		return fmt.Errorf("marshal references: %w", err)
	}
	effective := sql.NullTime{Time: snapshot.EffectiveDate.Time, Valid: !snapshot.EffectiveDate.IsZero()}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin publish: %v", ErrDatabaseInsertFailed, err)
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx, `
		INSERT INTO policy_snapshots (id, effective_date, "references")
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO NOTHING`, snapshot.ID, effective, refsJSON)
	if err != nil {
		return fmt.Errorf("%w: insert policy snapshot: %v", ErrDatabaseInsertFailed, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: policy snapshot %s", ErrSnapshotExists, snapshot.ID)
	}

	for _, rs := range snapshot.Rulesets {
		doc := *rs
		doc.ID = ""
		doc.PolicySnapshotID = ""
		rulesJSON, err := json.Marshal(&doc)
		if err != nil {
			return fmt.Errorf("marshal ruleset %s: %w", rs.Visa, err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO rulesets (id, policy_snapshot_id, visa_subclass, rules_json)
			VALUES ($1, $2, $3, $4)`, uuid.NewString(), snapshot.ID, rs.Visa, rulesJSON); err != nil {
			return fmt.Errorf("%w: insert ruleset %s: %v", ErrDatabaseInsertFailed, rs.Visa, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit publish: %v", ErrDatabaseInsertFailed, err)
	}
	return nil
}
