// internal/store/audit_memory.go
package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"migration-assessment/internal/models"

	"github.com/google/uuid"
)

// AuditMemory keeps audit records in process. It backs the offline assess
// tool and tests.
type AuditMemory struct {
	mu      sync.RWMutex
	records map[string]models.AuditRecord
	now     func() time.Time
}

func NewAuditMemory() *AuditMemory {
	return &AuditMemory{
		records: make(map[string]models.AuditRecord),
		now:     time.Now,
	}
}

func (s *AuditMemory) Create(ctx context.Context, record *models.AuditRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[record.AssessmentID]; exists {
		return fmt.Errorf("%w: assessment %s", models.ErrRecordExists, record.AssessmentID)
	}

	stampNew(record, s.now())
	s.records[record.AssessmentID] = *record
	return nil
}

func (s *AuditMemory) Get(ctx context.Context, assessmentID string) (*models.AuditRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[assessmentID]
	if !ok {
		return nil, fmt.Errorf("%w: assessment %s", models.ErrRecordNotFound, assessmentID)
	}
	return &record, nil
}

func (s *AuditMemory) Update(ctx context.Context, assessmentID string, fn func(models.AuditRecord) (*models.AuditRecord, error)) (*models.AuditRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.records[assessmentID]
	if !ok {
		return nil, fmt.Errorf("%w: assessment %s", models.ErrRecordNotFound, assessmentID)
	}

	updated, err := fn(current)
	if err != nil {
		return nil, err
	}
	if err := checkWriteOnce(&current, updated); err != nil {
		return nil, err
	}

	s.records[assessmentID] = *updated
	return updated, nil
}

// stampNew fills the identity and timestamps a caller left empty.
func stampNew(record *models.AuditRecord, now time.Time) {
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now.UTC()
	}
	if record.UpdatedAt.IsZero() {
		record.UpdatedAt = record.CreatedAt
	}
}

// checkWriteOnce rejects updates that touch anything besides the
// appendable fields.
func checkWriteOnce(before, after *models.AuditRecord) error {
	if after == nil {
		return fmt.Errorf("%w: update produced no record", models.ErrAppendRejected)
	}
	if before.ID != after.ID ||
		before.AssessmentID != after.AssessmentID ||
		before.TenantID != after.TenantID ||
		before.ProfileChecksum != after.ProfileChecksum ||
		before.PolicySnapshotID != after.PolicySnapshotID ||
		!before.CreatedAt.Equal(after.CreatedAt) {
		return fmt.Errorf("%w: core fields of assessment %s are write-once", models.ErrAppendRejected, before.AssessmentID)
	}
	return nil
}
