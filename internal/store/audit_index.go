// internal/store/audit_index.go
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"migration-assessment/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
)

var ErrIndexingFailed = errors.New("INDEXING_FAILED")

const DefaultAuditIndex = "assessment-audit"

// AuditIndexMapping keeps identifiers and codes as exact-match keywords.
const AuditIndexMapping = `{
  "mappings": {
    "properties": {
      "assessment_id":      {"type": "keyword"},
      "tenant_id":          {"type": "keyword"},
      "profile_checksum":   {"type": "keyword"},
      "policy_snapshot_id": {"type": "keyword"},
      "ruleset_versions":   {"type": "object", "dynamic": true},
      "visas":              {"type": "keyword"},
      "eligibility_status": {"type": "object", "dynamic": true},
      "risk_level":         {"type": "object", "dynamic": true},
      "risk_codes":         {"type": "keyword"},
      "evidence_gap_count": {"type": "integer"},
      "high_priority_gaps": {"type": "keyword"},
      "signed_off":         {"type": "boolean"},
      "reviewer_name":      {"type": "text"},
      "created_at":         {"type": "date"},
      "updated_at":         {"type": "date"}
    }
  }
}`

// AuditIndex writes a searchable summary of each audit record to
// Elasticsearch. The database row stays the record of truth.
type AuditIndex struct {
	client *elasticsearch.Client
	index  string
}

func NewAuditIndex(client *elasticsearch.Client, index string) *AuditIndex {
	if index == "" {
		index = DefaultAuditIndex
	}
	return &AuditIndex{client: client, index: index}
}

type auditDocument struct {
	AssessmentID      string            `json:"assessment_id"`
	TenantID          string            `json:"tenant_id"`
	ProfileChecksum   string            `json:"profile_checksum"`
	PolicySnapshotID  string            `json:"policy_snapshot_id"`
	RulesetVersions   map[string]string `json:"ruleset_versions"`
	Visas             []string          `json:"visas"`
	EligibilityStatus map[string]string `json:"eligibility_status"`
	RiskLevel         map[string]string `json:"risk_level"`
	RiskCodes         []string          `json:"risk_codes"`
	EvidenceGapCount  int               `json:"evidence_gap_count"`
	HighPriorityGaps  []string          `json:"high_priority_gaps"`
	SignedOff         bool              `json:"signed_off"`
	ReviewerName      string            `json:"reviewer_name,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

// Index upserts the record's summary under its assessment id.
func (x *AuditIndex) Index(ctx context.Context, record *models.AuditRecord) error {
	body, err := json.Marshal(newAuditDocument(record))
	if err != nil {
		return fmt.Errorf("%w: marshal document: %v", ErrIndexingFailed, err)
	}

	res, err := x.client.Index(
		x.index,
		bytes.NewReader(body),
		x.client.Index.WithDocumentID(record.AssessmentID),
		x.client.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIndexingFailed, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		detail, _ := io.ReadAll(io.LimitReader(res.Body, 1024))
		return fmt.Errorf("%w: %s: %s", ErrIndexingFailed, res.Status(), bytes.TrimSpace(detail))
	}
	return nil
}

func newAuditDocument(record *models.AuditRecord) auditDocument {
	doc := auditDocument{
		AssessmentID:      record.AssessmentID,
		TenantID:          record.TenantID,
		ProfileChecksum:   record.ProfileChecksum,
		PolicySnapshotID:  record.PolicySnapshotID,
		RulesetVersions:   record.RulesetVersions,
		Visas:             []string{},
		EligibilityStatus: make(map[string]string, len(record.EligibilityOutputs)),
		RiskLevel:         make(map[string]string, len(record.RiskOutputs)),
		RiskCodes:         []string{},
		EvidenceGapCount:  len(record.EvidenceGaps),
		HighPriorityGaps:  []string{},
		SignedOff:         record.ReviewerSignoff != nil,
		CreatedAt:         record.CreatedAt,
		UpdatedAt:         record.UpdatedAt,
	}

	for visa, result := range record.EligibilityOutputs {
		doc.Visas = append(doc.Visas, visa)
		if result != nil {
			doc.EligibilityStatus[visa] = string(result.EligibilityStatus)
		}
	}
	sort.Strings(doc.Visas)

	seen := map[string]bool{}
	for visa, assessment := range record.RiskOutputs {
		if assessment == nil {
			continue
		}
		doc.RiskLevel[visa] = string(assessment.OverallRiskLevel)
		for _, f := range assessment.RiskFactors {
			if !seen[f.Code] {
				seen[f.Code] = true
				doc.RiskCodes = append(doc.RiskCodes, f.Code)
			}
		}
	}
	sort.Strings(doc.RiskCodes)

	for _, gap := range record.EvidenceGaps {
		if gap.Priority == models.PriorityHigh {
			doc.HighPriorityGaps = append(doc.HighPriorityGaps, gap.Item)
		}
	}
	if record.ReviewerSignoff != nil {
		doc.ReviewerName = record.ReviewerSignoff.ReviewerName
	}
	return doc
}
