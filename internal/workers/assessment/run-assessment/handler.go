// internal/workers/assessment/run-assessment/handler.go
package runassessment

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"migration-assessment/internal/assessment/audit"
	"migration-assessment/internal/assessment/pipeline"
	commonerrors "migration-assessment/internal/common/errors"
	"migration-assessment/internal/common/logger"
	"migration-assessment/internal/common/metrics"
	"migration-assessment/internal/common/observability"
	"migration-assessment/internal/common/validation"
	"migration-assessment/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "run-assessment"
)

// Indexer publishes a stored record for search.
type Indexer interface {
	Index(ctx context.Context, record *models.AuditRecord) error
}

type Handler struct {
	config   *Config
	pipeline *pipeline.Pipeline
	store    audit.Store
	index    Indexer
	obs      *observability.Observability
	errors   *commonerrors.ErrorHandler
	logger   logger.Logger
	now      func() time.Time
}

// NewHandler wires the handler. index and obs may be nil.
func NewHandler(config *Config, p *pipeline.Pipeline, store audit.Store, index Indexer, obs *observability.Observability, log logger.Logger) *Handler {
	if config.Location == nil {
		config.Location = time.UTC
	}
	if obs == nil {
		obs = &observability.Observability{}
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:   config,
		pipeline: p,
		store:    store,
		index:    index,
		obs:      obs,
		errors:   commonerrors.NewErrorHandler(log),
		logger:   log,
		now:      time.Now,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.fail(ctx, client, job, commonerrors.NewInputParseFailedError(err), start)
		return
	}

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.fail(ctx, client, job, err, start)
		return
	}

	h.completeJob(client, job, output)
	metrics.RecordJob(TaskType, "", time.Since(start).Seconds())
	h.obs.RecordJobProcessed(ctx, TaskType, "completed")
	h.obs.RecordJobDuration(ctx, TaskType, time.Since(start), "completed")
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, err error, start time.Time) {
	code := h.errors.HandleJobError(ctx, client, job, err)
	metrics.RecordJob(TaskType, string(code), time.Since(start).Seconds())
	h.obs.RecordJobProcessed(ctx, TaskType, "failed")
	h.obs.RecordJobDuration(ctx, TaskType, time.Since(start), "failed")
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if result := validation.ValidateStruct(input); !result.Valid {
		return nil, commonerrors.NewInputValidationFailedError(result.Summary())
	}

	now, err := h.evaluationTime(input.EvaluatedAt)
	if err != nil {
		return nil, err
	}

	profile, err := decodeProfile(input.Profile)
	if err != nil {
		return nil, err
	}

	snapshotID := strings.TrimSpace(input.PolicySnapshotID)
	if snapshotID == "" {
		snapshotID = h.config.DefaultSnapshotID
	}

	outcome, err := h.pipeline.Assess(ctx, pipeline.Request{
		AssessmentID:     input.AssessmentID,
		TenantID:         input.TenantID,
		PolicySnapshotID: snapshotID,
		Profile:          profile,
		Now:              now,
	})
	if err != nil {
		return nil, err
	}

	record := outcome.Record
	if err := h.store.Create(ctx, record); err != nil {
		return nil, err
	}

	if h.index != nil {
		if err := h.index.Index(ctx, record); err != nil {
			h.logger.Warn("audit record indexing failed", map[string]interface{}{
				"assessmentId": record.AssessmentID,
				"error":        err,
			})
		}
	}

	h.record(ctx, outcome)

	h.logger.Info("assessment recorded", map[string]interface{}{
		"assessmentId":     record.AssessmentID,
		"auditRecordId":    record.ID,
		"policySnapshotId": snapshotID,
		"overallStatus":    string(outcome.OverallStatus),
		"riskLevel":        string(outcome.Risk.OverallRiskLevel),
		"evidenceGaps":     len(outcome.EvidenceGaps),
	})

	return &Output{
		AssessmentID:    record.AssessmentID,
		AuditRecordID:   record.ID,
		ProfileChecksum: record.ProfileChecksum,
		OverallStatus:   outcome.OverallStatus,
		Eligibility:     outcome.Eligibility,
		Risk:            outcome.Risk,
		EvidenceGaps:    outcome.EvidenceGaps,
		RulesetVersions: record.RulesetVersions,
		EvaluatedAt:     now.Format(time.RFC3339),
	}, nil
}

// evaluationTime defaults to the moment the job is handled.
func (h *Handler) evaluationTime(raw string) (time.Time, error) {
	if raw == "" {
		return h.now().In(h.config.Location), nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, commonerrors.NewInputValidationFailedError(
			fmt.Sprintf("evaluatedAt: %q is not an RFC 3339 timestamp", raw))
	}
	return t.In(h.config.Location), nil
}

func decodeProfile(raw json.RawMessage) (*models.ApplicantProfile, error) {
	result, err := validation.ValidateProfileDocument(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrMalformedProfile, err)
	}
	if !result.Valid {
		return nil, fmt.Errorf("%w: %s", models.ErrMalformedProfile, result.Summary())
	}

	var profile models.ApplicantProfile
	if err := json.Unmarshal(raw, &profile); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrMalformedProfile, err)
	}
	return &profile, nil
}

func (h *Handler) record(ctx context.Context, outcome *pipeline.Outcome) {
	level := string(outcome.Risk.OverallRiskLevel)
	for visa, result := range outcome.Eligibility {
		status := string(result.EligibilityStatus)
		metrics.AssessmentsTotal.WithLabelValues(visa, status).Inc()
		metrics.RiskLevelTotal.WithLabelValues(visa, level).Inc()
		h.obs.RecordAssessment(ctx, visa, status, level, len(outcome.Risk.RiskFactors))
	}
	metrics.EvidenceGapsEmitted.Observe(float64(len(outcome.EvidenceGaps)))
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	_, err = cmd.Send(context.Background())
	if err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	} else {
		h.logger.Info("job completed successfully", map[string]interface{}{
			"jobKey": job.Key,
		})
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
