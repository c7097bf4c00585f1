// internal/workers/assessment/record-reviewer-signoff/handler.go
package recordreviewersignoff

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"migration-assessment/internal/assessment/audit"
	commonerrors "migration-assessment/internal/common/errors"
	"migration-assessment/internal/common/logger"
	"migration-assessment/internal/common/metrics"
	"migration-assessment/internal/common/validation"
	"migration-assessment/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "record-reviewer-signoff"
)

// Indexer refreshes the searchable copy of a record.
type Indexer interface {
	Index(ctx context.Context, record *models.AuditRecord) error
}

type Handler struct {
	config *Config
	store  audit.Store
	index  Indexer
	errors *commonerrors.ErrorHandler
	logger logger.Logger
	now    func() time.Time
}

func NewHandler(config *Config, store audit.Store, index Indexer, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: config,
		store:  store,
		index:  index,
		errors: commonerrors.NewErrorHandler(log),
		logger: log,
		now:    time.Now,
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
		code := h.errors.HandleJobError(ctx, client, job, commonerrors.NewInputParseFailedError(err))
		metrics.RecordJob(TaskType, string(code), time.Since(start).Seconds())
		return
	}

	output, err := h.execute(ctx, &input)
	if err != nil {
		code := h.errors.HandleJobError(ctx, client, job, err)
		metrics.RecordJob(TaskType, string(code), time.Since(start).Seconds())
		return
	}

	h.completeJob(client, job, output)
	metrics.RecordJob(TaskType, "", time.Since(start).Seconds())
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	input.ReviewerName = strings.TrimSpace(input.ReviewerName)
	input.LicenseNumber = strings.TrimSpace(input.LicenseNumber)
	if result := validation.ValidateStruct(input); !result.Valid {
		return nil, commonerrors.NewInputValidationFailedError(result.Summary())
	}

	signoff := models.ReviewerSignoff{
		ReviewerName:  input.ReviewerName,
		LicenseNumber: input.LicenseNumber,
		Comments:      strings.TrimSpace(input.Comments),
	}
	if input.SignedAt != "" {
		signedAt, err := time.Parse(time.RFC3339, input.SignedAt)
		if err != nil {
			return nil, commonerrors.NewInputValidationFailedError(
				fmt.Sprintf("signedAt: %q is not an RFC 3339 timestamp", input.SignedAt))
		}
		signoff.SignedAt = signedAt
	}

	record, err := audit.AttachSignoff(ctx, h.store, input.AssessmentID, signoff, h.now())
	if err != nil {
		return nil, err
	}

	if h.index != nil {
		if err := h.index.Index(ctx, record); err != nil {
			h.logger.Warn("audit record re-index failed", map[string]interface{}{
				"assessmentId": record.AssessmentID,
				"error":        err,
			})
		}
	}

	h.logger.Info("reviewer signoff recorded", map[string]interface{}{
		"assessmentId":  record.AssessmentID,
		"reviewerName":  record.ReviewerSignoff.ReviewerName,
		"licenseNumber": record.ReviewerSignoff.LicenseNumber,
	})

	return &Output{
		AssessmentID:    record.AssessmentID,
		ReviewerName:    record.ReviewerSignoff.ReviewerName,
		LicenseNumber:   record.ReviewerSignoff.LicenseNumber,
		SignedAt:        record.ReviewerSignoff.SignedAt.Format(time.RFC3339),
		ProfileChecksum: record.ProfileChecksum,
	}, nil
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
