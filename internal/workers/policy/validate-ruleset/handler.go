// internal/workers/policy/validate-ruleset/handler.go
package validateruleset

import (
	"context"
	"encoding/json"
	"time"

	commonerrors "migration-assessment/internal/common/errors"
	"migration-assessment/internal/common/logger"
	"migration-assessment/internal/common/metrics"
	"migration-assessment/internal/common/validation"
	"migration-assessment/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "validate-ruleset"
)

type Handler struct {
	config *Config
	errors *commonerrors.ErrorHandler
	logger logger.Logger
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: config,
		errors: commonerrors.NewErrorHandler(log),
		logger: log,
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

// execute checks the document shape first and only compiles a ruleset
// whose shape is valid.
func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if result := validation.ValidateStruct(input); !result.Valid {
		return nil, commonerrors.NewInputValidationFailedError(result.Summary())
	}

	result, err := validation.ValidateRulesetDocument(input.Ruleset)
	if err != nil {
		return &Output{
			Valid:  false,
			Errors: []validation.ValidationError{{Field: "(root)", Message: err.Error(), Code: "INVALID_JSON"}},
		}, nil
	}
	if !result.Valid {
		h.logger.Info("ruleset rejected by schema", map[string]interface{}{
			"errors": len(result.Errors),
		})
		return &Output{Valid: false, Errors: result.Errors}, nil
	}

	rs, err := models.DecodeRuleset(input.Ruleset)
	if err != nil {
		stdErr := commonerrors.Classify(err)
		h.logger.Info("ruleset rejected", map[string]interface{}{
			"errorCode": string(stdErr.Code),
			"details":   stdErr.Details,
		})
		return &Output{
			Valid:  false,
			Errors: []validation.ValidationError{{Field: "criteria", Message: err.Error(), Code: string(stdErr.Code)}},
		}, nil
	}

	h.logger.Info("ruleset valid", map[string]interface{}{
		"visa":    rs.Visa,
		"version": rs.Version,
	})
	return &Output{
		Valid:    true,
		Visa:     rs.Visa,
		Version:  rs.Version,
		Criteria: len(rs.Criteria),
		Errors:   []validation.ValidationError{},
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
