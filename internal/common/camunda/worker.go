// internal/common/camunda/worker.go
package camunda

import (
	"time"

	"migration-assessment/internal/common/metrics"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"go.uber.org/zap"
)

type CamundaWorker struct {
	worker   worker.JobWorker
	logger   *zap.Logger
	taskType string
}

// WorkerOptions carries the per task type settings from config.
type WorkerOptions struct {
	MaxJobsActive int
	Timeout       time.Duration
}

// NewWorker opens a job worker for taskType. The handler reports each
// job outcome to the broker itself.
func NewWorker(client zbc.Client, taskType string, opts WorkerOptions, handler worker.JobHandler, logger *zap.Logger) *CamundaWorker {
	step := client.NewJobWorker().
		JobType(taskType).
		Handler(func(client worker.JobClient, job entities.Job) {
			metrics.ActiveJobs.WithLabelValues(taskType).Inc()
			defer metrics.ActiveJobs.WithLabelValues(taskType).Dec()
			handler(client, job)
		}).
		MaxJobsActive(opts.MaxJobsActive)
	if opts.Timeout > 0 {
		step = step.Timeout(opts.Timeout)
	}

	return &CamundaWorker{
		worker:   step.Open(),
		logger:   logger,
		taskType: taskType,
	}
}

func (w *CamundaWorker) TaskType() string {
	return w.taskType
}

// Stop closes the job worker and waits for in-flight jobs. The shared
// client is closed by its owner.
func (w *CamundaWorker) Stop() {
	w.logger.Info("stopping worker", zap.String("taskType", w.taskType))
	w.worker.Close()
	w.worker.AwaitClose()
}
