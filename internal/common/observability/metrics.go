// internal/common/observability/metrics.go
package observability

import (
	"context"
	"time"

	"migration-assessment/internal/common/logger"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

// Observability owns the OpenTelemetry meter provider. Its instruments are
// exported through the default Prometheus registry alongside the promauto
// collectors.
type Observability struct {
	meterProvider     *metric.MeterProvider
	meter             otelmetric.Meter
	jobCounter        otelmetric.Int64Counter
	jobDuration       otelmetric.Float64Histogram
	assessmentCounter otelmetric.Int64Counter
	riskFactorCounter otelmetric.Int64Counter
}

// New never fails: without an exporter every Record call is a no-op.
func New(serviceName string, log logger.Logger) *Observability {
	exporter, err := prometheus.New()
	if err != nil {
		log.Error("failed to create prometheus exporter", map[string]interface{}{"error": err})
		return &Observability{}
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)
	return newWithProvider(provider, serviceName, log)
}

func newWithProvider(provider *metric.MeterProvider, serviceName string, log logger.Logger) *Observability {
	meter := provider.Meter(serviceName)
	o := &Observability{meterProvider: provider, meter: meter}

	var err error
	if o.jobCounter, err = meter.Int64Counter(
		"jobs.processed",
		otelmetric.WithDescription("Number of jobs processed"),
	); err != nil {
		log.Warn("failed to create instrument", map[string]interface{}{"instrument": "jobs.processed", "error": err})
	}
	if o.jobDuration, err = meter.Float64Histogram(
		"jobs.duration",
		otelmetric.WithDescription("Job processing duration"),
		otelmetric.WithUnit("ms"),
	); err != nil {
		log.Warn("failed to create instrument", map[string]interface{}{"instrument": "jobs.duration", "error": err})
	}
	if o.assessmentCounter, err = meter.Int64Counter(
		"assessments.evaluated",
		otelmetric.WithDescription("Rulesets evaluated against applicant profiles"),
	); err != nil {
		log.Warn("failed to create instrument", map[string]interface{}{"instrument": "assessments.evaluated", "error": err})
	}
	if o.riskFactorCounter, err = meter.Int64Counter(
		"assessments.risk_factors",
		otelmetric.WithDescription("Risk factors raised across assessments"),
	); err != nil {
		log.Warn("failed to create instrument", map[string]interface{}{"instrument": "assessments.risk_factors", "error": err})
	}
	return o
}

func (o *Observability) RecordJobProcessed(ctx context.Context, taskType, status string) {
	if o.jobCounter != nil {
		o.jobCounter.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.String("task_type", taskType),
			attribute.String("status", status),
		))
	}
}

func (o *Observability) RecordJobDuration(ctx context.Context, taskType string, duration time.Duration, status string) {
	if o.jobDuration != nil {
		o.jobDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
			attribute.String("task_type", taskType),
			attribute.String("status", status),
		))
	}
}

// RecordAssessment counts one ruleset evaluation and the risk factors it
// raised.
func (o *Observability) RecordAssessment(ctx context.Context, visa, status, riskLevel string, riskFactors int) {
	attrs := otelmetric.WithAttributes(
		attribute.String("visa", visa),
		attribute.String("status", status),
		attribute.String("risk_level", riskLevel),
	)
	if o.assessmentCounter != nil {
		o.assessmentCounter.Add(ctx, 1, attrs)
	}
	if o.riskFactorCounter != nil && riskFactors > 0 {
		o.riskFactorCounter.Add(ctx, int64(riskFactors), otelmetric.WithAttributes(attribute.String("visa", visa)))
	}
}

func (o *Observability) Shutdown(ctx context.Context) error {
	if o.meterProvider == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return o.meterProvider.Shutdown(ctx)
}
