// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"migration-assessment/internal/assessment/pipeline"
	"migration-assessment/internal/assessment/risk"
	"migration-assessment/internal/common/camunda"
	"migration-assessment/internal/common/config"
	"migration-assessment/internal/common/database"
	"migration-assessment/internal/common/logger"
	"migration-assessment/internal/common/observability"
	"migration-assessment/internal/models"
	"migration-assessment/internal/policy"
	"migration-assessment/internal/store"
	"migration-assessment/pkg/registry"

	arp "migration-assessment/internal/workers/assessment/attach-report-paths"
	rrs "migration-assessment/internal/workers/assessment/record-reviewer-signoff"
	ra "migration-assessment/internal/workers/assessment/run-assessment"
	vr "migration-assessment/internal/workers/policy/validate-ruleset"
)

// indexer is satisfied by *store.AuditIndex. It stays a nil interface when
// Elasticsearch is not configured.
type indexer interface {
	Index(ctx context.Context, record *models.AuditRecord) error
}

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync() //nolint:errcheck

	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("starting worker manager",
		zap.String("app", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New(cfg.App.Name, log)
	defer obs.Shutdown(context.Background()) //nolint:errcheck

	ctx := context.Background()

	loc, err := cfg.Engine.Location()
	if err != nil {
		zapLog.Fatal("invalid engine timezone", zap.Error(err))
	}

	// --- Zeebe ---
	var zeebe *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebe, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
			RequestTimeout:         config.GetDuration(cfg.Camunda.RequestTimeout),
		})
		return err
	}, 5, 2*time.Second, zapLog, "Zeebe client initialization")
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected", zap.String("gateway", cfg.Camunda.BrokerAddress))

	// --- PostgreSQL ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()

	if err := pg.Migrate(ctx); err != nil {
		zapLog.Fatal("schema migration failed", zap.Error(err))
	}
	zapLog.Info("PostgreSQL connected and migrated")

	// --- Policy rulesets ---
	var rulesets policy.Provider = store.NewRulesetRepository(pg.DB)

	rdb := database.NewRedis(cfg.Database.Redis)
	if rdb != nil {
		if err := retryWithBackoff(func() error { return rdb.Ping(ctx) }, 10, 2*time.Second, zapLog, "Redis connection"); err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer rdb.Close()
		rulesets = store.NewRulesetCache(rulesets, rdb.Client, config.GetDuration(cfg.Policy.CacheTTL), log)
		zapLog.Info("ruleset cache enabled", zap.Int("ttlMs", cfg.Policy.CacheTTL))
	}

	if cfg.Policy.RulesetDir != "" {
		snapshots, err := registry.LoadDir(cfg.Policy.RulesetDir)
		if err != nil {
			zapLog.Fatal("failed to load policy snapshots", zap.String("dir", cfg.Policy.RulesetDir), zap.Error(err))
		}
		static, err := policy.NewStatic(snapshots...)
		if err != nil {
			zapLog.Fatal("invalid policy snapshot", zap.String("dir", cfg.Policy.RulesetDir), zap.Error(err))
		}
		rulesets = policy.Chain{static, rulesets}
		zapLog.Info("policy snapshots loaded from files", zap.Int("snapshots", len(snapshots)))
	}

	// --- Elasticsearch ---
	var auditIndex indexer
	esClient, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
	if err != nil {
		zapLog.Fatal("elasticsearch client failed", zap.Error(err))
	}
	if esClient != nil {
		err = retryWithBackoff(func() error {
			if err := esClient.Ping(ctx); err != nil {
				return err
			}
			return esClient.EnsureIndex(ctx, cfg.Audit.Index, store.AuditIndexMapping)
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		auditIndex = store.NewAuditIndex(esClient.Client, cfg.Audit.Index)
		zapLog.Info("audit search index enabled", zap.String("index", cfg.Audit.Index))
	}

	auditStore := store.NewAuditPostgres(pg.DB)
	assess := pipeline.New(rulesets, risk.New(cfg.Engine.Risk.ToPolicy()))

	// --- Workers ---
	var workers []*camunda.CamundaWorker
	if config.IsWorkerEnabled(cfg, ra.TaskType) {
		wcfg := config.GetWorkerConfig(cfg, ra.TaskType)
		handler := ra.NewHandler(
			&ra.Config{
				Timeout:           config.GetDuration(wcfg.Timeout),
				DefaultSnapshotID: cfg.Policy.SnapshotID,
				Location:          loc,
			},
			assess, auditStore, auditIndex, obs, log,
		)
		workers = append(workers, openWorker(zeebe, ra.TaskType, wcfg, handler.Handle, zapLog))
	}

	if config.IsWorkerEnabled(cfg, arp.TaskType) {
		wcfg := config.GetWorkerConfig(cfg, arp.TaskType)
		handler := arp.NewHandler(
			&arp.Config{Timeout: config.GetDuration(wcfg.Timeout)},
			auditStore, auditIndex, log,
		)
		workers = append(workers, openWorker(zeebe, arp.TaskType, wcfg, handler.Handle, zapLog))
	}

	if config.IsWorkerEnabled(cfg, rrs.TaskType) {
		wcfg := config.GetWorkerConfig(cfg, rrs.TaskType)
		handler := rrs.NewHandler(
			&rrs.Config{Timeout: config.GetDuration(wcfg.Timeout)},
			auditStore, auditIndex, log,
		)
		workers = append(workers, openWorker(zeebe, rrs.TaskType, wcfg, handler.Handle, zapLog))
	}

	if config.IsWorkerEnabled(cfg, vr.TaskType) {
		wcfg := config.GetWorkerConfig(cfg, vr.TaskType)
		handler := vr.NewHandler(&vr.Config{Timeout: config.GetDuration(wcfg.Timeout)}, log)
		workers = append(workers, openWorker(zeebe, vr.TaskType, wcfg, handler.Handle, zapLog))
	}

	zapLog.Info("workers registered", zap.Int("count", len(workers)))

	// --- Health & Metrics Server ---
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, map[string]string{"status": "healthy"})
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		checkCtx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		checks := map[string]string{"postgres": "ok", "zeebe": "ok"}
		status := http.StatusOK
		if err := zeebe.HealthCheck(checkCtx); err != nil {
			checks["zeebe"] = err.Error()
			status = http.StatusServiceUnavailable
		}
		if err := pg.Ping(checkCtx); err != nil {
			checks["postgres"] = err.Error()
			status = http.StatusServiceUnavailable
		}
		if rdb != nil {
			checks["redis"] = "ok"
			if err := rdb.Ping(checkCtx); err != nil {
				checks["redis"] = err.Error()
				status = http.StatusServiceUnavailable
			}
		}
		if esClient != nil {
			checks["elasticsearch"] = "ok"
			if err := esClient.Ping(checkCtx); err != nil {
				checks["elasticsearch"] = err.Error()
				status = http.StatusServiceUnavailable
			}
		}
		writeStatus(w, status, checks)
	})
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		zapLog.Info("health/metrics server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("health/metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("shutdown signal received, stopping workers")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, w := range workers {
		w.Stop()
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("error stopping health server", zap.Error(err))
	}
	if err := zeebe.Close(); err != nil {
		zapLog.Error("error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("worker manager stopped")
}

func openWorker(client *camunda.Client, taskType string, wcfg config.WorkerConfig, handle func(worker.JobClient, entities.Job), log *zap.Logger) *camunda.CamundaWorker {
	w := camunda.NewWorker(client.GetClient(), taskType, camunda.WorkerOptions{
		MaxJobsActive: wcfg.MaxJobsActive,
		Timeout:       config.GetDuration(wcfg.Timeout),
	}, handle, log)

	log.Info("worker started",
		zap.String("taskType", taskType),
		zap.Int("maxJobsActive", wcfg.MaxJobsActive),
		zap.Int("timeoutMs", wcfg.Timeout),
	)
	return w
}

func writeStatus(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
