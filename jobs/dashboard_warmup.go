package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/nbthub-com/project-manager/internal/dashboard"
	jobmetrics "github.com/nbthub-com/project-manager/internal/jobs"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// DashboardWarmupJob pre-populates dashboard caches for every active account
// so the first morning request is served warm.
type DashboardWarmupJob struct {
	Dashboard *dashboard.Service
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
}

// NewDashboardWarmupJob wires dependencies for the warmup handler.
func NewDashboardWarmupJob(dashboardSvc *dashboard.Service, logger *slog.Logger, metrics *jobmetrics.Metrics) *DashboardWarmupJob {
	return &DashboardWarmupJob{Dashboard: dashboardSvc, Logger: logger, Metrics: metrics}
}

// Handle processes dashboard warmup tasks.
func (j *DashboardWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Dashboard == nil {
		return errors.New("dashboard warmup: handler not configured")
	}
	var payload DashboardWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	tracker := j.metrics().Track(TaskTypeDashboardWarmup)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger()
	logger.Info("starting dashboard warmup")

	start := time.Now()
	jobCtx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	warmed, err := j.Dashboard.Warm(jobCtx)
	if err != nil {
		resultErr = err
		logger.Error("dashboard warmup", slog.Any("error", err), slog.Int("warmed", warmed))
		return resultErr
	}

	logger.Info("completed dashboard warmup", slog.Int("warmed", warmed), slog.Duration("duration", time.Since(start)))
	return resultErr
}

func (j *DashboardWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskTypeDashboardWarmup))
	}
	return slog.Default().With(slog.String("job", TaskTypeDashboardWarmup))
}

func (j *DashboardWarmupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
