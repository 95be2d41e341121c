package jobs

import (
	"context"
	"encoding/json"
	"time"

	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	jobmetrics "github.com/assetgrid/assetgrid/internal/jobs"
)

// AuditCleanupJob deletes auth audit rows past the retention window.
type AuditCleanupJob struct {
	pool    *pgxpool.Pool
	logger  *slog.Logger
	metrics *jobmetrics.Metrics
}

// NewAuditCleanupJob constructs the job.
func NewAuditCleanupJob(pool *pgxpool.Pool, logger *slog.Logger, metrics *jobmetrics.Metrics) *AuditCleanupJob {
	return &AuditCleanupJob{pool: pool, logger: logger, metrics: metrics}
}

// Handle processes TaskAuditCleanup tasks.
func (j *AuditCleanupJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload AuditCleanupPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}
	retention := time.Duration(payload.RetentionHours) * time.Hour
	if retention <= 0 {
		retention = 90 * 24 * time.Hour
	}

	tracker := j.metrics.Track("audit_cleanup")
	cutoff := time.Now().UTC().Add(-retention)
	tag, err := j.pool.Exec(ctx, `DELETE FROM auth_audit WHERE occurred_at < $1`, cutoff)
	if err != nil {
		if j.logger != nil {
			j.logger.Error("audit cleanup", slog.Any("error", err))
		}
		return tracker.End(err)
	}
	if j.logger != nil {
		j.logger.Info("audit cleanup done", slog.Int64("deleted", tag.RowsAffected()), slog.Time("cutoff", cutoff))
	}
	return tracker.End(nil)
}
