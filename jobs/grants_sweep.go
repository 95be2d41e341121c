package jobs

import (
	"context"

	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	jobmetrics "github.com/assetgrid/assetgrid/internal/jobs"
)

// GrantsSweepJob flags grants that point at permissions no longer present
// in the catalog. Such rows are harmless to the pipeline (they simply never
// match) but indicate a seed or migration mistake worth surfacing.
type GrantsSweepJob struct {
	pool    *pgxpool.Pool
	logger  *slog.Logger
	metrics *jobmetrics.Metrics
}

// NewGrantsSweepJob constructs the job.
func NewGrantsSweepJob(pool *pgxpool.Pool, logger *slog.Logger, metrics *jobmetrics.Metrics) *GrantsSweepJob {
	return &GrantsSweepJob{pool: pool, logger: logger, metrics: metrics}
}

// Handle processes TaskGrantsSweep tasks.
func (j *GrantsSweepJob) Handle(ctx context.Context, t *asynq.Task) error {
	tracker := j.metrics.Track("grants_sweep")
	rows, err := j.pool.Query(ctx, `
		SELECT rp.role_id, rp.permission_id
		FROM role_permissions rp
		LEFT JOIN permissions p ON p.id = rp.permission_id
		WHERE p.id IS NULL`)
	if err != nil {
		return tracker.End(err)
	}
	defer rows.Close()

	var orphans int
	for rows.Next() {
		var roleID, permissionID int64
		if err := rows.Scan(&roleID, &permissionID); err != nil {
			return tracker.End(err)
		}
		orphans++
		if j.logger != nil {
			j.logger.Warn("orphaned role grant",
				slog.Int64("role_id", roleID),
				slog.Int64("permission_id", permissionID))
		}
	}
	if err := rows.Err(); err != nil {
		return tracker.End(err)
	}
	j.metrics.AddOrphanedGrants(orphans)
	if j.logger != nil && orphans == 0 {
		j.logger.Info("grants sweep clean")
	}
	return tracker.End(nil)
}
