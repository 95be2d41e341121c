package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskAuditCleanup purges auth audit rows older than the retention window.
	TaskAuditCleanup = "audit:cleanup"
	// TaskGrantsSweep reports role grants referencing retired permissions.
	TaskGrantsSweep = "rbac:grants_sweep"
)

// AuditCleanupPayload carries parameters for the audit cleanup job.
type AuditCleanupPayload struct {
	RetentionHours int `json:"retention_hours"`
}

// NewAuditCleanupTask constructs an Asynq task.
func NewAuditCleanupTask(payload AuditCleanupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAuditCleanup, data), nil
}

// NewGrantsSweepTask constructs an Asynq task.
func NewGrantsSweepTask() (*asynq.Task, error) {
	return asynq.NewTask(TaskGrantsSweep, nil), nil
}
