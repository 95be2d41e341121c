package shared

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// AuthEvent represents a record stored in auth_audit.
type AuthEvent struct {
	SubjectID int64
	Username  string
	Event     string
	Detail    map[string]any
	At        time.Time
}

// Auth audit event names.
const (
	AuditLoginSucceeded = "login.succeeded"
	AuditLoginFailed    = "login.failed"
	AuditTokenRevoked   = "token.revoked"
	AuditAccessDenied   = "access.denied"
)

// AuditLogger writes records into auth_audit.
type AuditLogger struct {
	pool *pgxpool.Pool
}

// NewAuditLogger returns a new AuditLogger.
func NewAuditLogger(pool *pgxpool.Pool) *AuditLogger {
	return &AuditLogger{pool: pool}
}

// Record persists the auth event.
func (l *AuditLogger) Record(ctx context.Context, ev AuthEvent) error {
	if l == nil {
		return errors.New("audit logger not initialised")
	}
	if ev.Event == "" {
		return errors.New("audit event requires a name")
	}
	detailJSON, err := json.Marshal(ev.Detail)
	if err != nil {
		return err
	}
	_, err = l.pool.Exec(ctx, `INSERT INTO auth_audit (subject_id, username, event, detail, occurred_at) VALUES (NULLIF($1, 0), $2, $3, $4, COALESCE(NULLIF($5, '0001-01-01T00:00:00Z'::timestamptz), NOW()))`, ev.SubjectID, ev.Username, ev.Event, detailJSON, ev.At)
	return err
}
