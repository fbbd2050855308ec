package shared

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// AuditEntry represents a record stored in audit_logs.
type AuditEntry struct {
	ID         int64     `json:"id"`
	ActorID    int64     `json:"actor_id"`
	Action     string    `json:"action"`
	Resource   string    `json:"resource"`
	ResourceID int64     `json:"resource_id,omitempty"`
	Details    string    `json:"details,omitempty"`
	IPAddress  string    `json:"ip_address,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// AuditLogger appends entries to the audit_logs table.
type AuditLogger struct {
	pool *pgxpool.Pool
}

// NewAuditLogger returns a new AuditLogger.
func NewAuditLogger(pool *pgxpool.Pool) *AuditLogger {
	return &AuditLogger{pool: pool}
}

// Record persists the entry. ActorID zero means the action had no
// authenticated actor (boot seed, worker jobs).
func (l *AuditLogger) Record(ctx context.Context, entry AuditEntry) error {
	if l == nil {
		return errors.New("audit logger not initialised")
	}
	if entry.Action == "" || entry.Resource == "" {
		return errors.New("audit entry requires action and resource")
	}
	at := entry.CreatedAt
	if at.IsZero() {
		at = time.Now().UTC()
	}
	_, err := l.pool.Exec(ctx,
		`INSERT INTO audit_logs (actor_id, action, resource, resource_id, details, ip_address, created_at)
		 VALUES (NULLIF($1, 0), $2, $3, NULLIF($4, 0), $5, $6, $7)`,
		entry.ActorID, entry.Action, entry.Resource, entry.ResourceID, entry.Details, entry.IPAddress, at)
	return err
}
