package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/lanhub-app/lanhub/internal/audit"
	"github.com/lanhub-app/lanhub/internal/settings"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskAuditPrune removes audit entries past the retention window.
	TaskAuditPrune = "audit:prune"
	// TaskSettingsWarmup pre-populates the settings cache.
	TaskSettingsWarmup = "settings:warmup"
)

// AuditPrunePayload carries the fallback retention in days, used when
// the audit.retention_days setting is missing or unreadable.
type AuditPrunePayload struct {
	FallbackDays int `json:"fallback_days"`
}

// NewAuditPruneTask constructs the prune task.
func NewAuditPruneTask(fallbackDays int) (*asynq.Task, error) {
	data, err := json.Marshal(AuditPrunePayload{FallbackDays: fallbackDays})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAuditPrune, data), nil
}

// AuditPruneJob deletes audit entries older than the configured
// retention. The retention comes from the audit.retention_days setting
// so administrators control it without a redeploy.
type AuditPruneJob struct {
	audit    *audit.Service
	settings *settings.Service
	logger   *slog.Logger
}

func NewAuditPruneJob(auditSvc *audit.Service, settingsSvc *settings.Service, logger *slog.Logger) *AuditPruneJob {
	return &AuditPruneJob{audit: auditSvc, settings: settingsSvc, logger: logger}
}

// Handle processes TaskAuditPrune tasks.
func (j *AuditPruneJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload AuditPrunePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	days := j.settings.Int(ctx, "audit.retention_days", int64(payload.FallbackDays))
	if days <= 0 {
		j.logger.Info("audit retention disabled, skipping prune")
		return nil
	}
	removed, err := j.audit.Prune(ctx, time.Duration(days)*24*time.Hour)
	if err != nil {
		return err
	}
	j.logger.Info("pruned audit trail", "removed", removed, "retention_days", days)
	return nil
}

// NewSettingsWarmupTask constructs the warmup task.
func NewSettingsWarmupTask() (*asynq.Task, error) {
	return asynq.NewTask(TaskSettingsWarmup, nil), nil
}

// SettingsWarmupJob loads every setting into the cache so the first
// request after a restart does not pay the database round trips.
type SettingsWarmupJob struct {
	settings *settings.Service
	logger   *slog.Logger
}

func NewSettingsWarmupJob(settingsSvc *settings.Service, logger *slog.Logger) *SettingsWarmupJob {
	return &SettingsWarmupJob{settings: settingsSvc, logger: logger}
}

// Handle processes TaskSettingsWarmup tasks.
func (j *SettingsWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	n, err := j.settings.WarmCache(ctx)
	if err != nil {
		return err
	}
	j.logger.Info("settings cache warmed", "keys", n)
	return nil
}
