// Package audit appends records to the audit trail. Recording never fails the
// caller; write errors are logged and counted.
package audit

import (
	"context"
	"encoding/json"

	"github.com/yukikurage/project-management-api/internal/metrics"
	"github.com/yukikurage/project-management-api/internal/models"
	"github.com/yukikurage/project-management-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// Entry describes one audited action. Empty fields are stored as NULL.
type Entry struct {
	Action       models.LogAction
	UserID       string
	ResourceType string
	ResourceID   string
	Details      map[string]any
}

// Sink accepts audit entries.
type Sink interface {
	Record(ctx context.Context, e Entry)
}

// Discard ignores every entry.
type Discard struct{}

func (Discard) Record(context.Context, Entry) {}

// Recorder writes entries through a LogRepository.
type Recorder struct {
	logs    repository.LogRepository
	logger  *zap.Logger
	metrics *metrics.Metrics
}

func NewRecorder(logs repository.LogRepository, logger *zap.Logger, m *metrics.Metrics) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{logs: logs, logger: logger, metrics: m}
}

// Record appends e to the trail.
func (r *Recorder) Record(ctx context.Context, e Entry) {
	entry := &models.Log{
		Action:       e.Action,
		UserID:       optional(e.UserID),
		ResourceType: optional(e.ResourceType),
		ResourceID:   optional(e.ResourceID),
	}
	if len(e.Details) > 0 {
		b, err := json.Marshal(e.Details)
		if err != nil {
			r.logger.Warn("audit details not encodable", zap.String("action", string(e.Action)), zap.Error(err))
		} else {
			entry.Details = datatypes.JSON(b)
		}
	}

	if err := r.logs.Create(ctx, entry); err != nil {
		r.metrics.AuditFailed()
		r.logger.Warn("failed to write audit record",
			zap.String("action", string(e.Action)),
			zap.String("resource_id", e.ResourceID),
			zap.Error(err),
		)
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
