package services

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/yukikurage/project-management-api/internal/audit"
	"github.com/yukikurage/project-management-api/internal/cache"
	"github.com/yukikurage/project-management-api/internal/constants"
	"github.com/yukikurage/project-management-api/internal/metrics"
	"github.com/yukikurage/project-management-api/internal/models"
	"github.com/yukikurage/project-management-api/internal/notify"
	"github.com/yukikurage/project-management-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Deps are the collaborators shared by every service.
// Only Store is required.
type Deps struct {
	Store    repository.Store
	Cache    cache.Cache
	CacheTTL time.Duration
	Notifier notify.Publisher
	Audit    audit.Sink
	Logger   *zap.Logger
	Metrics  *metrics.Metrics
}

func (d Deps) withDefaults() Deps {
	if d.Cache == nil {
		d.Cache = cache.Noop{}
	}
	if d.CacheTTL <= 0 {
		d.CacheTTL = constants.DefaultCacheTTL
	}
	if d.Notifier == nil {
		d.Notifier = notify.Discard{}
	}
	if d.Audit == nil {
		d.Audit = audit.Discard{}
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	return d
}

// cached decodes key into dst and reports whether it was a hit.
func (d Deps) cached(ctx context.Context, key string, dst any) bool {
	res := cache.GetJSON(ctx, d.Cache, key, dst)
	d.Metrics.CacheLookup(res.Label())
	if res.Err != nil {
		d.Logger.Warn("cache lookup failed", zap.String("key", key), zap.Error(res.Err))
	}
	return res.Hit
}

func (d Deps) remember(ctx context.Context, key string, v any) {
	if err := cache.SetJSON(ctx, d.Cache, key, v, d.CacheTTL); err != nil {
		d.Logger.Warn("cache store failed", zap.String("key", key), zap.Error(err))
	}
}

func (d Deps) invalidate(ctx context.Context, keys ...string) {
	if err := d.Cache.Delete(ctx, keys...); err != nil {
		d.Logger.Warn("cache invalidation failed", zap.Strings("keys", keys), zap.Error(err))
	}
}

// invalidateProject drops the project listings of the owner and every member.
func (d Deps) invalidateProject(ctx context.Context, p *models.Project, extraUserIDs ...string) {
	keys := make([]string, 0, len(p.Members)+1+len(extraUserIDs))
	if p.OwnerID != nil {
		keys = append(keys, cache.ProjectsKey(*p.OwnerID))
	}
	for _, id := range p.MemberIDs() {
		keys = append(keys, cache.ProjectsKey(id))
	}
	for _, id := range extraUserIDs {
		keys = append(keys, cache.ProjectsKey(id))
	}
	d.invalidate(ctx, keys...)
}

// publishProgress reads the current progress of a project and broadcasts it.
func (d Deps) publishProgress(ctx context.Context, projectID string) {
	percent, err := ProjectProgress(ctx, d.Store.Tasks(), projectID)
	if err != nil {
		d.Logger.Warn("failed to compute project progress", zap.String("project_id", projectID), zap.Error(err))
		return
	}
	d.Notifier.PublishProgress(notify.Progress{ProjectID: projectID, Percent: percent})
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// tooLong reports whether s has more than limit characters.
func tooLong(s string, limit int) bool {
	return utf8.RuneCountInString(s) > limit
}

// truncate cuts s to at most limit characters.
func truncate(s string, limit int) string {
	n := 0
	for i := range s {
		if n == limit {
			return s[:i]
		}
		n++
	}
	return s
}
