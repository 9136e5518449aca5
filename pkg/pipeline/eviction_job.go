package pipeline

import (
	"context"
	"log/slog"
	"time"

	"staticnews/pkg/config"
	"staticnews/pkg/content"
	"staticnews/pkg/db"
)

// EvictionJob clears expired content and prunes the sqlite cache.
type EvictionJob struct {
	BaseJob
	store     *content.Store
	database  *db.DB
	retention time.Duration
	interval  time.Duration
	lastRun   time.Time
}

// NewEvictionJob creates the eviction job. database may be nil when
// running without persistence.
func NewEvictionJob(cfg *config.Config, st *content.Store, database *db.DB) *EvictionJob {
	return &EvictionJob{
		BaseJob:   NewBaseJob("Eviction"),
		store:     st,
		database:  database,
		retention: cfg.Content.Retention.Std(),
		interval:  cfg.Pipeline.EvictionEvery.Std(),
	}
}

func (j *EvictionJob) ShouldFire(now time.Time) bool {
	if j.isRunning() {
		return false
	}
	return j.lastRun.IsZero() || now.Sub(j.lastRun) >= j.interval
}

func (j *EvictionJob) Run(_ context.Context, now time.Time) {
	if !j.TryLock() {
		return
	}
	defer j.Unlock()
	j.lastRun = now

	removed := j.store.EvictExpired(now, j.retention)
	if removed > 0 {
		slog.Info("Eviction: content pruned", "removed", removed, "remaining", j.store.Len())
	}

	if j.database != nil {
		if err := j.database.PruneCache(7 * 24 * time.Hour); err != nil {
			slog.Warn("Eviction: cache prune failed", "error", err)
		}
	}
}
