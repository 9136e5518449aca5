package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"strings"
	"time"

	"staticnews/pkg/config"
	"staticnews/pkg/content"
	"staticnews/pkg/events"
	"staticnews/pkg/source"
)

// IngestJob pulls the news source on a cadence and feeds the content
// store. Live items raise a breaking signal the moment they land.
type IngestJob struct {
	BaseJob
	src      source.Source
	store    *content.Store
	bus      *events.Bus
	interval time.Duration
	lastRun  time.Time

	// seen dedupes pulls across cycles by title hash.
	seen map[string]time.Time
}

// NewIngestJob creates the ingest job.
func NewIngestJob(cfg *config.PipelineConfig, src source.Source, st *content.Store, bus *events.Bus) *IngestJob {
	return &IngestJob{
		BaseJob:  NewBaseJob("Ingest"),
		src:      src,
		store:    st,
		bus:      bus,
		interval: cfg.IngestEvery.Std(),
		seen:     make(map[string]time.Time),
	}
}

func (j *IngestJob) ShouldFire(now time.Time) bool {
	if j.isRunning() {
		return false
	}
	return j.lastRun.IsZero() || now.Sub(j.lastRun) >= j.interval
}

func (j *IngestJob) Run(ctx context.Context, now time.Time) {
	if !j.TryLock() {
		return
	}
	defer j.Unlock()
	j.lastRun = now

	items, err := j.src.Pull(ctx)
	if err != nil {
		slog.Warn("Ingest: pull failed", "error", err)
		return
	}

	added := 0
	for i := range items {
		item := &items[i]
		h := titleHash(item.Title)
		if _, dup := j.seen[h]; dup {
			continue
		}
		j.seen[h] = now

		j.store.Add(item)
		added++

		if item.IsLive {
			j.bus.PublishBreaking(events.BreakingStory{
				Item:   item,
				Reason: "live item ingested",
				At:     now,
			})
		}
	}

	j.pruneSeen(now)
	slog.Info("Ingest: cycle complete", "pulled", len(items), "added", added, "store", j.store.Len())
}

// pruneSeen drops dedupe entries past the retention horizon so the map
// stays bounded.
func (j *IngestJob) pruneSeen(now time.Time) {
	cutoff := now.Add(-24 * time.Hour)
	for h, at := range j.seen {
		if at.Before(cutoff) {
			delete(j.seen, h)
		}
	}
}

func titleHash(title string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(title))))
	return hex.EncodeToString(sum[:8])
}
