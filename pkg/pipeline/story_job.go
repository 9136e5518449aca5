package pipeline

import (
	"context"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"staticnews/pkg/config"
	"staticnews/pkg/content"
	"staticnews/pkg/fallback"
	"staticnews/pkg/llm"
	"staticnews/pkg/model"
)

// storyCategories rotates the flavor of authored originals.
var storyCategories = []string{"weird", "human_interest", "investigative", "opinion"}

// StoryJob authors original content items on a cadence. Stories come
// from the script provider chain; the procedural storyteller guarantees
// the desk never runs dry.
type StoryJob struct {
	BaseJob
	exec     *fallback.Executor
	store    *content.Store
	rng      *rand.Rand
	interval time.Duration
	lastRun  time.Time
	cycle    int
}

// NewStoryJob creates the story-creation job. The executor must carry a
// storyteller-style guaranteed provider.
func NewStoryJob(cfg *config.PipelineConfig, exec *fallback.Executor, st *content.Store) *StoryJob {
	return &StoryJob{
		BaseJob:  NewBaseJob("Story"),
		exec:     exec,
		store:    st,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		interval: cfg.StoryEvery.Std(),
	}
}

func (j *StoryJob) ShouldFire(now time.Time) bool {
	if j.isRunning() {
		return false
	}
	return j.lastRun.IsZero() || now.Sub(j.lastRun) >= j.interval
}

func (j *StoryJob) Run(ctx context.Context, now time.Time) {
	if !j.TryLock() {
		return
	}
	defer j.Unlock()
	j.lastRun = now

	category := storyCategories[j.cycle%len(storyCategories)]
	j.cycle++

	req := newRequest(nil, nil, model.OutputScript)
	out := j.exec.Execute(ctx, req, fallback.Input{
		Kind: model.OutputScript,
		Text: llm.StoryPrompt(category),
	})

	title, summary := parseStory(out.Text)
	if title == "" {
		slog.Warn("Story: unparseable output, dropping", "tier", out.Tier)
		return
	}

	item := &model.ContentItem{
		Title:              title,
		Summary:            summary,
		Category:           category,
		SourceKind:         model.SourceOriginal,
		PublishedAt:        now,
		BreakdownPotential: 0.15 + j.rng.Float64()*0.25,
	}
	j.store.Add(item)
	slog.Info("Story: authored", "title", title, "category", category, "tier", out.Tier)
}

// parseStory extracts the Title/Summary lines. Providers occasionally
// wrap or reorder; anything without a recognizable title is rejected.
func parseStory(text string) (title, summary string) {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "Title:"):
			title = strings.TrimSpace(strings.TrimPrefix(line, "Title:"))
		case strings.HasPrefix(line, "Summary:"):
			summary = strings.TrimSpace(strings.TrimPrefix(line, "Summary:"))
		}
	}
	return title, summary
}
