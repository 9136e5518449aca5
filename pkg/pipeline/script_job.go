package pipeline

import (
	"context"
	"log/slog"
	"time"

	"staticnews/pkg/config"
	"staticnews/pkg/fallback"
	"staticnews/pkg/llm"
	"staticnews/pkg/model"
)

// ScriptJob drains the script queue through the script fallback chain
// and hands finished entries to the render queue. One entry per run; the
// chain is sequential and a single anchor reads one script at a time.
type ScriptJob struct {
	BaseJob
	orch     *Orchestrator
	exec     *fallback.Executor
	interval time.Duration
	lastRun  time.Time
}

// NewScriptJob creates the script job.
func NewScriptJob(cfg *config.PipelineConfig, orch *Orchestrator, exec *fallback.Executor) *ScriptJob {
	return &ScriptJob{
		BaseJob:  NewBaseJob("Script"),
		orch:     orch,
		exec:     exec,
		interval: cfg.ScriptEvery.Std(),
	}
}

// ShouldFire is due whenever queued work exists. Interrupt entries jump
// the spacing; normal entries respect the configured cadence.
func (j *ScriptJob) ShouldFire(now time.Time) bool {
	if j.isRunning() {
		return false
	}
	if j.orch.ScriptQueue().Len() == 0 {
		return false
	}
	if j.lastRun.IsZero() || now.Sub(j.lastRun) >= j.interval {
		return true
	}
	return j.orch.ScriptQueue().HasFront()
}

func (j *ScriptJob) Run(ctx context.Context, now time.Time) {
	if !j.TryLock() {
		return
	}
	defer j.Unlock()

	entry := j.orch.ScriptQueue().Pop()
	if entry == nil {
		return
	}
	j.lastRun = now

	// A stale natural entry missed its slot; nothing was generated yet,
	// so it is dropped rather than cached.
	active := j.orch.ActiveInstance()
	if entry.Instance != nil && (active == nil || active.Key != entry.Instance.Key) {
		slog.Debug("Script: dropping stale entry", "instance", entry.Instance.Key)
		return
	}

	segType := model.SubSegStory
	if entry.Instance != nil {
		segType = entry.Instance.Def.Type
	}

	out := j.exec.Execute(ctx, entry.Request, fallback.Input{
		Item: entry.Item,
		Kind: model.OutputScript,
		Text: llm.ScriptPrompt(entry.Item, segType),
	})
	entry.Output = &out

	if entry.Instance != nil && entry.Instance.Injected() {
		j.orch.RenderQueue().PushFront(entry)
	} else {
		j.orch.RenderQueue().Push(entry)
	}
	slog.Info("Script: generated", "instance", entry.Request.InstanceKey, "tier", out.Tier, "attempts", len(entry.Request.Attempts))
}
