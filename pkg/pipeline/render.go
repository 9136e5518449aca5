package pipeline

import (
	"context"
	"log/slog"
	"time"

	"staticnews/pkg/fallback"
	"staticnews/pkg/model"
	"staticnews/pkg/playout"
	"staticnews/pkg/queue"
	"staticnews/pkg/store"
)

// RenderLoop continuously drains the render queue: speech, video, and
// composite generation in sequence, then presentation. It is the only
// component that touches the playout sink.
type RenderLoop struct {
	orch      *Orchestrator
	speech    *fallback.Executor
	video     *fallback.Executor
	composite *fallback.Executor
	sink      playout.Sink
	history   store.HistoryStore
}

// NewRenderLoop creates the render loop.
func NewRenderLoop(orch *Orchestrator, speech, video, composite *fallback.Executor, sink playout.Sink, history store.HistoryStore) *RenderLoop {
	return &RenderLoop{
		orch:      orch,
		speech:    speech,
		video:     video,
		composite: composite,
		sink:      sink,
		history:   history,
	}
}

// Run drains until the context ends.
func (r *RenderLoop) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for {
				entry := r.orch.RenderQueue().Pop()
				if entry == nil {
					break
				}
				r.render(ctx, entry)
			}
		}
	}
}

func (r *RenderLoop) render(ctx context.Context, entry *queue.Entry) {
	if entry.Output == nil || entry.Output.Text == "" {
		slog.Warn("Render: entry without script, dropping", "request", entry.Request.ID)
		return
	}
	script := *entry.Output

	// The slot may have been preempted while the script was written.
	active := r.orch.ActiveInstance()
	if entry.Instance != nil && (active == nil || active.Key != entry.Instance.Key) {
		if entry.Item != nil {
			r.orch.cacheScript(entry.Item.ID, script.Text)
		}
		slog.Info("Render: slot preempted, script cached", "instance", entry.Instance.Key)
		return
	}

	in := fallback.Input{Item: entry.Item, Text: script.Text}

	in.Kind = model.OutputSpeech
	speech := r.speech.Execute(ctx, newRequest(entry.Item, entry.Instance, model.OutputSpeech), in)

	in.Kind = model.OutputVideo
	in.MediaRef = speech.MediaRef
	video := r.video.Execute(ctx, newRequest(entry.Item, entry.Instance, model.OutputVideo), in)

	in.Kind = model.OutputComposite
	in.MediaRef = video.MediaRef
	composite := r.composite.Execute(ctx, newRequest(entry.Item, entry.Instance, model.OutputComposite), in)

	seg := &model.RenderedSegment{
		Item:       entry.Item,
		Instance:   entry.Instance,
		Script:     script,
		Media:      composite,
		RenderedAt: time.Now(),
	}

	if err := r.sink.Present(seg); err != nil {
		slog.Warn("Render: present failed", "error", err)
	}
	r.orch.setOnAir(seg)

	if entry.Item != nil {
		r.orch.store.MarkConsumed(entry.Item.ID)
		if entry.Item.IsLive {
			r.orch.store.MarkOffAir(entry.Item.ID)
		}
	}

	hctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := r.history.RecordBroadcast(hctx, seg); err != nil {
		slog.Warn("Render: history write failed", "error", err)
	}
	cancel()
}
