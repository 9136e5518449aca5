package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"staticnews/pkg/cache"
	"staticnews/pkg/config"
	"staticnews/pkg/content"
	"staticnews/pkg/events"
	"staticnews/pkg/model"
	"staticnews/pkg/queue"
	"staticnews/pkg/schedule"
	"staticnews/pkg/scorer"
)

// FaultHandler receives scheduling invariant violations. The default
// handler logs and aborts the broadcast; tests substitute their own.
type FaultHandler func(err error)

// Orchestrator is the single writer of the active subsegment pointer. It
// resolves clock transitions, applies preemptions and injections, and
// feeds the stage queues. All other components reach the active instance
// through it.
type Orchestrator struct {
	cfg     *config.Config
	store   *content.Store
	scorer  *scorer.Scorer
	clock   *schedule.Clock
	bus     *events.Bus
	cache   cache.Cacher
	scriptQ *queue.Queue
	renderQ *queue.Queue
	fatal   FaultHandler

	mu     sync.Mutex
	active *model.SubSegmentInstance
	onAir  *model.RenderedSegment
}

// NewOrchestrator wires the orchestrator. The fault handler must not be
// nil.
func NewOrchestrator(cfg *config.Config, st *content.Store, sc *scorer.Scorer, clk *schedule.Clock, bus *events.Bus, c cache.Cacher, fatal FaultHandler) *Orchestrator {
	return &Orchestrator{
		cfg:     cfg,
		store:   st,
		scorer:  sc,
		clock:   clk,
		bus:     bus,
		cache:   c,
		scriptQ: queue.New("script"),
		renderQ: queue.New("render"),
		fatal:   fatal,
	}
}

// ScriptQueue returns the script stage queue.
func (o *Orchestrator) ScriptQueue() *queue.Queue { return o.scriptQ }

// RenderQueue returns the render stage queue.
func (o *Orchestrator) RenderQueue() *queue.Queue { return o.renderQ }

// ActiveInstance returns the currently active subsegment, or nil before
// the first clock tick.
func (o *Orchestrator) ActiveInstance() *model.SubSegmentInstance {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.active
}

// OnAir returns the most recently presented segment.
func (o *Orchestrator) OnAir() *model.RenderedSegment {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.onAir
}

// setOnAir records the presented segment for the status surface.
func (o *Orchestrator) setOnAir(seg *model.RenderedSegment) {
	o.mu.Lock()
	o.onAir = seg
	o.mu.Unlock()
}

// TickClock advances the schedule. Injected instances hold the air until
// their deadline; afterwards resolution returns to whatever the timeline
// says at that moment, never to the preempted instance.
func (o *Orchestrator) TickClock(now time.Time) {
	o.mu.Lock()
	active := o.active
	o.mu.Unlock()

	if active != nil && active.Injected() {
		if !active.Expired(now) {
			return
		}
		slog.Info("Clock: injected segment over, returning to schedule", "key", active.Key)
		o.clock.Reset()
	}

	inst, changed := o.clock.Tick(now)
	if !changed {
		return
	}
	o.commitTransition(inst, now)
}

// commitTransition installs a natural transition. An interrupt may have
// taken the air while the clock was being consulted; a live injected
// instance always wins over the timeline.
func (o *Orchestrator) commitTransition(inst *model.SubSegmentInstance, now time.Time) {
	o.mu.Lock()
	prev := o.active
	if prev != nil && prev.Injected() && !prev.Expired(now) {
		o.mu.Unlock()
		slog.Debug("Clock: injected segment arrived mid-tick, holding it", "key", prev.Key)
		return
	}
	if prev != nil && prev.Key == inst.Key {
		o.mu.Unlock()
		o.fatal(model.Invariantf("clock reported transition to already-active instance %s", inst.Key))
		return
	}
	o.active = inst
	o.mu.Unlock()

	slog.Info("Clock: transition", "segment", inst.SegmentName, "type", inst.Def.Type, "key", inst.Key)
	o.bus.PublishSegmentChange(events.SegmentChanged{Previous: prev, Current: inst, At: now})
	o.scheduleFor(inst, now)
}

// Preempt implements interrupt.Preemptor: breaking content takes the air
// immediately, ahead of all queued work.
func (o *Orchestrator) Preempt(inst *model.SubSegmentInstance, item *model.ContentItem) {
	o.preemptWith(inst, item, time.Now())
}

// Inject implements breakdown.Injector.
func (o *Orchestrator) Inject(inst *model.SubSegmentInstance) {
	var item *model.ContentItem
	if inst.Def.Type == model.SubSegBreakdown {
		item = o.mostVolatile()
	}
	o.preemptWith(inst, item, time.Now())
}

// PresentWinner injects the voting winner as live coverage.
func (o *Orchestrator) PresentWinner(candidateID string, now time.Time) {
	item := o.store.Get(candidateID)
	if item == nil {
		slog.Warn("Voting: winner no longer in store, skipping appearance", "candidate", candidateID)
		return
	}
	live := item.Clone()
	live.IsLive = true

	inst := &model.SubSegmentInstance{
		Def: model.SubSegmentDef{
			Type:            model.SubSegVoteResult,
			DurationMinutes: int(o.cfg.Voting.ResultsWindow.Std().Minutes()),
		},
		SegmentName: "Viewer's Choice",
		StartTime:   now,
		Key:         "vote-result-" + uuid.NewString(),
		Deadline:    now.Add(o.cfg.Voting.ResultsWindow.Std()),
	}
	o.preemptWith(inst, live, now)
}

// preemptWith replaces the active instance. The previous instance is
// marked interrupted and its queued render work is discarded; completed
// scripts are cached so a later slot can reuse them.
func (o *Orchestrator) preemptWith(inst *model.SubSegmentInstance, item *model.ContentItem, now time.Time) {
	o.mu.Lock()
	prev := o.active
	if prev != nil {
		prev.Interrupted = true
	}
	o.active = inst
	o.mu.Unlock()

	if prev != nil {
		o.discardFor(prev)
	}

	entry := &queue.Entry{
		Item:     item,
		Instance: inst,
		Request:  newRequest(item, inst, model.OutputScript),
	}
	if item != nil {
		if cached, ok := o.cache.GetCache(context.Background(), scriptCacheKey(item.ID)); ok {
			// A discarded script for this item exists; go straight to render.
			entry.Request.Kind = model.OutputComposite
			entry.Output = &model.Output{Kind: model.OutputScript, Tier: "cache", Text: string(cached)}
			o.renderQ.PushFront(entry)
			o.bus.PublishSegmentChange(events.SegmentChanged{Previous: prev, Current: inst, At: now})
			return
		}
	}
	o.scriptQ.PushFront(entry)
	o.bus.PublishSegmentChange(events.SegmentChanged{Previous: prev, Current: inst, At: now})
}

// discardFor removes queued work for a preempted instance. Scripts that
// already finished are cached for reuse; in-flight provider calls are
// left to complete on their own.
func (o *Orchestrator) discardFor(inst *model.SubSegmentInstance) {
	dropped := o.scriptQ.DiscardWhere(func(e *queue.Entry) bool {
		return e.Request != nil && e.Request.InstanceKey == inst.Key
	})
	done := o.renderQ.DiscardWhere(func(e *queue.Entry) bool {
		return e.Request != nil && e.Request.InstanceKey == inst.Key
	})
	for _, e := range done {
		if e.Item != nil && e.Output != nil && e.Output.Text != "" {
			o.cacheScript(e.Item.ID, e.Output.Text)
		}
	}
	if len(dropped)+len(done) > 0 {
		slog.Info("Interrupt: discarded queued work",
			"instance", inst.Key, "scripts_pending", len(dropped), "scripts_cached", len(done))
	}
}

// scheduleFor feeds the script queue for a natural transition. Injected
// types are fed by their own triggers.
func (o *Orchestrator) scheduleFor(inst *model.SubSegmentInstance, now time.Time) {
	var item *model.ContentItem

	switch inst.Def.Type {
	case model.SubSegHeadlines:
		slate := o.selectSlate(now)
		if len(slate) == 0 {
			item = syntheticItem(inst.Def.Type, now)
		} else {
			item = headlinesDigest(slate, now)
		}
	case model.SubSegStory:
		slate := o.selectSlate(now)
		if len(slate) > 0 {
			item = slate[0]
		} else {
			item = syntheticItem(inst.Def.Type, now)
		}
	case model.SubSegWeather, model.SubSegBanter:
		item = syntheticItem(inst.Def.Type, now)
	default:
		// breaking, breakdown, vote_result arrive through preemptWith.
		return
	}

	o.scriptQ.Push(&queue.Entry{
		Item:     item,
		Instance: inst,
		Request:  newRequest(item, inst, model.OutputScript),
	})
}

// selectSlate rescored-ranks the store candidates and applies the
// time-of-day profile. A duplicate in the slate is a scheduling bug.
func (o *Orchestrator) selectSlate(now time.Time) []*model.ContentItem {
	candidates := o.store.Candidates()
	o.scorer.Rescore(candidates, now)

	profile := o.cfg.Selection.ProfileFor(now.Hour())
	slate := scorer.Slate(candidates, profile, o.cfg.Selection.SlateSize)

	seen := make(map[string]struct{}, len(slate))
	for _, it := range slate {
		if _, dup := seen[it.ID]; dup {
			o.fatal(model.Invariantf("slate contains item %s twice", it.ID))
			return nil
		}
		seen[it.ID] = struct{}{}
	}
	return slate
}

// mostVolatile picks the candidate most likely to crack an anchor.
func (o *Orchestrator) mostVolatile() *model.ContentItem {
	var best *model.ContentItem
	for _, it := range o.store.Candidates() {
		if best == nil || it.BreakdownPotential > best.BreakdownPotential {
			best = it
		}
	}
	return best
}

func (o *Orchestrator) cacheScript(itemID, text string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := o.cache.SetCache(ctx, scriptCacheKey(itemID), []byte(text)); err != nil {
		slog.Warn("Orchestrator: failed to cache discarded script", "item", itemID, "error", err)
	}
}

func scriptCacheKey(itemID string) string {
	return "script:" + itemID
}

func newRequest(item *model.ContentItem, inst *model.SubSegmentInstance, kind model.OutputKind) *model.GenerationRequest {
	req := &model.GenerationRequest{
		ID:        uuid.NewString(),
		Kind:      kind,
		State:     model.StatePending,
		CreatedAt: time.Now(),
	}
	if item != nil {
		req.ItemID = item.ID
	}
	if inst != nil {
		req.InstanceKey = inst.Key
	}
	return req
}
