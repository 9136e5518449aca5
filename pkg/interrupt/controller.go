// Package interrupt preempts the active subsegment for breaking content.
package interrupt

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"staticnews/pkg/config"
	"staticnews/pkg/events"
	"staticnews/pkg/model"
)

// Preemptor is the orchestrator surface the controller drives. Preempt
// must mark the current instance interrupted, discard its completed
// generation requests (caching their results), push the breaking entry
// ahead of all queued work, and make inst the active instance.
type Preemptor interface {
	ActiveInstance() *model.SubSegmentInstance
	Preempt(inst *model.SubSegmentInstance, item *model.ContentItem)
}

// Controller watches for breaking signals and live items.
type Controller struct {
	cfg       config.InterruptConfig
	bus       *events.Bus
	preemptor Preemptor
}

// NewController creates a Controller consuming the bus's breaking channel.
func NewController(cfg config.InterruptConfig, bus *events.Bus, p Preemptor) *Controller {
	return &Controller{cfg: cfg, bus: bus, preemptor: p}
}

// Trigger synthesizes a breaking instance for the item and preempts the
// active subsegment. In-flight provider calls are left to finish; only
// the preempted instance's remaining timeline is cancelled.
func (c *Controller) Trigger(item *model.ContentItem, reason string, now time.Time) {
	active := c.preemptor.ActiveInstance()
	if active != nil && active.Def.Type == model.SubSegBreaking {
		// Already in a breaking segment; the new item competes through
		// the queues instead of stacking preemptions.
		slog.Info("Interrupt: breaking already on air, queueing instead", "item", item.ID, "reason", reason)
		return
	}

	inst := &model.SubSegmentInstance{
		Def: model.SubSegmentDef{
			Type:            model.SubSegBreaking,
			DurationMinutes: int(c.cfg.Duration.Std().Minutes()),
		},
		SegmentName: "Breaking News",
		StartTime:   now,
		Key:         "breaking-" + uuid.NewString(),
		Deadline:    now.Add(c.cfg.Duration.Std()),
	}

	slog.Info("Interrupt: preempting", "reason", reason, "item", item.ID, "until", inst.Deadline)
	c.preemptor.Preempt(inst, item)
}

// Run consumes breaking events until the context ends.
func (c *Controller) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-c.bus.Breaking:
			c.Trigger(ev.Item, ev.Reason, time.Now())
		}
	}
}
