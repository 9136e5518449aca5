// Package queue provides the ordered work queues connecting the pipeline
// stages. A single mutex per queue is enough: workers pop one entry at a
// time and never hold the lock across a generation call.
package queue

import (
	"sync"
	"time"

	"staticnews/pkg/model"
	"staticnews/pkg/scorer"
)

// Entry is one unit of queued work: an item, optionally paired with the
// generation request that produced it in a previous stage.
type Entry struct {
	Item     *model.ContentItem
	Instance *model.SubSegmentInstance
	Request  *model.GenerationRequest
	Output   *model.Output // output of the previous stage, if any

	// front marks entries injected ahead of all queued work (interrupts).
	front   bool
	pushSeq uint64
}

// Queue is a priority-ordered work queue. Normal entries pop in score
// order (descending, ties by earliest PublishedAt then insertion
// sequence); front entries pop before all normal ones, FIFO among
// themselves.
type Queue struct {
	mu      sync.Mutex
	name    string
	entries []*Entry
	pushes  uint64
}

// New creates a named queue.
func New(name string) *Queue {
	return &Queue{name: name}
}

// Name returns the queue name.
func (q *Queue) Name() string {
	return q.name
}

// Push appends an entry; it will pop in priority order.
func (q *Queue) Push(e *Entry) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pushes++
	e.pushSeq = q.pushes
	q.entries = append(q.entries, e)
}

// PushFront injects an entry ahead of all queued work. Repeated front
// pushes keep their relative order.
func (q *Queue) PushFront(e *Entry) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pushes++
	e.pushSeq = q.pushes
	e.front = true
	q.entries = append(q.entries, e)
}

// Pop removes and returns the highest-priority entry, or nil when empty.
func (q *Queue) Pop() *Entry {
	q.mu.Lock()
	defer q.mu.Unlock()

	best := -1
	for i, e := range q.entries {
		if best == -1 {
			best = i
			continue
		}
		if less(e, q.entries[best]) {
			best = i
		}
	}
	if best == -1 {
		return nil
	}

	e := q.entries[best]
	q.entries = append(q.entries[:best], q.entries[best+1:]...)
	return e
}

// less reports whether a pops before b.
func less(a, b *Entry) bool {
	if a.front != b.front {
		return a.front
	}
	if a.front {
		// FIFO among interrupt entries.
		return a.pushSeq < b.pushSeq
	}
	return scorer.Less(a.Item, b.Item)
}

// HasFront reports whether any interrupt-injected entry is queued.
func (q *Queue) HasFront() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, e := range q.entries {
		if e.front {
			return true
		}
	}
	return false
}

// Len returns the number of queued entries.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// Resort recomputes entry scores with the given scorer. Pop order is
// derived from scores at pop time, so this only refreshes the stored
// PriorityScore values; calling it repeatedly is idempotent apart from
// the scoring jitter.
func (q *Queue) Resort(s *scorer.Scorer, now time.Time) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, e := range q.entries {
		if e.Item != nil && !e.front {
			e.Item.PriorityScore = s.Score(e.Item, now)
		}
	}
}

// DiscardWhere removes entries matching the predicate and returns them.
func (q *Queue) DiscardWhere(match func(*Entry) bool) []*Entry {
	q.mu.Lock()
	defer q.mu.Unlock()

	var kept []*Entry
	var removed []*Entry
	for _, e := range q.entries {
		if match(e) {
			removed = append(removed, e)
		} else {
			kept = append(kept, e)
		}
	}
	q.entries = kept
	return removed
}
