package model

import (
	"time"
)

// OutputKind is the kind of media a GenerationRequest produces.
type OutputKind string

const (
	OutputScript    OutputKind = "script"
	OutputSpeech    OutputKind = "speech"
	OutputVideo     OutputKind = "video"
	OutputComposite OutputKind = "composite"
)

// RequestState tracks a GenerationRequest through the fallback chain.
// A request never terminates in a bare failure state: it ends in
// StateSucceeded or StateFellBack.
type RequestState string

const (
	StatePending    RequestState = "pending"
	StateAttempting RequestState = "attempting"
	StateSucceeded  RequestState = "succeeded"
	StateFellBack   RequestState = "fell_back"
)

// Attempt records one provider call inside a fallback chain.
type Attempt struct {
	Provider string        `json:"provider"`
	Err      string        `json:"err,omitempty"`
	Elapsed  time.Duration `json:"elapsed"`
}

// GenerationRequest asks the pipeline for one output for one item.
type GenerationRequest struct {
	ID          string       `json:"id"`
	ItemID      string       `json:"item_id"`
	InstanceKey string       `json:"instance_key,omitempty"` // subsegment the output is for
	Kind        OutputKind   `json:"kind"`
	State       RequestState `json:"state"`
	Attempts    []Attempt    `json:"attempts"`
	CreatedAt   time.Time    `json:"created_at"`
}

// Output is the result of a generation step, tagged with the tier that
// produced it ("procedural" when the guaranteed fallback ran).
type Output struct {
	Kind     OutputKind `json:"kind"`
	Tier     string     `json:"tier"`
	Text     string     `json:"text,omitempty"`      // script output
	MediaRef string     `json:"media_ref,omitempty"` // speech/video/composite asset reference
}

// RenderedSegment is a finalized render handed to the Playout Sink.
type RenderedSegment struct {
	Item       *ContentItem        `json:"item"`
	Instance   *SubSegmentInstance `json:"instance,omitempty"`
	Script     Output              `json:"script"`
	Media      Output              `json:"media"`
	RenderedAt time.Time           `json:"rendered_at"`
}
