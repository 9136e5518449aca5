// Package playout delivers rendered segments to whoever is watching.
// The pipeline does not care where output goes; sinks are fan-out.
package playout

import (
	"log/slog"

	"staticnews/pkg/model"
)

// Sink receives rendered segments as they go on air.
type Sink interface {
	Present(seg *model.RenderedSegment) error
}

// LogSink writes on-air events to the structured log. It is always
// attached so the broadcast is observable without a single viewer.
type LogSink struct{}

// Present implements Sink.
func (LogSink) Present(seg *model.RenderedSegment) error {
	title := "station continuity"
	category := ""
	if seg.Item != nil {
		title = seg.Item.Title
		category = seg.Item.Category
	}
	var ssType model.SubSegmentType
	segName := ""
	if seg.Instance != nil {
		ssType = seg.Instance.Def.Type
		segName = seg.Instance.SegmentName
	}
	slog.Info("OnAir: presenting segment",
		"type", ssType,
		"segment", segName,
		"title", title,
		"category", category,
		"script_tier", seg.Script.Tier,
		"media_tier", seg.Media.Tier)
	return nil
}

// Multi fans a segment out to several sinks. A failing sink is logged
// and skipped; playout never stops for a viewer.
type Multi struct {
	sinks []Sink
}

// NewMulti creates a fan-out sink.
func NewMulti(sinks ...Sink) *Multi {
	return &Multi{sinks: sinks}
}

// Present implements Sink.
func (m *Multi) Present(seg *model.RenderedSegment) error {
	for _, s := range m.sinks {
		if err := s.Present(seg); err != nil {
			slog.Warn("OnAir: sink failed", "error", err)
		}
	}
	return nil
}
