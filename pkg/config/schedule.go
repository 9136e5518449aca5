package config

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"staticnews/pkg/model"
)

// ScheduleConfig is the static 24-hour programming table: one Segment per
// hour of the day, each with an ordered SubSegment timeline. Loaded once
// at startup, never mutated at runtime.
type ScheduleConfig struct {
	Segments []model.Segment `yaml:"segments"`
}

// LoadSchedule returns the programming table. When path is empty or the
// file does not exist, the built-in table is used.
func LoadSchedule(path string) (*ScheduleConfig, error) {
	cfg := defaultSchedule()

	if path != "" {
		if data, err := os.ReadFile(path); err == nil {
			var fileCfg ScheduleConfig
			if err := yaml.Unmarshal(data, &fileCfg); err != nil {
				return nil, fmt.Errorf("failed to parse schedule file: %w", err)
			}
			if len(fileCfg.Segments) > 0 {
				cfg = &fileCfg
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read schedule file: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SegmentFor returns the Segment programmed for the given hour.
func (s *ScheduleConfig) SegmentFor(hour int) *model.Segment {
	for i := range s.Segments {
		if s.Segments[i].Hour == hour {
			return &s.Segments[i]
		}
	}
	return nil
}

func (s *ScheduleConfig) validate() error {
	if len(s.Segments) != 24 {
		return fmt.Errorf("schedule must define all 24 hours, got %d segments", len(s.Segments))
	}

	seen := make(map[int]bool)
	for i := range s.Segments {
		seg := &s.Segments[i]
		if seg.Hour < 0 || seg.Hour > 23 {
			return fmt.Errorf("segment %q: hour %d out of range", seg.Name, seg.Hour)
		}
		if seen[seg.Hour] {
			return fmt.Errorf("duplicate segment for hour %d", seg.Hour)
		}
		seen[seg.Hour] = true

		if len(seg.SubSegments) == 0 {
			return fmt.Errorf("segment %q (hour %d) has no subsegments", seg.Name, seg.Hour)
		}

		// Timelines must start at minute 0 so every minute of the hour
		// resolves to some subsegment, and must be strictly ordered.
		sort.SliceStable(seg.SubSegments, func(a, b int) bool {
			return seg.SubSegments[a].OffsetMinutes < seg.SubSegments[b].OffsetMinutes
		})
		if seg.SubSegments[0].OffsetMinutes != 0 {
			return fmt.Errorf("segment %q (hour %d): first subsegment must start at offset 0", seg.Name, seg.Hour)
		}
		for j, ss := range seg.SubSegments {
			if ss.OffsetMinutes < 0 || ss.OffsetMinutes > 59 {
				return fmt.Errorf("segment %q: offset %d out of range", seg.Name, ss.OffsetMinutes)
			}
			if ss.DurationMinutes <= 0 {
				return fmt.Errorf("segment %q: subsegment %d has non-positive duration", seg.Name, j)
			}
			if j > 0 && ss.OffsetMinutes == seg.SubSegments[j-1].OffsetMinutes {
				return fmt.Errorf("segment %q: duplicate offset %d", seg.Name, ss.OffsetMinutes)
			}
		}
	}
	return nil
}

// defaultSchedule builds the built-in table. Overnight hours lean on
// banter and weird stories, daytime hours on headlines.
func defaultSchedule() *ScheduleConfig {
	hourName := func(h int) string {
		switch {
		case h < 6:
			return "The Graveyard Desk"
		case h < 10:
			return "Static Mornings"
		case h < 14:
			return "Midday Wire"
		case h < 18:
			return "The Afternoon Loop"
		case h < 22:
			return "Prime Static"
		default:
			return "Late Transmission"
		}
	}

	daytime := []model.SubSegmentDef{
		{OffsetMinutes: 0, Type: model.SubSegHeadlines, DurationMinutes: 10},
		{OffsetMinutes: 10, Type: model.SubSegStory, DurationMinutes: 15},
		{OffsetMinutes: 25, Type: model.SubSegWeather, DurationMinutes: 5},
		{OffsetMinutes: 30, Type: model.SubSegStory, DurationMinutes: 15},
		{OffsetMinutes: 45, Type: model.SubSegBanter, DurationMinutes: 15},
	}
	overnight := []model.SubSegmentDef{
		{OffsetMinutes: 0, Type: model.SubSegHeadlines, DurationMinutes: 10},
		{OffsetMinutes: 10, Type: model.SubSegBanter, DurationMinutes: 20},
		{OffsetMinutes: 30, Type: model.SubSegStory, DurationMinutes: 20},
		{OffsetMinutes: 50, Type: model.SubSegBanter, DurationMinutes: 10},
	}

	cfg := &ScheduleConfig{Segments: make([]model.Segment, 0, 24)}
	for h := 0; h < 24; h++ {
		timeline := daytime
		if h < 6 || h >= 22 {
			timeline = overnight
		}
		defs := make([]model.SubSegmentDef, len(timeline))
		copy(defs, timeline)
		cfg.Segments = append(cfg.Segments, model.Segment{
			Hour:        h,
			Name:        hourName(h),
			SubSegments: defs,
		})
	}
	return cfg
}
