package procedural

import (
	"fmt"
	"strings"
	"sync"

	"staticnews/pkg/fallback"
	"staticnews/pkg/model"
)

var storySeeds = []struct {
	title   string
	summary string
}{
	{"Committee Formed To Investigate Committee", "The new committee's first act was to request a budget larger than the one it is investigating."},
	{"Town's Only Roundabout Declared Sentient", "Traffic engineers insist the behavior is within normal parameters. Drivers disagree."},
	{"Archivist Finds Box Labeled 'Do Not Open'", "The box has been moved to a room labeled 'Do Not Enter' pending review."},
	{"All County Clocks Off By Four Minutes", "Officials cannot agree on which direction. Appointments continue regardless."},
	{"Survey Finds Most Residents Unsurveyed", "The survey's margin of error has been described as 'the whole survey'."},
	{"Lighthouse Keeper Reports Second Lighthouse", "Coastal charts show no second lighthouse. The keeper has stopped taking calls."},
}

// StoryTeller is the guaranteed story author. It cycles a seed list so
// the desk always has something original to run.
type StoryTeller struct {
	mu     sync.Mutex
	cursor int
}

// NewStoryTeller creates a StoryTeller.
func NewStoryTeller() *StoryTeller {
	return &StoryTeller{}
}

// Name implements fallback.Guaranteed.
func (s *StoryTeller) Name() string {
	return "procedural"
}

// Generate implements fallback.Guaranteed. Output text follows the
// Title/Summary line format the story parser expects.
func (s *StoryTeller) Generate(_ fallback.Input) model.Output {
	s.mu.Lock()
	seed := storySeeds[s.cursor]
	s.cursor = (s.cursor + 1) % len(storySeeds)
	s.mu.Unlock()

	var sb strings.Builder
	fmt.Fprintf(&sb, "Title: %s\n", seed.title)
	fmt.Fprintf(&sb, "Summary: %s\n", seed.summary)
	return model.Output{Kind: model.OutputScript, Text: sb.String()}
}
