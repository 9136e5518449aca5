// Package scorer computes broadcast priority scores for content items and
// selects the on-air slate for a time-of-day profile.
package scorer

import (
	"math/rand"
	"sync"
	"time"

	"staticnews/pkg/model"
)

// Category weights. Unknown categories get the default weight.
const (
	weightBreaking      = 50.0
	weightInvestigative = 40.0
	weightWeird         = 35.0
	weightHumanInterest = 30.0
	weightOpinion       = 25.0
	weightDefault       = 20.0
)

// Boosts applied on top of recency and category.
const (
	recencyCeiling = 100.0 // freshly published items start here
	breakdownBoost = 100.0 // scales the 0..1 breakdown potential
	liveBoost      = 200.0 // live items outrank everything else
	jitterRange    = 20.0  // uniform(0, 20) keeps ties from repeating
)

// TypeWeight returns the scoring weight for a category.
func TypeWeight(category string) float64 {
	switch category {
	case "breaking":
		return weightBreaking
	case "investigative":
		return weightInvestigative
	case "weird":
		return weightWeird
	case "human_interest":
		return weightHumanInterest
	case "opinion":
		return weightOpinion
	default:
		return weightDefault
	}
}

// Scorer computes priority scores. The random source is injectable so
// tests can pin the jitter.
type Scorer struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// New creates a Scorer seeded from the current time.
func New() *Scorer {
	return NewWithSource(rand.NewSource(time.Now().UnixNano()))
}

// NewWithSource creates a Scorer with a fixed random source.
func NewWithSource(src rand.Source) *Scorer {
	return &Scorer{rng: rand.New(src)}
}

// Score computes the priority score of an item at the given instant:
// a recency term decaying one point per hour (floored at zero), the
// category weight, the breakdown potential, the live boost, and a small
// uniform jitter.
func (s *Scorer) Score(item *model.ContentItem, now time.Time) float64 {
	recency := recencyCeiling - now.Sub(item.PublishedAt).Hours()
	if recency < 0 {
		recency = 0
	}

	score := recency
	score += TypeWeight(item.Category)
	score += item.BreakdownPotential * breakdownBoost
	if item.IsLive {
		score += liveBoost
	}

	s.mu.Lock()
	score += s.rng.Float64() * jitterRange
	s.mu.Unlock()

	return score
}

// Rescore recomputes and stores the priority score of every item.
func (s *Scorer) Rescore(items []*model.ContentItem, now time.Time) {
	for _, item := range items {
		item.PriorityScore = s.Score(item, now)
	}
}
