// Package fallback provides the chain executor used by every generation
// step. Providers are tried strictly in order, one at a time (first
// success wins, not fastest success wins), and a pure, local guaranteed
// provider closes the chain, so Execute never fails.
package fallback

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"staticnews/pkg/model"
	"staticnews/pkg/tracker"
)

// Input carries the material a provider turns into an Output.
type Input struct {
	Item     *model.ContentItem
	Kind     model.OutputKind
	Text     string // script text for speech/video/composite stages
	MediaRef string // upstream asset reference, if any
}

// Provider is one candidate in a fallback chain. Any returned error (a
// timeout included) advances the executor to the next provider.
type Provider interface {
	Name() string
	Generate(ctx context.Context, in Input) (model.Output, error)
}

// Guaranteed is the terminal provider of a chain. It must be a pure,
// local operation that cannot fail.
type Guaranteed interface {
	Name() string
	Generate(in Input) model.Output
}

// Executor runs fallback chains.
type Executor struct {
	providers      []Provider
	guaranteed     Guaranteed
	attemptTimeout time.Duration
	tracker        *tracker.Tracker
}

// New creates an Executor. The guaranteed provider is required; the
// provider list may be empty, in which case every request falls back.
func New(providers []Provider, guaranteed Guaranteed, attemptTimeout time.Duration, t *tracker.Tracker) (*Executor, error) {
	if guaranteed == nil {
		return nil, fmt.Errorf("guaranteed fallback provider required")
	}
	if attemptTimeout <= 0 {
		attemptTimeout = 30 * time.Second
	}
	return &Executor{
		providers:      providers,
		guaranteed:     guaranteed,
		attemptTimeout: attemptTimeout,
		tracker:        t,
	}, nil
}

// Execute tries each provider in order and returns the first success,
// falling back to the guaranteed provider when the chain is exhausted.
// Attempts are recorded on req for observability. Execute never returns
// an error: the worst case is guaranteed output tagged with its tier.
func (e *Executor) Execute(ctx context.Context, req *model.GenerationRequest, in Input) model.Output {
	req.State = model.StateAttempting

	for _, p := range e.providers {
		start := time.Now()
		attemptCtx, cancel := context.WithTimeout(ctx, e.attemptTimeout)
		out, err := p.Generate(attemptCtx, in)
		cancel()

		attempt := model.Attempt{Provider: p.Name(), Elapsed: time.Since(start)}
		if err == nil {
			req.Attempts = append(req.Attempts, attempt)
			req.State = model.StateSucceeded
			if e.tracker != nil {
				e.tracker.TrackSuccess(p.Name())
			}
			out.Tier = p.Name()
			out.Kind = in.Kind
			return out
		}

		attempt.Err = err.Error()
		req.Attempts = append(req.Attempts, attempt)
		if e.tracker != nil {
			e.tracker.TrackFailure(p.Name())
		}
		slog.Info("Fallback: provider failed, advancing",
			"request", req.ID, "kind", in.Kind, "provider", p.Name(), "error", err)
	}

	// Chain exhausted: the guaranteed provider cannot fail.
	out := e.guaranteed.Generate(in)
	out.Tier = e.guaranteed.Name()
	out.Kind = in.Kind
	req.Attempts = append(req.Attempts, model.Attempt{Provider: e.guaranteed.Name()})
	req.State = model.StateFellBack
	if e.tracker != nil {
		e.tracker.TrackFallback(e.guaranteed.Name())
	}
	slog.Warn("Fallback: chain exhausted, serving procedural output",
		"request", req.ID, "kind", in.Kind, "attempts", len(req.Attempts))
	return out
}
