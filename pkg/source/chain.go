package source

import (
	"context"
	"log/slog"

	"staticnews/pkg/model"
)

// Chain tries sources in order and returns the first non-empty result.
// With a StaticWire last, Pull never fails.
type Chain struct {
	sources []Source
}

// NewChain creates a source chain.
func NewChain(sources ...Source) *Chain {
	return &Chain{sources: sources}
}

// Name implements Source.
func (c *Chain) Name() string {
	return "chain"
}

// Pull implements Source.
func (c *Chain) Pull(ctx context.Context) ([]model.ContentItem, error) {
	var lastErr error
	for _, s := range c.sources {
		items, err := s.Pull(ctx)
		if err != nil {
			slog.Warn("Source: pull failed, trying next", "source", s.Name(), "error", err)
			lastErr = err
			continue
		}
		if len(items) == 0 {
			slog.Debug("Source: empty pull, trying next", "source", s.Name())
			continue
		}
		return items, nil
	}
	return nil, lastErr
}
