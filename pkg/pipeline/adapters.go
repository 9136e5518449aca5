package pipeline

import (
	"context"

	"staticnews/pkg/fallback"
	"staticnews/pkg/llm"
	"staticnews/pkg/model"
)

// scriptProvider adapts an llm.Provider to the fallback chain. The
// prompt is prepared by the caller and carried in Input.Text.
type scriptProvider struct {
	p llm.Provider
}

// ScriptProviders wraps llm providers for the script fallback chain,
// preserving order.
func ScriptProviders(providers []llm.Provider) []fallback.Provider {
	out := make([]fallback.Provider, 0, len(providers))
	for _, p := range providers {
		out = append(out, &scriptProvider{p: p})
	}
	return out
}

func (s *scriptProvider) Name() string {
	return s.p.Name()
}

func (s *scriptProvider) Generate(ctx context.Context, in fallback.Input) (model.Output, error) {
	text, err := s.p.GenerateText(ctx, in.Text)
	if err != nil {
		return model.Output{}, err
	}
	return model.Output{Kind: model.OutputScript, Text: text}, nil
}
