package media

import (
	"fmt"

	"staticnews/pkg/fallback"
	"staticnews/pkg/model"
)

// Slate is the guaranteed media tier. It never performs I/O and always
// produces a playable descriptor: a color-bars slate for video, generated
// room tone for speech, and a bare anchor card for the composite.
type Slate struct{}

// NewSlate creates the guaranteed media generator.
func NewSlate() *Slate {
	return &Slate{}
}

// Name implements fallback.Guaranteed.
func (s *Slate) Name() string {
	return "slate"
}

// Generate implements fallback.Guaranteed.
func (s *Slate) Generate(in fallback.Input) model.Output {
	itemID := "none"
	if in.Item != nil {
		itemID = in.Item.ID
	}

	var ref string
	switch in.Kind {
	case model.OutputSpeech:
		ref = fmt.Sprintf("procedural://roomtone/%s", itemID)
	case model.OutputVideo:
		ref = fmt.Sprintf("procedural://colorbars/%s", itemID)
	default:
		ref = fmt.Sprintf("procedural://anchorcard/%s", itemID)
	}

	return model.Output{Kind: in.Kind, MediaRef: ref}
}
