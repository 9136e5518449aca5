package media

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"staticnews/pkg/fallback"
	"staticnews/pkg/model"
)

func TestSlateRefsByKind(t *testing.T) {
	s := NewSlate()
	item := &model.ContentItem{ID: "item-1"}

	cases := []struct {
		kind model.OutputKind
		want string
	}{
		{model.OutputSpeech, "procedural://roomtone/item-1"},
		{model.OutputVideo, "procedural://colorbars/item-1"},
		{model.OutputComposite, "procedural://anchorcard/item-1"},
	}

	for _, tc := range cases {
		out := s.Generate(fallback.Input{Item: item, Kind: tc.kind})
		assert.Equal(t, tc.kind, out.Kind)
		assert.Equal(t, tc.want, out.MediaRef)
	}
}

func TestSlateNilItem(t *testing.T) {
	s := NewSlate()

	out := s.Generate(fallback.Input{Kind: model.OutputVideo})
	assert.Equal(t, "procedural://colorbars/none", out.MediaRef)
}
