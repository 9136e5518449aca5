// Package procedural is the guaranteed script fallback: a pure, local
// template writer that cannot fail, so the broadcast always has words.
package procedural

import (
	"fmt"
	"strings"

	"staticnews/pkg/fallback"
	"staticnews/pkg/model"
)

// Writer implements fallback.Guaranteed for scripts.
type Writer struct{}

// NewWriter creates a Writer.
func NewWriter() *Writer {
	return &Writer{}
}

// Name implements fallback.Guaranteed.
func (w *Writer) Name() string {
	return "procedural"
}

// Generate builds a deterministic anchor script from the item fields.
func (w *Writer) Generate(in fallback.Input) model.Output {
	item := in.Item

	var sb strings.Builder
	switch {
	case item == nil:
		sb.WriteString("You're watching static.news. We'll be right back after this moment of quiet reflection.")
	case item.IsLive:
		fmt.Fprintf(&sb, "We interrupt this broadcast. %s. ", item.Title)
		if item.Summary != "" {
			fmt.Fprintf(&sb, "Here is what we know so far: %s ", item.Summary)
		}
		sb.WriteString("We are following this story live and will bring you more as it develops.")
	default:
		fmt.Fprintf(&sb, "In %s news: %s. ", displayCategory(item.Category), item.Title)
		if item.Summary != "" {
			fmt.Fprintf(&sb, "%s ", strings.TrimSpace(item.Summary))
		}
		sb.WriteString("More on this story as our sources catch up with it. This is static.news.")
	}

	return model.Output{Kind: model.OutputScript, Text: sb.String()}
}

func displayCategory(category string) string {
	if category == "" {
		return "other"
	}
	return strings.ReplaceAll(category, "_", " ")
}
