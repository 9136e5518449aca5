// Package llm defines the script-writing provider interface and the
// prompt material shared by its implementations.
package llm

import (
	"context"
	"fmt"
	"strings"

	"staticnews/pkg/model"
)

// Provider defines the interface for interacting with text generation
// services.
type Provider interface {
	// Name identifies the provider in attempt logs and stats.
	Name() string

	// GenerateText sends a prompt and returns the text response.
	GenerateText(ctx context.Context, prompt string) (string, error)

	// HealthCheck verifies that the provider is configured and reachable.
	HealthCheck(ctx context.Context) error
}

// ScriptPrompt builds the anchor-script prompt for a content item slotted
// into a subsegment type.
func ScriptPrompt(item *model.ContentItem, segType model.SubSegmentType) string {
	var sb strings.Builder
	sb.WriteString("You are the anchor of a 24/7 broadcast that never stops. ")
	sb.WriteString("Write a short on-air script (120-180 words) for the following story. ")
	sb.WriteString("Deliver it straight, no stage directions, no markdown.\n\n")

	fmt.Fprintf(&sb, "Segment type: %s\n", segType)
	if item == nil {
		sb.WriteString("There is no story. Fill the air anyway.\n")
		return sb.String()
	}
	fmt.Fprintf(&sb, "Category: %s\n", item.Category)
	fmt.Fprintf(&sb, "Headline: %s\n", item.Title)
	if item.Summary != "" {
		fmt.Fprintf(&sb, "Summary: %s\n", item.Summary)
	}
	if item.IsLive {
		sb.WriteString("\nThis is LIVE breaking coverage; open with urgency.\n")
	}
	if segType == model.SubSegBreakdown {
		sb.WriteString("\nThe anchor is mid existential crisis; let doubt bleed into the delivery while the facts stay intact.\n")
	}
	return sb.String()
}

// StoryPrompt asks a provider to invent an original story in the
// Title/Summary line format.
func StoryPrompt(category string) string {
	var sb strings.Builder
	sb.WriteString("Invent one plausible but fictional local news story. ")
	fmt.Fprintf(&sb, "Category: %s. ", category)
	sb.WriteString("Reply with exactly two lines:\n")
	sb.WriteString("Title: <headline under 12 words>\n")
	sb.WriteString("Summary: <one or two sentences>\n")
	sb.WriteString("No other text, no markdown.")
	return sb.String()
}
