// Package media reaches the external generation services for speech,
// lip-synced video, and the studio composite. Every call goes through the
// fallback chain; the procedural slate closes it.
package media

import (
	"context"
	"encoding/json"
	"fmt"

	"staticnews/pkg/fallback"
	"staticnews/pkg/model"
	"staticnews/pkg/request"
)

// generateRequest is the wire payload sent to a generation service.
type generateRequest struct {
	ItemID   string `json:"item_id,omitempty"`
	Kind     string `json:"kind"`
	Text     string `json:"text,omitempty"`
	MediaRef string `json:"media_ref,omitempty"`
}

// generateResponse is the expected reply.
type generateResponse struct {
	Ref string `json:"ref"`
}

// HTTPProvider implements fallback.Provider over a JSON POST endpoint.
type HTTPProvider struct {
	name string
	url  string
	rc   *request.Client
}

// NewHTTPProvider creates a provider for one generation service.
func NewHTTPProvider(name, url string, rc *request.Client) *HTTPProvider {
	return &HTTPProvider{name: name, url: url, rc: rc}
}

// Name implements fallback.Provider.
func (p *HTTPProvider) Name() string {
	return p.name
}

// Generate implements fallback.Provider. A non-2xx status surfaces as an
// error from the request client and advances the chain.
func (p *HTTPProvider) Generate(ctx context.Context, in fallback.Input) (model.Output, error) {
	payload := generateRequest{Kind: string(in.Kind), Text: in.Text, MediaRef: in.MediaRef}
	if in.Item != nil {
		payload.ItemID = in.Item.ID
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return model.Output{}, fmt.Errorf("marshal request: %w", err)
	}

	respBody, err := p.rc.Post(ctx, p.url, body, "application/json")
	if err != nil {
		return model.Output{}, model.NewProviderError(p.name, 0, err.Error())
	}

	var resp generateResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return model.Output{}, model.NewProviderError(p.name, 0, "malformed response: "+err.Error())
	}
	if resp.Ref == "" {
		return model.Output{}, model.NewProviderError(p.name, 0, "response missing media ref")
	}

	return model.Output{Kind: in.Kind, MediaRef: resp.Ref}, nil
}
