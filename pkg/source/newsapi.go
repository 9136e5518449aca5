package source

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"staticnews/pkg/cache"
	"staticnews/pkg/config"
	"staticnews/pkg/model"
	"staticnews/pkg/request"
)

const newsCacheKey = "source:newsapi:headlines"

// snapshot is the cached form of the last good pull. FetchedAt bounds
// how long a dead endpoint can be papered over.
type snapshot struct {
	FetchedAt time.Time `json:"fetched_at"`
	Body      []byte    `json:"body"`
}

// NewsAPIClient pulls headlines from a NewsAPI-compatible endpoint. The
// endpoint is contacted on every pull; the last good snapshot is served
// only when the fetch fails, and only while it is younger than the
// configured TTL.
type NewsAPIClient struct {
	cfg   *config.SourceConfig
	rc    *request.Client
	cache cache.Cacher
}

type newsAPIResponse struct {
	Status   string `json:"status"`
	Articles []struct {
		Source struct {
			Name string `json:"name"`
		} `json:"source"`
		Title       string    `json:"title"`
		Description string    `json:"description"`
		Content     string    `json:"content"`
		URL         string    `json:"url"`
		PublishedAt time.Time `json:"publishedAt"`
	} `json:"articles"`
}

// NewNewsAPIClient creates a client for the configured endpoint.
func NewNewsAPIClient(cfg *config.SourceConfig, rc *request.Client, c cache.Cacher) *NewsAPIClient {
	return &NewsAPIClient{cfg: cfg, rc: rc, cache: c}
}

// Name implements Source.
func (c *NewsAPIClient) Name() string {
	return "newsapi"
}

// Pull implements Source.
func (c *NewsAPIClient) Pull(ctx context.Context) ([]model.ContentItem, error) {
	headers := map[string]string{}
	if c.cfg.APIKey != "" {
		headers["X-Api-Key"] = c.cfg.APIKey
	}

	body, err := c.rc.GetWithHeaders(ctx, c.cfg.URL, headers, "")
	if err != nil {
		cached, ok := c.freshSnapshot(ctx)
		if !ok {
			return nil, fmt.Errorf("fetch headlines: %w", err)
		}
		slog.Warn("Source: fetch failed, serving cached snapshot", "error", err)
		return c.parse(cached)
	}

	items, err := c.parse(body)
	if err != nil {
		return nil, err
	}
	c.storeSnapshot(ctx, body)
	return items, nil
}

// storeSnapshot records the last good response for failure fallback.
func (c *NewsAPIClient) storeSnapshot(ctx context.Context, body []byte) {
	snap, err := json.Marshal(snapshot{FetchedAt: time.Now(), Body: body})
	if err != nil {
		return
	}
	if err := c.cache.SetCache(ctx, newsCacheKey, snap); err != nil {
		slog.Warn("Source: failed to cache snapshot", "error", err)
	}
}

// freshSnapshot returns the cached response if it is younger than the
// configured TTL.
func (c *NewsAPIClient) freshSnapshot(ctx context.Context) ([]byte, bool) {
	raw, ok := c.cache.GetCache(ctx, newsCacheKey)
	if !ok {
		return nil, false
	}
	var snap snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, false
	}
	if age := time.Since(snap.FetchedAt); age > c.cfg.CacheTTL.Std() {
		slog.Debug("Source: snapshot too old to serve", "age", age)
		return nil, false
	}
	return snap.Body, true
}

func (c *NewsAPIClient) parse(body []byte) ([]model.ContentItem, error) {
	var resp newsAPIResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode headlines: %w", err)
	}
	if resp.Status != "ok" {
		return nil, fmt.Errorf("newsapi status %q", resp.Status)
	}

	items := make([]model.ContentItem, 0, len(resp.Articles))
	for _, a := range resp.Articles {
		if a.Title == "" {
			continue
		}
		summary := a.Description
		if summary == "" {
			summary = a.Content
		}
		category := classify(a.Title, summary)
		items = append(items, model.ContentItem{
			Title:              a.Title,
			Summary:            summary,
			Category:           category,
			SourceKind:         model.SourceAggregated,
			PublishedAt:        a.PublishedAt,
			BreakdownPotential: breakdownPotential(category, a.Title),
		})
	}
	return items, nil
}

// classify maps a headline onto the scoring categories. Keyword matching
// is intentionally crude; misfiled items still score via recency.
func classify(title, summary string) string {
	text := strings.ToLower(title + " " + summary)
	switch {
	case containsAny(text, "breaking", "just in", "urgent", "developing"):
		return "breaking"
	case containsAny(text, "investigation", "leaked", "exposed", "probe", "whistleblower"):
		return "investigative"
	case containsAny(text, "bizarre", "weird", "unexplained", "florida", "mysterious", "inexplicable"):
		return "weird"
	case containsAny(text, "opinion", "editorial", "column", "op-ed"):
		return "opinion"
	case containsAny(text, "rescue", "reunited", "community", "donat", "heartwarming", "volunteer"):
		return "human_interest"
	default:
		return "general"
	}
}

func containsAny(text string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

// breakdownPotential estimates how likely a story is to push an anchor
// off-script. Weird and investigative stories carry the most charge.
func breakdownPotential(category, title string) float64 {
	p := 0.05
	switch category {
	case "weird":
		p = 0.35
	case "investigative":
		p = 0.25
	case "breaking":
		p = 0.2
	case "opinion":
		p = 0.15
	}
	if len(title) > 90 {
		p += 0.05
	}
	if p > 1 {
		p = 1
	}
	return p
}
