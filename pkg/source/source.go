// Package source pulls news content from external aggregators. Pulled
// items enter the content store as SourceAggregated and compete for
// airtime on priority score alone.
package source

import (
	"context"

	"staticnews/pkg/model"
)

// Source is a pullable news feed.
type Source interface {
	Name() string
	Pull(ctx context.Context) ([]model.ContentItem, error)
}
