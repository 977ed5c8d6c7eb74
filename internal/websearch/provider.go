// Package websearch holds the web search boundary and its provider
// implementations. Providers return raw results only; refinement, filtering,
// and deduplication happen in the workflow stages.
package websearch

import (
	"context"

	"github.com/strandworks/deepresearch/internal/engine"
)

// Provider executes one query against a search backend. Empty result sets
// are valid; errors are tolerated upstream by degrading the query to zero
// results.
type Provider interface {
	Name() string
	Search(ctx context.Context, query string, maxResults int) ([]engine.SearchResult, error)
}
