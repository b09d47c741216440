package vacancy

import (
	"context"

	"github.com/akarpova/vacancyhub/internal/domain"
)

// Provider represents one external recruitment search API (hh.ru,
// superjob.ru, ...). Implementations translate the generic query into the
// provider's request shape and its response back into normalized records.
type Provider interface {
	// e.g. "hh" or "superjob"
	Name() string

	// PageSize is the number of items the provider returns per page.
	PageSize() int

	// Page fetches one page of results. Upstream failures are absorbed at
	// this boundary: a failing page yields an empty PageResult and a log
	// line, never an error, so one bad page does not abort a collection.
	Page(ctx context.Context, query string, page int, filters domain.SearchFilters) (domain.PageResult, error)

	// InvalidateCache drops the provider's cached responses so the next
	// search hits the network.
	InvalidateCache(ctx context.Context) error
}
