package vacancy

import (
	"context"

	"github.com/akarpova/vacancyhub/internal/domain"
	"github.com/akarpova/vacancyhub/pkg/logging"
)

// Paginator drives a bounded sequence of page fetches for one provider and
// one query. Page 0 doubles as the metadata probe: it reports the total item
// count, from which the number of pages is planned, capped at maxPages. Pages
// are fetched in ascending order, each exactly once per collection run.
type Paginator struct {
	maxPages int
	logger   *logging.Logger
}

// NewPaginator builds a Paginator with a hard cap on pages per query.
func NewPaginator(maxPages int, logger *logging.Logger) *Paginator {
	if maxPages < 1 {
		maxPages = 1
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &Paginator{maxPages: maxPages, logger: logger}
}

// Collect accumulates records page by page and returns them together with the
// total count of items dropped by validation. Cancellation is cooperative:
// it is checked before each page fetch and, once observed, Collect returns
// whatever was accumulated so far. Collect never fails; the worst outcome is
// an empty slice.
func (p *Paginator) Collect(ctx context.Context, provider Provider, query string, filters domain.SearchFilters) ([]domain.Vacancy, int) {
	first, err := provider.Page(ctx, query, 0, filters)
	if err != nil {
		p.logger.Warn("metadata probe failed", "provider", provider.Name(), "err", err)
		return nil, 0
	}

	if first.Found == 0 {
		return nil, first.Dropped
	}

	pages := pagesNeeded(first.Found, provider.PageSize(), p.maxPages)
	p.logger.Debug("page fetch planned",
		"provider", provider.Name(), "found", first.Found, "pages", pages)

	records := first.Records
	dropped := first.Dropped

	for page := 1; page < pages; page++ {
		if ctx.Err() != nil {
			p.logger.Info("collection cancelled",
				"provider", provider.Name(), "collected", len(records))
			break
		}

		res, err := provider.Page(ctx, query, page, filters)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			p.logger.Warn("page fetch failed",
				"provider", provider.Name(), "page", page, "err", err)
			continue
		}

		records = append(records, res.Records...)
		dropped += res.Dropped
	}

	return records, dropped
}

// pagesNeeded returns min(cap, ceil(found/perPage)), at least 1.
func pagesNeeded(found, perPage, maxPages int) int {
	if perPage < 1 {
		return 1
	}

	n := (found + perPage - 1) / perPage
	if n < 1 {
		n = 1
	}
	if n > maxPages {
		n = maxPages
	}
	return n
}
