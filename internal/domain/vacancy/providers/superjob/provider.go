// Package superjob adapts the superjob.ru vacancy search API to the generic
// provider contract. Items live under "objects", the total count under
// "total"; a valid item has a non-empty profession and link. Authentication
// is an X-Api-App-Id header attached at transport construction.
package superjob

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/akarpova/vacancyhub/internal/domain"
	"github.com/akarpova/vacancyhub/internal/domain/vacancy"
	"github.com/akarpova/vacancyhub/pkg/logging"
	"github.com/akarpova/vacancyhub/pkg/upstream"
)

// SourceName identifies superjob.ru records throughout the pipeline.
const SourceName = "superjob"

const defaultPageSize = 50

type fetcher interface {
	Fetch(ctx context.Context, endpoint string, params upstream.Params) ([]byte, error)
	Invalidate(ctx context.Context) error
}

// Provider implements vacancy.Provider backed by superjob.ru.
type Provider struct {
	cache    fetcher
	pageSize int
	logger   *logging.Logger
}

var _ vacancy.Provider = (*Provider)(nil)

// NewProvider builds a superjob.ru provider on top of a provider-scoped cache.
func NewProvider(cache fetcher, pageSize int, logger *logging.Logger) (*Provider, error) {
	if cache == nil {
		return nil, fmt.Errorf("superjob provider: cache is required")
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if logger == nil {
		logger = logging.Nop()
	}

	return &Provider{
		cache:    cache,
		pageSize: pageSize,
		logger:   logger,
	}, nil
}

// Name returns the provider identifier
func (p *Provider) Name() string {
	return SourceName
}

// PageSize returns items per page
func (p *Provider) PageSize() int {
	return p.pageSize
}

// Page fetches one page of search results, absorbing upstream failures into
// an empty page.
func (p *Provider) Page(ctx context.Context, query string, page int, filters domain.SearchFilters) (domain.PageResult, error) {
	params := upstream.Params{
		"keyword": query,
		"page":    page,
		"count":   p.pageSize,
	}
	if filters.Area != "" {
		params["town"] = filters.Area
	}
	if filters.OnlyWithSalary {
		params["no_agreement"] = 1
	}
	for k, v := range filters.Extra {
		params[k] = v
	}

	body, err := p.cache.Fetch(ctx, "", params)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return domain.PageResult{}, ctxErr
		}
		p.logger.Warn("superjob fetch failed", "err", err)
		return domain.PageResult{}, nil
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		p.logger.Warn("superjob response has unexpected shape", "err", err)
		return domain.PageResult{}, nil
	}

	records, dropped := p.convert(resp.Objects)
	return domain.PageResult{
		Records: records,
		Found:   resp.Total,
		Dropped: dropped,
	}, nil
}

// InvalidateCache drops the superjob namespace from the response cache.
func (p *Provider) InvalidateCache(ctx context.Context) error {
	return p.cache.Invalidate(ctx)
}

func (p *Provider) convert(items []object) ([]domain.Vacancy, int) {
	records := make([]domain.Vacancy, 0, len(items))
	dropped := 0

	for _, it := range items {
		if it.Profession == "" || it.Link == "" {
			dropped++
			continue
		}

		v := domain.Vacancy{
			Source:   SourceName,
			Title:    it.Profession,
			URL:      it.Link,
			Employer: domain.EmployerRef{
				Name: it.FirmName,
			},
			Snippet: it.Candidat,
		}

		// An absent id decodes as 0; leave ExternalID empty so dedupe falls
		// back to title+employer instead of collapsing every id-less item.
		if it.ID > 0 {
			v.ExternalID = strconv.Itoa(it.ID)
		}

		if it.IDClient > 0 {
			v.Employer.ID = strconv.Itoa(it.IDClient)
		}

		if it.PaymentFrom > 0 || it.PaymentTo > 0 {
			v.Salary = &domain.SalaryRange{
				From:     it.PaymentFrom,
				To:       it.PaymentTo,
				Currency: it.Currency,
			}
		}

		if it.DatePublished > 0 {
			v.PublishedAt = time.Unix(it.DatePublished, 0).UTC()
		}

		records = append(records, v)
	}

	return records, dropped
}

type searchResponse struct {
	Objects []object `json:"objects"`
	Total   int      `json:"total"`
	More    bool     `json:"more"`
}

type object struct {
	ID            int    `json:"id"`
	Profession    string `json:"profession"`
	Link          string `json:"link"`
	FirmName      string `json:"firm_name"`
	IDClient      int    `json:"id_client"`
	PaymentFrom   int    `json:"payment_from"`
	PaymentTo     int    `json:"payment_to"`
	Currency      string `json:"currency"`
	Candidat      string `json:"candidat"`
	DatePublished int64  `json:"date_published"`
}
