// Package headhunter adapts the hh.ru vacancy search API to the generic
// provider contract. Items live under "items", the total count under "found";
// a valid item has a non-empty name and alternate_url.
package headhunter

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/akarpova/vacancyhub/internal/domain"
	"github.com/akarpova/vacancyhub/internal/domain/vacancy"
	"github.com/akarpova/vacancyhub/pkg/logging"
	"github.com/akarpova/vacancyhub/pkg/upstream"
)

// SourceName identifies hh.ru records throughout the pipeline.
const SourceName = "hh"

const defaultPageSize = 50

// hh.ru timestamps look like 2024-05-17T14:03:28+0300
const publishedAtLayout = "2006-01-02T15:04:05-0700"

// fetcher describes the subset of the response cache used by the provider.
type fetcher interface {
	Fetch(ctx context.Context, endpoint string, params upstream.Params) ([]byte, error)
	Invalidate(ctx context.Context) error
}

// Provider implements vacancy.Provider backed by hh.ru.
type Provider struct {
	cache    fetcher
	pageSize int
	logger   *logging.Logger
}

var _ vacancy.Provider = (*Provider)(nil)

// NewProvider builds an hh.ru provider on top of a provider-scoped cache.
func NewProvider(cache fetcher, pageSize int, logger *logging.Logger) (*Provider, error) {
	if cache == nil {
		return nil, fmt.Errorf("headhunter provider: cache is required")
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

// Page fetches one page of search results. Upstream failures are logged and
// reported as an empty page so a multi-page collection degrades instead of
// aborting.
func (p *Provider) Page(ctx context.Context, query string, page int, filters domain.SearchFilters) (domain.PageResult, error) {
	params := upstream.Params{
		"text":     strings.ToLower(query),
		"page":     page,
		"per_page": p.pageSize,
	}
	if filters.Area != "" {
		params["area"] = filters.Area
	}
	if filters.OnlyWithSalary {
		params["only_with_salary"] = true
	}
	for k, v := range filters.Extra {
		params[k] = v
	}

	resp, ok := p.fetch(ctx, params)
	if !ok {
		if err := ctx.Err(); err != nil {
			return domain.PageResult{}, err
		}
		return domain.PageResult{}, nil
	}

	records, dropped := p.convert(resp.Items)
	return domain.PageResult{
		Records: records,
		Found:   resp.Found,
		Dropped: dropped,
	}, nil
}

// ByEmployer collects vacancies posted by one employer, an hh.ru-only
// operation (superjob.ru has no employer-id search). Paging stops at the
// first short page or at maxPages.
func (p *Provider) ByEmployer(ctx context.Context, employerID string, maxPages int) ([]domain.Vacancy, int, error) {
	if employerID == "" {
		return nil, 0, fmt.Errorf("headhunter provider: employer id is required")
	}
	if maxPages < 1 {
		maxPages = 1
	}

	var all []domain.Vacancy
	dropped := 0

	for page := 0; page < maxPages; page++ {
		if err := ctx.Err(); err != nil {
			return all, dropped, err
		}

		params := upstream.Params{
			"employer_id": employerID,
			"page":        page,
			"per_page":    p.pageSize,
		}

		resp, ok := p.fetch(ctx, params)
		if !ok {
			break
		}

		records, d := p.convert(resp.Items)
		all = append(all, records...)
		dropped += d

		if len(resp.Items) < p.pageSize {
			break
		}
	}

	return all, dropped, nil
}

// InvalidateCache drops the hh namespace from the response cache.
func (p *Provider) InvalidateCache(ctx context.Context) error {
	return p.cache.Invalidate(ctx)
}

func (p *Provider) fetch(ctx context.Context, params upstream.Params) (*searchResponse, bool) {
	body, err := p.cache.Fetch(ctx, "", params)
	if err != nil {
		p.logger.Warn("hh fetch failed", "err", err)
		return nil, false
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		p.logger.Warn("hh response has unexpected shape", "err", err)
		return nil, false
	}

	return &resp, true
}

// convert normalizes raw items, silently dropping (but counting) the ones
// that fail validation.
func (p *Provider) convert(items []item) ([]domain.Vacancy, int) {
	records := make([]domain.Vacancy, 0, len(items))
	dropped := 0

	for _, it := range items {
		if it.Name == "" || it.AlternateURL == "" {
			dropped++
			continue
		}

		v := domain.Vacancy{
			Source:     SourceName,
			ExternalID: it.ID,
			Title:      it.Name,
			URL:        it.AlternateURL,
			Employer: domain.EmployerRef{
				ID:   it.Employer.ID,
				Name: it.Employer.Name,
			},
			Snippet: joinSnippet(it.Snippet.Requirement, it.Snippet.Responsibility),
		}

		if it.Salary != nil {
			v.Salary = &domain.SalaryRange{
				From:     it.Salary.From,
				To:       it.Salary.To,
				Currency: it.Salary.Currency,
				Gross:    it.Salary.Gross,
			}
		}

		if ts, err := time.Parse(publishedAtLayout, it.PublishedAt); err == nil {
			v.PublishedAt = ts
		}

		records = append(records, v)
	}

	return records, dropped
}

func joinSnippet(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " ")
}

type searchResponse struct {
	Found int    `json:"found"`
	Pages int    `json:"pages"`
	Items []item `json:"items"`
}

type item struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	AlternateURL string `json:"alternate_url"`
	Employer     struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"employer"`
	Salary *struct {
		From     int    `json:"from"`
		To       int    `json:"to"`
		Currency string `json:"currency"`
		Gross    bool   `json:"gross"`
	} `json:"salary"`
	Snippet struct {
		Requirement    string `json:"requirement"`
		Responsibility string `json:"responsibility"`
	} `json:"snippet"`
	PublishedAt string `json:"published_at"`
}
