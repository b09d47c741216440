package vacancy

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/akarpova/vacancyhub/internal/domain"
	"github.com/akarpova/vacancyhub/pkg/logging"
)

// Service is the pipeline's composition root: it fans a query out to the
// requested providers, merges their outputs, deduplicates once, and hands the
// survivors to storage.
type Service interface {
	Search(ctx context.Context, query string, sources []string, filters domain.SearchFilters) (domain.SearchResult, error)

	// ClearCache invalidates one provider's response cache, or every
	// provider's when source is empty.
	ClearCache(ctx context.Context, source string) error
}

// Option configures Service
type Option func(*config)

type config struct {
	providers  []Provider
	repo       Repository
	paginator  *Paginator
	maxSources int
	clock      func() time.Time
	logger     *logging.Logger
}

// WithProviders sets the providers in fan-out order
func WithProviders(providers ...Provider) Option {
	return func(c *config) {
		c.providers = providers
	}
}

// WithRepository sets the storage sink
func WithRepository(repo Repository) Option {
	return func(c *config) {
		c.repo = repo
	}
}

// WithPaginator sets the page-fetch driver
func WithPaginator(p *Paginator) Option {
	return func(c *config) {
		c.paginator = p
	}
}

// WithMaxSources caps how many sources one search may query
func WithMaxSources(n int) Option {
	return func(c *config) {
		c.maxSources = n
	}
}

// WithClock sets a custom clock
func WithClock(clock func() time.Time) Option {
	return func(c *config) {
		c.clock = clock
	}
}

// WithLogger sets the service logger
func WithLogger(logger *logging.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// NewService builds Service from options
func NewService(opts ...Option) (Service, error) {
	cfg := &config{
		clock:  time.Now,
		logger: logging.Nop(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.repo == nil {
		return nil, fmt.Errorf("vacancy.Service: repository is required")
	}
	if len(cfg.providers) == 0 {
		return nil, fmt.Errorf("vacancy.Service: at least one provider is required")
	}
	if cfg.paginator == nil {
		return nil, fmt.Errorf("vacancy.Service: paginator is required")
	}
	if cfg.maxSources < 1 {
		cfg.maxSources = len(cfg.providers)
	}

	return &service{
		providers:  cfg.providers,
		repo:       cfg.repo,
		paginator:  cfg.paginator,
		maxSources: cfg.maxSources,
		clock:      cfg.clock,
		logger:     cfg.logger,
	}, nil
}

// NewServiceWithDeps creates a Service with direct dependencies (Wire-compatible)
func NewServiceWithDeps(repo Repository, providers []Provider, paginator *Paginator, maxSources int, logger *logging.Logger) (Service, error) {
	opts := []Option{
		WithRepository(repo),
		WithProviders(providers...),
		WithPaginator(paginator),
		WithMaxSources(maxSources),
	}
	if logger != nil {
		opts = append(opts, WithLogger(logger))
	}
	return NewService(opts...)
}

type service struct {
	providers  []Provider
	repo       Repository
	paginator  *Paginator
	maxSources int
	clock      func() time.Time
	logger     *logging.Logger
}

// Search queries the requested sources in caller order, deduplicates the
// combined set once, and stores the result. A failing or empty source never
// prevents the others from contributing; a query that fails everywhere
// returns an empty result, not an error.
func (s *service) Search(
	ctx context.Context,
	query string,
	sources []string,
	filters domain.SearchFilters,
) (domain.SearchResult, error) {
	if query == "" {
		return domain.SearchResult{}, fmt.Errorf("query is required")
	}

	now := s.clock()
	selected := s.selectProviders(sources)

	var all []domain.Vacancy
	dropped := 0
	sourceCount := 0

	for _, p := range selected {
		records, d := s.paginator.Collect(ctx, p, query, filters)
		dropped += d
		if len(records) > 0 {
			sourceCount++
		}
		all = append(all, records...)
	}

	unique := Dedupe(all)

	for i := range unique {
		if unique[i].ID == uuid.Nil {
			unique[i].ID = uuid.New()
		}
		if unique[i].FetchedAt.IsZero() {
			unique[i].FetchedAt = now
		}
	}

	if len(unique) > 0 {
		if err := s.repo.UpsertVacancies(ctx, unique); err != nil {
			return domain.SearchResult{}, err
		}
	}

	summaries := make([]domain.VacancySummary, 0, len(unique))
	for _, v := range unique {
		summaries = append(summaries, domain.VacancySummary{
			ID:       v.ID,
			Title:    v.Title,
			Employer: v.Employer.Name,
			URL:      v.URL,
			Source:   v.Source,
			Salary:   formatSalary(v.Salary),
		})
	}

	return domain.SearchResult{
		Vacancies:   summaries,
		FetchedAt:   now,
		SourceCount: sourceCount,
		Dropped:     dropped,
	}, nil
}

func (s *service) ClearCache(ctx context.Context, source string) error {
	cleared := false
	for _, p := range s.providers {
		if source != "" && p.Name() != source {
			continue
		}
		if err := p.InvalidateCache(ctx); err != nil {
			return err
		}
		cleared = true
	}

	if !cleared {
		return fmt.Errorf("unknown source %q", source)
	}
	return nil
}

// selectProviders resolves the requested source names in caller order,
// keeping the configured order when no sources are named, and enforces the
// per-call source cap.
func (s *service) selectProviders(sources []string) []Provider {
	var selected []Provider

	if len(sources) == 0 {
		selected = append(selected, s.providers...)
	} else {
		for _, name := range sources {
			p := s.providerByName(name)
			if p == nil {
				s.logger.Warn("unknown source requested", "source", name)
				continue
			}
			selected = append(selected, p)
		}
	}

	if len(selected) > s.maxSources {
		selected = selected[:s.maxSources]
	}
	return selected
}

func (s *service) providerByName(name string) Provider {
	for _, p := range s.providers {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

func formatSalary(s *domain.SalaryRange) string {
	if s == nil {
		return ""
	}

	switch {
	case s.From > 0 && s.To > 0:
		return strconv.Itoa(s.From) + "-" + strconv.Itoa(s.To) + " " + s.Currency
	case s.From > 0:
		return "from " + strconv.Itoa(s.From) + " " + s.Currency
	case s.To > 0:
		return "to " + strconv.Itoa(s.To) + " " + s.Currency
	default:
		return ""
	}
}
