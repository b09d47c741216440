package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/akarpova/vacancyhub/internal/cache"
	"github.com/akarpova/vacancyhub/internal/config"
	"github.com/akarpova/vacancyhub/internal/domain"
	"github.com/akarpova/vacancyhub/internal/domain/vacancy"
	"github.com/akarpova/vacancyhub/internal/domain/vacancy/providers/headhunter"
	"github.com/akarpova/vacancyhub/internal/domain/vacancy/providers/superjob"
	"github.com/akarpova/vacancyhub/internal/export"
	"github.com/akarpova/vacancyhub/pkg/logging"
	n4j "github.com/akarpova/vacancyhub/pkg/neo4j"
	"github.com/akarpova/vacancyhub/pkg/sheets"
	"github.com/akarpova/vacancyhub/pkg/upstream"
)

// memoryTierMaxTTL caps the fast cache tier's freshness window.
const memoryTierMaxTTL = 5 * time.Minute

// AnalyticsRepository is the storage view consumed by the analytics and
// export tools.
type AnalyticsRepository interface {
	EmployersWithVacancyCount(ctx context.Context) ([]domain.EmployerVacancyCount, error)
	AverageSalary(ctx context.Context) (float64, error)
	WithHigherSalary(ctx context.Context) ([]domain.Vacancy, error)
	WithKeyword(ctx context.Context, keyword string) ([]domain.Vacancy, error)
}

// Resources bundles everything the MCP tools need.
type Resources struct {
	VacancyService vacancy.Service
	HeadHunter     *headhunter.Provider
	Analytics      AnalyticsRepository
	Exporter       *export.SheetsExporter // nil when Sheets credentials are absent
	Neo4jClient    *n4j.Client
	MaxPages       int
}

// newProviderCache assembles the transport-plus-cache stack for one provider:
// a paced upstream client behind a two-level (memory front, file back) store.
func newProviderCache(provider string, cfg config.Config, clientCfg upstream.Config, logger *logging.Logger) (*cache.Cache, error) {
	client, err := upstream.NewClient(clientCfg)
	if err != nil {
		return nil, err
	}

	fileStore, err := cache.NewFileStore(cfg.CacheDir, cfg.CacheTTL)
	if err != nil {
		return nil, err
	}

	memTTL := cfg.CacheTTL
	if memTTL > memoryTierMaxTTL {
		memTTL = memoryTierMaxTTL
	}
	store := cache.NewTiered(cache.NewMemory(memTTL), fileStore)

	return cache.New(provider, store, client, logger)
}

func provideHeadHunterProvider(cfg config.Config, logger *logging.Logger) (*headhunter.Provider, error) {
	c, err := newProviderCache(headhunter.SourceName, cfg, upstream.Config{
		BaseURL: cfg.HeadHunter.BaseURL,
		Headers: map[string]string{"User-Agent": "vacancyhub/1.0"},
		Timeout: cfg.RequestTimeout,
		Delay:   cfg.RequestDelay,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("headhunter stack: %w", err)
	}

	return headhunter.NewProvider(c, cfg.HeadHunter.PageSize, logger.Named("hh"))
}

func provideSuperJobProvider(cfg config.Config, logger *logging.Logger) (*superjob.Provider, error) {
	headers := map[string]string{"User-Agent": "vacancyhub/1.0"}
	if cfg.SuperJob.APIKey != "" {
		headers["X-Api-App-Id"] = cfg.SuperJob.APIKey
	} else {
		logger.Warn("SUPERJOB_API_KEY is not set; superjob requests will be rejected upstream")
	}

	c, err := newProviderCache(superjob.SourceName, cfg, upstream.Config{
		BaseURL: cfg.SuperJob.BaseURL,
		Headers: headers,
		Timeout: cfg.RequestTimeout,
		Delay:   cfg.RequestDelay,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("superjob stack: %w", err)
	}

	return superjob.NewProvider(c, cfg.SuperJob.PageSize, logger.Named("sj"))
}

func provideProviders(hh *headhunter.Provider, sj *superjob.Provider) []vacancy.Provider {
	return []vacancy.Provider{hh, sj}
}

func providePaginator(cfg config.Config, logger *logging.Logger) *vacancy.Paginator {
	return vacancy.NewPaginator(cfg.MaxPages, logger.Named("paginator"))
}

func provideVacancyService(repo vacancy.Repository, providers []vacancy.Provider, paginator *vacancy.Paginator, cfg config.Config, logger *logging.Logger) (vacancy.Service, error) {
	return vacancy.NewServiceWithDeps(repo, providers, paginator, cfg.MaxSources, logger.Named("vacancy"))
}

func provideNeo4jConfig(cfg config.Config) n4j.Config {
	return n4j.Config{
		URI:      cfg.Neo4j.URI,
		Username: cfg.Neo4j.Username,
		Password: cfg.Neo4j.Password,
	}
}

// provideExporter returns a nil exporter when Sheets credentials are not
// configured; the export tool reports itself disabled in that case.
func provideExporter(cfg config.Config, logger *logging.Logger) *export.SheetsExporter {
	if cfg.Sheets.CredentialsPath == "" {
		return nil
	}

	client, err := sheets.NewClient(context.Background(), sheets.Config{
		CredentialsPath: cfg.Sheets.CredentialsPath,
	})
	if err != nil {
		logger.Warn("sheets client unavailable", "err", err)
		return nil
	}

	exporter, err := export.NewSheetsExporter(client)
	if err != nil {
		logger.Warn("sheets exporter unavailable", "err", err)
		return nil
	}
	return exporter
}

func newResources(
	svc vacancy.Service,
	hh *headhunter.Provider,
	analytics AnalyticsRepository,
	exporter *export.SheetsExporter,
	neo4jClient *n4j.Client,
	cfg config.Config,
) *Resources {
	return &Resources{
		VacancyService: svc,
		HeadHunter:     hh,
		Analytics:      analytics,
		Exporter:       exporter,
		Neo4jClient:    neo4jClient,
		MaxPages:       cfg.MaxPages,
	}
}
