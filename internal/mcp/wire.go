//go:build wireinject
// +build wireinject

package mcp

import (
	"github.com/google/wire"

	"github.com/akarpova/vacancyhub/internal/config"
	"github.com/akarpova/vacancyhub/internal/domain/vacancy"
	storage "github.com/akarpova/vacancyhub/internal/storage/neo4j"
	"github.com/akarpova/vacancyhub/pkg/logging"
	n4j "github.com/akarpova/vacancyhub/pkg/neo4j"
)

// InitializeResources creates Resources with the full pipeline wired up
func InitializeResources(cfg config.Config, logger *logging.Logger) (*Resources, error) {
	wire.Build(
		// Infrastructure - Neo4j
		provideNeo4jConfig,
		n4j.NewClient,

		// Storage
		storage.NewVacancyRepository,
		wire.Bind(new(vacancy.Repository), new(*storage.VacancyRepository)),
		wire.Bind(new(AnalyticsRepository), new(*storage.VacancyRepository)),

		// Providers (each carries its own transport + cache stack)
		provideHeadHunterProvider,
		provideSuperJobProvider,
		provideProviders,

		// Pipeline
		providePaginator,
		provideVacancyService,

		// Export
		provideExporter,

		newResources,
	)

	return &Resources{}, nil
}
