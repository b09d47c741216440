package vacancy

import (
	"context"

	"github.com/akarpova/vacancyhub/internal/domain"
)

// Repository persists deduplicated vacancies. The pipeline treats it as a
// pure sink: records are handed over once per search and nothing is assumed
// about what happens to them afterwards.
type Repository interface {
	// UpsertVacancies creates or updates vacancies based on Source + ExternalID
	UpsertVacancies(ctx context.Context, vacancies []domain.Vacancy) error
}
