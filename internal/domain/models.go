package domain

import (
	"time"

	"github.com/google/uuid"
)

// VacancyID uniquely identifies a vacancy record
type VacancyID = uuid.UUID

// EmployerRef references the employer that posted a vacancy. ID is the
// provider-native employer id and may be empty.
type EmployerRef struct {
	ID   string
	Name string
}

// SalaryRange is carried through the pipeline opaquely; no parsing or
// currency conversion happens here.
type SalaryRange struct {
	From     int
	To       int
	Currency string
	Gross    bool
}

// Vacancy is the normalized record flowing out of a source adapter.
// Source + ExternalID is unique within one adapter's output for a query run.
type Vacancy struct {
	ID          VacancyID
	Source      string
	ExternalID  string
	Title       string
	URL         string
	Employer    EmployerRef
	Salary      *SalaryRange
	Snippet     string
	PublishedAt time.Time
	FetchedAt   time.Time
}

// SearchFilters describe the generic filters fanned out to every provider.
// Extra entries are passed through to the provider's query string untouched.
type SearchFilters struct {
	Area           string
	OnlyWithSalary bool
	Extra          map[string]any
}

// PageResult is one page of normalized records plus the provider's reported
// total and the number of raw items dropped by validation.
type PageResult struct {
	Records []Vacancy
	Found   int
	Dropped int
}

// VacancySummary is the response-friendly vacancy view
type VacancySummary struct {
	ID       VacancyID `json:"id"`
	Title    string    `json:"title"`
	Employer string    `json:"employer"`
	URL      string    `json:"url"`
	Source   string    `json:"source"`
	Salary   string    `json:"salary,omitempty"`
}

// SearchResult wraps one aggregated search. SourceCount is the number of
// sources that contributed records and Dropped the total items discarded by
// validation, so callers can tell a dry query from a dark provider.
type SearchResult struct {
	Vacancies   []VacancySummary
	FetchedAt   time.Time
	SourceCount int
	Dropped     int
}

// EmployerVacancyCount pairs an employer with how many stored vacancies it has.
type EmployerVacancyCount struct {
	Employer string
	Count    int
}
