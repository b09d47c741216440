package mcp

import (
	"context"
	"fmt"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/akarpova/vacancyhub/internal/domain"
	"github.com/akarpova/vacancyhub/pkg/logging"
)

// SearchVacanciesParams defines the arguments for the search_vacancies tool
type SearchVacanciesParams struct {
	Query          string   `json:"query" jsonschema:"Free-text vacancy search query"`
	Sources        []string `json:"sources,omitempty" jsonschema:"Sources to query in order (hh, superjob); all when empty"`
	Area           string   `json:"area,omitempty" jsonschema:"Region/town filter passed to the providers"`
	OnlyWithSalary bool     `json:"only_with_salary,omitempty" jsonschema:"Restrict to postings with a published salary"`
}

// SearchVacanciesResult is the structured search_vacancies response
type SearchVacanciesResult struct {
	Vacancies   []domain.VacancySummary `json:"vacancies"`
	FetchedAt   string                  `json:"fetched_at"`
	SourceCount int                     `json:"source_count"`
	Dropped     int                     `json:"dropped"`
}

// EmployerVacanciesParams defines the arguments for the employer_vacancies tool
type EmployerVacanciesParams struct {
	EmployerID string `json:"employer_id" jsonschema:"hh.ru employer identifier"`
}

// ClearCacheParams defines the arguments for the clear_cache tool
type ClearCacheParams struct {
	Source string `json:"source,omitempty" jsonschema:"Provider namespace to clear (hh, superjob); all when empty"`
}

// AnalyticsParams defines the arguments for the vacancy_analytics tool
type AnalyticsParams struct {
	Report  string `json:"report" jsonschema:"One of: employers, average_salary, higher_salary, keyword"`
	Keyword string `json:"keyword,omitempty" jsonschema:"Keyword for the keyword report"`
}

// ExportVacanciesParams defines the arguments for the export_vacancies tool
type ExportVacanciesParams struct {
	SpreadsheetID string `json:"spreadsheet_id" jsonschema:"Google Sheets document ID"`
	Tab           string `json:"tab,omitempty" jsonschema:"Tab to rewrite, defaults to Vacancies"`
	Keyword       string `json:"keyword,omitempty" jsonschema:"Export only stored vacancies matching this keyword"`
}

// toolset binds the tool handlers to their resources
type toolset struct {
	res    *Resources
	logger *logging.Logger
}

// registerTools wires all vacancy tools into the MCP server
func registerTools(s *sdkmcp.Server, res *Resources, logger *logging.Logger) {
	ts := &toolset{res: res, logger: logger}

	sdkmcp.AddTool(s, &sdkmcp.Tool{
		Name:        "search_vacancies",
		Description: "Search hh.ru and superjob.ru, deduplicate across sources, and store the results",
	}, ts.searchVacancies)

	sdkmcp.AddTool(s, &sdkmcp.Tool{
		Name:        "employer_vacancies",
		Description: "Collect every vacancy posted by one hh.ru employer",
	}, ts.employerVacancies)

	sdkmcp.AddTool(s, &sdkmcp.Tool{
		Name:        "clear_cache",
		Description: "Drop cached upstream responses so the next search fetches fresh data",
	}, ts.clearCache)

	sdkmcp.AddTool(s, &sdkmcp.Tool{
		Name:        "vacancy_analytics",
		Description: "Report on stored vacancies: employer counts, salary statistics, keyword matches",
	}, ts.analytics)

	sdkmcp.AddTool(s, &sdkmcp.Tool{
		Name:        "export_vacancies",
		Description: "Export stored vacancies to a Google Sheets tab",
	}, ts.exportVacancies)
}

func (ts *toolset) searchVacancies(ctx context.Context, _ *sdkmcp.CallToolRequest, params *SearchVacanciesParams) (*sdkmcp.CallToolResult, any, error) {
	result, err := ts.res.VacancyService.Search(ctx, params.Query, params.Sources, domain.SearchFilters{
		Area:           params.Area,
		OnlyWithSalary: params.OnlyWithSalary,
	})
	if err != nil {
		return nil, nil, err
	}

	out := SearchVacanciesResult{
		Vacancies:   result.Vacancies,
		FetchedAt:   result.FetchedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		SourceCount: result.SourceCount,
		Dropped:     result.Dropped,
	}

	msg := fmt.Sprintf("Found %d unique vacancies from %d source(s); %d raw items dropped by validation",
		len(out.Vacancies), out.SourceCount, out.Dropped)
	return textResult(msg), out, nil
}

func (ts *toolset) employerVacancies(ctx context.Context, _ *sdkmcp.CallToolRequest, params *EmployerVacanciesParams) (*sdkmcp.CallToolResult, any, error) {
	records, dropped, err := ts.res.HeadHunter.ByEmployer(ctx, params.EmployerID, ts.res.MaxPages)
	if err != nil {
		return nil, nil, err
	}

	summaries := make([]domain.VacancySummary, 0, len(records))
	for _, v := range records {
		summaries = append(summaries, domain.VacancySummary{
			ID:       v.ID,
			Title:    v.Title,
			Employer: v.Employer.Name,
			URL:      v.URL,
			Source:   v.Source,
		})
	}

	msg := fmt.Sprintf("Employer %s has %d vacancies on hh.ru (%d dropped)", params.EmployerID, len(summaries), dropped)
	return textResult(msg), summaries, nil
}

func (ts *toolset) clearCache(ctx context.Context, _ *sdkmcp.CallToolRequest, params *ClearCacheParams) (*sdkmcp.CallToolResult, any, error) {
	if err := ts.res.VacancyService.ClearCache(ctx, params.Source); err != nil {
		return nil, nil, err
	}

	scope := params.Source
	if scope == "" {
		scope = "all sources"
	}
	return textResult("Cache cleared for " + scope), nil, nil
}

func (ts *toolset) analytics(ctx context.Context, _ *sdkmcp.CallToolRequest, params *AnalyticsParams) (*sdkmcp.CallToolResult, any, error) {
	switch params.Report {
	case "employers":
		counts, err := ts.res.Analytics.EmployersWithVacancyCount(ctx)
		if err != nil {
			return nil, nil, err
		}
		return textResult(fmt.Sprintf("%d employers with stored vacancies", len(counts))), counts, nil

	case "average_salary":
		avg, err := ts.res.Analytics.AverageSalary(ctx)
		if err != nil {
			return nil, nil, err
		}
		return textResult(fmt.Sprintf("Average stored salary midpoint: %.0f", avg)), map[string]float64{"average": avg}, nil

	case "higher_salary":
		vacancies, err := ts.res.Analytics.WithHigherSalary(ctx)
		if err != nil {
			return nil, nil, err
		}
		return textResult(fmt.Sprintf("%d vacancies pay above the stored average", len(vacancies))), vacancies, nil

	case "keyword":
		if params.Keyword == "" {
			return nil, nil, fmt.Errorf("keyword report requires a keyword")
		}
		vacancies, err := ts.res.Analytics.WithKeyword(ctx, params.Keyword)
		if err != nil {
			return nil, nil, err
		}
		return textResult(fmt.Sprintf("%d stored vacancies mention %q", len(vacancies), params.Keyword)), vacancies, nil

	default:
		return nil, nil, fmt.Errorf("unknown report %q", params.Report)
	}
}

func (ts *toolset) exportVacancies(ctx context.Context, _ *sdkmcp.CallToolRequest, params *ExportVacanciesParams) (*sdkmcp.CallToolResult, any, error) {
	if ts.res.Exporter == nil {
		return nil, nil, fmt.Errorf("sheets export is disabled: SHEETS_CREDENTIALS_PATH is not configured")
	}

	vacancies, err := ts.res.Analytics.WithKeyword(ctx, params.Keyword)
	if err != nil {
		return nil, nil, err
	}

	rows, err := ts.res.Exporter.Export(ctx, params.SpreadsheetID, params.Tab, vacancies)
	if err != nil {
		return nil, nil, err
	}

	return textResult(fmt.Sprintf("Exported %d vacancies to spreadsheet %s", rows, params.SpreadsheetID)), map[string]int{"rows_written": rows}, nil
}

// textResult produces a text-only ToolResult
func textResult(msg string) *sdkmcp.CallToolResult {
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{
			&sdkmcp.TextContent{Text: msg},
		},
	}
}
