// Package export maps stored vacancies onto external report targets.
package export

import (
	"context"
	"fmt"

	"github.com/akarpova/vacancyhub/internal/domain"
)

// RowWriter describes the subset of the sheets client used by the exporter.
type RowWriter interface {
	ClearValues(ctx context.Context, spreadsheetID, range_ string) error
	UpdateValues(ctx context.Context, spreadsheetID, range_ string, values [][]interface{}) error
}

var header = []interface{}{
	"Source", "Title", "Employer", "URL", "Salary From", "Salary To", "Currency", "Published",
}

// SheetsExporter writes vacancy rows into a Google Sheets tab, replacing its
// previous contents.
type SheetsExporter struct {
	writer RowWriter
}

// NewSheetsExporter builds an exporter over a row writer.
func NewSheetsExporter(writer RowWriter) (*SheetsExporter, error) {
	if writer == nil {
		return nil, fmt.Errorf("export: row writer is required")
	}
	return &SheetsExporter{writer: writer}, nil
}

// Export rewrites the tab with a header row plus one row per vacancy and
// returns the number of data rows written.
func (e *SheetsExporter) Export(ctx context.Context, spreadsheetID, tab string, vacancies []domain.Vacancy) (int, error) {
	if spreadsheetID == "" {
		return 0, fmt.Errorf("export: spreadsheet id is required")
	}
	if tab == "" {
		tab = "Vacancies"
	}

	rows := make([][]interface{}, 0, len(vacancies)+1)
	rows = append(rows, header)
	for _, v := range vacancies {
		rows = append(rows, vacancyRow(v))
	}

	rangeRef := tab + "!A1"
	if err := e.writer.ClearValues(ctx, spreadsheetID, tab); err != nil {
		return 0, fmt.Errorf("export: clear tab: %w", err)
	}
	if err := e.writer.UpdateValues(ctx, spreadsheetID, rangeRef, rows); err != nil {
		return 0, fmt.Errorf("export: write rows: %w", err)
	}

	return len(vacancies), nil
}

func vacancyRow(v domain.Vacancy) []interface{} {
	var from, to interface{}
	currency := ""
	if v.Salary != nil {
		from = v.Salary.From
		to = v.Salary.To
		currency = v.Salary.Currency
	}

	published := ""
	if !v.PublishedAt.IsZero() {
		published = v.PublishedAt.Format("2006-01-02")
	}

	return []interface{}{
		v.Source, v.Title, v.Employer.Name, v.URL, from, to, currency, published,
	}
}
