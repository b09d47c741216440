package vacancy

import (
	"strings"

	"github.com/akarpova/vacancyhub/internal/domain"
)

// Dedupe collapses records that describe the same listing. The surviving
// representative keeps the position of its first occurrence; later duplicates
// only contribute fields the survivor is missing. Dedupe is idempotent.
func Dedupe(records []domain.Vacancy) []domain.Vacancy {
	if len(records) == 0 {
		return records
	}

	out := make([]domain.Vacancy, 0, len(records))
	index := make(map[string]int, len(records))

	for _, r := range records {
		key := dedupeKey(r)
		if i, ok := index[key]; ok {
			merge(&out[i], r)
			continue
		}
		index[key] = len(out)
		out = append(out, r)
	}

	return out
}

// dedupeKey prefers the provider-native identity; when absent it falls back
// to a normalized composite of title and employer.
func dedupeKey(v domain.Vacancy) string {
	if v.ExternalID != "" {
		return v.Source + "\x00" + v.ExternalID
	}

	employer := v.Employer.ID
	if employer == "" {
		employer = normalize(v.Employer.Name)
	}
	return normalize(v.Title) + "\x00" + employer
}

// merge fills the survivor's empty fields from a later duplicate. Populated
// fields are never overwritten.
func merge(dst *domain.Vacancy, src domain.Vacancy) {
	if dst.Salary == nil {
		dst.Salary = src.Salary
	}
	if dst.Snippet == "" {
		dst.Snippet = src.Snippet
	}
	if dst.Employer.ID == "" {
		dst.Employer.ID = src.Employer.ID
	}
	if dst.Employer.Name == "" {
		dst.Employer.Name = src.Employer.Name
	}
	if dst.PublishedAt.IsZero() {
		dst.PublishedAt = src.PublishedAt
	}
}

// normalize lowercases and collapses runs of whitespace to single spaces.
func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
