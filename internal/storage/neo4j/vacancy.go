package neo4j

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/akarpova/vacancyhub/internal/domain"
	"github.com/akarpova/vacancyhub/internal/domain/vacancy"

	pkgneo4j "github.com/akarpova/vacancyhub/pkg/neo4j"
)

// Ensure VacancyRepository implements vacancy.Repository
var _ vacancy.Repository = (*VacancyRepository)(nil)

// VacancyRepository persists vacancies in Neo4j
type VacancyRepository struct {
	client *pkgneo4j.Client
}

// NewVacancyRepository creates a VacancyRepository with a Neo4j client
func NewVacancyRepository(client *pkgneo4j.Client) *VacancyRepository {
	return &VacancyRepository{
		client: client,
	}
}

// UpsertVacancies merges vacancy data keyed on (source, externalId)
func (r *VacancyRepository) UpsertVacancies(ctx context.Context, vacancies []domain.Vacancy) error {
	if len(vacancies) == 0 {
		return nil
	}

	session := r.client.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	query := `
		UNWIND $vacancies AS v
		MERGE (n:Vacancy {source: v.source, externalId: v.externalId})
		SET n.id = v.id,
		    n.title = v.title,
		    n.url = v.url,
		    n.snippet = v.snippet,
		    n.salaryFrom = v.salaryFrom,
		    n.salaryTo = v.salaryTo,
		    n.salaryCurrency = v.salaryCurrency,
		    n.salaryGross = v.salaryGross,
		    n.publishedAt = datetime({epochMillis: v.publishedAt}),
		    n.fetchedAt = datetime({epochMillis: v.fetchedAt})
		WITH n, v
		MERGE (e:Employer {name: v.employer.name})
		SET e.nativeId = v.employer.id
		MERGE (n)-[:POSTED_BY]->(e)
	`

	data := make([]map[string]interface{}, 0, len(vacancies))
	for _, v := range vacancies {
		row := map[string]interface{}{
			"id":         v.ID.String(),
			"source":     v.Source,
			"externalId": v.ExternalID,
			"title":      v.Title,
			"url":        v.URL,
			"snippet":    v.Snippet,
			"employer": map[string]interface{}{
				"id":   v.Employer.ID,
				"name": v.Employer.Name,
			},
			"publishedAt": v.PublishedAt.UnixMilli(),
			"fetchedAt":   v.FetchedAt.UnixMilli(),
		}

		if v.Salary != nil {
			row["salaryFrom"] = v.Salary.From
			row["salaryTo"] = v.Salary.To
			row["salaryCurrency"] = v.Salary.Currency
			row["salaryGross"] = v.Salary.Gross
		}

		data = append(data, row)
	}

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, query, map[string]interface{}{"vacancies": data})
		if err != nil {
			return nil, err
		}
		return result.Consume(ctx)
	})

	return err
}

// EmployersWithVacancyCount lists employers ordered by stored vacancy count
func (r *VacancyRepository) EmployersWithVacancyCount(ctx context.Context) ([]domain.EmployerVacancyCount, error) {
	session := r.client.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	query := `
		MATCH (v:Vacancy)-[:POSTED_BY]->(e:Employer)
		RETURN e.name AS employer, count(v) AS vacancies
		ORDER BY vacancies DESC, employer
	`

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, nil)
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return nil, err
	}

	records := result.([]*neo4j.Record)
	out := make([]domain.EmployerVacancyCount, 0, len(records))
	for _, rec := range records {
		name, _ := rec.Get("employer")
		count, _ := rec.Get("vacancies")

		nameStr, ok := name.(string)
		if !ok {
			continue
		}
		countInt, ok := count.(int64)
		if !ok {
			continue
		}

		out = append(out, domain.EmployerVacancyCount{
			Employer: nameStr,
			Count:    int(countInt),
		})
	}

	return out, nil
}

// AverageSalary returns the mean of the stored salary midpoints
func (r *VacancyRepository) AverageSalary(ctx context.Context) (float64, error) {
	session := r.client.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	query := `
		MATCH (v:Vacancy)
		WHERE v.salaryFrom > 0 OR v.salaryTo > 0
		WITH CASE
			WHEN v.salaryFrom > 0 AND v.salaryTo > 0 THEN (v.salaryFrom + v.salaryTo) / 2.0
			WHEN v.salaryFrom > 0 THEN toFloat(v.salaryFrom)
			ELSE toFloat(v.salaryTo)
		END AS midpoint
		RETURN avg(midpoint) AS average
	`

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, nil)
		if err != nil {
			return nil, err
		}
		rec, err := res.Single(ctx)
		if err != nil {
			return nil, err
		}
		return rec, nil
	})
	if err != nil {
		return 0, err
	}

	avg, _ := result.(*neo4j.Record).Get("average")
	avgFloat, ok := avg.(float64)
	if !ok {
		return 0, nil
	}

	return avgFloat, nil
}

// WithHigherSalary returns stored vacancies whose salary midpoint is above
// the average across all stored vacancies
func (r *VacancyRepository) WithHigherSalary(ctx context.Context) ([]domain.Vacancy, error) {
	query := `
		MATCH (v:Vacancy)
		WHERE v.salaryFrom > 0 OR v.salaryTo > 0
		WITH v, CASE
			WHEN v.salaryFrom > 0 AND v.salaryTo > 0 THEN (v.salaryFrom + v.salaryTo) / 2.0
			WHEN v.salaryFrom > 0 THEN toFloat(v.salaryFrom)
			ELSE toFloat(v.salaryTo)
		END AS midpoint
		WITH collect({node: v, midpoint: midpoint}) AS rows, avg(midpoint) AS average
		UNWIND rows AS row
		WITH row.node AS v, row.midpoint AS midpoint, average
		WHERE midpoint > average
		OPTIONAL MATCH (v)-[:POSTED_BY]->(e:Employer)
		RETURN v, e
		ORDER BY midpoint DESC
	`

	return r.queryVacancies(ctx, query, nil)
}

// WithKeyword returns stored vacancies whose title or snippet mentions the keyword
func (r *VacancyRepository) WithKeyword(ctx context.Context, keyword string) ([]domain.Vacancy, error) {
	query := `
		MATCH (v:Vacancy)
		WHERE toLower(v.title) CONTAINS toLower($keyword)
		   OR toLower(coalesce(v.snippet, '')) CONTAINS toLower($keyword)
		OPTIONAL MATCH (v)-[:POSTED_BY]->(e:Employer)
		RETURN v, e
		ORDER BY v.fetchedAt DESC
	`

	return r.queryVacancies(ctx, query, map[string]interface{}{"keyword": keyword})
}

func (r *VacancyRepository) queryVacancies(ctx context.Context, query string, params map[string]interface{}) ([]domain.Vacancy, error) {
	session := r.client.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return nil, err
	}

	records := result.([]*neo4j.Record)
	vacancies := make([]domain.Vacancy, 0, len(records))

	for _, rec := range records {
		nodeVal, ok := rec.Get("v")
		if !ok {
			continue
		}
		node, ok := nodeVal.(neo4j.Node)
		if !ok {
			continue
		}

		v := vacancyFromProps(node.Props)

		if empVal, ok := rec.Get("e"); ok {
			if empNode, ok := empVal.(neo4j.Node); ok {
				if name, ok := empNode.Props["name"].(string); ok {
					v.Employer.Name = name
				}
				if nativeID, ok := empNode.Props["nativeId"].(string); ok {
					v.Employer.ID = nativeID
				}
			}
		}

		vacancies = append(vacancies, v)
	}

	return vacancies, nil
}

func vacancyFromProps(props map[string]any) domain.Vacancy {
	v := domain.Vacancy{}

	if id, ok := props["id"].(string); ok {
		if parsed, err := uuid.Parse(id); err == nil {
			v.ID = parsed
		}
	}
	if s, ok := props["source"].(string); ok {
		v.Source = s
	}
	if s, ok := props["externalId"].(string); ok {
		v.ExternalID = s
	}
	if s, ok := props["title"].(string); ok {
		v.Title = s
	}
	if s, ok := props["url"].(string); ok {
		v.URL = s
	}
	if s, ok := props["snippet"].(string); ok {
		v.Snippet = s
	}

	from, hasFrom := asInt(props["salaryFrom"])
	to, hasTo := asInt(props["salaryTo"])
	if hasFrom || hasTo {
		salary := &domain.SalaryRange{From: from, To: to}
		if cur, ok := props["salaryCurrency"].(string); ok {
			salary.Currency = cur
		}
		if gross, ok := props["salaryGross"].(bool); ok {
			salary.Gross = gross
		}
		v.Salary = salary
	}

	v.PublishedAt = asTime(props["publishedAt"])
	v.FetchedAt = asTime(props["fetchedAt"])

	return v
}

func asInt(val any) (int, bool) {
	switch n := val.(type) {
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}

func asTime(val any) time.Time {
	switch t := val.(type) {
	case time.Time:
		return t
	case neo4j.LocalDateTime:
		return t.Time()
	default:
		return time.Time{}
	}
}
