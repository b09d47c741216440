package vacancy_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akarpova/vacancyhub/internal/domain"
	"github.com/akarpova/vacancyhub/internal/domain/vacancy"
	"github.com/akarpova/vacancyhub/pkg/logging"
)

// stubProvider serves one fixed page of records, or fails every call.
type stubProvider struct {
	name        string
	records     []domain.Vacancy
	pageErr     error
	invalidated int
}

func (p *stubProvider) Name() string  { return p.name }
func (p *stubProvider) PageSize() int { return 50 }

func (p *stubProvider) Page(_ context.Context, _ string, page int, _ domain.SearchFilters) (domain.PageResult, error) {
	if p.pageErr != nil {
		return domain.PageResult{}, p.pageErr
	}
	if page > 0 {
		return domain.PageResult{Found: len(p.records)}, nil
	}
	return domain.PageResult{Records: p.records, Found: len(p.records)}, nil
}

func (p *stubProvider) InvalidateCache(context.Context) error {
	p.invalidated++
	return nil
}

// recordingRepo captures what the service hands to storage.
type recordingRepo struct {
	upserted [][]domain.Vacancy
	err      error
}

func (r *recordingRepo) UpsertVacancies(_ context.Context, vacancies []domain.Vacancy) error {
	if r.err != nil {
		return r.err
	}
	r.upserted = append(r.upserted, vacancies)
	return nil
}

func newTestService(t *testing.T, repo vacancy.Repository, providers ...vacancy.Provider) vacancy.Service {
	t.Helper()
	svc, err := vacancy.NewService(
		vacancy.WithRepository(repo),
		vacancy.WithProviders(providers...),
		vacancy.WithPaginator(vacancy.NewPaginator(20, logging.Nop())),
		vacancy.WithLogger(logging.Nop()),
	)
	require.NoError(t, err)
	return svc
}

// Story: Degraded Fan-Out
// One dark provider never silences the others; a query that fails everywhere
// still answers, just with nothing in it.

func TestSearch_SurvivesOneFailingProvider(t *testing.T) {
	t.Parallel()

	healthy := &stubProvider{name: "hh", records: []domain.Vacancy{
		{Source: "hh", ExternalID: "1", Title: "Go Developer", URL: "https://hh.ru/1"},
	}}
	dark := &stubProvider{name: "superjob", pageErr: errors.New("auth rejected")}

	repo := &recordingRepo{}
	svc := newTestService(t, repo, healthy, dark)

	res, err := svc.Search(context.Background(), "golang", nil, domain.SearchFilters{})

	require.NoError(t, err)
	require.Len(t, res.Vacancies, 1)
	assert.Equal(t, "hh", res.Vacancies[0].Source)
	assert.Equal(t, 1, res.SourceCount)
}

func TestSearch_AllProvidersDarkYieldsEmptyResultNotError(t *testing.T) {
	t.Parallel()

	a := &stubProvider{name: "hh", pageErr: errors.New("down")}
	b := &stubProvider{name: "superjob", pageErr: errors.New("down")}

	repo := &recordingRepo{}
	svc := newTestService(t, repo, a, b)

	res, err := svc.Search(context.Background(), "golang", nil, domain.SearchFilters{})

	require.NoError(t, err)
	assert.Empty(t, res.Vacancies)
	assert.Zero(t, res.SourceCount)
	assert.Empty(t, repo.upserted, "nothing to store when every source is dark")
}

func TestSearch_RespectsCallerSourceOrder(t *testing.T) {
	t.Parallel()

	hh := &stubProvider{name: "hh", records: []domain.Vacancy{
		{Source: "hh", ExternalID: "1", Title: "A", URL: "https://hh.ru/1"},
	}}
	sj := &stubProvider{name: "superjob", records: []domain.Vacancy{
		{Source: "superjob", ExternalID: "2", Title: "B", URL: "https://superjob.ru/2"},
	}}

	svc := newTestService(t, &recordingRepo{}, hh, sj)

	res, err := svc.Search(context.Background(), "golang", []string{"superjob", "hh"}, domain.SearchFilters{})

	require.NoError(t, err)
	require.Len(t, res.Vacancies, 2)
	assert.Equal(t, "superjob", res.Vacancies[0].Source)
	assert.Equal(t, "hh", res.Vacancies[1].Source)
}

func TestSearch_SkipsUnknownSources(t *testing.T) {
	t.Parallel()

	hh := &stubProvider{name: "hh", records: []domain.Vacancy{
		{Source: "hh", ExternalID: "1", Title: "A", URL: "https://hh.ru/1"},
	}}

	svc := newTestService(t, &recordingRepo{}, hh)

	res, err := svc.Search(context.Background(), "golang", []string{"linkedin", "hh"}, domain.SearchFilters{})

	require.NoError(t, err)
	assert.Len(t, res.Vacancies, 1)
}

func TestSearch_CapsSources(t *testing.T) {
	t.Parallel()

	hh := &stubProvider{name: "hh", records: []domain.Vacancy{
		{Source: "hh", ExternalID: "1", Title: "A", URL: "https://hh.ru/1"},
	}}
	sj := &stubProvider{name: "superjob", records: []domain.Vacancy{
		{Source: "superjob", ExternalID: "2", Title: "B", URL: "https://superjob.ru/2"},
	}}

	svc, err := vacancy.NewService(
		vacancy.WithRepository(&recordingRepo{}),
		vacancy.WithProviders(hh, sj),
		vacancy.WithPaginator(vacancy.NewPaginator(20, logging.Nop())),
		vacancy.WithMaxSources(1),
	)
	require.NoError(t, err)

	res, err := svc.Search(context.Background(), "golang", nil, domain.SearchFilters{})

	require.NoError(t, err)
	require.Len(t, res.Vacancies, 1)
	assert.Equal(t, "hh", res.Vacancies[0].Source, "cap keeps the first configured source")
}

func TestSearch_DeduplicatesAcrossSourcesAndStoresOnce(t *testing.T) {
	t.Parallel()

	hh := &stubProvider{name: "hh", records: []domain.Vacancy{
		{Source: "hh", Title: "Go Developer", Employer: domain.EmployerRef{Name: "Acme"}},
		{Source: "hh", ExternalID: "1", Title: "Backend Engineer", Employer: domain.EmployerRef{Name: "Acme"}},
	}}
	sj := &stubProvider{name: "superjob", records: []domain.Vacancy{
		{Source: "superjob", Title: "Go  developer", Employer: domain.EmployerRef{Name: "acme"}},
	}}

	repo := &recordingRepo{}
	svc := newTestService(t, repo, hh, sj)

	res, err := svc.Search(context.Background(), "golang", nil, domain.SearchFilters{})

	require.NoError(t, err)
	require.Len(t, repo.upserted, 1)
	assert.Len(t, repo.upserted[0], 2, "the cross-source duplicate collapses before storage")
	assert.Len(t, res.Vacancies, 2)

	// Every stored record is stamped with an identity and fetch time.
	for _, v := range repo.upserted[0] {
		assert.NotZero(t, v.ID)
		assert.False(t, v.FetchedAt.IsZero())
	}
}

func TestSearch_RequiresQuery(t *testing.T) {
	t.Parallel()

	hh := &stubProvider{name: "hh"}
	svc := newTestService(t, &recordingRepo{}, hh)

	_, err := svc.Search(context.Background(), "", nil, domain.SearchFilters{})
	assert.Error(t, err)
}

func TestSearch_PropagatesStorageFailure(t *testing.T) {
	t.Parallel()

	hh := &stubProvider{name: "hh", records: []domain.Vacancy{
		{Source: "hh", ExternalID: "1", Title: "A", URL: "https://hh.ru/1"},
	}}
	repo := &recordingRepo{err: errors.New("neo4j unavailable")}
	svc := newTestService(t, repo, hh)

	_, err := svc.Search(context.Background(), "golang", nil, domain.SearchFilters{})
	assert.Error(t, err)
}

// Story: Cache Control
// Cache invalidation targets one source, or all of them.

func TestClearCache_SingleSource(t *testing.T) {
	t.Parallel()

	hh := &stubProvider{name: "hh"}
	sj := &stubProvider{name: "superjob"}
	svc := newTestService(t, &recordingRepo{}, hh, sj)

	require.NoError(t, svc.ClearCache(context.Background(), "hh"))

	assert.Equal(t, 1, hh.invalidated)
	assert.Zero(t, sj.invalidated)
}

func TestClearCache_AllSources(t *testing.T) {
	t.Parallel()

	hh := &stubProvider{name: "hh"}
	sj := &stubProvider{name: "superjob"}
	svc := newTestService(t, &recordingRepo{}, hh, sj)

	require.NoError(t, svc.ClearCache(context.Background(), ""))

	assert.Equal(t, 1, hh.invalidated)
	assert.Equal(t, 1, sj.invalidated)
}

func TestClearCache_UnknownSource(t *testing.T) {
	t.Parallel()

	hh := &stubProvider{name: "hh"}
	svc := newTestService(t, &recordingRepo{}, hh)

	assert.Error(t, svc.ClearCache(context.Background(), "linkedin"))
}

func TestNewService_ValidatesDependencies(t *testing.T) {
	t.Parallel()

	paginator := vacancy.NewPaginator(20, logging.Nop())

	_, err := vacancy.NewService(
		vacancy.WithProviders(&stubProvider{name: "hh"}),
		vacancy.WithPaginator(paginator),
	)
	assert.Error(t, err, "repository is required")

	_, err = vacancy.NewService(
		vacancy.WithRepository(&recordingRepo{}),
		vacancy.WithPaginator(paginator),
	)
	assert.Error(t, err, "at least one provider is required")

	_, err = vacancy.NewService(
		vacancy.WithRepository(&recordingRepo{}),
		vacancy.WithProviders(&stubProvider{name: "hh"}),
	)
	assert.Error(t, err, "paginator is required")
}
