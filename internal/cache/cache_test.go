package cache_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akarpova/vacancyhub/internal/cache"
	"github.com/akarpova/vacancyhub/pkg/logging"
	"github.com/akarpova/vacancyhub/pkg/upstream"
)

// fakeGetter counts upstream calls and plays back a scripted response.
type fakeGetter struct {
	calls int32
	body  []byte
	err   error
}

func (g *fakeGetter) Get(_ context.Context, _ string, _ upstream.Params) ([]byte, error) {
	atomic.AddInt32(&g.calls, 1)
	if g.err != nil {
		return nil, g.err
	}
	return g.body, nil
}

// Story: Read-Through Cache
// The first fetch pays the network cost, repeats within the freshness window
// are free, and failures are never remembered.

func TestCache_SecondFetchSkipsUpstream(t *testing.T) {
	t.Parallel()

	getter := &fakeGetter{body: []byte(`{"found": 5}`)}
	c, err := cache.New("hh", cache.NewMemory(time.Hour), getter, logging.Nop())
	require.NoError(t, err)

	ctx := context.Background()
	params := upstream.Params{"text": "golang", "page": 0}

	first, err := c.Fetch(ctx, "vacancies", params)
	require.NoError(t, err)

	second, err := c.Fetch(ctx, "vacancies", params)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), atomic.LoadInt32(&getter.calls))
}

func TestCache_FailedCallIsNotCached(t *testing.T) {
	t.Parallel()

	getter := &fakeGetter{err: errors.New("upstream down")}
	c, err := cache.New("hh", cache.NewMemory(time.Hour), getter, logging.Nop())
	require.NoError(t, err)

	ctx := context.Background()
	params := upstream.Params{"text": "golang"}

	_, err = c.Fetch(ctx, "vacancies", params)
	require.Error(t, err)

	// Once the upstream recovers the next fetch goes back to the network.
	getter.err = nil
	getter.body = []byte(`{"found": 1}`)

	body, err := c.Fetch(ctx, "vacancies", params)
	require.NoError(t, err)
	assert.JSONEq(t, `{"found": 1}`, string(body))
	assert.Equal(t, int32(2), atomic.LoadInt32(&getter.calls))
}

func TestCache_DifferentParamsFetchSeparately(t *testing.T) {
	t.Parallel()

	getter := &fakeGetter{body: []byte(`{}`)}
	c, err := cache.New("hh", cache.NewMemory(time.Hour), getter, logging.Nop())
	require.NoError(t, err)

	ctx := context.Background()

	_, err = c.Fetch(ctx, "vacancies", upstream.Params{"page": 0})
	require.NoError(t, err)
	_, err = c.Fetch(ctx, "vacancies", upstream.Params{"page": 1})
	require.NoError(t, err)

	assert.Equal(t, int32(2), atomic.LoadInt32(&getter.calls))
}

// slowGetter holds every call open long enough for concurrent fetches to pile
// up behind the first one.
type slowGetter struct {
	calls int32
	body  []byte
	delay time.Duration
}

func (g *slowGetter) Get(_ context.Context, _ string, _ upstream.Params) ([]byte, error) {
	atomic.AddInt32(&g.calls, 1)
	time.Sleep(g.delay)
	return g.body, nil
}

func TestCache_ConcurrentFetchesShareOneUpstreamCall(t *testing.T) {
	t.Parallel()

	getter := &slowGetter{body: []byte(`{"found": 5}`), delay: 200 * time.Millisecond}
	c, err := cache.New("hh", cache.NewMemory(time.Hour), getter, logging.Nop())
	require.NoError(t, err)

	ctx := context.Background()
	params := upstream.Params{"text": "golang"}

	const fetchers = 10
	var wg sync.WaitGroup
	bodies := make([][]byte, fetchers)
	errs := make([]error, fetchers)

	for i := 0; i < fetchers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			bodies[i], errs[i] = c.Fetch(ctx, "vacancies", params)
		}(i)
	}
	wg.Wait()

	// Everyone rode the first call; nobody hit the upstream again.
	assert.Equal(t, int32(1), atomic.LoadInt32(&getter.calls))
	for i := 0; i < fetchers; i++ {
		require.NoError(t, errs[i])
		assert.JSONEq(t, `{"found": 5}`, string(bodies[i]))
	}
}

func TestCache_InvalidateForcesRefetch(t *testing.T) {
	t.Parallel()

	getter := &fakeGetter{body: []byte(`{"found": 5}`)}
	c, err := cache.New("hh", cache.NewMemory(time.Hour), getter, logging.Nop())
	require.NoError(t, err)

	ctx := context.Background()
	params := upstream.Params{"text": "golang"}

	_, err = c.Fetch(ctx, "vacancies", params)
	require.NoError(t, err)

	require.NoError(t, c.Invalidate(ctx))

	_, err = c.Fetch(ctx, "vacancies", params)
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&getter.calls))
}

func TestNew_ValidatesDependencies(t *testing.T) {
	t.Parallel()

	store := cache.NewMemory(time.Hour)
	getter := &fakeGetter{}

	_, err := cache.New("", store, getter, logging.Nop())
	assert.Error(t, err)

	_, err = cache.New("hh", nil, getter, logging.Nop())
	assert.Error(t, err)

	_, err = cache.New("hh", store, nil, logging.Nop())
	assert.Error(t, err)
}
