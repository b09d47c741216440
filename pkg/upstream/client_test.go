package upstream_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akarpova/vacancyhub/pkg/upstream"
)

// Story: Rate-Limited Upstream
// A 429 suspends the request and retries once the server-advised pause passes.

func TestClient_RetriesOnceAfterRateLimit(t *testing.T) {
	t.Parallel()

	// Given an upstream that rate-limits the first call
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"found": 3}`))
	}))
	defer srv.Close()

	client, err := upstream.NewClient(upstream.Config{BaseURL: srv.URL})
	require.NoError(t, err)

	// When I issue one Get
	body, err := client.Get(context.Background(), "vacancies", nil)

	// Then the retry succeeds transparently
	require.NoError(t, err)
	assert.JSONEq(t, `{"found": 3}`, string(body))
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestClient_GivesUpAfterThreeRateLimitedAttempts(t *testing.T) {
	t.Parallel()

	// Given an upstream that never stops rate-limiting
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Retry-After", "0")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client, err := upstream.NewClient(upstream.Config{BaseURL: srv.URL})
	require.NoError(t, err)

	// When I issue one Get
	_, err = client.Get(context.Background(), "vacancies", nil)

	// Then the call surfaces the 429 after exactly three network touches
	var se *upstream.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusTooManyRequests, se.Status)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestClient_SurfacesStatusErrorWithBodySnippet(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error": "bad app id"}`))
	}))
	defer srv.Close()

	client, err := upstream.NewClient(upstream.Config{BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = client.Get(context.Background(), "", nil)

	var se *upstream.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusForbidden, se.Status)
	assert.Contains(t, se.Body, "bad app id")
}

func TestClient_TruncatesLongErrorBodies(t *testing.T) {
	t.Parallel()

	long := make([]byte, 1000)
	for i := range long {
		long[i] = 'x'
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write(long)
	}))
	defer srv.Close()

	client, err := upstream.NewClient(upstream.Config{BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = client.Get(context.Background(), "", nil)

	var se *upstream.StatusError
	require.ErrorAs(t, err, &se)
	assert.LessOrEqual(t, len(se.Body), 200)
}

func TestClient_TruncatesErrorBodiesOnRuneBoundaries(t *testing.T) {
	t.Parallel()

	// A Cyrillic body whose byte 200 falls mid-rune: one ASCII byte followed
	// by two-byte runes puts every rune start on an odd offset.
	long := "a" + strings.Repeat("я", 150)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(long))
	}))
	defer srv.Close()

	client, err := upstream.NewClient(upstream.Config{BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = client.Get(context.Background(), "", nil)

	var se *upstream.StatusError
	require.ErrorAs(t, err, &se)
	assert.LessOrEqual(t, len(se.Body), 200)
	assert.True(t, utf8.ValidString(se.Body), "snippet must not end mid-rune")
}

func TestClient_RejectsNonJSONBody(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>maintenance</html>"))
	}))
	defer srv.Close()

	client, err := upstream.NewClient(upstream.Config{BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = client.Get(context.Background(), "", nil)

	var de *upstream.DecodeError
	assert.ErrorAs(t, err, &de)
}

func TestClient_ClassifiesSlowUpstreamAsTimeout(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	client, err := upstream.NewClient(upstream.Config{
		BaseURL: srv.URL,
		Timeout: 50 * time.Millisecond,
	})
	require.NoError(t, err)

	_, err = client.Get(context.Background(), "", nil)

	var te *upstream.TimeoutError
	assert.ErrorAs(t, err, &te)
}

func TestClient_ClassifiesRefusedConnection(t *testing.T) {
	t.Parallel()

	// A server that is already closed refuses the connection.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	client, err := upstream.NewClient(upstream.Config{BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = client.Get(context.Background(), "", nil)

	var ce *upstream.ConnError
	assert.ErrorAs(t, err, &ce)
}

func TestClient_DropsNilParamsAndSendsTheRest(t *testing.T) {
	t.Parallel()

	var query string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.RawQuery
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client, err := upstream.NewClient(upstream.Config{BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = client.Get(context.Background(), "vacancies", upstream.Params{
		"text":     "golang",
		"page":     0,
		"per_page": 50,
		"area":     nil,
	})
	require.NoError(t, err)

	assert.Contains(t, query, "text=golang")
	assert.Contains(t, query, "page=0")
	assert.Contains(t, query, "per_page=50")
	assert.NotContains(t, query, "area")
}

func TestClient_AttachesStaticHeaders(t *testing.T) {
	t.Parallel()

	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client, err := upstream.NewClient(upstream.Config{
		BaseURL: srv.URL,
		Headers: map[string]string{"X-Api-App-Id": "secret", "User-Agent": "vacancyhub/1.0"},
	})
	require.NoError(t, err)

	_, err = client.Get(context.Background(), "", nil)
	require.NoError(t, err)

	assert.Equal(t, "secret", got.Get("X-Api-App-Id"))
	assert.Equal(t, "vacancyhub/1.0", got.Get("User-Agent"))
	assert.Equal(t, "application/json", got.Get("Accept"))
}

// spinner records progress transitions so tests can assert release on every
// exit path.
type spinner struct {
	starts int32
	stops  int32
}

func (s *spinner) Start() { atomic.AddInt32(&s.starts, 1) }
func (s *spinner) Stop()  { atomic.AddInt32(&s.stops, 1) }

func TestClient_ReleasesProgressOnSuccessAndFailure(t *testing.T) {
	t.Parallel()

	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			_, _ = w.Write([]byte(`{}`))
			return
		}
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	sp := &spinner{}
	client, err := upstream.NewClient(upstream.Config{BaseURL: srv.URL, Progress: sp})
	require.NoError(t, err)

	_, err = client.Get(context.Background(), "", nil)
	require.NoError(t, err)

	_, err = client.Get(context.Background(), "", nil)
	require.Error(t, err)

	// One Start/Stop pair per Get, regardless of outcome.
	assert.Equal(t, int32(2), atomic.LoadInt32(&sp.starts))
	assert.Equal(t, int32(2), atomic.LoadInt32(&sp.stops))
}

func TestClient_HonorsCancelledContextDuringRetryPause(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client, err := upstream.NewClient(upstream.Config{BaseURL: srv.URL})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err = client.Get(ctx, "", nil)

	// Then cancellation wins over the 30s pause
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestNewClient_RequiresBaseURL(t *testing.T) {
	t.Parallel()

	_, err := upstream.NewClient(upstream.Config{})
	assert.Error(t, err)
}
