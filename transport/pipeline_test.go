package transport_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-taskmaster/session"
	"github.com/jrsteele09/go-taskmaster/tokenstore"
	"github.com/jrsteele09/go-taskmaster/tokenstore/storefakes"
	"github.com/jrsteele09/go-taskmaster/transport"
)

const (
	staleToken   = "stale-access-token"
	freshToken   = "fresh-access-token"
	refreshToken = "refresh-token-1"
)

type pipelineFixture struct {
	store    *storefakes.FakeStore
	session  *session.Service
	metrics  *transport.Metrics
	client   *http.Client
	backend  *httptest.Server
	redirect struct {
		mu      sync.Mutex
		targets []string
	}

	refreshCalls   atomic.Int32
	refreshDelay   time.Duration
	refreshBroken  bool
	protectedCalls atomic.Int32
}

// setupPipelineFixture wires a fake backend whose protected endpoint accepts
// only freshToken, plus a refresh endpoint exchanging refreshToken for it.
func setupPipelineFixture(t *testing.T) *pipelineFixture {
	t.Helper()

	f := &pipelineFixture{store: storefakes.NewFakeStore()}

	mux := http.NewServeMux()
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		f.refreshCalls.Add(1)
		if f.refreshDelay > 0 {
			time.Sleep(f.refreshDelay)
		}
		var body struct {
			RefreshToken string `json:"refreshToken"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		if f.refreshBroken || body.RefreshToken != refreshToken {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"accessToken": freshToken})
	})
	mux.HandleFunc("/protected", func(w http.ResponseWriter, r *http.Request) {
		f.protectedCalls.Add(1)
		if r.Header.Get("Authorization") != "Bearer "+freshToken {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	f.backend = httptest.NewServer(mux)
	t.Cleanup(f.backend.Close)

	sess, err := session.New(f.store, session.WithNavigator(func(target string) {
		f.redirect.mu.Lock()
		defer f.redirect.mu.Unlock()
		f.redirect.targets = append(f.redirect.targets, target)
	}))
	require.NoError(t, err)
	f.session = sess

	f.metrics = transport.NewMetrics(nil)
	pipeline, err := transport.NewPipeline(f.backend.URL, f.store, sess,
		transport.WithMetrics(f.metrics))
	require.NoError(t, err)

	f.client = &http.Client{Transport: pipeline}
	return f
}

func (f *pipelineFixture) redirects() []string {
	f.redirect.mu.Lock()
	defer f.redirect.mu.Unlock()
	return append([]string(nil), f.redirect.targets...)
}

func (f *pipelineFixture) get(t *testing.T, path string) *http.Response {
	t.Helper()
	resp, err := f.client.Get(f.backend.URL + path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestBearerHeaderAttachedWhenTokenPresent(t *testing.T) {
	f := setupPipelineFixture(t)
	require.NoError(t, f.store.Set(tokenstore.KindAccessToken, freshToken))

	var seen string
	mux := http.NewServeMux()
	mux.HandleFunc("/echo", func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Get("Authorization")
		require.NotEmpty(t, r.Header.Get("X-Request-ID"))
	})
	echo := httptest.NewServer(mux)
	defer echo.Close()

	resp, err := f.client.Get(echo.URL + "/echo")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, "Bearer "+freshToken, seen)
}

func TestNoTokenProceedsUnauthenticated(t *testing.T) {
	f := setupPipelineFixture(t)

	var seen []string
	mux := http.NewServeMux()
	mux.HandleFunc("/echo", func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Values("Authorization")
	})
	echo := httptest.NewServer(mux)
	defer echo.Close()

	resp, err := f.client.Get(echo.URL + "/echo")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Empty(t, seen)
}

func TestExpiredTokenRefreshedAndRetriedOnce(t *testing.T) {
	f := setupPipelineFixture(t)
	require.NoError(t, f.store.Set(tokenstore.KindAccessToken, staleToken))
	require.NoError(t, f.store.Set(tokenstore.KindRefreshToken, refreshToken))

	resp := f.get(t, "/protected")

	// Recovery is invisible to the caller.
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.JSONEq(t, `{"ok":true}`, string(body))

	require.Equal(t, int32(1), f.refreshCalls.Load())
	require.Equal(t, int32(2), f.protectedCalls.Load())

	// The new access token is stored, the refresh token is not rotated.
	access, err := f.store.Get(tokenstore.KindAccessToken)
	require.NoError(t, err)
	require.Equal(t, freshToken, access)
	refresh, err := f.store.Get(tokenstore.KindRefreshToken)
	require.NoError(t, err)
	require.Equal(t, refreshToken, refresh)

	require.Equal(t, float64(1), testutil.ToFloat64(f.metrics.RefreshAttempts()))
	require.Equal(t, float64(1), testutil.ToFloat64(f.metrics.Retries()))
	require.Equal(t, float64(0), testutil.ToFloat64(f.metrics.RefreshFailures()))
}

func TestSecond401PropagatesWithoutSecondRefresh(t *testing.T) {
	f := setupPipelineFixture(t)
	require.NoError(t, f.store.Set(tokenstore.KindAccessToken, staleToken))
	require.NoError(t, f.store.Set(tokenstore.KindRefreshToken, refreshToken))

	always401 := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer always401.Close()

	resp, err := f.client.Get(always401.URL + "/stubborn")
	require.NoError(t, err)
	defer resp.Body.Close()

	// Refresh succeeded but the retry 401'd again: propagate, do not loop,
	// and do not tear the session down.
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, int32(1), f.refreshCalls.Load())
	require.Equal(t, 2, f.store.Len())
	require.Empty(t, f.redirects())
}

func TestRefreshFailureTearsDownSession(t *testing.T) {
	f := setupPipelineFixture(t)
	require.NoError(t, f.store.Set(tokenstore.KindAccessToken, staleToken))
	require.NoError(t, f.store.Set(tokenstore.KindRefreshToken, refreshToken))
	f.refreshBroken = true

	resp := f.get(t, "/protected")

	// The caller still gets a visible rejection, never a hang.
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, int32(1), f.refreshCalls.Load())
	require.Equal(t, int32(1), f.protectedCalls.Load())

	require.False(t, f.session.IsAuthenticated())
	require.Nil(t, f.session.CurrentUser())
	require.Equal(t, 0, f.store.Len())
	require.Equal(t, []string{"/login"}, f.redirects())

	require.Equal(t, float64(1), testutil.ToFloat64(f.metrics.RefreshFailures()))
}

func TestMissingRefreshTokenIsUnrecoverable(t *testing.T) {
	f := setupPipelineFixture(t)
	require.NoError(t, f.store.Set(tokenstore.KindAccessToken, staleToken))

	resp := f.get(t, "/protected")

	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	// No refresh token means no refresh call at all.
	require.Equal(t, int32(0), f.refreshCalls.Load())
	require.False(t, f.session.IsAuthenticated())
	require.Equal(t, []string{"/login"}, f.redirects())
}

func TestAnonymous401PassesThrough(t *testing.T) {
	f := setupPipelineFixture(t)

	// No stored tokens: nothing to refresh, nothing to tear down.
	resp := f.get(t, "/protected")

	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, int32(0), f.refreshCalls.Load())
	require.Empty(t, f.redirects())
}

func TestConcurrent401sShareOneRefresh(t *testing.T) {
	f := setupPipelineFixture(t)
	require.NoError(t, f.store.Set(tokenstore.KindAccessToken, staleToken))
	require.NoError(t, f.store.Set(tokenstore.KindRefreshToken, refreshToken))
	f.refreshDelay = 200 * time.Millisecond

	const workers = 5
	statuses := make(chan int, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := f.client.Get(f.backend.URL + "/protected")
			if err != nil {
				statuses <- -1
				return
			}
			defer resp.Body.Close()
			statuses <- resp.StatusCode
		}()
	}
	wg.Wait()
	close(statuses)
	for status := range statuses {
		require.Equal(t, http.StatusOK, status)
	}

	// All five 401'd while the refresh was in flight; one exchange serves all.
	require.Equal(t, int32(1), f.refreshCalls.Load())
}

func TestRetryObservesNewTokenNotStoreState(t *testing.T) {
	f := setupPipelineFixture(t)
	require.NoError(t, f.store.Set(tokenstore.KindAccessToken, staleToken))
	require.NoError(t, f.store.Set(tokenstore.KindRefreshToken, refreshToken))

	resp := f.get(t, "/protected")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// The store write happened before the retry was issued.
	access, err := f.store.Get(tokenstore.KindAccessToken)
	require.NoError(t, err)
	require.Equal(t, freshToken, access)
}
