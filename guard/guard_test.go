package guard_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-taskmaster/guard"
	interrors "github.com/jrsteele09/go-taskmaster/internal/errors"
	"github.com/jrsteele09/go-taskmaster/session"
	"github.com/jrsteele09/go-taskmaster/tokenstore"
	"github.com/jrsteele09/go-taskmaster/tokenstore/storefakes"
)

type testFixture struct {
	store   *storefakes.FakeStore
	session *session.Service
	guard   *guard.Guard

	mu        sync.Mutex
	redirects []string
}

func setupTestFixture(t *testing.T, options ...guard.GuardOption) *testFixture {
	t.Helper()

	f := &testFixture{store: storefakes.NewFakeStore()}

	sess, err := session.New(f.store)
	require.NoError(t, err)
	f.session = sess

	g, err := guard.New(sess, func(target string) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.redirects = append(f.redirects, target)
	}, options...)
	require.NoError(t, err)
	f.guard = g
	return f
}

func (f *testFixture) redirectTargets() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.redirects...)
}

func TestRequireDeniesAnonymousSession(t *testing.T) {
	f := setupTestFixture(t)

	require.False(t, f.guard.Allowed())
	err := f.guard.Require()
	require.ErrorIs(t, err, interrors.ErrNotAuthenticated)
	require.Equal(t, []string{"/login"}, f.redirectTargets())
}

func TestRequireAllowsAuthenticatedSession(t *testing.T) {
	f := setupTestFixture(t)
	require.NoError(t, f.session.SetTokens("access", "refresh"))

	require.True(t, f.guard.Allowed())
	require.NoError(t, f.guard.Require())
	require.Empty(t, f.redirectTargets())
}

func TestGuardHonoursHydratedSession(t *testing.T) {
	store := storefakes.NewFakeStore()
	require.NoError(t, store.Set(tokenstore.KindAccessToken, "access"))

	sess, err := session.New(store)
	require.NoError(t, err)
	g, err := guard.New(sess, nil)
	require.NoError(t, err)

	// A stored token from a previous run is enough to pass the gate.
	require.True(t, g.Allowed())
	require.NoError(t, g.Require())
}

func TestNilRedirectIsAllowed(t *testing.T) {
	store := storefakes.NewFakeStore()
	sess, err := session.New(store)
	require.NoError(t, err)

	g, err := guard.New(sess, nil)
	require.NoError(t, err)
	require.ErrorIs(t, g.Require(), interrors.ErrNotAuthenticated)
}

func TestLoginBoundaryOption(t *testing.T) {
	f := setupTestFixture(t, guard.WithLoginBoundary("/signin"))

	require.Error(t, f.guard.Require())
	require.Equal(t, []string{"/signin"}, f.redirectTargets())
}

func TestDeniedEntryPointMakesNoBackendCalls(t *testing.T) {
	f := setupTestFixture(t)

	var backendCalls int
	fetchProtected := func() error {
		if err := f.guard.Require(); err != nil {
			return err
		}
		backendCalls++
		return nil
	}

	require.ErrorIs(t, fetchProtected(), interrors.ErrNotAuthenticated)
	require.Zero(t, backendCalls)

	require.NoError(t, f.session.SetTokens("access", "refresh"))
	require.NoError(t, fetchProtected())
	require.Equal(t, 1, backendCalls)
}

func TestWatchRedirectsOnRevocation(t *testing.T) {
	f := setupTestFixture(t)
	require.NoError(t, f.session.SetTokens("access", "refresh"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		f.guard.Watch(ctx)
	}()
	// Let the watcher register before the transition fires.
	time.Sleep(20 * time.Millisecond)

	require.NoError(t, f.session.Logout())

	require.Eventually(t, func() bool {
		targets := f.redirectTargets()
		return len(targets) == 1 && targets[0] == "/login"
	}, time.Second, 5*time.Millisecond)

	cancel()
	<-done
}

func TestWatchIgnoresNonRevocationTransitions(t *testing.T) {
	f := setupTestFixture(t)
	require.NoError(t, f.session.SetTokens("access", "refresh"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		f.guard.Watch(ctx)
	}()

	// Organization switches and user refreshes are not revocations.
	require.NoError(t, f.session.SetActiveOrganization("org-2"))
	require.NoError(t, f.session.SetUser(&session.User{ID: "user-1"}))

	time.Sleep(50 * time.Millisecond)
	require.Empty(t, f.redirectTargets())

	cancel()
	<-done
}
