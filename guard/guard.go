// Package guard gates protected entry points on session state. A denied entry
// point makes zero backend calls; the backend would reject it anyway, the
// guard just keeps the client honest and the user informed.
package guard

import (
	"context"

	"github.com/pkg/errors"

	interrors "github.com/jrsteele09/go-taskmaster/internal/errors"
	"github.com/jrsteele09/go-taskmaster/session"
)

// Redirect is invoked with the login boundary when access is denied or
// revoked.
type Redirect func(target string)

// Guard gates protected entry points on the session's authenticated flag.
type Guard struct {
	session       *session.Service
	redirect      Redirect
	loginBoundary string
}

// GuardOption defines a function type to modify the Guard instance.
type GuardOption func(*Guard)

// WithLoginBoundary overrides the redirect target.
func WithLoginBoundary(target string) GuardOption {
	return func(g *Guard) {
		g.loginBoundary = target
	}
}

// New creates a Guard. redirect may be nil when the caller only needs the
// boolean answer.
func New(sess *session.Service, redirect Redirect, options ...GuardOption) (*Guard, error) {
	if sess == nil {
		return nil, errors.New("[guard.New] session is required")
	}
	g := &Guard{
		session:       sess,
		redirect:      redirect,
		loginBoundary: "/login",
	}
	if g.redirect == nil {
		g.redirect = func(string) {}
	}
	for _, opt := range options {
		opt(g)
	}
	return g, nil
}

// Allowed reports whether protected content may be shown right now.
func (g *Guard) Allowed() bool {
	return g.session.IsAuthenticated()
}

// Require redirects to the login boundary and returns ErrNotAuthenticated
// when the session is not authenticated. Protected entry points call it
// before touching the backend.
func (g *Guard) Require() error {
	if g.session.IsAuthenticated() {
		return nil
	}
	g.redirect(g.loginBoundary)
	return interrors.ErrNotAuthenticated
}

// Watch re-evaluates on every session transition and fires the redirect once
// when authentication is revoked, so a logout anywhere immediately revokes
// access everywhere. It blocks until ctx is done.
func (g *Guard) Watch(ctx context.Context) {
	updates := g.session.Watch()
	wasAuthenticated := g.session.IsAuthenticated()
	for {
		select {
		case <-ctx.Done():
			return
		case snap := <-updates:
			if wasAuthenticated && !snap.Authenticated {
				g.redirect(g.loginBoundary)
			}
			wasAuthenticated = snap.Authenticated
		}
	}
}
