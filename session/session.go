// Package session holds the client-side authentication state: the current
// user, the authenticated flag and the active organization. State changes go
// through defined transitions only, and every mutation replaces whole fields
// rather than patching them in place, which is what keeps interleaved call
// sites (login, refresh, logout) consistent.
package session

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/jrsteele09/go-taskmaster/tokenstore"
)

// State is the lifecycle phase of the session.
type State string

const (
	StateAnonymous      State = "anonymous"
	StateAuthenticating State = "authenticating"
	StateAuthenticated  State = "authenticated"
)

// User is the identity returned by the backend. It is replaced wholesale on
// every fetch, never partially patched.
type User struct {
	ID             string `json:"id"`
	Email          string `json:"email"`
	Username       string `json:"username"`
	OrganizationID string `json:"organizationId,omitempty"`
}

// Snapshot is an immutable view of the session handed to watchers.
type Snapshot struct {
	State                State
	User                 *User
	Authenticated        bool
	ActiveOrganizationID string
}

// Navigator is invoked when the session ends and the user must be sent back
// to the login boundary. The CLI installs a hint printer, embedding
// applications install their own navigation, tests install a recorder.
type Navigator func(target string)

// Service is the single source of truth for session state. It is safe for
// concurrent use.
type Service struct {
	mu    sync.RWMutex
	store tokenstore.Store

	state         State
	user          *User
	authenticated bool
	activeOrg     string
	terminated    bool

	navigate      Navigator
	loginBoundary string
	watchers      []chan Snapshot
	log           zerolog.Logger
}

// ServiceOption defines a function type to modify the Service instance.
type ServiceOption func(*Service)

// WithNavigator sets the function called on logout/escalation.
func WithNavigator(nav Navigator) ServiceOption {
	return func(s *Service) {
		s.navigate = nav
	}
}

// WithLoginBoundary overrides the target passed to the Navigator.
func WithLoginBoundary(target string) ServiceOption {
	return func(s *Service) {
		s.loginBoundary = target
	}
}

// WithLogger sets the logger (defaults to a no-op logger).
func WithLogger(log zerolog.Logger) ServiceOption {
	return func(s *Service) {
		s.log = log
	}
}

// New constructs a Service hydrated from the token store: the durable access
// token decides the authenticated flag, the durable organization id seeds the
// active organization. The current user is never persisted, it is re-derived
// by an identity fetch after load.
func New(store tokenstore.Store, options ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, errors.New("[session.New] store is required")
	}

	s := &Service{
		store:         store,
		state:         StateAnonymous,
		navigate:      func(string) {},
		loginBoundary: "/login",
		log:           zerolog.Nop(),
	}
	for _, opt := range options {
		opt(s)
	}

	if _, ok := tokenstore.Lookup(store, tokenstore.KindAccessToken); ok {
		s.authenticated = true
		s.state = StateAuthenticated
	}
	if org, ok := tokenstore.Lookup(store, tokenstore.KindOrganization); ok {
		s.activeOrg = org
	}

	return s, nil
}

// BeginLogin marks the anonymous -> authenticating edge taken when a login or
// registration is submitted.
func (s *Service) BeginLogin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.terminated {
		return errors.New("[Service.BeginLogin] session is terminated, construct a fresh one")
	}
	s.state = StateAuthenticating
	s.notifyLocked()
	return nil
}

// FailLogin returns to anonymous after a credential rejection. No state is
// retained, the error itself is the caller's to surface.
func (s *Service) FailLogin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateAuthenticating {
		s.state = StateAnonymous
	}
	s.notifyLocked()
}

// SetTokens persists both tokens as a unit and marks the session
// authenticated. Partial token state is not a valid transition.
func (s *Service) SetTokens(access, refresh string) error {
	if access == "" || refresh == "" {
		return errors.New("[Service.SetTokens] both tokens are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.terminated {
		return errors.New("[Service.SetTokens] session is terminated")
	}

	if err := s.store.Set(tokenstore.KindAccessToken, access); err != nil {
		return errors.Wrap(err, "[Service.SetTokens] store access token")
	}
	if err := s.store.Set(tokenstore.KindRefreshToken, refresh); err != nil {
		return errors.Wrap(err, "[Service.SetTokens] store refresh token")
	}

	s.authenticated = true
	if s.state != StateAuthenticating {
		s.state = StateAuthenticated
	}
	s.log.Debug().Msg("session tokens replaced")
	s.notifyLocked()
	return nil
}

// SetUser replaces the current user wholesale. A non-nil user marks the
// session authenticated (monotonic, this path never flips it back). When the
// user carries an organization id it becomes the active organization, in
// memory and durably.
func (s *Service) SetUser(user *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.terminated {
		return errors.New("[Service.SetUser] session is terminated")
	}

	s.user = user
	if user != nil {
		s.authenticated = true
		s.state = StateAuthenticated
		if user.OrganizationID != "" {
			if err := s.store.Set(tokenstore.KindOrganization, user.OrganizationID); err != nil {
				return errors.Wrap(err, "[Service.SetUser] store organization id")
			}
			s.activeOrg = user.OrganizationID
		}
	}
	s.notifyLocked()
	return nil
}

// SetActiveOrganization persists and updates the active organization id. It
// does not affect authentication.
func (s *Service) SetActiveOrganization(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.terminated {
		return errors.New("[Service.SetActiveOrganization] session is terminated")
	}
	if err := s.store.Set(tokenstore.KindOrganization, id); err != nil {
		return errors.Wrap(err, "[Service.SetActiveOrganization] store organization id")
	}
	s.activeOrg = id
	s.notifyLocked()
	return nil
}

// Logout clears the token store, resets every in-memory field and fires the
// Navigator toward the login boundary. The transition is terminal: the service
// refuses further mutations and a fresh Service must be constructed for the
// next login. Repeated calls are no-ops, so escalation from several call
// sites navigates exactly once.
func (s *Service) Logout() error {
	s.mu.Lock()
	if s.terminated {
		s.mu.Unlock()
		return nil
	}
	s.terminated = true

	err := s.store.Clear()
	s.user = nil
	s.authenticated = false
	s.activeOrg = ""
	s.state = StateAnonymous
	s.log.Debug().Msg("session terminated")
	s.notifyLocked()
	boundary := s.loginBoundary
	navigate := s.navigate
	s.mu.Unlock()

	// Navigation happens outside the lock; a Navigator is allowed to read
	// the session it is being told about.
	navigate(boundary)

	if err != nil {
		return errors.Wrap(err, "[Service.Logout] clear token store")
	}
	return nil
}

// IsAuthenticated reports whether an access token is present and not known
// invalid.
func (s *Service) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authenticated
}

// CurrentUser returns a copy of the resolved identity, or nil when the
// identity fetch has not happened yet.
func (s *Service) CurrentUser() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// ActiveOrganizationID returns the active organization id, or "".
func (s *Service) ActiveOrganizationID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeOrg
}

// State returns the lifecycle phase.
func (s *Service) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Snapshot returns a consistent view of the whole session.
func (s *Service) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Watch returns a channel receiving a Snapshot on every transition. The
// channel is buffered and coalescing: a slow receiver sees the latest state,
// not every intermediate one.
func (s *Service) Watch() <-chan Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan Snapshot, 1)
	s.watchers = append(s.watchers, ch)
	return ch
}

func (s *Service) snapshotLocked() Snapshot {
	snap := Snapshot{
		State:                s.state,
		Authenticated:        s.authenticated,
		ActiveOrganizationID: s.activeOrg,
	}
	if s.user != nil {
		u := *s.user
		snap.User = &u
	}
	return snap
}

func (s *Service) notifyLocked() {
	snap := s.snapshotLocked()
	for _, ch := range s.watchers {
		select {
		case ch <- snap:
		default:
			// Drop the stale snapshot and replace it with the latest.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}
