// Package authn drives the authentication flows against the backend and keeps
// the session service in step with them.
package authn

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	interrors "github.com/jrsteele09/go-taskmaster/internal/errors"
	"github.com/jrsteele09/go-taskmaster/session"
	"github.com/jrsteele09/go-taskmaster/transport"
)

// Credentials is the login request body.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration is the register request body. OrganizationName, when set,
// creates an organization for the new account in the same call.
type Registration struct {
	Email            string `json:"email"`
	Username         string `json:"username"`
	Password         string `json:"password"`
	OrganizationName string `json:"organizationName,omitempty"`
}

type tokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type authResponse struct {
	Tokens tokenPair `json:"tokens"`
}

// Service performs login, registration and identity fetches.
type Service struct {
	client  *transport.Client
	session *session.Service
	log     zerolog.Logger
}

// ServiceOption defines a function type to modify the Service instance.
type ServiceOption func(*Service)

// WithLogger sets the logger (defaults to a no-op logger).
func WithLogger(log zerolog.Logger) ServiceOption {
	return func(s *Service) {
		s.log = log
	}
}

// NewService creates the authentication service.
func NewService(client *transport.Client, sess *session.Service, options ...ServiceOption) (*Service, error) {
	if client == nil {
		return nil, errors.New("[authn.NewService] client is required")
	}
	if sess == nil {
		return nil, errors.New("[authn.NewService] session is required")
	}

	s := &Service{client: client, session: sess, log: zerolog.Nop()}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// Login authenticates with the backend and establishes the session: tokens
// are stored first, then the identity is fetched and set. A credential
// rejection surfaces as ErrInvalidCredentials and leaves no session state
// behind.
func (s *Service) Login(ctx context.Context, creds Credentials) (*session.User, error) {
	if err := s.session.BeginLogin(); err != nil {
		return nil, err
	}

	var resp authResponse
	if err := s.client.Post(ctx, "/auth/login", creds, &resp); err != nil {
		s.session.FailLogin()
		return nil, s.credentialError(err, "[Service.Login]")
	}

	user, err := s.establish(ctx, resp.Tokens)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.Login]")
	}
	s.log.Info().Str("email", creds.Email).Msg("logged in")
	return user, nil
}

// Register creates an account and establishes the session the same way Login
// does.
func (s *Service) Register(ctx context.Context, reg Registration) (*session.User, error) {
	if err := s.session.BeginLogin(); err != nil {
		return nil, err
	}

	var resp authResponse
	if err := s.client.Post(ctx, "/auth/register", reg, &resp); err != nil {
		s.session.FailLogin()
		return nil, s.credentialError(err, "[Service.Register]")
	}

	user, err := s.establish(ctx, resp.Tokens)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.Register]")
	}
	s.log.Info().Str("email", reg.Email).Msg("registered")
	return user, nil
}

// Me fetches the identity for the current tokens and replaces the session
// user wholesale.
func (s *Service) Me(ctx context.Context) (*session.User, error) {
	var user session.User
	if err := s.client.Get(ctx, "/auth/me", nil, &user); err != nil {
		return nil, errors.Wrap(err, "[Service.Me] fetch identity")
	}
	if err := s.session.SetUser(&user); err != nil {
		return nil, errors.Wrap(err, "[Service.Me] set user")
	}
	return &user, nil
}

// Logout tears the session down.
func (s *Service) Logout() error {
	return s.session.Logout()
}

// establish finishes a successful login/register: tokens first, identity
// second.
func (s *Service) establish(ctx context.Context, tokens tokenPair) (*session.User, error) {
	if err := s.session.SetTokens(tokens.AccessToken, tokens.RefreshToken); err != nil {
		return nil, errors.Wrap(err, "set tokens")
	}
	user, err := s.Me(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "resolve identity")
	}
	return user, nil
}

// credentialError folds a 4xx auth response into the credential-rejection
// sentinel; transport failures pass through unchanged.
func (s *Service) credentialError(err error, prefix string) error {
	var apiErr *transport.APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 {
		if apiErr.Message != "" {
			return errors.Wrapf(interrors.ErrInvalidCredentials, "%s %s", prefix, apiErr.Message)
		}
		return errors.Wrap(interrors.ErrInvalidCredentials, prefix)
	}
	return errors.Wrap(err, prefix)
}
