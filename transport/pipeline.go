// Package transport carries every request between the client and the
// TaskMaster backend. The Pipeline injects the bearer credential and runs the
// refresh-on-401 protocol; the Client layers JSON encoding and error mapping
// on top for the typed services.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	interrors "github.com/jrsteele09/go-taskmaster/internal/errors"
	"github.com/jrsteele09/go-taskmaster/session"
	"github.com/jrsteele09/go-taskmaster/tokenstore"
)

const requestIDHeader = "X-Request-ID"

// Pipeline is an http.RoundTripper wrapping every outbound backend request.
// When an access token is stored it is attached as a bearer credential;
// requests with no token proceed unauthenticated and the backend decides.
//
// On a 401 the pipeline attempts exactly one refresh and one retry for the
// original request. Concurrent 401s share a single in-flight refresh, late
// arrivals wait for its outcome instead of issuing their own. A failed
// refresh is unrecoverable: the session is torn down (store cleared,
// navigation to the login boundary fired once) and the original 401 is
// returned so the caller never hangs.
type Pipeline struct {
	base       http.RoundTripper
	store      tokenstore.Store
	session    *session.Service
	refreshURL string

	group   singleflight.Group
	metrics *Metrics
	log     zerolog.Logger
}

var _ http.RoundTripper = (*Pipeline)(nil)

// PipelineOption defines a function type to modify the Pipeline instance.
type PipelineOption func(*Pipeline)

// WithBaseTransport sets the inner RoundTripper (defaults to
// http.DefaultTransport). The refresh call itself goes through the inner
// transport so it can never recursively trigger the interceptor.
func WithBaseTransport(rt http.RoundTripper) PipelineOption {
	return func(p *Pipeline) {
		p.base = rt
	}
}

// WithMetrics sets the pipeline counters.
func WithMetrics(m *Metrics) PipelineOption {
	return func(p *Pipeline) {
		p.metrics = m
	}
}

// WithPipelineLogger sets the logger (defaults to a no-op logger).
func WithPipelineLogger(log zerolog.Logger) PipelineOption {
	return func(p *Pipeline) {
		p.log = log
	}
}

// NewPipeline creates the request pipeline. baseURL is the backend API root,
// used to derive the refresh endpoint.
func NewPipeline(baseURL string, store tokenstore.Store, sess *session.Service, options ...PipelineOption) (*Pipeline, error) {
	if baseURL == "" {
		return nil, errors.New("[NewPipeline] baseURL is required")
	}
	if store == nil {
		return nil, errors.New("[NewPipeline] store is required")
	}
	if sess == nil {
		return nil, errors.New("[NewPipeline] session is required")
	}

	p := &Pipeline{
		base:       http.DefaultTransport,
		store:      store,
		session:    sess,
		refreshURL: baseURL + "/auth/refresh",
		log:        zerolog.Nop(),
	}
	for _, opt := range options {
		opt(p)
	}
	if p.metrics == nil {
		p.metrics = NewMetrics(nil)
	}
	return p, nil
}

// RoundTrip implements http.RoundTripper.
func (p *Pipeline) RoundTrip(req *http.Request) (*http.Response, error) {
	out := req.Clone(req.Context())
	token, hadToken := tokenstore.Lookup(p.store, tokenstore.KindAccessToken)
	if hadToken {
		out.Header.Set("Authorization", "Bearer "+token)
	}
	if out.Header.Get(requestIDHeader) == "" {
		out.Header.Set(requestIDHeader, uuid.New().String())
	}

	resp, err := p.base.RoundTrip(out)
	if err != nil {
		p.metrics.observeError()
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized || !hadToken {
		// An unauthenticated 401 carries nothing to refresh. A credential
		// rejection on login lands here and passes straight through.
		p.metrics.observe(resp.StatusCode)
		return resp, nil
	}

	// 401: run the refresh protocol once for this original request.
	token, refreshErr := p.refresh(req.Context())
	if refreshErr != nil {
		p.metrics.observe(resp.StatusCode)
		p.escalate(refreshErr)
		return resp, nil
	}

	retry, ok := p.replayableClone(req, out.Header.Get(requestIDHeader), token)
	if !ok {
		// The body cannot be replayed, the 401 stands.
		p.metrics.observe(resp.StatusCode)
		return resp, nil
	}

	drainAndClose(resp.Body)
	p.metrics.retries.Inc()
	p.log.Debug().Str("path", req.URL.Path).Msg("retrying request with refreshed token")

	// A second 401 propagates to the caller, there is no loop.
	retryResp, err := p.base.RoundTrip(retry)
	if err != nil {
		p.metrics.observeError()
		return nil, err
	}
	p.metrics.observe(retryResp.StatusCode)
	return retryResp, nil
}

// refresh exchanges the stored refresh token for a new access token. All
// concurrent callers share one flight; the stored access token is replaced
// before any caller is released, so a retry always observes the new token.
// The refresh token itself is not rotated by the backend.
func (p *Pipeline) refresh(ctx context.Context) (string, error) {
	value, err, _ := p.group.Do("refresh", func() (interface{}, error) {
		p.metrics.refreshAttempts.Inc()

		refreshToken, ok := tokenstore.Lookup(p.store, tokenstore.KindRefreshToken)
		if !ok {
			return nil, interrors.ErrNoRefreshToken
		}

		accessToken, err := p.postRefresh(ctx, refreshToken)
		if err != nil {
			return nil, err
		}

		if err := p.store.Set(tokenstore.KindAccessToken, accessToken); err != nil {
			return nil, errors.Wrap(err, "[Pipeline.refresh] store access token")
		}
		p.log.Debug().Msg("access token refreshed")
		return accessToken, nil
	})
	if err != nil {
		p.metrics.refreshFailures.Inc()
		return "", err
	}
	return value.(string), nil
}

func (p *Pipeline) postRefresh(ctx context.Context, refreshToken string) (string, error) {
	body, err := json.Marshal(map[string]string{"refreshToken": refreshToken})
	if err != nil {
		return "", errors.Wrap(err, "[Pipeline.postRefresh] marshal body")
	}

	// The flight outlives the triggering caller: another request may be
	// waiting on the same refresh after the first caller gave up.
	req, err := http.NewRequestWithContext(context.WithoutCancel(ctx), http.MethodPost, p.refreshURL, bytes.NewReader(body))
	if err != nil {
		return "", errors.Wrap(err, "[Pipeline.postRefresh] build request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.base.RoundTrip(req)
	if err != nil {
		return "", errors.Wrap(err, "[Pipeline.postRefresh] refresh call")
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", errors.Wrapf(interrors.ErrRefreshFailed, "[Pipeline.postRefresh] status %d", resp.StatusCode)
	}

	var payload struct {
		AccessToken string `json:"accessToken"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", errors.Wrap(err, "[Pipeline.postRefresh] decode response")
	}
	if payload.AccessToken == "" {
		return "", errors.Wrap(interrors.ErrRefreshFailed, "[Pipeline.postRefresh] empty access token")
	}
	return payload.AccessToken, nil
}

// replayableClone rebuilds the original request with the refreshed token. A
// request whose body cannot be re-read is not retried.
func (p *Pipeline) replayableClone(req *http.Request, requestID, token string) (*http.Request, bool) {
	if req.Body != nil && req.GetBody == nil {
		return nil, false
	}
	retry := req.Clone(req.Context())
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, false
		}
		retry.Body = body
	}
	retry.Header.Set("Authorization", "Bearer "+token)
	retry.Header.Set(requestIDHeader, requestID)
	return retry, true
}

func (p *Pipeline) escalate(cause error) {
	p.log.Warn().Err(cause).Msg("token refresh unrecoverable, terminating session")
	if err := p.session.Logout(); err != nil {
		p.log.Error().Err(err).Msg("session teardown failed")
	}
}

func drainAndClose(body io.ReadCloser) {
	if body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(body, 4096))
	_ = body.Close()
}
