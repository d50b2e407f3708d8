package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	interrors "github.com/jrsteele09/go-taskmaster/internal/errors"
)

// Client is the JSON layer the typed services use: it builds requests against
// the backend, sends them through the pipeline and maps non-2xx responses to
// *APIError values carrying a sentinel from internal/errors.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        zerolog.Logger
}

// ClientOption defines a function type to modify the Client instance.
type ClientOption func(*Client)

// WithHTTPTimeout sets the per-request timeout (defaults to 30s).
func WithHTTPTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithClientLogger sets the logger (defaults to a no-op logger).
func WithClientLogger(log zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.log = log
	}
}

// NewClient creates a Client sending requests through rt, normally the
// Pipeline.
func NewClient(baseURL string, rt http.RoundTripper, options ...ClientOption) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("[NewClient] baseURL is required")
	}
	if rt == nil {
		return nil, errors.New("[NewClient] round tripper is required")
	}

	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Transport: rt, Timeout: 30 * time.Second},
		log:        zerolog.Nop(),
	}
	for _, opt := range options {
		opt(c)
	}
	return c, nil
}

// Get issues a GET request and decodes the response into out (out may be nil).
func (c *Client) Get(ctx context.Context, path string, query url.Values, out interface{}) error {
	return c.Do(ctx, http.MethodGet, path, query, nil, out)
}

// Post issues a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body, out interface{}) error {
	return c.Do(ctx, http.MethodPost, path, nil, body, out)
}

// Put issues a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body, out interface{}) error {
	return c.Do(ctx, http.MethodPut, path, nil, body, out)
}

// Delete issues a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.Do(ctx, http.MethodDelete, path, nil, nil, nil)
}

// Do builds, sends and decodes a single request.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "[Client.Do] marshal request body")
		}
		reqBody = bytes.NewReader(payload)
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return errors.Wrap(err, "[Client.Do] build request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrapf(err, "[Client.Do] %s %s", method, path)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.apiError(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return errors.Wrapf(err, "[Client.Do] decode %s %s response", method, path)
		}
	}
	return nil
}

// APIError is a non-2xx backend response. Unwrap yields the sentinel matching
// the status code, so callers can errors.Is against internal/errors.
type APIError struct {
	StatusCode int
	Message    string
	RequestID  string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("api error %d", e.StatusCode)
}

func (e *APIError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusUnauthorized:
		return interrors.ErrUnauthorized
	case e.StatusCode == http.StatusForbidden:
		return interrors.ErrForbidden
	case e.StatusCode == http.StatusNotFound:
		return interrors.ErrNotFound
	case e.StatusCode == http.StatusConflict:
		return interrors.ErrConflict
	case e.StatusCode >= 500:
		return interrors.ErrServer
	case e.StatusCode >= 400:
		return interrors.ErrBadRequest
	}
	return nil
}

func (c *Client) apiError(resp *http.Response) error {
	apiErr := &APIError{
		StatusCode: resp.StatusCode,
		RequestID:  resp.Header.Get(requestIDHeader),
	}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil {
		if payload.Message != "" {
			apiErr.Message = payload.Message
		} else {
			apiErr.Message = payload.Error
		}
	}
	if apiErr.Message == "" && len(raw) > 0 {
		apiErr.Message = string(raw)
	}

	c.log.Debug().Int("status", resp.StatusCode).Str("message", apiErr.Message).Msg("backend rejected request")
	return apiErr
}
