package transport_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"

	interrors "github.com/jrsteele09/go-taskmaster/internal/errors"
	"github.com/jrsteele09/go-taskmaster/transport"
)

func newTestClient(t *testing.T, handler http.Handler) *transport.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := transport.NewClient(server.URL, http.DefaultTransport)
	require.NoError(t, err)
	return client
}

func TestClientDecodesResponse(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "application/json", r.Header.Get("Accept"))
		_, _ = w.Write([]byte(`{"id":"42","name":"alpha"}`))
	}))

	var out struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	require.NoError(t, client.Get(context.Background(), "/things/42", nil, &out))
	require.Equal(t, "42", out.ID)
	require.Equal(t, "alpha", out.Name)
}

func TestClientEncodesQuery(t *testing.T) {
	var gotQuery url.Values
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		_, _ = w.Write([]byte(`{}`))
	}))

	query := url.Values{}
	query.Set("page", "2")
	query.Add("status", "todo")
	query.Add("status", "review")
	require.NoError(t, client.Get(context.Background(), "/things", query, nil))

	require.Equal(t, "2", gotQuery.Get("page"))
	require.Equal(t, []string{"todo", "review"}, gotQuery["status"])
}

func TestClientMapsStatusToSentinels(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusBadRequest, interrors.ErrBadRequest},
		{http.StatusUnauthorized, interrors.ErrUnauthorized},
		{http.StatusForbidden, interrors.ErrForbidden},
		{http.StatusNotFound, interrors.ErrNotFound},
		{http.StatusConflict, interrors.ErrConflict},
		{http.StatusInternalServerError, interrors.ErrServer},
	}

	for _, tt := range tests {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
			_, _ = w.Write([]byte(`{"message":"nope"}`))
		}))

		err := client.Get(context.Background(), "/things", nil, nil)
		require.ErrorIs(t, err, tt.want, "status %d", tt.status)

		var apiErr *transport.APIError
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, tt.status, apiErr.StatusCode)
		require.Equal(t, "nope", apiErr.Message)
	}
}

func TestClientPostSendsJSONBody(t *testing.T) {
	var gotContentType, gotBody string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		raw, _ := io.ReadAll(r.Body)
		gotBody = string(raw)
		w.WriteHeader(http.StatusCreated)
	}))

	require.NoError(t, client.Post(context.Background(), "/things", map[string]string{"name": "alpha"}, nil))
	require.Equal(t, "application/json", gotContentType)
	require.JSONEq(t, `{"name":"alpha"}`, gotBody)
}
