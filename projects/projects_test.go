package projects_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	interrors "github.com/jrsteele09/go-taskmaster/internal/errors"
	"github.com/jrsteele09/go-taskmaster/projects"
	"github.com/jrsteele09/go-taskmaster/transport"
)

func newTestService(t *testing.T, handler http.Handler) *projects.Service {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := transport.NewClient(server.URL, http.DefaultTransport)
	require.NoError(t, err)
	service, err := projects.NewService(client)
	require.NoError(t, err)
	return service
}

func TestListScopedToOrganization(t *testing.T) {
	var gotPath string
	service := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`{
			"data": [{"id": "proj-1", "name": "Site", "organizationId": "org-1"}],
			"meta": {"page": 1, "limit": 20, "total": 1, "totalPages": 1}
		}`))
	}))

	list, meta, err := service.List(context.Background(), "org-1", transport.Page{})
	require.NoError(t, err)

	require.Equal(t, "/projects/organizations/org-1/projects", gotPath)
	require.Len(t, list, 1)
	require.Equal(t, "org-1", list[0].OrganizationID)
	require.Equal(t, 1, meta.Total)
}

func TestCreateRequiresName(t *testing.T) {
	service := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	}))

	_, err := service.Create(context.Background(), "org-1", projects.CreateProject{})
	require.Error(t, err)
}

func TestGetMapsNotFound(t *testing.T) {
	service := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"project not found"}`))
	}))

	_, err := service.Get(context.Background(), "proj-missing")
	require.ErrorIs(t, err, interrors.ErrNotFound)
}

func TestGetStats(t *testing.T) {
	service := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/projects/proj-1/stats", r.URL.Path)
		_, _ = w.Write([]byte(`{
			"totalTasks": 10,
			"completedTasks": 4,
			"overdueTasks": 2,
			"completionRate": 0.4
		}`))
	}))

	stats, err := service.GetStats(context.Background(), "proj-1")
	require.NoError(t, err)
	require.Equal(t, 10, stats.TotalTasks)
	require.Equal(t, 4, stats.CompletedTasks)
	require.Equal(t, 2, stats.OverdueTasks)
	require.InDelta(t, 0.4, stats.CompletionRate, 1e-9)
}
