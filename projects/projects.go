// Package projects is the typed client for the project endpoints.
package projects

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/jrsteele09/go-taskmaster/transport"
)

// Project groups tasks within an organization.
type Project struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Description    string `json:"description,omitempty"`
	OrganizationID string `json:"organizationId"`
}

// Stats is the per-project task rollup.
type Stats struct {
	TotalTasks     int     `json:"totalTasks"`
	CompletedTasks int     `json:"completedTasks"`
	OverdueTasks   int     `json:"overdueTasks"`
	CompletionRate float64 `json:"completionRate"`
}

// CreateProject is the creation payload.
type CreateProject struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// UpdateProject carries the changed fields; nil fields are left untouched.
type UpdateProject struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

// Service is the project API client.
type Service struct {
	client *transport.Client
}

// NewService creates the project service.
func NewService(client *transport.Client) (*Service, error) {
	if client == nil {
		return nil, errors.New("[projects.NewService] client is required")
	}
	return &Service{client: client}, nil
}

// List returns an organization's projects.
func (s *Service) List(ctx context.Context, orgID string, page transport.Page) ([]Project, transport.PaginationMeta, error) {
	var resp transport.Paginated[Project]
	path := fmt.Sprintf("/projects/organizations/%s/projects", orgID)
	if err := s.client.Get(ctx, path, page.Values(), &resp); err != nil {
		return nil, transport.PaginationMeta{}, errors.Wrapf(err, "[Service.List] organization %s", orgID)
	}
	return resp.Data, resp.Meta, nil
}

// Get returns one project.
func (s *Service) Get(ctx context.Context, id string) (*Project, error) {
	var project Project
	if err := s.client.Get(ctx, "/projects/"+id, nil, &project); err != nil {
		return nil, errors.Wrapf(err, "[Service.Get] project %s", id)
	}
	return &project, nil
}

// Create creates a project under an organization.
func (s *Service) Create(ctx context.Context, orgID string, create CreateProject) (*Project, error) {
	if create.Name == "" {
		return nil, errors.New("[Service.Create] name is required")
	}
	var project Project
	path := fmt.Sprintf("/projects/organizations/%s/projects", orgID)
	if err := s.client.Post(ctx, path, create, &project); err != nil {
		return nil, errors.Wrapf(err, "[Service.Create] organization %s", orgID)
	}
	return &project, nil
}

// Update applies the non-nil fields.
func (s *Service) Update(ctx context.Context, id string, update UpdateProject) (*Project, error) {
	var project Project
	if err := s.client.Put(ctx, "/projects/"+id, update, &project); err != nil {
		return nil, errors.Wrapf(err, "[Service.Update] project %s", id)
	}
	return &project, nil
}

// Delete removes a project and its tasks.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.client.Delete(ctx, "/projects/"+id); err != nil {
		return errors.Wrapf(err, "[Service.Delete] project %s", id)
	}
	return nil
}

// GetStats returns the task rollup for a project.
func (s *Service) GetStats(ctx context.Context, id string) (*Stats, error) {
	var stats Stats
	if err := s.client.Get(ctx, fmt.Sprintf("/projects/%s/stats", id), nil, &stats); err != nil {
		return nil, errors.Wrapf(err, "[Service.GetStats] project %s", id)
	}
	return &stats, nil
}
