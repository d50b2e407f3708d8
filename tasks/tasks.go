// Package tasks is the typed client for the task endpoints.
package tasks

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/pkg/errors"

	"github.com/jrsteele09/go-taskmaster/transport"
)

// Status is the task workflow state.
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusReview     Status = "review"
	StatusDone       Status = "done"
	StatusArchived   Status = "archived"
)

// Priority orders tasks by urgency.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// SortField selects the list ordering.
type SortField string

const (
	SortByCreatedAt SortField = "createdAt"
	SortByDueDate   SortField = "dueDate"
	SortByPriority  SortField = "priority"
)

// CreateTask is the creation payload.
type CreateTask struct {
	Title          string   `json:"title"`
	Description    string   `json:"description,omitempty"`
	Status         Status   `json:"status,omitempty"`
	Priority       Priority `json:"priority,omitempty"`
	AssigneeID     string   `json:"assigneeId,omitempty"`
	DueDate        string   `json:"dueDate,omitempty"`
	EstimatedHours *float64 `json:"estimatedHours,omitempty"`
}

// UpdateTask carries the changed fields; nil fields are left untouched.
type UpdateTask struct {
	Title          *string   `json:"title,omitempty"`
	Description    *string   `json:"description,omitempty"`
	Status         *Status   `json:"status,omitempty"`
	Priority       *Priority `json:"priority,omitempty"`
	IsCompleted    *bool     `json:"isCompleted,omitempty"`
	AssigneeID     *string   `json:"assigneeId,omitempty"`
	DueDate        *string   `json:"dueDate,omitempty"`
	EstimatedHours *float64  `json:"estimatedHours,omitempty"`
	ActualHours    *float64  `json:"actualHours,omitempty"`
}

// Filters narrows and orders a task listing.
type Filters struct {
	Page        int
	Limit       int
	Status      []Status
	Priority    []Priority
	AssigneeID  string
	IsCompleted *bool
	Search      string
	SortBy      SortField
	SortOrder   string // ASC or DESC
}

// Values encodes the filters as query parameters.
func (f Filters) Values() url.Values {
	values := url.Values{}
	if f.Page > 0 {
		values.Set("page", strconv.Itoa(f.Page))
	}
	if f.Limit > 0 {
		values.Set("limit", strconv.Itoa(f.Limit))
	}
	for _, s := range f.Status {
		values.Add("status", string(s))
	}
	for _, p := range f.Priority {
		values.Add("priority", string(p))
	}
	if f.AssigneeID != "" {
		values.Set("assigneeId", f.AssigneeID)
	}
	if f.IsCompleted != nil {
		values.Set("isCompleted", strconv.FormatBool(*f.IsCompleted))
	}
	if f.Search != "" {
		values.Set("search", f.Search)
	}
	if f.SortBy != "" {
		values.Set("sortBy", string(f.SortBy))
	}
	if f.SortOrder != "" {
		values.Set("sortOrder", f.SortOrder)
	}
	return values
}

// Service is the task API client.
type Service struct {
	client *transport.Client
}

// NewService creates the task service.
func NewService(client *transport.Client) (*Service, error) {
	if client == nil {
		return nil, errors.New("[tasks.NewService] client is required")
	}
	return &Service{client: client}, nil
}

// List returns a project's tasks, filtered and paginated.
func (s *Service) List(ctx context.Context, projectID string, filters Filters) ([]Task, transport.PaginationMeta, error) {
	var resp transport.Paginated[Task]
	path := fmt.Sprintf("/tasks/projects/%s/tasks", projectID)
	if err := s.client.Get(ctx, path, filters.Values(), &resp); err != nil {
		return nil, transport.PaginationMeta{}, errors.Wrapf(err, "[Service.List] project %s", projectID)
	}
	return resp.Data, resp.Meta, nil
}

// Get returns one task.
func (s *Service) Get(ctx context.Context, id string) (*Task, error) {
	var task Task
	if err := s.client.Get(ctx, "/tasks/"+id, nil, &task); err != nil {
		return nil, errors.Wrapf(err, "[Service.Get] task %s", id)
	}
	return &task, nil
}

// Create creates a task under a project.
func (s *Service) Create(ctx context.Context, projectID string, create CreateTask) (*Task, error) {
	if create.Title == "" {
		return nil, errors.New("[Service.Create] title is required")
	}
	var task Task
	path := fmt.Sprintf("/tasks/projects/%s/tasks", projectID)
	if err := s.client.Post(ctx, path, create, &task); err != nil {
		return nil, errors.Wrapf(err, "[Service.Create] project %s", projectID)
	}
	return &task, nil
}

// Update applies the non-nil fields.
func (s *Service) Update(ctx context.Context, id string, update UpdateTask) (*Task, error) {
	var task Task
	if err := s.client.Put(ctx, "/tasks/"+id, update, &task); err != nil {
		return nil, errors.Wrapf(err, "[Service.Update] task %s", id)
	}
	return &task, nil
}

// Delete removes a task.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.client.Delete(ctx, "/tasks/"+id); err != nil {
		return errors.Wrapf(err, "[Service.Delete] task %s", id)
	}
	return nil
}
