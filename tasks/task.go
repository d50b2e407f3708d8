package tasks

import (
	"encoding/json"
	"time"
)

// Assignee is the embedded summary of the user a task is assigned to.
type Assignee struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Task is the canonical task model. The backend emits some fields under both
// camelCase and snake_case names; decoding folds the duplicates into this one
// canonical (camelCase) set so the rest of the client never sees them.
type Task struct {
	ID             string     `json:"id"`
	ProjectID      string     `json:"projectId"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Status         Status     `json:"status"`
	Priority       Priority   `json:"priority"`
	IsCompleted    bool       `json:"isCompleted"`
	AssigneeID     string     `json:"assigneeId,omitempty"`
	Assignee       *Assignee  `json:"assignee,omitempty"`
	DueDate        *time.Time `json:"dueDate,omitempty"`
	EstimatedHours *float64   `json:"estimatedHours,omitempty"`
	ActualHours    *float64   `json:"actualHours,omitempty"`
	DaysOverdue    int        `json:"daysOverdue"`
	EffortVariance float64    `json:"effortVariance"`
	CreatedBy      string     `json:"createdBy"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
	CompletedAt    *time.Time `json:"completedAt,omitempty"`
}

// UnmarshalJSON accepts the snake_case duplicates alongside the canonical
// camelCase fields. camelCase wins when both are present.
func (t *Task) UnmarshalJSON(data []byte) error {
	type taskAlias Task // drops the method set, avoids recursion
	aux := struct {
		*taskAlias
		SnakeProjectID      *string     `json:"project_id"`
		SnakeIsCompleted    *bool       `json:"is_completed"`
		SnakeAssigneeID     *string     `json:"assignee_id"`
		SnakeDueDate        *time.Time  `json:"due_date"`
		SnakeEstimatedHours *float64    `json:"estimated_hours"`
		SnakeActualHours    *float64    `json:"actual_hours"`
		SnakeDaysOverdue    *int        `json:"days_overdue"`
		SnakeEffortVariance *float64    `json:"effort_variance"`
		SnakeCreatedBy      *string     `json:"created_by"`
		SnakeCreatedAt      *time.Time  `json:"created_at"`
		SnakeUpdatedAt      *time.Time  `json:"updated_at"`
		SnakeCompletedAt    *time.Time  `json:"completed_at"`
	}{taskAlias: (*taskAlias)(t)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	if t.ProjectID == "" && aux.SnakeProjectID != nil {
		t.ProjectID = *aux.SnakeProjectID
	}
	if !t.IsCompleted && aux.SnakeIsCompleted != nil {
		t.IsCompleted = *aux.SnakeIsCompleted
	}
	if t.AssigneeID == "" && aux.SnakeAssigneeID != nil {
		t.AssigneeID = *aux.SnakeAssigneeID
	}
	if t.DueDate == nil && aux.SnakeDueDate != nil {
		t.DueDate = aux.SnakeDueDate
	}
	if t.EstimatedHours == nil && aux.SnakeEstimatedHours != nil {
		t.EstimatedHours = aux.SnakeEstimatedHours
	}
	if t.ActualHours == nil && aux.SnakeActualHours != nil {
		t.ActualHours = aux.SnakeActualHours
	}
	if t.DaysOverdue == 0 && aux.SnakeDaysOverdue != nil {
		t.DaysOverdue = *aux.SnakeDaysOverdue
	}
	if t.EffortVariance == 0 && aux.SnakeEffortVariance != nil {
		t.EffortVariance = *aux.SnakeEffortVariance
	}
	if t.CreatedBy == "" && aux.SnakeCreatedBy != nil {
		t.CreatedBy = *aux.SnakeCreatedBy
	}
	if t.CreatedAt.IsZero() && aux.SnakeCreatedAt != nil {
		t.CreatedAt = *aux.SnakeCreatedAt
	}
	if t.UpdatedAt.IsZero() && aux.SnakeUpdatedAt != nil {
		t.UpdatedAt = *aux.SnakeUpdatedAt
	}
	if t.CompletedAt == nil && aux.SnakeCompletedAt != nil {
		t.CompletedAt = aux.SnakeCompletedAt
	}
	return nil
}

// Overdue reports whether the task has a due date in the past and is not
// done.
func (t *Task) Overdue(now time.Time) bool {
	if t.DueDate == nil || t.IsCompleted {
		return false
	}
	return t.DueDate.Before(now)
}
