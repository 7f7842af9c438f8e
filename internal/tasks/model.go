package tasks

import (
	"time"

	"github.com/nbthub-com/project-manager/internal/authz"
)

// Status values a task moves through. The set mirrors project statuses; a
// project cancellation forces every task to cancelled.
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusTesting    = "testing"
	StatusReview     = "review"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
)

const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

// Task is a unit of work inside a project, created by a manager (or client,
// with forced assignment) and assigned to a member.
type Task struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	RoleTitle   string     `json:"role_title"`
	Description *string    `json:"description,omitempty"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	Deadline    *time.Time `json:"deadline,omitempty"`
	ByID        int64      `json:"by_id"`
	ToID        int64      `json:"to_id"`
	ProjectID   int64      `json:"pr_id"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Ref extracts the ownership columns the authz package decides over.
func (t *Task) Ref() authz.TaskRef {
	return authz.TaskRef{ID: t.ID, ByID: t.ByID, ToID: t.ToID, ProjectID: t.ProjectID}
}
