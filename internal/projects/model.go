package projects

import (
	"time"

	"github.com/nbthub-com/project-manager/internal/authz"
)

// Status values a project moves through. A cancelled project drags its tasks
// to cancelled in the same transaction.
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusReview     = "review"
	StatusTesting    = "testing"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
)

// Project is a unit of client work owned by a manager.
type Project struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description,omitempty"`
	ManagerID   int64     `json:"manager_id"`
	ClientID    *int64    `json:"client_id,omitempty"`
	Status      string    `json:"status"`
	IsStarred   bool      `json:"is_starred"`
	TaskCount   int64     `json:"task_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Ref extracts the ownership columns the authz package decides over.
func (p *Project) Ref() authz.ProjectRef {
	return authz.ProjectRef{ID: p.ID, ManagerID: p.ManagerID, ClientID: p.ClientID}
}
