package tasks

import "time"

type CreateTaskRequest struct {
	Title       string     `json:"title" validate:"required,max=200"`
	RoleTitle   string     `json:"role_title,omitempty" validate:"omitempty,max=100"`
	Description *string    `json:"description,omitempty"`
	Priority    string     `json:"priority,omitempty" validate:"omitempty,oneof=high medium low"`
	Deadline    *time.Time `json:"deadline,omitempty"`
	// ToID is ignored for client creators: their tasks are force-assigned to
	// the project manager.
	ToID      int64 `json:"to_id,omitempty" validate:"omitempty,gt=0"`
	ProjectID int64 `json:"pr_id" validate:"required,gt=0"`
}

type UpdateTaskRequest struct {
	Title       *string    `json:"title,omitempty" validate:"omitempty,max=200"`
	RoleTitle   *string    `json:"role_title,omitempty" validate:"omitempty,max=100"`
	Description *string    `json:"description,omitempty"`
	Status      *string    `json:"status,omitempty" validate:"omitempty,oneof=pending in_progress testing review completed cancelled"`
	Priority    *string    `json:"priority,omitempty" validate:"omitempty,oneof=high medium low"`
	Deadline    *time.Time `json:"deadline,omitempty"`
	ToID        *int64     `json:"to_id,omitempty" validate:"omitempty,gt=0"`
}

type ListTasksRequest struct {
	Status    string `json:"status,omitempty" validate:"omitempty,oneof=pending in_progress testing review completed cancelled"`
	ProjectID int64  `json:"pr_id,omitempty" validate:"omitempty,gt=0"`
	Search    string `json:"search,omitempty"`
	Limit     int    `json:"limit" validate:"gte=0,lte=1000"`
	Offset    int    `json:"offset" validate:"gte=0"`
}
