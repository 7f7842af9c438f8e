package projects

type CreateProjectRequest struct {
	Title       string  `json:"title" validate:"required,max=200"`
	Description *string `json:"description,omitempty"`
	ManagerID   int64   `json:"manager_id" validate:"required,gt=0"`
	ClientID    *int64  `json:"client_id,omitempty" validate:"omitempty,gt=0"`
	// Status defaults to in_progress when omitted.
	Status string `json:"status,omitempty" validate:"omitempty,oneof=pending in_progress review testing completed cancelled"`
}

type UpdateProjectRequest struct {
	Title       *string `json:"title,omitempty" validate:"omitempty,max=200"`
	Description *string `json:"description,omitempty"`
	ManagerID   *int64  `json:"manager_id,omitempty" validate:"omitempty,gt=0"`
	ClientID    *int64  `json:"client_id,omitempty" validate:"omitempty,gt=0"`
	Status      *string `json:"status,omitempty" validate:"omitempty,oneof=pending in_progress review testing completed cancelled"`
}

type ListProjectsRequest struct {
	Status string `json:"status,omitempty" validate:"omitempty,oneof=pending in_progress review testing completed cancelled"`
	Search string `json:"search,omitempty"`
	Limit  int    `json:"limit" validate:"gte=0,lte=1000"`
	Offset int    `json:"offset" validate:"gte=0"`
}
