package members

import (
	"time"

	"github.com/nbthub-com/project-manager/internal/authz"
)

// Member is a managed account as seen by the admin screens.
type Member struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Role      authz.Role `json:"role"`
	IsActive  bool       `json:"is_active"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Counts aggregates member totals for the admin dashboard.
type Counts struct {
	Users   int64 `json:"users"`
	Clients int64 `json:"clients"`
}
