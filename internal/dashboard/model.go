package dashboard

// MemberCounts summarises the account base for the admin dashboard.
type MemberCounts struct {
	Users   int64 `json:"users"`
	Clients int64 `json:"clients"`
}

// Dashboard is the role-shaped aggregate view. The stats maps are keyed by
// status plus a "total" entry; Members is present for admins only.
type Dashboard struct {
	Role     string           `json:"role"`
	Members  *MemberCounts    `json:"members,omitempty"`
	Projects map[string]int64 `json:"projects"`
	Tasks    map[string]int64 `json:"tasks"`
}
