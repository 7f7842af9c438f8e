package members

// CreateMemberRequest is the admin "add member" form. Only the non-admin roles
// can be granted; further admins are provisioned out of band.
type CreateMemberRequest struct {
	Name     string `json:"name" validate:"required,min=3,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Role     string `json:"role" validate:"required,oneof=user client"`
	Password string `json:"password" validate:"required,min=6"`
}
