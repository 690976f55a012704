package domain

// Role is the coarse authorization tag attached to every user.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleEmployee Role = "employee"
)

// Known reports whether the role is one this client understands.
func (r Role) Known() bool {
	return r == RoleAdmin || r == RoleEmployee
}

// User represents the authenticated user record returned at login.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

// Session pairs the opaque bearer token with the user it belongs to.
type Session struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}
