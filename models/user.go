package models

// Role is the capability level of a logged-in user.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// AuthUser identifies the user held in the session record. It is never
// persisted in the database.
type AuthUser struct {
	Username string `json:"username"`
	Role     Role   `json:"role"`
}
