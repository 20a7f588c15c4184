package models

type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleAdmin UserRole = "admin"
)

// Identity is the authenticated caller as handed over by the auth layer. The
// credential is forwarded to downstream services untouched.
type Identity struct {
	UserID     string   `json:"user_id"`
	Role       UserRole `json:"role"`
	Credential string   `json:"-"`
}
