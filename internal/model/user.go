package model

// Role is the access level of an identity.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAgent    Role = "agent"
	RoleAdmin    Role = "admin"
)

// IsStaff reports whether the role may inspect other customers' conversations.
func (r Role) IsStaff() bool {
	return r == RoleAgent || r == RoleAdmin
}

// User is a signed-in identity. Email is the identifier carried on
// conversations and unique across users.
type User struct {
	ID           uint   `json:"id"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	Name         string `json:"name"`
	Role         Role   `json:"role"`
}
