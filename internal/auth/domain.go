package auth

import "time"

// Role decides what a user may do.
type Role string

const (
	// RoleOwner manages the catalog and sees every sale.
	RoleOwner Role = "owner"
	// RoleStaff sells and sees its own sales.
	RoleStaff Role = "staff"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleOwner || r == RoleStaff
}

// User is a registered account.
type User struct {
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// Identity is the authenticated caller carried by a token.
type Identity struct {
	Username string `json:"username"`
	Role     Role   `json:"role"`
}
