package domain

import "time"

// Role enumerates the four account roles in the system.
type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleManager  Role = "MANAGER"
	RoleAgent    Role = "AGENT"
	RoleCustomer Role = "CUSTOMER"
)

// Valid reports whether the role is part of the closed enumeration.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleAgent, RoleCustomer:
		return true
	}
	return false
}

// User is the domain model for every account, staff and customer alike.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Principal is the authenticated caller passed into every service call.
type Principal struct {
	ID     string
	Role   Role
	Active bool
}

// PrincipalOf derives a request principal from a loaded user.
func PrincipalOf(u *User) Principal {
	return Principal{ID: u.ID, Role: u.Role, Active: u.Active}
}
