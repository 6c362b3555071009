package model

import "time"

// Role names with built-in meaning.
const (
	RoleAdmin  = "admin"
	RoleClient = "client"
	RoleVoter  = "voter"
)

// Role groups users by what they may do.
type Role struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
}

// User is an account of the platform. New accounts stay inactive until their email is confirmed.
type User struct {
	ID           string     `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Role         *Role      `json:"role"`
	IsActive     bool       `json:"is_active"`
	IsStaff      bool       `json:"is_staff"`
	RegisterDate time.Time  `json:"register_date"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
}

// RoleName returns the name of the user's role or "" when none is assigned.
func (u *User) RoleName() string {
	if u == nil || u.Role == nil {
		return ""
	}
	return u.Role.Name
}

// IsAdmin reports whether the user has the admin role or the staff flag.
func (u *User) IsAdmin() bool {
	if u == nil {
		return false
	}
	return u.IsStaff || u.RoleName() == RoleAdmin
}

// IsClient reports whether the user may author surveys.
func (u *User) IsClient() bool {
	if u == nil {
		return false
	}
	return u.RoleName() == RoleClient || u.IsAdmin()
}
