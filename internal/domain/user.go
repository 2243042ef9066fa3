package domain

import "time"

// User is an authenticated caller. RoleName is denormalized from the roles
// table so the access engine can decide without an extra lookup.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	RoleID       int32
	RoleName     string
	LastLogin    *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Customer is the profile attached to users holding the customer role.
type Customer struct {
	ID        string
	UserID    string
	Email     string
	FirstName string
	LastName  string
	Phone     string
	CreatedAt time.Time
}
