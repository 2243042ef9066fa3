package domain

// Role groups a named set of permissions.
type Role struct {
	ID          int32
	Name        string
	Description string
}

// Permission is an atomic capability name such as "delete_payment_methods".
type Permission struct {
	ID          int32
	Name        string
	Description string
}

// Well-known role names carrying built-in overrides in the access engine.
const (
	RoleAdmin    = "admin"
	RoleManager  = "manager"
	RoleCustomer = "customer"
)
