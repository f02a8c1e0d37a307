package authz

import "time"

// AdminRoleName is the seeded administrator role. It carries no special
// treatment at check time; seeding grants it every catalog permission instead.
const AdminRoleName = "Administrator"

// Role represents a named bundle of permissions assignable to users.
type Role struct {
	ID          int64
	Name        string
	Description string
	IsSystem    bool
	Permissions []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Assignment links a user to a role. AssignedBy is nil for system or
// self-assigned roles.
type Assignment struct {
	UserID     int64
	RoleID     int64
	AssignedBy *int64
	AssignedAt time.Time
}

// RoleUpdate carries optional role changes; nil fields are left untouched.
type RoleUpdate struct {
	Name        *string
	Description *string
	Permissions *[]string
}
