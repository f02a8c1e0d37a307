package users

import "time"

// User represents a portal account for management purposes. Customers carry
// the client company they belong to; employees have no company.
type User struct {
	ID        int64
	Email     string
	Name      string
	CompanyID *int64
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// UserUpdate carries optional changes; nil fields are left untouched.
type UserUpdate struct {
	Name         *string
	CompanyID    *int64
	ClearCompany bool
}
