package models

import "time"

// Staff roles and account statuses.
const (
	RoleAdmin = "admin"
	RoleStaff = "staff"

	AccountPending = "pending"
	AccountActive  = "active"
)

// StaffMember represents a staff account that can publish office hours.
// OfficeHours is an opaque serialized blob; internal/schedule is the only
// package that parses or writes it.
type StaffMember struct {
	ID          int64     `json:"id"`
	Username    string    `json:"username"` // stored lowercased
	FullName    string    `json:"full_name,omitempty"`
	Email       string    `json:"email,omitempty"`
	Role        string    `json:"role"`   // admin, staff
	Status      string    `json:"status"` // pending, active
	Bio         string    `json:"bio,omitempty"`
	OfficeHours string    `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// IsActiveStaff reports whether the member is an approved staff account.
func (s *StaffMember) IsActiveStaff() bool {
	return s.Role == RoleStaff && s.Status == AccountActive
}
