package models

import (
	"time"
)

// Role defines what a user is allowed to do in the workflow
type Role string

const (
	RoleStudent     Role = "student"
	RoleCoordinator Role = "coordinator"
	RoleDirector    Role = "director"
)

// IsValid reports whether r is a known role
func (r Role) IsValid() bool {
	switch r {
	case RoleStudent, RoleCoordinator, RoleDirector:
		return true
	}
	return false
}

// IsStaff reports whether r reviews student paperwork
func (r Role) IsStaff() bool {
	return r == RoleCoordinator || r == RoleDirector
}

// AccountStatus is the approval state of an account
type AccountStatus string

const (
	AccountPending  AccountStatus = "pending"
	AccountActive   AccountStatus = "active"
	AccountRejected AccountStatus = "rejected"
)

// DefaultAvatar is shown when neither the account nor the profile carries a picture
const DefaultAvatar = "/images/default-avatar.png"

// User represents an account in the system
type User struct {
	ID             int64         `json:"id"`
	Email          string        `json:"email"`
	Password       string        `json:"-"`
	Role           Role          `json:"role"`
	Status         AccountStatus `json:"status"`
	Name           string        `json:"name,omitempty"`
	ProfilePicture string        `json:"profilePicture,omitempty"`
	CreatedAt      time.Time     `json:"createdAt"`
	UpdatedAt      time.Time     `json:"updatedAt"`
}

// IsActive reports whether the account may use the system
func (u *User) IsActive() bool {
	return u.Status == AccountActive
}
