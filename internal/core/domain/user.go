package domain

import (
	"slices"
	"time"
)

const (
	RoleAdmin     = "admin"
	RoleSuperuser = "superuser"
	RoleAgent     = "agent"
	RoleSubAgent  = "sub agent"
	RoleCustomer  = "customer"
)

const (
	UserStatusActive      = "active"
	UserStatusInactive    = "inactive"
	UserStatusNotVerified = "not verified"
)

// User models an authenticated actor in the system.
type User struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Username          string    `json:"username"`
	Email             string    `json:"email,omitempty"`
	PasswordHash      string    `json:"-"`
	Role              string    `json:"role"`
	Status            string    `json:"status"`
	ModulePermissions []string  `json:"module_permissions"`
	MasterAgentID     string    `json:"master_agent,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// IsUnrestricted reports whether the user bypasses every visibility rule.
func (u *User) IsUnrestricted() bool {
	return u.Role == RoleAdmin || u.Role == RoleSuperuser
}

// IsStaff reports whether the user works applications rather than owning them.
func (u *User) IsStaff() bool {
	switch u.Role {
	case RoleAdmin, RoleSuperuser, RoleAgent, RoleSubAgent:
		return true
	}
	return false
}

// IsActive reports whether the account may act at all.
func (u *User) IsActive() bool {
	return u.Status == UserStatusActive
}

// HasModulePermission reports whether moduleID is in the user's permission set.
func (u *User) HasModulePermission(moduleID string) bool {
	return slices.Contains(u.ModulePermissions, moduleID)
}

// Validate checks the required fields and enum values of a user record.
func (u *User) Validate() error {
	if !ValidRole(u.Role) {
		return Invalid("unknown role %q", u.Role)
	}
	if !ValidUserStatus(u.Status) {
		return Invalid("unknown user status %q", u.Status)
	}
	if u.Role == RoleSubAgent && u.MasterAgentID == "" {
		return Invalid("a sub agent must have a master agent")
	}
	return nil
}

func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleSuperuser, RoleAgent, RoleSubAgent, RoleCustomer:
		return true
	}
	return false
}

func ValidUserStatus(status string) bool {
	switch status {
	case UserStatusActive, UserStatusInactive, UserStatusNotVerified:
		return true
	}
	return false
}
