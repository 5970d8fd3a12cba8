package domain

import "time"

// AdminRole enumerates administrator roles.
type AdminRole string

const (
	AdminRoleSuper      AdminRole = "super_admin"
	AdminRoleDepartment AdminRole = "department_admin"
	AdminRoleWard       AdminRole = "ward_admin"
)

func (r AdminRole) IsValid() bool {
	switch r {
	case AdminRoleSuper, AdminRoleDepartment, AdminRoleWard:
		return true
	}
	return false
}

// Permissions are capability flags granted to an administrator.
type Permissions struct {
	CanViewAll       bool `json:"canViewAll"`
	CanEditStatus    bool `json:"canEditStatus"`
	CanViewAnalytics bool `json:"canViewAnalytics"`
}

// DefaultPermissions are granted to newly provisioned scoped admins.
func DefaultPermissions() Permissions {
	return Permissions{CanEditStatus: true, CanViewAnalytics: true}
}

// FullPermissions are granted to super admins.
func FullPermissions() Permissions {
	return Permissions{CanViewAll: true, CanEditStatus: true, CanViewAnalytics: true}
}

// Admin is a municipal operator who manages complaints.
type Admin struct {
	ID                  string
	Username            string
	PasswordHash        string
	Role                AdminRole
	Permissions         Permissions
	AssignedDepartments []Department
	AssignedWards       []Ward
	LastLogin           *time.Time
	IsActive            bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
}
