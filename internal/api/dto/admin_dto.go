package dto

import (
	"time"

	"github.com/civicdesk/grievance-service/internal/domain"
)

// LoginRequest carries admin credentials.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AdminSummary is the admin identity returned at login.
type AdminSummary struct {
	ID          string             `json:"id"`
	Username    string             `json:"username"`
	Role        domain.AdminRole   `json:"role"`
	Permissions domain.Permissions `json:"permissions"`
}

// LoginResponse returns the bearer token.
type LoginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	Admin     AdminSummary `json:"admin"`
}

// AdminResponse is an admin account without its password hash.
type AdminResponse struct {
	ID                  string              `json:"id"`
	Username            string              `json:"username"`
	Role                domain.AdminRole    `json:"role"`
	Permissions         domain.Permissions  `json:"permissions"`
	AssignedDepartments []domain.Department `json:"assignedDepartments"`
	AssignedWards       []domain.Ward       `json:"assignedWards"`
	LastLogin           *time.Time          `json:"lastLogin"`
	IsActive            bool                `json:"isActive"`
	CreatedAt           time.Time           `json:"createdAt"`
}

// AdminStats summarises complaints on the profile page.
type AdminStats struct {
	TotalComplaints    int `json:"totalComplaints"`
	ResolvedComplaints int `json:"resolvedComplaints"`
}

// ProfileResponse is the logged-in admin with complaint totals.
type ProfileResponse struct {
	AdminResponse
	Stats AdminStats `json:"stats"`
}

// DefaultAdminResponse confirms the bootstrap account.
type DefaultAdminResponse struct {
	Username string           `json:"username"`
	Role     domain.AdminRole `json:"role"`
}
