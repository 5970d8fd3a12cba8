package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/civicdesk/grievance-service/internal/api/dto"
	"github.com/civicdesk/grievance-service/internal/auth"
	"github.com/civicdesk/grievance-service/internal/service"
	apperrors "github.com/civicdesk/grievance-service/pkg/util/errorutil"
)

// AdminHandler serves admin authentication and account endpoints.
type AdminHandler struct {
	auth *service.AuthService
}

// NewAdminHandler constructs handler.
func NewAdminHandler(authService *service.AuthService) *AdminHandler {
	return &AdminHandler{auth: authService}
}

// Login POST /api/admin/login.
func (h *AdminHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	result, err := h.auth.Login(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Login successful",
		"data": dto.LoginResponse{
			Token:     result.Token,
			ExpiresAt: result.ExpiresAt,
			Admin: dto.AdminSummary{
				ID:          result.Admin.ID,
				Username:    result.Admin.Username,
				Role:        result.Admin.Role,
				Permissions: result.Admin.Permissions,
			},
		},
	})
}

// Profile GET /api/admin/profile.
func (h *AdminHandler) Profile(c *fiber.Ctx) error {
	principal, found := auth.PrincipalFromContext(c)
	if !found {
		return apperrors.NewUnauthorized("admin required")
	}
	profile, err := h.auth.Profile(c.UserContext(), principal.Admin)
	if err != nil {
		return err
	}
	return c.JSON(ok(dto.ProfileResponse{
		AdminResponse: adminResponse(profile.Admin),
		Stats: dto.AdminStats{
			TotalComplaints:    profile.Stats.TotalComplaints,
			ResolvedComplaints: profile.Stats.ResolvedComplaints,
		},
	}))
}

// List GET /api/admin/all.
func (h *AdminHandler) List(c *fiber.Ctx) error {
	admins, err := h.auth.ListAdmins(c.UserContext())
	if err != nil {
		return err
	}
	items := make([]dto.AdminResponse, 0, len(admins))
	for i := range admins {
		items = append(items, adminResponse(&admins[i]))
	}
	return c.JSON(ok(items))
}

// CreateDefault POST /api/admin/create-default.
func (h *AdminHandler) CreateDefault(c *fiber.Ctx) error {
	admin, err := h.auth.CreateDefaultAdmin(c.UserContext())
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Default admin created successfully",
		"data":    dto.DefaultAdminResponse{Username: admin.Username, Role: admin.Role},
	})
}
