package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/civicdesk/grievance-service/internal/service"
)

// AnalyticsHandler serves the admin dashboard aggregates.
type AnalyticsHandler struct {
	analytics *service.AnalyticsService
}

// NewAnalyticsHandler constructs handler.
func NewAnalyticsHandler(analytics *service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics}
}

// Dashboard GET /api/analytics/dashboard.
func (h *AnalyticsHandler) Dashboard(c *fiber.Ctx) error {
	dashboard, err := h.analytics.Dashboard(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(ok(dashboardResponse(dashboard)))
}

// Trends GET /api/analytics/trends?period=N.
func (h *AnalyticsHandler) Trends(c *fiber.Ctx) error {
	period, err := intQuery(c, "period")
	if err != nil {
		return err
	}
	trends, err := h.analytics.Trends(c.UserContext(), period)
	if err != nil {
		return err
	}
	return c.JSON(ok(trendPoints(trends)))
}

// DepartmentPerformance GET /api/analytics/department-performance.
func (h *AnalyticsHandler) DepartmentPerformance(c *fiber.Ctx) error {
	rows, err := h.analytics.DepartmentPerformance(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(ok(performanceRows(rows)))
}
