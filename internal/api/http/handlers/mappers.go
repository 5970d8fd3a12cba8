package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/civicdesk/grievance-service/internal/api/dto"
	"github.com/civicdesk/grievance-service/internal/domain"
	"github.com/civicdesk/grievance-service/internal/repository"
	"github.com/civicdesk/grievance-service/internal/service"
)

const notAssigned = "Not Assigned"

// ok wraps data in the success envelope.
func ok(data any) fiber.Map {
	return fiber.Map{"success": true, "data": data}
}

func trackResponse(c *domain.Complaint) dto.TrackComplaintResponse {
	updates := make([]dto.StatusUpdate, 0, len(c.History))
	for _, h := range c.History {
		updates = append(updates, dto.StatusUpdate{
			Date:    h.Timestamp,
			Status:  string(h.Status),
			Message: h.Message,
			Officer: h.UpdatedBy,
		})
	}
	return dto.TrackComplaintResponse{
		ID:                  c.TicketID,
		Name:                c.Citizen.Name,
		Phone:               c.Citizen.Phone,
		Email:               c.Citizen.Email,
		Department:          string(c.Details.Department),
		Ward:                string(c.Details.Ward),
		ComplaintType:       c.Details.Type,
		Description:         c.Details.Description,
		Address:             c.Details.Address,
		Priority:            string(c.Details.Priority),
		Status:              string(c.Status),
		SubmittedAt:         c.Timestamps.Submitted,
		EstimatedResolution: c.EstimatedResolution,
		HasPhoto:            c.HasPhoto(),
		Updates:             updates,
	}
}

func listItem(c *domain.Complaint) dto.ComplaintListItem {
	officer := c.AssignedOfficer
	if officer == "" {
		officer = notAssigned
	}
	return dto.ComplaintListItem{
		ID:              c.ID,
		TicketID:        c.TicketID,
		Name:            c.Citizen.Name,
		Phone:           c.Citizen.Phone,
		Department:      string(c.Details.Department),
		Ward:            string(c.Details.Ward),
		ComplaintType:   c.Details.Type,
		Description:     c.Details.Description,
		Priority:        string(c.Details.Priority),
		Status:          string(c.Status),
		SubmittedAt:     c.Timestamps.Submitted,
		AssignedOfficer: officer,
		HasPhoto:        c.HasPhoto(),
	}
}

func detailResponse(c *domain.Complaint) dto.ComplaintDetailResponse {
	history := make([]dto.HistoryEntry, 0, len(c.History))
	for _, h := range c.History {
		history = append(history, dto.HistoryEntry{
			Status:    string(h.Status),
			UpdatedBy: h.UpdatedBy,
			Message:   h.Message,
			Timestamp: h.Timestamp,
		})
	}
	details := dto.ComplaintDetails{
		Department:  string(c.Details.Department),
		Ward:        string(c.Details.Ward),
		Type:        c.Details.Type,
		Description: c.Details.Description,
		Address:     c.Details.Address,
		Priority:    string(c.Details.Priority),
	}
	if p := c.Details.Photo; c.HasPhoto() {
		details.Photo = &dto.PhotoMeta{
			ContentType: p.ContentType,
			Filename:    p.Filename,
			Size:        p.Size,
			UploadedAt:  p.UploadedAt,
		}
	}
	return dto.ComplaintDetailResponse{
		ID:       c.ID,
		TicketID: c.TicketID,
		CitizenInfo: dto.CitizenInfo{
			Name:  c.Citizen.Name,
			Phone: c.Citizen.Phone,
			Email: c.Citizen.Email,
		},
		ComplaintDetails: details,
		Status:           string(c.Status),
		StatusHistory:    history,
		Timestamps: dto.Timestamps{
			Submitted:   c.Timestamps.Submitted,
			LastUpdated: c.Timestamps.LastUpdated,
		},
		AssignedOfficer:     c.AssignedOfficer,
		EstimatedResolution: c.EstimatedResolution,
		HasPhoto:            c.HasPhoto(),
	}
}

func pagination(p service.Pagination) dto.Pagination {
	return dto.Pagination{
		Current: p.Current,
		Pages:   p.Pages,
		Total:   p.Total,
		HasNext: p.HasNext,
		HasPrev: p.HasPrev,
	}
}

func adminResponse(a *domain.Admin) dto.AdminResponse {
	departments := a.AssignedDepartments
	if departments == nil {
		departments = []domain.Department{}
	}
	wards := a.AssignedWards
	if wards == nil {
		wards = []domain.Ward{}
	}
	return dto.AdminResponse{
		ID:                  a.ID,
		Username:            a.Username,
		Role:                a.Role,
		Permissions:         a.Permissions,
		AssignedDepartments: departments,
		AssignedWards:       wards,
		LastLogin:           a.LastLogin,
		IsActive:            a.IsActive,
		CreatedAt:           a.CreatedAt,
	}
}

func dashboardResponse(d *service.Dashboard) dto.DashboardResponse {
	recent := make([]dto.RecentComplaint, 0, len(d.Recent))
	for _, c := range d.Recent {
		recent = append(recent, dto.RecentComplaint{
			TicketID:    c.TicketID,
			Name:        c.Citizen.Name,
			Department:  string(c.Details.Department),
			Status:      string(c.Status),
			SubmittedAt: c.Timestamps.Submitted,
		})
	}
	return dto.DashboardResponse{
		TotalComplaints:  d.Totals.Total,
		Received:         d.Totals.Received,
		InProgress:       d.Totals.InProgress,
		Resolved:         d.Totals.Resolved,
		ByDepartment:     d.ByDepartment,
		ByWard:           d.ByWard,
		ByPriority:       d.ByPriority,
		RecentComplaints: recent,
	}
}

func trendPoints(rows []repository.DailyCount) []dto.TrendPoint {
	points := make([]dto.TrendPoint, 0, len(rows))
	for _, r := range rows {
		points = append(points, dto.TrendPoint{ID: r.Date, Date: r.Date, Count: r.Count})
	}
	return points
}

func performanceRows(rows []repository.DepartmentPerformance) []dto.DepartmentPerformance {
	out := make([]dto.DepartmentPerformance, 0, len(rows))
	for _, r := range rows {
		out = append(out, dto.DepartmentPerformance{
			ID:                string(r.Department),
			Department:        string(r.Department),
			Total:             r.Total,
			Resolved:          r.Resolved,
			ResolutionRate:    r.ResolutionRate,
			AvgResolutionTime: r.AvgResolutionDays,
		})
	}
	return out
}
