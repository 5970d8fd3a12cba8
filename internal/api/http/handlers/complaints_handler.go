package handlers

import (
	"fmt"
	"io"
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/civicdesk/grievance-service/internal/api/dto"
	"github.com/civicdesk/grievance-service/internal/auth"
	"github.com/civicdesk/grievance-service/internal/domain"
	"github.com/civicdesk/grievance-service/internal/events"
	"github.com/civicdesk/grievance-service/internal/service"
	apperrors "github.com/civicdesk/grievance-service/pkg/util/errorutil"
)

const photoField = "photo"

// ComplaintsHandler serves citizen and admin complaint endpoints.
type ComplaintsHandler struct {
	intake        *service.IntakeService
	tracking      *service.TrackingService
	status        *service.StatusService
	maxPhotoBytes int64
}

// NewComplaintsHandler constructs handler.
func NewComplaintsHandler(intake *service.IntakeService, tracking *service.TrackingService, status *service.StatusService, maxPhotoBytes int64) *ComplaintsHandler {
	if maxPhotoBytes <= 0 {
		maxPhotoBytes = 5 * 1024 * 1024
	}
	return &ComplaintsHandler{intake: intake, tracking: tracking, status: status, maxPhotoBytes: maxPhotoBytes}
}

// Submit POST /api/complaints/submit. Accepts JSON or a multipart form with an optional
// "photo" file.
func (h *ComplaintsHandler) Submit(c *fiber.Ctx) error {
	var req dto.SubmitComplaintRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	input := service.SubmitInput{
		Name:          req.Name,
		Phone:         req.Phone,
		Email:         req.Email,
		Ward:          req.Ward,
		Department:    req.Department,
		ComplaintType: req.ComplaintType,
		Description:   req.Description,
		Address:       req.Address,
		Priority:      req.Priority,
		Channel:       events.ChannelWeb,
	}

	if strings.HasPrefix(string(c.Request().Header.ContentType()), fiber.MIMEMultipartForm) {
		form, err := c.MultipartForm()
		if err != nil {
			return apperrors.NewValidationError("invalid multipart payload", nil)
		}
		if files := form.File[photoField]; len(files) > 0 {
			photo, err := h.readPhoto(files[0])
			if err != nil {
				return err
			}
			input.Photo = photo
		}
	}

	result, err := h.intake.Submit(c.UserContext(), input)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Complaint submitted successfully",
		"data": dto.SubmitComplaintResponse{
			TicketID:            result.TicketID,
			Status:              result.StatusLabel,
			EstimatedResolution: result.EstimatedResolution,
			SubmittedAt:         result.SubmittedAt,
			HasPhoto:            result.HasPhoto,
		},
	})
}

func (h *ComplaintsHandler) readPhoto(file *multipart.FileHeader) (*service.PhotoUpload, error) {
	if file.Size > h.maxPhotoBytes {
		return nil, apperrors.NewValidationError("Validation failed", map[string]any{
			photoField: fmt.Sprintf("photo must be at most %d bytes", h.maxPhotoBytes),
		})
	}
	f, err := file.Open()
	if err != nil {
		return nil, apperrors.NewValidationError("invalid photo upload", map[string]any{photoField: err.Error()})
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, h.maxPhotoBytes+1))
	if err != nil {
		return nil, apperrors.NewValidationError("invalid photo upload", map[string]any{photoField: err.Error()})
	}
	return &service.PhotoUpload{
		Data:        data,
		ContentType: file.Header.Get(fiber.HeaderContentType),
		Filename:    file.Filename,
	}, nil
}

// Track GET /api/complaints/track/:ticketId.
func (h *ComplaintsHandler) Track(c *fiber.Ctx) error {
	complaint, err := h.tracking.Track(c.UserContext(), c.Params("ticketId"))
	if err != nil {
		return err
	}
	return c.JSON(ok(trackResponse(complaint)))
}

// Photo GET /api/complaints/photo/:ticketId.
func (h *ComplaintsHandler) Photo(c *fiber.Ctx) error {
	photo, err := h.tracking.Photo(c.UserContext(), c.Params("ticketId"))
	if err != nil {
		return err
	}
	contentType := photo.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("inline; filename=%q", photo.Filename))
	return c.Send(photo.Data)
}

// List GET /api/complaints.
func (h *ComplaintsHandler) List(c *fiber.Ctx) error {
	principal, found := auth.PrincipalFromContext(c)
	if !found {
		return apperrors.NewUnauthorized("admin required")
	}
	query := service.ListQuery{
		Status:     c.Query("status"),
		Department: c.Query("department"),
		Ward:       c.Query("ward"),
		Priority:   c.Query("priority"),
		SortBy:     c.Query("sortBy"),
		SortOrder:  c.Query("sortOrder"),
	}
	var err error
	if query.Page, err = intQuery(c, "page"); err != nil {
		return err
	}
	if query.Limit, err = intQuery(c, "limit"); err != nil {
		return err
	}

	page, err := h.tracking.List(c.UserContext(), principal.Admin, query)
	if err != nil {
		return err
	}
	items := make([]dto.ComplaintListItem, 0, len(page.Complaints))
	for i := range page.Complaints {
		items = append(items, listItem(&page.Complaints[i]))
	}
	return c.JSON(fiber.Map{
		"success":    true,
		"data":       items,
		"pagination": pagination(page.Pagination),
	})
}

// Get GET /api/complaints/:id.
func (h *ComplaintsHandler) Get(c *fiber.Ctx) error {
	principal, found := auth.PrincipalFromContext(c)
	if !found {
		return apperrors.NewUnauthorized("admin required")
	}
	complaint, err := h.tracking.Get(c.UserContext(), principal.Admin, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(ok(detailResponse(complaint)))
}

// UpdateStatus PUT /api/complaints/:id/status.
func (h *ComplaintsHandler) UpdateStatus(c *fiber.Ctx) error {
	principal, found := auth.PrincipalFromContext(c)
	if !found {
		return apperrors.NewUnauthorized("admin required")
	}
	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	complaint, err := h.status.UpdateStatus(c.UserContext(), principal.Admin, c.Params("id"), domain.ComplaintStatus(strings.TrimSpace(req.Status)), req.Message)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Complaint status updated successfully",
		"data": dto.UpdateStatusResponse{
			ID:          complaint.ID,
			TicketID:    complaint.TicketID,
			Status:      string(complaint.Status),
			LastUpdated: complaint.Timestamps.LastUpdated,
		},
	})
}

func intQuery(c *fiber.Ctx, key string) (int, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, apperrors.NewValidationError("Invalid query parameters", map[string]any{key: "must be a positive integer"})
	}
	return n, nil
}
