package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/civicdesk/grievance-service/internal/domain"
	"github.com/civicdesk/grievance-service/internal/repository"
	"github.com/civicdesk/grievance-service/internal/ticketid"
	apperrors "github.com/civicdesk/grievance-service/pkg/util/errorutil"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// ListQuery carries raw admin listing parameters. "all" or empty means unfiltered.
type ListQuery struct {
	Status     string
	Department string
	Ward       string
	Priority   string
	Page       int
	Limit      int
	SortBy     string
	SortOrder  string
}

// Pagination describes the page returned by List.
type Pagination struct {
	Current int  `json:"current"`
	Pages   int  `json:"pages"`
	Total   int  `json:"total"`
	HasNext bool `json:"hasNext"`
	HasPrev bool `json:"hasPrev"`
}

// ComplaintPage is one page of complaints for the admin panel.
type ComplaintPage struct {
	Complaints []domain.Complaint
	Pagination Pagination
}

// PhotoContent is a photo ready to be streamed to the client.
type PhotoContent struct {
	Data        []byte
	ContentType string
	Filename    string
}

// TrackingService answers citizen lookups and admin listings.
type TrackingService struct {
	complaints repository.ComplaintRepository
	photos     PhotoStore
	logger     *zap.Logger
}

// TrackingDependencies bundles collaborators for the tracking service.
type TrackingDependencies struct {
	ComplaintRepo repository.ComplaintRepository
	PhotoStore    PhotoStore
	Logger        *zap.Logger
}

// NewTrackingService constructs the service.
func NewTrackingService(deps TrackingDependencies) *TrackingService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TrackingService{complaints: deps.ComplaintRepo, photos: deps.PhotoStore, logger: logger}
}

// Track returns the complaint with its full history. Lookup is case-insensitive.
func (s *TrackingService) Track(ctx context.Context, rawTicketID string) (*domain.Complaint, error) {
	ticketID := ticketid.Normalize(rawTicketID)
	if ticketID == "" {
		return nil, apperrors.NewValidationError("Ticket ID is required", map[string]any{"ticketId": "ticket id is required"})
	}
	complaint, err := s.complaints.GetByTicketID(ctx, ticketID)
	if err != nil {
		return nil, s.lookupError(err, ticketID)
	}
	return complaint, nil
}

// Photo returns the stored photo bytes for a ticket.
func (s *TrackingService) Photo(ctx context.Context, rawTicketID string) (*PhotoContent, error) {
	ticketID := ticketid.Normalize(rawTicketID)
	photo, err := s.complaints.GetPhoto(ctx, ticketID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("Photo", map[string]any{"ticketId": ticketID})
		}
		return nil, apperrors.NewStorageError(err)
	}

	data := photo.Data
	if len(data) == 0 && photo.ObjectKey != "" {
		if s.photos == nil {
			s.logger.Error("photo stored in object storage but no store configured", zap.String("ticket_id", ticketID))
			return nil, apperrors.NewNotFound("Photo", map[string]any{"ticketId": ticketID})
		}
		data, err = s.photos.Get(ctx, photo.ObjectKey)
		if err != nil {
			s.logger.Error("fetch photo failed", zap.String("ticket_id", ticketID), zap.String("key", photo.ObjectKey), zap.Error(err))
			return nil, apperrors.NewStorageError(err)
		}
	}
	if len(data) == 0 {
		return nil, apperrors.NewNotFound("Photo", map[string]any{"ticketId": ticketID})
	}

	return &PhotoContent{Data: data, ContentType: photo.ContentType, Filename: photo.Filename}, nil
}

// List returns a filtered, sorted page of complaints visible to admin.
func (s *TrackingService) List(ctx context.Context, admin *domain.Admin, query ListQuery) (*ComplaintPage, error) {
	filter, err := buildFilter(query)
	if err != nil {
		return nil, err
	}
	applyScope(admin, &filter)

	complaints, total, err := s.complaints.List(ctx, filter)
	if err != nil {
		s.logger.Error("list complaints failed", zap.Error(err))
		return nil, apperrors.NewStorageError(err)
	}

	page := filter.Offset/filter.Limit + 1
	pages := (total + filter.Limit - 1) / filter.Limit
	return &ComplaintPage{
		Complaints: complaints,
		Pagination: Pagination{
			Current: page,
			Pages:   pages,
			Total:   total,
			HasNext: page < pages,
			HasPrev: page > 1,
		},
	}, nil
}

// Get loads a complaint by its internal id, enforcing the admin's scope.
func (s *TrackingService) Get(ctx context.Context, admin *domain.Admin, id string) (*domain.Complaint, error) {
	complaint, err := s.complaints.GetByID(ctx, id)
	if err != nil {
		return nil, s.lookupError(err, id)
	}
	if !inScope(admin, complaint) {
		return nil, apperrors.NewNotFound("Complaint", map[string]any{"id": id})
	}
	return complaint, nil
}

func (s *TrackingService) lookupError(err error, key string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewNotFound("Complaint", map[string]any{"id": key})
	}
	s.logger.Error("load complaint failed", zap.String("key", key), zap.Error(err))
	return apperrors.NewStorageError(err)
}

func buildFilter(query ListQuery) (repository.ComplaintFilter, error) {
	filter := repository.ComplaintFilter{}
	details := map[string]any{}

	if raw := selector(query.Status); raw != "" {
		status := domain.ComplaintStatus(raw)
		if status.IsValid() {
			filter.Status = &status
		} else {
			details["status"] = "unknown status"
		}
	}
	if raw := selector(query.Department); raw != "" {
		if department, ok := domain.ParseDepartment(raw); ok {
			filter.Department = &department
		} else {
			details["department"] = "unknown department"
		}
	}
	if raw := selector(query.Ward); raw != "" {
		if ward, ok := domain.ParseWard(raw); ok {
			filter.Ward = &ward
		} else {
			details["ward"] = "unknown ward"
		}
	}
	if raw := selector(query.Priority); raw != "" {
		priority := domain.Priority(strings.ToLower(raw))
		if priority.IsValid() {
			filter.Priority = &priority
		} else {
			details["priority"] = "unknown priority"
		}
	}

	sortBy, ok := repository.ParseSortField(query.SortBy)
	if !ok {
		details["sortBy"] = "unsupported sort field"
	}
	filter.SortBy = sortBy
	switch strings.ToLower(strings.TrimSpace(query.SortOrder)) {
	case "", "desc":
	case "asc":
		filter.SortAsc = true
	default:
		details["sortOrder"] = "sort order must be asc or desc"
	}

	if len(details) > 0 {
		return filter, apperrors.NewValidationError("Invalid query parameters", details)
	}

	limit := query.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	page := query.Page
	if page < 1 {
		page = 1
	}
	filter.Limit = limit
	filter.Offset = (page - 1) * limit
	return filter, nil
}

// selector treats "all" and empty values as no filter.
func selector(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.EqualFold(raw, "all") {
		return ""
	}
	return raw
}
