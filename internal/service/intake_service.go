package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/civicdesk/grievance-service/internal/domain"
	"github.com/civicdesk/grievance-service/internal/events"
	"github.com/civicdesk/grievance-service/internal/observability"
	"github.com/civicdesk/grievance-service/internal/repository"
	"github.com/civicdesk/grievance-service/internal/ticketid"
	apperrors "github.com/civicdesk/grievance-service/pkg/util/errorutil"
	"github.com/civicdesk/grievance-service/pkg/util/validation"
)

// Actor labels and receipt messages recorded on the first history entry.
const (
	WebActor        = "System"
	WebReceipt      = "Complaint received and assigned ticket number"
	WhatsAppActor   = "WhatsApp Bot"
	WhatsAppReceipt = "Complaint received via WhatsApp"
)

// PhotoStore keeps photo bytes outside the complaint record.
type PhotoStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// PhotoUpload is an image attached at submission.
type PhotoUpload struct {
	Data        []byte
	ContentType string
	Filename    string
}

// SubmitInput describes a complaint submission from any channel.
type SubmitInput struct {
	Name          string         `json:"name" validate:"required,min=2,max=100"`
	Phone         string         `json:"phone" validate:"required,phone10"`
	Email         string         `json:"email" validate:"omitempty,email,max=254"`
	Ward          string         `json:"ward" validate:"required"`
	Department    string         `json:"department" validate:"required"`
	ComplaintType string         `json:"complaintType" validate:"required,min=3,max=100"`
	Description   string         `json:"description" validate:"required,min=10,max=2000"`
	Address       string         `json:"address" validate:"required,min=5,max=300"`
	Priority      string         `json:"priority" validate:"omitempty,oneof=low medium high"`
	Photo         *PhotoUpload   `json:"-"`
	Channel       events.Channel `json:"-"`
}

// SubmitResult is what the caller shows the citizen after a successful submission.
type SubmitResult struct {
	TicketID            string
	Status              domain.ComplaintStatus
	StatusLabel         string
	EstimatedResolution string
	SubmittedAt         time.Time
	HasPhoto            bool
	Complaint           *domain.Complaint
}

// IntakeService validates and registers new complaints.
type IntakeService struct {
	complaints    repository.ComplaintRepository
	generator     ticketid.Generator
	photos        PhotoStore
	dispatcher    events.Dispatcher
	metrics       *observability.Metrics
	logger        *zap.Logger
	sanitizer     *bluemonday.Policy
	maxPhotoBytes int
	retries       int
	now           func() time.Time
}

// IntakeDependencies bundles collaborators for the intake service. PhotoStore is optional;
// without it photo bytes are stored with the complaint.
type IntakeDependencies struct {
	ComplaintRepo repository.ComplaintRepository
	Generator     ticketid.Generator
	PhotoStore    PhotoStore
	Dispatcher    events.Dispatcher
	Metrics       *observability.Metrics
	Logger        *zap.Logger
	MaxPhotoBytes int
	TicketRetries int
	Now           func() time.Time
}

// NewIntakeService constructs the service.
func NewIntakeService(deps IntakeDependencies) *IntakeService {
	s := &IntakeService{
		complaints:    deps.ComplaintRepo,
		generator:     deps.Generator,
		photos:        deps.PhotoStore,
		dispatcher:    deps.Dispatcher,
		metrics:       deps.Metrics,
		logger:        deps.Logger,
		sanitizer:     bluemonday.StrictPolicy(),
		maxPhotoBytes: deps.MaxPhotoBytes,
		retries:       deps.TicketRetries,
		now:           deps.Now,
	}
	if s.generator == nil {
		s.generator = ticketid.New()
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.maxPhotoBytes <= 0 {
		s.maxPhotoBytes = 5 * 1024 * 1024
	}
	if s.retries <= 0 {
		s.retries = 5
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Submit validates input, allocates a ticket id and stores the complaint in the received state.
func (s *IntakeService) Submit(ctx context.Context, input SubmitInput) (*SubmitResult, error) {
	input = s.normalize(input)

	ward, department, err := s.validate(input)
	if err != nil {
		return nil, err
	}

	citizen := domain.CitizenInfo{Name: input.Name, Phone: input.Phone, Email: input.Email}
	details := domain.ComplaintDetails{
		Department:  department,
		Ward:        ward,
		Type:        input.ComplaintType,
		Description: input.Description,
		Address:     input.Address,
		Priority:    domain.Priority(input.Priority),
	}

	now := s.now().UTC()
	if input.Photo != nil {
		photo, err := s.preparePhoto(ctx, input.Photo, now)
		if err != nil {
			return nil, err
		}
		details.Photo = photo
	}

	actor, receipt := WebActor, WebReceipt
	if input.Channel == events.ChannelWhatsApp {
		actor, receipt = WhatsAppActor, WhatsAppReceipt
	}
	channel := input.Channel
	if channel == "" {
		channel = events.ChannelWeb
	}

	complaint, err := s.create(ctx, citizen, details, actor, receipt, now)
	if err != nil {
		s.discardPhoto(ctx, details.Photo)
		return nil, err
	}

	s.metrics.RecordComplaint(string(channel))
	s.logger.Info("complaint registered",
		zap.String("ticket_id", complaint.TicketID),
		zap.String("channel", string(channel)),
		zap.String("department", string(department)),
		zap.String("ward", string(ward)))

	s.publish(ctx, events.Event{
		ID:          uuid.NewString(),
		Type:        events.EventComplaintCreated,
		ComplaintID: complaint.ID,
		TicketID:    complaint.TicketID,
		Actor:       actor,
		Timestamp:   now,
		Payload: events.ComplaintCreatedPayload{
			Channel:    channel,
			Citizen:    citizen,
			Department: department,
			Ward:       ward,
		},
	})

	return &SubmitResult{
		TicketID:            complaint.TicketID,
		Status:              complaint.Status,
		StatusLabel:         complaint.Status.Label(),
		EstimatedResolution: complaint.EstimatedResolution,
		SubmittedAt:         complaint.Timestamps.Submitted,
		HasPhoto:            complaint.HasPhoto(),
		Complaint:           complaint,
	}, nil
}

// create retries with a fresh ticket id whenever the store reports a duplicate.
func (s *IntakeService) create(ctx context.Context, citizen domain.CitizenInfo, details domain.ComplaintDetails, actor, receipt string, now time.Time) (*domain.Complaint, error) {
	for attempt := 1; attempt <= s.retries; attempt++ {
		id, err := s.generator.Generate()
		if err != nil {
			return nil, apperrors.NewInternalError(fmt.Errorf("generate ticket id: %w", err))
		}

		complaint := domain.NewComplaint(id, citizen, details, actor, receipt, now)
		err = s.complaints.Create(ctx, complaint)
		if err == nil {
			return complaint, nil
		}
		if errors.Is(err, repository.ErrDuplicateTicketID) {
			s.metrics.RecordTicketCollision()
			s.logger.Warn("ticket id collision, regenerating", zap.String("ticket_id", id), zap.Int("attempt", attempt))
			continue
		}
		s.logger.Error("store complaint failed", zap.Error(err))
		return nil, apperrors.NewStorageError(err)
	}
	return nil, apperrors.NewConflict("could not allocate a unique ticket id", map[string]any{"attempts": s.retries})
}

func (s *IntakeService) normalize(input SubmitInput) SubmitInput {
	input.Name = s.clean(input.Name)
	input.Phone = strings.TrimSpace(input.Phone)
	input.Email = strings.TrimSpace(input.Email)
	input.Ward = strings.TrimSpace(input.Ward)
	input.Department = strings.TrimSpace(input.Department)
	input.ComplaintType = s.clean(input.ComplaintType)
	input.Description = s.clean(input.Description)
	input.Address = s.clean(input.Address)
	input.Priority = strings.ToLower(strings.TrimSpace(input.Priority))
	return input
}

// clean strips markup from citizen supplied text and keeps it as plain text.
func (s *IntakeService) clean(value string) string {
	return strings.TrimSpace(html.UnescapeString(s.sanitizer.Sanitize(value)))
}

func (s *IntakeService) validate(input SubmitInput) (domain.Ward, domain.Department, error) {
	details := map[string]any{}
	if err := validation.Struct(input); err != nil {
		de := apperrors.ToDomainError(err)
		if de.Code != apperrors.CodeValidation {
			return "", "", err
		}
		for field, msg := range de.Details {
			details[field] = msg
		}
	}

	ward, wardOK := domain.ParseWard(input.Ward)
	if _, reported := details["ward"]; !reported && !wardOK {
		details["ward"] = fmt.Sprintf("ward must be one of Ward 1 to Ward %d", domain.WardCount)
	}
	department, deptOK := domain.ParseDepartment(input.Department)
	if _, reported := details["department"]; !reported && !deptOK {
		details["department"] = "department is not recognised"
	}

	if len(details) > 0 {
		return "", "", apperrors.NewValidationError("Validation failed", details)
	}
	return ward, department, nil
}

func (s *IntakeService) preparePhoto(ctx context.Context, upload *PhotoUpload, now time.Time) (*domain.Photo, error) {
	if len(upload.Data) == 0 {
		return nil, apperrors.NewValidationError("Validation failed", map[string]any{"photo": "photo is empty"})
	}
	if !strings.HasPrefix(strings.ToLower(upload.ContentType), "image/") {
		return nil, apperrors.NewValidationError("Only image files are allowed", map[string]any{"photo": "photo must be an image"})
	}
	if len(upload.Data) > s.maxPhotoBytes {
		return nil, apperrors.NewValidationError("Validation failed", map[string]any{
			"photo": fmt.Sprintf("photo must be at most %d bytes", s.maxPhotoBytes),
		})
	}

	filename := path.Base(strings.ReplaceAll(strings.TrimSpace(upload.Filename), "\\", "/"))
	if filename == "." || filename == "/" || filename == "" {
		filename = "photo"
	}

	photo := &domain.Photo{
		ContentType: upload.ContentType,
		Filename:    filename,
		Size:        int64(len(upload.Data)),
		UploadedAt:  now,
	}
	if s.photos == nil {
		photo.Data = upload.Data
		return photo, nil
	}

	key := fmt.Sprintf("complaints/%s/%s%s", now.Format("2006/01/02"), uuid.NewString(), path.Ext(filename))
	if err := s.photos.Put(ctx, key, upload.Data, upload.ContentType); err != nil {
		s.logger.Error("store photo failed", zap.String("key", key), zap.Error(err))
		return nil, apperrors.NewStorageError(err)
	}
	photo.ObjectKey = key
	return photo, nil
}

// discardPhoto removes an uploaded object whose complaint was never stored.
func (s *IntakeService) discardPhoto(ctx context.Context, photo *domain.Photo) {
	if s.photos == nil || photo == nil || photo.ObjectKey == "" {
		return
	}
	if err := s.photos.Delete(context.WithoutCancel(ctx), photo.ObjectKey); err != nil {
		s.logger.Warn("remove orphaned photo failed", zap.String("key", photo.ObjectKey), zap.Error(err))
	}
}

func (s *IntakeService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handlers failed", zap.String("event", string(event.Type)), zap.String("ticket_id", event.TicketID), zap.Error(err))
	}
}
