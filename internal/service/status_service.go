package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/civicdesk/grievance-service/internal/domain"
	"github.com/civicdesk/grievance-service/internal/events"
	"github.com/civicdesk/grievance-service/internal/observability"
	"github.com/civicdesk/grievance-service/internal/repository"
	apperrors "github.com/civicdesk/grievance-service/pkg/util/errorutil"
)

// StatusService applies admin status changes and records them in the complaint history.
type StatusService struct {
	complaints repository.ComplaintRepository
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
	now        func() time.Time
}

// StatusDependencies bundles collaborators for the status service.
type StatusDependencies struct {
	ComplaintRepo repository.ComplaintRepository
	Dispatcher    events.Dispatcher
	Metrics       *observability.Metrics
	Logger        *zap.Logger
	Now           func() time.Time
}

// NewStatusService constructs the service.
func NewStatusService(deps StatusDependencies) *StatusService {
	s := &StatusService{
		complaints: deps.ComplaintRepo,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
		now:        deps.Now,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// UpdateStatus moves complaint id to status on behalf of admin. Any status may follow any
// other; an empty message is replaced by "Status updated to <label>".
func (s *StatusService) UpdateStatus(ctx context.Context, admin *domain.Admin, id string, status domain.ComplaintStatus, message string) (*domain.Complaint, error) {
	if !status.IsValid() {
		return nil, apperrors.NewValidationError("Invalid status", map[string]any{
			"status": "status must be one of received, in_progress, resolved",
		})
	}

	complaint, err := s.complaints.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("Complaint", map[string]any{"id": id})
		}
		return nil, apperrors.NewStorageError(err)
	}
	if !inScope(admin, complaint) {
		return nil, apperrors.NewNotFound("Complaint", map[string]any{"id": id})
	}

	actor := "Admin"
	if admin != nil && admin.Username != "" {
		actor = admin.Username
	}
	oldStatus := complaint.Status
	entry, err := complaint.Transition(status, actor, strings.TrimSpace(message), s.now().UTC())
	if err != nil {
		return nil, apperrors.NewValidationError("Invalid status", map[string]any{"status": err.Error()})
	}

	if err := s.complaints.AppendStatus(ctx, complaint.ID, entry); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("Complaint", map[string]any{"id": id})
		}
		s.logger.Error("append status failed", zap.String("ticket_id", complaint.TicketID), zap.Error(err))
		return nil, apperrors.NewStorageError(err)
	}

	s.metrics.RecordStatusChange(string(status))
	s.logger.Info("complaint status updated",
		zap.String("ticket_id", complaint.TicketID),
		zap.String("from", string(oldStatus)),
		zap.String("to", string(status)),
		zap.String("actor", actor))

	if s.dispatcher != nil {
		err := s.dispatcher.Publish(ctx, events.Event{
			ID:          uuid.NewString(),
			Type:        events.EventComplaintStatusChanged,
			ComplaintID: complaint.ID,
			TicketID:    complaint.TicketID,
			Actor:       actor,
			Timestamp:   entry.Timestamp,
			Payload: events.ComplaintStatusChangedPayload{
				OldStatus: oldStatus,
				NewStatus: status,
				Message:   entry.Message,
				Citizen:   complaint.Citizen,
			},
		})
		if err != nil {
			s.logger.Warn("event handlers failed", zap.String("ticket_id", complaint.TicketID), zap.Error(err))
		}
	}
	return complaint, nil
}
