package events

import (
	"time"

	"github.com/civicdesk/grievance-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventComplaintCreated       EventType = "complaint_created"
	EventComplaintStatusChanged EventType = "complaint_status_changed"
)

// Channel identifies where a complaint entered the system.
type Channel string

const (
	ChannelWeb      Channel = "web"
	ChannelWhatsApp Channel = "whatsapp"
)

// Event represents a domain event emitted by services after the change is committed.
type Event struct {
	ID          string    `json:"id"`
	Type        EventType `json:"type"`
	ComplaintID string    `json:"complaint_id"`
	TicketID    string    `json:"ticket_id"`
	Actor       string    `json:"actor"`
	Timestamp   time.Time `json:"timestamp"`
	Payload     any       `json:"payload"`
}

// ComplaintCreatedPayload carries what notifiers need to acknowledge a new complaint.
type ComplaintCreatedPayload struct {
	Channel    Channel            `json:"channel"`
	Citizen    domain.CitizenInfo `json:"citizen"`
	Department domain.Department  `json:"department"`
	Ward       domain.Ward        `json:"ward"`
}

// ComplaintStatusChangedPayload describes a status transition.
type ComplaintStatusChangedPayload struct {
	OldStatus domain.ComplaintStatus `json:"old_status"`
	NewStatus domain.ComplaintStatus `json:"new_status"`
	Message   string                 `json:"message"`
	Citizen   domain.CitizenInfo     `json:"citizen"`
}
