package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ComplaintStatus enumerates lifecycle states for complaints.
type ComplaintStatus string

const (
	StatusReceived   ComplaintStatus = "received"
	StatusInProgress ComplaintStatus = "in_progress"
	StatusResolved   ComplaintStatus = "resolved"
)

// Statuses lists every valid status in lifecycle order.
func Statuses() []ComplaintStatus {
	return []ComplaintStatus{StatusReceived, StatusInProgress, StatusResolved}
}

func (s ComplaintStatus) IsValid() bool {
	switch s {
	case StatusReceived, StatusInProgress, StatusResolved:
		return true
	}
	return false
}

// Label returns the citizen-facing status name.
func (s ComplaintStatus) Label() string {
	switch s {
	case StatusReceived:
		return "Received"
	case StatusInProgress:
		return "In Progress"
	case StatusResolved:
		return "Resolved"
	}
	return "Unknown Status"
}

// NoticeLabel is the bilingual label used in citizen-facing messages.
func (s ComplaintStatus) NoticeLabel() string {
	switch s {
	case StatusReceived:
		return "Complaint Received / शिकायत प्राप्त"
	case StatusInProgress:
		return "Active / प्रगति में"
	case StatusResolved:
		return "Resolved / हल हो गया"
	}
	return s.Label()
}

// Priority enumerates complaint urgency.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func Priorities() []Priority {
	return []Priority{PriorityLow, PriorityMedium, PriorityHigh}
}

func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

func (p Priority) Label() string {
	switch p {
	case PriorityLow:
		return "Low"
	case PriorityHigh:
		return "High"
	}
	return "Medium"
}

// DefaultEstimatedResolution is the SLA label given to new complaints.
const DefaultEstimatedResolution = "7 days"

// ErrInvalidStatus is returned when a transition targets an unknown status.
var ErrInvalidStatus = errors.New("invalid complaint status")

// CitizenInfo identifies the person who filed the complaint.
type CitizenInfo struct {
	Name  string
	Phone string
	Email string
}

// Photo is an optional image attached at intake. Data is empty when the bytes live in an
// object store under ObjectKey, and in metadata-only projections loaded for tracking.
type Photo struct {
	Data        []byte
	ContentType string
	Filename    string
	ObjectKey   string
	Size        int64
	UploadedAt  time.Time
}

// Present reports whether the photo has retrievable content.
func (p *Photo) Present() bool {
	return p != nil && (len(p.Data) > 0 || p.ObjectKey != "")
}

// ComplaintDetails describes the grievance itself.
type ComplaintDetails struct {
	Department  Department
	Ward        Ward
	Type        string
	Description string
	Address     string
	Priority    Priority
	Photo       *Photo
}

// StatusHistoryEntry is an immutable audit trail entry.
type StatusHistoryEntry struct {
	Status    ComplaintStatus
	UpdatedBy string
	Message   string
	Timestamp time.Time
}

// ComplaintTimestamps tracks submission and last status change.
type ComplaintTimestamps struct {
	Submitted   time.Time
	LastUpdated time.Time
}

// Complaint is the aggregate for citizen grievances.
type Complaint struct {
	ID                  string
	TicketID            string
	Citizen             CitizenInfo
	Details             ComplaintDetails
	Status              ComplaintStatus
	History             []StatusHistoryEntry
	Timestamps          ComplaintTimestamps
	AssignedOfficer     string
	EstimatedResolution string
}

// NewComplaint builds a complaint in the received state with its first history entry.
func NewComplaint(ticketID string, citizen CitizenInfo, details ComplaintDetails, actor, message string, now time.Time) *Complaint {
	if details.Priority == "" {
		details.Priority = PriorityMedium
	}
	return &Complaint{
		TicketID: ticketID,
		Citizen:  citizen,
		Details:  details,
		Status:   StatusReceived,
		History: []StatusHistoryEntry{{
			Status:    StatusReceived,
			UpdatedBy: actor,
			Message:   message,
			Timestamp: now,
		}},
		Timestamps: ComplaintTimestamps{
			Submitted:   now,
			LastUpdated: now,
		},
		EstimatedResolution: DefaultEstimatedResolution,
	}
}

// Transition moves the complaint to newStatus and appends the matching history entry.
// Any status may follow any other. An empty message is replaced by a default label.
func (c *Complaint) Transition(newStatus ComplaintStatus, actor, message string, now time.Time) (StatusHistoryEntry, error) {
	if !newStatus.IsValid() {
		return StatusHistoryEntry{}, fmt.Errorf("%w: %q", ErrInvalidStatus, newStatus)
	}
	if now.Before(c.Timestamps.LastUpdated) {
		now = c.Timestamps.LastUpdated
	}
	if strings.TrimSpace(message) == "" {
		message = DefaultStatusMessage(newStatus)
	}
	entry := StatusHistoryEntry{
		Status:    newStatus,
		UpdatedBy: actor,
		Message:   strings.TrimSpace(message),
		Timestamp: now,
	}
	c.Status = newStatus
	c.Timestamps.LastUpdated = now
	c.History = append(c.History, entry)
	return entry, nil
}

// DefaultStatusMessage is the history message used when an update carries none.
func DefaultStatusMessage(status ComplaintStatus) string {
	return "Status updated to " + status.Label()
}

// HasPhoto reports whether a photo was attached at intake.
func (c *Complaint) HasPhoto() bool {
	p := c.Details.Photo
	return p != nil && (p.Present() || p.Size > 0)
}

// LastEntry returns the newest history entry.
func (c *Complaint) LastEntry() (StatusHistoryEntry, bool) {
	if len(c.History) == 0 {
		return StatusHistoryEntry{}, false
	}
	return c.History[len(c.History)-1], true
}
