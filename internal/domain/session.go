package domain

import "time"

// ConversationState is the coarse position of a chat dialog.
type ConversationState string

const (
	StateIdle                ConversationState = "idle"
	StateAwaitingMenuChoice  ConversationState = "awaiting_menu_choice"
	StateCollectingComplaint ConversationState = "collecting_complaint"
	StateAwaitingTicketID    ConversationState = "awaiting_ticket_id"
)

// Step is the next field collected while in StateCollectingComplaint.
type Step string

const (
	StepName        Step = "name"
	StepPhone       Step = "phone"
	StepWard        Step = "ward"
	StepDepartment  Step = "department"
	StepType        Step = "type"
	StepAddress     Step = "address"
	StepDescription Step = "description"
)

var steps = []Step{StepName, StepPhone, StepWard, StepDepartment, StepType, StepAddress, StepDescription}

// Steps returns the collection order.
func Steps() []Step {
	return append([]Step(nil), steps...)
}

// Index is the 1-based position of s in the collection order, or 0 if unknown.
func (s Step) Index() int {
	for i, candidate := range steps {
		if candidate == s {
			return i + 1
		}
	}
	return 0
}

// Next returns the step after s; ok is false for the last step.
func (s Step) Next() (Step, bool) {
	i := s.Index()
	if i == 0 || i >= len(steps) {
		return "", false
	}
	return steps[i], true
}

// ComplaintDraft accumulates fields across chat turns.
type ComplaintDraft struct {
	Name           string     `json:"name,omitempty"`
	Phone          string     `json:"phone,omitempty"`
	Ward           Ward       `json:"ward,omitempty"`
	Department     Department `json:"department,omitempty"`
	DepartmentText string     `json:"departmentText,omitempty"`
	Type           string     `json:"type,omitempty"`
	Address        string     `json:"address,omitempty"`
	Description    string     `json:"description,omitempty"`
}

// Session is the ephemeral dialog state for one channel identity.
type Session struct {
	Identity  string            `json:"identity"`
	State     ConversationState `json:"state"`
	Step      Step              `json:"step,omitempty"`
	Draft     ComplaintDraft    `json:"draft"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

// NewSession creates an idle session.
func NewSession(identity string, now time.Time) *Session {
	return &Session{Identity: identity, State: StateIdle, UpdatedAt: now}
}

// Reset returns the session to idle and discards the draft.
func (s *Session) Reset() {
	s.State = StateIdle
	s.Step = ""
	s.Draft = ComplaintDraft{}
}
