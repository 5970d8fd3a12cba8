// Package chatbot runs the WhatsApp conversation: a menu, a seven step complaint intake and
// ticket tracking. Each inbound message produces one state transition and its replies.
package chatbot

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/civicdesk/grievance-service/internal/domain"
	"github.com/civicdesk/grievance-service/internal/events"
	"github.com/civicdesk/grievance-service/internal/messaging"
	"github.com/civicdesk/grievance-service/internal/observability"
	"github.com/civicdesk/grievance-service/internal/service"
	"github.com/civicdesk/grievance-service/internal/session"
	apperrors "github.com/civicdesk/grievance-service/pkg/util/errorutil"
	"github.com/civicdesk/grievance-service/pkg/util/validation"
)

var greetings = map[string]bool{
	"hi":      true,
	"hello":   true,
	"hey":     true,
	"namaste": true,
	"नमस्ते":  true,
}

// Intake registers a complaint collected in the chat.
type Intake interface {
	Submit(ctx context.Context, input service.SubmitInput) (*service.SubmitResult, error)
}

// Tracker looks up a complaint by ticket id.
type Tracker interface {
	Track(ctx context.Context, ticketID string) (*domain.Complaint, error)
}

// Message is one inbound chat message.
type Message struct {
	From        string
	Body        string
	ProfileName string
}

// Machine drives chat sessions. Messages from the same identity are handled one at a
// time within this process.
type Machine struct {
	sessions session.Store
	sender   messaging.Sender
	intake   Intake
	tracker  Tracker
	metrics  *observability.Metrics
	logger   *zap.Logger
	now      func() time.Time
	locks    *keyedMutex
}

// Dependencies bundles collaborators for the machine.
type Dependencies struct {
	Sessions session.Store
	Sender   messaging.Sender
	Intake   Intake
	Tracker  Tracker
	Metrics  *observability.Metrics
	Logger   *zap.Logger
	Now      func() time.Time
}

// NewMachine constructs a Machine.
func NewMachine(deps Dependencies) *Machine {
	m := &Machine{
		sessions: deps.Sessions,
		sender:   deps.Sender,
		intake:   deps.Intake,
		tracker:  deps.Tracker,
		metrics:  deps.Metrics,
		logger:   deps.Logger,
		now:      deps.Now,
		locks:    newKeyedMutex(),
	}
	if m.logger == nil {
		m.logger = zap.NewNop()
	}
	if m.now == nil {
		m.now = time.Now
	}
	return m
}

// Handle processes msg, persists the resulting session and sends the replies. Reply
// delivery failures are logged; only session storage errors are returned.
func (m *Machine) Handle(ctx context.Context, msg Message) ([]string, error) {
	identity := normalizeIdentity(msg.From)
	if identity == "" {
		return nil, apperrors.NewValidationError("sender is required", map[string]any{"From": "sender is required"})
	}

	unlock := m.locks.Lock(identity)
	defer unlock()

	sess, err := m.sessions.Load(ctx, identity)
	if err != nil {
		m.logger.Error("load chat session failed", zap.String("identity", identity), zap.Error(err))
		return nil, apperrors.NewStorageError(err)
	}

	replies := m.step(ctx, sess, msg)
	m.metrics.RecordChatMessage(string(sess.State))

	if sess.State == domain.StateIdle {
		err = m.sessions.Delete(ctx, identity)
	} else {
		sess.UpdatedAt = m.now().UTC()
		err = m.sessions.Save(ctx, sess)
	}
	if err != nil {
		m.logger.Error("persist chat session failed", zap.String("identity", identity), zap.Error(err))
		return nil, apperrors.NewStorageError(err)
	}

	for _, reply := range replies {
		if err := m.sender.Send(ctx, identity, reply); err != nil {
			m.logger.Warn("chat reply not delivered", zap.String("identity", identity), zap.Error(err))
		}
	}
	return replies, nil
}

// step applies one message to sess and returns the replies. Keywords are only recognised
// outside a flow; inside one the text is data for the current step.
func (m *Machine) step(ctx context.Context, sess *domain.Session, msg Message) []string {
	text := strings.TrimSpace(msg.Body)

	switch sess.State {
	case domain.StateCollectingComplaint:
		return m.collect(ctx, sess, text)
	case domain.StateAwaitingTicketID:
		return m.track(ctx, sess, text)
	}

	lower := cases.Lower(language.Und).String(text)
	switch {
	case strings.Contains(lower, "menu"), strings.Contains(lower, "help"), greetings[lower]:
		return m.menu(sess, msg.ProfileName)
	case lower == "1", strings.Contains(lower, "submit"), strings.Contains(lower, "complaint"):
		sess.Reset()
		sess.State = domain.StateCollectingComplaint
		sess.Step = domain.StepName
		return []string{startComplaintMessage}
	case lower == "2", strings.Contains(lower, "track"), strings.Contains(lower, "status"):
		sess.Reset()
		sess.State = domain.StateAwaitingTicketID
		return []string{startTrackingMessage}
	}
	return m.menu(sess, msg.ProfileName)
}

func (m *Machine) menu(sess *domain.Session, profileName string) []string {
	sess.Reset()
	sess.State = domain.StateAwaitingMenuChoice
	return []string{menuMessage(profileName)}
}

func (m *Machine) collect(ctx context.Context, sess *domain.Session, text string) []string {
	if !m.accept(sess, text) {
		return []string{stepRetry(sess.Step)}
	}

	next, ok := sess.Step.Next()
	if ok {
		sess.Step = next
		return []string{stepPrompt(next)}
	}

	draft := sess.Draft
	sess.Reset()
	return []string{m.submit(ctx, sess.Identity, draft)}
}

// accept validates text for the current step and stores it in the draft.
func (m *Machine) accept(sess *domain.Session, text string) bool {
	d := &sess.Draft
	switch sess.Step {
	case domain.StepName:
		if utf8.RuneCountInString(text) < 2 {
			return false
		}
		d.Name = text
	case domain.StepPhone:
		if !validation.IsPhone(text) {
			return false
		}
		d.Phone = text
	case domain.StepWard:
		ward, ok := domain.ParseWard(text)
		if !ok {
			return false
		}
		d.Ward = ward
	case domain.StepDepartment:
		department, freeText, ok := parseDepartmentChoice(text)
		if !ok {
			return false
		}
		d.Department = department
		d.DepartmentText = freeText
	case domain.StepType:
		if utf8.RuneCountInString(text) < 3 {
			return false
		}
		d.Type = text
	case domain.StepAddress:
		if utf8.RuneCountInString(text) < 5 {
			return false
		}
		d.Address = text
	case domain.StepDescription:
		if utf8.RuneCountInString(text) < 10 {
			return false
		}
		d.Description = text
	default:
		return false
	}
	return true
}

// parseDepartmentChoice maps a menu number or a department name. Any other text files the
// complaint under Others and keeps the citizen's wording.
func parseDepartmentChoice(text string) (domain.Department, string, bool) {
	if text == "" {
		return "", "", false
	}
	if n, err := strconv.Atoi(text); err == nil {
		if n < 1 || n > len(menuDepartments) {
			return "", "", false
		}
		return menuDepartments[n-1], "", true
	}
	if department, ok := domain.ParseDepartment(text); ok {
		return department, "", true
	}
	return domain.DepartmentOthers, text, true
}

func (m *Machine) submit(ctx context.Context, identity string, draft domain.ComplaintDraft) string {
	description := draft.Description
	if draft.DepartmentText != "" {
		description += "\n\nDepartment (as stated): " + draft.DepartmentText
	}

	result, err := m.intake.Submit(ctx, service.SubmitInput{
		Name:          draft.Name,
		Phone:         draft.Phone,
		Ward:          string(draft.Ward),
		Department:    string(draft.Department),
		ComplaintType: draft.Type,
		Description:   description,
		Address:       draft.Address,
		Priority:      string(domain.PriorityMedium),
		Channel:       events.ChannelWhatsApp,
	})
	if err != nil {
		m.logger.Error("chat complaint submission failed", zap.String("identity", identity), zap.Error(err))
		return submitFailedMessage
	}
	return successMessage(result.TicketID, draft, result.EstimatedResolution)
}

func (m *Machine) track(ctx context.Context, sess *domain.Session, text string) []string {
	sess.Reset()
	ticketID := strings.ToUpper(text)

	complaint, err := m.tracker.Track(ctx, ticketID)
	if err != nil {
		var domainErr *apperrors.DomainError
		if errors.As(err, &domainErr) && (domainErr.Code == apperrors.CodeNotFound || domainErr.Code == apperrors.CodeValidation) {
			return []string{notFoundMessage(ticketID)}
		}
		m.logger.Error("chat tracking failed", zap.String("identity", sess.Identity), zap.Error(err))
		return []string{trackFailedMessage}
	}
	return []string{statusMessage(complaint)}
}

func normalizeIdentity(from string) string {
	return strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(from), "whatsapp:"))
}
