package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/civicdesk/grievance-service/internal/events"
	"github.com/civicdesk/grievance-service/internal/messaging"
	"github.com/civicdesk/grievance-service/internal/observability"
)

// JobQueue runs notification deliveries off the request path. Submit reports false when
// the job was dropped.
type JobQueue interface {
	Submit(name string, job func(ctx context.Context) error) bool
}

// NotificationService turns complaint events into citizen messages. Delivery is best
// effort; failures are logged and counted but never surface to the caller.
type NotificationService struct {
	dispatcher  events.Dispatcher
	whatsapp    messaging.Sender
	email       messaging.EmailSender
	queue       JobQueue
	countryCode string
	metrics     *observability.Metrics
	logger      *zap.Logger
}

// NotificationDependencies bundles collaborators. Email and Queue are optional; without a
// queue messages are sent inline.
type NotificationDependencies struct {
	Dispatcher  events.Dispatcher
	WhatsApp    messaging.Sender
	Email       messaging.EmailSender
	Queue       JobQueue
	CountryCode string
	Metrics     *observability.Metrics
	Logger      *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(deps NotificationDependencies) *NotificationService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher:  deps.Dispatcher,
		whatsapp:    deps.WhatsApp,
		email:       deps.Email,
		queue:       deps.Queue,
		countryCode: deps.CountryCode,
		metrics:     deps.Metrics,
		logger:      logger,
	}
}

// SetQueue routes deliveries through queue.
func (n *NotificationService) SetQueue(queue JobQueue) {
	n.queue = queue
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventComplaintCreated, n.handleComplaintCreated)
	n.dispatcher.Subscribe(events.EventComplaintStatusChanged, n.handleComplaintStatusChanged)
}

func (n *NotificationService) handleComplaintCreated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.ComplaintCreatedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
	}
	n.logger.Info("ComplaintCreated", zap.String("ticket_id", event.TicketID), zap.String("channel", string(payload.Channel)))

	// the chat flow already confirms the ticket in the conversation
	if payload.Channel == events.ChannelWhatsApp {
		return nil
	}

	body := ConfirmationMessage(event.TicketID, string(payload.Department), string(payload.Ward))
	n.deliver(event, payload.Citizen.Phone, payload.Citizen.Email, "Complaint registered: "+event.TicketID, body)
	return nil
}

func (n *NotificationService) handleComplaintStatusChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.ComplaintStatusChangedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
	}
	n.logger.Info("ComplaintStatusChanged",
		zap.String("ticket_id", event.TicketID),
		zap.String("from", string(payload.OldStatus)),
		zap.String("to", string(payload.NewStatus)))

	body := StatusUpdateMessage(event.TicketID, payload.NewStatus.NoticeLabel(), payload.Message, event.Timestamp)
	subject := fmt.Sprintf("Complaint %s: %s", event.TicketID, payload.NewStatus.Label())
	n.deliver(event, payload.Citizen.Phone, payload.Citizen.Email, subject, body)
	return nil
}

func (n *NotificationService) deliver(event events.Event, phone, email, subject, body string) {
	if phone = strings.TrimSpace(phone); phone != "" && n.whatsapp != nil {
		to := messaging.FormatRecipient(phone, n.countryCode)
		n.enqueue("whatsapp:"+event.TicketID, "whatsapp", func(ctx context.Context) error {
			return n.whatsapp.Send(ctx, to, body)
		})
	}
	if email = strings.TrimSpace(email); email != "" && n.email != nil {
		n.enqueue("email:"+event.TicketID, "email", func(ctx context.Context) error {
			return n.email.SendEmail(ctx, email, subject, body)
		})
	}
}

func (n *NotificationService) enqueue(name, channel string, send func(ctx context.Context) error) {
	job := func(ctx context.Context) error {
		err := send(ctx)
		n.metrics.RecordNotification(channel, err == nil)
		if err != nil {
			n.logger.Warn("notification failed", zap.String("job", name), zap.Error(err))
			return nil
		}
		n.logger.Debug("notification sent", zap.String("job", name))
		return nil
	}

	if n.queue == nil {
		_ = job(context.Background())
		return
	}
	if !n.queue.Submit(name, job) {
		n.metrics.RecordNotification(channel, false)
		n.logger.Warn("notification dropped, queue full", zap.String("job", name))
	}
}

// ConfirmationMessage acknowledges a complaint submitted outside the chat.
func ConfirmationMessage(ticketID, department, ward string) string {
	return fmt.Sprintf(`✅ Complaint Registered
शिकायत दर्ज की गई

🎫 Ticket ID: *%s*
🏢 Department: %s
📍 Ward: %s

⏰ Estimated Resolution: 7 days
अनुमानित समाधान: 7 दिन

Type "%s" to check status.
स्थिति जांचने के लिए "%s" टाइप करें।`, ticketID, department, ward, ticketID, ticketID)
}

// StatusUpdateMessage tells the citizen their complaint moved to a new status.
func StatusUpdateMessage(ticketID, statusLabel, message string, at time.Time) string {
	date := at.Format("02/01/2006")
	return fmt.Sprintf(`📋 Complaint Status Update
शिकायत स्थिति अपडेट

🎫 Ticket ID: *%s*
📊 New Status: *%s*
नई स्थिति: *%s*

💬 Update Message:
अपडेट संदेश:
%s

📅 Updated: %s
अपडेट किया गया: %s

Type "%s" to check full status.
पूरी स्थिति जांचने के लिए "%s" टाइप करें।`, ticketID, statusLabel, statusLabel, message, date, date, ticketID, ticketID)
}
