package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/civicdesk/grievance-service/internal/chatbot"
	apperrors "github.com/civicdesk/grievance-service/pkg/util/errorutil"
)

// ChatMachine handles one inbound chat message.
type ChatMachine interface {
	Handle(ctx context.Context, msg chatbot.Message) ([]string, error)
}

// WhatsAppHandler receives Twilio WhatsApp webhooks.
type WhatsAppHandler struct {
	machine ChatMachine
	logger  *zap.Logger
}

// NewWhatsAppHandler constructs handler.
func NewWhatsAppHandler(machine ChatMachine, logger *zap.Logger) *WhatsAppHandler {
	return &WhatsAppHandler{machine: machine, logger: logger}
}

type webhookForm struct {
	Body        string `form:"Body"`
	From        string `form:"From"`
	ProfileName string `form:"ProfileName"`
}

// Webhook POST /api/whatsapp/webhook. Replies are sent through the messaging provider; the
// HTTP response is a plain acknowledgement.
func (h *WhatsAppHandler) Webhook(c *fiber.Ctx) error {
	var form webhookForm
	if err := c.BodyParser(&form); err != nil {
		return apperrors.NewValidationError("invalid webhook payload", nil)
	}
	if form.From == "" {
		return apperrors.NewValidationError("invalid webhook payload", map[string]any{"From": "sender is required"})
	}

	h.logger.Info("whatsapp message received", zap.String("from", form.From), zap.Int("length", len(form.Body)))
	if _, err := h.machine.Handle(c.UserContext(), chatbot.Message{
		From:        form.From,
		Body:        form.Body,
		ProfileName: form.ProfileName,
	}); err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).SendString("OK")
}
