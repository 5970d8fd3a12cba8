// Package messaging delivers outbound citizen messages over WhatsApp and email.
package messaging

import (
	"context"
	"errors"
	"strings"
)

// ErrDeliveryFailed marks a message that could not be handed to the provider. Callers
// log it and carry on; it never fails the operation that triggered the message.
var ErrDeliveryFailed = errors.New("message delivery failed")

// Sender delivers a chat message to a channel identity.
type Sender interface {
	Send(ctx context.Context, to, body string) error
}

// EmailSender delivers a plain-text email.
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// FormatRecipient turns a stored phone number into a dialable identity. Numbers already in
// international form are kept; bare 10-digit numbers get countryCode prepended.
func FormatRecipient(phone, countryCode string) string {
	phone = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(phone), "whatsapp:"))
	if phone == "" || strings.HasPrefix(phone, "+") || countryCode == "" {
		return phone
	}
	if len(phone) == 10 {
		return countryCode + phone
	}
	return phone
}
