package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/civicdesk/grievance-service/internal/config"
)

// TwilioSender posts WhatsApp messages to the Twilio Messages API. Calls go through a
// circuit breaker so an unreachable provider fails fast instead of stalling every reply.
type TwilioSender struct {
	cfg     config.WhatsAppConfig
	logger  *zap.Logger
	breaker *gobreaker.CircuitBreaker[[]byte]
	timeout time.Duration
}

type twilioError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// statusError is a non-2xx answer from the Messages API.
type statusError struct {
	status  int
	code    int
	message string
}

func (e *statusError) Error() string {
	if e.message != "" {
		return fmt.Sprintf("twilio status %d: %s (code %d)", e.status, e.message, e.code)
	}
	return fmt.Sprintf("twilio status %d", e.status)
}

// recipientFault reports whether err concerns only the request itself (bad number, opted-out
// recipient) rather than the provider. Such failures must not trip the breaker.
func recipientFault(err error) bool {
	var se *statusError
	if !errors.As(err, &se) {
		return false
	}
	return se.status >= 400 && se.status < 500 && se.status != 429
}

// NewTwilioSender creates a sender for the configured account.
func NewTwilioSender(cfg config.WhatsAppConfig, logger *zap.Logger) *TwilioSender {
	failures := uint32(cfg.BreakerFailures)
	if failures == 0 {
		failures = 5
	}
	openFor := time.Duration(cfg.BreakerOpenSeconds) * time.Second
	if openFor <= 0 {
		openFor = 30 * time.Second
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	s := &TwilioSender{cfg: cfg, logger: logger, timeout: timeout}
	s.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "twilio-whatsapp",
		MaxRequests: 1,
		Timeout:     openFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || recipientFault(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
	return s
}

// Send delivers body to the WhatsApp identity to.
func (s *TwilioSender) Send(ctx context.Context, to, body string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}
	recipient := FormatRecipient(to, s.cfg.CountryCode)

	_, err := s.breaker.Execute(func() ([]byte, error) {
		return s.post(ctx, recipient, body)
	})
	if err != nil {
		return fmt.Errorf("%w: whatsapp to %s: %v", ErrDeliveryFailed, recipient, err)
	}
	return nil
}

func (s *TwilioSender) post(ctx context.Context, to, body string) ([]byte, error) {
	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json",
		strings.TrimRight(s.cfg.APIBaseURL, "/"), s.cfg.AccountSID)

	timeout := s.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}

	args := fiber.AcquireArgs()
	defer fiber.ReleaseArgs(args)
	args.Set("From", "whatsapp:"+s.cfg.FromNumber)
	args.Set("To", "whatsapp:"+to)
	args.Set("Body", body)

	agent := fiber.Post(endpoint)
	agent.BasicAuth(s.cfg.AccountSID, s.cfg.AuthToken)
	agent.Form(args)
	agent.Timeout(timeout)

	code, resp, errs := agent.Bytes()
	if len(errs) > 0 {
		return nil, errs[0]
	}
	if code < 200 || code >= 300 {
		se := &statusError{status: code}
		var apiErr twilioError
		if json.Unmarshal(resp, &apiErr) == nil {
			se.code, se.message = apiErr.Code, apiErr.Message
		}
		return nil, se
	}
	return resp, nil
}

// State exposes the breaker state for readiness reporting.
func (s *TwilioSender) State() string {
	return s.breaker.State().String()
}
