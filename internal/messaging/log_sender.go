package messaging

import (
	"context"

	"go.uber.org/zap"
)

// LogSender writes messages to the log instead of delivering them. It stands in for
// WhatsApp and email when no provider is configured.
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender creates a LogSender.
func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(_ context.Context, to, body string) error {
	s.logger.Info("outbound chat message (not delivered)", zap.String("to", to), zap.Int("length", len(body)))
	s.logger.Debug("outbound chat message body", zap.String("to", to), zap.String("body", body))
	return nil
}

func (s *LogSender) SendEmail(_ context.Context, to, subject, _ string) error {
	s.logger.Info("outbound email (not delivered)", zap.String("to", to), zap.String("subject", subject))
	return nil
}
