package email

import (
	"context"

	"go.uber.org/zap"
)

// LoggingProvider logs the email it would have sent instead of sending it.
// It is the default provider wherever no real transport (SES, SMTP, ...) is
// configured — development, tests, and any deployment that hasn't wired one
// in yet.
type LoggingProvider struct {
	logger      *zap.Logger
	defaultFrom string
}

// NewLoggingProvider builds a LoggingProvider. defaultFrom is used when a
// Message leaves From empty.
func NewLoggingProvider(logger *zap.Logger, defaultFrom string) *LoggingProvider {
	if defaultFrom == "" {
		defaultFrom = "noreply@example.com"
	}
	return &LoggingProvider{logger: logger, defaultFrom: defaultFrom}
}

func (p *LoggingProvider) Send(_ context.Context, msg Message) error {
	from := msg.From
	if from == "" {
		from = p.defaultFrom
	}
	p.logger.Info("email logged, not sent",
		zap.String("provider", p.Name()),
		zap.String("from", from),
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
	)
	return nil
}

func (p *LoggingProvider) Name() string    { return "logging" }
func (p *LoggingProvider) Available() bool { return true }

var _ Provider = (*LoggingProvider)(nil)
