// Package mail provides Mailer implementations. The log mailer is for
// development; real deployments plug in their delivery provider behind
// identity.Mailer.
package mail

import (
	"context"
	"log/slog"
)

// LogMailer writes lifecycle mails to a structured log instead of sending
// them. The raw token is logged, so never use it outside development.
type LogMailer struct {
	log *slog.Logger
}

// NewLogMailer returns a LogMailer writing to l, or slog.Default() when l
// is nil.
func NewLogMailer(l *slog.Logger) *LogMailer {
	if l == nil {
		l = slog.Default()
	}
	return &LogMailer{log: l}
}

func (m *LogMailer) SendPasswordReset(_ context.Context, email, token string) error {
	m.log.Info("password reset mail", "to", email, "token", token)
	return nil
}

func (m *LogMailer) SendEmailChangeVerification(_ context.Context, email, token string) error {
	m.log.Info("email change verification mail", "to", email, "token", token)
	return nil
}
