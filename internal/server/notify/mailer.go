package notify

import (
	"context"

	"github.com/dmitrijs2005/giftauth/internal/logging"
)

// Mailer is the email collaborator of the auth flows. Delivery internals
// live behind it.
type Mailer interface {
	SendVerificationEmail(ctx context.Context, to, code, name string) error
	SendForgotPasswordEmail(ctx context.Context, to, token, name string) error
	SendPasswordResetConfirmationEmail(ctx context.Context, to, name string) error
}

// LogMailer records that an email would have been sent. Codes and tokens
// are not written to the log.
type LogMailer struct {
	logger logging.Logger
}

func NewLogMailer(logger logging.Logger) *LogMailer {
	return &LogMailer{logger: logger.With("module", "mailer")}
}

func (m *LogMailer) SendVerificationEmail(ctx context.Context, to, code, name string) error {
	m.logger.Info(ctx, "verification email", "to", to, "name", name)
	return nil
}

func (m *LogMailer) SendForgotPasswordEmail(ctx context.Context, to, token, name string) error {
	m.logger.Info(ctx, "forgot password email", "to", to, "name", name)
	return nil
}

func (m *LogMailer) SendPasswordResetConfirmationEmail(ctx context.Context, to, name string) error {
	m.logger.Info(ctx, "password reset confirmation email", "to", to, "name", name)
	return nil
}
