package accounts

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Message is an outbound email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Mailer delivers messages. Implementations wrap SMTP, an email API, or a
// log sink for development.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// Notifier sends account lifecycle notifications.
type Notifier interface {
	SendEmailConfirmation(ctx context.Context, user *User, token string) error
	SendPasswordReset(ctx context.Context, user *User, token string) error
}

// DispatchTimeout bounds background delivery of a single message.
var DispatchTimeout = 10 * time.Second

// EmailNotifier renders account emails and hands them to a Mailer. Delivery
// runs on a background goroutine so a slow mail relay cannot block the
// request that triggered it.
type EmailNotifier struct {
	mailer  Mailer
	baseURL string
	logger  Logger
}

// NewEmailNotifier creates a Notifier. Links in rendered emails are anchored
// at baseURL.
func NewEmailNotifier(mailer Mailer, baseURL string, logger Logger) *EmailNotifier {
	if logger == nil {
		logger = defLogger{}
	}
	return &EmailNotifier{
		mailer:  normalizeMailer(mailer),
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}
}

func (n *EmailNotifier) SendEmailConfirmation(ctx context.Context, user *User, token string) error {
	if user == nil {
		return ErrAccountNotFound
	}

	link := fmt.Sprintf("%s/auth/confirm/%s", n.baseURL, token)
	msg := Message{
		To:      user.Email,
		Subject: "Confirm your email address",
		Body: fmt.Sprintf(
			"Hi %s,\n\nPlease confirm your email address by visiting:\n\n%s\n\nThe link is valid for 24 hours.\n",
			user.DisplayName(),
			link,
		),
	}

	n.dispatch(msg)

	return nil
}

func (n *EmailNotifier) SendPasswordReset(ctx context.Context, user *User, token string) error {
	if user == nil {
		return ErrAccountNotFound
	}

	link := fmt.Sprintf("%s/auth/password-reset/%s", n.baseURL, token)
	msg := Message{
		To:      user.Email,
		Subject: "Reset your password",
		Body: fmt.Sprintf(
			"Hi %s,\n\nYou can reset your password by visiting:\n\n%s\n\nThe link is valid for 1 hour. If you did not request this you can ignore this email.\n",
			user.DisplayName(),
			link,
		),
	}

	n.dispatch(msg)

	return nil
}

// dispatch delivers on a fresh goroutine. The request context is not reused
// since it is canceled as soon as the response goes out.
func (n *EmailNotifier) dispatch(msg Message) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), DispatchTimeout)
		defer cancel()

		if err := n.mailer.Send(ctx, msg); err != nil {
			n.logger.Error("email delivery failed", "to", msg.To, "subject", msg.Subject, "error", err)
		}
	}()
}

var _ Notifier = (*EmailNotifier)(nil)

// LogMailer writes messages to the logger instead of delivering them. Default
// for development environments.
type LogMailer struct {
	logger Logger
}

func NewLogMailer(logger Logger) *LogMailer {
	if logger == nil {
		logger = defLogger{}
	}
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(_ context.Context, msg Message) error {
	m.logger.Info("outbound email", "to", msg.To, "subject", msg.Subject, "body", msg.Body)
	return nil
}

type noopMailer struct{}

func (noopMailer) Send(context.Context, Message) error {
	return nil
}

func normalizeMailer(m Mailer) Mailer {
	if m == nil {
		return noopMailer{}
	}
	return m
}

type noopNotifier struct{}

func (noopNotifier) SendEmailConfirmation(context.Context, *User, string) error { return nil }
func (noopNotifier) SendPasswordReset(context.Context, *User, string) error     { return nil }

func normalizeNotifier(n Notifier) Notifier {
	if n == nil {
		return noopNotifier{}
	}
	return n
}
