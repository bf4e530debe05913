// Package notify delivers due reminders to people.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"contas/internal/core"
)

// Notifier delivers one reminder.
type Notifier interface {
	Notify(ctx context.Context, r core.DueReminder) error
}

// Subject returns the reminder e-mail subject.
func Subject(r core.DueReminder) string {
	return fmt.Sprintf("aviso: conta %q vence %s", r.Name, r.When.Label())
}

// Body returns the plain-text reminder e-mail.
func Body(r core.DueReminder) string {
	return fmt.Sprintf("Olá, esta é uma notificação automática.\n\n"+
		"A conta %s no valor de R$%s vence %s em %s.\n\n"+
		"Por favor, organize seu pagamento!\n\n"+
		"-- Contas-Mensais\n",
		r.Name,
		r.Amount.StringFixed(2),
		r.When.Label(),
		r.DueDate.Format("02/01/2006"))
}

// SMTPConfig holds what SMTPNotifier needs to reach the mail server.
type SMTPConfig struct {
	Host       string
	Port       int
	Username   string
	Password   string
	From       string
	Recipients []string
}

// SendFunc matches smtp.SendMail.
type SendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPNotifier sends one message per configured recipient.
type SMTPNotifier struct {
	cfg  SMTPConfig
	send SendFunc
}

func NewSMTPNotifier(cfg SMTPConfig) (*SMTPNotifier, error) {
	if cfg.Host == "" {
		return nil, errors.New("smtp host is required")
	}
	if len(cfg.Recipients) == 0 {
		return nil, errors.New("at least one recipient is required")
	}
	if cfg.From == "" {
		cfg.From = cfg.Username
	}
	return &SMTPNotifier{cfg: cfg, send: smtp.SendMail}, nil
}

func (n *SMTPNotifier) Notify(ctx context.Context, r core.DueReminder) error {
	addr := net.JoinHostPort(n.cfg.Host, strconv.Itoa(n.cfg.Port))
	var auth smtp.Auth
	if n.cfg.Username != "" {
		auth = smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)
	}

	var errs []error
	for _, to := range n.cfg.Recipients {
		if err := ctx.Err(); err != nil {
			return err
		}
		msg := buildMessage(n.cfg.From, to, Subject(r), Body(r))
		if err := n.send(addr, auth, n.cfg.From, []string{to}, msg); err != nil {
			errs = append(errs, fmt.Errorf("send to %s: %w", to, err))
			continue
		}
		slog.InfoContext(ctx, "Reminder e-mail sent",
			"recipient", to,
			"bill_name", r.Name,
			"when", string(r.When))
	}
	return errors.Join(errs...)
}

func buildMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	return []byte(b.String())
}

// LogNotifier writes reminders to the log. Used when SMTP is not set up.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(ctx context.Context, r core.DueReminder) error {
	n.logger.InfoContext(ctx, "Due reminder",
		"subject", Subject(r),
		"installment_id", r.InstallmentID,
		"due_date", r.DueDate.String(),
		"amount", r.Amount.StringFixed(2))
	return nil
}

// DirectPublisher hands reminders straight to a Notifier, skipping the
// broker.
type DirectPublisher struct {
	notifier Notifier
}

func NewDirectPublisher(n Notifier) *DirectPublisher {
	return &DirectPublisher{notifier: n}
}

func (p *DirectPublisher) PublishDueReminder(ctx context.Context, r core.DueReminder) error {
	return p.notifier.Notify(ctx, r)
}
