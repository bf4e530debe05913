package notify

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"contas/internal/core"
)

func sampleReminder(when core.DueWhen) core.DueReminder {
	return core.DueReminder{
		InstallmentID: "abc",
		Name:          "Energia",
		DueDate:       core.NewDate(2025, 1, 31),
		Amount:        decimal.RequireFromString("120.5"),
		When:          when,
	}
}

func TestSubjectAndBody(t *testing.T) {
	r := sampleReminder(core.DueTomorrow)

	if got := Subject(r); got != `aviso: conta "Energia" vence amanhã` {
		t.Errorf("Subject() = %q", got)
	}
	body := Body(r)
	for _, want := range []string{
		"Olá, esta é uma notificação automática.",
		"A conta Energia no valor de R$120.50 vence amanhã em 31/01/2025.",
		"Por favor, organize seu pagamento!",
		"-- Contas-Mensais",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q:\n%s", want, body)
		}
	}
	if got := Subject(sampleReminder(core.DueToday)); !strings.HasSuffix(got, "vence hoje") {
		t.Errorf("Subject() for today = %q", got)
	}
}

type sentMail struct {
	addr string
	to   []string
	msg  string
}

func TestSMTPNotifier_SendsToEachRecipient(t *testing.T) {
	n, err := NewSMTPNotifier(SMTPConfig{
		Host:       "smtp.gmail.com",
		Port:       587,
		Username:   "contas@example.com",
		Password:   "secret",
		Recipients: []string{"a@example.com", "b@example.com"},
	})
	if err != nil {
		t.Fatalf("new notifier: %v", err)
	}

	var sent []sentMail
	n.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		if from != "contas@example.com" {
			t.Errorf("from = %s", from)
		}
		sent = append(sent, sentMail{addr: addr, to: to, msg: string(msg)})
		return nil
	}

	if err := n.Notify(context.Background(), sampleReminder(core.DueToday)); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(sent) != 2 {
		t.Fatalf("expected 2 mails, got %d", len(sent))
	}
	if sent[0].addr != "smtp.gmail.com:587" || sent[1].to[0] != "b@example.com" {
		t.Errorf("unexpected delivery %+v", sent)
	}
	if !strings.Contains(sent[0].msg, "Subject: aviso: conta \"Energia\" vence hoje\r\n") {
		t.Errorf("missing subject header:\n%s", sent[0].msg)
	}
}

func TestSMTPNotifier_ContinuesAfterRecipientFailure(t *testing.T) {
	n, _ := NewSMTPNotifier(SMTPConfig{Host: "localhost", Port: 25, Recipients: []string{"bad@example.com", "good@example.com"}})
	var delivered []string
	n.send = func(_ string, _ smtp.Auth, _ string, to []string, _ []byte) error {
		if to[0] == "bad@example.com" {
			return errors.New("550 mailbox unavailable")
		}
		delivered = append(delivered, to[0])
		return nil
	}

	err := n.Notify(context.Background(), sampleReminder(core.DueToday))
	if err == nil || !strings.Contains(err.Error(), "bad@example.com") {
		t.Fatalf("expected error naming the failed recipient, got %v", err)
	}
	if len(delivered) != 1 || delivered[0] != "good@example.com" {
		t.Fatalf("good recipient should still get the mail, got %v", delivered)
	}
}

func TestNewSMTPNotifier_Validation(t *testing.T) {
	if _, err := NewSMTPNotifier(SMTPConfig{Recipients: []string{"a@example.com"}}); err == nil {
		t.Error("expected error without host")
	}
	if _, err := NewSMTPNotifier(SMTPConfig{Host: "localhost"}); err == nil {
		t.Error("expected error without recipients")
	}
}

type recordingNotifier struct{ got []core.DueReminder }

func (r *recordingNotifier) Notify(_ context.Context, d core.DueReminder) error {
	r.got = append(r.got, d)
	return nil
}

func TestDirectPublisher(t *testing.T) {
	rec := &recordingNotifier{}
	pub := NewDirectPublisher(rec)
	if err := pub.PublishDueReminder(context.Background(), sampleReminder(core.DueToday)); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(rec.got) != 1 || rec.got[0].InstallmentID != "abc" {
		t.Fatalf("unexpected notifications %+v", rec.got)
	}
}

func TestLogNotifier(t *testing.T) {
	if err := NewLogNotifier(nil).Notify(context.Background(), sampleReminder(core.DueToday)); err != nil {
		t.Fatalf("log notifier should not fail: %v", err)
	}
}
