package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"contas/internal/amqp"
	"contas/internal/notify"
)

// maxReminderAge drops messages that sat in the queue past their due date.
const maxReminderAge = 48 * time.Hour

// ReminderWorker turns due reminder messages into notifications
type ReminderWorker struct {
	notifier notify.Notifier
	now      func() time.Time
}

func NewReminderWorker(n notify.Notifier) *ReminderWorker {
	return &ReminderWorker{notifier: n, now: time.Now}
}

// HandleDueReminder processes a single due reminder message from AMQP
func (w *ReminderWorker) HandleDueReminder(ctx context.Context, msg *amqp.DueReminderMessage) error {
	r := msg.Reminder
	if !msg.Timestamp.IsZero() && w.now().Sub(msg.Timestamp) > maxReminderAge {
		slog.WarnContext(ctx, "Dropping stale due reminder",
			"installment_id", r.InstallmentID,
			"published_at", msg.Timestamp)
		return nil
	}

	slog.InfoContext(ctx, "Processing due reminder",
		"installment_id", r.InstallmentID,
		"bill_name", r.Name,
		"when", string(r.When))

	if err := w.notifier.Notify(ctx, r); err != nil {
		return fmt.Errorf("notify %s: %w", r.InstallmentID, err)
	}
	return nil
}
