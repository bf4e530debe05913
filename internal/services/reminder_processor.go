package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"contas/internal/core"
	"contas/internal/ports"
)

// DueLister returns unpaid installments due within a date range.
type DueLister interface {
	DueBetween(ctx context.Context, from, to core.Date) ([]core.Installment, error)
}

// ReminderProcessor sends reminders for unpaid installments about to expire
type ReminderProcessor struct {
	bills     DueLister
	publisher ports.DueReminderPublisher
	checker   DuenessChecker
	location  *time.Location
}

// NewReminderProcessor creates a new reminder processor. A nil location
// means UTC; a nil checker means today and tomorrow.
func NewReminderProcessor(bills DueLister, publisher ports.DueReminderPublisher, checker DuenessChecker, location *time.Location) *ReminderProcessor {
	if checker == nil {
		checker = NextDayChecker{}
	}
	if location == nil {
		location = time.UTC
	}
	return &ReminderProcessor{
		bills:     bills,
		publisher: publisher,
		checker:   checker,
		location:  location,
	}
}

// ProcessDue dispatches one reminder per due installment and returns how
// many were handed to the publisher. A failed dispatch is logged and
// skipped.
func (p *ReminderProcessor) ProcessDue(ctx context.Context, now time.Time) (int, error) {
	if p.bills == nil || p.publisher == nil {
		return 0, fmt.Errorf("processor not properly initialized")
	}

	today := core.DateOf(now.In(p.location))
	from, to := p.checker.Window(today)

	due, err := p.bills.DueBetween(ctx, from, to)
	if err != nil {
		return 0, fmt.Errorf("failed to get due installments: %w", err)
	}

	slog.InfoContext(ctx, "Processing due reminders",
		"total_due", len(due),
		"processing_date", today.String())

	sent := 0
	for _, in := range due {
		when, ok := p.checker.Classify(in.DueDate, today)
		if !ok {
			continue
		}
		reminder := core.DueReminder{
			InstallmentID: in.ID,
			Name:          in.Name,
			DueDate:       in.DueDate,
			Amount:        in.InstallmentAmount,
			When:          when,
		}
		if err := p.publisher.PublishDueReminder(ctx, reminder); err != nil {
			slog.ErrorContext(ctx, "Failed to dispatch due reminder",
				"installment_id", in.ID,
				"bill_name", in.Name,
				"error", err)
			continue
		}
		sent++
	}

	slog.InfoContext(ctx, "Due reminder processing complete",
		"dispatched", sent,
		"total_checked", len(due))

	return sent, nil
}
