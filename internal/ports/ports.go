package ports

import (
	"context"

	"contas/internal/core"
)

// Ports for outbound adapters.
type (
	// BillStore persists installments. Lookups of a missing id return an
	// error wrapping core.ErrNotFound.
	BillStore interface {
		Get(ctx context.Context, id string) (core.Installment, error)
		// InsertBatch stores every row or none.
		InsertBatch(ctx context.Context, rows []core.Installment) error
		// ReplaceCohort deletes the rows named name with a due date on or
		// after from, then inserts replacement, atomically.
		ReplaceCohort(ctx context.Context, name string, from core.Date, replacement []core.Installment) error
		SetPaid(ctx context.Context, id string, paid bool) error
		Delete(ctx context.Context, id string) error
		// ListAll returns every row; grouping needs the whole dataset.
		ListAll(ctx context.Context) ([]core.Installment, error)
		ListByPeriod(ctx context.Context, year, month int) ([]core.Installment, error)
		// ListUnpaidDueBetween returns unpaid rows with from <= due <= to.
		ListUnpaidDueBetween(ctx context.Context, from, to core.Date) ([]core.Installment, error)
	}

	// IncomeStore keeps at most one record per (year, month).
	IncomeStore interface {
		GetIncome(ctx context.Context, year, month int) (core.IncomeRecord, error)
		UpsertIncome(ctx context.Context, rec core.IncomeRecord) (core.IncomeRecord, error)
	}

	// Pinger reports store liveness for readiness checks.
	Pinger interface {
		Ping(ctx context.Context) error
	}

	// DueReminderPublisher hands a reminder to whatever delivers it.
	DueReminderPublisher interface {
		PublishDueReminder(ctx context.Context, r core.DueReminder) error
	}
)
