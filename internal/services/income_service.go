package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"contas/internal/core"
	"contas/internal/ports"
)

// DefaultPropagationMonths is how far ahead the client propagates income.
const DefaultPropagationMonths = 12

// propagationLimit bounds concurrent writes during propagation.
const propagationLimit = 4

// PeriodFailure reports a propagated period that could not be written.
type PeriodFailure struct {
	Year  int
	Month int
	Err   error
}

// PeriodTotaler sums paid and pending bill amounts for a period.
type PeriodTotaler interface {
	PeriodTotals(ctx context.Context, year, month int) (paid, pending decimal.Decimal, err error)
}

// IncomeService manages the monthly income ledger
type IncomeService struct {
	store  ports.IncomeStore
	totals PeriodTotaler
	now    Clock
	newID  IDGenerator
}

func NewIncomeService(store ports.IncomeStore, totals PeriodTotaler, now Clock) *IncomeService {
	if now == nil {
		now = time.Now
	}
	return &IncomeService{
		store:  store,
		totals: totals,
		now:    now,
		newID:  DefaultIDGenerator,
	}
}

func (s *IncomeService) Get(ctx context.Context, year, month int) (core.IncomeRecord, error) {
	if err := core.ValidatePeriod(year, month); err != nil {
		return core.IncomeRecord{}, err
	}
	return s.store.GetIncome(ctx, year, month)
}

// Upsert writes the income of a period, replacing any previous value.
func (s *IncomeService) Upsert(ctx context.Context, year, month int, total decimal.Decimal) (core.IncomeRecord, error) {
	if err := core.ValidateIncome(year, month, total, s.now().Year(), true); err != nil {
		return core.IncomeRecord{}, err
	}
	return s.write(ctx, year, month, total)
}

// Add increases the income of a period by extra. A missing record counts
// as zero.
func (s *IncomeService) Add(ctx context.Context, year, month int, extra decimal.Decimal) (core.IncomeRecord, error) {
	current := decimal.Zero
	rec, err := s.store.GetIncome(ctx, year, month)
	switch {
	case err == nil:
		current = rec.TotalIncome
	case !errors.Is(err, core.ErrNotFound):
		return core.IncomeRecord{}, fmt.Errorf("read income: %w", err)
	}
	return s.Upsert(ctx, year, month, current.Add(extra))
}

// Propagate writes total to the given period and to the monthsAhead periods
// that follow it. The first write must succeed; later ones are best effort
// and their failures are returned without undoing earlier writes.
func (s *IncomeService) Propagate(ctx context.Context, year, month int, total decimal.Decimal, monthsAhead int) (core.IncomeRecord, []PeriodFailure, error) {
	first, err := s.Upsert(ctx, year, month, total)
	if err != nil {
		return core.IncomeRecord{}, nil, err
	}
	if monthsAhead <= 0 {
		return first, nil, nil
	}

	var (
		mu       sync.Mutex
		failures []PeriodFailure
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(propagationLimit)

	y, m := year, month
	for i := 0; i < monthsAhead; i++ {
		y, m = core.NextPeriod(y, m)
		py, pm := y, m
		// propagated periods may lie past next year; no year bound here
		g.Go(func() error {
			if _, err := s.write(gctx, py, pm, total); err != nil {
				slog.WarnContext(ctx, "Income propagation failed",
					"year", py, "month", pm, "error", err)
				mu.Lock()
				failures = append(failures, PeriodFailure{Year: py, Month: pm, Err: err})
				mu.Unlock()
			}
			// never cancel siblings
			return nil
		})
	}
	_ = g.Wait()

	slog.InfoContext(ctx, "Income propagated",
		"year", year,
		"month", month,
		"months_ahead", monthsAhead,
		"failures", len(failures))

	return first, failures, nil
}

// Balance summarizes a period: income, what was paid and what remains.
func (s *IncomeService) Balance(ctx context.Context, year, month int) (core.Balance, error) {
	if err := core.ValidatePeriod(year, month); err != nil {
		return core.Balance{}, err
	}
	income := decimal.Zero
	rec, err := s.store.GetIncome(ctx, year, month)
	switch {
	case err == nil:
		income = rec.TotalIncome
	case !errors.Is(err, core.ErrNotFound):
		return core.Balance{}, fmt.Errorf("read income: %w", err)
	}

	paid, pending := decimal.Zero, decimal.Zero
	if s.totals != nil {
		paid, pending, err = s.totals.PeriodTotals(ctx, year, month)
		if err != nil {
			return core.Balance{}, err
		}
	}
	return core.Balance{
		Year:      year,
		Month:     month,
		Income:    income,
		Paid:      paid,
		Pending:   pending,
		Remaining: income.Sub(paid),
	}, nil
}

func (s *IncomeService) write(ctx context.Context, year, month int, total decimal.Decimal) (core.IncomeRecord, error) {
	rec, err := s.store.UpsertIncome(ctx, core.IncomeRecord{
		ID:          s.newID(),
		Year:        year,
		Month:       month,
		TotalIncome: total,
		UpdatedAt:   s.now().UTC(),
	})
	if err != nil {
		return core.IncomeRecord{}, fmt.Errorf("save income %d-%02d: %w", year, month, err)
	}
	return rec, nil
}
