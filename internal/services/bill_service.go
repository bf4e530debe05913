package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"contas/internal/core"
	"contas/internal/ports"
)

// Clock returns the current time.
type Clock func() time.Time

// BillService orchestrates bill operations over a BillStore
type BillService struct {
	store ports.BillStore
	now   Clock
	newID IDGenerator
}

// BillOption customizes a BillService.
type BillOption func(*BillService)

// WithClock replaces the time source used for validation.
func WithClock(c Clock) BillOption {
	return func(s *BillService) { s.now = c }
}

// WithIDGenerator replaces the installment id source.
func WithIDGenerator(g IDGenerator) BillOption {
	return func(s *BillService) { s.newID = g }
}

func NewBillService(store ports.BillStore, opts ...BillOption) *BillService {
	s := &BillService{
		store: store,
		now:   time.Now,
		newID: DefaultIDGenerator,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create validates and expands req, then stores every installment at once.
func (s *BillService) Create(ctx context.Context, req core.BillRequest) ([]core.Annotated, error) {
	if err := req.Validate(s.now().Year()); err != nil {
		return nil, err
	}
	rows, err := Expand(req, s.newID)
	if err != nil {
		return nil, err
	}
	if err := s.store.InsertBatch(ctx, rows); err != nil {
		return nil, fmt.Errorf("save installments: %w", err)
	}

	return s.annotate(ctx, rows)
}

// Edit replaces the installment id and every later installment with the
// same name by the expansion of req.
func (s *BillService) Edit(ctx context.Context, id string, req core.BillRequest) ([]core.Annotated, error) {
	if err := req.Validate(s.now().Year()); err != nil {
		return nil, err
	}
	existing, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	rows, err := Expand(req, s.newID)
	if err != nil {
		return nil, err
	}
	if err := s.store.ReplaceCohort(ctx, existing.Name, existing.DueDate, rows); err != nil {
		return nil, fmt.Errorf("replace installments: %w", err)
	}

	slog.InfoContext(ctx, "Bill edited",
		"installment_id", id,
		"bill_name", existing.Name,
		"new_name", rows[0].Name,
		"installments", len(rows))

	return s.annotate(ctx, rows)
}

// SetPaid marks or unmarks an installment. Repeating the call is harmless.
func (s *BillService) SetPaid(ctx context.Context, id string, paid bool) (core.Annotated, error) {
	if err := s.store.SetPaid(ctx, id, paid); err != nil {
		return core.Annotated{}, err
	}
	in, err := s.store.Get(ctx, id)
	if err != nil {
		return core.Annotated{}, err
	}
	out, err := s.annotate(ctx, []core.Installment{in})
	if err != nil {
		return core.Annotated{}, err
	}
	return out[0], nil
}

func (s *BillService) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Installment deleted", "installment_id", id)
	return nil
}

// List returns the installments of a period, positioned within their whole
// name group.
func (s *BillService) List(ctx context.Context, year, month int) ([]core.Annotated, error) {
	if err := core.ValidatePeriod(year, month); err != nil {
		return nil, err
	}
	rows, err := s.store.ListByPeriod(ctx, year, month)
	if err != nil {
		return nil, fmt.Errorf("list period: %w", err)
	}
	sortByDue(rows)
	return s.annotate(ctx, rows)
}

// Search matches term against names ignoring case and accents. year and
// month narrow the result when non-zero.
func (s *BillService) Search(ctx context.Context, term string, year, month int) ([]core.Annotated, error) {
	if strings.TrimSpace(term) == "" {
		return nil, core.ErrEmptySearchTerm
	}
	all, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list installments: %w", err)
	}

	var matched []core.Installment
	for _, in := range all {
		if year != 0 && in.Year != year {
			continue
		}
		if month != 0 && in.Month != month {
			continue
		}
		if core.NameMatches(in.Name, term) {
			matched = append(matched, in)
		}
	}
	if len(matched) == 0 {
		return nil, fmt.Errorf("search %q: %w", term, core.ErrNotFound)
	}
	sortByNameThenDue(matched)
	return Annotate(matched, all), nil
}

// Report selects rows by filter and groups them by name.
func (s *BillService) Report(ctx context.Context, filter core.ReportFilter) (core.Report, error) {
	all, err := s.store.ListAll(ctx)
	if err != nil {
		return core.Report{}, fmt.Errorf("list installments: %w", err)
	}

	var selected []core.Installment
	for _, in := range all {
		if filter.Year != 0 && in.Year != filter.Year {
			continue
		}
		if filter.Month != 0 && in.Month != filter.Month {
			continue
		}
		if !filter.Status.Matches(in.Paid) {
			continue
		}
		if filter.Name != "" && !core.NameMatches(in.Name, filter.Name) {
			continue
		}
		selected = append(selected, in)
	}
	sortByNameThenDue(selected)

	report := core.Report{
		Title:      "Relatório de Contas Mensais",
		GrandTotal: decimal.Zero,
	}
	for _, a := range Annotate(selected, all) {
		n := len(report.Groups)
		if n == 0 || report.Groups[n-1].Name != a.Name {
			report.Groups = append(report.Groups, core.ReportGroup{Name: a.Name})
			n++
		}
		report.Groups[n-1].Items = append(report.Groups[n-1].Items, a)
		report.GrandTotal = report.GrandTotal.Add(a.InstallmentAmount)
	}
	return report, nil
}

// DueBetween returns unpaid installments with a due date in [from, to].
func (s *BillService) DueBetween(ctx context.Context, from, to core.Date) ([]core.Installment, error) {
	rows, err := s.store.ListUnpaidDueBetween(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("list due installments: %w", err)
	}
	return rows, nil
}

// PeriodTotals sums the paid and pending amounts of a period.
func (s *BillService) PeriodTotals(ctx context.Context, year, month int) (paid, pending decimal.Decimal, err error) {
	rows, err := s.store.ListByPeriod(ctx, year, month)
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("list period: %w", err)
	}
	paid, pending = decimal.Zero, decimal.Zero
	for _, in := range rows {
		if in.Paid {
			paid = paid.Add(in.InstallmentAmount)
		} else {
			pending = pending.Add(in.InstallmentAmount)
		}
	}
	return paid, pending, nil
}

func (s *BillService) annotate(ctx context.Context, rows []core.Installment) ([]core.Annotated, error) {
	all, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list installments: %w", err)
	}
	return Annotate(rows, all), nil
}
