package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"contas/internal/core"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// sqlite accepts a single writer; serialize through one connection
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Run migrations
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	repo := &SQLiteRepository{
		db:      db,
		queries: New(db),
	}

	return repo, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping implements ports.Pinger
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Get implements ports.BillStore
func (r *SQLiteRepository) Get(ctx context.Context, id string) (core.Installment, error) {
	row, err := r.queries.GetConta(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Installment{}, fmt.Errorf("installment %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Installment{}, fmt.Errorf("get installment: %w", err)
	}
	return toInstallment(row)
}

// InsertBatch implements ports.BillStore
func (r *SQLiteRepository) InsertBatch(ctx context.Context, rows []core.Installment) error {
	err := r.inTx(ctx, func(q *Queries) error {
		return insertAll(ctx, q, rows)
	})
	if err != nil {
		return fmt.Errorf("insert installments: %w", err)
	}

	slog.InfoContext(ctx, "Installments saved to SQLite", "count", len(rows))
	return nil
}

// ReplaceCohort implements ports.BillStore
func (r *SQLiteRepository) ReplaceCohort(ctx context.Context, name string, from core.Date, replacement []core.Installment) error {
	var removed int64
	err := r.inTx(ctx, func(q *Queries) error {
		n, err := q.DeleteCohort(ctx, DeleteCohortParams{
			Nome:           name,
			DataVencimento: from.String(),
		})
		if err != nil {
			return fmt.Errorf("delete cohort: %w", err)
		}
		removed = n
		return insertAll(ctx, q, replacement)
	})
	if err != nil {
		return fmt.Errorf("replace cohort %q: %w", name, err)
	}

	slog.InfoContext(ctx, "Installment cohort replaced",
		"bill_name", name,
		"from", from.String(),
		"removed", removed,
		"inserted", len(replacement))
	return nil
}

// SetPaid implements ports.BillStore
func (r *SQLiteRepository) SetPaid(ctx context.Context, id string, paid bool) error {
	n, err := r.queries.SetContaPaga(ctx, SetContaPagaParams{Paga: boolToInt(paid), ID: id})
	if err != nil {
		return fmt.Errorf("set paid: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("installment %s: %w", id, core.ErrNotFound)
	}
	return nil
}

// Delete implements ports.BillStore
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	n, err := r.queries.DeleteConta(ctx, id)
	if err != nil {
		return fmt.Errorf("delete installment: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("installment %s: %w", id, core.ErrNotFound)
	}

	slog.InfoContext(ctx, "Installment deleted from SQLite", "installment_id", id)
	return nil
}

// ListAll implements ports.BillStore
func (r *SQLiteRepository) ListAll(ctx context.Context) ([]core.Installment, error) {
	rows, err := r.queries.ListContas(ctx)
	if err != nil {
		return nil, fmt.Errorf("list installments: %w", err)
	}
	return toInstallments(rows)
}

// ListByPeriod implements ports.BillStore
func (r *SQLiteRepository) ListByPeriod(ctx context.Context, year, month int) ([]core.Installment, error) {
	rows, err := r.queries.ListContasByPeriod(ctx, ListContasByPeriodParams{Ano: int64(year), Mes: int64(month)})
	if err != nil {
		return nil, fmt.Errorf("list installments by period: %w", err)
	}
	return toInstallments(rows)
}

// ListUnpaidDueBetween implements ports.BillStore
func (r *SQLiteRepository) ListUnpaidDueBetween(ctx context.Context, from, to core.Date) ([]core.Installment, error) {
	rows, err := r.queries.ListUnpaidDueBetween(ctx, ListUnpaidDueBetweenParams{From: from.String(), To: to.String()})
	if err != nil {
		return nil, fmt.Errorf("list unpaid installments: %w", err)
	}
	return toInstallments(rows)
}

// GetIncome implements ports.IncomeStore
func (r *SQLiteRepository) GetIncome(ctx context.Context, year, month int) (core.IncomeRecord, error) {
	row, err := r.queries.GetReceita(ctx, GetReceitaParams{Ano: int64(year), Mes: int64(month)})
	if errors.Is(err, sql.ErrNoRows) {
		return core.IncomeRecord{}, fmt.Errorf("income %d-%02d: %w", year, month, core.ErrNotFound)
	}
	if err != nil {
		return core.IncomeRecord{}, fmt.Errorf("get income: %w", err)
	}
	return toIncome(row)
}

// UpsertIncome implements ports.IncomeStore
func (r *SQLiteRepository) UpsertIncome(ctx context.Context, rec core.IncomeRecord) (core.IncomeRecord, error) {
	row, err := r.queries.UpsertReceita(ctx, UpsertReceitaParams{
		ID:           rec.ID,
		Ano:          int64(rec.Year),
		Mes:          int64(rec.Month),
		ValorTotal:   rec.TotalIncome.String(),
		AtualizadoEm: rec.UpdatedAt.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return core.IncomeRecord{}, fmt.Errorf("upsert income %d-%02d: %w", rec.Year, rec.Month, err)
	}

	slog.InfoContext(ctx, "Income saved to SQLite",
		"year", rec.Year,
		"month", rec.Month,
		"total", rec.TotalIncome.String())
	return toIncome(row)
}

func (r *SQLiteRepository) inTx(ctx context.Context, fn func(q *Queries) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(r.queries.WithTx(tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			slog.ErrorContext(ctx, "Failed to rollback transaction", "error", rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func insertAll(ctx context.Context, q *Queries, rows []core.Installment) error {
	for _, in := range rows {
		err := q.CreateConta(ctx, CreateContaParams{
			ID:                 in.ID,
			Nome:               in.Name,
			Ano:                int64(in.Year),
			Mes:                int64(in.Month),
			Paga:               boolToInt(in.Paid),
			DataVencimento:     in.DueDate.String(),
			ValorParcela:       in.InstallmentAmount.String(),
			QuantidadeParcelas: int64(in.InstallmentCount),
		})
		if err != nil {
			return fmt.Errorf("insert installment %s: %w", in.ID, err)
		}
	}
	return nil
}

func toInstallments(rows []Conta) ([]core.Installment, error) {
	out := make([]core.Installment, 0, len(rows))
	for _, row := range rows {
		in, err := toInstallment(row)
		if err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	return out, nil
}

func toInstallment(row Conta) (core.Installment, error) {
	due, err := core.ParseDate(row.DataVencimento)
	if err != nil {
		return core.Installment{}, fmt.Errorf("installment %s due date: %w", row.ID, err)
	}
	amount, err := decimal.NewFromString(row.ValorParcela)
	if err != nil {
		return core.Installment{}, fmt.Errorf("installment %s amount: %w", row.ID, err)
	}
	return core.Installment{
		ID:                row.ID,
		Name:              row.Nome,
		Year:              int(row.Ano),
		Month:             int(row.Mes),
		Paid:              row.Paga != 0,
		DueDate:           due,
		InstallmentAmount: amount,
		InstallmentCount:  int(row.QuantidadeParcelas),
	}, nil
}

func toIncome(row Receita) (core.IncomeRecord, error) {
	total, err := decimal.NewFromString(row.ValorTotal)
	if err != nil {
		return core.IncomeRecord{}, fmt.Errorf("income %d-%02d total: %w", row.Ano, row.Mes, err)
	}
	updated, err := time.Parse(time.RFC3339Nano, row.AtualizadoEm)
	if err != nil {
		return core.IncomeRecord{}, fmt.Errorf("income %d-%02d timestamp: %w", row.Ano, row.Mes, err)
	}
	return core.IncomeRecord{
		ID:          row.ID,
		Year:        int(row.Ano),
		Month:       int(row.Mes),
		TotalIncome: total,
		UpdatedAt:   updated,
	}, nil
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
