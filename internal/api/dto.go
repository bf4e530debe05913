// Package api holds the JSON shapes exchanged between the server and its
// clients.
package api

import (
	"bytes"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"contas/internal/core"
)

// Amount is a decimal rendered as a bare JSON number. Decoding accepts
// numbers and quoted strings.
type Amount struct {
	decimal.Decimal
}

func NewAmount(d decimal.Decimal) Amount { return Amount{Decimal: d} }

func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.Decimal.String()), nil
}

func (a *Amount) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		a.Decimal = decimal.Zero
		return nil
	}
	if err := a.Decimal.UnmarshalJSON(b); err != nil {
		return fmt.Errorf("%w: %s", core.ErrInvalidAmount, b)
	}
	return nil
}

// Bill is one installment as listed by the API.
type Bill struct {
	ID                string    `json:"id"`
	Name              string    `json:"nome"`
	Year              int       `json:"ano"`
	Month             int       `json:"mes"`
	Paid              bool      `json:"paga"`
	DueDate           core.Date `json:"dataVencimento"`
	InstallmentAmount Amount    `json:"valorParcela"`
	InstallmentCount  int       `json:"quantidadeParcelas"`
	TotalAmount       Amount    `json:"valorTotal"`
	Ordinal           int       `json:"indiceParcela"`
	GroupSize         int       `json:"totalParcelas"`
}

func BillFrom(a core.Annotated) Bill {
	return Bill{
		ID:                a.ID,
		Name:              a.Name,
		Year:              a.Year,
		Month:             a.Month,
		Paid:              a.Paid,
		DueDate:           a.DueDate,
		InstallmentAmount: NewAmount(a.InstallmentAmount),
		InstallmentCount:  a.InstallmentCount,
		TotalAmount:       NewAmount(a.TotalAmount()),
		Ordinal:           a.Ordinal,
		GroupSize:         a.GroupSize,
	}
}

func BillsFrom(rows []core.Annotated) []Bill {
	out := make([]Bill, len(rows))
	for i, a := range rows {
		out[i] = BillFrom(a)
	}
	return out
}

// Annotated converts the wire form back into the domain view.
func (b Bill) Annotated() core.Annotated {
	return core.Annotated{
		Installment: core.Installment{
			ID:                b.ID,
			Name:              b.Name,
			Year:              b.Year,
			Month:             b.Month,
			Paid:              b.Paid,
			DueDate:           b.DueDate,
			InstallmentAmount: b.InstallmentAmount.Decimal,
			InstallmentCount:  b.InstallmentCount,
		},
		Ordinal:   b.Ordinal,
		GroupSize: b.GroupSize,
	}
}

// BillInput is the body of POST /contas and PUT /contas/{id}.
type BillInput struct {
	Name              string    `json:"nome"`
	Year              int       `json:"ano"`
	Month             int       `json:"mes"`
	DueDate           core.Date `json:"dataVencimento"`
	InstallmentAmount Amount    `json:"valorParcela"`
	InstallmentCount  int       `json:"quantidadeParcelas"`
}

func (in BillInput) Request() core.BillRequest {
	return core.BillRequest{
		Name:              in.Name,
		Year:              in.Year,
		Month:             in.Month,
		DueDate:           in.DueDate,
		InstallmentAmount: in.InstallmentAmount.Decimal,
		InstallmentCount:  in.InstallmentCount,
	}
}

func BillInputFrom(req core.BillRequest) BillInput {
	return BillInput{
		Name:              req.Name,
		Year:              req.Year,
		Month:             req.Month,
		DueDate:           req.DueDate,
		InstallmentAmount: NewAmount(req.InstallmentAmount),
		InstallmentCount:  req.InstallmentCount,
	}
}

// Income is the monthly income record.
type Income struct {
	ID          string          `json:"id"`
	Year        int             `json:"ano"`
	Month       int             `json:"mes"`
	TotalIncome Amount          `json:"valorTotal"`
	UpdatedAt   time.Time       `json:"atualizadoEm"`
	Failures    []PeriodFailure `json:"falhas,omitempty"`
}

// PeriodFailure names a propagated period whose write failed.
type PeriodFailure struct {
	Year  int    `json:"ano"`
	Month int    `json:"mes"`
	Error string `json:"erro"`
}

func IncomeFrom(rec core.IncomeRecord) Income {
	return Income{
		ID:          rec.ID,
		Year:        rec.Year,
		Month:       rec.Month,
		TotalIncome: NewAmount(rec.TotalIncome),
		UpdatedAt:   rec.UpdatedAt,
	}
}

// IncomeInput is the body of PUT /receitas. PropagateMonths > 0 also writes
// the value to that many following months.
type IncomeInput struct {
	Year            int    `json:"ano"`
	Month           int    `json:"mes"`
	TotalIncome     Amount `json:"valorTotal"`
	PropagateMonths int    `json:"propagarMeses,omitempty"`
}

type Balance struct {
	Year      int    `json:"ano"`
	Month     int    `json:"mes"`
	Income    Amount `json:"receita"`
	Paid      Amount `json:"pago"`
	Pending   Amount `json:"pendente"`
	Remaining Amount `json:"saldo"`
}

func BalanceFrom(b core.Balance) Balance {
	return Balance{
		Year:      b.Year,
		Month:     b.Month,
		Income:    NewAmount(b.Income),
		Paid:      NewAmount(b.Paid),
		Pending:   NewAmount(b.Pending),
		Remaining: NewAmount(b.Remaining),
	}
}

// Problem is the error body. Errors is set for validation failures.
type Problem struct {
	Title  string              `json:"title"`
	Status int                 `json:"status"`
	Errors map[string][]string `json:"errors,omitempty"`
}
