package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	MinYear       = 2000
	MinNameLength = 3
)

type (
	Date struct {
		time.Time
	}

	// Installment is one persisted bill row. Rows created from a multi-part
	// request are independent; InstallmentCount is always 1 once stored.
	Installment struct {
		ID                string
		Name              string
		Year              int
		Month             int
		Paid              bool
		DueDate           Date
		InstallmentAmount decimal.Decimal
		InstallmentCount  int
	}

	// Annotated carries the position of an installment inside its name group.
	Annotated struct {
		Installment
		Ordinal   int
		GroupSize int
	}

	IncomeRecord struct {
		ID          string
		Year        int
		Month       int
		TotalIncome decimal.Decimal
		UpdatedAt   time.Time
	}

	// BillRequest is the input for creating or editing a bill.
	BillRequest struct {
		Name              string
		Year              int
		Month             int
		DueDate           Date
		InstallmentAmount decimal.Decimal
		InstallmentCount  int
	}
)

var (
	ErrNotFound        = errors.New("not found")
	ErrEmptySearchTerm = errors.New("empty search term")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidDate     = errors.New("invalid date")
)

// TotalAmount is the amount times the count, rounded to two places.
func (i Installment) TotalAmount() decimal.Decimal {
	return RoundMoney(i.InstallmentAmount.Mul(decimal.NewFromInt(int64(i.InstallmentCount))))
}

// Validate checks the request against the bill rules. currentYear bounds the
// accepted year range.
func (r BillRequest) Validate(currentYear int) error {
	verr := NewValidationError()

	name := strings.TrimSpace(r.Name)
	switch {
	case name == "":
		verr.Add(FieldName, "O campo nome precisa ser fornecido")
	case len([]rune(name)) < MinNameLength:
		verr.Add(FieldName, "O nome deve ter no mínimo 3 caracteres.")
	}
	if !validYear(r.Year, currentYear) {
		verr.Add(FieldYear, "Ano deve estar entre 2000 e o próximo ano.")
	}
	if !validMonth(r.Month) {
		verr.Add(FieldMonth, "Mês deve estar entre 1 e 12.")
	}
	if r.DueDate.IsZero() {
		verr.Add(FieldDueDate, "Data de vencimento é obrigatória.")
	}
	if !r.InstallmentAmount.IsPositive() {
		verr.Add(FieldInstallmentAmount, "O valor da parcela deve ser maior que 0.")
	}
	if r.InstallmentCount <= 0 {
		verr.Add(FieldInstallmentCount, "A quantidade de parcelas deve ser maior que 0.")
	}

	return verr.OrNil()
}

// ValidateIncome checks an income write. Periods reached through propagation
// skip the year bound, so checkYear lets callers turn it off.
func ValidateIncome(year, month int, total decimal.Decimal, currentYear int, checkYear bool) error {
	verr := NewValidationError()
	if checkYear && !validYear(year, currentYear) {
		verr.Add(FieldYear, "Ano deve estar entre 2000 e o próximo ano.")
	}
	if !validMonth(month) {
		verr.Add(FieldMonth, "Mês deve estar entre 1 e 12.")
	}
	if total.IsNegative() {
		verr.Add(FieldTotalIncome, "O valor da receita deve ser maior ou igual a 0.")
	}
	return verr.OrNil()
}

// ValidatePeriod checks a (year, month) query pair.
func ValidatePeriod(year, month int) error {
	verr := NewValidationError()
	if year < MinYear {
		verr.Add(FieldYear, "Ano inválido.")
	}
	if !validMonth(month) {
		verr.Add(FieldMonth, "Mês deve estar entre 1 e 12.")
	}
	return verr.OrNil()
}

func validYear(year, currentYear int) bool {
	return year >= MinYear && year <= currentYear+1
}

func validMonth(month int) bool {
	return month >= 1 && month <= 12
}
