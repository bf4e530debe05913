package services

import (
	"strings"

	"github.com/google/uuid"

	"contas/internal/core"
)

// IDGenerator returns a fresh installment identifier.
type IDGenerator func() string

// DefaultIDGenerator produces random UUIDs.
func DefaultIDGenerator() string {
	return uuid.NewString()
}

// Expand turns a bill request into one row per installment. Row i is due
// i months after the first due date, with the day clamped to the month end.
// Amount and count are checked here as well so that no caller can expand a
// request that would produce zero or negative rows.
func Expand(req core.BillRequest, newID IDGenerator) ([]core.Installment, error) {
	verr := core.NewValidationError()
	if !req.InstallmentAmount.IsPositive() {
		verr.Add(core.FieldInstallmentAmount, "O valor da parcela deve ser maior que 0.")
	}
	if req.InstallmentCount < 1 {
		verr.Add(core.FieldInstallmentCount, "A quantidade de parcelas deve ser maior que 0.")
	}
	if req.DueDate.IsZero() {
		verr.Add(core.FieldDueDate, "Data de vencimento é obrigatória.")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	if newID == nil {
		newID = DefaultIDGenerator
	}

	name := strings.TrimSpace(req.Name)
	rows := make([]core.Installment, req.InstallmentCount)
	for i := range rows {
		due := req.DueDate.AddMonths(i)
		rows[i] = core.Installment{
			ID:                newID(),
			Name:              name,
			Year:              due.Year(),
			Month:             due.Month(),
			Paid:              false,
			DueDate:           due,
			InstallmentAmount: req.InstallmentAmount,
			InstallmentCount:  1,
		}
	}
	return rows, nil
}
