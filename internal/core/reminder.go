package core

import "github.com/shopspring/decimal"

type DueWhen string

const (
	DueToday    DueWhen = "today"
	DueTomorrow DueWhen = "tomorrow"
)

// Label is the Portuguese word used in reminder texts.
func (w DueWhen) Label() string {
	if w == DueTomorrow {
		return "amanhã"
	}
	return "hoje"
}

// DueReminder announces an unpaid installment that is about to expire.
type DueReminder struct {
	InstallmentID string          `json:"installment_id"`
	Name          string          `json:"name"`
	DueDate       Date            `json:"due_date"`
	Amount        decimal.Decimal `json:"amount"`
	When          DueWhen         `json:"when"`
}
