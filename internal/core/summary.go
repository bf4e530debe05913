package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// PaidStatus filters report rows by payment state.
type PaidStatus string

const (
	StatusAll    PaidStatus = "all"
	StatusPaid   PaidStatus = "paid"
	StatusUnpaid PaidStatus = "unpaid"
)

// ParsePaidStatus accepts the English names and the legacy client values
// "pagas" and "nao-pagas". Blank means all.
func ParsePaidStatus(s string) (PaidStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all", "todas":
		return StatusAll, true
	case "paid", "pagas":
		return StatusPaid, true
	case "unpaid", "nao-pagas":
		return StatusUnpaid, true
	default:
		return "", false
	}
}

// Matches reports whether an installment passes the status filter.
func (s PaidStatus) Matches(paid bool) bool {
	switch s {
	case StatusPaid:
		return paid
	case StatusUnpaid:
		return !paid
	default:
		return true
	}
}

// ReportFilter narrows a report. Zero values mean no filter.
type ReportFilter struct {
	Year   int
	Month  int
	Status PaidStatus
	Name   string
}

// ReportGroup holds the rows of a single bill name in due date order.
type ReportGroup struct {
	Name  string
	Items []Annotated
}

// Report is what the PDF renderer consumes.
type Report struct {
	Title      string
	Groups     []ReportGroup
	GrandTotal decimal.Decimal
}

// Balance is a compact summary for a specific year+month.
type Balance struct {
	Year      int
	Month     int // 1-12
	Income    decimal.Decimal
	Paid      decimal.Decimal
	Pending   decimal.Decimal
	Remaining decimal.Decimal
}
