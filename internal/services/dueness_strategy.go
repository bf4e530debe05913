// Package services provides business logic and orchestration services.
//
// This file implements the Strategy Pattern for reminder dueness checking.
// Each window decides which due dates deserve a reminder on a given day
// and how the reminder should phrase them.

package services

import (
	"fmt"

	"contas/internal/core"
)

// DuenessChecker is the strategy interface for reminder windows.
type DuenessChecker interface {
	// Window returns the inclusive due date range to scan on today.
	Window(today core.Date) (from, to core.Date)
	// Classify reports whether due falls in the window and how to name it.
	Classify(due, today core.Date) (core.DueWhen, bool)
}

// SameDayChecker reminds only about installments due today.
type SameDayChecker struct{}

func (SameDayChecker) Window(today core.Date) (core.Date, core.Date) {
	return today, today
}

func (SameDayChecker) Classify(due, today core.Date) (core.DueWhen, bool) {
	if due.Compare(today) == 0 {
		return core.DueToday, true
	}
	return "", false
}

// NextDayChecker reminds about installments due today or tomorrow.
type NextDayChecker struct{}

func (NextDayChecker) Window(today core.Date) (core.Date, core.Date) {
	return today, today.AddDays(1)
}

func (NextDayChecker) Classify(due, today core.Date) (core.DueWhen, bool) {
	switch due.Compare(today) {
	case 0:
		return core.DueToday, true
	case 1:
		if due.Compare(today.AddDays(1)) == 0 {
			return core.DueTomorrow, true
		}
	}
	return "", false
}

// Window names accepted by GetDuenessChecker.
const (
	WindowToday         = "today"
	WindowTodayTomorrow = "today-tomorrow"
)

// GetDuenessChecker returns the strategy registered under name.
func GetDuenessChecker(name string) (DuenessChecker, error) {
	switch name {
	case "", WindowTodayTomorrow:
		return NextDayChecker{}, nil
	case WindowToday:
		return SameDayChecker{}, nil
	default:
		return nil, fmt.Errorf("unknown reminder window: %s", name)
	}
}
