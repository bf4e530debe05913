package worker

import (
	"context"
	"log/slog"
	"slices"
	"time"
)

// NextRun returns the first instant after now whose wall clock hour in loc
// is one of hours, at minute zero.
func NextRun(now time.Time, hours []int, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	sorted := slices.Clone(hours)
	slices.Sort(sorted)

	local := now.In(loc)
	for day := 0; day < 2; day++ {
		y, m, d := local.AddDate(0, 0, day).Date()
		for _, h := range sorted {
			t := time.Date(y, m, d, h, 0, 0, 0, loc)
			if t.After(now) {
				return t
			}
		}
	}
	// empty hours: retry in a day
	return now.Add(24 * time.Hour)
}

// RunAtHours calls fn at every configured hour until ctx is done.
func RunAtHours(ctx context.Context, hours []int, loc *time.Location, fn func(ctx context.Context, now time.Time)) {
	for {
		next := NextRun(time.Now(), hours, loc)
		slog.InfoContext(ctx, "Next reminder run scheduled", "at", next.Format(time.RFC3339))

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case now := <-timer.C:
			fn(ctx, now)
		}
	}
}
