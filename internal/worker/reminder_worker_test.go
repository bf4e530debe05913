package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"contas/internal/amqp"
	"contas/internal/core"
)

type stubNotifier struct {
	calls int
	err   error
}

func (s *stubNotifier) Notify(context.Context, core.DueReminder) error {
	s.calls++
	return s.err
}

func TestReminderWorker_HandleDueReminder(t *testing.T) {
	now := time.Date(2025, 1, 31, 8, 0, 0, 0, time.UTC)
	tests := []struct {
		name      string
		published time.Time
		notifyErr error
		wantCalls int
		wantErr   bool
	}{
		{"fresh message", now.Add(-time.Minute), nil, 1, false},
		{"stale message is dropped", now.Add(-72 * time.Hour), nil, 0, false},
		{"notifier failure requeues", now, errors.New("smtp down"), 1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := &stubNotifier{err: tt.notifyErr}
			w := NewReminderWorker(n)
			w.now = func() time.Time { return now }

			msg := &amqp.DueReminderMessage{
				Reminder:  core.DueReminder{InstallmentID: "abc", Name: "Energia", When: core.DueToday},
				Timestamp: tt.published,
			}
			err := w.HandleDueReminder(context.Background(), msg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("HandleDueReminder() error = %v, wantErr %v", err, tt.wantErr)
			}
			if n.calls != tt.wantCalls {
				t.Fatalf("notifier calls = %d, want %d", n.calls, tt.wantCalls)
			}
		})
	}
}
