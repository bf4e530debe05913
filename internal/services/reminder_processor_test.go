package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"contas/internal/core"
	"contas/internal/storage/memory"
)

type recordingPublisher struct {
	sent   []core.DueReminder
	failOn string
}

func (p *recordingPublisher) PublishDueReminder(_ context.Context, r core.DueReminder) error {
	if r.Name == p.failOn {
		return errors.New("broker unavailable")
	}
	p.sent = append(p.sent, r)
	return nil
}

func TestReminderProcessor_ProcessDue(t *testing.T) {
	store := memory.New()
	bills := NewBillService(store, WithClock(fixedClock()), WithIDGenerator(sequentialIDs()))
	ctx := context.Background()

	mustCreate := func(name string, due core.Date) []core.Annotated {
		rows, err := bills.Create(ctx, billRequest(name, due, "10", 1))
		if err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
		return rows
	}
	mustCreate("Energia", core.NewDate(2025, 1, 31))
	mustCreate("Internet", core.NewDate(2025, 2, 1))
	mustCreate("Aluguel", core.NewDate(2025, 2, 2))
	paid := mustCreate("Telefone", core.NewDate(2025, 1, 31))
	if _, err := bills.SetPaid(ctx, paid[0].ID, true); err != nil {
		t.Fatalf("set paid: %v", err)
	}

	pub := &recordingPublisher{}
	proc := NewReminderProcessor(bills, pub, nil, time.UTC)

	n, err := proc.ProcessDue(ctx, time.Date(2025, 1, 31, 8, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if n != 2 || len(pub.sent) != 2 {
		t.Fatalf("expected 2 reminders, got %d (%+v)", n, pub.sent)
	}
	whens := map[string]core.DueWhen{}
	for _, r := range pub.sent {
		whens[r.Name] = r.When
	}
	if whens["Energia"] != core.DueToday || whens["Internet"] != core.DueTomorrow {
		t.Fatalf("unexpected classification: %v", whens)
	}
}

func TestReminderProcessor_SkipsFailedDispatch(t *testing.T) {
	store := memory.New()
	bills := NewBillService(store, WithClock(fixedClock()), WithIDGenerator(sequentialIDs()))
	ctx := context.Background()
	_, _ = bills.Create(ctx, billRequest("Energia", core.NewDate(2025, 3, 10), "10", 1))
	_, _ = bills.Create(ctx, billRequest("Internet", core.NewDate(2025, 3, 10), "10", 1))

	pub := &recordingPublisher{failOn: "Energia"}
	proc := NewReminderProcessor(bills, pub, SameDayChecker{}, nil)

	n, err := proc.ProcessDue(ctx, time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if n != 1 || pub.sent[0].Name != "Internet" {
		t.Fatalf("expected only Internet, got %d %+v", n, pub.sent)
	}
}

func TestReminderProcessor_UsesLocation(t *testing.T) {
	store := memory.New()
	bills := NewBillService(store, WithClock(fixedClock()), WithIDGenerator(sequentialIDs()))
	ctx := context.Background()
	_, _ = bills.Create(ctx, billRequest("Energia", core.NewDate(2025, 3, 9), "10", 1))

	saoPaulo := time.FixedZone("BRT", -3*60*60)
	pub := &recordingPublisher{}
	proc := NewReminderProcessor(bills, pub, SameDayChecker{}, saoPaulo)

	// 01:00 UTC on the 10th is still the 9th in Sao Paulo
	n, err := proc.ProcessDue(ctx, time.Date(2025, 3, 10, 1, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 reminder, got %d", n)
	}
}

func TestReminderProcessor_NotInitialized(t *testing.T) {
	proc := &ReminderProcessor{}
	if _, err := proc.ProcessDue(context.Background(), time.Now()); err == nil {
		t.Fatal("expected error for uninitialized processor")
	}
}
