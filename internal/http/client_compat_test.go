package http

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"contas/internal/api"
	"contas/internal/client"
	"contas/internal/core"
	"contas/internal/offline"
	"contas/internal/storage/memory"
)

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("decimal %q: %v", s, err)
	}
	return d
}

type alwaysOnline bool

func (o alwaysOnline) Online(context.Context) bool { return bool(o) }

// The typed client and the offline replay path must agree with the server
// on paths, bodies and error shapes.
func TestClientAgainstServer(t *testing.T) {
	srv := newServerWithStore(t, memory.New())
	ts := httptest.NewServer(srv.Handler)
	defer ts.Close()

	ctx := context.Background()
	c := client.New(ts.URL, ts.Client())

	in := api.BillInput{
		Name:              "Internet",
		Year:              2025,
		Month:             1,
		DueDate:           core.NewDate(2025, 1, 10),
		InstallmentAmount: api.NewAmount(mustDecimal(t, "99.90")),
		InstallmentCount:  2,
	}
	created, err := c.CreateBill(ctx, in)
	if err != nil || len(created) != 2 {
		t.Fatalf("CreateBill() = %d rows, %v", len(created), err)
	}

	_, err = c.CreateBill(ctx, api.BillInput{})
	var verr *core.ValidationError
	if !errors.As(err, &verr) || len(verr.Fields[core.FieldName]) == 0 {
		t.Errorf("invalid create error = %v", err)
	}
	err = c.Replay(ctx, "POST", "/contas", []byte(`{"nome":"Luz","ano":2025,"mes":1,"dataVencimento":"2025-13-01","valorParcela":10,"quantidadeParcelas":1}`))
	if !errors.As(err, &verr) || len(verr.Fields[core.FieldDueDate]) == 0 {
		t.Errorf("bad date error = %v", err)
	}
	if _, err := c.PayBill(ctx, "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("PayBill(missing) error = %v", err)
	}

	// queue while offline, then replay against the live server
	queue := offline.NewQueue(offline.NewMemoryStore())
	oc := client.NewOfflineClient(c, alwaysOnline(false), queue, offline.NewPeriodCache(offline.NewMemoryStore()))
	if _, err := oc.PayBill(ctx, created[1].ID); !errors.Is(err, client.ErrQueued) {
		t.Fatalf("offline PayBill error = %v", err)
	}
	if _, err := oc.PropagateIncome(ctx, 2025, 1, api.NewAmount(mustDecimal(t, "4000")), 1); !errors.Is(err, client.ErrQueued) {
		t.Fatalf("offline PropagateIncome error = %v", err)
	}

	res, err := queue.Drain(ctx, oc.Sender())
	if err != nil || res.Acknowledged != 2 || res.Remaining != 0 {
		t.Fatalf("Drain() = %+v, %v", res, err)
	}

	feb, err := c.ListBills(ctx, 2025, 2)
	if err != nil || len(feb) != 1 || !feb[0].Paid {
		t.Errorf("replayed payment not visible: %+v, %v", feb, err)
	}
	income, err := c.GetIncome(ctx, 2025, 2)
	if err != nil || income.TotalIncome.StringFixed(2) != "4000.00" {
		t.Errorf("replayed income = %+v, %v", income, err)
	}

	pdf, err := c.Report(ctx, core.ReportFilter{Year: 2025})
	if err != nil || len(pdf) < 5 || string(pdf[:5]) != "%PDF-" {
		t.Errorf("Report() = %d bytes, %v", len(pdf), err)
	}
}

// Propagation starting at December of next year must not trip the year
// bound on the months after it, online or replayed from the queue.
func TestPropagateIncomePastNextYear(t *testing.T) {
	srv := newServerWithStore(t, memory.New())
	ts := httptest.NewServer(srv.Handler)
	defer ts.Close()

	ctx := context.Background()
	c := client.New(ts.URL, ts.Client())
	total := api.NewAmount(mustDecimal(t, "1000"))

	online := client.NewOfflineClient(c, alwaysOnline(true), offline.NewQueue(offline.NewMemoryStore()), offline.NewPeriodCache(offline.NewMemoryStore()))
	rec, err := online.PropagateIncome(ctx, 2026, 12, total, 2)
	if err != nil || len(rec.Failures) != 0 {
		t.Fatalf("online PropagateIncome() = %+v, %v", rec, err)
	}
	if got, err := c.GetIncome(ctx, 2027, 2); err != nil || got.TotalIncome.StringFixed(2) != "1000.00" {
		t.Errorf("2027-02 income = %+v, %v", got, err)
	}

	queue := offline.NewQueue(offline.NewMemoryStore())
	queued := client.NewOfflineClient(c, alwaysOnline(false), queue, offline.NewPeriodCache(offline.NewMemoryStore()))
	if _, err := queued.PropagateIncome(ctx, 2026, 12, api.NewAmount(mustDecimal(t, "2000")), 2); !errors.Is(err, client.ErrQueued) {
		t.Fatalf("offline PropagateIncome error = %v", err)
	}
	res, err := queue.Drain(ctx, queued.Sender())
	if err != nil || res.Err != nil || res.Acknowledged != 1 || res.Remaining != 0 {
		t.Fatalf("Drain() = %+v, %v", res, err)
	}
	if got, err := c.GetIncome(ctx, 2027, 2); err != nil || got.TotalIncome.StringFixed(2) != "2000.00" {
		t.Errorf("replayed 2027-02 income = %+v, %v", got, err)
	}
}
