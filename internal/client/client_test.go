package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"

	"contas/internal/api"
	"contas/internal/core"
	"contas/internal/offline"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestClient_ListBillsSendsPeriod(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/contas" || r.URL.Query().Get("ano") != "2025" || r.URL.Query().Get("mes") != "2" {
			t.Errorf("unexpected request %s", r.URL)
		}
		writeJSON(w, http.StatusOK, []api.Bill{{ID: "a", Name: "Energia", Ordinal: 2, GroupSize: 3}})
	}))
	defer srv.Close()

	bills, err := New(srv.URL, nil).ListBills(context.Background(), 2025, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(bills) != 1 || bills[0].Ordinal != 2 {
		t.Fatalf("unexpected bills %+v", bills)
	}
}

func TestClient_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   any
		check  func(t *testing.T, err error)
	}{
		{
			name:   "validation problem",
			status: http.StatusUnprocessableEntity,
			body:   api.Problem{Status: 422, Errors: map[string][]string{"nome": {"O campo nome precisa ser fornecido"}}},
			check: func(t *testing.T, err error) {
				var verr *core.ValidationError
				if !errors.As(err, &verr) || len(verr.Fields["nome"]) != 1 {
					t.Fatalf("expected ValidationError on nome, got %v", err)
				}
			},
		},
		{
			name:   "not found",
			status: http.StatusNotFound,
			body:   api.Problem{Title: "not found", Status: 404},
			check: func(t *testing.T, err error) {
				if !errors.Is(err, core.ErrNotFound) {
					t.Fatalf("expected ErrNotFound, got %v", err)
				}
			},
		},
		{
			name:   "server error",
			status: http.StatusInternalServerError,
			body:   api.Problem{Title: "internal error", Status: 500},
			check: func(t *testing.T, err error) {
				var serr *StatusError
				if !errors.As(err, &serr) || serr.Code != 500 {
					t.Fatalf("expected StatusError 500, got %v", err)
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.status, tt.body)
			}))
			defer srv.Close()

			_, err := New(srv.URL, nil).CreateBill(context.Background(), api.BillInput{})
			tt.check(t, err)
		})
	}
}

func TestClient_TransportFailureIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(url, nil).ListBills(context.Background(), 2025, 1)
	if !errors.Is(err, ErrTransient) {
		t.Fatalf("expected ErrTransient, got %v", err)
	}
}

type switchChecker struct{ online atomic.Bool }

func (s *switchChecker) Online(context.Context) bool { return s.online.Load() }

func newOfflineFixture(t *testing.T, handler http.Handler) (*OfflineClient, *switchChecker, *offline.Queue) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	store := offline.NewMemoryStore()
	queue := offline.NewQueue(store)
	checker := &switchChecker{}
	return NewOfflineClient(New(srv.URL, nil), checker, queue, offline.NewPeriodCache(store)), checker, queue
}

func TestOfflineClient_QueuesWhileOfflineAndReplays(t *testing.T) {
	var (
		mu       sync.Mutex
		received []string
	)
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		received = append(received, r.Method+" "+r.URL.Path)
		mu.Unlock()
		writeJSON(w, http.StatusOK, []api.Bill{})
	})
	snapshot := func() []string {
		mu.Lock()
		defer mu.Unlock()
		return append([]string(nil), received...)
	}
	oc, checker, queue := newOfflineFixture(t, handler)
	ctx := context.Background()

	in := api.BillInput{Name: "Energia", Year: 2025, Month: 1, DueDate: core.NewDate(2025, 1, 10), InstallmentAmount: api.NewAmount(decimal.NewFromInt(10)), InstallmentCount: 1}
	if _, err := oc.CreateBill(ctx, in); !errors.Is(err, ErrQueued) {
		t.Fatalf("expected ErrQueued, got %v", err)
	}
	if _, err := oc.PayBill(ctx, "abc"); !errors.Is(err, ErrQueued) {
		t.Fatalf("expected ErrQueued, got %v", err)
	}
	if got := snapshot(); len(got) != 0 {
		t.Fatalf("nothing should reach the server while offline, got %v", got)
	}

	checker.online.Store(true)
	res, err := queue.Drain(ctx, oc.Sender())
	if err != nil {
		t.Fatalf("drain: %v", err)
	}
	if res.Acknowledged != 2 {
		t.Fatalf("expected 2 acknowledged, got %+v", res)
	}
	got := snapshot()
	if len(got) != 2 || got[0] != "POST /contas" || got[1] != "PUT /contas/abc/pagar" {
		t.Fatalf("unexpected replay order %v", got)
	}
}

func TestOfflineClient_ServesCacheWhenOffline(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []api.Bill{
			{ID: "1", Name: "Energia Elétrica", Year: 2025, Month: 3},
			{ID: "2", Name: "Internet", Year: 2025, Month: 3},
		})
	})
	oc, checker, _ := newOfflineFixture(t, handler)
	ctx := context.Background()

	checker.online.Store(true)
	if _, err := oc.ListBills(ctx, 2025, 3); err != nil {
		t.Fatalf("online list: %v", err)
	}

	checker.online.Store(false)
	cached, err := oc.ListBills(ctx, 2025, 3)
	if err != nil || len(cached) != 2 {
		t.Fatalf("cached list = %v, %v", cached, err)
	}

	found, err := oc.Search(ctx, "energia", 2025, 3)
	if err != nil {
		t.Fatalf("offline search: %v", err)
	}
	if len(found) != 1 || found[0].ID != "1" {
		t.Fatalf("unexpected search result %+v", found)
	}
	if _, err := oc.Search(ctx, "aluguel", 2025, 3); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	empty, err := oc.ListBills(ctx, 2025, 4)
	if err != nil || len(empty) != 0 {
		t.Fatalf("uncached period should be empty, got %v, %v", empty, err)
	}
}

func TestOfflineClient_PropagateIncomeQueuesSingleAction(t *testing.T) {
	oc, _, queue := newOfflineFixture(t, http.NotFoundHandler())
	ctx := context.Background()

	_, err := oc.PropagateIncome(ctx, 2025, 11, api.NewAmount(decimal.NewFromInt(3000)), 2)
	if !errors.Is(err, ErrQueued) {
		t.Fatalf("expected ErrQueued, got %v", err)
	}
	pending, _ := queue.Pending(ctx)
	if len(pending) != 1 {
		t.Fatalf("expected 1 queued put, got %d", len(pending))
	}
	var in api.IncomeInput
	if err := json.Unmarshal(pending[0].Body, &in); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if in.Year != 2025 || in.Month != 11 || in.PropagateMonths != 2 {
		t.Fatalf("queued body = %+v", in)
	}
}

func TestOfflineClient_PropagateIncomeOnlineSendsMonths(t *testing.T) {
	var got api.IncomeInput
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/receitas" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		writeJSON(w, http.StatusOK, api.Income{Year: got.Year, Month: got.Month, TotalIncome: got.TotalIncome})
	})
	oc, checker, _ := newOfflineFixture(t, handler)
	checker.online.Store(true)

	rec, err := oc.PropagateIncome(context.Background(), 2026, 12, api.NewAmount(decimal.NewFromInt(1000)), 2)
	if err != nil {
		t.Fatalf("propagate: %v", err)
	}
	if got.PropagateMonths != 2 || rec.Year != 2026 || rec.Month != 12 {
		t.Fatalf("sent %+v, got %+v", got, rec)
	}
}

func TestProber(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/healthz" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	p := NewProber(srv.URL, 0)
	if !p.Online(context.Background()) {
		t.Fatal("expected online")
	}
	srv.Close()
	if p.Online(context.Background()) {
		t.Fatal("expected offline after close")
	}
}
