package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"contas/internal/client"
	"contas/internal/core"
	apphttp "contas/internal/http"
	applog "contas/internal/log"
	"contas/internal/offline"
	"contas/internal/services"
	"contas/internal/storage/memory"
)

type switchChecker struct{ online atomic.Bool }

func (s *switchChecker) Online(context.Context) bool { return s.online.Load() }

func fixedNow() time.Time { return time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC) }

type fixture struct {
	app     *app
	out     *bytes.Buffer
	checker *switchChecker
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.New()
	bills := services.NewBillService(store, services.WithClock(fixedNow))
	income := services.NewIncomeService(store, bills, fixedNow)
	srv := apphttp.NewServer(apphttp.Config{
		Logger:            applog.New(applog.Config{Output: io.Discard}),
		RequestsPerMinute: 1000,
	}, bills, income, store)
	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(func() {
		ts.Close()
		_ = srv.Shutdown(context.Background())
	})

	checker := &switchChecker{}
	checker.online.Store(true)
	out := &bytes.Buffer{}
	return &fixture{
		app: newApp(appConfig{
			BaseURL: ts.URL,
			Store:   offline.NewMemoryStore(),
			Checker: checker,
			Out:     out,
			Now:     fixedNow,
		}),
		out:     out,
		checker: checker,
	}
}

func (f *fixture) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	f.out.Reset()
	err := f.app.run(context.Background(), args)
	return f.out.String(), err
}

func TestRun_Usage(t *testing.T) {
	f := newFixture(t)

	if out, err := f.run(t); !errors.Is(err, errUsage) || !strings.Contains(out, "comandos:") {
		t.Errorf("no args = %q, %v", out, err)
	}
	if _, err := f.run(t, "voar"); !errors.Is(err, errUsage) {
		t.Errorf("unknown command error = %v", err)
	}
	if _, err := f.run(t, "pay"); !errors.Is(err, errUsage) {
		t.Errorf("pay without id error = %v", err)
	}
}

func TestRun_CreateListAndBalance(t *testing.T) {
	f := newFixture(t)

	out, err := f.run(t, "create", "-nome", "Aluguel", "-vencimento", "2025-01-05", "-valor", "1.500,00", "-parcelas", "2")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !strings.Contains(out, "Aluguel") || !strings.Contains(out, "1/2") || !strings.Contains(out, "2/2") {
		t.Errorf("create output = %q", out)
	}

	out, err = f.run(t, "list", "-mes", "2")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, "05/02/2025") || !strings.Contains(out, "R$ 1.500,00") {
		t.Errorf("list output = %q", out)
	}

	if _, err := f.run(t, "income", "-valor", "4000"); err != nil {
		t.Fatalf("income: %v", err)
	}
	out, err = f.run(t, "balance")
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if !strings.Contains(out, "Saldo     R$ 4.000,00") || !strings.Contains(out, "Pendente  R$ 1.500,00") {
		t.Errorf("balance output = %q", out)
	}
}

func TestRun_InvalidForm(t *testing.T) {
	f := newFixture(t)

	_, err := f.run(t, "create", "-nome", "Luz", "-vencimento", "05/01/2025", "-valor", "abc")
	var verr *core.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error = %v, want validation error", err)
	}
	if len(verr.Fields[core.FieldDueDate]) == 0 || len(verr.Fields[core.FieldInstallmentAmount]) == 0 {
		t.Errorf("fields = %v", verr.Fields)
	}
}

func TestRun_OfflineQueueThenSync(t *testing.T) {
	f := newFixture(t)

	if _, err := f.run(t, "create", "-nome", "Internet", "-vencimento", "2025-01-10", "-valor", "99.90"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := f.run(t, "list"); err != nil {
		t.Fatalf("list: %v", err)
	}

	f.checker.online.Store(false)

	// cached list still answers
	out, err := f.run(t, "list")
	if err != nil || !strings.Contains(out, "Internet") {
		t.Fatalf("offline list = %q, %v", out, err)
	}
	if _, err := f.run(t, "create", "-nome", "Academia", "-vencimento", "2025-01-20", "-valor", "120"); !errors.Is(err, client.ErrQueued) {
		t.Fatalf("offline create error = %v", err)
	}
	out, _ = f.run(t, "pending")
	if !strings.Contains(out, `"method": "POST"`) || !strings.Contains(out, "/contas") {
		t.Errorf("pending output = %q", out)
	}
	out, err = f.run(t, "sync")
	if err != nil || !strings.Contains(out, "Nada a sincronizar") {
		t.Errorf("offline sync = %q, %v", out, err)
	}

	f.checker.online.Store(true)
	out, err = f.run(t, "sync")
	if err != nil || !strings.Contains(out, "Sincronizadas: 1, pendentes: 0") {
		t.Fatalf("sync = %q, %v", out, err)
	}
	out, _ = f.run(t, "search", "-valor", "academia")
	if !strings.Contains(out, "Academia") {
		t.Errorf("replayed bill not found: %q", out)
	}
	out, _ = f.run(t, "pending")
	if !strings.Contains(out, "Nenhuma ação pendente") {
		t.Errorf("queue not empty: %q", out)
	}
}

func TestRun_Report(t *testing.T) {
	f := newFixture(t)
	if _, err := f.run(t, "create", "-nome", "Água", "-vencimento", "2025-01-12", "-valor", "80"); err != nil {
		t.Fatalf("create: %v", err)
	}

	path := filepath.Join(t.TempDir(), "contas.pdf")
	out, err := f.run(t, "report", "-saida", path, "-status", "nao-pagas")
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if !strings.Contains(out, path) {
		t.Errorf("report output = %q", out)
	}
}

func TestRun_IncomePropagatesPastNextYear(t *testing.T) {
	f := newFixture(t)

	out, err := f.run(t, "income", "-ano", "2026", "-mes", "12", "-valor", "1000", "-propagar", "2")
	if err != nil {
		t.Fatalf("income: %v", err)
	}
	if !strings.Contains(out, "gravada em 3 meses") || strings.Contains(out, "falha") {
		t.Errorf("income output = %q", out)
	}
}
