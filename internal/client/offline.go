package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"contas/internal/api"
	"contas/internal/core"
	"contas/internal/offline"
)

// ErrQueued is returned when a mutation was stored for later replay.
var ErrQueued = errors.New("request queued for synchronization")

// Checker reports whether the API is reachable.
type Checker interface {
	Online(ctx context.Context) bool
}

// Prober checks connectivity with GET /healthz.
type Prober struct {
	baseURL    string
	httpClient *http.Client
}

func NewProber(baseURL string, timeout time.Duration) *Prober {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Prober{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (p *Prober) Online(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/healthz", nil)
	if err != nil {
		return false
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// OfflineClient queues mutations and serves cached lists while the API
// is unreachable. Online calls go straight to the wrapped Client.
type OfflineClient struct {
	api     *Client
	checker Checker
	queue   *offline.Queue
	cache   *offline.PeriodCache
	now     func() time.Time
}

func NewOfflineClient(c *Client, checker Checker, queue *offline.Queue, cache *offline.PeriodCache) *OfflineClient {
	return &OfflineClient{api: c, checker: checker, queue: queue, cache: cache, now: time.Now}
}

func (o *OfflineClient) ListBills(ctx context.Context, year, month int) ([]api.Bill, error) {
	if !o.checker.Online(ctx) {
		bills, err := o.cache.Load(ctx, year, month)
		if errors.Is(err, offline.ErrKeyNotFound) {
			return nil, nil
		}
		return bills, err
	}
	bills, err := o.api.ListBills(ctx, year, month)
	if err != nil {
		return nil, err
	}
	if err := o.cache.Save(ctx, year, month, bills); err != nil {
		slog.WarnContext(ctx, "Failed to refresh period cache", "year", year, "month", month, "error", err)
	}
	return bills, nil
}

// Search filters the cached period when offline. Without a period the
// current month is used.
func (o *OfflineClient) Search(ctx context.Context, term string, year, month int) ([]api.Bill, error) {
	if o.checker.Online(ctx) {
		return o.api.Search(ctx, term, year, month)
	}
	if strings.TrimSpace(term) == "" {
		return nil, core.ErrEmptySearchTerm
	}
	if year == 0 || month == 0 {
		now := o.now()
		year, month = now.Year(), int(now.Month())
	}
	cached, err := o.cache.Load(ctx, year, month)
	if err != nil && !errors.Is(err, offline.ErrKeyNotFound) {
		return nil, err
	}
	var out []api.Bill
	for _, b := range cached {
		if core.NameMatches(b.Name, term) {
			out = append(out, b)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("search %q: %w", term, core.ErrNotFound)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return core.FoldName(out[i].Name) < core.FoldName(out[j].Name)
	})
	return out, nil
}

func (o *OfflineClient) CreateBill(ctx context.Context, in api.BillInput) ([]api.Bill, error) {
	if !o.checker.Online(ctx) {
		return nil, o.enqueue(ctx, http.MethodPost, "/contas", in)
	}
	return o.api.CreateBill(ctx, in)
}

func (o *OfflineClient) EditBill(ctx context.Context, id string, in api.BillInput) ([]api.Bill, error) {
	if !o.checker.Online(ctx) {
		return nil, o.enqueue(ctx, http.MethodPut, "/contas/"+url.PathEscape(id), in)
	}
	return o.api.EditBill(ctx, id, in)
}

func (o *OfflineClient) PayBill(ctx context.Context, id string) (api.Bill, error) {
	if !o.checker.Online(ctx) {
		return api.Bill{}, o.enqueue(ctx, http.MethodPut, "/contas/"+url.PathEscape(id)+"/pagar", nil)
	}
	return o.api.PayBill(ctx, id)
}

func (o *OfflineClient) UnpayBill(ctx context.Context, id string) (api.Bill, error) {
	if !o.checker.Online(ctx) {
		return api.Bill{}, o.enqueue(ctx, http.MethodPut, "/contas/"+url.PathEscape(id)+"/desmarcar", nil)
	}
	return o.api.UnpayBill(ctx, id)
}

// DeleteBill is never queued.
func (o *OfflineClient) DeleteBill(ctx context.Context, id string) error {
	return o.api.DeleteBill(ctx, id)
}

func (o *OfflineClient) PutIncome(ctx context.Context, in api.IncomeInput) (api.Income, error) {
	if !o.checker.Online(ctx) {
		return api.Income{}, o.enqueue(ctx, http.MethodPut, "/receitas", in)
	}
	return o.api.PutIncome(ctx, in)
}

// PropagateIncome writes the same income to the given period and the
// monthsAhead that follow. It is a single PUT carrying propagarMeses so the
// server applies its propagation rules, and a single queued action offline.
func (o *OfflineClient) PropagateIncome(ctx context.Context, year, month int, total api.Amount, monthsAhead int) (api.Income, error) {
	return o.PutIncome(ctx, api.IncomeInput{
		Year:            year,
		Month:           month,
		TotalIncome:     total,
		PropagateMonths: monthsAhead,
	})
}

func (o *OfflineClient) enqueue(ctx context.Context, method, path string, body any) error {
	if _, err := o.queue.Enqueue(ctx, method, path, body); err != nil {
		return fmt.Errorf("queue %s %s: %w", method, path, err)
	}
	return ErrQueued
}

// Sender replays queued actions through the wrapped client.
func (o *OfflineClient) Sender() offline.Sender {
	return offline.SenderFunc(func(ctx context.Context, a offline.Action) error {
		return o.api.Replay(ctx, a.Method, a.Path, a.Body)
	})
}
