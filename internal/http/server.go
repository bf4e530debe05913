package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"contas/internal/api"
	"contas/internal/cache"
	"contas/internal/core"
	applog "contas/internal/log"
	"contas/internal/middleware/ratelimit"
	"contas/internal/middleware/security"
	"contas/internal/middleware/trace"
	"contas/internal/ports"
	"contas/internal/services"
)

// BillAPI is the bill functionality the handlers need.
type BillAPI interface {
	Create(ctx context.Context, req core.BillRequest) ([]core.Annotated, error)
	Edit(ctx context.Context, id string, req core.BillRequest) ([]core.Annotated, error)
	SetPaid(ctx context.Context, id string, paid bool) (core.Annotated, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, year, month int) ([]core.Annotated, error)
	Search(ctx context.Context, term string, year, month int) ([]core.Annotated, error)
	Report(ctx context.Context, filter core.ReportFilter) (core.Report, error)
}

// IncomeAPI is the income functionality the handlers need.
type IncomeAPI interface {
	Get(ctx context.Context, year, month int) (core.IncomeRecord, error)
	Upsert(ctx context.Context, year, month int, total decimal.Decimal) (core.IncomeRecord, error)
	Propagate(ctx context.Context, year, month int, total decimal.Decimal, monthsAhead int) (core.IncomeRecord, []services.PeriodFailure, error)
	Balance(ctx context.Context, year, month int) (core.Balance, error)
}

// Config tunes the server. Zero values get defaults.
type Config struct {
	Addr       string
	CORSOrigin string
	CacheTTL   time.Duration
	// ListCache overrides the in-process LRU, e.g. with a Redis cache.
	ListCache         cache.Cache[[]api.Bill]
	RequestsPerMinute int
	Logger            *applog.Logger
}

type Server struct {
	http.Server
	bills  BillAPI
	income IncomeAPI
	health ports.Pinger

	listCache    cache.Cache[[]api.Bill]
	listGen      atomic.Uint64 // bumped by every mutation
	cacheManager *cache.Manager
	limiter      *ratelimit.Limiter
	detector     *security.Detector
	tracer       *trace.Middleware
	startedAt    time.Time
	now          func() time.Time
}

func NewServer(cfg Config, bills BillAPI, income IncomeAPI, health ports.Pinger) *Server {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if cfg.Logger == nil {
		cfg.Logger = applog.New(applog.Config{Component: applog.ComponentHTTP})
	}

	s := &Server{
		bills:        bills,
		income:       income,
		health:       health,
		listCache:    cfg.ListCache,
		cacheManager: cache.NewManager(),
		detector:     security.NewDetector(),
		startedAt:    time.Now(),
		now:          time.Now,
	}
	if s.listCache == nil {
		lru := cache.NewLRUCache[[]api.Bill](128, cfg.CacheTTL)
		s.cacheManager.Register(lru)
		s.cacheManager.StartCleanup(cfg.CacheTTL)
		s.listCache = lru
	}

	limits := ratelimit.DefaultConfig()
	if cfg.RequestsPerMinute > 0 {
		limits.RequestsPerMinute = cfg.RequestsPerMinute
	}
	s.limiter = ratelimit.NewLimiter(limits)
	s.tracer = trace.NewMiddleware(cfg.Logger, s.detector.ExtractClientIP)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("GET /contas", s.handleListBills)
	mux.HandleFunc("POST /contas", s.handleCreateBill)
	mux.HandleFunc("GET /contas/busca", s.handleSearchBills)
	mux.HandleFunc("GET /contas/pdf", s.handleReport)
	mux.HandleFunc("PUT /contas/{id}", s.handleEditBill)
	mux.HandleFunc("PUT /contas/{id}/pagar", s.handleSetPaid(true))
	mux.HandleFunc("PUT /contas/{id}/desmarcar", s.handleSetPaid(false))
	mux.HandleFunc("DELETE /contas/{id}", s.handleDeleteBill)

	mux.HandleFunc("GET /receitas", s.handleGetIncome)
	mux.HandleFunc("PUT /receitas", s.handlePutIncome)
	mux.HandleFunc("GET /receitas/saldo", s.handleBalance)

	var handler http.Handler = mux
	handler = s.limiter.Middleware(s.detector.ExtractClientIP, TooManyRequestsError)(handler)
	handler = s.detector.Middleware(handler)
	handler = security.CORSMiddleware(cfg.CORSOrigin)(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = s.tracer.Middleware(handler)

	s.Server = http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Shutdown stops background routines and drains open connections.
func (s *Server) Shutdown(ctx context.Context) error {
	s.limiter.Stop()
	s.cacheManager.Stop()
	return s.Server.Shutdown(ctx)
}

// ListenAndServe hides http.ErrServerClosed after Shutdown.
func (s *Server) ListenAndServe() error {
	slog.Info("HTTP server listening", "addr", s.Addr)
	if err := s.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// invalidateLists drops every cached list. Ordinals are computed over the
// whole dataset, so one mutation can change rows of any period.
func (s *Server) invalidateLists() {
	s.listGen.Add(1)
	s.listCache.Clear()
}

// cacheList stores bills computed while the generation was gen. A mutation
// that overlapped the computation wins: the entry is skipped, or removed
// again when the bump lands between the check and the write.
func (s *Server) cacheList(key string, gen uint64, bills []api.Bill) {
	if s.listGen.Load() != gen {
		return
	}
	s.listCache.Set(key, bills)
	if s.listGen.Load() != gen {
		s.listCache.Delete(key)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{
		"status": "ok",
		"uptime": time.Since(s.startedAt).Round(time.Second).String(),
	}
	if st, ok := s.listCache.(interface{ Stats() cache.Stats }); ok {
		body["cache"] = st.Stats()
	}
	NewJSONResponse().Body(body).Write(w)
}

// handleReady pings the store.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if s.health != nil {
		if err := s.health.Ping(ctx); err != nil {
			applog.FromContext(ctx).WarnContext(ctx, "Readiness check failed", applog.FieldError, err.Error())
			NewJSONResponse().
				Status(http.StatusServiceUnavailable).
				Body(map[string]string{"status": "not_ready", "store": err.Error()}).
				Write(w)
			return
		}
	}
	NewJSONResponse().Body(map[string]string{"status": "ready", "store": "ok"}).Write(w)
}

// handleMetrics writes request, rate limit and detection counters in the
// Prometheus text format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	traced := s.tracer.GetMetrics()
	limited := s.limiter.GetMetrics()
	detected := s.detector.GetMetrics()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	metric := func(name, kind, help string, value any) {
		fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n%s %v\n", name, help, name, kind, name, value)
	}
	metric("http_requests_total", "counter", "Total HTTP requests.", traced.TotalRequests)
	metric("http_server_errors_total", "counter", "Responses with a 5xx status.", traced.ServerErrors)
	metric("http_last_response_microseconds", "gauge", "Duration of the last response.", traced.LastResponseTimeMic)
	metric("rate_limit_rejected_total", "counter", "Requests rejected by the rate limiter.", limited.Rejected)
	metric("rate_limit_clients", "gauge", "Clients tracked by the rate limiter.", limited.ClientCount)
	metric("security_suspicious_requests_total", "counter", "Requests flagged as suspicious.", detected.SuspiciousRequests)
	metric("security_blocked_requests_total", "counter", "Requests blocked by the detector.", detected.BlockedRequests)
	if st, ok := s.listCache.(interface{ Stats() cache.Stats }); ok {
		stats := st.Stats()
		metric("list_cache_hits_total", "counter", "List cache hits.", stats.Hits)
		metric("list_cache_misses_total", "counter", "List cache misses.", stats.Misses)
		metric("list_cache_entries", "gauge", "Entries in the list cache.", stats.Size)
	}
	metric("uptime_seconds", "gauge", "Seconds since the server started.", int64(time.Since(s.startedAt).Seconds()))
}
