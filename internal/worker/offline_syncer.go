package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"contas/internal/offline"
)

// OfflineSyncerConfig holds configuration for the offline syncer
type OfflineSyncerConfig struct {
	// PollInterval is how often connectivity is probed (default: 15s)
	PollInterval time.Duration
}

// DefaultOfflineSyncerConfig returns sensible defaults
func DefaultOfflineSyncerConfig() OfflineSyncerConfig {
	return OfflineSyncerConfig{
		PollInterval: 15 * time.Second,
	}
}

// Connectivity reports whether the API can be reached.
type Connectivity interface {
	Online(ctx context.Context) bool
}

// OfflineSyncer drains the offline queue whenever the API is reachable.
type OfflineSyncer struct {
	queue  *offline.Queue
	sender offline.Sender
	online Connectivity
	config OfflineSyncerConfig

	// Lifecycle management
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewOfflineSyncer(queue *offline.Queue, sender offline.Sender, online Connectivity, config OfflineSyncerConfig) *OfflineSyncer {
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultOfflineSyncerConfig().PollInterval
	}
	return &OfflineSyncer{
		queue:  queue,
		sender: sender,
		online: online,
		config: config,
	}
}

// Start begins the polling loop. Returns an error if already running.
func (s *OfflineSyncer) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("offline syncer is already running")
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	stop, done := s.stopCh, s.doneCh
	s.mu.Unlock()

	go s.runLoop(ctx, stop, done)

	slog.InfoContext(ctx, "Offline syncer started", "poll_interval", s.config.PollInterval)
	return nil
}

// Stop signals the loop and waits for the current pass to finish. Only
// the first of concurrent callers closes the stop channel.
func (s *OfflineSyncer) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	stop, done := s.stopCh, s.doneCh
	s.mu.Unlock()

	close(stop)

	select {
	case <-done:
		slog.InfoContext(ctx, "Offline syncer stopped gracefully")
		return nil
	case <-ctx.Done():
		slog.WarnContext(ctx, "Offline syncer stop timed out")
		return ctx.Err()
	}
}

func (s *OfflineSyncer) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// SyncNow runs one drain pass if the API is reachable and the queue is not
// empty. It reports whether a pass ran.
func (s *OfflineSyncer) SyncNow(ctx context.Context) (offline.DrainResult, bool, error) {
	n, err := s.queue.Len(ctx)
	if err != nil {
		return offline.DrainResult{}, false, err
	}
	if n == 0 || !s.online.Online(ctx) {
		return offline.DrainResult{}, false, nil
	}
	res, err := s.queue.Drain(ctx, s.sender)
	if errors.Is(err, offline.ErrDrainInProgress) {
		return offline.DrainResult{}, false, nil
	}
	return res, err == nil, err
}

func (s *OfflineSyncer) runLoop(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.config.PollInterval)
	defer ticker.Stop()

	// Sync immediately on startup
	s.pass(ctx)

	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.pass(ctx)
		}
	}
}

func (s *OfflineSyncer) pass(ctx context.Context) {
	res, ran, err := s.SyncNow(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Offline sync pass failed", "error", err)
		return
	}
	if ran && res.Err != nil {
		slog.WarnContext(ctx, "Offline sync pass stopped early",
			"acknowledged", res.Acknowledged,
			"remaining", res.Remaining,
			"error", res.Err)
	}
}
