package offline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

// QueueKey is where the pending action list is stored.
const QueueKey = "offline-queue"

var (
	ErrUnsupportedMethod = errors.New("only POST and PUT can be queued")
	ErrDrainInProgress   = errors.New("drain already in progress")
)

type ActionState string

const (
	StatePending      ActionState = "pending"
	StateSent         ActionState = "sent"
	StateAcknowledged ActionState = "acknowledged"
	StateFailed       ActionState = "failed"
)

// Action is a mutation waiting to be replayed against the API.
type Action struct {
	ID         string          `json:"id"`
	Method     string          `json:"method"`
	Path       string          `json:"path"`
	Body       json.RawMessage `json:"body,omitempty"`
	State      ActionState     `json:"state"`
	EnqueuedAt time.Time       `json:"enqueuedAt"`
	Attempts   int             `json:"attempts"`
	LastError  string          `json:"lastError,omitempty"`
}

// Sender replays one action. A nil error acknowledges it.
type Sender interface {
	Send(ctx context.Context, a Action) error
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, a Action) error

func (f SenderFunc) Send(ctx context.Context, a Action) error { return f(ctx, a) }

// DrainResult describes one drain pass.
type DrainResult struct {
	Acknowledged int
	Remaining    int
	// Err is the failure that stopped the pass, if any.
	Err error
}

// Queue is a durable FIFO of actions. Drains never overlap.
type Queue struct {
	store Store

	mu      sync.Mutex // guards the stored list
	drainMu sync.Mutex

	obsMu     sync.Mutex
	observers []func(DrainResult)
}

func NewQueue(store Store) *Queue {
	return &Queue{store: store}
}

// Subscribe registers fn to run after every drain that acknowledged at
// least one action.
func (q *Queue) Subscribe(fn func(DrainResult)) {
	q.obsMu.Lock()
	defer q.obsMu.Unlock()
	q.observers = append(q.observers, fn)
}

// Enqueue appends a POST or PUT action and persists the list.
func (q *Queue) Enqueue(ctx context.Context, method, path string, body any) (Action, error) {
	if method != http.MethodPost && method != http.MethodPut {
		return Action{}, fmt.Errorf("%s %s: %w", method, path, ErrUnsupportedMethod)
	}
	var raw json.RawMessage
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return Action{}, fmt.Errorf("encode body: %w", err)
		}
		raw = b
	}
	a := Action{
		ID:         uuid.NewString(),
		Method:     method,
		Path:       path,
		Body:       raw,
		State:      StatePending,
		EnqueuedAt: time.Now().UTC(),
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	list, err := q.load(ctx)
	if err != nil {
		return Action{}, err
	}
	if err := q.save(ctx, append(list, a)); err != nil {
		return Action{}, err
	}

	slog.InfoContext(ctx, "Action queued", "method", method, "path", path, "queue_length", len(list)+1)
	return a, nil
}

// Pending returns the queued actions in enqueue order.
func (q *Queue) Pending(ctx context.Context) ([]Action, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.load(ctx)
}

func (q *Queue) Len(ctx context.Context) (int, error) {
	list, err := q.Pending(ctx)
	return len(list), err
}

// Drain replays the queue head first. The first failure ends the pass and
// leaves the failed action at the head.
func (q *Queue) Drain(ctx context.Context, sender Sender) (DrainResult, error) {
	if !q.drainMu.TryLock() {
		return DrainResult{}, ErrDrainInProgress
	}
	defer q.drainMu.Unlock()

	var result DrainResult
	for {
		if err := ctx.Err(); err != nil {
			result.Err = err
			break
		}
		head, ok, err := q.markHead(ctx, StateSent, "")
		if err != nil {
			return result, err
		}
		if !ok {
			break
		}

		sendErr := sender.Send(ctx, head)
		if sendErr != nil {
			slog.WarnContext(ctx, "Queued action failed, stopping drain",
				"action_id", head.ID,
				"method", head.Method,
				"path", head.Path,
				"error", sendErr)
			if _, _, err := q.markHead(ctx, StateFailed, sendErr.Error()); err != nil {
				return result, err
			}
			result.Err = sendErr
			break
		}

		// acknowledged actions leave the list
		if err := q.removeHead(ctx, head.ID); err != nil {
			return result, err
		}
		result.Acknowledged++
	}

	remaining, err := q.Len(ctx)
	if err != nil {
		return result, err
	}
	result.Remaining = remaining

	if result.Acknowledged > 0 {
		slog.InfoContext(ctx, "Offline queue drained",
			"acknowledged", result.Acknowledged,
			"remaining", result.Remaining)
		q.notify(result)
	}
	return result, nil
}

// markHead sets the state of the first action and persists it.
func (q *Queue) markHead(ctx context.Context, state ActionState, lastErr string) (Action, bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	list, err := q.load(ctx)
	if err != nil {
		return Action{}, false, err
	}
	if len(list) == 0 {
		return Action{}, false, nil
	}
	list[0].State = state
	if state == StateSent {
		list[0].Attempts++
	}
	if lastErr != "" {
		list[0].LastError = lastErr
	}
	if err := q.save(ctx, list); err != nil {
		return Action{}, false, err
	}
	return list[0], true, nil
}

func (q *Queue) removeHead(ctx context.Context, id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	list, err := q.load(ctx)
	if err != nil {
		return err
	}
	if len(list) == 0 || list[0].ID != id {
		return fmt.Errorf("queue head changed during drain")
	}
	return q.save(ctx, list[1:])
}

func (q *Queue) notify(res DrainResult) {
	q.obsMu.Lock()
	observers := append([]func(DrainResult){}, q.observers...)
	q.obsMu.Unlock()
	for _, fn := range observers {
		fn(res)
	}
}

func (q *Queue) load(ctx context.Context) ([]Action, error) {
	raw, err := q.store.Get(ctx, QueueKey)
	if errors.Is(err, ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load queue: %w", err)
	}
	var list []Action
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("decode queue: %w", err)
	}
	return list, nil
}

func (q *Queue) save(ctx context.Context, list []Action) error {
	if len(list) == 0 {
		return q.store.Delete(ctx, QueueKey)
	}
	raw, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("encode queue: %w", err)
	}
	if err := q.store.Put(ctx, QueueKey, raw); err != nil {
		return fmt.Errorf("save queue: %w", err)
	}
	return nil
}
