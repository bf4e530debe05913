package offline

import (
	"context"
	"encoding/json"
	"fmt"

	"contas/internal/api"
)

// CacheKey is the storage key of the cached list for a period.
func CacheKey(year, month int) string {
	return fmt.Sprintf("contas-cache-%d-%d", year, month)
}

// PeriodCache keeps the last bill list fetched for each period.
type PeriodCache struct {
	store Store
}

func NewPeriodCache(store Store) *PeriodCache {
	return &PeriodCache{store: store}
}

func (c *PeriodCache) Save(ctx context.Context, year, month int, bills []api.Bill) error {
	raw, err := json.Marshal(bills)
	if err != nil {
		return fmt.Errorf("encode cached bills: %w", err)
	}
	return c.store.Put(ctx, CacheKey(year, month), raw)
}

// Load returns the cached list or an error wrapping ErrKeyNotFound.
func (c *PeriodCache) Load(ctx context.Context, year, month int) ([]api.Bill, error) {
	raw, err := c.store.Get(ctx, CacheKey(year, month))
	if err != nil {
		return nil, err
	}
	var bills []api.Bill
	if err := json.Unmarshal(raw, &bills); err != nil {
		return nil, fmt.Errorf("decode cached bills: %w", err)
	}
	return bills, nil
}

func (c *PeriodCache) Clear(ctx context.Context, year, month int) error {
	return c.store.Delete(ctx, CacheKey(year, month))
}
