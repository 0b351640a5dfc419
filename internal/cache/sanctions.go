package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/banking/compliance-service/internal/domain"
)

const (
	entriesKey    = "sanctions:entries"
	lastUpdateKey = "sanctions:last_update"
)

// ErrListNotCached is returned when no sanctions list is present in Redis.
var ErrListNotCached = errors.New("sanctions list not cached")

// SanctionsCache stores the sanctions list feed in Redis so every
// instance loads the same snapshot at startup instead of refetching the
// upstream feed.
type SanctionsCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSanctionsCache creates a cache backed by the given Redis client.
func NewSanctionsCache(client *redis.Client, ttl time.Duration) *SanctionsCache {
	return &SanctionsCache{
		client: client,
		ttl:    ttl,
	}
}

// SetEntries replaces the cached sanctions list.
func (c *SanctionsCache) SetEntries(ctx context.Context, entries []domain.SanctionedEntity) error {
	payload, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, entriesKey, payload, c.ttl).Err()
}

// GetEntries returns the cached sanctions list, or ErrListNotCached.
func (c *SanctionsCache) GetEntries(ctx context.Context) ([]domain.SanctionedEntity, error) {
	payload, err := c.client.Get(ctx, entriesKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrListNotCached
	}
	if err != nil {
		return nil, err
	}

	var entries []domain.SanctionedEntity
	if err := json.Unmarshal(payload, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// SetLastUpdate records when the cached list was refreshed.
func (c *SanctionsCache) SetLastUpdate(ctx context.Context, t time.Time) error {
	return c.client.Set(ctx, lastUpdateKey, t.UTC().Format(time.RFC3339), c.ttl).Err()
}

// GetLastUpdate returns when the cached list was refreshed. A zero time
// with nil error means no refresh is recorded.
func (c *SanctionsCache) GetLastUpdate(ctx context.Context) (time.Time, error) {
	raw, err := c.client.Get(ctx, lastUpdateKey).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	return time.Parse(time.RFC3339, raw)
}
