package cart

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ariefcatur/go-storefront.git/internal/redisx"
	"github.com/redis/go-redis/v9"
)

// Cache is the open-cart summary cache. Every write to the cart and
// every transition that takes the order out of OPEN must invalidate
// the session's entry.
type Cache interface {
	GetOpenCart(ctx context.Context, sessionID string) ([]LineItemSummary, bool)
	SetOpenCart(ctx context.Context, sessionID string, lines []LineItemSummary)
	InvalidateOpenCart(ctx context.Context, sessionID string)
}

// RedisCache is the production Cache on the shared Redis client.
// All operations are best effort; a miss or error just falls through
// to the store.
type RedisCache struct {
	Client *redis.Client
}

func (c *RedisCache) GetOpenCart(ctx context.Context, sessionID string) ([]LineItemSummary, bool) {
	raw, err := c.Client.Get(ctx, openCartKey(sessionID)).Result()
	if err != nil || raw == "" {
		return nil, false
	}
	var out []LineItemSummary
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, false
	}
	return out, true
}

func (c *RedisCache) SetOpenCart(ctx context.Context, sessionID string, lines []LineItemSummary) {
	b, err := json.Marshal(lines)
	if err != nil {
		return
	}
	_ = c.Client.Set(ctx, openCartKey(sessionID), b, redisx.TTLOpenCart).Err()
}

func (c *RedisCache) InvalidateOpenCart(ctx context.Context, sessionID string) {
	_ = c.Client.Del(ctx, openCartKey(sessionID)).Err()
}

func openCartKey(sessionID string) string {
	return fmt.Sprintf(redisx.KeyOpenCart, sessionID)
}
