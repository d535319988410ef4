package mirror

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ariefcatur/go-storefront.git/internal/catalog"
	kafkax "github.com/ariefcatur/go-storefront.git/internal/kafka"
	"github.com/ariefcatur/go-storefront.git/internal/redisx"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Client is the slice of the Redis API the mirror touches; satisfied
// by *redis.Client.
type Client interface {
	HGet(ctx context.Context, key, field string) *redis.StringCmd
	HSet(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Exists(ctx context.Context, keys ...string) *redis.IntCmd
}

// Service maintains the catalog mirror: a Redis hash of item documents
// fed by catalog change events. The write side never waits on it.
type Service struct {
	Redis       Client
	ServiceName string
	Log         *zap.Logger
}

// HandleItemChanged is the consumer handler for the catalog change
// topic. Returning an error leaves the offset uncommitted so the
// message is retried.
func (s *Service) HandleItemChanged(ctx context.Context, m kafkago.Message) error {
	var env kafkax.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}
	if env.EventType != catalog.EventItemChanged {
		return nil
	}

	dkey := fmt.Sprintf(redisx.KeyDedup, s.ServiceName, env.EventID)
	if n, _ := s.Redis.Exists(ctx, dkey).Result(); n > 0 {
		return nil
	}

	doc, err := kafkax.UnwrapPayload[catalog.ItemChangedPayload](env.Payload)
	if err != nil {
		return err
	}

	b, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	if err := s.Redis.HSet(ctx, redisx.KeyMirrorItems, doc.ItemID, b).Err(); err != nil {
		return err
	}
	_ = s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()

	s.Log.Info("mirror upsert",
		zap.String("item_id", doc.ItemID),
		zap.String("alias", doc.Alias),
		zap.Int("stock", doc.Stock),
	)
	return nil
}

// Get reads one item document back from the mirror.
func (s *Service) Get(ctx context.Context, itemID string) (*catalog.ItemChangedPayload, error) {
	raw, err := s.Redis.HGet(ctx, redisx.KeyMirrorItems, itemID).Result()
	if err == redis.Nil {
		return nil, catalog.ErrItemNotFound
	}
	if err != nil {
		return nil, err
	}
	var doc catalog.ItemChangedPayload
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}
