package feed

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
)

const latestKey = "feed:latest"

// Cache — кэш последних записей ленты в Redis.
// Хранится один список (до size записей); запросы меньшего размера режутся из него.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewCache создаёт кэш.
func NewCache(rdb *redis.Client, ttl time.Duration) *Cache {
	return &Cache{rdb: rdb, ttl: ttl}
}

// Get возвращает закэшированный список. ok == false при промахе.
func (c *Cache) Get(ctx context.Context) ([]Event, bool, error) {
	data, err := c.rdb.Get(ctx, latestKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var events []Event
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, false, err
	}
	return events, true, nil
}

// Set кладёт список в кэш на ttl.
func (c *Cache) Set(ctx context.Context, events []Event) error {
	data, err := json.Marshal(events)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, latestKey, data, c.ttl).Err()
}

// Invalidate удаляет кэш (вызывается после каждой новой записи).
func (c *Cache) Invalidate(ctx context.Context) error {
	return c.rdb.Del(ctx, latestKey).Err()
}
