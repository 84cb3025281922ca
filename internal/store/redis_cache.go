package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"poker-rooms/engine"
	"poker-rooms/internal/redis"
	"poker-rooms/models"
)

const (
	roomKeyPrefix   = "poker:room:"
	defaultCacheTTL = 6 * time.Hour
)

// RedisCache puts Redis in front of another Store. Writes go to both; reads
// try Redis first. A Redis failure is logged and the backing store answers.
type RedisCache struct {
	client  *redis.Client
	backing engine.Store
	ttl     time.Duration
	log     *zap.Logger
}

func NewRedisCache(client *redis.Client, backing engine.Store, ttl time.Duration, log *zap.Logger) *RedisCache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &RedisCache{client: client, backing: backing, ttl: ttl, log: log}
}

func roomKey(roomID string) string {
	return roomKeyPrefix + roomID
}

func (c *RedisCache) Save(ctx context.Context, t *models.Table) error {
	if err := c.backing.Save(ctx, t); err != nil {
		return err
	}
	c.put(ctx, t)
	return nil
}

func (c *RedisCache) Load(ctx context.Context, roomID string) (*models.Table, error) {
	data, err := c.client.Get(ctx, roomKey(roomID)).Result()
	switch {
	case err == nil:
		t, decodeErr := decodeTable(data)
		if decodeErr == nil {
			return t, nil
		}
		c.log.Warn("corrupt cached room", zap.String("room_id", roomID), zap.Error(decodeErr))
	case errors.Is(err, goredis.Nil):
	default:
		c.log.Warn("redis read failed", zap.String("room_id", roomID), zap.Error(err))
	}

	t, err := c.backing.Load(ctx, roomID)
	if err != nil {
		return nil, err
	}
	c.put(ctx, t)
	return t, nil
}

func (c *RedisCache) Delete(ctx context.Context, roomID string) error {
	if err := c.client.Del(ctx, roomKey(roomID)).Err(); err != nil {
		c.log.Warn("redis delete failed", zap.String("room_id", roomID), zap.Error(err))
	}
	return c.backing.Delete(ctx, roomID)
}

func (c *RedisCache) put(ctx context.Context, t *models.Table) {
	data, err := json.Marshal(t)
	if err != nil {
		c.log.Warn("room not cached", zap.String("room_id", t.TableID), zap.Error(fmt.Errorf("marshal: %w", err)))
		return
	}
	if err := c.client.Set(ctx, roomKey(t.TableID), data, c.ttl).Err(); err != nil {
		c.log.Warn("redis write failed", zap.String("room_id", t.TableID), zap.Error(err))
	}
}
