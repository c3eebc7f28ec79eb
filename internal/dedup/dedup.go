// Package dedup suppresses provider redeliveries of the same inbound message.
package dedup

import (
	"context"
	"time"

	"github.com/mythictransfers/supportdesk/internal/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const keyPrefix = "supportdesk:dedup:"

// Deduper claims message ids so each is processed once per TTL window.
type Deduper interface {
	// Acquire returns true the first time id is seen, false for a duplicate.
	Acquire(ctx context.Context, id string) bool
	// Release forgets id so a later redelivery is processed again.
	Release(ctx context.Context, id string)
}

// RedisDeduper keeps claims in Redis with SET NX and a TTL.
// When Redis is unreachable it lets every message through.
type RedisDeduper struct {
	rdb *redis.Client
	ttl time.Duration
	log *zap.Logger
}

func NewRedisDeduper(rdb *redis.Client, ttl time.Duration, log *zap.Logger) *RedisDeduper {
	return &RedisDeduper{rdb: rdb, ttl: ttl, log: logger.Named(log, "dedup")}
}

// NewRedisClient builds a client for addr. It does not dial.
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})
}

func (d *RedisDeduper) Acquire(ctx context.Context, id string) bool {
	if id == "" {
		return true
	}

	key := keyPrefix + id
	ok, err := d.rdb.SetNX(ctx, key, 1, d.ttl).Result()
	if err != nil {
		d.log.Warn("Redis dedup check failed, allowing processing", zap.String("message_id", id), zap.Error(err))
		return true
	}
	if !ok {
		d.log.Info("Skipped duplicate delivery", zap.String("message_id", id), zap.String("dedup_key", key))
	}
	return ok
}

func (d *RedisDeduper) Release(ctx context.Context, id string) {
	if id == "" {
		return
	}
	if err := d.rdb.Del(ctx, keyPrefix+id).Err(); err != nil {
		d.log.Warn("Failed to release dedup key", zap.String("message_id", id), zap.Error(err))
	}
}

// Nop accepts every message.
type Nop struct{}

func (Nop) Acquire(context.Context, string) bool { return true }
func (Nop) Release(context.Context, string)      {}
