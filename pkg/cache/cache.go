package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// Full catalog listing: sweets:list -> JSON array of sweet items
	KeySweetsList = "sweets:list"

	// Purchase replay: idem:purchase:{user_id}:{idempotency_key} -> JSON purchase response
	KeyIdemPurchase = "idem:purchase:%s:%s"
)

var (
	TTLSweetsList  = 5 * time.Minute
	TTLIdempotency = 24 * time.Hour
)

func IdemPurchaseKey(userID, key string) string {
	return fmt.Sprintf(KeyIdemPurchase, userID, key)
}

// Store is a byte-value cache. Get reports ok=false on a miss.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	Close() error
}

type RedisStore struct {
	rdb *redis.Client
}

func NewRedis(addr, password string, db int) *RedisStore {
	return &RedisStore{rdb: redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})}
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.rdb.Set(ctx, key, value, ttl).Err()
}

func (s *RedisStore) SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	return s.rdb.SetNX(ctx, key, value, ttl).Result()
}

func (s *RedisStore) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.rdb.Del(ctx, keys...).Err()
}

func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

// Noop misses on every read. Used when REDIS_ADDR is unset.
type Noop struct{}

func (Noop) Get(context.Context, string) ([]byte, bool, error)                  { return nil, false, nil }
func (Noop) Set(context.Context, string, []byte, time.Duration) error           { return nil }
func (Noop) SetNX(context.Context, string, []byte, time.Duration) (bool, error) { return true, nil }
func (Noop) Del(context.Context, ...string) error                               { return nil }
func (Noop) Close() error                                                       { return nil }
