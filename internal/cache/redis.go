package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/ekamlabs/ekamquery/internal/domain"
)

const redisKeyPrefix = "ekamquery:cache:"

// RedisStore backs the cache with Redis so responses survive restarts and
// are shared across replicas. Expiry rides on Redis TTLs; any Redis
// failure is logged and treated as a miss.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore connects to the Redis URL (redis://...). The connection is
// verified once up front so a misconfigured URL fails at startup, not on
// the first query.
func NewRedisStore(ctx context.Context, url string, ttl time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisStore{client: client, ttl: ttl}, nil
}

func (s *RedisStore) Get(ctx context.Context, key string) (*domain.QueryResponse, bool) {
	payload, err := s.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("cache: redis get failed, treating as miss: %v", err)
		}
		return nil, false
	}

	var value domain.QueryResponse
	if err := json.Unmarshal(payload, &value); err != nil {
		log.Printf("cache: corrupt redis entry for key %q, treating as miss: %v", key, err)
		return nil, false
	}
	return &value, true
}

func (s *RedisStore) Put(ctx context.Context, key string, value *domain.QueryResponse) {
	payload, err := json.Marshal(value)
	if err != nil {
		log.Printf("cache: marshal failed for key %q: %v", key, err)
		return
	}
	if err := s.client.Set(ctx, redisKeyPrefix+key, payload, s.ttl).Err(); err != nil {
		log.Printf("cache: redis set failed for key %q: %v", key, err)
	}
}

func (s *RedisStore) Flush(ctx context.Context) {
	iter := s.client.Scan(ctx, 0, redisKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			log.Printf("cache: redis del failed for key %q: %v", iter.Val(), err)
		}
	}
	if err := iter.Err(); err != nil {
		log.Printf("cache: redis flush scan failed: %v", err)
	}
}

// Close releases the underlying connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
