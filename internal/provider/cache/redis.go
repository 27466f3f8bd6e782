package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"github.com/redis/go-redis/v9"
)

// Redis is a Store backed by a redis server, so several finboard processes
// can share one cache. Values are JSON encoded and written without expiry.
// Redis failures degrade to cache misses and dropped writes.
type Redis[V any] struct {
	client *redis.Client
	prefix string
}

func NewRedis[V any](client *redis.Client, prefix string) *Redis[V] {
	return &Redis[V]{client: client, prefix: prefix}
}

func (r *Redis[V]) key(k string) string { return r.prefix + k }

func (r *Redis[V]) Get(ctx context.Context, key string) (V, bool) {
	var zero V
	b, err := r.client.Get(ctx, r.key(key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("[WARN] redis cache get %s: %v", r.key(key), err)
		}
		return zero, false
	}
	var v V
	if err := json.Unmarshal(b, &v); err != nil {
		log.Printf("[WARN] redis cache decode %s: %v", r.key(key), err)
		return zero, false
	}
	return v, true
}

func (r *Redis[V]) Put(ctx context.Context, key string, v V) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Printf("[WARN] redis cache encode %s: %v", r.key(key), err)
		return
	}
	if err := r.client.Set(ctx, r.key(key), b, 0).Err(); err != nil {
		log.Printf("[WARN] redis cache put %s: %v", r.key(key), err)
	}
}
