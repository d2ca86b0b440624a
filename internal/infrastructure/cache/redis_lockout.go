// Package cache contiene los adaptadores sobre Redis.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/billy-api/internal/application/auth"
)

const lockoutKeyPrefix = "auth:lockout:"

// Connect crea el cliente y verifica la conexión con PING.
func Connect(ctx context.Context, addr, password string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis: ping %s: %w", addr, err)
	}
	return client, nil
}

// RedisLockout implementa auth.LockoutStore con un hash por email
// (count, last en milisegundos) que expira ttl después del último fallo.
type RedisLockout struct {
	client redis.UniversalClient
	ttl    time.Duration
}

var _ auth.LockoutStore = (*RedisLockout)(nil)

// NewRedisLockout crea el almacén.
func NewRedisLockout(client redis.UniversalClient, ttl time.Duration) *RedisLockout {
	return &RedisLockout{client: client, ttl: ttl}
}

func lockoutKey(key string) string { return lockoutKeyPrefix + key }

func (r *RedisLockout) Failures(ctx context.Context, key string, now time.Time) (int, time.Time, error) {
	vals, err := r.client.HGetAll(ctx, lockoutKey(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, time.Time{}, nil
		}
		return 0, time.Time{}, fmt.Errorf("redis: leer intentos: %w", err)
	}
	if len(vals) == 0 {
		return 0, time.Time{}, nil
	}
	count, _ := strconv.Atoi(vals["count"])
	ms, _ := strconv.ParseInt(vals["last"], 10, 64)
	last := time.UnixMilli(ms).UTC()
	// El reloj del llamador manda sobre el EXPIRE del servidor.
	if now.Sub(last) >= r.ttl {
		if err := r.Reset(ctx, key); err != nil {
			return 0, time.Time{}, err
		}
		return 0, time.Time{}, nil
	}
	return count, last, nil
}

func (r *RedisLockout) RecordFailure(ctx context.Context, key string, now time.Time) (int, error) {
	if _, _, err := r.Failures(ctx, key, now); err != nil {
		return 0, err
	}
	k := lockoutKey(key)
	var incr *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.HIncrBy(ctx, k, "count", 1)
		pipe.HSet(ctx, k, "last", strconv.FormatInt(now.UnixMilli(), 10))
		pipe.PExpire(ctx, k, r.ttl)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("redis: registrar intento: %w", err)
	}
	return int(incr.Val()), nil
}

func (r *RedisLockout) Reset(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, lockoutKey(key)).Err(); err != nil {
		return fmt.Errorf("redis: limpiar intentos: %w", err)
	}
	return nil
}
