package limiter

import (
	"context"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis keeps counters in Redis so several backend processes share lockouts.
// Keys are <prefix>:fails:<email>:<ip> and <prefix>:block:<email>:<ip>; both expire on their own.
type Redis struct {
	client redis.UniversalClient
	prefix string
	cfg    Config
}

var _ Limiter = (*Redis)(nil)

// NewRedis constructs a Redis-backed limiter; prefix defaults to "homeservices:limiter".
func NewRedis(client redis.UniversalClient, prefix string, cfg Config) *Redis {
	if prefix == "" {
		prefix = "homeservices:limiter"
	}
	return &Redis{client: client, prefix: prefix, cfg: cfg.withDefaults()}
}

func (r *Redis) keys(email string, ipHash []byte) (fails, block string) {
	id := email + ":" + hex.EncodeToString(ipHash)
	return r.prefix + ":fails:" + id, r.prefix + ":block:" + id
}

func (r *Redis) Allow(ctx context.Context, email string, ipHash []byte) (bool, time.Duration, error) {
	_, kb := r.keys(email, ipHash)
	ttl, err := r.client.PTTL(ctx, kb).Result()
	if err != nil {
		return false, 0, fmt.Errorf("redis pttl: %w", err)
	}
	// -2 missing, -1 no expiry
	if ttl > 0 {
		return false, ttl, nil
	}
	return true, 0, nil
}

func (r *Redis) Success(ctx context.Context, email string, ipHash []byte) error {
	kf, kb := r.keys(email, ipHash)
	if err := r.client.Del(ctx, kf, kb).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Failure counts the attempt; every failure pushes the window forward.
func (r *Redis) Failure(ctx context.Context, email string, ipHash []byte) (bool, time.Duration, error) {
	kf, kb := r.keys(email, ipHash)
	var incr *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		incr = p.Incr(ctx, kf)
		p.PExpire(ctx, kf, r.cfg.Window)
		return nil
	})
	if err != nil {
		return false, 0, fmt.Errorf("redis tx: %w", err)
	}
	if incr.Val() < int64(r.cfg.MaxFails) {
		return false, 0, nil
	}
	_, err = r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, kb, "1", r.cfg.BlockFor)
		p.Del(ctx, kf)
		return nil
	})
	if err != nil {
		return false, 0, fmt.Errorf("redis tx: %w", err)
	}
	return true, r.cfg.BlockFor, nil
}
