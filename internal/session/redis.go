package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/and161185/homeservices/internal/model"
)

const defaultTimeout = 5 * time.Second

// RedisConfig captures the settings for the Redis backed store.
type RedisConfig struct {
	Addr    string
	DB      int
	Prefix  string
	Timeout time.Duration
}

// Connect initialises a Redis client and validates connectivity with a ping.
func Connect(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client := redis.NewClient(&redis.Options{
		Addr: cfg.Addr,
		DB:   cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

// RedisStore keeps the session as three keys: <prefix>:access_token,
// <prefix>:refresh_token and <prefix>:user.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore wraps client; prefix defaults to "homeservices:session".
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "homeservices:session"
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (r *RedisStore) keys() (access, refresh, user string) {
	return r.prefix + ":access_token", r.prefix + ":refresh_token", r.prefix + ":user"
}

func (r *RedisStore) Get(ctx context.Context) (model.Session, error) {
	ka, kr, ku := r.keys()
	vals, err := r.client.MGet(ctx, ka, kr, ku).Result()
	if err != nil {
		return model.Session{}, fmt.Errorf("redis mget: %w", err)
	}
	var s model.Session
	if v, ok := vals[0].(string); ok {
		s.AccessToken = v
	}
	if v, ok := vals[1].(string); ok {
		s.RefreshToken = v
	}
	if v, ok := vals[2].(string); ok && v != "" {
		var u model.User
		if err := json.Unmarshal([]byte(v), &u); err != nil {
			return model.Session{}, fmt.Errorf("decode user: %w", err)
		}
		s.User = &u
	}
	return s, nil
}

// Set writes the group in one MULTI/EXEC; absent entries are deleted in the same transaction.
func (r *RedisStore) Set(ctx context.Context, s model.Session) error {
	ka, kr, ku := r.keys()
	var userJSON []byte
	if s.User != nil {
		b, err := json.Marshal(s.User)
		if err != nil {
			return err
		}
		userJSON = b
	}
	_, err := r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		setOrDel(ctx, p, ka, s.AccessToken)
		setOrDel(ctx, p, kr, s.RefreshToken)
		setOrDel(ctx, p, ku, string(userJSON))
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis tx: %w", err)
	}
	return nil
}

func setOrDel(ctx context.Context, p redis.Pipeliner, key, val string) {
	if val == "" {
		p.Del(ctx, key)
		return
	}
	p.Set(ctx, key, val, 0)
}

func (r *RedisStore) Clear(ctx context.Context) error {
	ka, kr, ku := r.keys()
	if err := r.client.Del(ctx, ka, kr, ku).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
