// Package redisstore implements the store capability on a Redis server
// via go-redis. Every call runs under a bounded timeout so a slow or
// unreachable server turns into an error the caller can fail closed on,
// never an indefinite block.
package redisstore

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/tmcampion/go-content-auth/store"
)

type Config struct {
	Addr     string
	DB       int
	Password string

	// OpTimeout bounds each round trip. Zero disables the per-op deadline.
	OpTimeout time.Duration
}

type Store struct {
	rdb       *redis.Client
	opTimeout time.Duration
}

var _ store.Store = (*Store)(nil)

func New(cfg Config) *Store {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		DB:       cfg.DB,
		Password: cfg.Password,
	})
	return &Store{rdb: rdb, opTimeout: cfg.OpTimeout}
}

// NewWithClient wraps an existing client (used by tests against a fake
// or shared pool).
func NewWithClient(rdb *redis.Client, opTimeout time.Duration) *Store {
	return &Store{rdb: rdb, opTimeout: opTimeout}
}

func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	return s.rdb.Ping(ctx).Err()
}

func (s *Store) Close() error {
	return s.rdb.Close()
}

func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	v, err := s.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrapf(err, "redisstore.Get %q", key)
	}
	return v, true, nil
}

func (s *Store) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	if err := s.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		return errors.Wrapf(err, "redisstore.Set %q", key)
	}
	return nil
}

func (s *Store) SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	ok, err := s.rdb.SetNX(ctx, key, value, ttl).Result()
	if err != nil {
		return false, errors.Wrapf(err, "redisstore.SetNX %q", key)
	}
	return ok, nil
}

func (s *Store) Delete(ctx context.Context, keys ...string) (int64, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	n, err := s.rdb.Del(ctx, keys...).Result()
	if err != nil {
		return 0, errors.Wrapf(err, "redisstore.Delete %v", keys)
	}
	return n, nil
}

func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	n, err := s.rdb.Exists(ctx, key).Result()
	if err != nil {
		return false, errors.Wrapf(err, "redisstore.Exists %q", key)
	}
	return n == 1, nil
}

func (s *Store) Expire(ctx context.Context, key string, ttl time.Duration) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	if err := s.rdb.Expire(ctx, key, ttl).Err(); err != nil {
		return errors.Wrapf(err, "redisstore.Expire %q", key)
	}
	return nil
}

func (s *Store) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	fields, err := s.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "redisstore.HGetAll %q", key)
	}
	return fields, nil
}

func (s *Store) HSet(ctx context.Context, key string, fields map[string]string) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	if err := s.rdb.HSet(ctx, key, fields).Err(); err != nil {
		return errors.Wrapf(err, "redisstore.HSet %q", key)
	}
	return nil
}

func (s *Store) SAdd(ctx context.Context, key string, members ...string) (int64, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	args := make([]interface{}, 0, len(members))
	for _, m := range members {
		args = append(args, m)
	}
	n, err := s.rdb.SAdd(ctx, key, args...).Result()
	if err != nil {
		return 0, errors.Wrapf(err, "redisstore.SAdd %q", key)
	}
	return n, nil
}

func (s *Store) SRem(ctx context.Context, key string, members ...string) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	args := make([]interface{}, 0, len(members))
	for _, m := range members {
		args = append(args, m)
	}
	if err := s.rdb.SRem(ctx, key, args...).Err(); err != nil {
		return errors.Wrapf(err, "redisstore.SRem %q", key)
	}
	return nil
}

func (s *Store) SIsMember(ctx context.Context, key, member string) (bool, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	ok, err := s.rdb.SIsMember(ctx, key, member).Result()
	if err != nil {
		return false, errors.Wrapf(err, "redisstore.SIsMember %q", key)
	}
	return ok, nil
}

func (s *Store) SMembers(ctx context.Context, key string) ([]string, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	members, err := s.rdb.SMembers(ctx, key).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "redisstore.SMembers %q", key)
	}
	return members, nil
}

func (s *Store) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.opTimeout)
}
