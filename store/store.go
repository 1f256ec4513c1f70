package store

import (
	"context"
	"time"
)

// Store is the key-value capability everything persists through: plain
// keys with optional TTL, flat string hashes for records, and sets for
// membership indexes. Implementations are constructed once at process
// start and passed by injection; nothing reaches for an ambient client.
//
// A zero ttl means no expiry.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// SetNX writes only if the key does not already exist, reporting
	// whether the write happened.
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)

	Delete(ctx context.Context, keys ...string) (int64, error)
	Exists(ctx context.Context, key string) (bool, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error

	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HSet(ctx context.Context, key string, fields map[string]string) error

	// SAdd returns the number of members actually added; 0 for an
	// already-present member is how callers detect a lost race.
	SAdd(ctx context.Context, key string, members ...string) (int64, error)
	SRem(ctx context.Context, key string, members ...string) error
	SIsMember(ctx context.Context, key, member string) (bool, error)
	SMembers(ctx context.Context, key string) ([]string, error)
}
