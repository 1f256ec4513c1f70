// Package revocation tracks which sessions are live (whitelist) and
// which have been explicitly revoked (blacklist). The two namespaces are
// independent: a blacklist write never reads the whitelist, and a
// session can hold markers in both at once. Authentication checks the
// blacklist first so revocation always wins. Markers carry the session
// TTL, so residual records expire together with the tokens they
// describe and absence is a definitive negative.
package revocation

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/tmcampion/go-content-auth/store"
)

const (
	whitelistPrefix = "whitelist:"
	blacklistPrefix = "blacklist:"

	// marker is the stored value; only key presence matters.
	marker = "1"
)

type Registry struct {
	kv store.Store
}

func New(kv store.Store) *Registry {
	return &Registry{kv: kv}
}

// Whitelist marks sessionID as having an active session. Overwrites any
// prior marker, refreshing its TTL.
func (r *Registry) Whitelist(ctx context.Context, sessionID string, ttl time.Duration) error {
	if err := r.kv.Set(ctx, whitelistPrefix+sessionID, marker, ttl); err != nil {
		return errors.Wrap(err, "revocation.Whitelist")
	}
	return nil
}

// Blacklist marks sessionID as revoked. Idempotent.
func (r *Registry) Blacklist(ctx context.Context, sessionID string, ttl time.Duration) error {
	if err := r.kv.Set(ctx, blacklistPrefix+sessionID, marker, ttl); err != nil {
		return errors.Wrap(err, "revocation.Blacklist")
	}
	return nil
}

// IsWhitelisted reports session presence. A store failure is returned
// as an error, never as a negative, so callers can fail closed.
func (r *Registry) IsWhitelisted(ctx context.Context, sessionID string) (bool, error) {
	ok, err := r.kv.Exists(ctx, whitelistPrefix+sessionID)
	if err != nil {
		return false, errors.Wrap(err, "revocation.IsWhitelisted")
	}
	return ok, nil
}

func (r *Registry) IsBlacklisted(ctx context.Context, sessionID string) (bool, error) {
	ok, err := r.kv.Exists(ctx, blacklistPrefix+sessionID)
	if err != nil {
		return false, errors.Wrap(err, "revocation.IsBlacklisted")
	}
	return ok, nil
}
