package revocation_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tmcampion/go-content-auth/revocation"
	"github.com/tmcampion/go-content-auth/store/storefakes"
)

const sessionID = "b3f9e1c2-session"

func TestWhitelistAndBlacklistAreIndependent(t *testing.T) {
	ctx := context.Background()
	kv := storefakes.NewFakeStore()
	registry := revocation.New(kv)

	require.NoError(t, registry.Whitelist(ctx, sessionID, time.Minute))

	whitelisted, err := registry.IsWhitelisted(ctx, sessionID)
	require.NoError(t, err)
	require.True(t, whitelisted)

	blacklisted, err := registry.IsBlacklisted(ctx, sessionID)
	require.NoError(t, err)
	require.False(t, blacklisted)

	// Blacklisting does not remove the whitelist marker; both coexist
	// and the caller's check order decides.
	require.NoError(t, registry.Blacklist(ctx, sessionID, time.Minute))

	whitelisted, err = registry.IsWhitelisted(ctx, sessionID)
	require.NoError(t, err)
	require.True(t, whitelisted)

	blacklisted, err = registry.IsBlacklisted(ctx, sessionID)
	require.NoError(t, err)
	require.True(t, blacklisted)
}

func TestMarkersExpireWithTTL(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	kv := storefakes.NewFakeStore()
	kv.NowFunc = func() time.Time { return now }
	registry := revocation.New(kv)

	require.NoError(t, registry.Whitelist(ctx, sessionID, time.Minute))
	require.NoError(t, registry.Blacklist(ctx, sessionID, time.Minute))

	now = now.Add(2 * time.Minute)

	whitelisted, err := registry.IsWhitelisted(ctx, sessionID)
	require.NoError(t, err)
	require.False(t, whitelisted)

	blacklisted, err := registry.IsBlacklisted(ctx, sessionID)
	require.NoError(t, err)
	require.False(t, blacklisted)
}

func TestWhitelistOverwriteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	kv := storefakes.NewFakeStore()
	registry := revocation.New(kv)

	require.NoError(t, registry.Whitelist(ctx, sessionID, time.Minute))
	require.NoError(t, registry.Whitelist(ctx, sessionID, time.Minute))

	whitelisted, err := registry.IsWhitelisted(ctx, sessionID)
	require.NoError(t, err)
	require.True(t, whitelisted)
}

func TestStoreErrorsPropagate(t *testing.T) {
	ctx := context.Background()
	kv := storefakes.NewFakeStore()
	kv.Err = errors.New("connection refused")
	registry := revocation.New(kv)

	_, err := registry.IsBlacklisted(ctx, sessionID)
	require.Error(t, err)

	_, err = registry.IsWhitelisted(ctx, sessionID)
	require.Error(t, err)

	require.Error(t, registry.Whitelist(ctx, sessionID, time.Minute))
	require.Error(t, registry.Blacklist(ctx, sessionID, time.Minute))
}
