package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tmcampion/go-content-auth/auth"
	apperrors "github.com/tmcampion/go-content-auth/internal/errors"
	"github.com/tmcampion/go-content-auth/revocation"
	"github.com/tmcampion/go-content-auth/store/storefakes"
	"github.com/tmcampion/go-content-auth/token"
	"github.com/tmcampion/go-content-auth/users"
)

const (
	secretStr        = "test-secret"
	issuer           = "content-auth-test"
	sessionTTL       = 30 * time.Minute
	testUserEmail    = "a@x.com"
	testUserName     = "a"
	testUserPassword = "pw"
)

// testFixture holds all test dependencies, sharing one movable clock
// between the store and the codec.
type testFixture struct {
	kv        *storefakes.FakeStore
	directory *users.Directory
	codec     *token.Codec
	registry  *revocation.Registry
	service   *auth.Service
	now       time.Time
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	f := &testFixture{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	nowFunc := func() time.Time { return f.now }

	f.kv = storefakes.NewFakeStore()
	f.kv.NowFunc = nowFunc
	f.directory = users.NewDirectory(f.kv, users.BcryptHasher{})
	f.codec = token.New(secretStr, issuer, sessionTTL, token.WithNowFunc(nowFunc))
	f.registry = revocation.New(f.kv)

	service, err := auth.NewService(auth.Deps{
		Directory: f.directory,
		Codec:     f.codec,
		Registry:  f.registry,
	})
	require.NoError(t, err)
	f.service = service
	return f
}

func (f *testFixture) registerTestUser(t *testing.T) *users.User {
	t.Helper()
	user, err := f.directory.Register(context.Background(), testUserEmail, testUserName, testUserPassword)
	require.NoError(t, err)
	return user
}

func TestLoginIssuesAuthenticatableToken(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t)
	user := f.registerTestUser(t)

	encoded, claims, err := f.service.Login(ctx, testUserEmail, testUserPassword)
	require.NoError(t, err)
	require.Equal(t, user.ID, claims.Subject)
	require.Equal(t, []string{"user"}, claims.Roles)

	authenticated, err := f.service.Authenticate(ctx, encoded)
	require.NoError(t, err)
	require.Equal(t, user.ID, authenticated.Subject)
	require.Equal(t, claims.SessionID, authenticated.SessionID)
}

func TestLoginFailuresShareOneShape(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t)
	f.registerTestUser(t)

	// Unknown email and wrong password yield the identical sentinel, so
	// a caller cannot tell which addresses have accounts.
	_, _, unknownErr := f.service.Login(ctx, "nobody@x.com", testUserPassword)
	require.ErrorIs(t, unknownErr, apperrors.ErrInvalidCredentials)

	_, _, badPassErr := f.service.Login(ctx, testUserEmail, "wrong")
	require.ErrorIs(t, badPassErr, apperrors.ErrInvalidCredentials)

	require.Equal(t, unknownErr.Error(), badPassErr.Error())
}

func TestLoginRejectsInactiveUser(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t)
	user := f.registerTestUser(t)

	_, err := f.directory.SetActive(ctx, user.ID, false)
	require.NoError(t, err)

	_, _, err = f.service.Login(ctx, testUserEmail, testUserPassword)
	require.ErrorIs(t, err, apperrors.ErrInactiveUser)
}

func TestLogoutBlacklistsSession(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t)
	f.registerTestUser(t)

	encoded, claims, err := f.service.Login(ctx, testUserEmail, testUserPassword)
	require.NoError(t, err)

	require.NoError(t, f.service.Logout(ctx, claims))

	_, err = f.service.Authenticate(ctx, encoded)
	require.ErrorIs(t, err, apperrors.ErrBlacklisted)

	// Logout is idempotent.
	require.NoError(t, f.service.Logout(ctx, claims))
}

func TestBlacklistWinsOverWhitelist(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t)
	f.registerTestUser(t)

	encoded, claims, err := f.service.Login(ctx, testUserEmail, testUserPassword)
	require.NoError(t, err)
	require.NoError(t, f.service.Logout(ctx, claims))

	// A whitelist write landing after the blacklist write (the
	// login/logout race) must not resurrect the session.
	require.NoError(t, f.registry.Whitelist(ctx, claims.SessionID, sessionTTL))

	_, err = f.service.Authenticate(ctx, encoded)
	require.ErrorIs(t, err, apperrors.ErrBlacklisted)
}

func TestAuthenticateRejectsNeverWhitelistedToken(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t)
	user := f.registerTestUser(t)

	// Correctly signed with the process key, but no login ever
	// whitelisted its session.
	encoded, _, err := f.codec.Issue(user.ID, user.Roles)
	require.NoError(t, err)

	_, err = f.service.Authenticate(ctx, encoded)
	require.ErrorIs(t, err, apperrors.ErrNotWhitelisted)
}

func TestAuthenticateRejectsExpiredToken(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t)
	f.registerTestUser(t)

	encoded, _, err := f.service.Login(ctx, testUserEmail, testUserPassword)
	require.NoError(t, err)

	f.now = f.now.Add(sessionTTL + time.Minute)

	_, err = f.service.Authenticate(ctx, encoded)
	require.ErrorIs(t, err, apperrors.ErrInvalidToken)
}

func TestAuthenticateRejectsGarbage(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t)

	_, err := f.service.Authenticate(ctx, "not-a-token")
	require.ErrorIs(t, err, apperrors.ErrInvalidToken)
}

func TestConcurrentLoginsAreIndependentSessions(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t)
	f.registerTestUser(t)

	firstToken, firstClaims, err := f.service.Login(ctx, testUserEmail, testUserPassword)
	require.NoError(t, err)
	secondToken, secondClaims, err := f.service.Login(ctx, testUserEmail, testUserPassword)
	require.NoError(t, err)
	require.NotEqual(t, firstClaims.SessionID, secondClaims.SessionID)

	// Logging out the first session leaves the second usable.
	require.NoError(t, f.service.Logout(ctx, firstClaims))

	_, err = f.service.Authenticate(ctx, firstToken)
	require.ErrorIs(t, err, apperrors.ErrBlacklisted)

	_, err = f.service.Authenticate(ctx, secondToken)
	require.NoError(t, err)
}

func TestAuthenticateFailsClosedOnStoreError(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t)
	f.registerTestUser(t)

	encoded, _, err := f.service.Login(ctx, testUserEmail, testUserPassword)
	require.NoError(t, err)

	f.kv.Err = errors.New("i/o timeout")

	_, err = f.service.Authenticate(ctx, encoded)
	require.Error(t, err)
	// The failure is infrastructure, not a definitive negative.
	require.False(t, apperrors.Is(err, apperrors.ErrBlacklisted))
	require.False(t, apperrors.Is(err, apperrors.ErrNotWhitelisted))
	require.False(t, apperrors.Is(err, apperrors.ErrInvalidToken))
}

func TestWhitelistEntryExpiresWithSession(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t)
	f.registerTestUser(t)

	encoded, _, err := f.service.Login(ctx, testUserEmail, testUserPassword)
	require.NoError(t, err)

	// Move past the TTL: both the token and its whitelist marker are
	// gone, and the parse failure is reported first.
	f.now = f.now.Add(sessionTTL + time.Minute)
	_, err = f.service.Authenticate(ctx, encoded)
	require.ErrorIs(t, err, apperrors.ErrInvalidToken)
}
