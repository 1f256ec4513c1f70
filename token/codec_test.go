package token_test

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	apperrors "github.com/tmcampion/go-content-auth/internal/errors"
	"github.com/tmcampion/go-content-auth/token"
)

const (
	testSecret  = "test-secret-key"
	testIssuer  = "content-auth-test"
	testSubject = "user-1"
)

func newTestCodec(now *time.Time) *token.Codec {
	return token.New(testSecret, testIssuer, 30*time.Minute, token.WithNowFunc(func() time.Time {
		return *now
	}))
}

func TestIssueAndParseRoundTrip(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	codec := newTestCodec(&now)

	encoded, issued, err := codec.Issue(testSubject, []string{"user", "admin"})
	require.NoError(t, err)
	require.NotEmpty(t, encoded)
	require.NotEmpty(t, issued.SessionID)
	require.Equal(t, now.Add(30*time.Minute), issued.ExpiresAt)

	parsed, err := codec.Parse(encoded)
	require.NoError(t, err)
	require.Equal(t, testSubject, parsed.Subject)
	require.Equal(t, []string{"user", "admin"}, parsed.Roles)
	require.Equal(t, issued.SessionID, parsed.SessionID)
}

func TestIssueGeneratesFreshSessionIDs(t *testing.T) {
	now := time.Now().UTC()
	codec := newTestCodec(&now)

	_, first, err := codec.Issue(testSubject, []string{"user"})
	require.NoError(t, err)
	_, second, err := codec.Issue(testSubject, []string{"user"})
	require.NoError(t, err)
	require.NotEqual(t, first.SessionID, second.SessionID)
}

func TestParseRejectsExpiredToken(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	codec := newTestCodec(&now)

	encoded, _, err := codec.Issue(testSubject, []string{"user"})
	require.NoError(t, err)

	// Just before expiry the token still parses.
	now = now.Add(30*time.Minute - time.Second)
	_, err = codec.Parse(encoded)
	require.NoError(t, err)

	// At expiry it does not.
	now = now.Add(2 * time.Second)
	_, err = codec.Parse(encoded)
	require.ErrorIs(t, err, apperrors.ErrInvalidToken)
}

func TestParseRejectsTamperedToken(t *testing.T) {
	now := time.Now().UTC()
	codec := newTestCodec(&now)

	encoded, _, err := codec.Issue(testSubject, []string{"user"})
	require.NoError(t, err)

	parts := strings.Split(encoded, ".")
	require.Len(t, parts, 3)
	tampered := parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2]))

	_, err = codec.Parse(tampered)
	require.ErrorIs(t, err, apperrors.ErrInvalidToken)
}

func TestParseRejectsWrongSecret(t *testing.T) {
	now := time.Now().UTC()
	codec := newTestCodec(&now)
	other := token.New("a-different-secret", testIssuer, 30*time.Minute)

	encoded, _, err := other.Issue(testSubject, []string{"user"})
	require.NoError(t, err)

	_, err = codec.Parse(encoded)
	require.ErrorIs(t, err, apperrors.ErrInvalidToken)
}

func TestParseRejectsMalformedToken(t *testing.T) {
	now := time.Now().UTC()
	codec := newTestCodec(&now)

	for _, raw := range []string{"", "not-a-token", "a.b", "a.b.c"} {
		_, err := codec.Parse(raw)
		require.ErrorIs(t, err, apperrors.ErrInvalidToken, "raw=%q", raw)
	}
}

func TestParseRejectsMissingClaims(t *testing.T) {
	now := time.Now().UTC()
	codec := newTestCodec(&now)

	// Correctly signed but missing sub and sid.
	bare := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": now.Add(time.Hour).Unix(),
	})
	encoded, err := bare.SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = codec.Parse(encoded)
	require.ErrorIs(t, err, apperrors.ErrInvalidToken)
}

func TestParseRejectsUnexpectedAlgorithm(t *testing.T) {
	now := time.Now().UTC()
	codec := newTestCodec(&now)

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": testSubject,
		"sid": "session-1",
		"exp": now.Add(time.Hour).Unix(),
	})
	encoded, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = codec.Parse(encoded)
	require.ErrorIs(t, err, apperrors.ErrInvalidToken)
}
