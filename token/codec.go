// Package token produces and parses the signed bearer credential. A
// token is self-contained: subject, role set, a per-session nonce used
// as the revocation key, and an absolute expiry. Parse verifies the
// signature and expiry before any claim is handed to a caller, so
// forged or stale tokens are rejected without touching the store.
package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	apperrors "github.com/tmcampion/go-content-auth/internal/errors"
)

// Claims is the decoded, verified content of a token.
type Claims struct {
	Subject   string
	SessionID string
	Roles     []string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// jwtClaims is the wire shape used for signing and parsing.
type jwtClaims struct {
	SessionID string   `json:"sid"`
	Roles     []string `json:"roles"`
	jwt.RegisteredClaims
}

type Codec struct {
	secret  []byte
	issuer  string
	ttl     time.Duration
	nowFunc func() time.Time
}

type CodecOption func(*Codec)

// WithNowFunc sets the clock (primarily for testing)
func WithNowFunc(now func() time.Time) CodecOption {
	return func(c *Codec) {
		c.nowFunc = now
	}
}

func New(secret, issuer string, ttl time.Duration, options ...CodecOption) *Codec {
	c := &Codec{
		secret:  []byte(secret),
		issuer:  issuer,
		ttl:     ttl,
		nowFunc: time.Now,
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// TTL is the configured session lifetime; whitelist and blacklist
// markers are written with the same duration.
func (c *Codec) TTL() time.Duration {
	return c.ttl
}

// Issue signs a token for subject with the given role set. Each call
// generates a fresh session nonce, so two logins for the same subject
// yield independently revocable tokens.
func (c *Codec) Issue(subject string, roles []string) (string, Claims, error) {
	now := c.nowFunc().UTC()
	sid := uuid.NewString()
	if roles == nil {
		roles = []string{}
	}

	cl := jwtClaims{
		SessionID: sid,
		Roles:     roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
			ID:        sid,
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, cl).SignedString(c.secret)
	if err != nil {
		return "", Claims{}, apperrors.Wrapf(err, "token.Issue sign")
	}

	return signed, Claims{
		Subject:   subject,
		SessionID: sid,
		Roles:     roles,
		IssuedAt:  now,
		ExpiresAt: now.Add(c.ttl),
	}, nil
}

// Parse verifies signature integrity and expiry and returns the claim
// set. Malformed encodings, bad signatures, unexpected algorithms,
// missing claims, and expired tokens all surface as ErrInvalidToken.
func (c *Codec) Parse(raw string) (Claims, error) {
	var out jwtClaims
	tkn, err := jwt.ParseWithClaims(raw, &out, func(*jwt.Token) (any, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.nowFunc),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return Claims{}, apperrors.Wrapf(apperrors.ErrInvalidToken, "token.Parse: %v", err)
	}
	if !tkn.Valid || out.Subject == "" || out.SessionID == "" || out.ExpiresAt == nil {
		return Claims{}, apperrors.Wrapf(apperrors.ErrInvalidToken, "token.Parse: missing claims")
	}

	claims := Claims{
		Subject:   out.Subject,
		SessionID: out.SessionID,
		Roles:     out.Roles,
		ExpiresAt: out.ExpiresAt.Time,
	}
	if out.IssuedAt != nil {
		claims.IssuedAt = out.IssuedAt.Time
	}
	return claims, nil
}
