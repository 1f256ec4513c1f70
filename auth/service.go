// Package auth orchestrates the session lifecycle: login issues a
// signed token and whitelists its session, logout blacklists it, and
// authenticate walks a presented token through signature/expiry,
// blacklist, and whitelist checks in that order. The ordering is
// load-bearing: cheap forgeries are rejected before any store round
// trip, and a blacklist entry overrides any whitelist state for the
// same session, so a logout that races a login still revokes.
package auth

import (
	"context"

	"github.com/pkg/errors"

	apperrors "github.com/tmcampion/go-content-auth/internal/errors"
	"github.com/tmcampion/go-content-auth/revocation"
	"github.com/tmcampion/go-content-auth/token"
	"github.com/tmcampion/go-content-auth/users"
)

// Deps holds the collaborators the service orchestrates.
type Deps struct {
	Directory *users.Directory
	Codec     *token.Codec
	Registry  *revocation.Registry
}

type Service struct {
	directory *users.Directory
	codec     *token.Codec
	registry  *revocation.Registry
}

func NewService(deps Deps) (*Service, error) {
	if deps.Directory == nil {
		return nil, errors.New("[NewService] Directory is required")
	}
	if deps.Codec == nil {
		return nil, errors.New("[NewService] Codec is required")
	}
	if deps.Registry == nil {
		return nil, errors.New("[NewService] Registry is required")
	}
	return &Service{
		directory: deps.Directory,
		codec:     deps.Codec,
		registry:  deps.Registry,
	}, nil
}

// Login verifies credentials, issues a token, and whitelists its
// session for the token's lifetime. A missing user and a wrong password
// both return ErrInvalidCredentials, with no difference in shape, so
// responses cannot be used to enumerate accounts.
func (s *Service) Login(ctx context.Context, email, password string) (string, token.Claims, error) {
	user, err := s.directory.GetByEmail(ctx, email)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrUserNotFound) {
			return "", token.Claims{}, apperrors.ErrInvalidCredentials
		}
		return "", token.Claims{}, errors.Wrap(err, "Service.Login GetByEmail")
	}
	if !s.directory.VerifyPassword(user, password) {
		return "", token.Claims{}, apperrors.ErrInvalidCredentials
	}
	if !user.IsActive {
		return "", token.Claims{}, apperrors.ErrInactiveUser
	}

	encoded, claims, err := s.codec.Issue(user.ID, user.Roles)
	if err != nil {
		return "", token.Claims{}, errors.Wrap(err, "Service.Login issue token")
	}
	if err := s.registry.Whitelist(ctx, claims.SessionID, s.codec.TTL()); err != nil {
		return "", token.Claims{}, errors.Wrap(err, "Service.Login whitelist")
	}
	return encoded, claims, nil
}

// Logout revokes the session the claims were issued for. Idempotent;
// blacklisting an already-blacklisted session just refreshes the marker.
func (s *Service) Logout(ctx context.Context, claims token.Claims) error {
	if err := s.registry.Blacklist(ctx, claims.SessionID, s.codec.TTL()); err != nil {
		return errors.Wrap(err, "Service.Logout blacklist")
	}
	return nil
}

// Authenticate validates a presented token. Parse failures surface as
// ErrInvalidToken before any store lookup; then the blacklist is
// consulted before the whitelist so revocation wins every race. A store
// error at either check propagates: an unreachable store means
// unauthenticated, never "not revoked".
func (s *Service) Authenticate(ctx context.Context, encoded string) (token.Claims, error) {
	claims, err := s.codec.Parse(encoded)
	if err != nil {
		return token.Claims{}, err
	}

	blacklisted, err := s.registry.IsBlacklisted(ctx, claims.SessionID)
	if err != nil {
		return token.Claims{}, errors.Wrap(err, "Service.Authenticate blacklist check")
	}
	if blacklisted {
		return token.Claims{}, apperrors.ErrBlacklisted
	}

	whitelisted, err := s.registry.IsWhitelisted(ctx, claims.SessionID)
	if err != nil {
		return token.Claims{}, errors.Wrap(err, "Service.Authenticate whitelist check")
	}
	if !whitelisted {
		return token.Claims{}, apperrors.ErrNotWhitelisted
	}

	return claims, nil
}
