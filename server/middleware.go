package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/tmcampion/go-content-auth/internal/errors"
	"github.com/tmcampion/go-content-auth/token"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

// ContextKeyClaims stores the authenticated token claims
const ContextKeyClaims ContextKey = "claims"

func ChainMiddleware(routeFunction http.HandlerFunc, mw ...func(http.HandlerFunc) http.HandlerFunc) http.HandlerFunc {
	chainedHandler := routeFunction
	// Apply middleware in reverse order
	for i := len(mw) - 1; i >= 0; i-- {
		chainedHandler = mw[i](chainedHandler)
	}
	return chainedHandler
}

// RequireAuth validates a Bearer token through the full authentication
// path (signature, expiry, blacklist, whitelist) and injects the claims
// into the request context. Every failure mode produces the same
// unauthorized body; the specific check that failed is only logged.
func (s *Server) RequireAuth() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				writeUnauthorized(w)
				return
			}

			claims, err := s.auth.Authenticate(r.Context(), raw)
			if err != nil {
				s.log.Debug().Err(err).Str("path", r.URL.Path).Msg("authentication rejected")
				if isAuthFailure(err) {
					writeUnauthorized(w)
				} else {
					// Store trouble: fail closed, but let the caller
					// distinguish "retry later" from "bad credentials".
					writeError(w, http.StatusServiceUnavailable, "service unavailable")
				}
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyClaims, claims)
			next(w, r.WithContext(ctx))
		}
	}
}

func (s *Server) LoggingMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next(w, r)
		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("duration", time.Since(start)).
			Msg("request")
	}
}

// claimsFromContext returns the claims RequireAuth stored, if any.
func claimsFromContext(ctx context.Context) (token.Claims, bool) {
	claims, ok := ctx.Value(ContextKeyClaims).(token.Claims)
	return claims, ok
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// isAuthFailure reports whether err is one of the expected
// authentication rejections, as opposed to infrastructure trouble.
func isAuthFailure(err error) bool {
	return apperrors.Is(err, apperrors.ErrInvalidToken) ||
		apperrors.Is(err, apperrors.ErrBlacklisted) ||
		apperrors.Is(err, apperrors.ErrNotWhitelisted)
}
