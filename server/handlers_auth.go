package server

import (
	"encoding/json"
	"net/http"

	"github.com/tmcampion/go-content-auth/authz"
	apperrors "github.com/tmcampion/go-content-auth/internal/errors"
	"github.com/tmcampion/go-content-auth/users"
)

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type registerRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type rolesUpdateRequest struct {
	Roles []string `json:"roles"`
}

// LoginHandler accepts form credentials (username carries the email,
// matching the password-grant form shape) and returns a bearer token.
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			writeError(w, http.StatusBadRequest, "malformed form body")
			return
		}
		email := r.PostFormValue("username")
		password := r.PostFormValue("password")
		if email == "" || password == "" {
			writeError(w, http.StatusBadRequest, "username and password are required")
			return
		}

		encoded, _, err := s.auth.Login(r.Context(), email, password)
		if err != nil {
			if apperrors.Is(err, apperrors.ErrInvalidCredentials) || apperrors.Is(err, apperrors.ErrInactiveUser) {
				s.log.Debug().Err(err).Msg("login rejected")
				writeUnauthorized(w)
				return
			}
			s.log.Error().Err(err).Msg("login failed")
			writeError(w, http.StatusServiceUnavailable, "service unavailable")
			return
		}

		writeJSON(w, http.StatusOK, tokenResponse{AccessToken: encoded, TokenType: "bearer"})
	}
}

// LogoutHandler blacklists the authenticated session. Idempotent.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := claimsFromContext(r.Context())
		if !ok {
			writeUnauthorized(w)
			return
		}
		if err := s.auth.Logout(r.Context(), claims); err != nil {
			s.log.Error().Err(err).Msg("logout failed")
			writeError(w, http.StatusServiceUnavailable, "service unavailable")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
	}
}

func (s *Server) RegisterHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "malformed request body")
			return
		}
		if req.Email == "" || req.Username == "" || req.Password == "" {
			writeError(w, http.StatusBadRequest, "email, username and password are required")
			return
		}

		user, err := s.directory.Register(r.Context(), req.Email, req.Username, req.Password)
		if err != nil {
			if apperrors.Is(err, apperrors.ErrEmailTaken) {
				writeError(w, http.StatusBadRequest, "email already registered")
				return
			}
			s.log.Error().Err(err).Msg("register failed")
			writeError(w, http.StatusServiceUnavailable, "service unavailable")
			return
		}

		writeJSON(w, http.StatusOK, user)
	}
}

// UpdateRolesHandler replaces a user's role set. Admin only: roles are
// the access-control input, so granting them is itself a privileged act.
func (s *Server) UpdateRolesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := claimsFromContext(r.Context())
		if !ok || !authz.HasRole(claims.Roles, users.RoleAdmin) {
			writeForbidden(w)
			return
		}

		userID := r.PathValue("id")

		var req rolesUpdateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "malformed request body")
			return
		}

		user, err := s.directory.UpdateRoles(r.Context(), userID, req.Roles)
		if err != nil {
			if apperrors.Is(err, apperrors.ErrUserNotFound) {
				writeError(w, http.StatusNotFound, "user not found")
				return
			}
			s.log.Error().Err(err).Msg("role update failed")
			writeError(w, http.StatusServiceUnavailable, "service unavailable")
			return
		}

		writeJSON(w, http.StatusOK, user)
	}
}
