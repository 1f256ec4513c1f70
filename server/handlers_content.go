package server

import (
	"encoding/json"
	"net/http"

	"github.com/tmcampion/go-content-auth/authz"
	"github.com/tmcampion/go-content-auth/content"
	apperrors "github.com/tmcampion/go-content-auth/internal/errors"
	"github.com/tmcampion/go-content-auth/users"
)

// CreateContentHandler creates an item. Mutation is gated on the admin
// role regardless of the item's own required roles.
func (s *Server) CreateContentHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := claimsFromContext(r.Context())
		if !ok || !authz.HasRole(claims.Roles, users.RoleAdmin) {
			writeForbidden(w)
			return
		}

		var draft content.Draft
		if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
			writeError(w, http.StatusBadRequest, "malformed request body")
			return
		}

		item, err := s.contents.Create(r.Context(), draft)
		if err != nil {
			if apperrors.Is(err, content.ErrEmptyRequiredRoles) {
				writeError(w, http.StatusBadRequest, "required_roles must not be empty")
				return
			}
			s.log.Error().Err(err).Msg("content create failed")
			writeError(w, http.StatusServiceUnavailable, "service unavailable")
			return
		}
		writeJSON(w, http.StatusOK, item)
	}
}

// ListContentHandler returns the items the caller's roles can read.
func (s *Server) ListContentHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := claimsFromContext(r.Context())
		if !ok {
			writeUnauthorized(w)
			return
		}

		items, err := s.contents.ListByRoles(r.Context(), claims.Roles)
		if err != nil {
			s.log.Error().Err(err).Msg("content list failed")
			writeError(w, http.StatusServiceUnavailable, "service unavailable")
			return
		}
		writeJSON(w, http.StatusOK, items)
	}
}

func (s *Server) GetContentHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := claimsFromContext(r.Context())
		if !ok {
			writeUnauthorized(w)
			return
		}

		item, err := s.contents.Get(r.Context(), r.PathValue("id"))
		if err != nil {
			if apperrors.Is(err, apperrors.ErrNotFound) {
				writeError(w, http.StatusNotFound, "content not found")
				return
			}
			s.log.Error().Err(err).Msg("content fetch failed")
			writeError(w, http.StatusServiceUnavailable, "service unavailable")
			return
		}

		if !authz.CanAccess(claims.Roles, item.RequiredRoles) {
			writeForbidden(w)
			return
		}
		writeJSON(w, http.StatusOK, item)
	}
}

func (s *Server) UpdateContentHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := claimsFromContext(r.Context())
		if !ok || !authz.HasRole(claims.Roles, users.RoleAdmin) {
			writeForbidden(w)
			return
		}

		var patch content.Patch
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			writeError(w, http.StatusBadRequest, "malformed request body")
			return
		}

		item, err := s.contents.Update(r.Context(), r.PathValue("id"), patch)
		if err != nil {
			if apperrors.Is(err, apperrors.ErrNotFound) {
				writeError(w, http.StatusNotFound, "content not found")
				return
			}
			if apperrors.Is(err, content.ErrEmptyRequiredRoles) {
				writeError(w, http.StatusBadRequest, "required_roles must not be empty")
				return
			}
			s.log.Error().Err(err).Msg("content update failed")
			writeError(w, http.StatusServiceUnavailable, "service unavailable")
			return
		}
		writeJSON(w, http.StatusOK, item)
	}
}

func (s *Server) DeleteContentHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := claimsFromContext(r.Context())
		if !ok || !authz.HasRole(claims.Roles, users.RoleAdmin) {
			writeForbidden(w)
			return
		}

		if err := s.contents.Delete(r.Context(), r.PathValue("id")); err != nil {
			if apperrors.Is(err, apperrors.ErrNotFound) {
				writeError(w, http.StatusNotFound, "content not found")
				return
			}
			s.log.Error().Err(err).Msg("content delete failed")
			writeError(w, http.StatusServiceUnavailable, "service unavailable")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "content deleted"})
	}
}
