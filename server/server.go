// Package server is the thin HTTP surface over the auth core: a route
// table, a bearer-token middleware, and JSON request/response plumbing.
// All policy lives in the packages it calls into.
package server

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/tmcampion/go-content-auth/auth"
	"github.com/tmcampion/go-content-auth/content"
	"github.com/tmcampion/go-content-auth/internal/config"
	"github.com/tmcampion/go-content-auth/users"
)

const (
	RouteLogin       = "/api/v1/auth/login"
	RouteLogout      = "/api/v1/auth/logout"
	RouteRegister    = "/api/v1/auth/register"
	RouteUserRoles   = "/api/v1/auth/users/{id}/roles"
	RouteContent     = "/api/v1/content"
	RouteContentItem = "/api/v1/content/{id}"
)

type Server struct {
	mux       *http.ServeMux
	routes    []string
	config    config.Config
	auth      *auth.Service
	directory *users.Directory
	contents  *content.Service
	log       zerolog.Logger
}

func New(cfg config.Config, authService *auth.Service, directory *users.Directory, contents *content.Service, logger zerolog.Logger) *Server {
	s := &Server{
		mux:       http.NewServeMux(),
		config:    cfg,
		auth:      authService,
		directory: directory,
		contents:  contents,
		log:       logger,
	}
	s.initRoutes()
	s.logRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) initRoutes() {
	s.RegisterRouteFunc("POST "+RouteLogin, ChainMiddleware(s.LoginHandler(), s.LoggingMiddleware))
	s.RegisterRouteFunc("POST "+RouteRegister, ChainMiddleware(s.RegisterHandler(), s.LoggingMiddleware))
	s.RegisterRouteFunc("POST "+RouteLogout, ChainMiddleware(s.LogoutHandler(), s.LoggingMiddleware, s.RequireAuth()))
	s.RegisterRouteFunc("PUT "+RouteUserRoles, ChainMiddleware(s.UpdateRolesHandler(), s.LoggingMiddleware, s.RequireAuth()))

	s.RegisterRouteFunc("POST "+RouteContent, ChainMiddleware(s.CreateContentHandler(), s.LoggingMiddleware, s.RequireAuth()))
	s.RegisterRouteFunc("GET "+RouteContent, ChainMiddleware(s.ListContentHandler(), s.LoggingMiddleware, s.RequireAuth()))
	s.RegisterRouteFunc("GET "+RouteContentItem, ChainMiddleware(s.GetContentHandler(), s.LoggingMiddleware, s.RequireAuth()))
	s.RegisterRouteFunc("PUT "+RouteContentItem, ChainMiddleware(s.UpdateContentHandler(), s.LoggingMiddleware, s.RequireAuth()))
	s.RegisterRouteFunc("DELETE "+RouteContentItem, ChainMiddleware(s.DeleteContentHandler(), s.LoggingMiddleware, s.RequireAuth()))
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.config.GetEnv() != "DEV" {
		return
	}
	for _, route := range s.routes {
		s.log.Debug().Str("route", route).Msg("registered")
	}
}
