package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/jrsteele09/taxfolio-client/apiclient/resources"
	"github.com/jrsteele09/taxfolio-client/appuser"
	"github.com/jrsteele09/taxfolio-client/internal/config"
	"github.com/jrsteele09/taxfolio-client/localstore"
	"github.com/jrsteele09/taxfolio-client/realtime"
	"github.com/jrsteele09/taxfolio-client/routeguard"
	"github.com/jrsteele09/taxfolio-client/session"
	"github.com/rs/zerolog/log"
)

// Deps are the session core components the web client is built on.
type Deps struct {
	Session  *session.Manager
	API      *resources.API
	Realtime *realtime.Channel
	Guard    *routeguard.Guard
	Users    *appuser.Store
	Store    *localstore.Store
}

type Server struct {
	env    string // Environment (e.g., "DEV", "PROD")
	mux    *http.ServeMux
	routes []string
	config config.Config

	session  *session.Manager
	api      *resources.API
	realtime *realtime.Channel
	guard    *routeguard.Guard
	users    *appuser.Store
	store    *localstore.Store
}

func New(c config.Config, deps Deps) (*Server, error) {
	switch {
	case deps.Session == nil:
		return nil, fmt.Errorf("[Server New] session manager is required")
	case deps.API == nil:
		return nil, fmt.Errorf("[Server New] api client is required")
	case deps.Realtime == nil:
		return nil, fmt.Errorf("[Server New] realtime channel is required")
	case deps.Guard == nil:
		return nil, fmt.Errorf("[Server New] route guard is required")
	case deps.Users == nil || deps.Store == nil:
		return nil, fmt.Errorf("[Server New] user and local stores are required")
	}

	pages, err := parsePages()
	if err != nil {
		return nil, fmt.Errorf("[Server New] failed to parse page template: %w", err)
	}

	s := &Server{
		env:      c.GetEnv(),
		mux:      http.NewServeMux(),
		config:   c,
		session:  deps.Session,
		api:      deps.API,
		realtime: deps.Realtime,
		guard:    deps.Guard,
		users:    deps.Users,
		store:    deps.Store,
	}

	s.initRoutes(pages)
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func displayMethod(method string) string {
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		return color + paddedMethod + ResetColor
	}
	return Gray + paddedMethod + ResetColor
}

func logRoute(method, path string) {
	log.Info().Msgf("[%-19s] %s", displayMethod(method), path)
}

func logError(method, path string, err error) {
	log.Error().Msgf("[%-19s] %s %s", displayMethod(method), path, Red+err.Error()+ResetColor)
}
