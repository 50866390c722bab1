// Package server is the HTTP boundary: route registration, middleware,
// credential resolution and the adapter between HTTP requests and resource
// dispatchers.
package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/tessera-id/tessera/apikeys"
	"github.com/tessera-id/tessera/emailtemplates"
	"github.com/tessera-id/tessera/internal/config"
	"github.com/tessera-id/tessera/payments"
	"github.com/tessera-id/tessera/sessions"
	"github.com/tessera-id/tessera/tenants"
	"github.com/tessera-id/tessera/token"
	"github.com/tessera-id/tessera/users"
)

// Repos bundles the persistence dependencies the server needs.
type Repos struct {
	Tenancies tenants.Repo
	Users     users.Repo
	Sessions  sessions.Repo
	APIKeys   apikeys.Repo
	Templates emailtemplates.Repo
}

type Server struct {
	env    string
	mux    *http.ServeMux
	routes []string
	logger zerolog.Logger

	config    *config.Config
	tenancies tenants.Repo
	apiKeys   apikeys.Repo
	issuer    *token.Issuer

	sessionHandlers *sessions.CrudHandlers
	userHandlers    *users.CrudHandlers
	apiKeyHandlers  *apikeys.CrudHandlers
	templates       *emailtemplates.Service
	payments        *payments.Service
}

func New(cfg *config.Config, repos Repos, paymentsService *payments.Service, logger zerolog.Logger) (*Server, error) {
	issuer, err := token.NewIssuer([]byte(cfg.TokenSigningSecret), token.WithIssuerName(cfg.TokenIssuer))
	if err != nil {
		return nil, fmt.Errorf("[Server New] failed to create token issuer: %w", err)
	}

	userHandlers := users.NewCrudHandlers(repos.Users)
	sessionHandlers, err := sessions.NewCrudHandlers(repos.Sessions, userHandlers, issuer)
	if err != nil {
		return nil, fmt.Errorf("[Server New] failed to create session handlers: %w", err)
	}

	s := &Server{
		env:             cfg.Env,
		mux:             http.NewServeMux(),
		logger:          logger,
		config:          cfg,
		tenancies:       repos.Tenancies,
		apiKeys:         repos.APIKeys,
		issuer:          issuer,
		sessionHandlers: sessionHandlers,
		userHandlers:    userHandlers,
		apiKeyHandlers:  apikeys.NewCrudHandlers(repos.APIKeys),
		templates:       emailtemplates.NewService(repos.Templates),
		payments:        paymentsService,
	}

	s.initRoutes()
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
	if s.env != "development" {
		return
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)
		if len(parts) > 1 {
			s.logger.Info().Str("method", parts[0]).Str("path", parts[1]).Msg("route registered")
		} else {
			s.logger.Info().Str("path", parts[0]).Msg("route registered")
		}
	}
}
