package server

import (
	"net/http"

	"github.com/tessera-id/tessera/authn"
	"github.com/tessera-id/tessera/crud"
)

// Route path constants.
const (
	RouteSessions     = "/sessions"
	RouteSessionByID  = "/sessions/{id}"
	RouteUsers        = "/users"
	RouteUserByID     = "/users/{user_id}"
	RouteTemplates    = "/internal/email-templates"
	RouteTemplateByID = "/internal/email-templates/{id}"
	RouteAPIKeys      = "/internal/api-keys"
	RouteAPIKeyByID   = "/internal/api-keys/{id}"
	RoutePurchaseURL  = "/payments/purchases/{billable_entity_id}/{pricing_model_id}/create-purchase-url"
	RouteItemQuantity = "/payments/items/{billable_entity_id}/{item_id}"
	RouteHealth       = "/health"
)

func (s *Server) initRoutes() {
	authed := s.APIMiddleware(s.ResolveAuthMiddleware)

	// Sessions
	sessionDispatcher := s.sessionHandlers.Dispatcher()
	s.RegisterRouteHandler("POST "+RouteSessions, ChainMiddleware(s.CrudHandler(sessionDispatcher, crud.OpCreate, nil), authed...))
	s.RegisterRouteHandler("GET "+RouteSessions, ChainMiddleware(s.CrudHandler(sessionDispatcher, crud.OpList, nil), authed...))
	s.RegisterRouteHandler("DELETE "+RouteSessionByID, ChainMiddleware(s.CrudHandler(sessionDispatcher, crud.OpDelete, pathID("id")), authed...))

	// Users
	userDispatcher := s.userHandlers.Dispatcher()
	userParams := func(r *http.Request) map[string]any {
		return map[string]any{"user_id": r.PathValue("user_id")}
	}
	s.RegisterRouteHandler("POST "+RouteUsers, ChainMiddleware(s.CrudHandler(userDispatcher, crud.OpCreate, nil), authed...))
	s.RegisterRouteHandler("GET "+RouteUsers, ChainMiddleware(s.CrudHandler(userDispatcher, crud.OpList, nil), authed...))
	s.RegisterRouteHandler("GET "+RouteUserByID, ChainMiddleware(s.CrudHandler(userDispatcher, crud.OpRead, userParams), authed...))
	s.RegisterRouteHandler("DELETE "+RouteUserByID, ChainMiddleware(s.CrudHandler(userDispatcher, crud.OpDelete, userParams), authed...))

	// Email templates (admin only, no dispatcher)
	adminOnly := s.APIMiddleware(s.ResolveAuthMiddleware, s.RequireAccess(authn.TypeAdmin))
	s.RegisterRouteHandler("GET "+RouteTemplates, ChainMiddleware(s.ListTemplatesHandler(), adminOnly...))
	s.RegisterRouteHandler("POST "+RouteTemplates, ChainMiddleware(s.CreateTemplateHandler(), adminOnly...))
	s.RegisterRouteHandler("DELETE "+RouteTemplateByID, ChainMiddleware(s.DeleteTemplateHandler(), adminOnly...))

	// API keys
	apiKeyDispatcher := s.apiKeyHandlers.Dispatcher()
	s.RegisterRouteHandler("POST "+RouteAPIKeys, ChainMiddleware(s.CrudHandler(apiKeyDispatcher, crud.OpCreate, nil), authed...))
	s.RegisterRouteHandler("GET "+RouteAPIKeys, ChainMiddleware(s.CrudHandler(apiKeyDispatcher, crud.OpList, nil), authed...))
	s.RegisterRouteHandler("GET "+RouteAPIKeyByID, ChainMiddleware(s.CrudHandler(apiKeyDispatcher, crud.OpRead, pathID("id")), authed...))
	s.RegisterRouteHandler("PATCH "+RouteAPIKeyByID, ChainMiddleware(s.CrudHandler(apiKeyDispatcher, crud.OpUpdate, pathID("id")), authed...))

	// Payments (server or higher)
	serverOnly := s.APIMiddleware(s.ResolveAuthMiddleware, s.RequireAccess(authn.TypeServer))
	s.RegisterRouteHandler("POST "+RoutePurchaseURL, ChainMiddleware(s.CreatePurchaseURLHandler(), serverOnly...))
	s.RegisterRouteHandler("GET "+RouteItemQuantity, ChainMiddleware(s.ItemQuantityHandler(), serverOnly...))

	s.RegisterRouteFunc("GET "+RouteHealth, s.HealthHandler())
}

// HealthHandler reports process liveness.
func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
	}
}
