package server

import (
	"net/http"
	"time"

	"github.com/tessera-id/tessera/apierr"
	"github.com/tessera-id/tessera/apikeys"
	"github.com/tessera-id/tessera/authn"
)

// Credential headers. A request presents exactly one key header; client
// callers may additionally attach a user via the access token header.
const (
	HeaderPublishableClientKey = "X-Publishable-Client-Key"
	HeaderSecretServerKey      = "X-Secret-Server-Key"
	HeaderSuperSecretAdminKey  = "X-Super-Secret-Admin-Key"
	HeaderAccessToken          = "X-Access-Token"
)

var classAccessTypes = map[apikeys.Class]authn.Type{
	apikeys.ClassPublishableClient: authn.TypeClient,
	apikeys.ClassSecretServer:      authn.TypeServer,
	apikeys.ClassSuperSecretAdmin:  authn.TypeAdmin,
}

// ResolveAuthMiddleware turns the request's credential headers into an
// authn.Auth and attaches it to the request context. Requests without a
// valid key are rejected; operation-level authorization is left to the
// resource dispatchers and handlers.
func (s *Server) ResolveAuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		auth, err := s.resolveAuth(r)
		if err != nil {
			s.writeError(w, err)
			return
		}
		next(w, r.WithContext(authn.WithAuth(r.Context(), *auth)))
	}
}

// RequireAccess rejects callers below the given access level before the
// handler runs. Used for routes that bypass a dispatcher.
func (s *Server) RequireAccess(minimum authn.Type) func(http.HandlerFunc) http.HandlerFunc {
	rank := map[authn.Type]int{authn.TypeClient: 0, authn.TypeServer: 1, authn.TypeAdmin: 2}
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			auth, ok := authn.FromContext(r.Context())
			if !ok || rank[auth.Type] < rank[minimum] {
				s.writeError(w, apierr.NewForbidden(string(minimum)+" access required"))
				return
			}
			next(w, r)
		}
	}
}

func (s *Server) resolveAuth(r *http.Request) (*authn.Auth, error) {
	keyValue := ""
	for _, header := range []string{HeaderSuperSecretAdminKey, HeaderSecretServerKey, HeaderPublishableClientKey} {
		if v := r.Header.Get(header); v != "" {
			keyValue = v
			break
		}
	}
	if keyValue == "" {
		return nil, apierr.NewUnauthorized("An API key is required.")
	}

	key, class, err := s.apiKeys.GetByKeyHash(r.Context(), apikeys.HashKey(keyValue))
	if err != nil {
		return nil, apierr.NewUnauthorized("The API key is not valid.")
	}
	if why := key.WhyInvalid(time.Now().UTC()); why != "" {
		return nil, apierr.NewUnauthorized("The API key is " + why + ".")
	}

	tenancy, err := s.tenancies.Get(r.Context(), key.TenancyID)
	if err != nil {
		return nil, apierr.NewUnauthorized("The API key does not belong to a known tenancy.")
	}

	auth := &authn.Auth{Type: classAccessTypes[class], Tenancy: *tenancy}

	// A user is attached only for client callers holding a valid access
	// token for this tenancy.
	if auth.Type == authn.TypeClient {
		if raw := r.Header.Get(HeaderAccessToken); raw != "" {
			claims, err := s.issuer.Verify(tenancy.ID, raw)
			if err != nil {
				return nil, apierr.NewUnauthorized("The access token is not valid.")
			}
			auth.UserID = &claims.UserID
		}
	}

	return auth, nil
}
