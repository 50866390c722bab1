package server

import (
	"net/http"

	"github.com/tessera-id/tessera/authn"
)

// CreatePurchaseURLHandler creates a hosted checkout page for a pricing
// model and returns its URL.
func (s *Server) CreatePurchaseURLHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		auth, _ := authn.FromContext(r.Context())

		url, err := s.payments.CreatePurchaseURL(
			r.Context(),
			auth.Tenancy.ProjectID,
			auth.Tenancy.ID,
			r.PathValue("billable_entity_id"),
			r.PathValue("pricing_model_id"),
		)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]any{"url": url})
	}
}

// ItemQuantityHandler reports a billable entity's aggregate quantity of an
// item across its current subscriptions.
func (s *Server) ItemQuantityHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		auth, _ := authn.FromContext(r.Context())

		status, err := s.payments.ItemQuantity(
			r.Context(),
			auth.Tenancy.ProjectID,
			r.PathValue("billable_entity_id"),
			r.PathValue("item_id"),
		)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]any{
			"id":       status.ID,
			"name":     status.Name,
			"quantity": status.Quantity,
		})
	}
}
