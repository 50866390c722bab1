package server

import (
	"encoding/json"
	"net/http"

	"github.com/tessera-id/tessera/apierr"
	"github.com/tessera-id/tessera/authn"
	"github.com/tessera-id/tessera/emailtemplates"
)

type templateView struct {
	ID          string  `json:"id"`
	DisplayName string  `json:"display_name"`
	TSXSource   string  `json:"tsx_source"`
	ThemeID     *string `json:"theme_id"`
	CreatedAt   float64 `json:"created_at_millis"`
}

func toTemplateView(template *emailtemplates.Template) templateView {
	return templateView{
		ID:          template.ID,
		DisplayName: template.DisplayName,
		TSXSource:   template.TSXSource,
		ThemeID:     template.ThemeID,
		CreatedAt:   float64(template.CreatedAt.UTC().UnixMilli()),
	}
}

// ListTemplatesHandler lists the tenancy's email templates.
func (s *Server) ListTemplatesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		auth, _ := authn.FromContext(r.Context())
		templates, err := s.templates.List(r.Context(), auth.Tenancy.ID)
		if err != nil {
			s.writeError(w, err)
			return
		}
		items := make([]templateView, 0, len(templates))
		for _, template := range templates {
			items = append(items, toTemplateView(template))
		}
		s.writeJSON(w, http.StatusOK, map[string]any{"items": items, "is_paginated": false})
	}
}

// CreateTemplateHandler creates a template seeded with the default source.
func (s *Server) CreateTemplateHandler() http.HandlerFunc {
	type createRequest struct {
		DisplayName string `json:"display_name"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		auth, _ := authn.FromContext(r.Context())

		var req createRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, apierr.NewBadRequest("The request body is not valid JSON."))
			return
		}
		if req.DisplayName == "" {
			s.writeError(w, apierr.NewBadRequest("display_name is required."))
			return
		}

		template, err := s.templates.Create(r.Context(), auth.Tenancy.ID, req.DisplayName)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, toTemplateView(template))
	}
}

// DeleteTemplateHandler removes a template by id.
func (s *Server) DeleteTemplateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		auth, _ := authn.FromContext(r.Context())
		if err := s.templates.Delete(r.Context(), auth.Tenancy.ID, r.PathValue("id")); err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]any{"success": true})
	}
}

