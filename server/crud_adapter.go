package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/tessera-id/tessera/apierr"
	"github.com/tessera-id/tessera/apikeys"
	"github.com/tessera-id/tessera/authn"
	"github.com/tessera-id/tessera/crud"
	"github.com/tessera-id/tessera/emailtemplates"
	"github.com/tessera-id/tessera/schema"
	"github.com/tessera-id/tessera/sessions"
	"github.com/tessera-id/tessera/users"
)

// paramsFunc extracts path parameters for an operation from the request.
type paramsFunc func(r *http.Request) map[string]any

func pathID(wildcard string) paramsFunc {
	return func(r *http.Request) map[string]any {
		return map[string]any{"id": r.PathValue(wildcard)}
	}
}

// CrudHandler adapts one operation of a resource dispatcher to an HTTP
// handler. The resolved auth context must already be on the request.
func (s *Server) CrudHandler(dispatcher *crud.Dispatcher, op crud.Operation, params paramsFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		auth, ok := authn.FromContext(r.Context())
		if !ok {
			s.writeError(w, apierr.NewUnauthorized("An API key is required."))
			return
		}

		raw := crud.RawRequest{Auth: auth, Query: queryValues(r)}
		if params != nil {
			raw.Params = params(r)
		}

		if op == crud.OpCreate || op == crud.OpUpdate {
			body, err := decodeBody(r)
			if err != nil {
				s.writeError(w, err)
				return
			}
			raw.Body = body
		}

		resp, err := dispatcher.Invoke(r.Context(), op, raw)
		if err != nil {
			s.writeError(w, err)
			return
		}

		if op == crud.OpList {
			s.writeJSON(w, http.StatusOK, map[string]any{"items": resp.Items, "is_paginated": resp.IsPaginated})
			return
		}
		s.writeJSON(w, http.StatusOK, resp.Body)
	}
}

func decodeBody(r *http.Request) (map[string]any, error) {
	defer func() { _, _ = io.Copy(io.Discard, r.Body) }()
	body := map[string]any{}
	err := json.NewDecoder(r.Body).Decode(&body)
	if err == io.EOF {
		return map[string]any{}, nil
	}
	if err != nil {
		return nil, apierr.NewBadRequest("The request body is not valid JSON.")
	}
	return body, nil
}

func queryValues(r *http.Request) map[string]any {
	values := r.URL.Query()
	if len(values) == 0 {
		return nil
	}
	out := make(map[string]any, len(values))
	for name, vs := range values {
		if len(vs) > 0 {
			out[name] = vs[0]
		}
	}
	return out
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error().Err(err).Msg("failed to encode response body")
	}
}

// writeError maps an error chain onto the wire format. Validation failures
// carry per-field details; any error without a known mapping is reported as
// an internal error without leaking its message.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var validation *schema.ValidationError
	if errors.As(err, &validation) {
		s.writeJSON(w, http.StatusBadRequest, map[string]any{
			"code":    validation.Code(),
			"message": "Request validation failed.",
			"details": validation.Fields,
		})
		return
	}

	var known apierr.KnownError
	if errors.As(err, &known) {
		s.writeJSON(w, known.HTTPStatus(), map[string]any{
			"code":    known.Code(),
			"message": known.Error(),
		})
		return
	}

	if errors.Is(err, users.ErrUserNotFound) ||
		errors.Is(err, sessions.ErrSessionNotFound) ||
		errors.Is(err, apikeys.ErrAPIKeyNotFound) ||
		errors.Is(err, emailtemplates.ErrTemplateNotFound) {
		s.writeJSON(w, http.StatusNotFound, map[string]any{
			"code":    apierr.CodeNotFound,
			"message": "Not found.",
		})
		return
	}

	s.logger.Error().Err(err).Msg("request failed")
	s.writeJSON(w, http.StatusInternalServerError, map[string]any{
		"code":    apierr.CodeInternal,
		"message": "Something went wrong.",
	})
}
