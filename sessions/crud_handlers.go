package sessions

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/tessera-id/tessera/apierr"
	"github.com/tessera-id/tessera/authn"
	"github.com/tessera-id/tessera/crud"
	"github.com/tessera-id/tessera/schema"
	"github.com/tessera-id/tessera/token"
	"github.com/tessera-id/tessera/users"
)

func sessionToCrud(session *Session) map[string]any {
	var expiresAt any
	if session.ExpiresAt != nil {
		expiresAt = float64(session.ExpiresAt.UnixMilli())
	}
	return map[string]any{
		"id":               session.ID,
		"user_id":          session.UserID,
		"created_at":       float64(session.CreatedAt.UnixMilli()),
		"expires_at":       expiresAt,
		"is_impersonation": session.IsImpersonation,
	}
}

func crudResource() crud.Resource {
	return crud.Resource{
		Name: "sessions",
		Params: schema.Object{
			"id": schema.UUID().Required(),
		},
		Query: schema.Object{
			"user_id": schema.UUID().AllowLiterals("me"),
		},
		Create: schema.Object{
			"user_id":           schema.UUID().Required(),
			"expires_in_millis": schema.Number().Max(MaxExpiresInMillis).Default(float64(DefaultExpiresInMillis)),
			"is_impersonation":  schema.Bool().Default(false),
		},
		Read: schema.Object{
			"id":               schema.UUID().Required(),
			"user_id":          schema.UUID().Required(),
			"created_at":       schema.Number().Required(),
			"expires_at":       schema.Number().Nullable(),
			"is_impersonation": schema.Bool().Required(),
		},
		Access: map[crud.Operation]authn.Type{
			crud.OpCreate: authn.TypeServer,
			crud.OpList:   authn.TypeClient,
			crud.OpDelete: authn.TypeClient,
		},
		Docs: map[crud.Operation]crud.Docs{
			crud.OpCreate: {
				Summary:     "Create session",
				Description: "Create a new session for a given user. This will return a refresh token that can be used to impersonate the user.",
				Tags:        []string{"Sessions"},
			},
			crud.OpList: {
				Summary:     "List sessions",
				Description: "List all sessions for the current user.",
				Tags:        []string{"Sessions"},
			},
			crud.OpDelete: {
				Summary:     "Delete session",
				Description: "Delete a session by ID.",
				Tags:        []string{"Sessions"},
			},
		},
	}
}

// CrudHandlers is the sessions resource plugged into the generic dispatcher.
type CrudHandlers struct {
	dispatcher *crud.Dispatcher
	repo       Repo
	users      *users.CrudHandlers
	issuer     *token.Issuer
	nowTime    func() time.Time
}

type CrudHandlersOption func(*CrudHandlers)

// WithNowTime sets the now time function (primarily for testing).
func WithNowTime(nowFunc func() time.Time) CrudHandlersOption {
	return func(h *CrudHandlers) {
		h.nowTime = nowFunc
	}
}

func NewCrudHandlers(repo Repo, userHandlers *users.CrudHandlers, issuer *token.Issuer, options ...CrudHandlersOption) (*CrudHandlers, error) {
	if repo == nil {
		return nil, errors.New("[sessions.NewCrudHandlers] repo is required")
	}
	if userHandlers == nil {
		return nil, errors.New("[sessions.NewCrudHandlers] user handlers are required")
	}
	if issuer == nil {
		return nil, errors.New("[sessions.NewCrudHandlers] issuer is required")
	}

	h := &CrudHandlers{repo: repo, users: userHandlers, issuer: issuer, nowTime: time.Now}
	for _, opt := range options {
		opt(h)
	}
	h.dispatcher = crud.NewDispatcher(crudResource(), crud.Handlers{
		OnCreate: h.onCreate,
		OnList:   h.onList,
		OnDelete: h.onDelete,
	})
	return h, nil
}

func (h *CrudHandlers) Dispatcher() *crud.Dispatcher { return h.dispatcher }

func (h *CrudHandlers) onCreate(ctx context.Context, req crud.Request) (*crud.Result, error) {
	userID := req.Data["user_id"].(string)

	// The user lookup raises its own domain's not-found; translate it so
	// callers get a session-domain error about the referenced user rather
	// than a leaked user-domain error.
	if _, err := h.users.AdminRead(ctx, req.Auth.Tenancy, userID); err != nil {
		var invErr *crud.InvocationError
		if errors.As(err, &invErr) && errors.Is(invErr.Cause, users.ErrUserNotFound) {
			return nil, &apierr.UserIDDoesNotExistError{UserID: userID}
		}
		return nil, err
	}

	expiresInMillis := req.Data["expires_in_millis"].(float64)
	isImpersonation := req.Data["is_impersonation"].(bool)

	now := h.nowTime().UTC()
	expiresAt := now.Add(time.Duration(expiresInMillis) * time.Millisecond)

	pair, err := h.issuer.Issue(req.Auth.Tenancy, userID, expiresAt, isImpersonation)
	if err != nil {
		return nil, errors.Wrap(err, "[sessions.onCreate] issue tokens")
	}

	if err := h.repo.Create(ctx, &Session{
		ID:              uuid.New().String(),
		UserID:          userID,
		TenancyID:       req.Auth.Tenancy.ID,
		CreatedAt:       now,
		ExpiresAt:       &expiresAt,
		IsImpersonation: isImpersonation,
		RefreshToken:    pair.RefreshToken,
	}); err != nil {
		return nil, errors.Wrap(err, "[sessions.onCreate] persist session")
	}

	// Re-read by the freshly generated refresh token. Uniqueness is an
	// assumption on the issuer's entropy, not something verified here.
	session, err := h.repo.GetByRefreshToken(ctx, req.Auth.Tenancy.ID, pair.RefreshToken)
	if err != nil {
		return nil, apierr.NewInternalServerError("Failed to create session.")
	}

	return &crud.Result{
		View: sessionToCrud(session),
		RevealOnce: map[string]any{
			"refresh_token": pair.RefreshToken,
			"access_token":  pair.AccessToken,
		},
	}, nil
}

func (h *CrudHandlers) onList(ctx context.Context, req crud.Request) (*crud.ListResult, error) {
	requestedUserID, _ := req.Query["user_id"].(string)

	if requestedUserID == "me" {
		if req.Auth.UserID == nil {
			return nil, &apierr.CannotGetOwnUserWithoutUserError{}
		}
		requestedUserID = *req.Auth.UserID
	}

	if req.Auth.Type == authn.TypeClient {
		if req.Auth.UserID == nil {
			return nil, &apierr.CannotGetOwnUserWithoutUserError{}
		}
		currentUserID := *req.Auth.UserID
		if requestedUserID != "" && requestedUserID != currentUserID {
			return nil, apierr.NewForbidden("Client can only list sessions for their own user.")
		}
		requestedUserID = currentUserID
	}

	list, err := h.repo.List(ctx, req.Auth.Tenancy.ID, requestedUserID)
	if err != nil {
		return nil, errors.Wrap(err, "[sessions.onList] list sessions")
	}

	items := make([]map[string]any, 0, len(list))
	for _, session := range list {
		items = append(items, sessionToCrud(session))
	}
	return &crud.ListResult{Items: items, IsPaginated: false}, nil
}

func (h *CrudHandlers) onDelete(ctx context.Context, req crud.Request) error {
	id := req.Params["id"].(string)

	session, err := h.repo.GetByID(ctx, req.Auth.Tenancy.ID, id)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return apierr.NewNotFound("Session not found.")
		}
		return errors.Wrap(err, "[sessions.onDelete] lookup session")
	}

	if req.Auth.Type == authn.TypeClient {
		if req.Auth.UserID == nil || *req.Auth.UserID != session.UserID {
			return apierr.NewForbidden("Client can only delete their own sessions.")
		}
	}

	if _, err := h.repo.DeleteByID(ctx, req.Auth.Tenancy.ID, id); err != nil {
		return errors.Wrap(err, "[sessions.onDelete] delete session")
	}
	return nil
}
