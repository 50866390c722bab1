package users

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/tessera-id/tessera/authn"
	"github.com/tessera-id/tessera/crud"
	"github.com/tessera-id/tessera/schema"
	"github.com/tessera-id/tessera/tenants"
)

func userToCrud(user *User) map[string]any {
	return map[string]any{
		"id":            user.ID,
		"display_name":  user.DisplayName,
		"primary_email": user.PrimaryEmail,
		"created_at":    float64(user.CreatedAt.UnixMilli()),
	}
}

func crudResource() crud.Resource {
	return crud.Resource{
		Name: "users",
		Params: schema.Object{
			"user_id": schema.UUID().Required(),
		},
		Create: schema.Object{
			"display_name":  schema.String(),
			"primary_email": schema.String(),
		},
		Read: schema.Object{
			"id":            schema.UUID().Required(),
			"display_name":  schema.String(),
			"primary_email": schema.String(),
			"created_at":    schema.Number().Required(),
		},
		Access: map[crud.Operation]authn.Type{
			crud.OpCreate: authn.TypeServer,
			crud.OpRead:   authn.TypeServer,
			crud.OpList:   authn.TypeServer,
			crud.OpDelete: authn.TypeServer,
		},
		Docs: map[crud.Operation]crud.Docs{
			crud.OpCreate: {Summary: "Create user", Tags: []string{"Users"}},
			crud.OpRead:   {Summary: "Get user", Tags: []string{"Users"}},
			crud.OpList:   {Summary: "List users", Tags: []string{"Users"}},
			crud.OpDelete: {Summary: "Delete user", Tags: []string{"Users"}},
		},
	}
}

// CrudHandlers is the users resource plugged into the generic dispatcher.
type CrudHandlers struct {
	dispatcher *crud.Dispatcher
	repo       Repo
	nowTime    func() time.Time
}

type CrudHandlersOption func(*CrudHandlers)

// WithNowTime sets the now time function (primarily for testing).
func WithNowTime(nowFunc func() time.Time) CrudHandlersOption {
	return func(h *CrudHandlers) {
		h.nowTime = nowFunc
	}
}

func NewCrudHandlers(repo Repo, options ...CrudHandlersOption) *CrudHandlers {
	h := &CrudHandlers{repo: repo, nowTime: time.Now}
	for _, opt := range options {
		opt(h)
	}
	h.dispatcher = crud.NewDispatcher(crudResource(), crud.Handlers{
		OnCreate: h.onCreate,
		OnRead:   h.onRead,
		OnList:   h.onList,
		OnDelete: h.onDelete,
	})
	return h
}

func (h *CrudHandlers) Dispatcher() *crud.Dispatcher { return h.dispatcher }

func (h *CrudHandlers) onCreate(ctx context.Context, req crud.Request) (*crud.Result, error) {
	user := &User{
		ID:        uuid.New().String(),
		TenancyID: req.Auth.Tenancy.ID,
		CreatedAt: h.nowTime().UTC(),
	}
	if name, ok := req.Data["display_name"].(string); ok {
		user.DisplayName = name
	}
	if email, ok := req.Data["primary_email"].(string); ok {
		user.PrimaryEmail = email
	}
	if err := h.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	return &crud.Result{View: userToCrud(user)}, nil
}

func (h *CrudHandlers) onRead(ctx context.Context, req crud.Request) (*crud.Result, error) {
	user, err := h.repo.Get(ctx, req.Auth.Tenancy.ID, req.Params["user_id"].(string))
	if err != nil {
		return nil, err
	}
	return &crud.Result{View: userToCrud(user)}, nil
}

func (h *CrudHandlers) onList(ctx context.Context, req crud.Request) (*crud.ListResult, error) {
	list, err := h.repo.List(ctx, req.Auth.Tenancy.ID)
	if err != nil {
		return nil, err
	}
	items := make([]map[string]any, 0, len(list))
	for _, user := range list {
		items = append(items, userToCrud(user))
	}
	return &crud.ListResult{Items: items, IsPaginated: false}, nil
}

func (h *CrudHandlers) onDelete(ctx context.Context, req crud.Request) error {
	return h.repo.Delete(ctx, req.Auth.Tenancy.ID, req.Params["user_id"].(string))
}

// AdminRead resolves a user by id within a tenancy, with admin access,
// through the dispatcher. Failures come back wrapped in the dispatcher's
// invocation error so callers can match on the original cause.
func (h *CrudHandlers) AdminRead(ctx context.Context, tenancy tenants.Tenancy, userID string) (map[string]any, error) {
	resp, err := h.dispatcher.Invoke(ctx, crud.OpRead, crud.RawRequest{
		Auth:   authn.Auth{Type: authn.TypeAdmin, Tenancy: tenancy},
		Params: map[string]any{"user_id": userID},
	})
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}
