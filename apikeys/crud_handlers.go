package apikeys

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/tessera-id/tessera/apierr"
	"github.com/tessera-id/tessera/authn"
	"github.com/tessera-id/tessera/crud"
	"github.com/tessera-id/tessera/schema"
)

func keyToCrud(key *APIKey) map[string]any {
	var revokedAt any
	if key.ManuallyRevokedAt != nil {
		revokedAt = float64(key.ManuallyRevokedAt.UnixMilli())
	}
	return map[string]any{
		"id":                         key.ID,
		"description":                key.Description,
		"created_at_millis":          float64(key.CreatedAt.UnixMilli()),
		"expires_at_millis":          float64(key.ExpiresAt.UnixMilli()),
		"manually_revoked_at_millis": revokedAt,
		"publishable_client_key":     digestView(key.PublishableClientKey),
		"secret_server_key":          digestView(key.SecretServerKey),
		"super_secret_admin_key":     digestView(key.SuperSecretAdminKey),
	}
}

func digestView(digest *KeyDigest) any {
	if digest == nil {
		return nil
	}
	return map[string]any{"last_four": digest.LastFour}
}

func crudResource() crud.Resource {
	adminOnly := map[crud.Operation]authn.Type{
		crud.OpCreate: authn.TypeAdmin,
		crud.OpRead:   authn.TypeAdmin,
		crud.OpUpdate: authn.TypeAdmin,
		crud.OpList:   authn.TypeAdmin,
	}
	return crud.Resource{
		Name: "internal-api-keys",
		Params: schema.Object{
			"id": schema.UUID().Required(),
		},
		Create: schema.Object{
			"description":                schema.String().Required(),
			"expires_at_millis":          schema.Number().Required(),
			"has_publishable_client_key": schema.Bool().Default(false),
			"has_secret_server_key":      schema.Bool().Default(false),
			"has_super_secret_admin_key": schema.Bool().Default(false),
		},
		Update: schema.Object{
			"revoked": schema.Bool().Required(),
		},
		Read: schema.Object{
			"id":                         schema.UUID().Required(),
			"description":                schema.String().Required(),
			"created_at_millis":          schema.Number().Required(),
			"expires_at_millis":          schema.Number().Required(),
			"manually_revoked_at_millis": schema.Number().Nullable(),
			"publishable_client_key":     schema.Any().Nullable(),
			"secret_server_key":          schema.Any().Nullable(),
			"super_secret_admin_key":     schema.Any().Nullable(),
		},
		Access: adminOnly,
		Docs: map[crud.Operation]crud.Docs{
			crud.OpCreate: {
				Summary:     "Create API key",
				Description: "Create a new API key set. Full key values are returned only by this call.",
				Tags:        []string{"API Keys"},
			},
			crud.OpRead:   {Summary: "Get API key", Tags: []string{"API Keys"}},
			crud.OpUpdate: {Summary: "Revoke API key", Tags: []string{"API Keys"}},
			crud.OpList:   {Summary: "List API keys", Tags: []string{"API Keys"}},
		},
	}
}

// CrudHandlers is the API keys resource plugged into the generic dispatcher.
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
		OnUpdate: h.onUpdate,
		OnList:   h.onList,
	})
	return h
}

func (h *CrudHandlers) Dispatcher() *crud.Dispatcher { return h.dispatcher }

func (h *CrudHandlers) onCreate(ctx context.Context, req crud.Request) (*crud.Result, error) {
	now := h.nowTime().UTC()
	key := &APIKey{
		ID:          uuid.New().String(),
		TenancyID:   req.Auth.Tenancy.ID,
		Description: req.Data["description"].(string),
		CreatedAt:   now,
		ExpiresAt:   time.UnixMilli(int64(req.Data["expires_at_millis"].(float64))).UTC(),
	}

	reveal := make(map[string]any)
	mint := func(class Class, wanted bool, slot **KeyDigest, field string) error {
		if !wanted {
			return nil
		}
		value, digest, err := mintKey(class)
		if err != nil {
			return err
		}
		*slot = digest
		reveal[field] = value
		return nil
	}

	if err := mint(ClassPublishableClient, req.Data["has_publishable_client_key"].(bool), &key.PublishableClientKey, "publishable_client_key"); err != nil {
		return nil, err
	}
	if err := mint(ClassSecretServer, req.Data["has_secret_server_key"].(bool), &key.SecretServerKey, "secret_server_key"); err != nil {
		return nil, err
	}
	if err := mint(ClassSuperSecretAdmin, req.Data["has_super_secret_admin_key"].(bool), &key.SuperSecretAdminKey, "super_secret_admin_key"); err != nil {
		return nil, err
	}

	if len(reveal) == 0 {
		return nil, apierr.NewBadRequest("At least one key class must be requested.")
	}

	if err := h.repo.Create(ctx, key); err != nil {
		return nil, errors.Wrap(err, "[apikeys.onCreate] persist key")
	}

	// Full key values override the digest views exactly once.
	return &crud.Result{View: keyToCrud(key), RevealOnce: reveal}, nil
}

func (h *CrudHandlers) onRead(ctx context.Context, req crud.Request) (*crud.Result, error) {
	key, err := h.repo.GetByID(ctx, req.Auth.Tenancy.ID, req.Params["id"].(string))
	if err != nil {
		if errors.Is(err, ErrAPIKeyNotFound) {
			return nil, apierr.NewNotFound("API key not found.")
		}
		return nil, err
	}
	return &crud.Result{View: keyToCrud(key)}, nil
}

func (h *CrudHandlers) onUpdate(ctx context.Context, req crud.Request) (*crud.Result, error) {
	id := req.Params["id"].(string)
	key, err := h.repo.GetByID(ctx, req.Auth.Tenancy.ID, id)
	if err != nil {
		if errors.Is(err, ErrAPIKeyNotFound) {
			return nil, apierr.NewNotFound("API key not found.")
		}
		return nil, err
	}

	if revoked := req.Data["revoked"].(bool); revoked {
		if key.ManuallyRevokedAt != nil {
			return nil, apierr.NewBadRequest("API key is already revoked.")
		}
		now := h.nowTime().UTC()
		if err := h.repo.SetRevoked(ctx, req.Auth.Tenancy.ID, id, now); err != nil {
			return nil, errors.Wrap(err, "[apikeys.onUpdate] revoke key")
		}
		key.ManuallyRevokedAt = &now
	}
	return &crud.Result{View: keyToCrud(key)}, nil
}

func (h *CrudHandlers) onList(ctx context.Context, req crud.Request) (*crud.ListResult, error) {
	list, err := h.repo.List(ctx, req.Auth.Tenancy.ID)
	if err != nil {
		return nil, errors.Wrap(err, "[apikeys.onList] list keys")
	}
	items := make([]map[string]any, 0, len(list))
	for _, key := range list {
		items = append(items, keyToCrud(key))
	}
	return &crud.ListResult{Items: items, IsPaginated: false}, nil
}
