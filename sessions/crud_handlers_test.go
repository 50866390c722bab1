package sessions_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"github.com/tessera-id/tessera/apierr"
	"github.com/tessera-id/tessera/authn"
	"github.com/tessera-id/tessera/crud"
	"github.com/tessera-id/tessera/internal/utils"
	"github.com/tessera-id/tessera/schema"
	"github.com/tessera-id/tessera/sessions"
	sessionrepofakes "github.com/tessera-id/tessera/sessions/repofakes"
	"github.com/tessera-id/tessera/tenants"
	"github.com/tessera-id/tessera/token"
	"github.com/tessera-id/tessera/users"
	userrepofakes "github.com/tessera-id/tessera/users/repofakes"
)

var testTenancy = tenants.Tenancy{
	ID:        "a81c5f66-6f0d-4c44-9b6c-111111111111",
	ProjectID: "project-1",
	BranchID:  "main",
}

type testFixture struct {
	sessionRepo *sessionrepofakes.FakeSessionRepo
	userRepo    *userrepofakes.FakeUserRepo
	handlers    *sessions.CrudHandlers
	now         time.Time
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	nowFunc := func() time.Time { return now }

	userRepo := userrepofakes.NewFakeUserRepo()
	sessionRepo := sessionrepofakes.NewFakeSessionRepo()
	userHandlers := users.NewCrudHandlers(userRepo, users.WithNowTime(nowFunc))

	issuer, err := token.NewIssuer([]byte("test-secret"), token.WithNowTime(nowFunc))
	require.NoError(t, err)

	handlers, err := sessions.NewCrudHandlers(sessionRepo, userHandlers, issuer, sessions.WithNowTime(nowFunc))
	require.NoError(t, err)

	return &testFixture{
		sessionRepo: sessionRepo,
		userRepo:    userRepo,
		handlers:    handlers,
		now:         now,
	}
}

func (f *testFixture) createUser(t *testing.T) *users.User {
	t.Helper()
	user := &users.User{
		ID:        uuid.New().String(),
		TenancyID: testTenancy.ID,
		CreatedAt: f.now,
	}
	require.NoError(t, f.userRepo.Create(context.Background(), user))
	return user
}

func serverAuth() authn.Auth {
	return authn.Auth{Type: authn.TypeServer, Tenancy: testTenancy}
}

func clientAuth(userID *string) authn.Auth {
	return authn.Auth{Type: authn.TypeClient, Tenancy: testTenancy, UserID: userID}
}

func TestCreateSessionDefaults(t *testing.T) {
	f := setupTestFixture(t)
	user := f.createUser(t)

	resp, err := f.handlers.Dispatcher().Invoke(context.Background(), crud.OpCreate, crud.RawRequest{
		Auth: serverAuth(),
		Body: map[string]any{"user_id": user.ID},
	})
	require.NoError(t, err)

	createdAt := resp.Body["created_at"].(float64)
	expiresAt := resp.Body["expires_at"].(float64)
	require.Equal(t, float64(f.now.UnixMilli()), createdAt)
	require.Equal(t, createdAt+float64(sessions.DefaultExpiresInMillis), expiresAt)
	require.Equal(t, false, resp.Body["is_impersonation"])
	require.Equal(t, user.ID, resp.Body["user_id"])

	require.NotEmpty(t, resp.Body["refresh_token"])
	require.NotEmpty(t, resp.Body["access_token"])
}

func TestCreateSessionExplicitExpiry(t *testing.T) {
	f := setupTestFixture(t)
	user := f.createUser(t)

	resp, err := f.handlers.Dispatcher().Invoke(context.Background(), crud.OpCreate, crud.RawRequest{
		Auth: serverAuth(),
		Body: map[string]any{
			"user_id":           user.ID,
			"expires_in_millis": float64(60_000),
			"is_impersonation":  true,
		},
	})
	require.NoError(t, err)

	createdAt := resp.Body["created_at"].(float64)
	require.Equal(t, createdAt+60_000, resp.Body["expires_at"].(float64))
	require.Equal(t, true, resp.Body["is_impersonation"])
}

func TestCreateSessionRejectsDurationAboveMax(t *testing.T) {
	f := setupTestFixture(t)
	user := f.createUser(t)

	_, err := f.handlers.Dispatcher().Invoke(context.Background(), crud.OpCreate, crud.RawRequest{
		Auth: serverAuth(),
		Body: map[string]any{
			"user_id":           user.ID,
			"expires_in_millis": float64(sessions.MaxExpiresInMillis + 1),
		},
	})
	require.Error(t, err)

	var verr *schema.ValidationError
	require.True(t, errors.As(err, &verr))
	require.Contains(t, verr.Fields, "expires_in_millis")
}

func TestCreateSessionUnknownUser(t *testing.T) {
	f := setupTestFixture(t)
	missingID := uuid.New().String()

	_, err := f.handlers.Dispatcher().Invoke(context.Background(), crud.OpCreate, crud.RawRequest{
		Auth: serverAuth(),
		Body: map[string]any{"user_id": missingID},
	})
	require.Error(t, err)

	var domainErr *apierr.UserIDDoesNotExistError
	require.True(t, errors.As(err, &domainErr))
	require.Equal(t, missingID, domainErr.UserID)
	require.False(t, errors.Is(err, users.ErrUserNotFound))
}

func TestCreateSessionForbiddenForClient(t *testing.T) {
	f := setupTestFixture(t)
	user := f.createUser(t)

	_, err := f.handlers.Dispatcher().Invoke(context.Background(), crud.OpCreate, crud.RawRequest{
		Auth: clientAuth(&user.ID),
		Body: map[string]any{"user_id": user.ID},
	})
	require.Error(t, err)

	var statusErr *apierr.StatusError
	require.True(t, errors.As(err, &statusErr))
	require.Equal(t, 403, statusErr.HTTPStatus())
}

func TestListOrderedByCreationDescending(t *testing.T) {
	f := setupTestFixture(t)
	user := f.createUser(t)

	base := f.now
	for i := 0; i < 3; i++ {
		require.NoError(t, f.sessionRepo.Create(context.Background(), &sessions.Session{
			ID:           uuid.New().String(),
			UserID:       user.ID,
			TenancyID:    testTenancy.ID,
			CreatedAt:    base.Add(time.Duration(i) * time.Minute),
			RefreshToken: uuid.New().String(),
		}))
	}

	resp, err := f.handlers.Dispatcher().Invoke(context.Background(), crud.OpList, crud.RawRequest{
		Auth:  serverAuth(),
		Query: map[string]any{"user_id": user.ID},
	})
	require.NoError(t, err)
	require.False(t, resp.IsPaginated)
	require.Len(t, resp.Items, 3)

	for i := 0; i < 2; i++ {
		require.Greater(t, resp.Items[i]["created_at"].(float64), resp.Items[i+1]["created_at"].(float64))
	}

	// Token values are never part of list results.
	for _, item := range resp.Items {
		require.NotContains(t, item, "refresh_token")
		require.NotContains(t, item, "access_token")
	}
}

func TestListClientScopedToSelf(t *testing.T) {
	f := setupTestFixture(t)
	user := f.createUser(t)
	other := f.createUser(t)

	_, err := f.handlers.Dispatcher().Invoke(context.Background(), crud.OpList, crud.RawRequest{
		Auth:  clientAuth(&user.ID),
		Query: map[string]any{"user_id": other.ID},
	})
	require.Error(t, err)

	var statusErr *apierr.StatusError
	require.True(t, errors.As(err, &statusErr))
	require.Equal(t, 403, statusErr.HTTPStatus())
}

func TestListAnonymousClient(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.handlers.Dispatcher().Invoke(context.Background(), crud.OpList, crud.RawRequest{
		Auth: clientAuth(nil),
	})
	require.Error(t, err)

	var domainErr *apierr.CannotGetOwnUserWithoutUserError
	require.True(t, errors.As(err, &domainErr))
}

func TestListClientMeResolvesToSelf(t *testing.T) {
	f := setupTestFixture(t)
	user := f.createUser(t)
	other := f.createUser(t)

	require.NoError(t, f.sessionRepo.Create(context.Background(), &sessions.Session{
		ID: uuid.New().String(), UserID: user.ID, TenancyID: testTenancy.ID,
		CreatedAt: f.now, RefreshToken: "rt-1",
	}))
	require.NoError(t, f.sessionRepo.Create(context.Background(), &sessions.Session{
		ID: uuid.New().String(), UserID: other.ID, TenancyID: testTenancy.ID,
		CreatedAt: f.now, RefreshToken: "rt-2",
	}))

	resp, err := f.handlers.Dispatcher().Invoke(context.Background(), crud.OpList, crud.RawRequest{
		Auth:  clientAuth(&user.ID),
		Query: map[string]any{"user_id": "me"},
	})
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	require.Equal(t, user.ID, resp.Items[0]["user_id"])
}

func TestDeleteSession(t *testing.T) {
	f := setupTestFixture(t)
	user := f.createUser(t)

	sessionID := uuid.New().String()
	require.NoError(t, f.sessionRepo.Create(context.Background(), &sessions.Session{
		ID: sessionID, UserID: user.ID, TenancyID: testTenancy.ID,
		CreatedAt: f.now, ExpiresAt: utils.Ptr(f.now.Add(time.Hour)), RefreshToken: "rt-1",
	}))

	_, err := f.handlers.Dispatcher().Invoke(context.Background(), crud.OpDelete, crud.RawRequest{
		Auth:   clientAuth(&user.ID),
		Params: map[string]any{"id": sessionID},
	})
	require.NoError(t, err)

	_, err = f.sessionRepo.GetByID(context.Background(), testTenancy.ID, sessionID)
	require.ErrorIs(t, err, sessions.ErrSessionNotFound)
}

func TestDeleteSessionNotFound(t *testing.T) {
	f := setupTestFixture(t)
	user := f.createUser(t)

	_, err := f.handlers.Dispatcher().Invoke(context.Background(), crud.OpDelete, crud.RawRequest{
		Auth:   clientAuth(&user.ID),
		Params: map[string]any{"id": uuid.New().String()},
	})
	require.Error(t, err)

	var statusErr *apierr.StatusError
	require.True(t, errors.As(err, &statusErr))
	require.Equal(t, 404, statusErr.HTTPStatus())
}

func TestDeleteSessionForbiddenForOtherUser(t *testing.T) {
	f := setupTestFixture(t)
	owner := f.createUser(t)
	caller := f.createUser(t)

	sessionID := uuid.New().String()
	require.NoError(t, f.sessionRepo.Create(context.Background(), &sessions.Session{
		ID: sessionID, UserID: owner.ID, TenancyID: testTenancy.ID,
		CreatedAt: f.now, RefreshToken: "rt-1",
	}))

	_, err := f.handlers.Dispatcher().Invoke(context.Background(), crud.OpDelete, crud.RawRequest{
		Auth:   clientAuth(&caller.ID),
		Params: map[string]any{"id": sessionID},
	})
	require.Error(t, err)

	var statusErr *apierr.StatusError
	require.True(t, errors.As(err, &statusErr))
	require.Equal(t, 403, statusErr.HTTPStatus())
}

func TestCreateThenListScenario(t *testing.T) {
	f := setupTestFixture(t)
	user := f.createUser(t)

	created, err := f.handlers.Dispatcher().Invoke(context.Background(), crud.OpCreate, crud.RawRequest{
		Auth: serverAuth(),
		Body: map[string]any{"user_id": user.ID},
	})
	require.NoError(t, err)
	require.Equal(t, false, created.Body["is_impersonation"])
	require.Equal(t, created.Body["created_at"].(float64)+31_536_000_000, created.Body["expires_at"].(float64))

	listed, err := f.handlers.Dispatcher().Invoke(context.Background(), crud.OpList, crud.RawRequest{
		Auth:  clientAuth(&user.ID),
		Query: map[string]any{"user_id": user.ID},
	})
	require.NoError(t, err)
	require.Len(t, listed.Items, 1)
	require.Equal(t, created.Body["id"], listed.Items[0]["id"])
	require.NotContains(t, listed.Items[0], "refresh_token")
	require.NotContains(t, listed.Items[0], "access_token")
}

func TestUpdateUnsupported(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.handlers.Dispatcher().Invoke(context.Background(), crud.OpUpdate, crud.RawRequest{
		Auth:   serverAuth(),
		Params: map[string]any{"id": uuid.New().String()},
	})
	require.Error(t, err)

	var unsupported *crud.UnsupportedOperationError
	require.True(t, errors.As(err, &unsupported))
}
