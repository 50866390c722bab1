package sqlite_test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tessera-id/tessera/apikeys"
	"github.com/tessera-id/tessera/emailtemplates"
	"github.com/tessera-id/tessera/sessions"
	"github.com/tessera-id/tessera/storage/sqlite"
	"github.com/tessera-id/tessera/tenants"
	"github.com/tessera-id/tessera/users"
)

func openTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "tessera.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := sqlite.Open("  ")
	require.Error(t, err)
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tessera.db")

	store, err := sqlite.Open(path)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	// Reopening must not re-run already applied migrations.
	store, err = sqlite.Open(path)
	require.NoError(t, err)
	require.NoError(t, store.Close())
}

func TestTenancyRoundTrip(t *testing.T) {
	store := openTestStore(t)
	repo := store.Tenancies()
	ctx := context.Background()

	tenancy := &tenants.Tenancy{ID: "t-1", ProjectID: "p-1", BranchID: "main", CreatedAt: time.Now().UTC().Truncate(time.Millisecond)}
	require.NoError(t, repo.Upsert(ctx, tenancy))

	got, err := repo.Get(ctx, "t-1")
	require.NoError(t, err)
	assert.Equal(t, tenancy, got)

	got, err = repo.GetByProjectBranch(ctx, "p-1", "main")
	require.NoError(t, err)
	assert.Equal(t, "t-1", got.ID)

	_, err = repo.Get(ctx, "t-2")
	assert.ErrorIs(t, err, tenants.ErrTenancyNotFound)

	require.NoError(t, repo.Delete(ctx, "t-1"))
	assert.ErrorIs(t, repo.Delete(ctx, "t-1"), tenants.ErrTenancyNotFound)
}

func TestUserRoundTrip(t *testing.T) {
	store := openTestStore(t)
	repo := store.Users()
	ctx := context.Background()

	user := &users.User{
		ID:           "u-1",
		TenancyID:    "t-1",
		DisplayName:  "Ada",
		PrimaryEmail: "ada@example.com",
		CreatedAt:    time.Now().UTC().Truncate(time.Millisecond),
	}
	require.NoError(t, repo.Create(ctx, user))

	got, err := repo.Get(ctx, "t-1", "u-1")
	require.NoError(t, err)
	assert.Equal(t, user, got)

	// Lookups are tenancy scoped.
	_, err = repo.Get(ctx, "t-2", "u-1")
	assert.ErrorIs(t, err, users.ErrUserNotFound)

	listed, err := repo.List(ctx, "t-1")
	require.NoError(t, err)
	require.Len(t, listed, 1)

	require.NoError(t, repo.Delete(ctx, "t-1", "u-1"))
	assert.ErrorIs(t, repo.Delete(ctx, "t-1", "u-1"), users.ErrUserNotFound)
}

func TestSessionRoundTrip(t *testing.T) {
	store := openTestStore(t)
	repo := store.Sessions()
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Millisecond)
	expiresAt := now.Add(24 * time.Hour)
	first := &sessions.Session{
		ID:           "s-1",
		UserID:       "u-1",
		TenancyID:    "t-1",
		CreatedAt:    now.Add(-time.Minute),
		ExpiresAt:    &expiresAt,
		RefreshToken: "rt-first",
	}
	second := &sessions.Session{
		ID:              "s-2",
		UserID:          "u-1",
		TenancyID:       "t-1",
		CreatedAt:       now,
		IsImpersonation: true,
		RefreshToken:    "rt-second",
	}
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))

	got, err := repo.GetByID(ctx, "t-1", "s-1")
	require.NoError(t, err)
	assert.Equal(t, first, got)

	got, err = repo.GetByRefreshToken(ctx, "t-1", "rt-second")
	require.NoError(t, err)
	assert.True(t, got.IsImpersonation)
	assert.Nil(t, got.ExpiresAt)

	_, err = repo.GetByRefreshToken(ctx, "t-2", "rt-second")
	assert.ErrorIs(t, err, sessions.ErrSessionNotFound)

	listed, err := repo.List(ctx, "t-1", "u-1")
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, "s-2", listed[0].ID)
	assert.Equal(t, "s-1", listed[1].ID)

	deleted, err := repo.DeleteByID(ctx, "t-1", "s-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	deleted, err = repo.DeleteByID(ctx, "t-1", "s-1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), deleted)
}

func TestSessionListEmptyUserSpansTenancy(t *testing.T) {
	store := openTestStore(t)
	repo := store.Sessions()
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Millisecond)
	for i, userID := range []string{"u-1", "u-2"} {
		session := &sessions.Session{
			ID:           fmt.Sprintf("s-%d", i+1),
			UserID:       userID,
			TenancyID:    "t-1",
			CreatedAt:    now.Add(time.Duration(i) * time.Second),
			RefreshToken: fmt.Sprintf("rt-%d", i+1),
		}
		require.NoError(t, repo.Create(ctx, session))
	}

	// Empty userID lists every session in the tenancy.
	listed, err := repo.List(ctx, "t-1", "")
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, "s-2", listed[0].ID)

	listed, err = repo.List(ctx, "t-1", "u-2")
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "s-2", listed[0].ID)

	listed, err = repo.List(ctx, "t-2", "")
	require.NoError(t, err)
	assert.Empty(t, listed)
}

func TestAPIKeyRoundTrip(t *testing.T) {
	store := openTestStore(t)
	repo := store.APIKeys()
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Millisecond)
	key := &apikeys.APIKey{
		ID:          "k-1",
		TenancyID:   "t-1",
		Description: "ci key",
		CreatedAt:   now,
		ExpiresAt:   now.Add(24 * time.Hour),
		SecretServerKey: &apikeys.KeyDigest{
			Hash:     apikeys.HashKey("ssk_test_value"),
			LastFour: "alue",
		},
	}
	require.NoError(t, repo.Create(ctx, key))

	got, err := repo.GetByID(ctx, "t-1", "k-1")
	require.NoError(t, err)
	assert.Equal(t, key, got)
	assert.Nil(t, got.PublishableClientKey)

	found, class, err := repo.GetByKeyHash(ctx, apikeys.HashKey("ssk_test_value"))
	require.NoError(t, err)
	assert.Equal(t, apikeys.ClassSecretServer, class)
	assert.Equal(t, "k-1", found.ID)

	_, _, err = repo.GetByKeyHash(ctx, apikeys.HashKey("ssk_other_value"))
	assert.ErrorIs(t, err, apikeys.ErrAPIKeyNotFound)

	revokedAt := now.Add(time.Hour)
	require.NoError(t, repo.SetRevoked(ctx, "t-1", "k-1", revokedAt))

	got, err = repo.GetByID(ctx, "t-1", "k-1")
	require.NoError(t, err)
	require.NotNil(t, got.ManuallyRevokedAt)
	assert.Equal(t, revokedAt, *got.ManuallyRevokedAt)
	assert.Equal(t, "manually-revoked", got.WhyInvalid(now.Add(2*time.Hour)))
}

func TestTemplateRoundTrip(t *testing.T) {
	store := openTestStore(t)
	repo := store.Templates()
	ctx := context.Background()

	template := &emailtemplates.Template{
		ID:          "tpl-1",
		TenancyID:   "t-1",
		DisplayName: "Welcome",
		TSXSource:   emailtemplates.DefaultSource("Welcome"),
		CreatedAt:   time.Now().UTC().Truncate(time.Millisecond),
	}
	require.NoError(t, repo.Create(ctx, template))

	got, err := repo.Get(ctx, "t-1", "tpl-1")
	require.NoError(t, err)
	assert.Equal(t, template, got)
	assert.Nil(t, got.ThemeID)

	listed, err := repo.List(ctx, "t-1")
	require.NoError(t, err)
	require.Len(t, listed, 1)

	require.NoError(t, repo.Delete(ctx, "t-1", "tpl-1"))
	assert.ErrorIs(t, repo.Delete(ctx, "t-1", "tpl-1"), emailtemplates.ErrTemplateNotFound)
}
