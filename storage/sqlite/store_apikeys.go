package sqlite

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"

	"github.com/tessera-id/tessera/apikeys"
)

// APIKeyRepo is the API keys view of the store.
type APIKeyRepo struct {
	db *sql.DB
}

var _ apikeys.Repo = (*APIKeyRepo)(nil)

// APIKeys returns the API key repository backed by this store.
func (s *Store) APIKeys() *APIKeyRepo {
	return &APIKeyRepo{db: s.db}
}

var apiKeyColumns = []string{
	"tenancy_id", "id", "description", "created_at", "expires_at", "manually_revoked_at",
	"publishable_client_key_hash", "publishable_client_key_last_four",
	"secret_server_key_hash", "secret_server_key_last_four",
	"super_secret_admin_key_hash", "super_secret_admin_key_last_four",
}

func (r *APIKeyRepo) Create(ctx context.Context, key *apikeys.APIKey) error {
	pckHash, pckLast := digestColumns(key.PublishableClientKey)
	sskHash, sskLast := digestColumns(key.SecretServerKey)
	sakHash, sakLast := digestColumns(key.SuperSecretAdminKey)

	query, args, err := builder.
		Insert("api_keys").
		Columns(apiKeyColumns...).
		Values(
			key.TenancyID,
			key.ID,
			key.Description,
			toMillis(key.CreatedAt),
			toMillis(key.ExpiresAt),
			toNullMillis(key.ManuallyRevokedAt),
			pckHash, pckLast,
			sskHash, sskLast,
			sakHash, sakLast,
		).
		ToSql()
	if err != nil {
		return errors.Wrap(err, "[APIKeyRepo.Create] build query")
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return errors.Wrap(err, "[APIKeyRepo.Create] exec")
	}
	return nil
}

func (r *APIKeyRepo) GetByID(ctx context.Context, tenancyID, id string) (*apikeys.APIKey, error) {
	query, args, err := builder.
		Select(apiKeyColumns...).
		From("api_keys").
		Where(sq.Eq{"tenancy_id": tenancyID, "id": id}).
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "[APIKeyRepo.GetByID] build query")
	}

	key, err := scanAPIKey(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apikeys.ErrAPIKeyNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "[APIKeyRepo.GetByID] scan")
	}
	return key, nil
}

func (r *APIKeyRepo) List(ctx context.Context, tenancyID string) ([]*apikeys.APIKey, error) {
	query, args, err := builder.
		Select(apiKeyColumns...).
		From("api_keys").
		Where(sq.Eq{"tenancy_id": tenancyID}).
		OrderBy("created_at DESC", "id").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "[APIKeyRepo.List] build query")
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "[APIKeyRepo.List] query")
	}
	defer rows.Close()

	var out []*apikeys.APIKey
	for rows.Next() {
		key, err := scanAPIKey(rows)
		if err != nil {
			return nil, errors.Wrap(err, "[APIKeyRepo.List] scan")
		}
		out = append(out, key)
	}
	return out, errors.Wrap(rows.Err(), "[APIKeyRepo.List] rows")
}

func (r *APIKeyRepo) SetRevoked(ctx context.Context, tenancyID, id string, revokedAt time.Time) error {
	query, args, err := builder.
		Update("api_keys").
		Set("manually_revoked_at", toMillis(revokedAt)).
		Where(sq.Eq{"tenancy_id": tenancyID, "id": id}).
		ToSql()
	if err != nil {
		return errors.Wrap(err, "[APIKeyRepo.SetRevoked] build query")
	}
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return errors.Wrap(err, "[APIKeyRepo.SetRevoked] exec")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "[APIKeyRepo.SetRevoked] rows affected")
	}
	if affected == 0 {
		return apikeys.ErrAPIKeyNotFound
	}
	return nil
}

// GetByKeyHash resolves a presented key digest to its record and the class
// of the matching slot.
func (r *APIKeyRepo) GetByKeyHash(ctx context.Context, hash string) (*apikeys.APIKey, apikeys.Class, error) {
	query, args, err := builder.
		Select(apiKeyColumns...).
		From("api_keys").
		Where(sq.Or{
			sq.Eq{"publishable_client_key_hash": hash},
			sq.Eq{"secret_server_key_hash": hash},
			sq.Eq{"super_secret_admin_key_hash": hash},
		}).
		ToSql()
	if err != nil {
		return nil, "", errors.Wrap(err, "[APIKeyRepo.GetByKeyHash] build query")
	}

	key, err := scanAPIKey(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", apikeys.ErrAPIKeyNotFound
	}
	if err != nil {
		return nil, "", errors.Wrap(err, "[APIKeyRepo.GetByKeyHash] scan")
	}

	switch {
	case key.PublishableClientKey != nil && key.PublishableClientKey.Hash == hash:
		return key, apikeys.ClassPublishableClient, nil
	case key.SecretServerKey != nil && key.SecretServerKey.Hash == hash:
		return key, apikeys.ClassSecretServer, nil
	case key.SuperSecretAdminKey != nil && key.SuperSecretAdminKey.Hash == hash:
		return key, apikeys.ClassSuperSecretAdmin, nil
	}
	return nil, "", apikeys.ErrAPIKeyNotFound
}

func digestColumns(digest *apikeys.KeyDigest) (sql.NullString, sql.NullString) {
	if digest == nil {
		return sql.NullString{}, sql.NullString{}
	}
	return sql.NullString{String: digest.Hash, Valid: true}, sql.NullString{String: digest.LastFour, Valid: true}
}

func scanDigest(hash, lastFour sql.NullString) *apikeys.KeyDigest {
	if !hash.Valid {
		return nil
	}
	return &apikeys.KeyDigest{Hash: hash.String, LastFour: lastFour.String}
}

func scanAPIKey(row rowScanner) (*apikeys.APIKey, error) {
	var (
		key               apikeys.APIKey
		createdAt         int64
		expiresAt         int64
		manuallyRevokedAt sql.NullInt64
		pckHash, pckLast  sql.NullString
		sskHash, sskLast  sql.NullString
		sakHash, sakLast  sql.NullString
	)
	err := row.Scan(
		&key.TenancyID,
		&key.ID,
		&key.Description,
		&createdAt,
		&expiresAt,
		&manuallyRevokedAt,
		&pckHash, &pckLast,
		&sskHash, &sskLast,
		&sakHash, &sakLast,
	)
	if err != nil {
		return nil, err
	}
	key.CreatedAt = fromMillis(createdAt)
	key.ExpiresAt = fromMillis(expiresAt)
	key.ManuallyRevokedAt = fromNullMillis(manuallyRevokedAt)
	key.PublishableClientKey = scanDigest(pckHash, pckLast)
	key.SecretServerKey = scanDigest(sskHash, sskLast)
	key.SuperSecretAdminKey = scanDigest(sakHash, sakLast)
	return &key, nil
}
