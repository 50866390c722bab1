package sqlite

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"

	"github.com/tessera-id/tessera/sessions"
)

// SessionRepo is the sessions view of the store.
type SessionRepo struct {
	db *sql.DB
}

var _ sessions.Repo = (*SessionRepo)(nil)

// Sessions returns the session repository backed by this store.
func (s *Store) Sessions() *SessionRepo {
	return &SessionRepo{db: s.db}
}

var sessionColumns = []string{"tenancy_id", "id", "user_id", "created_at", "expires_at", "is_impersonation", "refresh_token"}

func (r *SessionRepo) Create(ctx context.Context, session *sessions.Session) error {
	query, args, err := builder.
		Insert("sessions").
		Columns(sessionColumns...).
		Values(
			session.TenancyID,
			session.ID,
			session.UserID,
			toMillis(session.CreatedAt),
			toNullMillis(session.ExpiresAt),
			session.IsImpersonation,
			session.RefreshToken,
		).
		ToSql()
	if err != nil {
		return errors.Wrap(err, "[SessionRepo.Create] build query")
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return errors.Wrap(err, "[SessionRepo.Create] exec")
	}
	return nil
}

func (r *SessionRepo) GetByID(ctx context.Context, tenancyID, id string) (*sessions.Session, error) {
	return r.get(ctx, sq.Eq{"tenancy_id": tenancyID, "id": id})
}

func (r *SessionRepo) GetByRefreshToken(ctx context.Context, tenancyID, refreshToken string) (*sessions.Session, error) {
	return r.get(ctx, sq.Eq{"tenancy_id": tenancyID, "refresh_token": refreshToken})
}

func (r *SessionRepo) get(ctx context.Context, where sq.Eq) (*sessions.Session, error) {
	query, args, err := builder.Select(sessionColumns...).From("sessions").Where(where).ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "[SessionRepo.get] build query")
	}

	session, err := scanSession(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sessions.ErrSessionNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "[SessionRepo.get] scan")
	}
	return session, nil
}

func (r *SessionRepo) List(ctx context.Context, tenancyID, userID string) ([]*sessions.Session, error) {
	q := builder.
		Select(sessionColumns...).
		From("sessions").
		Where(sq.Eq{"tenancy_id": tenancyID}).
		OrderBy("created_at DESC", "id")
	if userID != "" {
		q = q.Where(sq.Eq{"user_id": userID})
	}
	query, args, err := q.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "[SessionRepo.List] build query")
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "[SessionRepo.List] query")
	}
	defer rows.Close()

	var out []*sessions.Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, errors.Wrap(err, "[SessionRepo.List] scan")
		}
		out = append(out, session)
	}
	return out, errors.Wrap(rows.Err(), "[SessionRepo.List] rows")
}

// DeleteByID removes every session matching the scoped id and reports how
// many were removed.
func (r *SessionRepo) DeleteByID(ctx context.Context, tenancyID, id string) (int64, error) {
	query, args, err := builder.Delete("sessions").Where(sq.Eq{"tenancy_id": tenancyID, "id": id}).ToSql()
	if err != nil {
		return 0, errors.Wrap(err, "[SessionRepo.DeleteByID] build query")
	}
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, errors.Wrap(err, "[SessionRepo.DeleteByID] exec")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "[SessionRepo.DeleteByID] rows affected")
	}
	return affected, nil
}

func scanSession(row rowScanner) (*sessions.Session, error) {
	var (
		session   sessions.Session
		createdAt int64
		expiresAt sql.NullInt64
	)
	err := row.Scan(
		&session.TenancyID,
		&session.ID,
		&session.UserID,
		&createdAt,
		&expiresAt,
		&session.IsImpersonation,
		&session.RefreshToken,
	)
	if err != nil {
		return nil, err
	}
	session.CreatedAt = fromMillis(createdAt)
	session.ExpiresAt = fromNullMillis(expiresAt)
	return &session, nil
}
