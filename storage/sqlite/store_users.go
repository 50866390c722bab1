package sqlite

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"

	"github.com/tessera-id/tessera/users"
)

// UserRepo is the users view of the store.
type UserRepo struct {
	db *sql.DB
}

var _ users.Repo = (*UserRepo)(nil)

// Users returns the user repository backed by this store.
func (s *Store) Users() *UserRepo {
	return &UserRepo{db: s.db}
}

func (r *UserRepo) Create(ctx context.Context, user *users.User) error {
	query, args, err := builder.
		Insert("users").
		Columns("tenancy_id", "id", "display_name", "primary_email", "created_at").
		Values(user.TenancyID, user.ID, user.DisplayName, user.PrimaryEmail, toMillis(user.CreatedAt)).
		ToSql()
	if err != nil {
		return errors.Wrap(err, "[UserRepo.Create] build query")
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return errors.Wrap(err, "[UserRepo.Create] exec")
	}
	return nil
}

func (r *UserRepo) Get(ctx context.Context, tenancyID, userID string) (*users.User, error) {
	query, args, err := builder.
		Select("tenancy_id", "id", "display_name", "primary_email", "created_at").
		From("users").
		Where(sq.Eq{"tenancy_id": tenancyID, "id": userID}).
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "[UserRepo.Get] build query")
	}

	user, err := scanUser(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, users.ErrUserNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "[UserRepo.Get] scan")
	}
	return user, nil
}

func (r *UserRepo) List(ctx context.Context, tenancyID string) ([]*users.User, error) {
	query, args, err := builder.
		Select("tenancy_id", "id", "display_name", "primary_email", "created_at").
		From("users").
		Where(sq.Eq{"tenancy_id": tenancyID}).
		OrderBy("created_at DESC", "id").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "[UserRepo.List] build query")
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "[UserRepo.List] query")
	}
	defer rows.Close()

	var out []*users.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, errors.Wrap(err, "[UserRepo.List] scan")
		}
		out = append(out, user)
	}
	return out, errors.Wrap(rows.Err(), "[UserRepo.List] rows")
}

func (r *UserRepo) Delete(ctx context.Context, tenancyID, userID string) error {
	query, args, err := builder.Delete("users").Where(sq.Eq{"tenancy_id": tenancyID, "id": userID}).ToSql()
	if err != nil {
		return errors.Wrap(err, "[UserRepo.Delete] build query")
	}
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return errors.Wrap(err, "[UserRepo.Delete] exec")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "[UserRepo.Delete] rows affected")
	}
	if affected == 0 {
		return users.ErrUserNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*users.User, error) {
	var (
		user      users.User
		createdAt int64
	)
	if err := row.Scan(&user.TenancyID, &user.ID, &user.DisplayName, &user.PrimaryEmail, &createdAt); err != nil {
		return nil, err
	}
	user.CreatedAt = fromMillis(createdAt)
	return &user, nil
}
