package sqlite

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"

	"github.com/tessera-id/tessera/tenants"
)

// TenancyRepo is the tenancies view of the store.
type TenancyRepo struct {
	db *sql.DB
}

var _ tenants.Repo = (*TenancyRepo)(nil)

// Tenancies returns the tenancy repository backed by this store.
func (s *Store) Tenancies() *TenancyRepo {
	return &TenancyRepo{db: s.db}
}

// Upsert creates or replaces a tenancy record.
func (r *TenancyRepo) Upsert(ctx context.Context, tenancy *tenants.Tenancy) error {
	query, args, err := builder.
		Insert("tenancies").
		Columns("id", "project_id", "branch_id", "created_at").
		Values(tenancy.ID, tenancy.ProjectID, tenancy.BranchID, toMillis(tenancy.CreatedAt)).
		Suffix("ON CONFLICT (id) DO UPDATE SET project_id = excluded.project_id, branch_id = excluded.branch_id").
		ToSql()
	if err != nil {
		return errors.Wrap(err, "[TenancyRepo.Upsert] build query")
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return errors.Wrap(err, "[TenancyRepo.Upsert] exec")
	}
	return nil
}

func (r *TenancyRepo) Get(ctx context.Context, tenancyID string) (*tenants.Tenancy, error) {
	return r.get(ctx, sq.Eq{"id": tenancyID})
}

func (r *TenancyRepo) GetByProjectBranch(ctx context.Context, projectID, branchID string) (*tenants.Tenancy, error) {
	return r.get(ctx, sq.Eq{"project_id": projectID, "branch_id": branchID})
}

func (r *TenancyRepo) get(ctx context.Context, where sq.Eq) (*tenants.Tenancy, error) {
	query, args, err := builder.
		Select("id", "project_id", "branch_id", "created_at").
		From("tenancies").
		Where(where).
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "[TenancyRepo.get] build query")
	}

	var (
		tenancy   tenants.Tenancy
		createdAt int64
	)
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&tenancy.ID, &tenancy.ProjectID, &tenancy.BranchID, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, tenants.ErrTenancyNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "[TenancyRepo.get] scan")
	}
	tenancy.CreatedAt = fromMillis(createdAt)
	return &tenancy, nil
}

func (r *TenancyRepo) Delete(ctx context.Context, tenancyID string) error {
	query, args, err := builder.Delete("tenancies").Where(sq.Eq{"id": tenancyID}).ToSql()
	if err != nil {
		return errors.Wrap(err, "[TenancyRepo.Delete] build query")
	}
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return errors.Wrap(err, "[TenancyRepo.Delete] exec")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "[TenancyRepo.Delete] rows affected")
	}
	if affected == 0 {
		return tenants.ErrTenancyNotFound
	}
	return nil
}
