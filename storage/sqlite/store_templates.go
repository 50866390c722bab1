package sqlite

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"

	"github.com/tessera-id/tessera/emailtemplates"
)

// TemplateRepo is the email templates view of the store.
type TemplateRepo struct {
	db *sql.DB
}

var _ emailtemplates.Repo = (*TemplateRepo)(nil)

// Templates returns the email template repository backed by this store.
func (s *Store) Templates() *TemplateRepo {
	return &TemplateRepo{db: s.db}
}

var templateColumns = []string{"tenancy_id", "id", "display_name", "tsx_source", "theme_id", "created_at"}

func (r *TemplateRepo) Create(ctx context.Context, template *emailtemplates.Template) error {
	query, args, err := builder.
		Insert("email_templates").
		Columns(templateColumns...).
		Values(
			template.TenancyID,
			template.ID,
			template.DisplayName,
			template.TSXSource,
			toNullString(template.ThemeID),
			toMillis(template.CreatedAt),
		).
		ToSql()
	if err != nil {
		return errors.Wrap(err, "[TemplateRepo.Create] build query")
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return errors.Wrap(err, "[TemplateRepo.Create] exec")
	}
	return nil
}

func (r *TemplateRepo) Get(ctx context.Context, tenancyID, id string) (*emailtemplates.Template, error) {
	query, args, err := builder.
		Select(templateColumns...).
		From("email_templates").
		Where(sq.Eq{"tenancy_id": tenancyID, "id": id}).
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "[TemplateRepo.Get] build query")
	}

	template, err := scanTemplate(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, emailtemplates.ErrTemplateNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "[TemplateRepo.Get] scan")
	}
	return template, nil
}

func (r *TemplateRepo) List(ctx context.Context, tenancyID string) ([]*emailtemplates.Template, error) {
	query, args, err := builder.
		Select(templateColumns...).
		From("email_templates").
		Where(sq.Eq{"tenancy_id": tenancyID}).
		OrderBy("created_at DESC", "id").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "[TemplateRepo.List] build query")
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "[TemplateRepo.List] query")
	}
	defer rows.Close()

	var out []*emailtemplates.Template
	for rows.Next() {
		template, err := scanTemplate(rows)
		if err != nil {
			return nil, errors.Wrap(err, "[TemplateRepo.List] scan")
		}
		out = append(out, template)
	}
	return out, errors.Wrap(rows.Err(), "[TemplateRepo.List] rows")
}

func (r *TemplateRepo) Delete(ctx context.Context, tenancyID, id string) error {
	query, args, err := builder.Delete("email_templates").Where(sq.Eq{"tenancy_id": tenancyID, "id": id}).ToSql()
	if err != nil {
		return errors.Wrap(err, "[TemplateRepo.Delete] build query")
	}
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return errors.Wrap(err, "[TemplateRepo.Delete] exec")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "[TemplateRepo.Delete] rows affected")
	}
	if affected == 0 {
		return emailtemplates.ErrTemplateNotFound
	}
	return nil
}

func scanTemplate(row rowScanner) (*emailtemplates.Template, error) {
	var (
		template  emailtemplates.Template
		themeID   sql.NullString
		createdAt int64
	)
	err := row.Scan(
		&template.TenancyID,
		&template.ID,
		&template.DisplayName,
		&template.TSXSource,
		&themeID,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}
	template.ThemeID = fromNullString(themeID)
	template.CreatedAt = fromMillis(createdAt)
	return &template, nil
}
