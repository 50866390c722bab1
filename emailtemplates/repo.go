package emailtemplates

import (
	"context"
	"errors"
)

var ErrTemplateNotFound = errors.New("email template not found")

type Repo interface {
	Create(ctx context.Context, template *Template) error
	Get(ctx context.Context, tenancyID, id string) (*Template, error)
	List(ctx context.Context, tenancyID string) ([]*Template, error)
	Delete(ctx context.Context, tenancyID, id string) error
}
