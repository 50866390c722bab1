package tenants

import (
	"context"
	"errors"
)

var ErrTenancyNotFound = errors.New("tenancy not found")

type Repo interface {
	Upsert(ctx context.Context, tenancy *Tenancy) error
	Get(ctx context.Context, tenancyID string) (*Tenancy, error)
	GetByProjectBranch(ctx context.Context, projectID, branchID string) (*Tenancy, error)
	Delete(ctx context.Context, tenancyID string) error
}
