package tenantrepofakes

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/tessera-id/tessera/tenants"
)

var _ tenants.Repo = (*FakeTenancyRepo)(nil)

type FakeTenancyRepo struct {
	tenancies map[string]*tenants.Tenancy
	lock      sync.RWMutex
}

func NewFakeTenancyRepo() *FakeTenancyRepo {
	return &FakeTenancyRepo{
		tenancies: make(map[string]*tenants.Tenancy),
	}
}

func (tr *FakeTenancyRepo) Upsert(_ context.Context, tenancy *tenants.Tenancy) error {
	tr.lock.Lock()
	defer tr.lock.Unlock()
	if tenancy.ID == "" {
		tenancy.ID = uuid.New().String()
	}
	tr.tenancies[tenancy.ID] = tenancy
	return nil
}

func (tr *FakeTenancyRepo) Get(_ context.Context, tenancyID string) (*tenants.Tenancy, error) {
	tr.lock.RLock()
	defer tr.lock.RUnlock()
	tenancy, ok := tr.tenancies[tenancyID]
	if !ok {
		return nil, tenants.ErrTenancyNotFound
	}
	return tenancy, nil
}

func (tr *FakeTenancyRepo) GetByProjectBranch(_ context.Context, projectID, branchID string) (*tenants.Tenancy, error) {
	tr.lock.RLock()
	defer tr.lock.RUnlock()
	for _, tenancy := range tr.tenancies {
		if tenancy.ProjectID == projectID && tenancy.BranchID == branchID {
			return tenancy, nil
		}
	}
	return nil, tenants.ErrTenancyNotFound
}

func (tr *FakeTenancyRepo) Delete(_ context.Context, tenancyID string) error {
	tr.lock.Lock()
	defer tr.lock.Unlock()
	delete(tr.tenancies, tenancyID)
	return nil
}
