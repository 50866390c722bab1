package apikeyrepofakes

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tessera-id/tessera/apikeys"
)

var _ apikeys.Repo = (*FakeAPIKeyRepo)(nil)

type FakeAPIKeyRepo struct {
	keys map[string]*apikeys.APIKey
	lock sync.RWMutex
}

func NewFakeAPIKeyRepo() *FakeAPIKeyRepo {
	return &FakeAPIKeyRepo{keys: make(map[string]*apikeys.APIKey)}
}

func (kr *FakeAPIKeyRepo) Create(_ context.Context, key *apikeys.APIKey) error {
	kr.lock.Lock()
	defer kr.lock.Unlock()
	if key.ID == "" {
		key.ID = uuid.New().String()
	}
	copied := *key
	kr.keys[key.ID] = &copied
	return nil
}

func (kr *FakeAPIKeyRepo) GetByID(_ context.Context, tenancyID, id string) (*apikeys.APIKey, error) {
	kr.lock.RLock()
	defer kr.lock.RUnlock()
	key, ok := kr.keys[id]
	if !ok || key.TenancyID != tenancyID {
		return nil, apikeys.ErrAPIKeyNotFound
	}
	return key, nil
}

func (kr *FakeAPIKeyRepo) List(_ context.Context, tenancyID string) ([]*apikeys.APIKey, error) {
	kr.lock.RLock()
	defer kr.lock.RUnlock()
	out := make([]*apikeys.APIKey, 0)
	for _, key := range kr.keys {
		if key.TenancyID == tenancyID {
			out = append(out, key)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (kr *FakeAPIKeyRepo) SetRevoked(_ context.Context, tenancyID, id string, revokedAt time.Time) error {
	kr.lock.Lock()
	defer kr.lock.Unlock()
	key, ok := kr.keys[id]
	if !ok || key.TenancyID != tenancyID {
		return apikeys.ErrAPIKeyNotFound
	}
	key.ManuallyRevokedAt = &revokedAt
	return nil
}

func (kr *FakeAPIKeyRepo) GetByKeyHash(_ context.Context, hash string) (*apikeys.APIKey, apikeys.Class, error) {
	kr.lock.RLock()
	defer kr.lock.RUnlock()
	for _, key := range kr.keys {
		switch {
		case key.PublishableClientKey != nil && key.PublishableClientKey.Hash == hash:
			return key, apikeys.ClassPublishableClient, nil
		case key.SecretServerKey != nil && key.SecretServerKey.Hash == hash:
			return key, apikeys.ClassSecretServer, nil
		case key.SuperSecretAdminKey != nil && key.SuperSecretAdminKey.Hash == hash:
			return key, apikeys.ClassSuperSecretAdmin, nil
		}
	}
	return nil, "", apikeys.ErrAPIKeyNotFound
}
