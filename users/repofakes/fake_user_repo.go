package userrepofakes

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/tessera-id/tessera/users"
)

var _ users.Repo = (*FakeUserRepo)(nil)

type FakeUserRepo struct {
	users map[string]*users.User // keyed by tenancyID + "/" + userID
	lock  sync.RWMutex
}

func NewFakeUserRepo() *FakeUserRepo {
	return &FakeUserRepo{users: make(map[string]*users.User)}
}

func key(tenancyID, userID string) string { return tenancyID + "/" + userID }

func (ur *FakeUserRepo) Create(_ context.Context, user *users.User) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	ur.users[key(user.TenancyID, user.ID)] = user
	return nil
}

func (ur *FakeUserRepo) Get(_ context.Context, tenancyID, userID string) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()
	user, ok := ur.users[key(tenancyID, userID)]
	if !ok {
		return nil, users.ErrUserNotFound
	}
	return user, nil
}

func (ur *FakeUserRepo) List(_ context.Context, tenancyID string) ([]*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()
	out := make([]*users.User, 0)
	for _, user := range ur.users {
		if user.TenancyID == tenancyID {
			out = append(out, user)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (ur *FakeUserRepo) Delete(_ context.Context, tenancyID, userID string) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()
	if _, ok := ur.users[key(tenancyID, userID)]; !ok {
		return users.ErrUserNotFound
	}
	delete(ur.users, key(tenancyID, userID))
	return nil
}
