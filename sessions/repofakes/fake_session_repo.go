package sessionrepofakes

import (
	"context"
	"sort"
	"sync"

	"github.com/tessera-id/tessera/sessions"
)

var _ sessions.Repo = (*FakeSessionRepo)(nil)

type FakeSessionRepo struct {
	records []*sessions.Session
	lock    sync.RWMutex
}

func NewFakeSessionRepo() *FakeSessionRepo {
	return &FakeSessionRepo{}
}

func (sr *FakeSessionRepo) Create(_ context.Context, session *sessions.Session) error {
	sr.lock.Lock()
	defer sr.lock.Unlock()
	copied := *session
	sr.records = append(sr.records, &copied)
	return nil
}

func (sr *FakeSessionRepo) GetByID(_ context.Context, tenancyID, id string) (*sessions.Session, error) {
	sr.lock.RLock()
	defer sr.lock.RUnlock()
	for _, session := range sr.records {
		if session.TenancyID == tenancyID && session.ID == id {
			return session, nil
		}
	}
	return nil, sessions.ErrSessionNotFound
}

func (sr *FakeSessionRepo) GetByRefreshToken(_ context.Context, tenancyID, refreshToken string) (*sessions.Session, error) {
	sr.lock.RLock()
	defer sr.lock.RUnlock()
	for _, session := range sr.records {
		if session.TenancyID == tenancyID && session.RefreshToken == refreshToken {
			return session, nil
		}
	}
	return nil, sessions.ErrSessionNotFound
}

func (sr *FakeSessionRepo) List(_ context.Context, tenancyID, userID string) ([]*sessions.Session, error) {
	sr.lock.RLock()
	defer sr.lock.RUnlock()
	out := make([]*sessions.Session, 0)
	for _, session := range sr.records {
		if session.TenancyID != tenancyID {
			continue
		}
		if userID != "" && session.UserID != userID {
			continue
		}
		out = append(out, session)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (sr *FakeSessionRepo) DeleteByID(_ context.Context, tenancyID, id string) (int64, error) {
	sr.lock.Lock()
	defer sr.lock.Unlock()
	kept := sr.records[:0]
	var deleted int64
	for _, session := range sr.records {
		if session.TenancyID == tenancyID && session.ID == id {
			deleted++
			continue
		}
		kept = append(kept, session)
	}
	sr.records = kept
	return deleted, nil
}
