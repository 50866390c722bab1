package sessions

import (
	"context"
	"errors"
)

var ErrSessionNotFound = errors.New("session not found")

// Repo is the persistence contract for session records. List results are
// ordered by creation time, newest first; an empty userID lists every
// session in the tenancy. DeleteByID removes every record matching the
// scoped identifier and reports how many were removed.
type Repo interface {
	Create(ctx context.Context, session *Session) error
	GetByID(ctx context.Context, tenancyID, id string) (*Session, error)
	GetByRefreshToken(ctx context.Context, tenancyID, refreshToken string) (*Session, error)
	List(ctx context.Context, tenancyID, userID string) ([]*Session, error)
	DeleteByID(ctx context.Context, tenancyID, id string) (int64, error)
}
