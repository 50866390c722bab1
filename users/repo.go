package users

import (
	"context"
	"errors"
)

var ErrUserNotFound = errors.New("user not found")

type Repo interface {
	Create(ctx context.Context, user *User) error
	Get(ctx context.Context, tenancyID, userID string) (*User, error)
	List(ctx context.Context, tenancyID string) ([]*User, error)
	Delete(ctx context.Context, tenancyID, userID string) error
}
