package apikeys

import (
	"context"
	"errors"
	"time"
)

var ErrAPIKeyNotFound = errors.New("api key not found")

type Repo interface {
	Create(ctx context.Context, key *APIKey) error
	GetByID(ctx context.Context, tenancyID, id string) (*APIKey, error)
	List(ctx context.Context, tenancyID string) ([]*APIKey, error)
	SetRevoked(ctx context.Context, tenancyID, id string, revokedAt time.Time) error

	// GetByKeyHash resolves a presented key value's digest to its record
	// and the class of the matching slot. Lookup is global; the record
	// carries its tenancy.
	GetByKeyHash(ctx context.Context, hash string) (*APIKey, Class, error)
}
