package emailtemplates

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Service owns template lifecycle for the admin surface.
type Service struct {
	repo    Repo
	nowTime func() time.Time
}

type ServiceOption func(*Service)

// WithNowTime sets the now time function (primarily for testing).
func WithNowTime(nowFunc func() time.Time) ServiceOption {
	return func(s *Service) {
		s.nowTime = nowFunc
	}
}

func NewService(repo Repo, options ...ServiceOption) *Service {
	s := &Service{repo: repo, nowTime: time.Now}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// Create registers a new template seeded with the default source stub and
// returns it.
func (s *Service) Create(ctx context.Context, tenancyID, displayName string) (*Template, error) {
	template := &Template{
		ID:          uuid.New().String(),
		TenancyID:   tenancyID,
		DisplayName: displayName,
		TSXSource:   DefaultSource(displayName),
		CreatedAt:   s.nowTime().UTC(),
	}
	if err := s.repo.Create(ctx, template); err != nil {
		return nil, errors.Wrap(err, "[emailtemplates.Create] persist template")
	}
	return template, nil
}

func (s *Service) List(ctx context.Context, tenancyID string) ([]*Template, error) {
	return s.repo.List(ctx, tenancyID)
}

func (s *Service) Delete(ctx context.Context, tenancyID, id string) error {
	return s.repo.Delete(ctx, tenancyID, id)
}
