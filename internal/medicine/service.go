package medicine

import (
	"context"
	"strings"
)

type Service struct {
	repo RepositoryInterface
}

func NewService(repo RepositoryInterface) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context) ([]Medicine, error) {
	return s.repo.List(ctx)
}

func (s *Service) ListBySpecialization(ctx context.Context, specialization string) ([]Medicine, error) {
	specialization = strings.TrimSpace(specialization)
	if specialization == "" {
		return nil, ErrMissingSpecialization
	}
	return s.repo.ListBySpecialization(ctx, specialization)
}

func (s *Service) Get(ctx context.Context, id int64) (*Medicine, error) {
	return s.repo.GetByID(ctx, id)
}
