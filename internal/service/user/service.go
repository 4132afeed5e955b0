package user

import (
	"context"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/medconnect/booking-api/internal/model"
	"github.com/medconnect/booking-api/internal/repository"
	apperrors "github.com/medconnect/booking-api/pkg/errors"
)

const (
	doctorsCacheKey = "doctors"
	cacheTTL        = 5 * time.Minute
)

// Service serves user lookups. The doctor directory changes rarely and is
// read on every booking screen, so it sits behind a short TTL cache.
// Availability results are never cached here or anywhere else.
type Service struct {
	repo  repository.UserRepository
	cache *gocache.Cache
}

func NewService(repo repository.UserRepository) *Service {
	return &Service{
		repo:  repo,
		cache: gocache.New(cacheTTL, 10*time.Minute),
	}
}

func (s *Service) Get(ctx context.Context, id int64) (*model.User, error) {
	user, err := s.repo.Get(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperrors.NotFound("user", err)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (s *Service) ListDoctors(ctx context.Context) ([]*model.User, error) {
	if cached, ok := s.cache.Get(doctorsCacheKey); ok {
		return cached.([]*model.User), nil
	}

	doctors, err := s.repo.ListByRole(ctx, model.RoleDoctor)
	if err != nil {
		return nil, fmt.Errorf("failed to list doctors: %w", err)
	}

	s.cache.Set(doctorsCacheKey, doctors, gocache.DefaultExpiration)
	return doctors, nil
}
