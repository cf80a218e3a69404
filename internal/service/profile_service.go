package service

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/model"
	"storefront/internal/repository"
)

var ErrProfileNotFound = errors.New("profile not found")

// ProfileService loads and updates the account profile. Saves reload
// from the database so responses always reflect confirmed server state.
type ProfileService interface {
	Load(ctx context.Context, userID string) (*model.Profile, error)
	Save(ctx context.Context, userID, fullName string) (*model.Profile, error)
}

type profileService struct {
	repo repository.ProfileRepository
}

// NewProfileService creates a new ProfileService
func NewProfileService(repo repository.ProfileRepository) ProfileService {
	return &profileService{repo: repo}
}

func (s *profileService) Load(ctx context.Context, userID string) (*model.Profile, error) {
	profile, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	if profile == nil {
		return nil, ErrProfileNotFound
	}
	return profile, nil
}

func (s *profileService) Save(ctx context.Context, userID, fullName string) (*model.Profile, error) {
	if fullName == "" {
		return nil, ErrInvalidFullName
	}
	if err := s.repo.UpdateFullName(ctx, userID, fullName); err != nil {
		return nil, fmt.Errorf("failed to save profile: %w", err)
	}
	return s.Load(ctx, userID)
}
