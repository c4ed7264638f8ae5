package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/culturekart/marketplace-backend/internal/models"
	"github.com/culturekart/marketplace-backend/internal/pkg/apperror"
	"github.com/culturekart/marketplace-backend/internal/repository"
	"github.com/culturekart/marketplace-backend/internal/validation"
)

// ProfileStore is the artisan-profile persistence the service depends on.
type ProfileStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetArtisanProfile(ctx context.Context, userID uuid.UUID) (*models.ArtisanProfile, error)
	UpsertArtisanProfile(ctx context.Context, p *models.ArtisanProfile) (*models.ArtisanProfile, error)
}

type ProfileService struct {
	store ProfileStore
}

func NewProfileService(store ProfileStore) *ProfileService {
	return &ProfileService{store: store}
}

// Get returns the public artisan profile.
func (s *ProfileService) Get(ctx context.Context, artisanID uuid.UUID) (*models.ArtisanProfile, error) {
	profile, err := s.store.GetArtisanProfile(ctx, artisanID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperror.New(apperror.ErrCodeNotFound, "artisan profile not found")
		}
		return nil, err
	}
	return profile, nil
}

// Upsert creates or updates the caller's own profile; only artisan
// accounts carry one.
func (s *ProfileService) Upsert(ctx context.Context, userID uuid.UUID, p *models.ArtisanProfile) (*models.ArtisanProfile, error) {
	user, err := s.store.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Role != models.RoleArtisan {
		return nil, apperror.ErrForbidden
	}
	if err := validation.ValidateUsername(p.DisplayName); err != nil {
		return nil, err
	}

	p.UserID = userID
	p.DisplayName = strings.TrimSpace(p.DisplayName)
	return s.store.UpsertArtisanProfile(ctx, p)
}
