package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/culturekart/marketplace-backend/internal/repository"
)

// StatsStore computes dashboard aggregates.
type StatsStore interface {
	ArtisanStats(ctx context.Context, artisanID uuid.UUID) (*repository.ArtisanStats, error)
	PlatformStats(ctx context.Context) (*repository.PlatformStats, error)
}

type StatsService struct {
	store StatsStore
}

func NewStatsService(store StatsStore) *StatsService {
	return &StatsService{store: store}
}

func (s *StatsService) ForArtisan(ctx context.Context, artisanID uuid.UUID) (*repository.ArtisanStats, error) {
	return s.store.ArtisanStats(ctx, artisanID)
}

func (s *StatsService) ForPlatform(ctx context.Context) (*repository.PlatformStats, error) {
	return s.store.PlatformStats(ctx)
}
