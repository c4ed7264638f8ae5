package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/culturekart/marketplace-backend/internal/models"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrEmailTaken      = errors.New("email already registered")
	ErrSessionNotFound = errors.New("session not found")
)

type UserRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, email, username, passwordHash, role string) (*models.User, error) {
	var u models.User
	err := r.db.GetContext(ctx, &u, `
		INSERT INTO users (email, username, password_hash, role)
		VALUES ($1, $2, $3, $4)
		RETURNING *
	`, email, username, passwordHash, role)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var u models.User
	err := r.db.GetContext(ctx, &u, `SELECT * FROM users WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	return &u, err
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := r.db.GetContext(ctx, &u, `SELECT * FROM users WHERE email = $1`, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	return &u, err
}

func (r *UserRepository) TouchLastLogin(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET last_login_at = NOW(), updated_at = NOW() WHERE id = $1`, id)
	return err
}

// CreateSession stores a refresh token.
func (r *UserRepository) CreateSession(ctx context.Context, userID uuid.UUID, refreshToken string, userAgent, ip *string, expiresAt time.Time) (*models.Session, error) {
	var s models.Session
	err := r.db.GetContext(ctx, &s, `
		INSERT INTO sessions (user_id, refresh_token, user_agent, ip_address, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING *
	`, userID, refreshToken, userAgent, ip, expiresAt)
	return &s, err
}

func (r *UserRepository) GetSessionByToken(ctx context.Context, refreshToken string) (*models.Session, error) {
	var s models.Session
	err := r.db.GetContext(ctx, &s, `SELECT * FROM sessions WHERE refresh_token = $1 AND expires_at > NOW()`, refreshToken)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	return &s, err
}

func (r *UserRepository) DeleteSession(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	return err
}

// GetArtisanProfile returns the public seller profile, if any.
func (r *UserRepository) GetArtisanProfile(ctx context.Context, userID uuid.UUID) (*models.ArtisanProfile, error) {
	var p models.ArtisanProfile
	err := r.db.GetContext(ctx, &p, `SELECT * FROM artisan_profiles WHERE user_id = $1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	return &p, err
}

func (r *UserRepository) UpsertArtisanProfile(ctx context.Context, p *models.ArtisanProfile) (*models.ArtisanProfile, error) {
	var out models.ArtisanProfile
	err := r.db.GetContext(ctx, &out, `
		INSERT INTO artisan_profiles (user_id, display_name, workshop_name, bio, craft, region, phone, photo_path)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			workshop_name = EXCLUDED.workshop_name,
			bio = EXCLUDED.bio,
			craft = EXCLUDED.craft,
			region = EXCLUDED.region,
			phone = EXCLUDED.phone,
			photo_path = EXCLUDED.photo_path,
			updated_at = NOW()
		RETURNING *
	`, p.UserID, p.DisplayName, p.WorkshopName, p.Bio, p.Craft, p.Region, p.Phone, p.PhotoPath)
	return &out, err
}
