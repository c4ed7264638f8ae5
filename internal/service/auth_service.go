package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/culturekart/marketplace-backend/internal/models"
	"github.com/culturekart/marketplace-backend/internal/pkg/apperror"
	"github.com/culturekart/marketplace-backend/internal/repository"
	"github.com/culturekart/marketplace-backend/internal/validation"
)

// AuthRepository is the account storage the auth service needs.
type AuthRepository interface {
	Create(ctx context.Context, email, username, passwordHash, role string) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	TouchLastLogin(ctx context.Context, id uuid.UUID) error
	CreateSession(ctx context.Context, userID uuid.UUID, refreshToken string, userAgent, ip *string, expiresAt time.Time) (*models.Session, error)
	GetSessionByToken(ctx context.Context, refreshToken string) (*models.Session, error)
	DeleteSession(ctx context.Context, id uuid.UUID) error
}

type AuthService struct {
	repo   AuthRepository
	tokens *TokenManager
}

func NewAuthService(repo AuthRepository, tokens *TokenManager) *AuthService {
	return &AuthService{repo: repo, tokens: tokens}
}

// Register creates an account. Role is restricted to buyer or artisan;
// admins are provisioned out of band.
func (s *AuthService) Register(ctx context.Context, email, username, password, role string) (*models.User, *TokenPair, error) {
	if err := validation.ValidateEmail(email); err != nil {
		return nil, nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateUsername(username); err != nil {
		return nil, nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if role != models.RoleBuyer && role != models.RoleArtisan {
		return nil, nil, apperror.New(apperror.ErrCodeValidation, "role must be buyer or artisan")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, fmt.Errorf("auth: hash password: %w", err)
	}

	user, err := s.repo.Create(ctx, email, username, string(hash), role)
	if err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return nil, nil, apperror.New(apperror.ErrCodeConflict, "email already registered")
		}
		return nil, nil, err
	}

	pair, err := s.issueSession(ctx, user, nil, nil)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

// Login verifies credentials and issues a token pair.
func (s *AuthService) Login(ctx context.Context, email, password string, userAgent, ip *string) (*models.User, *TokenPair, error) {
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, nil, apperror.ErrInvalidCredentials
		}
		return nil, nil, err
	}
	if !user.IsActive {
		return nil, nil, apperror.New(apperror.ErrCodeForbidden, "account is deactivated")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, nil, apperror.ErrInvalidCredentials
	}

	if err := s.repo.TouchLastLogin(ctx, user.ID); err != nil {
		return nil, nil, err
	}

	pair, err := s.issueSession(ctx, user, userAgent, ip)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

// Refresh rotates a refresh token: the presented session is deleted and a
// new pair is issued.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*models.User, *TokenPair, error) {
	if _, err := s.tokens.ParseRefresh(refreshToken); err != nil {
		return nil, nil, apperror.New(apperror.ErrCodeUnauthorized, "invalid refresh token")
	}

	session, err := s.repo.GetSessionByToken(ctx, refreshToken)
	if err != nil {
		return nil, nil, apperror.New(apperror.ErrCodeUnauthorized, "session expired")
	}

	user, err := s.repo.GetByID(ctx, session.UserID)
	if err != nil {
		return nil, nil, err
	}

	if err := s.repo.DeleteSession(ctx, session.ID); err != nil {
		return nil, nil, err
	}

	pair, err := s.issueSession(ctx, user, session.UserAgent, session.IPAddress)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

// Logout invalidates the presented refresh token. An unknown token is not
// an error; logout is idempotent.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	session, err := s.repo.GetSessionByToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil
		}
		return err
	}
	return s.repo.DeleteSession(ctx, session.ID)
}

// Me returns the authenticated user's own account.
func (s *AuthService) Me(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperror.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *AuthService) issueSession(ctx context.Context, user *models.User, userAgent, ip *string) (*TokenPair, error) {
	pair, refreshExp, err := s.tokens.GeneratePair(user)
	if err != nil {
		return nil, fmt.Errorf("auth: issue tokens: %w", err)
	}
	if _, err := s.repo.CreateSession(ctx, user.ID, pair.RefreshToken, userAgent, ip, refreshExp); err != nil {
		return nil, fmt.Errorf("auth: store session: %w", err)
	}
	return pair, nil
}
