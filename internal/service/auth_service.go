package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"teslo-shop/internal/auth"
	"teslo-shop/internal/domain"
	"teslo-shop/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrInvalidCredentials covers both an unknown email and a wrong password.
// The two cases are deliberately indistinguishable to the caller.
var ErrInvalidCredentials = errors.New("wrong credentials")

// AuthService defines the interface for the identity business logic
type AuthService interface {
	Register(ctx context.Context, email, password, fullName string) (*domain.User, string, error)
	Login(ctx context.Context, email, password string) (*domain.User, string, error)
	CheckStatus(user *domain.User) (string, error)
}

type authService struct {
	userRepo repository.UserRepository
	issuer   *auth.TokenIssuer
	logger   *zap.Logger
}

// NewAuthService creates a new instance of AuthService
func NewAuthService(userRepo repository.UserRepository, issuer *auth.TokenIssuer, logger *zap.Logger) AuthService {
	return &authService{
		userRepo: userRepo,
		issuer:   issuer,
		logger:   logger,
	}
}

// Register creates a new user account and issues a token for it. There is
// no existence pre-check: the store's unique constraint decides duplicates,
// which keeps concurrent registrations race-free.
func (s *authService) Register(ctx context.Context, email, password, fullName string) (*domain.User, string, error) {
	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		s.logger.Error("Failed to hash password", zap.Error(err))
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := &domain.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: passwordHash,
		FullName:     fullName,
		IsActive:     true,
		Roles:        []string{domain.RoleUser},
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return nil, "", repository.ErrEmailTaken
		}
		s.logger.Error("Failed to create user", zap.Error(err))
		return nil, "", fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.issuer.Issue(user.ID)
	if err != nil {
		s.logger.Error("Failed to issue token", zap.Error(err))
		return nil, "", fmt.Errorf("failed to issue token: %w", err)
	}

	return sanitize(user), token, nil
}

// Login authenticates by email and password and issues a token. Unknown
// emails and wrong passwords yield the same error so callers cannot probe
// which addresses are registered.
func (s *authService) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		s.logger.Error("Failed to find user", zap.Error(err))
		return nil, "", fmt.Errorf("failed to find user: %w", err)
	}

	if !auth.VerifyPassword(password, user.PasswordHash) {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.issuer.Issue(user.ID)
	if err != nil {
		s.logger.Error("Failed to issue token", zap.Error(err))
		return nil, "", fmt.Errorf("failed to issue token: %w", err)
	}

	return sanitize(user), token, nil
}

// sanitize returns a copy of the user without the password hash. The
// original is left untouched; it may still be referenced by the repository.
func sanitize(user *domain.User) *domain.User {
	clean := *user
	clean.PasswordHash = ""
	return &clean
}

// CheckStatus re-issues a fresh token for an already-authenticated user.
// Credentials are not re-verified; the access guard resolved the identity.
func (s *authService) CheckStatus(user *domain.User) (string, error) {
	token, err := s.issuer.Issue(user.ID)
	if err != nil {
		s.logger.Error("Failed to issue token", zap.Error(err))
		return "", fmt.Errorf("failed to issue token: %w", err)
	}
	return token, nil
}
