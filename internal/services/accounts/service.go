// Package accounts handles signup, signin and the current-user lookup.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/benvon/blog-api/internal/auth"
	"github.com/benvon/blog-api/internal/database"
	logpkg "github.com/benvon/blog-api/internal/logger"
	"github.com/benvon/blog-api/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrSignupFailed covers duplicate emails and storage failures alike.
	ErrSignupFailed = errors.New("error while signing up")
	// ErrInvalidCredentials covers unknown emails and wrong passwords alike.
	ErrInvalidCredentials = errors.New("user not found")
	// ErrNotFound is returned by Me when the user no longer exists.
	ErrNotFound = errors.New("user not found")
)

// TokenIssuer signs identity tokens. *auth.Codec satisfies it.
type TokenIssuer interface {
	Issue(subject string) (string, error)
}

// Service owns user accounts.
type Service struct {
	users  database.UserRepositoryInterface
	tokens TokenIssuer
	logger *zap.Logger

	dummyOnce sync.Once
	dummyHash string
}

// NewService creates an accounts service.
func NewService(users database.UserRepositoryInterface, tokens TokenIssuer, logger *zap.Logger) *Service {
	return &Service{users: users, tokens: tokens, logger: logger}
}

// Signup creates a user and returns a token for it. name may be nil.
func (s *Service) Signup(ctx context.Context, email, password string, name *string) (string, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrSignupFailed, err)
	}

	user := &models.User{
		ID:           uuid.New(),
		Email:        normalizeEmail(email),
		Name:         name,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, database.ErrDuplicateEmail) {
			s.logger.Info("signup_duplicate_email", zap.String("email", logpkg.MaskEmail(user.Email)))
		} else {
			s.logger.Error("signup_store_failed", zap.Error(err))
		}
		return "", fmt.Errorf("%w: %w", ErrSignupFailed, err)
	}

	token, err := s.tokens.Issue(user.ID.String())
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrSignupFailed, err)
	}

	s.logger.Info("user_signed_up", zap.String("user_id", user.ID.String()))
	return token, nil
}

// Signin checks the credentials and returns a fresh token.
func (s *Service) Signin(ctx context.Context, email, password string) (string, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, database.ErrNotFound) {
		// Burn a comparison so unknown emails cost the same as wrong passwords.
		_ = auth.CheckPassword(s.dummy(), password)
		s.logger.Info("signin_rejected", zap.String("email", logpkg.MaskEmail(email)), zap.String("reason", "unknown_email"))
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up user: %w", err)
	}

	if err := auth.CheckPassword(user.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			s.logger.Info("signin_rejected", zap.String("user_id", user.ID.String()), zap.String("reason", "password_mismatch"))
			return "", ErrInvalidCredentials
		}
		return "", err
	}

	return s.tokens.Issue(user.ID.String())
}

// Me returns the user bound to the current request.
func (s *Service) Me(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return user, nil
}

func (s *Service) dummy() string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = auth.HashPassword(uuid.NewString())
	})
	return s.dummyHash
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
