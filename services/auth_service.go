package services

import (
	"chat-relay/auth"
	"chat-relay/domain"
	apperrors "chat-relay/errors"
	"chat-relay/repositories"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

type IAuthService interface {
	Register(ctx context.Context, email, name, password string) (domain.AccessToken, error)
	Login(ctx context.Context, email, password string) (domain.AccessToken, error)
	Logout(ctx context.Context, token domain.ID) error
}

type AuthService struct {
	log      *slog.Logger
	users    *repositories.UserRepository
	tokens   *repositories.AccessTokenRepository
	tokenTTL time.Duration
}

func NewAuthService(log *slog.Logger, users *repositories.UserRepository, tokens *repositories.AccessTokenRepository, tokenTTL time.Duration) *AuthService {
	return &AuthService{
		log:      log,
		users:    users,
		tokens:   tokens,
		tokenTTL: tokenTTL,
	}
}

// Register validates the business rules before any expensive hashing, then
// persists the account and issues the first session token. A taken email is
// ErrConflict regardless of backend; the mongo unique index remains as a
// backstop against concurrent registrations.
func (s *AuthService) Register(ctx context.Context, email, name, password string) (domain.AccessToken, error) {
	request := auth.RegisterRequest{Email: email, Name: name, Password: password}
	if err := auth.ValidateRegister(request); err != nil {
		return domain.AccessToken{}, err
	}

	if _, found, err := s.users.TryGetByEmail(ctx, email); err != nil {
		return domain.AccessToken{}, err
	} else if found {
		return domain.AccessToken{}, fmt.Errorf("%w: email already registered", apperrors.ErrConflict)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return domain.AccessToken{}, fmt.Errorf("hashing failed: %w", err)
	}

	user, err := s.users.Insert(ctx, domain.NewUser(email, name, hash, []string{"member"}))
	if err != nil {
		return domain.AccessToken{}, err
	}
	s.log.Info("account registered", "userId", user.ID)

	return s.issueToken(ctx, user.ID)
}

// Login answers every credential failure with ErrInvalidCredentials to
// prevent account enumeration.
func (s *AuthService) Login(ctx context.Context, email, password string) (domain.AccessToken, error) {
	user, found, err := s.users.TryGetByEmail(ctx, email)
	if err != nil {
		return domain.AccessToken{}, err
	}
	if !found {
		return domain.AccessToken{}, apperrors.ErrInvalidCredentials
	}

	match, err := auth.ComparePassword(password, user.PasswordHash)
	if err != nil || !match {
		return domain.AccessToken{}, apperrors.ErrInvalidCredentials
	}

	return s.issueToken(ctx, user.ID)
}

// Logout revokes one token. Revoking a token that is already gone is not
// an error.
func (s *AuthService) Logout(ctx context.Context, token domain.ID) error {
	err := s.tokens.DeleteByID(ctx, token)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil
	}
	return err
}

func (s *AuthService) issueToken(ctx context.Context, userID domain.ID) (domain.AccessToken, error) {
	token, err := domain.NewAccessToken(userID, s.tokenTTL)
	if err != nil {
		return domain.AccessToken{}, apperrors.ErrTokenGeneration
	}
	if _, err := s.tokens.Insert(ctx, token); err != nil {
		return domain.AccessToken{}, err
	}
	return token, nil
}
